package flow

// Call pairs two valid Connections that exchange the same pair of SSRCs
// in opposite directions: peer1's first ingress SSRC equals peer2's first
// egress SSRC, and peer2's first ingress SSRC equals peer1's first
// egress SSRC.
type Call struct {
	Peer1     *Connection
	Peer2     *Connection
	Peer1SSRC uint32
	Peer2SSRC uint32
}

// PairCalls groups valid connections into calls, per spec.md §4.5:
// connections with no traffic in both directions never participate in a
// call (they still surface in the connection report on their own). Each
// connection is used in at most one call; a connection with no matching
// peer is reported as a standalone connection, not a call.
func PairCalls(connections []*Connection) []Call {
	var valid []*Connection
	for _, c := range connections {
		if c.Valid() {
			valid = append(valid, c)
		}
	}

	used := make(map[*Connection]bool)
	var calls []Call

	for i, a := range valid {
		if used[a] {
			continue
		}
		aIn, ok := a.FirstIngressSSRC()
		if !ok {
			continue
		}
		aEg, ok := a.FirstEgressSSRC()
		if !ok {
			continue
		}

		for j := i + 1; j < len(valid); j++ {
			b := valid[j]
			if used[b] {
				continue
			}
			bIn, ok := b.FirstIngressSSRC()
			if !ok {
				continue
			}
			bEg, ok := b.FirstEgressSSRC()
			if !ok {
				continue
			}
			if aIn == bEg && bIn == aEg {
				used[a] = true
				used[b] = true
				calls = append(calls, Call{Peer1: a, Peer2: b, Peer1SSRC: aIn, Peer2SSRC: bIn})
				break
			}
		}
	}

	return calls
}
