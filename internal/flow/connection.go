package flow

import (
	"time"

	"centrifuge/internal/stats"
)

// localityWindow bounds how far a connection's opposite-direction traffic
// must reach to absorb a new same-direction SSRC: a new ingress packet
// matches an existing connection if it falls within one second of that
// connection's egress activity, and vice versa.
const localityWindow = time.Second

// Connection is one RTP session with a single remote endpoint: both
// directions of traffic share the object, distinguished by their own
// packet vectors. A Connection is Valid once it has carried traffic in
// both directions.
type Connection struct {
	Remote      Endpoint
	Local       Endpoint
	IngressPkts []stats.Sample
	EgressPkts  []stats.Sample
}

// Valid reports whether the connection has observed traffic in both
// directions, per spec.md §3.
func (c *Connection) Valid() bool {
	return len(c.IngressPkts) > 0 && len(c.EgressPkts) > 0
}

// FirstIngressSSRC returns the SSRC of the first ingress packet, and
// whether one exists.
func (c *Connection) FirstIngressSSRC() (uint32, bool) {
	if len(c.IngressPkts) == 0 {
		return 0, false
	}
	return c.IngressPkts[0].SSRC, true
}

// FirstEgressSSRC returns the SSRC of the first egress packet, and
// whether one exists.
func (c *Connection) FirstEgressSSRC() (uint32, bool) {
	if len(c.EgressPkts) == 0 {
		return 0, false
	}
	return c.EgressPkts[0].SSRC, true
}

// FirstIngressPayloadType returns the RTP payload type of the first
// ingress packet, and whether one exists.
func (c *Connection) FirstIngressPayloadType() (uint8, bool) {
	if len(c.IngressPkts) == 0 {
		return 0, false
	}
	return c.IngressPkts[0].PayloadType, true
}

// FirstSeen returns the earliest capture time across both directions.
func (c *Connection) FirstSeen() time.Time {
	first := firstOf(c.IngressPkts)
	other := firstOf(c.EgressPkts)
	if first.IsZero() || (!other.IsZero() && other.Before(first)) {
		return other
	}
	return first
}

// LastSeen returns the latest capture time across both directions.
func (c *Connection) LastSeen() time.Time {
	last := lastOf(c.IngressPkts)
	other := lastOf(c.EgressPkts)
	if last.IsZero() || other.After(last) {
		return other
	}
	return last
}

func firstOf(samples []stats.Sample) time.Time {
	if len(samples) == 0 {
		return time.Time{}
	}
	return samples[0].CapturedAt
}

func lastOf(samples []stats.Sample) time.Time {
	if len(samples) == 0 {
		return time.Time{}
	}
	return samples[len(samples)-1].CapturedAt
}

// hasSameDirectionSSRC reports whether dir's vector on c already carries
// ssrc.
func (c *Connection) hasSameDirectionSSRC(dir Direction, ssrc uint32) bool {
	samples := c.IngressPkts
	if dir == Egress {
		samples = c.EgressPkts
	}
	for _, s := range samples {
		if s.SSRC == ssrc {
			return true
		}
	}
	return false
}

// oppositeLocalityMatch reports whether ts falls within localityWindow of
// the opposite direction's active window on c, per spec.md §4.4. This
// only ever applies to a direction that hasn't started yet on c: once a
// direction has its own established SSRC, a differently-SSRC'd packet in
// that same direction must start a new Connection, not piggyback on
// nearby opposite-direction timing.
func (c *Connection) oppositeLocalityMatch(dir Direction, ts time.Time) bool {
	sameDirection := c.IngressPkts
	opposite := c.EgressPkts
	if dir == Egress {
		sameDirection = c.EgressPkts
		opposite = c.IngressPkts
	}
	if len(sameDirection) != 0 || len(opposite) == 0 {
		return false
	}
	lo := opposite[0].CapturedAt.Add(-localityWindow)
	hi := opposite[len(opposite)-1].CapturedAt.Add(localityWindow)
	return !ts.Before(lo) && !ts.After(hi)
}

func (c *Connection) append(fd FlowData) {
	if fd.Direction == Ingress {
		c.IngressPkts = append(c.IngressPkts, fd.Sample)
	} else {
		c.EgressPkts = append(c.EgressPkts, fd.Sample)
	}
}

// ConnectionMap accumulates FlowData into Connections, keyed by remote
// endpoint. A single remote endpoint can carry multiple back-to-back RTP
// sessions over time, distinguished by SSRC and temporal locality, so
// each remote endpoint maps to an ordered list of Connections rather than
// a single one.
type ConnectionMap struct {
	byRemote map[string][]*Connection
	order    []string // first-seen remote endpoints, for deterministic reporting
}

// NewConnectionMap returns an empty ConnectionMap.
func NewConnectionMap() *ConnectionMap {
	return &ConnectionMap{byRemote: make(map[string][]*Connection)}
}

// Add folds a FlowData observation into the map, per spec.md §4.4:
// non-RTP flows never reach here (Extract already filters them); existing
// connections for the same remote are searched newest to oldest for a
// same-direction SSRC repeat or an opposite-direction locality match;
// failing that, a new Connection is appended.
func (m *ConnectionMap) Add(fd FlowData) {
	key := fd.Remote.String()
	list, ok := m.byRemote[key]
	if !ok {
		conn := &Connection{Remote: fd.Remote, Local: fd.Local}
		conn.append(fd)
		m.byRemote[key] = []*Connection{conn}
		m.order = append(m.order, key)
		return
	}

	for i := len(list) - 1; i >= 0; i-- {
		c := list[i]
		if c.hasSameDirectionSSRC(fd.Direction, fd.SSRC) || c.oppositeLocalityMatch(fd.Direction, fd.Sample.CapturedAt) {
			c.append(fd)
			return
		}
	}

	conn := &Connection{Remote: fd.Remote, Local: fd.Local}
	conn.append(fd)
	m.byRemote[key] = append(list, conn)
}

// List returns every connection in the map, grouped by remote endpoint in
// first-seen order, and within a remote endpoint in the order they were
// created.
func (m *ConnectionMap) List() []*Connection {
	var out []*Connection
	for _, key := range m.order {
		out = append(out, m.byRemote[key]...)
	}
	return out
}
