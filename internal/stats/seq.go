// Package stats computes per-call delay and flow statistics from ordered
// RTP packet samples: delay via sequence-number pairing across ingress and
// egress, and flow quality (estimated loss, max wallclock-vs-timestamp
// delta, max inter-frame delay) via circular sequence and timestamp
// arithmetic.
package stats

// CircularSeqGreater reports whether a is "newer" than b under RFC 1982
// serial number arithmetic over a 16-bit space: the comparison wraps at
// half the space (32768) so a wrapped sequence number still compares
// correctly against its predecessor.
func CircularSeqGreater(a, b uint16) bool {
	if a == b {
		return false
	}
	diff := int32(a) - int32(b)
	if diff < 0 {
		diff += 1 << 16
	}
	return diff < 1<<15
}

// TimestampDelta returns the signed circular difference a-b over a 32-bit
// RTP timestamp space, using the same half-window wraparound rule as
// CircularSeqGreater.
func TimestampDelta(a, b uint32) int64 {
	diff := int64(a) - int64(b)
	const window = int64(1) << 32
	const half = window / 2
	if diff > half {
		diff -= window
	} else if diff < -half {
		diff += window
	}
	return diff
}
