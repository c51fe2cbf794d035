package stats

// DefaultClockRate is the RTP clock rate in Hz assumed when a payload
// type's rate is not known: 48kHz, i.e. 48 media clock ticks per ms (the
// historical `/48` constant); callers that know the payload type's real
// rate should pass it instead.
const DefaultClockRate = 48000

// DefaultFrameDurationUs is the assumed per-packet frame duration in
// microseconds (20ms), used to turn an RTP timestamp gap into an
// estimated packet loss count.
const DefaultFrameDurationUs = 20000

// FlowStats summarizes one leg of a call's packet flow: estimated packet
// loss from RTP timestamp gaps, the largest signed discrepancy between
// wall-clock delta and RTP-timestamp-implied delta between consecutive
// frames, and the largest inter-frame delay among consecutive frames whose
// RTP timestamps are exactly one frame duration apart (i.e. showed no loss).
type FlowStats struct {
	LostPkts           int
	LostRate           float64 // percent of samples estimated lost
	MaxDelta           int64   // signed microseconds, largest |wallclock delta - timestamp delta|
	MaxInterFrameDelay int64   // microseconds
}

// ComputeFlowStats reorders samples by circular RTP sequence number, then
// walks adjacent pairs comparing wall-clock delta against the RTP
// timestamp delta (scaled by clockRate) to estimate loss and flag
// inter-frame delay anomalies. clockRate is the payload type's sample
// rate (see DefaultClockRate); frameDurationUs is the expected duration
// of one frame at that rate, in microseconds (see
// DefaultFrameDurationUs).
func ComputeFlowStats(samples []Sample, clockRate uint32, frameDurationUs int64) FlowStats {
	if len(samples) == 0 {
		return FlowStats{}
	}
	if clockRate == 0 {
		clockRate = DefaultClockRate
	}
	if frameDurationUs == 0 {
		frameDurationUs = DefaultFrameDurationUs
	}

	ordered := sequenceOrder(samples)

	var lost int
	var maxAbsDelta, maxDelta, maxInterFrame int64

	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]

		rdUs := cur.CapturedAt.Sub(prev.CapturedAt).Microseconds()
		tsDelta := TimestampDelta(cur.RTPTime, prev.RTPTime)
		sdUs := tsDelta * 1_000_000 / int64(clockRate)

		deltaUs := rdUs - sdUs
		absDelta := deltaUs
		if absDelta < 0 {
			absDelta = -absDelta
		}
		if absDelta > maxAbsDelta {
			maxAbsDelta = absDelta
			maxDelta = deltaUs
		}

		if sdUs > frameDurationUs {
			missing := sdUs/frameDurationUs - 1
			if missing > 0 {
				lost += int(missing)
			}
		} else if sdUs == frameDurationUs && rdUs > 0 && rdUs > maxInterFrame {
			maxInterFrame = rdUs
		}
	}

	return FlowStats{
		LostPkts:           lost,
		LostRate:           float64(lost) / float64(len(samples)) * 100,
		MaxDelta:           maxDelta,
		MaxInterFrameDelay: maxInterFrame,
	}
}

// sequenceOrder returns samples in circular-sequence-number order: each
// sample P is inserted just after the last already-placed Q (sweeping from
// the tail) with CircularSeqGreater(P.seq, Q.seq), so wraparound does not
// break ordering.
func sequenceOrder(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	insertionSortByCircularSeq(out)
	return out
}

func insertionSortByCircularSeq(s []Sample) {
	for i := 1; i < len(s); i++ {
		j := i
		for j > 0 && !CircularSeqGreater(s[j].SeqNum, s[j-1].SeqNum) {
			s[j-1], s[j] = s[j], s[j-1]
			j--
		}
	}
}
