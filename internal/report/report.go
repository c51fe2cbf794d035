// Package report renders the shutdown summary: the connections and calls
// tables printed when a capture run ends, built from the flow package's
// accumulated state and the stats package's per-leg computations. There is
// no table-rendering library anywhere in the example corpus for this kind
// of fixed-width terminal report, so this package renders with the
// standard library's text/tabwriter rather than inventing a dependency.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"centrifuge/internal/flow"
	"centrifuge/internal/stats"
)

// CallReport is one row of the calls table: a paired call plus one-way
// delay in each direction and the per-peer flow statistics of each
// peer's ingress packets.
type CallReport struct {
	Call       flow.Call
	Peer1Delay stats.DelayStats // peer1's ingress against peer2's egress
	Peer2Delay stats.DelayStats // peer2's ingress against peer1's egress
	Peer1Flow  stats.FlowStats
	Peer2Flow  stats.FlowStats
}

// WriteConnections renders one row per connection: remote endpoint,
// ingress/egress packet counts and SSRCs, and active window.
func WriteConnections(w io.Writer, connections []*flow.Connection) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REMOTE\tVALID\tINGRESS PKTS\tINGRESS SSRC\tEGRESS PKTS\tEGRESS SSRC\tFIRST SEEN\tLAST SEEN")
	for _, c := range connections {
		inSSRC := "-"
		if s, ok := c.FirstIngressSSRC(); ok {
			inSSRC = fmt.Sprintf("%08x", s)
		}
		egSSRC := "-"
		if s, ok := c.FirstEgressSSRC(); ok {
			egSSRC = fmt.Sprintf("%08x", s)
		}
		fmt.Fprintf(tw, "%s\t%t\t%d\t%s\t%d\t%s\t%s\t%s\n",
			c.Remote, c.Valid(), len(c.IngressPkts), inSSRC, len(c.EgressPkts), egSSRC,
			c.FirstSeen().Format("15:04:05.000"), c.LastSeen().Format("15:04:05.000"))
	}
	tw.Flush()
}

// WriteCalls renders one row per call: both peers' remote endpoints and
// SSRCs, each peer's loss rate / max delta / max inter-frame delay, and
// each direction's one-way delay avg/max/std (reported as variance, see
// stats.DelayStats).
func WriteCalls(w io.Writer, reports []CallReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PEER1\tPEER2\tSSRC1\tSSRC2\tP1 LOSS%\tP1 MAXDELTA(us)\tP1 MAXIFD(us)\tP2 LOSS%\tP2 MAXDELTA(us)\tP2 MAXIFD(us)\tP1 DELAY AVG\tP1 DELAY MAX\tP1 DELAY VAR\tP2 DELAY AVG\tP2 DELAY MAX\tP2 DELAY VAR")
	for _, r := range reports {
		p1Avg, p1Max, p1Std := delayCells(r.Peer1Delay)
		p2Avg, p2Max, p2Std := delayCells(r.Peer2Delay)
		fmt.Fprintf(tw, "%s\t%s\t%08x\t%08x\t%.2f\t%d\t%d\t%.2f\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Call.Peer1.Remote, r.Call.Peer2.Remote, r.Call.Peer1SSRC, r.Call.Peer2SSRC,
			r.Peer1Flow.LostRate, r.Peer1Flow.MaxDelta, r.Peer1Flow.MaxInterFrameDelay,
			r.Peer2Flow.LostRate, r.Peer2Flow.MaxDelta, r.Peer2Flow.MaxInterFrameDelay,
			p1Avg, p1Max, p1Std, p2Avg, p2Max, p2Std)
	}
	tw.Flush()
}

func delayCells(d stats.DelayStats) (avg, max, std string) {
	if d.Count == 0 {
		return "-", "-", "-"
	}
	return d.Avg.String(), d.Max.String(), fmt.Sprintf("%.2f", d.Std)
}

// BuildCallReports pairs connections into calls and computes delay and
// flow statistics for each. Delay is one-way per direction, pairing each
// peer's receive side against the other peer's transmit side: peer1Delay
// is peer1's ingress against peer2's egress, peer2Delay is peer2's
// ingress against peer1's egress. Each peer's flow statistics are
// computed from its own ingress packets, scored at that peer's own
// observed RTP payload type via clockRateFor (see
// config.Config.ClockRateFor) rather than one fixed rate for the whole
// run, since the two peers of a call can carry different codecs.
// frameDurationUs configures the loss estimate in stats.ComputeFlowStats.
func BuildCallReports(connections []*flow.Connection, clockRateFor func(payloadType uint8) uint32, frameDurationUs int64) []CallReport {
	calls := flow.PairCalls(connections)
	reports := make([]CallReport, 0, len(calls))
	for _, call := range calls {
		peer1Delay := stats.ComputeDelayStats(call.Peer1.IngressPkts, call.Peer2.EgressPkts)
		peer2Delay := stats.ComputeDelayStats(call.Peer2.IngressPkts, call.Peer1.EgressPkts)
		peer1Flow := stats.ComputeFlowStats(call.Peer1.IngressPkts, clockRateForConnection(call.Peer1, clockRateFor), frameDurationUs)
		peer2Flow := stats.ComputeFlowStats(call.Peer2.IngressPkts, clockRateForConnection(call.Peer2, clockRateFor), frameDurationUs)
		reports = append(reports, CallReport{
			Call:       call,
			Peer1Delay: peer1Delay,
			Peer2Delay: peer2Delay,
			Peer1Flow:  peer1Flow,
			Peer2Flow:  peer2Flow,
		})
	}
	return reports
}

func clockRateForConnection(c *flow.Connection, clockRateFor func(payloadType uint8) uint32) uint32 {
	pt, ok := c.FirstIngressPayloadType()
	if !ok {
		return stats.DefaultClockRate
	}
	return clockRateFor(pt)
}
