package report

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"centrifuge/internal/flow"
	"centrifuge/internal/stats"
)

func sampleConnection(ip string, port uint16, base time.Time, ingressSSRC, egressSSRC uint32, seqs []uint16) *flow.Connection {
	return sampleConnectionWithPayloadType(ip, port, base, ingressSSRC, egressSSRC, 0, seqs)
}

func sampleConnectionWithPayloadType(ip string, port uint16, base time.Time, ingressSSRC, egressSSRC uint32, pt uint8, seqs []uint16) *flow.Connection {
	c := &flow.Connection{Remote: flow.Endpoint{IP: net.ParseIP(ip), Port: port}}
	for i, seq := range seqs {
		ts := base.Add(time.Duration(i) * 20 * time.Millisecond)
		c.IngressPkts = append(c.IngressPkts, stats.Sample{CapturedAt: ts, SeqNum: seq, RTPTime: uint32(i) * 960, SSRC: ingressSSRC, PayloadType: pt})
		c.EgressPkts = append(c.EgressPkts, stats.Sample{CapturedAt: ts.Add(5 * time.Millisecond), SeqNum: seq, RTPTime: uint32(i) * 960, SSRC: egressSSRC, PayloadType: pt})
	}
	return c
}

func fixedClockRate(rate uint32) func(uint8) uint32 {
	return func(uint8) uint32 { return rate }
}

func TestWriteConnections(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	connections := []*flow.Connection{
		sampleConnection("10.0.0.1", 5004, base, 0xaaaa, 0xbbbb, []uint16{1, 2, 3}),
		sampleConnection("10.0.0.2", 5006, base, 0xcccc, 0xdddd, []uint16{1, 2}),
	}

	var buf bytes.Buffer
	WriteConnections(&buf, connections)
	out := buf.String()
	if !strings.Contains(out, "10.0.0.1:5004") || !strings.Contains(out, "10.0.0.2:5006") {
		t.Fatalf("expected both remote endpoints in output, got:\n%s", out)
	}
	if !strings.Contains(out, "true") {
		t.Fatalf("expected a valid connection marked true, got:\n%s", out)
	}
}

func TestBuildCallReportsAndWriteCalls(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	x := sampleConnection("10.0.0.1", 5004, base, 0xaaaa, 0xbbbb, []uint16{1, 2, 3})
	y := sampleConnection("10.0.0.2", 5006, base, 0xbbbb, 0xaaaa, []uint16{1, 2, 3})

	reports := BuildCallReports([]*flow.Connection{x, y}, fixedClockRate(stats.DefaultClockRate), stats.DefaultFrameDurationUs)
	if len(reports) != 1 {
		t.Fatalf("expected 1 paired call, got %d", len(reports))
	}
	if reports[0].Peer1Delay.Count == 0 {
		t.Fatalf("expected matched peer1 delay samples, got none")
	}
	if reports[0].Peer2Delay.Count == 0 {
		t.Fatalf("expected matched peer2 delay samples, got none")
	}

	var buf bytes.Buffer
	WriteCalls(&buf, reports)
	out := buf.String()
	if !strings.Contains(out, "10.0.0.1:5004") || !strings.Contains(out, "10.0.0.2:5006") {
		t.Fatalf("expected both endpoints in calls table, got:\n%s", out)
	}
	if !strings.Contains(out, "0000aaaa") || !strings.Contains(out, "0000bbbb") {
		t.Fatalf("expected both SSRCs in calls table, got:\n%s", out)
	}
}

func TestBuildCallReportsSkipsUnpaired(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	x := sampleConnection("10.0.0.1", 5004, base, 0xaaaa, 0xbbbb, []uint16{1, 2, 3})

	reports := BuildCallReports([]*flow.Connection{x}, fixedClockRate(stats.DefaultClockRate), stats.DefaultFrameDurationUs)
	if len(reports) != 0 {
		t.Fatalf("expected no call report for an unpaired connection, got %d", len(reports))
	}
}

// A PCMU (payload type 0, 8kHz) call scored at the default 48kHz clock
// rate would see every 160-tick inter-frame gap as about 3333us instead of
// 20000us, skewing the wallclock-vs-timestamp delta by about 16667us.
// BuildCallReports must consult clockRateFor with each peer's own
// observed payload type.
func TestBuildCallReportsUsesPerPayloadTypeClockRate(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// 8kHz, 20ms frames: 160 ticks/frame, not 960.
	x := sampleConnectionWithPayloadType("10.0.0.1", 5004, base, 0xaaaa, 0xbbbb, 0, []uint16{1, 2, 3})
	y := sampleConnectionWithPayloadType("10.0.0.2", 5006, base, 0xbbbb, 0xaaaa, 0, []uint16{1, 2, 3})
	for i := range x.IngressPkts {
		x.IngressPkts[i].RTPTime = uint32(i) * 160
	}
	for i := range y.IngressPkts {
		y.IngressPkts[i].RTPTime = uint32(i) * 160
	}

	clockRates := map[uint8]uint32{0: 8000}
	reports := BuildCallReports([]*flow.Connection{x, y}, func(pt uint8) uint32 { return clockRates[pt] }, stats.DefaultFrameDurationUs)
	if len(reports) != 1 {
		t.Fatalf("expected 1 paired call, got %d", len(reports))
	}
	if reports[0].Peer1Flow.LostPkts != 0 || reports[0].Peer2Flow.LostPkts != 0 {
		t.Fatalf("expected no loss once scored at the correct 8kHz clock rate, got peer1=%d peer2=%d",
			reports[0].Peer1Flow.LostPkts, reports[0].Peer2Flow.LostPkts)
	}
	if reports[0].Peer1Flow.MaxDelta != 0 || reports[0].Peer2Flow.MaxDelta != 0 {
		t.Fatalf("expected zero max delta once scored at the correct 8kHz clock rate, got peer1=%d peer2=%d",
			reports[0].Peer1Flow.MaxDelta, reports[0].Peer2Flow.MaxDelta)
	}
}
