package format

import (
	"net"
	"strings"
	"testing"
	"time"

	"centrifuge/internal/centrifuge"
)

func rtpTree(ssrc uint32) *centrifuge.PacketTree {
	return &centrifuge.PacketTree{
		Kind: centrifuge.KindEther,
		Ether: &centrifuge.EtherHeader{
			SrcMAC: net.HardwareAddr{0, 1, 2, 3, 4, 5},
			DstMAC: net.HardwareAddr{6, 7, 8, 9, 10, 11},
		},
		Body: &centrifuge.EtherBody{
			Kind: centrifuge.EtherBodyIPv4,
			IP: &centrifuge.IPHeader{
				Version: 4,
				SrcIP:   net.ParseIP("10.0.0.1"),
				DstIP:   net.ParseIP("10.0.0.2"),
			},
			IPBody: &centrifuge.IPBody{
				Kind: centrifuge.IPBodyUDP,
				UDP: &centrifuge.UDPDatagram{
					SrcPort: 5004,
					DstPort: 5006,
					Payload: centrifuge.UDPPayload{
						Kind: centrifuge.UDPPayloadRTP,
						RTP: &centrifuge.RTP{
							Header: centrifuge.RTPHeader{PayloadType: 0, SequenceNumber: 42, Timestamp: 1000, SSRC: ssrc},
						},
					},
				},
			},
		},
	}
}

func TestCompactFormatNoColor(t *testing.T) {
	c := &Compact{Color: false}
	out := c.Format(time.Now(), rtpTree(0xdeadbeef))
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI escapes with Color=false, got %q", out)
	}
	if !strings.Contains(out, "RTP") || !strings.Contains(out, "ssrc=0xdeadbeef") {
		t.Fatalf("expected RTP summary in output, got %q", out)
	}
}

func TestCompactFormatColor(t *testing.T) {
	c := &Compact{Color: true}
	out := c.Format(time.Now(), rtpTree(1))
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected ANSI escapes with Color=true, got %q", out)
	}
}

func TestCompactFormatUnknown(t *testing.T) {
	c := &Compact{Color: false}
	out := c.Format(time.Now(), &centrifuge.PacketTree{Kind: centrifuge.KindUnknown, Unknown: []byte{1, 2, 3}})
	if !strings.Contains(out, "unknown (3 bytes)") {
		t.Fatalf("expected unknown summary, got %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected unchanged short string, got %q", got)
	}
	got := truncate("this is a very long string indeed", 10)
	if len(got) != 13 { // 10 chars + "..."
		t.Fatalf("expected truncated string of length 13, got %q (%d)", got, len(got))
	}
}
