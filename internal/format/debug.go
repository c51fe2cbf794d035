package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/pion/rtcp"

	"centrifuge/internal/centrifuge"
)

// Debug renders a multi-line, fully expanded dump of a classified frame:
// every header field at every layer. It is never the default formatter;
// it exists for --debugging / --format debug.
type Debug struct{}

func (Debug) Format(ts time.Time, tree *centrifuge.PacketTree) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frame @ %s\n", ts.Format(time.RFC3339Nano))

	switch tree.Kind {
	case centrifuge.KindUnknown:
		fmt.Fprintf(&sb, "  unknown: %d bytes\n", len(tree.Unknown))
		return sb.String()
	case centrifuge.KindEther:
		if tree.Ether != nil {
			fmt.Fprintf(&sb, "  ethernet: src=%s dst=%s type=0x%04x\n", tree.Ether.SrcMAC, tree.Ether.DstMAC, tree.Ether.EthernetType)
		}
	case centrifuge.KindTun:
		sb.WriteString("  tun/raw frame\n")
	}

	dumpEtherBody(&sb, tree.Body, "  ")
	return sb.String()
}

func dumpEtherBody(sb *strings.Builder, body *centrifuge.EtherBody, indent string) {
	if body == nil {
		return
	}
	switch body.Kind {
	case centrifuge.EtherBodyARP:
		a := body.ARP
		fmt.Fprintf(sb, "%sarp: op=%d sender=%s/%s target=%s/%s\n", indent, a.Operation, a.SenderHW, a.SenderProto, a.TargetHW, a.TargetProto)
	case centrifuge.EtherBodyIPv4, centrifuge.EtherBodyIPv6:
		ip := body.IP
		fmt.Fprintf(sb, "%sip v%d: src=%s dst=%s proto=%d ttl=%d len=%d\n", indent, ip.Version, ip.SrcIP, ip.DstIP, ip.NextProto, ip.TTLOrHopLim, ip.PayloadLen)
		dumpIPBody(sb, body.IPBody, indent+"  ")
	default:
		fmt.Fprintf(sb, "%sunknown ether payload: %d bytes\n", indent, len(body.Unknown))
	}
}

func dumpIPBody(sb *strings.Builder, body *centrifuge.IPBody, indent string) {
	if body == nil {
		return
	}
	switch body.Kind {
	case centrifuge.IPBodyTCP:
		t := body.TCP
		fmt.Fprintf(sb, "%stcp: %d->%d seq=%d ack=%d flags=0x%02x\n", indent, t.SrcPort, t.DstPort, t.Seq, t.Ack, t.Flags)
		dumpTCPPayload(sb, t.Payload, indent+"  ")
	case centrifuge.IPBodyUDP:
		u := body.UDP
		fmt.Fprintf(sb, "%sudp: %d->%d len=%d\n", indent, u.SrcPort, u.DstPort, u.Length)
		dumpUDPPayload(sb, u.Payload, indent+"  ")
	default:
		fmt.Fprintf(sb, "%sunknown IP payload: %d bytes\n", indent, len(body.Unknown))
	}
}

func dumpTCPPayload(sb *strings.Builder, p centrifuge.TCPPayload, indent string) {
	switch p.Kind {
	case centrifuge.TCPPayloadEmpty:
		fmt.Fprintf(sb, "%s(empty)\n", indent)
	case centrifuge.TCPPayloadText:
		fmt.Fprintf(sb, "%stext: %q\n", indent, p.Text)
	default:
		fmt.Fprintf(sb, "%sbinary: %d bytes\n", indent, len(p.Binary))
	}
}

func dumpUDPPayload(sb *strings.Builder, p centrifuge.UDPPayload, indent string) {
	switch p.Kind {
	case centrifuge.UDPPayloadRTP:
		h := p.RTP.Header
		fmt.Fprintf(sb, "%srtp: v=%d pt=%d seq=%d ts=%d ssrc=0x%08x marker=%v csrc=%v payload=%d bytes\n",
			indent, h.Version, h.PayloadType, h.SequenceNumber, h.Timestamp, h.SSRC, h.Marker, h.CSRC, len(p.RTP.Payload))
	case centrifuge.UDPPayloadRTCP:
		h := p.RTCP.Header
		fmt.Fprintf(sb, "%srtcp: pt=%d rc=%d ssrc=0x%08x len=%d\n", indent, h.PayloadType, h.ReportCount, h.SSRC, h.Length)
		dumpRTCPDetail(sb, p.RTCP, indent+"  ")
	case centrifuge.UDPPayloadText:
		fmt.Fprintf(sb, "%stext: %q\n", indent, p.Text)
	default:
		fmt.Fprintf(sb, "%sbinary: %d bytes\n", indent, len(p.Binary))
	}
}

// dumpRTCPDetail reparses the full RTCP compound packet with pion/rtcp
// for a richer per-report dump than the header-only centrifuge.RTCP
// record carries. This is purely cosmetic: a parse failure here is
// swallowed since it never affects classification.
func dumpRTCPDetail(sb *strings.Builder, r *centrifuge.RTCP, indent string) {
	raw := reconstructRTCP(r)
	packets, err := rtcp.Unmarshal(raw)
	if err != nil {
		return
	}
	for _, pkt := range packets {
		switch p := pkt.(type) {
		case *rtcp.SenderReport:
			fmt.Fprintf(sb, "%ssender report: ssrc=0x%08x packets=%d octets=%d\n", indent, p.SSRC, p.PacketCount, p.OctetCount)
		case *rtcp.ReceiverReport:
			fmt.Fprintf(sb, "%sreceiver report: ssrc=0x%08x reports=%d\n", indent, p.SSRC, len(p.Reports))
		case *rtcp.SourceDescription:
			fmt.Fprintf(sb, "%ssource description: chunks=%d\n", indent, len(p.Chunks))
		case *rtcp.Goodbye:
			fmt.Fprintf(sb, "%sgoodbye: sources=%v\n", indent, p.Sources)
		default:
			fmt.Fprintf(sb, "%s%T\n", indent, p)
		}
	}
}

func reconstructRTCP(r *centrifuge.RTCP) []byte {
	buf := make([]byte, 8, 8+len(r.Payload))
	b0 := r.Header.Version<<6 | r.Header.ReportCount&0x1F
	if r.Header.Padding {
		b0 |= 0x20
	}
	buf[0] = b0
	buf[1] = r.Header.PayloadType
	buf[2] = byte(r.Header.Length >> 8)
	buf[3] = byte(r.Header.Length)
	buf[4] = byte(r.Header.SSRC >> 24)
	buf[5] = byte(r.Header.SSRC >> 16)
	buf[6] = byte(r.Header.SSRC >> 8)
	buf[7] = byte(r.Header.SSRC)
	return append(buf, r.Payload...)
}
