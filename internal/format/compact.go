package format

import (
	"fmt"
	"strings"
	"time"

	"centrifuge/internal/centrifuge"
)

const (
	colorReset  = "\x1b[0m"
	colorRTP    = "\x1b[32m" // green
	colorRTCP   = "\x1b[36m" // cyan
	colorTCP    = "\x1b[33m" // yellow
	colorARP    = "\x1b[90m" // bright black
	colorUnkown = "\x1b[31m" // red
)

// Compact renders one line per frame: timestamp, layer summary, and (for
// media) SSRC/sequence/payload-type. Color is applied only when stdout is
// a terminal.
type Compact struct {
	Color bool
}

// NewCompact builds a Compact formatter, defaulting Color to whether
// stdout looks like a terminal.
func NewCompact() *Compact {
	return &Compact{Color: isTTY()}
}

func (c *Compact) Format(ts time.Time, tree *centrifuge.PacketTree) string {
	var sb strings.Builder
	sb.WriteString(ts.Format("15:04:05.000000"))
	sb.WriteByte(' ')

	switch tree.Kind {
	case centrifuge.KindUnknown:
		sb.WriteString(c.colorize(colorUnkown, fmt.Sprintf("unknown (%d bytes)", len(tree.Unknown))))
	case centrifuge.KindTun, centrifuge.KindEther:
		if tree.Kind == centrifuge.KindEther && tree.Ether != nil {
			fmt.Fprintf(&sb, "%s > %s ", tree.Ether.SrcMAC, tree.Ether.DstMAC)
		}
		sb.WriteString(c.formatBody(tree.Body))
	}
	return sb.String()
}

func (c *Compact) formatBody(body *centrifuge.EtherBody) string {
	if body == nil {
		return "(empty)"
	}
	switch body.Kind {
	case centrifuge.EtherBodyARP:
		return c.colorize(colorARP, fmt.Sprintf("ARP %s -> %s", body.ARP.SenderProto, body.ARP.TargetProto))
	case centrifuge.EtherBodyIPv4, centrifuge.EtherBodyIPv6:
		return c.formatIP(body.IP, body.IPBody)
	default:
		return c.colorize(colorUnkown, fmt.Sprintf("unknown ether payload (%d bytes)", len(body.Unknown)))
	}
}

func (c *Compact) formatIP(ip *centrifuge.IPHeader, body *centrifuge.IPBody) string {
	prefix := fmt.Sprintf("%s -> %s", ip.SrcIP, ip.DstIP)
	if body == nil {
		return prefix
	}
	switch body.Kind {
	case centrifuge.IPBodyTCP:
		t := body.TCP
		return fmt.Sprintf("%s TCP %d->%d %s", prefix, t.SrcPort, t.DstPort, c.colorize(colorTCP, tcpPayloadSummary(t.Payload)))
	case centrifuge.IPBodyUDP:
		u := body.UDP
		return fmt.Sprintf("%s UDP %d->%d %s", prefix, u.SrcPort, u.DstPort, c.formatUDPPayload(u.Payload))
	default:
		return prefix + " " + c.colorize(colorUnkown, "unknown IP payload")
	}
}

func (c *Compact) formatUDPPayload(p centrifuge.UDPPayload) string {
	switch p.Kind {
	case centrifuge.UDPPayloadRTP:
		h := p.RTP.Header
		return c.colorize(colorRTP, fmt.Sprintf("RTP pt=%d seq=%d ts=%d ssrc=0x%08x", h.PayloadType, h.SequenceNumber, h.Timestamp, h.SSRC))
	case centrifuge.UDPPayloadRTCP:
		h := p.RTCP.Header
		return c.colorize(colorRTCP, fmt.Sprintf("RTCP pt=%d ssrc=0x%08x", h.PayloadType, h.SSRC))
	case centrifuge.UDPPayloadText:
		return fmt.Sprintf("text %q", truncate(p.Text, 60))
	default:
		return fmt.Sprintf("binary (%d bytes)", len(p.Binary))
	}
}

func tcpPayloadSummary(p centrifuge.TCPPayload) string {
	switch p.Kind {
	case centrifuge.TCPPayloadEmpty:
		return "(no payload)"
	case centrifuge.TCPPayloadText:
		return fmt.Sprintf("text %q", truncate(p.Text, 60))
	default:
		return fmt.Sprintf("binary (%d bytes)", len(p.Binary))
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (c *Compact) colorize(color, s string) string {
	if !c.Color {
		return s
	}
	return color + s + colorReset
}
