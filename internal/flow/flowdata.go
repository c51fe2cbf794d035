// Package flow builds the call-level view of a capture: per-frame RTP
// observations are collapsed into connections keyed by remote endpoint,
// and connections whose SSRCs cross-match in opposite directions are
// paired into calls.
package flow

import (
	"fmt"
	"net"
	"time"

	"centrifuge/internal/centrifuge"
	"centrifuge/internal/stats"
)

// Direction records which side of a configured local IPv4 address a flow
// was observed on.
type Direction int

const (
	// Ingress is traffic addressed to the configured local IP.
	Ingress Direction = iota
	// Egress is traffic sourced from the configured local IP.
	Egress
)

func (d Direction) String() string {
	if d == Ingress {
		return "ingress"
	}
	return "egress"
}

// Endpoint is an IP/port pair identifying one side of a flow.
type Endpoint struct {
	IP   net.IP
	Port uint16
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}

// FlowData is a single RTP observation attributed to one side of a
// connection, relative to a configured local IPv4 address.
type FlowData struct {
	Direction Direction
	Local     Endpoint
	Remote    Endpoint
	SSRC      uint32
	Sample    stats.Sample
}

// Extract builds a FlowData from a classified UDP/RTP frame, relative to
// localIP. It returns ok=false when the frame is not RTP (per spec.md
// §4.4, the connection map only ever accumulates RTP flows), or its IP
// addressing does not involve localIP at all (neither source nor
// destination matches), since such a frame belongs to neither ingress nor
// egress of this flow.
func Extract(localIP net.IP, capturedAt time.Time, tree *centrifuge.PacketTree) (FlowData, bool) {
	if tree == nil || tree.Body == nil || tree.Body.IP == nil || tree.Body.IPBody == nil {
		return FlowData{}, false
	}
	if tree.Body.IPBody.Kind != centrifuge.IPBodyUDP || tree.Body.IPBody.UDP == nil {
		return FlowData{}, false
	}
	udp := tree.Body.IPBody.UDP
	if udp.Payload.Kind != centrifuge.UDPPayloadRTP || udp.Payload.RTP == nil {
		return FlowData{}, false
	}

	ip := tree.Body.IP
	var dir Direction
	var local, remote Endpoint

	switch {
	case ip.DstIP.Equal(localIP):
		dir = Ingress
		local = Endpoint{IP: ip.DstIP, Port: udp.DstPort}
		remote = Endpoint{IP: ip.SrcIP, Port: udp.SrcPort}
	case ip.SrcIP.Equal(localIP):
		dir = Egress
		local = Endpoint{IP: ip.SrcIP, Port: udp.SrcPort}
		remote = Endpoint{IP: ip.DstIP, Port: udp.DstPort}
	default:
		return FlowData{}, false
	}

	hdr := udp.Payload.RTP.Header
	return FlowData{
		Direction: dir,
		Local:     local,
		Remote:    remote,
		SSRC:      hdr.SSRC,
		Sample: stats.Sample{
			CapturedAt:  capturedAt,
			SeqNum:      hdr.SequenceNumber,
			RTPTime:     hdr.Timestamp,
			SSRC:        hdr.SSRC,
			PayloadType: hdr.PayloadType,
		},
	}, true
}
