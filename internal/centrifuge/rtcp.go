package centrifuge

import "encoding/binary"

const rtcpMinHeaderLen = 12

// parseRTCPHeader implements the RTCP decoding rules: the buffer must be
// at least 12 bytes, version must be 2, and the payload type must fall
// inside the reserved [64,95] RTCP block.
func parseRTCPHeader(buf []byte) (RTCPHeader, []byte, bool) {
	if len(buf) < rtcpMinHeaderLen {
		return RTCPHeader{}, nil, false
	}

	version := buf[0] >> 6
	if version != 2 {
		return RTCPHeader{}, nil, false
	}

	payloadType := buf[1]
	if payloadType < 64 || payloadType > 95 {
		return RTCPHeader{}, nil, false
	}

	hdr := RTCPHeader{
		Version:     version,
		Padding:     buf[0]&0x20 != 0,
		ReportCount: buf[0] & 0x1F,
		PayloadType: payloadType,
		Length:      binary.BigEndian.Uint16(buf[2:4]),
		SSRC:        binary.BigEndian.Uint32(buf[4:8]),
	}
	return hdr, buf[8:], true
}

// Discriminate classifies a UDP payload as RTP, RTCP, or neither. Payload
// type band validation (parseRTPHeader / parseRTCPHeader) is the
// mandatory, authoritative signal: a plain text or binary UDP payload
// must never validate as either. The configured port heuristic is an
// additional, optional gate layered on top.
func Discriminate(payload []byte, srcPort, dstPort uint16, cfg DiscriminatorConfig) (*RTP, *RTCP) {
	rtpHdr, rtpRest, rtpOK := parseRTPHeader(payload)
	rtcpHdr, rtcpRest, rtcpOK := parseRTCPHeader(payload)

	switch cfg.Heuristic {
	case PortHeuristicParity:
		srcEven := srcPort%2 == 0
		dstEven := dstPort%2 == 0
		if srcEven != dstEven {
			// Mismatched parity disables media classification outright,
			// regardless of what payload-type validation found.
			return nil, nil
		}
		if srcEven {
			rtcpOK = false // both ports even: RTP is the only candidate
		} else {
			rtpOK = false // both ports odd: RTCP is the only candidate
		}
	case PortHeuristicRange:
		if !InPortRange(srcPort, dstPort, cfg) {
			// Outside the configured range, neither port looks like media:
			// never classify as RTP, same as the original implementation's
			// udp.rs gate.
			return nil, nil
		}
	}

	if rtpOK {
		return &RTP{Header: rtpHdr, Payload: rtpRest}, nil
	}
	if rtcpOK {
		return nil, &RTCP{Header: rtcpHdr, Payload: rtcpRest}
	}
	return nil, nil
}

// InPortRange reports whether either port of a UDP flow falls inside the
// configured range-heuristic window. Discriminate requires this to hold
// before considering a payload RTP/RTCP when PortHeuristicRange is
// selected.
func InPortRange(srcPort, dstPort uint16, cfg DiscriminatorConfig) bool {
	inRange := func(p uint16) bool { return p >= cfg.PortRangeLow && p <= cfg.PortRangeHigh }
	return inRange(srcPort) || inRange(dstPort)
}
