package centrifuge

import (
	"encoding/binary"

	pionrtp "github.com/pion/rtp"
)

// PortHeuristic selects the optional port-based signal the discriminator
// applies on top of the mandatory payload-type-band validation. The two
// variants are known to drift between repository forks of this analyzer;
// it is kept as an explicit enum, selected at run time by configuration
// rather than hard-coded, so either convention can be deployed without
// forking code.
type PortHeuristic int

const (
	// PortHeuristicParity treats both-ports-even as a candidate RTP stream
	// and both-ports-odd as a candidate RTCP stream (the legacy "RTP on
	// even, RTCP on odd" convention). Mismatched parity disables media
	// classification for the datagram entirely.
	PortHeuristicParity PortHeuristic = iota
	// PortHeuristicRange treats either port falling inside a configured
	// inclusive range as a candidate RTP stream, with no parity
	// restriction.
	PortHeuristicRange
)

// DiscriminatorConfig configures the optional port-based signal described
// in §4.2 of the analyzer's heuristic discrimination design. Payload-type
// band validation is always mandatory and is never bypassed by these
// settings.
type DiscriminatorConfig struct {
	Heuristic     PortHeuristic
	PortRangeLow  uint16
	PortRangeHigh uint16
}

// DefaultDiscriminatorConfig matches the example port range cited for the
// range heuristic and defaults to the parity rule.
func DefaultDiscriminatorConfig() DiscriminatorConfig {
	return DiscriminatorConfig{
		Heuristic:     PortHeuristicParity,
		PortRangeLow:  7076,
		PortRangeHigh: 7079,
	}
}

const rtpMinHeaderLen = 12

// parseRTPHeader implements the RTP decoding rules: the buffer must be at
// least 12 bytes, version must be 2, and the payload type must fall
// outside the [64,95] RTCP-multiplex band. CSRC list and header extension
// (if present) are consumed according to their length fields; any
// shortfall fails the parse.
func parseRTPHeader(buf []byte) (RTPHeader, []byte, bool) {
	if len(buf) < rtpMinHeaderLen {
		return RTPHeader{}, nil, false
	}

	version := buf[0] >> 6
	if version != 2 {
		return RTPHeader{}, nil, false
	}

	padding := buf[0]&0x20 != 0
	extension := buf[0]&0x10 != 0
	cc := buf[0] & 0x0F

	marker := buf[1]&0x80 != 0
	payloadType := buf[1] & 0x7F
	if payloadType >= 64 && payloadType < 96 {
		return RTPHeader{}, nil, false
	}

	headerLen := rtpMinHeaderLen + 4*int(cc)
	if len(buf) < headerLen {
		return RTPHeader{}, nil, false
	}

	hdr := RTPHeader{
		Version:        version,
		Padding:        padding,
		Extension:      extension,
		CC:             cc,
		Marker:         marker,
		PayloadType:    payloadType,
		SequenceNumber: binary.BigEndian.Uint16(buf[2:4]),
		Timestamp:      binary.BigEndian.Uint32(buf[4:8]),
		SSRC:           binary.BigEndian.Uint32(buf[8:12]),
	}

	if cc > 0 {
		hdr.CSRC = make([]uint32, cc)
		for i := 0; i < int(cc); i++ {
			off := rtpMinHeaderLen + 4*i
			hdr.CSRC[i] = binary.BigEndian.Uint32(buf[off : off+4])
		}
	}

	offset := headerLen
	if extension {
		if len(buf) < offset+4 {
			return RTPHeader{}, nil, false
		}
		hdr.ExtProfile = binary.BigEndian.Uint16(buf[offset : offset+2])
		extLen := int(binary.BigEndian.Uint16(buf[offset+2 : offset+4]))
		consumed := 4 * extLen
		if len(buf) < offset+4+consumed {
			return RTPHeader{}, nil, false
		}
		hdr.ExtPayload = buf[offset+4 : offset+4+consumed]
		offset += 4 + consumed
	}

	return hdr, buf[offset:], true
}

// Marshal reconstructs the wire bytes of an RTP packet from its decoded
// header and payload. Packets without a header extension are rebuilt with
// the upstream RTP codec rather than a hand rolled serializer, so the
// analyzer's own lossless-fallback / round-trip invariants can be checked
// against an independent implementation in tests; packets that carried a
// raw extension block are rebuilt by hand, since pion/rtp's extension
// model is keyed by its own registered Extension types rather than the
// opaque profile/length/bytes triple this analyzer preserves.
func (r *RTP) Marshal() ([]byte, error) {
	if !r.Header.Extension {
		pkt := &pionrtp.Packet{
			Header: pionrtp.Header{
				Version:        r.Header.Version,
				Padding:        r.Header.Padding,
				Marker:         r.Header.Marker,
				PayloadType:    r.Header.PayloadType,
				SequenceNumber: r.Header.SequenceNumber,
				Timestamp:      r.Header.Timestamp,
				SSRC:           r.Header.SSRC,
				CSRC:           r.Header.CSRC,
			},
			Payload: r.Payload,
		}
		return pkt.Marshal()
	}

	buf := make([]byte, 0, rtpMinHeaderLen+4*len(r.Header.CSRC)+4+len(r.Header.ExtPayload)+len(r.Payload))
	b0 := r.Header.Version<<6 | boolBit(r.Header.Padding, 5) | boolBit(true, 4) | byte(len(r.Header.CSRC))
	b1 := boolBit(r.Header.Marker, 7) | r.Header.PayloadType
	buf = append(buf, b0, b1)
	buf = binary.BigEndian.AppendUint16(buf, r.Header.SequenceNumber)
	buf = binary.BigEndian.AppendUint32(buf, r.Header.Timestamp)
	buf = binary.BigEndian.AppendUint32(buf, r.Header.SSRC)
	for _, csrc := range r.Header.CSRC {
		buf = binary.BigEndian.AppendUint32(buf, csrc)
	}
	buf = binary.BigEndian.AppendUint16(buf, r.Header.ExtProfile)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(r.Header.ExtPayload)/4))
	buf = append(buf, r.Header.ExtPayload...)
	buf = append(buf, r.Payload...)
	return buf, nil
}

func boolBit(b bool, shift uint) byte {
	if !b {
		return 0
	}
	return 1 << shift
}
