package centrifuge

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func rawRTPHeader(payloadType uint8, seq uint16, ts, ssrc uint32, cc uint8) []byte {
	buf := make([]byte, 12+4*int(cc))
	buf[0] = 2<<6 | cc
	buf[1] = payloadType & 0x7F
	binary.BigEndian.PutUint16(buf[2:4], seq)
	binary.BigEndian.PutUint32(buf[4:8], ts)
	binary.BigEndian.PutUint32(buf[8:12], ssrc)
	for i := 0; i < int(cc); i++ {
		binary.BigEndian.PutUint32(buf[12+4*i:16+4*i], uint32(i+1))
	}
	return buf
}

func TestParseRTPHeader(t *testing.T) {
	buf := append(rawRTPHeader(0, 1000, 160000, 0xdeadbeef, 0), []byte("payload")...)
	hdr, rest, ok := parseRTPHeader(buf)
	if !ok {
		t.Fatalf("expected valid RTP header")
	}
	if hdr.PayloadType != 0 || hdr.SequenceNumber != 1000 || hdr.Timestamp != 160000 || hdr.SSRC != 0xdeadbeef {
		t.Fatalf("unexpected header: %+v", hdr)
	}
	if string(rest) != "payload" {
		t.Fatalf("unexpected payload: %q", rest)
	}
}

func TestParseRTPHeaderRejectsRTCPBand(t *testing.T) {
	buf := rawRTPHeader(72, 1, 1, 1, 0) // 72 falls in [64,95]
	if _, _, ok := parseRTPHeader(buf); ok {
		t.Fatalf("expected payload type 72 to be rejected as RTP")
	}
}

func TestParseRTPHeaderTooShort(t *testing.T) {
	if _, _, ok := parseRTPHeader([]byte{0x80, 0x00}); ok {
		t.Fatalf("expected short buffer to fail")
	}
}

func TestParseRTPHeaderWrongVersion(t *testing.T) {
	buf := rawRTPHeader(0, 1, 1, 1, 0)
	buf[0] = 1 << 6
	if _, _, ok := parseRTPHeader(buf); ok {
		t.Fatalf("expected version 1 to be rejected")
	}
}

func TestParseRTPHeaderCSRCList(t *testing.T) {
	buf := rawRTPHeader(0, 1, 1, 1, 2)
	hdr, _, ok := parseRTPHeader(buf)
	if !ok {
		t.Fatalf("expected valid header with CSRC list")
	}
	if len(hdr.CSRC) != 2 || hdr.CSRC[0] != 1 || hdr.CSRC[1] != 2 {
		t.Fatalf("unexpected CSRC list: %v", hdr.CSRC)
	}
}

func TestRTPMarshalRoundTripNoExtension(t *testing.T) {
	original := rawRTPHeader(0, 42, 999, 0x1234, 1)
	original = append(original, []byte("hello")...)
	hdr, payload, ok := parseRTPHeader(original)
	if !ok {
		t.Fatalf("parse failed")
	}
	rtp := &RTP{Header: hdr, Payload: payload}
	out, err := rtp.Marshal()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !bytes.Equal(out, original) {
		t.Fatalf("round trip mismatch:\n got %x\nwant %x", out, original)
	}
}

func TestRTPMarshalRoundTripWithExtension(t *testing.T) {
	buf := rawRTPHeader(0, 7, 100, 0xabcd, 0)
	buf[0] |= 0x10 // extension bit
	buf = binary.BigEndian.AppendUint16(buf, 0xBEDE)
	buf = binary.BigEndian.AppendUint16(buf, 1)
	buf = append(buf, []byte{1, 2, 3, 4}...)
	buf = append(buf, []byte("body")...)

	hdr, payload, ok := parseRTPHeader(buf)
	if !ok {
		t.Fatalf("parse failed")
	}
	rtp := &RTP{Header: hdr, Payload: payload}
	out, err := rtp.Marshal()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !bytes.Equal(out, buf) {
		t.Fatalf("round trip mismatch:\n got %x\nwant %x", out, buf)
	}
}
