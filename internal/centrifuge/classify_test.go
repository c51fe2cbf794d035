package centrifuge

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/google/gopacket/layers"
)

func buildEthIPv4UDP(t *testing.T, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()

	udp := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint16(udp[0:2], srcPort)
	binary.BigEndian.PutUint16(udp[2:4], dstPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(len(udp)))
	copy(udp[8:], payload)

	ip := make([]byte, 20+len(udp))
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:4], uint16(len(ip)))
	ip[8] = 64
	ip[9] = 17 // UDP
	copy(ip[12:16], net.IPv4(10, 0, 0, 1).To4())
	copy(ip[16:20], net.IPv4(10, 0, 0, 2).To4())
	copy(ip[20:], udp)

	eth := make([]byte, 14+len(ip))
	copy(eth[0:6], []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa})
	copy(eth[6:12], []byte{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb})
	binary.BigEndian.PutUint16(eth[12:14], 0x0800)
	copy(eth[14:], ip)
	return eth
}

func TestClassifyEthernetIPv4UDPRTP(t *testing.T) {
	rtp := rawRTPHeader(0, 1, 160, 0xaaaa, 0)
	rtp = append(rtp, []byte("audio")...)
	frame := buildEthIPv4UDP(t, 6000, 6002, rtp)

	c := NewClassifier(DefaultDiscriminatorConfig())
	tree := c.Classify(layers.LinkTypeEthernet, frame)

	if tree.Kind != KindEther {
		t.Fatalf("expected KindEther, got %v", tree.Kind)
	}
	if tree.Body == nil || tree.Body.Kind != EtherBodyIPv4 {
		t.Fatalf("expected IPv4 body, got %+v", tree.Body)
	}
	ipBody := tree.Body.IPBody
	if ipBody == nil || ipBody.Kind != IPBodyUDP {
		t.Fatalf("expected UDP body, got %+v", ipBody)
	}
	payload := ipBody.UDP.Payload
	if payload.Kind != UDPPayloadRTP || payload.RTP == nil {
		t.Fatalf("expected RTP payload, got kind=%v", payload.Kind)
	}
	if payload.RTP.Header.SSRC != 0xaaaa {
		t.Fatalf("unexpected SSRC: %x", payload.RTP.Header.SSRC)
	}
}

func TestClassifyPlainTextUDPNeverBecomesMedia(t *testing.T) {
	frame := buildEthIPv4UDP(t, 6000, 6002, []byte("SIP/2.0 200 OK\r\n"))
	c := NewClassifier(DefaultDiscriminatorConfig())
	tree := c.Classify(layers.LinkTypeEthernet, frame)

	payload := tree.Body.IPBody.UDP.Payload
	if payload.Kind == UDPPayloadRTP || payload.Kind == UDPPayloadRTCP {
		t.Fatalf("expected plain text to never classify as media, got %v", payload.Kind)
	}
	if payload.Kind != UDPPayloadText {
		t.Fatalf("expected text classification, got %v", payload.Kind)
	}
}

func TestClassifyNeverPanicsOnGarbage(t *testing.T) {
	c := NewClassifier(DefaultDiscriminatorConfig())
	inputs := [][]byte{
		nil,
		{},
		{0x00},
		{0xff, 0xff, 0xff},
		make([]byte, 13),
	}
	for _, in := range inputs {
		tree := c.Classify(layers.LinkTypeEthernet, in)
		if tree == nil {
			t.Fatalf("expected a non-nil tree for input %v", in)
		}
	}
}

func TestClassifyTunLinkType(t *testing.T) {
	udp := make([]byte, 8)
	binary.BigEndian.PutUint16(udp[0:2], 6000)
	binary.BigEndian.PutUint16(udp[2:4], 6002)
	binary.BigEndian.PutUint16(udp[4:6], 8)

	ip := make([]byte, 20+len(udp))
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:4], uint16(len(ip)))
	ip[8] = 64
	ip[9] = 17
	copy(ip[12:16], net.IPv4(10, 0, 0, 1).To4())
	copy(ip[16:20], net.IPv4(10, 0, 0, 2).To4())
	copy(ip[20:], udp)

	c := NewClassifier(DefaultDiscriminatorConfig())
	tree := c.Classify(layers.LinkTypeRaw, ip)
	if tree.Kind != KindTun {
		t.Fatalf("expected KindTun, got %v", tree.Kind)
	}
	if tree.Body == nil || tree.Body.Kind != EtherBodyIPv4 {
		t.Fatalf("expected IPv4 body over tun link, got %+v", tree.Body)
	}
}
