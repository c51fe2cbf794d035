// Package centrifuge classifies raw captured frames into a tagged tree of
// protocol records, descending Ethernet/tun -> ARP|IPv4|IPv6 -> TCP|UDP ->
// RTP|RTCP|Text|Binary. Every layer attempts a strict parse and falls back
// to an Unknown/Text/Binary leaf on failure; classify never panics and
// never returns an error, so a tree is always produced for any input.
package centrifuge

import (
	"net"
	"time"
)

// Kind discriminates the variant held by a PacketTree node.
type Kind int

const (
	KindUnknown Kind = iota
	KindEther
	KindTun
)

// EtherBodyKind discriminates the payload carried above an Ethernet or tun
// frame.
type EtherBodyKind int

const (
	EtherBodyUnknown EtherBodyKind = iota
	EtherBodyARP
	EtherBodyIPv4
	EtherBodyIPv6
)

// IPBodyKind discriminates the transport payload carried inside an IP
// packet.
type IPBodyKind int

const (
	IPBodyUnknown IPBodyKind = iota
	IPBodyTCP
	IPBodyUDP
)

// TCPPayloadKind discriminates a TCP segment's payload.
type TCPPayloadKind int

const (
	TCPPayloadEmpty TCPPayloadKind = iota
	TCPPayloadText
	TCPPayloadBinary
)

// UDPPayloadKind discriminates a UDP datagram's payload.
type UDPPayloadKind int

const (
	UDPPayloadText UDPPayloadKind = iota
	UDPPayloadBinary
	UDPPayloadRTP
	UDPPayloadRTCP
)

// PacketTree is the root of a classified frame. Exactly one of EtherBody or
// Unknown is meaningful, selected by Kind. PacketTrees are built per frame
// and consumed immediately by the formatter or the flow extractor; they are
// never retained past that point, so they hold copies of addressing fields
// rather than references into a capture library's packet-scoped buffers.
type PacketTree struct {
	Kind    Kind
	Ether   *EtherHeader // set iff Kind == KindEther
	Body    *EtherBody   // set iff Kind == KindEther || Kind == KindTun
	Unknown []byte       // set iff Kind == KindUnknown
}

// EtherHeader is the subset of an Ethernet II header the analyzer keeps.
type EtherHeader struct {
	SrcMAC       net.HardwareAddr
	DstMAC       net.HardwareAddr
	EthernetType uint16
}

// EtherBody is the payload carried above Ethernet or a tun/loopback frame.
type EtherBody struct {
	Kind    EtherBodyKind
	ARP     *ARP
	IP      *IPHeader // shared address/meta view for IPv4 and IPv6
	IPBody  *IPBody
	Unknown []byte
}

// ARP is a minimal decode of an ARP packet, enough to report senders and
// targets; the analytic half never inspects it further.
type ARP struct {
	Operation   uint16
	SenderHW    net.HardwareAddr
	SenderProto net.IP
	TargetHW    net.HardwareAddr
	TargetProto net.IP
}

// IPHeader unifies the fields the report and formatter need from either an
// IPv4 or an IPv6 header.
type IPHeader struct {
	Version     uint8
	SrcIP       net.IP
	DstIP       net.IP
	NextProto   uint8 // IPv4 protocol field / IPv6 next header
	PayloadLen  int
	TTLOrHopLim uint8
}

// IPBody is the transport-layer payload carried inside an IP packet.
type IPBody struct {
	Kind    IPBodyKind
	TCP     *TCPSegment
	UDP     *UDPDatagram
	Unknown []byte
}

// TCPSegment is the subset of a TCP header the analyzer keeps, plus its
// classified payload.
type TCPSegment struct {
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32
	Flags   uint8
	Payload TCPPayload
}

// TCPPayload is a TCP segment's classified application data.
type TCPPayload struct {
	Kind   TCPPayloadKind
	Text   string
	Binary []byte
}

// UDPDatagram is the subset of a UDP header the analyzer keeps, plus its
// classified payload.
type UDPDatagram struct {
	SrcPort uint16
	DstPort uint16
	Length  uint16
	Payload UDPPayload
}

// UDPPayload is a UDP datagram's classified application data.
type UDPPayload struct {
	Kind   UDPPayloadKind
	Text   string
	Binary []byte
	RTP    *RTP
	RTCP   *RTCP
}

// RTPHeader is a decoded RTP fixed header per RFC 3550 Section 5.1, plus
// the CSRC list and any header extension that followed it.
type RTPHeader struct {
	Version        uint8
	Padding        bool
	Extension      bool
	CC             uint8
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32
	ExtProfile     uint16
	ExtPayload     []byte
}

// RTP is a classified RTP packet.
type RTP struct {
	Header  RTPHeader
	Payload []byte
}

// RTCPHeader is a decoded RTCP header per RFC 3550 Section 6.1.
type RTCPHeader struct {
	Version     uint8
	Padding     bool
	ReportCount uint8
	PayloadType uint8
	Length      uint16
	SSRC        uint32
}

// RTCP is a classified RTCP packet.
type RTCP struct {
	Header  RTCPHeader
	Payload []byte
}

// Frame is the unit of work a capture source produces and a worker
// classifies: a timestamped raw link-layer byte slice.
type Frame struct {
	Timestamp time.Time
	Data      []byte
}
