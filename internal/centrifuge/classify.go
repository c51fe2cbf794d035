package centrifuge

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Classifier turns raw frames into PacketTrees. It is stateless and safe
// for concurrent use by multiple workers; the only configuration it needs
// is the RTP/RTCP discriminator's port heuristic.
type Classifier struct {
	Discriminator DiscriminatorConfig
}

// NewClassifier builds a Classifier with the given discriminator
// configuration.
func NewClassifier(cfg DiscriminatorConfig) *Classifier {
	return &Classifier{Discriminator: cfg}
}

// Classify is a total function from (linkType, bytes) to PacketTree: every
// input produces a tree, and a parse failure at any layer degrades that
// layer to its Unknown/Text/Binary leaf rather than aborting the whole
// classification. It never returns an error and never panics, including
// on zero-length or truncated frames; gopacket's decoders are defensive
// about malformed input, but a bottom-level recover still guards the
// total-classification invariant against any input this analyzer has not
// anticipated.
func (c *Classifier) Classify(linkType layers.LinkType, data []byte) (tree *PacketTree) {
	defer func() {
		if recover() != nil {
			tree = &PacketTree{Kind: KindUnknown, Unknown: data}
		}
	}()

	pkt := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	switch linkType {
	case layers.LinkTypeEthernet:
		if eth, ok := pkt.LinkLayer().(*layers.Ethernet); ok && eth != nil {
			hdr := &EtherHeader{
				SrcMAC:       copyMAC(eth.SrcMAC),
				DstMAC:       copyMAC(eth.DstMAC),
				EthernetType: uint16(eth.EthernetType),
			}
			return &PacketTree{Kind: KindEther, Ether: hdr, Body: c.classifyEtherBody(pkt, eth.Payload)}
		}
		return &PacketTree{Kind: KindUnknown, Unknown: data}

	default:
		// Raw / tun-style link types carry no link-layer header; classify
		// the whole frame as the network-layer body directly. Null and
		// loopback captures prefix the IP packet with a 4-byte address
		// family word, which is skipped first.
		body := data
		if (linkType == layers.LinkTypeNull || linkType == layers.LinkTypeLoop) && len(data) >= 4 {
			body = data[4:]
		}
		return &PacketTree{Kind: KindTun, Body: c.classifyTunBody(body)}
	}
}

func copyMAC(m net.HardwareAddr) net.HardwareAddr {
	out := make(net.HardwareAddr, len(m))
	copy(out, m)
	return out
}

func (c *Classifier) classifyEtherBody(pkt gopacket.Packet, fallback []byte) *EtherBody {
	if arpLayer := pkt.Layer(layers.LayerTypeARP); arpLayer != nil {
		if arp, ok := arpLayer.(*layers.ARP); ok {
			return &EtherBody{Kind: EtherBodyARP, ARP: &ARP{
				Operation:   arp.Operation,
				SenderHW:    copyMAC(arp.SourceHwAddress),
				SenderProto: copyIP(arp.SourceProtAddress),
				TargetHW:    copyMAC(arp.DstHwAddress),
				TargetProto: copyIP(arp.DstProtAddress),
			}}
		}
	}
	if body := c.classifyIPv4(pkt); body != nil {
		return body
	}
	if body := c.classifyIPv6(pkt); body != nil {
		return body
	}
	return &EtherBody{Kind: EtherBodyUnknown, Unknown: fallback}
}

// classifyTunBody handles raw/tun captures, which have no Ethernet
// header: the frame begins directly with an IP packet (or is unparsable).
func (c *Classifier) classifyTunBody(data []byte) *EtherBody {
	if len(data) == 0 {
		return &EtherBody{Kind: EtherBodyUnknown, Unknown: data}
	}
	version := data[0] >> 4
	var linkType layers.LinkType
	switch version {
	case 4:
		linkType = layers.LinkTypeIPv4
	case 6:
		linkType = layers.LinkTypeIPv6
	default:
		return &EtherBody{Kind: EtherBodyUnknown, Unknown: data}
	}
	pkt := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	if body := c.classifyIPv4(pkt); body != nil {
		return body
	}
	if body := c.classifyIPv6(pkt); body != nil {
		return body
	}
	return &EtherBody{Kind: EtherBodyUnknown, Unknown: data}
}

func (c *Classifier) classifyIPv4(pkt gopacket.Packet) *EtherBody {
	layer := pkt.Layer(layers.LayerTypeIPv4)
	if layer == nil {
		return nil
	}
	ip4, ok := layer.(*layers.IPv4)
	if !ok {
		return nil
	}
	hdr := &IPHeader{
		Version:     4,
		SrcIP:       copyIP(ip4.SrcIP),
		DstIP:       copyIP(ip4.DstIP),
		NextProto:   uint8(ip4.Protocol),
		PayloadLen:  len(ip4.Payload),
		TTLOrHopLim: ip4.TTL,
	}
	return &EtherBody{Kind: EtherBodyIPv4, IP: hdr, IPBody: c.classifyIPBody(pkt, ip4.Payload)}
}

func (c *Classifier) classifyIPv6(pkt gopacket.Packet) *EtherBody {
	layer := pkt.Layer(layers.LayerTypeIPv6)
	if layer == nil {
		return nil
	}
	ip6, ok := layer.(*layers.IPv6)
	if !ok {
		return nil
	}
	hdr := &IPHeader{
		Version:     6,
		SrcIP:       copyIP(ip6.SrcIP),
		DstIP:       copyIP(ip6.DstIP),
		NextProto:   uint8(ip6.NextHeader),
		PayloadLen:  len(ip6.Payload),
		TTLOrHopLim: ip6.HopLimit,
	}
	return &EtherBody{Kind: EtherBodyIPv6, IP: hdr, IPBody: c.classifyIPBody(pkt, ip6.Payload)}
}

func copyIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

func (c *Classifier) classifyIPBody(pkt gopacket.Packet, fallback []byte) *IPBody {
	if tcpLayer := pkt.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		if tcp, ok := tcpLayer.(*layers.TCP); ok {
			seg := &TCPSegment{
				SrcPort: uint16(tcp.SrcPort),
				DstPort: uint16(tcp.DstPort),
				Seq:     tcp.Seq,
				Ack:     tcp.Ack,
				Flags:   tcpFlags(tcp),
				Payload: tcpExtract(tcp.Payload),
			}
			return &IPBody{Kind: IPBodyTCP, TCP: seg}
		}
	}
	if udpLayer := pkt.Layer(layers.LayerTypeUDP); udpLayer != nil {
		if udp, ok := udpLayer.(*layers.UDP); ok {
			dg := &UDPDatagram{
				SrcPort: uint16(udp.SrcPort),
				DstPort: uint16(udp.DstPort),
				Length:  udp.Length,
				Payload: c.classifyUDPPayload(udp),
			}
			return &IPBody{Kind: IPBodyUDP, UDP: dg}
		}
	}
	return &IPBody{Kind: IPBodyUnknown, Unknown: fallback}
}

func (c *Classifier) classifyUDPPayload(udp *layers.UDP) UDPPayload {
	if rtp, rtcp := Discriminate(udp.Payload, uint16(udp.SrcPort), uint16(udp.DstPort), c.Discriminator); rtp != nil {
		return UDPPayload{Kind: UDPPayloadRTP, RTP: rtp}
	} else if rtcp != nil {
		return UDPPayload{Kind: UDPPayloadRTCP, RTCP: rtcp}
	}
	return udpExtract(udp.Payload)
}

func tcpFlags(tcp *layers.TCP) uint8 {
	var f uint8
	if tcp.FIN {
		f |= 1 << 0
	}
	if tcp.SYN {
		f |= 1 << 1
	}
	if tcp.RST {
		f |= 1 << 2
	}
	if tcp.PSH {
		f |= 1 << 3
	}
	if tcp.ACK {
		f |= 1 << 4
	}
	if tcp.URG {
		f |= 1 << 5
	}
	if tcp.ECE {
		f |= 1 << 6
	}
	if tcp.CWR {
		f |= 1 << 7
	}
	return f
}
