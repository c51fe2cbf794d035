package format

import (
	"encoding/json"
	"time"

	"centrifuge/internal/centrifuge"
)

// JSON renders one frame as a single compact JSON line, for piping into
// jq or another log consumer.
type JSON struct{}

type jsonFrame struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Ether     *jsonEther `json:"ether,omitempty"`
}

type jsonEther struct {
	SrcMAC string   `json:"src_mac,omitempty"`
	DstMAC string   `json:"dst_mac,omitempty"`
	Body   *jsonBody `json:"body,omitempty"`
}

type jsonBody struct {
	Kind string    `json:"kind"`
	ARP  *jsonARP  `json:"arp,omitempty"`
	IP   *jsonIP   `json:"ip,omitempty"`
}

type jsonARP struct {
	Operation   uint16 `json:"operation"`
	SenderProto string `json:"sender_proto"`
	TargetProto string `json:"target_proto"`
}

type jsonIP struct {
	Version uint8      `json:"version"`
	SrcIP   string     `json:"src_ip"`
	DstIP   string     `json:"dst_ip"`
	Proto   uint8      `json:"proto"`
	TCP     *jsonTCP   `json:"tcp,omitempty"`
	UDP     *jsonUDP   `json:"udp,omitempty"`
}

type jsonTCP struct {
	SrcPort uint16 `json:"src_port"`
	DstPort uint16 `json:"dst_port"`
	Payload string `json:"payload_kind"`
}

type jsonUDP struct {
	SrcPort uint16    `json:"src_port"`
	DstPort uint16    `json:"dst_port"`
	Payload string    `json:"payload_kind"`
	RTP     *jsonRTP  `json:"rtp,omitempty"`
	RTCP    *jsonRTCP `json:"rtcp,omitempty"`
}

type jsonRTP struct {
	PayloadType uint8  `json:"payload_type"`
	SeqNum      uint16 `json:"seq"`
	Timestamp   uint32 `json:"timestamp"`
	SSRC        uint32 `json:"ssrc"`
}

type jsonRTCP struct {
	PayloadType uint8  `json:"payload_type"`
	SSRC        uint32 `json:"ssrc"`
}

func (JSON) Format(ts time.Time, tree *centrifuge.PacketTree) string {
	jf := jsonFrame{Timestamp: ts, Kind: kindName(tree.Kind)}
	if tree.Kind == centrifuge.KindEther || tree.Kind == centrifuge.KindTun {
		je := &jsonEther{}
		if tree.Ether != nil {
			je.SrcMAC = tree.Ether.SrcMAC.String()
			je.DstMAC = tree.Ether.DstMAC.String()
		}
		je.Body = jsonBodyOf(tree.Body)
		jf.Ether = je
	}
	out, err := json.Marshal(jf)
	if err != nil {
		return `{"error":"marshal failed"}`
	}
	return string(out)
}

func kindName(k centrifuge.Kind) string {
	switch k {
	case centrifuge.KindEther:
		return "ether"
	case centrifuge.KindTun:
		return "tun"
	default:
		return "unknown"
	}
}

func jsonBodyOf(body *centrifuge.EtherBody) *jsonBody {
	if body == nil {
		return nil
	}
	jb := &jsonBody{}
	switch body.Kind {
	case centrifuge.EtherBodyARP:
		jb.Kind = "arp"
		if body.ARP != nil {
			jb.ARP = &jsonARP{
				Operation:   body.ARP.Operation,
				SenderProto: body.ARP.SenderProto.String(),
				TargetProto: body.ARP.TargetProto.String(),
			}
		}
	case centrifuge.EtherBodyIPv4, centrifuge.EtherBodyIPv6:
		jb.Kind = "ip"
		jb.IP = jsonIPOf(body.IP, body.IPBody)
	default:
		jb.Kind = "unknown"
	}
	return jb
}

func jsonIPOf(ip *centrifuge.IPHeader, body *centrifuge.IPBody) *jsonIP {
	if ip == nil {
		return nil
	}
	ji := &jsonIP{Version: ip.Version, SrcIP: ip.SrcIP.String(), DstIP: ip.DstIP.String(), Proto: ip.NextProto}
	if body == nil {
		return ji
	}
	switch body.Kind {
	case centrifuge.IPBodyTCP:
		ji.TCP = &jsonTCP{SrcPort: body.TCP.SrcPort, DstPort: body.TCP.DstPort, Payload: tcpPayloadKindName(body.TCP.Payload.Kind)}
	case centrifuge.IPBodyUDP:
		ju := &jsonUDP{SrcPort: body.UDP.SrcPort, DstPort: body.UDP.DstPort, Payload: udpPayloadKindName(body.UDP.Payload.Kind)}
		if body.UDP.Payload.Kind == centrifuge.UDPPayloadRTP {
			h := body.UDP.Payload.RTP.Header
			ju.RTP = &jsonRTP{PayloadType: h.PayloadType, SeqNum: h.SequenceNumber, Timestamp: h.Timestamp, SSRC: h.SSRC}
		}
		if body.UDP.Payload.Kind == centrifuge.UDPPayloadRTCP {
			h := body.UDP.Payload.RTCP.Header
			ju.RTCP = &jsonRTCP{PayloadType: h.PayloadType, SSRC: h.SSRC}
		}
		ji.UDP = ju
	}
	return ji
}

func tcpPayloadKindName(k centrifuge.TCPPayloadKind) string {
	switch k {
	case centrifuge.TCPPayloadEmpty:
		return "empty"
	case centrifuge.TCPPayloadText:
		return "text"
	default:
		return "binary"
	}
}

func udpPayloadKindName(k centrifuge.UDPPayloadKind) string {
	switch k {
	case centrifuge.UDPPayloadRTP:
		return "rtp"
	case centrifuge.UDPPayloadRTCP:
		return "rtcp"
	case centrifuge.UDPPayloadText:
		return "text"
	default:
		return "binary"
	}
}
