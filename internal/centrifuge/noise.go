package centrifuge

// Verbosity mirrors the CLI's stackable -v flag: 0 is the default quiet
// mode and 4 is maximum detail. It gates which classified frames the
// formatter renders at all, separately from which fields a formatter
// prints once a frame is shown.
type Verbosity int

const (
	VerbosityQuiet Verbosity = iota
	VerbosityInfo
	VerbosityDetail
	VerbosityDebug
	VerbosityTrace
)

// ShouldDisplay reports whether a classified frame is worth rendering at
// the given verbosity. RTP and RTCP are always shown: they are the
// analyzer's subject matter. Everything else is progressively admitted as
// verbosity climbs, so a quiet run isn't buried in ARP and bare TCP
// control traffic.
func ShouldDisplay(tree *PacketTree, v Verbosity) bool {
	if tree == nil {
		return false
	}
	if isMedia(tree) {
		return true
	}
	switch v {
	case VerbosityQuiet:
		return false
	case VerbosityInfo:
		return isIP(tree) && hasApplicationPayload(tree)
	case VerbosityDetail:
		return isIP(tree)
	default: // VerbosityDebug, VerbosityTrace
		return true
	}
}

func isMedia(tree *PacketTree) bool {
	body := tree.Body
	if body == nil || body.IPBody == nil || body.IPBody.Kind != IPBodyUDP || body.IPBody.UDP == nil {
		return false
	}
	k := body.IPBody.UDP.Payload.Kind
	return k == UDPPayloadRTP || k == UDPPayloadRTCP
}

func isIP(tree *PacketTree) bool {
	return tree.Body != nil && (tree.Body.Kind == EtherBodyIPv4 || tree.Body.Kind == EtherBodyIPv6)
}

func hasApplicationPayload(tree *PacketTree) bool {
	body := tree.Body
	if body == nil || body.IPBody == nil {
		return false
	}
	switch body.IPBody.Kind {
	case IPBodyTCP:
		return body.IPBody.TCP != nil && body.IPBody.TCP.Payload.Kind != TCPPayloadEmpty
	case IPBodyUDP:
		return body.IPBody.UDP != nil
	default:
		return false
	}
}
