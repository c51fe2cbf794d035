package centrifuge

import "unicode/utf8"

// classifyBytes implements the shared TCP/UDP text-vs-binary rule: an
// empty slice is reported separately by the caller; otherwise a payload
// containing any zero byte is Binary, a payload that is valid UTF-8 is
// Text, and anything else is Binary.
func classifyBytes(b []byte) (isText bool) {
	for _, c := range b {
		if c == 0 {
			return false
		}
	}
	return utf8.Valid(b)
}

func tcpExtract(payload []byte) TCPPayload {
	if len(payload) == 0 {
		return TCPPayload{Kind: TCPPayloadEmpty}
	}
	if classifyBytes(payload) {
		return TCPPayload{Kind: TCPPayloadText, Text: string(payload)}
	}
	return TCPPayload{Kind: TCPPayloadBinary, Binary: payload}
}

// udpExtract classifies a UDP payload that did not validate as RTP or
// RTCP. An empty payload still emits an empty Binary variant, per §4.1.
func udpExtract(payload []byte) UDPPayload {
	if len(payload) == 0 {
		return UDPPayload{Kind: UDPPayloadBinary, Binary: []byte{}}
	}
	if classifyBytes(payload) {
		return UDPPayload{Kind: UDPPayloadText, Text: string(payload)}
	}
	return UDPPayload{Kind: UDPPayloadBinary, Binary: payload}
}
