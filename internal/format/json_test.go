package format

import (
	"encoding/json"
	"testing"
	"time"

	"centrifuge/internal/centrifuge"
)

func TestJSONFormatRTP(t *testing.T) {
	j := JSON{}
	out := j.Format(time.Now(), rtpTree(0xcafef00d))

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("expected valid JSON, got error %v for %q", err, out)
	}
	if decoded["kind"] != "ether" {
		t.Fatalf("expected kind=ether, got %v", decoded["kind"])
	}
	ether, ok := decoded["ether"].(map[string]any)
	if !ok {
		t.Fatalf("expected ether object, got %v", decoded["ether"])
	}
	body, ok := ether["body"].(map[string]any)
	if !ok {
		t.Fatalf("expected body object, got %v", ether["body"])
	}
	ip, ok := body["ip"].(map[string]any)
	if !ok {
		t.Fatalf("expected ip object, got %v", body["ip"])
	}
	udp, ok := ip["udp"].(map[string]any)
	if !ok {
		t.Fatalf("expected udp object, got %v", ip["udp"])
	}
	rtp, ok := udp["rtp"].(map[string]any)
	if !ok {
		t.Fatalf("expected rtp object, got %v", udp["rtp"])
	}
	if rtp["seq"].(float64) != 42 {
		t.Fatalf("expected seq=42, got %v", rtp["seq"])
	}
}

func TestJSONFormatUnknown(t *testing.T) {
	j := JSON{}
	out := j.Format(time.Now(), &centrifuge.PacketTree{Kind: centrifuge.KindUnknown, Unknown: []byte{1}})
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("expected valid JSON, got error %v for %q", err, out)
	}
	if decoded["kind"] != "unknown" {
		t.Fatalf("expected kind=unknown, got %v", decoded["kind"])
	}
	if _, present := decoded["ether"]; present {
		t.Fatalf("expected no ether field for unknown frame, got %v", decoded["ether"])
	}
}
