package stats

import "testing"

func TestCircularSeqGreaterWrapVectors(t *testing.T) {
	if !CircularSeqGreater(0, 0xFFFF) {
		t.Fatalf("expected 0 to be newer than 0xFFFF after wraparound")
	}
	if CircularSeqGreater(0x7FFF, 0xFFFF) {
		t.Fatalf("expected 0x7FFF to not be newer than 0xFFFF (half-window boundary)")
	}
}

func TestCircularSeqGreaterBasic(t *testing.T) {
	if !CircularSeqGreater(5, 4) {
		t.Fatalf("expected 5 > 4")
	}
	if CircularSeqGreater(4, 5) {
		t.Fatalf("expected 4 not > 5")
	}
	if CircularSeqGreater(10, 10) {
		t.Fatalf("expected equal sequence numbers to not be greater")
	}
}

func TestTimestampDeltaWrap(t *testing.T) {
	var max32 uint32 = 0xFFFFFFFF
	if got := TimestampDelta(0, max32); got != 1 {
		t.Fatalf("expected delta of 1 across wraparound, got %d", got)
	}
	if got := TimestampDelta(max32, 0); got != -1 {
		t.Fatalf("expected delta of -1 across wraparound, got %d", got)
	}
}

func TestTimestampDeltaNoWrap(t *testing.T) {
	if got := TimestampDelta(1000, 960); got != 40 {
		t.Fatalf("expected delta of 40, got %d", got)
	}
}
