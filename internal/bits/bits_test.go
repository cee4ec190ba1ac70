package bits

import "testing"

func TestBitRoundTrip(t *testing.T) {
	var v uint16
	v = SetBit(v, 3, true)
	if !Bit(v, 3) {
		t.Fatalf("expected bit 3 set, got %016b", v)
	}
	v = SetBit(v, 3, false)
	if Bit(v, 3) {
		t.Fatalf("expected bit 3 clear, got %016b", v)
	}
}

func TestRange(t *testing.T) {
	v := uint32(0b1010_1100)
	if got := Range(v, 2, 5); got != 0b1011 {
		t.Fatalf("Range(2,5) = %04b, want 1011", got)
	}
}

func TestSetRange(t *testing.T) {
	v := uint32(0)
	v = SetRange(v, 8, 12, 0x1F)
	if Range(v, 8, 12) != 0x1F {
		t.Fatalf("round trip failed: %x", v)
	}
	if v&^(0x1F<<8) != 0 {
		t.Fatalf("SetRange touched bits outside the range: %032b", v)
	}
}

func TestSignExtend(t *testing.T) {
	if got := SignExtend(0x7FF, 12); got != 2047 {
		t.Fatalf("SignExtend positive = %d, want 2047", got)
	}
	if got := SignExtend(0xFFF, 12); got != -1 {
		t.Fatalf("SignExtend negative = %d, want -1", got)
	}
}

func TestGetSetHalf(t *testing.T) {
	v := SetHalf(0, 0, 0xBEEF)
	v = SetHalf(v, 1, 0xCAFE)
	if GetHalf(v, 0) != 0xBEEF || GetHalf(v, 1) != 0xCAFE {
		t.Fatalf("half-word round trip failed: %08x", v)
	}
}
