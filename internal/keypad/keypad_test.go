package keypad

import "testing"

func TestDefaultAllReleased(t *testing.T) {
	k := New()
	if k.Status() != 0xFFFF {
		t.Fatalf("Status() = %#04x, want 0xFFFF", k.Status())
	}
}

func TestSetPressedClearsBit(t *testing.T) {
	k := New()
	k.SetPressed(A, true)
	if k.Status()&1 != 0 {
		t.Fatalf("expected bit 0 clear when A held, got %#04x", k.Status())
	}
	k.SetPressed(A, false)
	if k.Status()&1 == 0 {
		t.Fatalf("expected bit 0 set when A released, got %#04x", k.Status())
	}
}

func TestInterruptOR(t *testing.T) {
	k := New()
	k.WriteControl(1<<14 | 1<<0 | 1<<1) // enable, OR, select A|B
	if k.InterruptPending() {
		t.Fatalf("no keys held: expected no interrupt")
	}
	k.SetPressed(A, true)
	if !k.InterruptPending() {
		t.Fatalf("A held with OR condition: expected interrupt")
	}
}

func TestInterruptAND(t *testing.T) {
	k := New()
	k.WriteControl(1<<14 | 1<<15 | 1<<0 | 1<<1) // enable, AND, select A|B
	k.SetPressed(A, true)
	if k.InterruptPending() {
		t.Fatalf("only A held with AND condition: expected no interrupt")
	}
	k.SetPressed(B, true)
	if !k.InterruptPending() {
		t.Fatalf("A and B both held with AND condition: expected interrupt")
	}
}

func TestInterruptDisabled(t *testing.T) {
	k := New()
	k.SetPressed(Start, true)
	if k.InterruptPending() {
		t.Fatalf("interrupt disabled: expected no pending interrupt regardless of keys")
	}
}
