package apu

import "testing"

func TestFIFOPopReturnsQueuedOrder(t *testing.T) {
	var f FIFO
	f.Push(1, 2, 3)
	f.Pop()
	if f.current != 1 {
		t.Fatalf("current = %d, want 1", f.current)
	}
	f.Pop()
	if f.current != 2 {
		t.Fatalf("current = %d, want 2", f.current)
	}
}

func TestFIFONeedsRefillAtHalfEmpty(t *testing.T) {
	var f FIFO
	if !f.NeedsRefill() {
		t.Fatalf("empty FIFO should need a refill")
	}
	for i := 0; i < len(f.buf); i++ {
		f.Push(0)
	}
	if f.NeedsRefill() {
		t.Fatalf("full FIFO should not need a refill")
	}
	for i := 0; i < len(f.buf)/2; i++ {
		f.Pop()
	}
	if !f.NeedsRefill() {
		t.Fatalf("half-empty FIFO should need a refill")
	}
}

func TestPSGLengthCounterDisablesChannel(t *testing.T) {
	var p PSG
	p.Enabled = true
	p.LengthEnable = true
	p.SetLength(64, 62) // 2 ticks remaining
	p.Tick()
	if !p.Enabled {
		t.Fatalf("channel disabled too early")
	}
	p.Tick()
	if p.Enabled {
		t.Fatalf("expected channel to disable once the length counter reaches zero")
	}
}

func TestPSGLengthDisabledNeverExpires(t *testing.T) {
	var p PSG
	p.Enabled = true
	p.LengthEnable = false
	p.SetLength(64, 63)
	for i := 0; i < 10; i++ {
		p.Tick()
	}
	if !p.Enabled {
		t.Fatalf("channel with length counting disabled should never auto-disable")
	}
}

func TestMixSampleSilentWhenMasterDisabled(t *testing.T) {
	a := New()
	a.FIFOs[0].Push(127)
	a.FIFOs[0].Pop()
	if s := a.MixSample(); s != 0 {
		t.Fatalf("MixSample() = %d, want 0 with master sound disabled", s)
	}
}

func TestTimerOverflowDrainsMatchingFIFO(t *testing.T) {
	a := New()
	a.WriteSoundCntH(0) // both FIFOs default to timer 0
	a.FIFOs[0].Push(42)
	a.TimerOverflow(0)
	if a.FIFOs[0].current != 42 {
		t.Fatalf("expected FIFO A to drain on timer 0 overflow")
	}
}
