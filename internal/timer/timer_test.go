package timer

import "testing"

func TestPrescale1TicksEveryCycle(t *testing.T) {
	var tm Timer
	tm.SetReload(0xFFFE)
	tm.SetControl(1 << 7) // start, prescale 1
	if ov := tm.Step(false); ov {
		t.Fatalf("unexpected overflow on first tick")
	}
	if tm.Counter() != 0xFFFF {
		t.Fatalf("Counter() = %#04x, want 0xFFFF", tm.Counter())
	}
	if ov := tm.Step(false); !ov {
		t.Fatalf("expected overflow on second tick")
	}
	if tm.Counter() != 0xFFFE {
		t.Fatalf("Counter() after reload = %#04x, want 0xFFFE", tm.Counter())
	}
}

func TestPrescale1024RequiresFullWindow(t *testing.T) {
	var tm Timer
	tm.SetReload(0xFFFF)
	tm.SetControl(1<<7 | 0b11) // start, prescale 1024
	for i := 0; i < 1023; i++ {
		if ov := tm.Step(false); ov {
			t.Fatalf("premature overflow at cycle %d", i)
		}
	}
	if tm.Counter() != 0xFFFF {
		t.Fatalf("counter ticked early: %#04x", tm.Counter())
	}
	if ov := tm.Step(false); !ov {
		t.Fatalf("expected tick+overflow at cycle 1024")
	}
}

func TestCountUpIgnoresPrescalerTicksOnlyOnCascade(t *testing.T) {
	var tm Timer
	tm.SetReload(0)
	tm.SetControl(1<<7 | 1<<2) // start, count-up
	if ov := tm.Step(false); ov {
		t.Fatalf("count-up timer must not tick without predecessor overflow")
	}
	if tm.Counter() != 0 {
		t.Fatalf("Counter() = %d, want 0", tm.Counter())
	}
	tm.Step(true)
	if tm.Counter() != 1 {
		t.Fatalf("Counter() = %d, want 1 after cascaded overflow", tm.Counter())
	}
}

func TestStoppedTimerNeverTicks(t *testing.T) {
	var tm Timer
	tm.SetReload(0)
	tm.SetControl(0)
	if ov := tm.Step(false); ov {
		t.Fatalf("stopped timer overflowed")
	}
	if tm.Counter() != 0 {
		t.Fatalf("stopped timer counter moved")
	}
}

func TestBankCascadesInOrder(t *testing.T) {
	var b Bank
	b.Timers[0].SetReload(0xFFFF)
	b.Timers[0].SetControl(1 << 7) // prescale 1, will overflow this step
	b.Timers[1].SetReload(0)
	b.Timers[1].SetControl(1<<7 | 1<<2) // count-up, cascades off timer 0

	mask := b.StepAll()
	if mask&0x1 == 0 {
		t.Fatalf("expected timer 0 to overflow, mask=%02b", mask)
	}
	if b.Timers[1].Counter() != 1 {
		t.Fatalf("expected timer 1 to cascade-tick, counter=%d", b.Timers[1].Counter())
	}
}
