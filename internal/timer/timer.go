// Package timer implements the GBA's four 16-bit hardware timers:
// prescaled free-running counters that can cascade off a previous timer's
// overflow and optionally raise an interrupt on reload.
package timer

import "gba-core/internal/bits"

// Prescaler selects how many input cycles elapse per counter tick.
type Prescaler uint8

const (
	Prescale1 Prescaler = iota
	Prescale64
	Prescale256
	Prescale1024
)

// mask returns the cycle-count bitmask that must be all-zero for a tick:
// Prescale1 ticks every cycle (mask 0), Prescale64 every 64th (mask 0x3F),
// and so on.
func (p Prescaler) mask() uint32 {
	switch p {
	case Prescale1:
		return 0x0
	case Prescale64:
		return 0x3F
	case Prescale256:
		return 0xFF
	case Prescale1024:
		return 0x3FF
	default:
		return 0x0
	}
}

// Timer is one of the four TMxCNT_L/TMxCNT_H channels.
type Timer struct {
	counter uint16
	reload  uint16
	control uint16

	cycleAccum uint32
}

// Reload returns TMxCNT_L as last written (the reload value, distinct from
// the live running counter).
func (t *Timer) Reload() uint16 { return t.reload }

// SetReload writes TMxCNT_L.
func (t *Timer) SetReload(v uint16) { t.reload = v }

// Counter returns the live running count.
func (t *Timer) Counter() uint16 { return t.counter }

// Control returns TMxCNT_H.
func (t *Timer) Control() uint16 { return t.control }

// SetControl writes TMxCNT_H. Setting the start bit (bit 7) while it was
// previously clear reloads the counter from TMxCNT_L, matching hardware
// start-up behavior.
func (t *Timer) SetControl(v uint16) {
	wasRunning := bits.Bit(t.control, 7)
	t.control = v
	if !wasRunning && bits.Bit(t.control, 7) {
		t.counter = t.reload
		t.cycleAccum = 0
	}
}

func (t *Timer) prescaler() Prescaler   { return Prescaler(bits.Range(t.control, 0, 1)) }
func (t *Timer) countUp() bool          { return bits.Bit(t.control, 2) }
func (t *Timer) irqEnable() bool        { return bits.Bit(t.control, 6) }
func (t *Timer) running() bool          { return bits.Bit(t.control, 7) }

// Step advances the timer by one bus cycle (or, when running in count-up
// cascade mode, is a no-op: the timer only advances via prevOverflow in
// that mode). prevOverflow is true when the preceding timer channel
// overflowed this same step; index 0's prevOverflow argument is ignored by
// convention since it has no predecessor. Step returns whether this timer
// itself overflowed (reloaded) this step, so the caller can cascade it into
// the next channel and raise IRQs.
func (t *Timer) Step(prevOverflow bool) (overflowed bool) {
	if !t.running() {
		return false
	}

	tick := false
	if t.countUp() {
		tick = prevOverflow
	} else {
		t.cycleAccum++
		mask := t.prescaler().mask()
		if t.cycleAccum&mask == 0 {
			tick = true
		}
	}
	if !tick {
		return false
	}

	t.counter++
	if t.counter == 0 {
		t.counter = t.reload
		return true
	}
	return false
}

// InterruptRequested reports whether an overflow this step should raise the
// timer's IRQ line.
func (t *Timer) InterruptRequested(overflowed bool) bool {
	return overflowed && t.irqEnable()
}

// Bank is the set of four timer channels plus the cascade wiring between
// them.
type Bank struct {
	Timers [4]Timer
}

// StepAll advances every running timer by one cycle in index order so that
// count-up cascades see the correct same-step overflow of their
// predecessor, and returns a bitmask of which channels overflowed.
func (b *Bank) StepAll() (overflowMask uint8) {
	prevOverflow := false
	for i := range b.Timers {
		ov := b.Timers[i].Step(prevOverflow)
		if ov {
			overflowMask |= 1 << uint(i)
		}
		prevOverflow = ov
	}
	return overflowMask
}

// timerState is the gob-serializable snapshot of one channel.
type timerState struct {
	Counter, Reload, Control uint16
	CycleAccum               uint32
}

// State is the gob-serializable snapshot of all four timer channels.
type State struct {
	Timers [4]timerState
}

// Snapshot captures the timer bank for save-state serialization.
func (b *Bank) Snapshot() State {
	var s State
	for i := range b.Timers {
		t := &b.Timers[i]
		s.Timers[i] = timerState{t.counter, t.reload, t.control, t.cycleAccum}
	}
	return s
}

// Restore replaces the timer bank's state with a previously captured State.
func (b *Bank) Restore(s State) {
	for i := range b.Timers {
		t := &b.Timers[i]
		ts := s.Timers[i]
		t.counter, t.reload, t.control, t.cycleAccum = ts.Counter, ts.Reload, ts.Control, ts.CycleAccum
	}
}
