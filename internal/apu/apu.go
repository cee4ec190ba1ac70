// Package apu implements the GBA sound hardware: two sample-accurate
// DMA-fed PCM FIFOs (Direct Sound A/B) and four register-accurate PSG
// channels whose synthesis is intentionally out of scope — see the PSG
// type's doc comment.
package apu

import (
	"gba-core/internal/bits"
	"gba-core/internal/debug"
)

// FIFO is one Direct Sound PCM channel: a 32-entry byte queue drained one
// sample at a time on its driving timer's overflow, matching the real
// hardware's "refill via DMA when half-empty" behavior.
type FIFO struct {
	buf        [32]int8
	head, tail int
	count      int

	current int8
	Enabled bool
	TimerSelect int // 0 or 1: which of Timer0/Timer1 overflow drains this FIFO
	Right, Left bool
	VolumeFull  bool // false = 50%, true = 100%
}

// Push appends one 8-bit signed PCM sample, as a 32-bit FIFO write does
// (four samples at once); excess pushes beyond capacity are dropped.
func (f *FIFO) Push(samples ...int8) {
	for _, s := range samples {
		if f.count >= len(f.buf) {
			return
		}
		f.buf[f.tail] = s
		f.tail = (f.tail + 1) % len(f.buf)
		f.count++
	}
}

// Reset empties the FIFO, as writing 1 to FIFOCNT's reset bit does.
func (f *FIFO) Reset() {
	f.head, f.tail, f.count = 0, 0, 0
	f.current = 0
}

// Pop advances to the next queued sample on a timer-overflow drain event.
func (f *FIFO) Pop() {
	if f.count == 0 {
		return
	}
	f.current = f.buf[f.head]
	f.head = (f.head + 1) % len(f.buf)
	f.count--
}

func (f *FIFO) sample() int32 {
	v := int32(f.current)
	if !f.VolumeFull {
		v /= 2
	}
	return v
}

// NeedsRefill reports whether the FIFO has drained to the DMA refill
// threshold (half empty), so the bus can re-trigger the feeding DMA
// channel's Special/FIFO transfer.
func (f *FIFO) NeedsRefill() bool { return f.count <= len(f.buf)/2 }

// fifoState is the gob-serializable snapshot of one FIFO's queue.
type fifoState struct {
	Buf            [32]int8
	Head, Tail     int
	Count          int
	Current        int8
	Enabled        bool
	TimerSelect    int
	Right, Left    bool
	VolumeFull     bool
}

func (f *FIFO) snapshot() fifoState {
	return fifoState{f.buf, f.head, f.tail, f.count, f.current, f.Enabled, f.TimerSelect, f.Right, f.Left, f.VolumeFull}
}

func (f *FIFO) restore(s fifoState) {
	f.buf, f.head, f.tail, f.count, f.current = s.Buf, s.Head, s.Tail, s.Count, s.Current
	f.Enabled, f.TimerSelect, f.Right, f.Left, f.VolumeFull = s.Enabled, s.TimerSelect, s.Right, s.Left, s.VolumeFull
}

// PSG is a register-accurate stub for one of the four legacy Tone/Wave/
// Noise channels: writes latch and the length counter runs down and
// disables the channel on expiry, but no waveform is synthesized. Full PSG
// synthesis is out of scope (see the module's audio-scope design note);
// this is enough to keep software that polls channel-enabled status or
// relies on the length timer correct without committing to a mixer no
// retrieved reference implementation models at GBA fidelity.
type PSG struct {
	Enabled      bool
	LengthEnable bool
	lengthCount  int
}

// SetLength loads the length counter from a length-register write; the
// field width (6 bits for Tone/Tone+Sweep/Noise, 8 bits for Wave) is the
// caller's responsibility since it varies by channel.
func (p *PSG) SetLength(max, value int) {
	p.lengthCount = max - value
}

// Tick decrements the length counter at 256 Hz (driven by the frame
// sequencer in real hardware; here advanced directly by the core on its
// own 256 Hz schedule) and disables the channel at zero.
func (p *PSG) Tick() {
	if !p.LengthEnable || p.lengthCount <= 0 {
		return
	}
	p.lengthCount--
	if p.lengthCount == 0 {
		p.Enabled = false
	}
}

// psgState is the gob-serializable snapshot of one PSG stub's state.
type psgState struct {
	Enabled      bool
	LengthEnable bool
	LengthCount  int
}

func (p *PSG) snapshot() psgState { return psgState{p.Enabled, p.LengthEnable, p.lengthCount} }

func (p *PSG) restore(s psgState) {
	p.Enabled, p.LengthEnable, p.lengthCount = s.Enabled, s.LengthEnable, s.LengthCount
}

// APU is the full sound register file plus the two FIFOs and four PSG
// stubs.
type APU struct {
	PSGChannels [4]PSG
	FIFOs       [2]FIFO

	SoundCntL uint16 // PSG left/right enable + volume
	SoundCntH uint16 // FIFO volume/enable/timer-select/reset
	SoundCntX uint16 // master enable + PSG channel-on flags (read-only bits here)
	SoundBias uint16

	Logger *debug.Logger
}

// New returns an APU with every channel silent.
func New() *APU {
	return &APU{}
}

func (a *APU) masterEnable() bool { return bits.Bit(a.SoundCntX, 7) }

// WriteSoundCntH applies the Direct Sound bits of SOUNDCNT_H: bit2/bit3
// select FIFO A/B full volume, bits 8/9 and 12/13 enable A/B on the
// right/left outputs, bit10/bit14 pick timer 0 or 1 to drive A/B, and
// bit11/bit15 reset the FIFO.
func (a *APU) WriteSoundCntH(v uint16) {
	a.SoundCntH = v
	a.FIFOs[0].VolumeFull = bits.Bit(v, 2)
	a.FIFOs[0].TimerSelect = int(bits.Range(v, 10, 10))
	a.FIFOs[0].Right = bits.Bit(v, 8)
	a.FIFOs[0].Left = bits.Bit(v, 9)
	a.FIFOs[1].VolumeFull = bits.Bit(v, 3)
	a.FIFOs[1].TimerSelect = int(bits.Range(v, 14, 14))
	a.FIFOs[1].Right = bits.Bit(v, 12)
	a.FIFOs[1].Left = bits.Bit(v, 13)
	if bits.Bit(v, 11) {
		a.FIFOs[0].Reset()
	}
	if bits.Bit(v, 15) {
		a.FIFOs[1].Reset()
	}
}

// TimerOverflow drains one sample from every FIFO configured to be fed by
// the overflowing timer index (0 or 1), called by the core once per
// matching timer overflow.
func (a *APU) TimerOverflow(timerIndex int) {
	for i := range a.FIFOs {
		if a.FIFOs[i].TimerSelect == timerIndex {
			a.FIFOs[i].Pop()
		}
	}
}

// TickLengthCounters advances all four PSG length counters; the core
// calls this at 256 Hz (once every 65536 cycles).
func (a *APU) TickLengthCounters() {
	for i := range a.PSGChannels {
		a.PSGChannels[i].Tick()
	}
}

// MixSample returns the current mono downmix of both FIFOs as a 16-bit
// signed PCM sample for a host audio sink; SOUNDBIAS is not applied. PSG
// channels are stub-only and contribute silence.
func (a *APU) MixSample() int16 {
	if !a.masterEnable() {
		return 0
	}
	var sum int32
	for i := range a.FIFOs {
		sum += a.FIFOs[i].sample()
	}
	sum *= 64 // scale the 8-bit PCM range toward 16-bit headroom
	if sum > 32767 {
		sum = 32767
	} else if sum < -32768 {
		sum = -32768
	}
	return int16(sum)
}

// State is the gob-serializable snapshot of the APU's full register and
// channel state.
type State struct {
	PSGChannels [4]psgState
	FIFOs       [2]fifoState
	SoundCntL, SoundCntH, SoundCntX, SoundBias uint16
}

// Snapshot captures the APU for save-state serialization.
func (a *APU) Snapshot() State {
	var s State
	for i := range a.PSGChannels {
		s.PSGChannels[i] = a.PSGChannels[i].snapshot()
	}
	for i := range a.FIFOs {
		s.FIFOs[i] = a.FIFOs[i].snapshot()
	}
	s.SoundCntL, s.SoundCntH, s.SoundCntX, s.SoundBias = a.SoundCntL, a.SoundCntH, a.SoundCntX, a.SoundBias
	return s
}

// Restore replaces the APU's state with a previously captured State.
func (a *APU) Restore(s State) {
	for i := range s.PSGChannels {
		a.PSGChannels[i].restore(s.PSGChannels[i])
	}
	for i := range s.FIFOs {
		a.FIFOs[i].restore(s.FIFOs[i])
	}
	a.SoundCntL, a.SoundCntH, a.SoundCntX, a.SoundBias = s.SoundCntL, s.SoundCntH, s.SoundCntX, s.SoundBias
}
