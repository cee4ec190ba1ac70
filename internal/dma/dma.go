// Package dma implements the GBA's four DMA engines: register files plus
// the trigger-check step the bus calls after each event that could start a
// transfer (instruction retirement, HBlank, VBlank, FIFO drain).
package dma

import "gba-core/internal/bits"

// Trigger is the condition that starts a channel's transfer.
type Trigger int

const (
	TriggerImmediate Trigger = iota
	TriggerVBlank
	TriggerHBlank
	TriggerSpecial // FIFO sound drain for channels 1/2, video capture is not modeled (no such GBA mode)
)

// Channel is one DMA0-DMA3 register set.
type Channel struct {
	SrcAddr, DstAddr uint32
	WordCount        uint16
	Control          uint16

	srcInternal, dstInternal uint32
	countInternal            uint32
	active                   bool
}

func (c *Channel) destControl() int   { return int(bits.Range(c.Control, 5, 6)) }
func (c *Channel) srcControl() int    { return int(bits.Range(c.Control, 7, 8)) }
func (c *Channel) repeat() bool       { return bits.Bit(c.Control, 9) }
func (c *Channel) wordSize32() bool   { return bits.Bit(c.Control, 10) }
func (c *Channel) trigger() Trigger   { return Trigger(bits.Range(c.Control, 12, 13)) }
func (c *Channel) irqEnable() bool    { return bits.Bit(c.Control, 14) }
func (c *Channel) enabled() bool      { return bits.Bit(c.Control, 15) }

// Bank is the set of four DMA channels.
type Bank struct {
	Channels [4]Channel
}

// Bus is the narrow interface DMA needs from the memory bus to move bytes
// without importing the bus package (which itself imports dma), avoiding a
// cycle.
type Bus interface {
	DMARead16(addr uint32) uint16
	DMAWrite16(addr uint32, v uint16)
	DMARead32(addr uint32) uint32
	DMAWrite32(addr uint32, v uint32)
}

// WriteControl arms (or disarms) a channel, latching its working
// source/dest/count registers on the enable transition the way hardware
// loads them once when DMA starts.
func (b *Bank) WriteControl(ch int, v uint16) {
	c := &b.Channels[ch]
	wasEnabled := c.enabled()
	c.Control = v
	if !wasEnabled && c.enabled() {
		c.srcInternal = c.SrcAddr
		c.dstInternal = c.DstAddr
		count := uint32(c.WordCount)
		if count == 0 {
			if ch == 3 {
				count = 0x10000
			} else {
				count = 0x4000
			}
		}
		c.countInternal = count
		if c.trigger() == TriggerImmediate {
			c.active = true
		}
	}
}

// CheckTriggers is called after every bus event; it runs to completion any
// channel whose trigger condition just fired, highest-priority channel
// (lowest index) first, and returns a bitmask with bit i set for each
// channel i that ran and requested its completion interrupt.
func (b *Bank) CheckTriggers(bus Bus, event Trigger) (irq uint8) {
	for i := range b.Channels {
		c := &b.Channels[i]
		if !c.enabled() {
			continue
		}
		if c.trigger() != event && !(c.active && c.trigger() == TriggerImmediate) {
			continue
		}
		b.run(bus, c)
		if c.irqEnable() {
			irq |= 1 << uint(i)
		}
		if !c.repeat() || c.trigger() == TriggerImmediate {
			c.Control = bits.SetBit(c.Control, 15, false)
		} else {
			count := uint32(c.WordCount)
			if count == 0 {
				if i == 3 {
					count = 0x10000
				} else {
					count = 0x4000
				}
			}
			c.countInternal = count
			if bits.Range(c.Control, 5, 6) == 3 {
				c.dstInternal = c.DstAddr
			}
		}
	}
	return irq
}

func (b *Bank) run(bus Bus, c *Channel) {
	step := int32(2)
	if c.wordSize32() {
		step = 4
	}
	srcStep := addrStep(c.srcControl(), step)
	dstStep := addrStep(c.destControl(), step)

	for n := uint32(0); n < c.countInternal; n++ {
		if c.wordSize32() {
			bus.DMAWrite32(c.dstInternal, bus.DMARead32(c.srcInternal))
		} else {
			bus.DMAWrite16(c.dstInternal, bus.DMARead16(c.srcInternal))
		}
		c.srcInternal = uint32(int64(c.srcInternal) + int64(srcStep))
		c.dstInternal = uint32(int64(c.dstInternal) + int64(dstStep))
	}
}

// addrStep maps a channel's 2-bit address-control field to a signed
// per-unit step: 0 increment, 1 decrement, 2 fixed, 3 increment+reload
// (reload is handled by the caller after a repeating transfer finishes).
func addrStep(control int, unit int32) int32 {
	switch control {
	case 1:
		return -unit
	case 2:
		return 0
	default:
		return unit
	}
}

// channelState is the gob-serializable snapshot of one DMA channel,
// including the internal latched working registers a mid-repeat transfer
// needs to resume correctly.
type channelState struct {
	SrcAddr, DstAddr         uint32
	WordCount, Control       uint16
	SrcInternal, DstInternal uint32
	CountInternal            uint32
	Active                   bool
}

// State is the gob-serializable snapshot of all four DMA channels.
type State struct {
	Channels [4]channelState
}

// Snapshot captures the DMA bank for save-state serialization.
func (b *Bank) Snapshot() State {
	var s State
	for i := range b.Channels {
		c := &b.Channels[i]
		s.Channels[i] = channelState{c.SrcAddr, c.DstAddr, c.WordCount, c.Control, c.srcInternal, c.dstInternal, c.countInternal, c.active}
	}
	return s
}

// Restore replaces the DMA bank's state with a previously captured State.
func (b *Bank) Restore(s State) {
	for i := range b.Channels {
		c := &b.Channels[i]
		cs := s.Channels[i]
		c.SrcAddr, c.DstAddr, c.WordCount, c.Control = cs.SrcAddr, cs.DstAddr, cs.WordCount, cs.Control
		c.srcInternal, c.dstInternal, c.countInternal, c.active = cs.SrcInternal, cs.DstInternal, cs.CountInternal, cs.Active
	}
}
