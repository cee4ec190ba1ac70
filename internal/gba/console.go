// Package gba wires the CPU, bus, and every peripheral into one runnable
// console: loading a cartridge, stepping one instruction at a time while
// driving the LCD/timers/DMA/APU off that instruction's own cycle cost, and
// producing a deterministic checksum of the rendered frame for correctness
// testing.
package gba

import (
	"fmt"

	"gba-core/internal/bus"
	"gba-core/internal/cart"
	"gba-core/internal/cpu"
	"gba-core/internal/debug"
	"gba-core/internal/dma"
	"gba-core/internal/ppu"

	"github.com/zeebo/xxh3"
)

// samplesPerFrame matches the host audio sink's expected frame size at
// 44,100 Hz and the UI's fixed 60 frames per second.
const samplesPerFrame = 735

// Console is the top-level emulated machine.
type Console struct {
	CPU *cpu.CPU
	Bus *bus.Bus

	Logger *debug.Logger

	cycles       uint64
	frames       uint64
	lengthTicker uint32 // accumulates cycles toward the 256 Hz PSG length-counter tick

	AudioSamples []int16
}

// New builds a Console around an already-loaded cartridge.
func New(cartridge *cart.Cartridge, logger *debug.Logger) *Console {
	b := bus.New(cartridge, logger)
	c := cpu.New(b)
	c.Logger = logger
	return &Console{
		CPU:          c,
		Bus:          b,
		Logger:       logger,
		AudioSamples: make([]int16, 0, samplesPerFrame),
	}
}

// NewConsole builds a Console around an already-loaded cartridge with
// logging disabled, the bare constructor shape of the emulator's core API.
// Use New directly (or set Console.Logger afterward) to wire a Logger in.
func NewConsole(cartridge *cart.Cartridge) *Console {
	return New(cartridge, nil)
}

// LoadROM is a convenience constructor wrapping cart.Load + New.
func LoadROM(rom []byte, logger *debug.Logger) (*Console, error) {
	c, err := cart.Load(rom)
	if err != nil {
		return nil, fmt.Errorf("gba: %w", err)
	}
	return New(c, logger), nil
}

// CycleCount returns the total bus cycles executed since power-on.
func (c *Console) CycleCount() uint64 { return c.cycles }

// FrameCount returns the number of LCD VBlanks serviced so far.
func (c *Console) FrameCount() uint64 { return c.frames }

// FetchDecodeExecute runs exactly one CPU instruction and drives every
// peripheral by the number of bus cycles it cost, the emulator's single
// unit of forward progress (see the top-level package doc).
func (c *Console) FetchDecodeExecute() int {
	cycles := c.CPU.FetchDecodeExecute()
	for i := 0; i < cycles; i++ {
		c.tickOneCycle()
	}
	c.cycles += uint64(cycles)
	c.CPU.IRQLine = c.Bus.IRQPending()
	return cycles
}

// FetchDecodeExecuteNoLogs is FetchDecodeExecute with every component
// Logger temporarily silenced, the hot path scenario runs and test
// harnesses drive when stepping tens of millions of instructions where the
// ring-buffer logger's overhead would dominate.
func (c *Console) FetchDecodeExecuteNoLogs() int {
	cpuLogger := c.CPU.Logger
	ppuLogger := c.Bus.PPU.Logger
	c.CPU.Logger = nil
	c.Bus.PPU.Logger = nil
	cycles := c.FetchDecodeExecute()
	c.CPU.Logger = cpuLogger
	c.Bus.PPU.Logger = ppuLogger
	return cycles
}

func (c *Console) tickOneCycle() {
	c.requestDMAIRQ(c.Bus.DMA.CheckTriggers(c.Bus, dma.TriggerImmediate))

	c.Bus.PPU.Step()
	c.Bus.PollPPUInterrupts()

	if c.Bus.PPU.VBlankPulse {
		c.requestDMAIRQ(c.Bus.DMA.CheckTriggers(c.Bus, dma.TriggerVBlank))
		c.frames++
	}
	if c.Bus.PPU.HBlankPulse {
		c.requestDMAIRQ(c.Bus.DMA.CheckTriggers(c.Bus, dma.TriggerHBlank))
	}

	overflowMask := c.Bus.Timers.StepAll()
	if overflowMask != 0 {
		for i := 0; i < 4; i++ {
			if overflowMask&(1<<uint(i)) == 0 {
				continue
			}
			c.Bus.APU.TimerOverflow(i)
			if i < 2 {
				c.requestDMAIRQ(c.Bus.DMA.CheckTriggers(c.Bus, dma.TriggerSpecial))
			}
			if c.Bus.Timers.Timers[i].InterruptRequested(true) {
				c.Bus.RequestIRQ(uint16(bus.IRQTimer0) << uint(i))
			}
		}
		c.collectAudioSample()
	}

	c.lengthTicker++
	if c.lengthTicker >= 65536 {
		c.lengthTicker = 0
		c.Bus.APU.TickLengthCounters()
	}

	c.Bus.PollKeypadInterrupt()
}

// requestDMAIRQ raises the DMA0-3 completion interrupt line (IF bits 8-11)
// for every channel CheckTriggers reports finished with its IRQ enabled.
func (c *Console) requestDMAIRQ(completed uint8) {
	if completed == 0 {
		return
	}
	c.Bus.RequestIRQ(uint16(completed) << 8)
}

func (c *Console) collectAudioSample() {
	if len(c.AudioSamples) >= cap(c.AudioSamples) {
		return
	}
	c.AudioSamples = append(c.AudioSamples, c.Bus.APU.MixSample())
}

// RunFrame steps the console until one more VBlank has been serviced,
// returning the number of CPU instructions executed and resetting the
// audio sample buffer for the caller to drain.
func (c *Console) RunFrame() int {
	c.AudioSamples = c.AudioSamples[:0]
	target := c.frames + 1
	instructions := 0
	for c.frames < target {
		c.FetchDecodeExecute()
		instructions++
	}
	return instructions
}

// CalculateLCDChecksum returns an xxh3 digest of the last fully composited
// frame, hashing each pixel's raw 5-bit red/green/blue channel values (not
// scaled to 8-bit) in scanline order, used by correctness tests to compare
// against a known-good trace without storing raw framebuffers.
func CalculateLCDChecksum(c *Console) uint64 {
	buf := c.Bus.PPU.GetBuffer()
	out := make([]byte, 0, ppu.ScreenWidth*ppu.ScreenHeight*3)
	for _, row := range buf {
		for _, px := range row {
			r := uint8(px & 0x1F)
			g := uint8((px >> 5) & 0x1F)
			b := uint8((px >> 10) & 0x1F)
			out = append(out, r, g, b)
		}
	}
	return xxh3.Hash(out)
}
