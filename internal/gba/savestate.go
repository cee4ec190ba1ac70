package gba

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gba-core/internal/apu"
	"gba-core/internal/cpu"
	"gba-core/internal/dma"
	"gba-core/internal/keypad"
	"gba-core/internal/ppu"
	"gba-core/internal/timer"
)

// saveStateVersion guards against loading a state produced by an
// incompatible layout.
const saveStateVersion = 1

// saveState is the full snapshot of a Console, excluding the cartridge ROM
// itself (the caller is expected to reload the same ROM image before
// restoring) and its battery-backed save data (persisted separately via
// cart.SaveImage).
type saveState struct {
	Version uint16

	CPU     cpu.State
	PPU     ppu.State
	APU     apu.State
	DMA     dma.State
	Timers  timer.State
	Keypad  keypad.State

	EWRAM [0x4_0000]byte
	IWRAM [0x8000]byte

	IE, IF, IME, WaitCnt uint16

	Cycles, Frames uint64
	LengthTicker   uint32
}

// SaveState serializes the console's full architectural state to a byte
// slice suitable for writing to a file.
func (c *Console) SaveState() ([]byte, error) {
	s := saveState{
		Version: saveStateVersion,
		CPU:     c.CPU.Snapshot(),
		PPU:     c.Bus.PPU.Snapshot(),
		APU:     c.Bus.APU.Snapshot(),
		DMA:     c.Bus.DMA.Snapshot(),
		Timers:  c.Bus.Timers.Snapshot(),
		Keypad:  c.Bus.Keypad.Snapshot(),
		EWRAM:   c.Bus.EWRAM,
		IWRAM:   c.Bus.IWRAM,
		IE:      c.Bus.IE,
		IF:      c.Bus.IF,
		IME:     c.Bus.IME,
		WaitCnt: c.Bus.WaitCnt,
		Cycles:  c.cycles,
		Frames:  c.frames,
		LengthTicker: c.lengthTicker,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("gba: encode save state: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadState restores a Console from a byte slice produced by SaveState. The
// Console must already be wired to the same cartridge the state was
// captured from.
func (c *Console) LoadState(data []byte) error {
	var s saveState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("gba: decode save state: %w", err)
	}
	if s.Version != saveStateVersion {
		return fmt.Errorf("gba: unsupported save state version %d (want %d)", s.Version, saveStateVersion)
	}

	c.CPU.Restore(s.CPU)
	c.Bus.PPU.Restore(s.PPU)
	c.Bus.APU.Restore(s.APU)
	c.Bus.DMA.Restore(s.DMA)
	c.Bus.Timers.Restore(s.Timers)
	c.Bus.Keypad.Restore(s.Keypad)
	c.Bus.EWRAM = s.EWRAM
	c.Bus.IWRAM = s.IWRAM
	c.Bus.IE = s.IE
	c.Bus.IF = s.IF
	c.Bus.IME = s.IME
	c.Bus.WaitCnt = s.WaitCnt
	c.cycles = s.Cycles
	c.frames = s.Frames
	c.lengthTicker = s.LengthTicker
	return nil
}
