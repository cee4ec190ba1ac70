// Package bus implements the GBA's memory-mapped address space: BIOS,
// EWRAM, IWRAM, the I/O register block, palette/VRAM/OAM, and the three
// mirrored ROM windows plus backup save memory, dispatched by address the
// way a real GBA's bus decode does.
package bus

import (
	"gba-core/internal/apu"
	"gba-core/internal/cart"
	"gba-core/internal/debug"
	"gba-core/internal/dma"
	"gba-core/internal/keypad"
	"gba-core/internal/ppu"
	"gba-core/internal/timer"
)

// Interrupt source bits within IE/IF, per GBA's fixed assignment.
const (
	IRQVBlank  = 1 << 0
	IRQHBlank  = 1 << 1
	IRQVCount  = 1 << 2
	IRQTimer0  = 1 << 3
	IRQTimer1  = 1 << 4
	IRQTimer2  = 1 << 5
	IRQTimer3  = 1 << 6
	IRQKeypad  = 1 << 12
)

// Bus wires the CPU to every other component and owns the address-map
// dispatch. It satisfies both cpu.Bus and dma.Bus structurally.
type Bus struct {
	BIOS  []byte // may be empty; reads outside a loaded image return open bus
	EWRAM [0x4_0000]byte
	IWRAM [0x8000]byte

	Cart   *cart.Cartridge
	PPU    *ppu.PPU
	APU    *apu.APU
	Timers *timer.Bank
	DMA    *dma.Bank
	Keypad *keypad.Keypad

	IE, IF, IME, WaitCnt uint16

	Logger *debug.Logger

	openBus uint32
}

// New wires a fresh Bus around the given cartridge; every other component
// starts at its power-on state.
func New(c *cart.Cartridge, logger *debug.Logger) *Bus {
	return &Bus{
		Cart:   c,
		PPU:    ppu.New(logger),
		APU:    apu.New(),
		Timers: &timer.Bank{},
		DMA:    &dma.Bank{},
		Keypad: keypad.New(),
		Logger: logger,
	}
}

// IRQPending reports whether the CPU's IRQ line should be asserted: the
// master enable is set and at least one enabled interrupt source is
// pending.
func (b *Bus) IRQPending() bool {
	return b.IME&1 != 0 && b.IE&b.IF != 0
}

// RequestIRQ latches one or more interrupt source bits into IF.
func (b *Bus) RequestIRQ(bits uint16) { b.IF |= bits }

// PollPPUInterrupts drains the PPU's edge-detected IRQRequest bits into IF;
// called once per Step after the PPU itself has advanced.
func (b *Bus) PollPPUInterrupts() {
	if b.PPU.IRQRequest == 0 {
		return
	}
	if b.PPU.IRQRequest&0x1 != 0 {
		b.RequestIRQ(IRQVBlank)
	}
	if b.PPU.IRQRequest&0x2 != 0 {
		b.RequestIRQ(IRQHBlank)
	}
	if b.PPU.IRQRequest&0x4 != 0 {
		b.RequestIRQ(IRQVCount)
	}
	b.PPU.IRQRequest = 0
}

// PollKeypadInterrupt latches KEYCNT's interrupt condition into IF.
func (b *Bus) PollKeypadInterrupt() {
	if b.Keypad.InterruptPending() {
		b.RequestIRQ(IRQKeypad)
	}
}

func vramOffset(addr uint32) uint32 {
	off := addr & 0x1FFFF
	if off >= 0x18000 {
		off -= 0x8000
	}
	return off
}

// Read8 reads one byte, dispatched by the top address byte the way the
// GBA's bus decode selects a region.
func (b *Bus) Read8(addr uint32) uint8 {
	switch addr >> 24 {
	case 0x00, 0x01:
		if int(addr) < len(b.BIOS) {
			return b.BIOS[addr]
		}
		return uint8(b.openBus)
	case 0x02:
		return b.EWRAM[addr&0x3_FFFF]
	case 0x03:
		return b.IWRAM[addr&0x7FFF]
	case 0x04:
		return uint8(b.readIO16(addr&^1) >> (8 * (addr & 1)))
	case 0x05:
		return b.PPU.Palette[addr&0x3FF]
	case 0x06:
		return b.PPU.VRAM[vramOffset(addr)]
	case 0x07:
		return b.PPU.OAM[addr&0x3FF]
	case 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D:
		return b.Cart.ReadROM8(addr & 0x01FF_FFFF)
	case 0x0E, 0x0F:
		return b.Cart.ReadSave(addr & 0xFFFF)
	default:
		return uint8(b.openBus)
	}
}

func (b *Bus) Read16(addr uint32) uint16 {
	addr &^= 1
	switch addr >> 24 {
	case 0x00, 0x01:
		if int(addr)+1 < len(b.BIOS) {
			return uint16(b.BIOS[addr]) | uint16(b.BIOS[addr+1])<<8
		}
		return uint16(b.openBus)
	case 0x02:
		off := addr & 0x3_FFFF
		return uint16(b.EWRAM[off]) | uint16(b.EWRAM[off+1])<<8
	case 0x03:
		off := addr & 0x7FFF
		return uint16(b.IWRAM[off]) | uint16(b.IWRAM[off+1])<<8
	case 0x04:
		return b.readIO16(addr)
	case 0x05:
		return b.PPU.ReadPalette16(addr)
	case 0x06:
		off := vramOffset(addr)
		return uint16(b.PPU.VRAM[off]) | uint16(b.PPU.VRAM[off+1])<<8
	case 0x07:
		off := addr & 0x3FF
		return uint16(b.PPU.OAM[off]) | uint16(b.PPU.OAM[off+1])<<8
	case 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D:
		return b.Cart.ReadROM16(addr & 0x01FF_FFFF)
	case 0x0E, 0x0F:
		v := uint16(b.Cart.ReadSave(addr & 0xFFFF))
		return v | v<<8
	default:
		return uint16(b.openBus)
	}
}

func (b *Bus) Read32(addr uint32) uint32 {
	addr &^= 3
	switch addr >> 24 {
	case 0x00, 0x01:
		if int(addr)+3 < len(b.BIOS) {
			return uint32(b.BIOS[addr]) | uint32(b.BIOS[addr+1])<<8 |
				uint32(b.BIOS[addr+2])<<16 | uint32(b.BIOS[addr+3])<<24
		}
		return b.openBus
	case 0x02:
		off := addr & 0x3_FFFF
		return uint32(b.EWRAM[off]) | uint32(b.EWRAM[off+1])<<8 |
			uint32(b.EWRAM[off+2])<<16 | uint32(b.EWRAM[off+3])<<24
	case 0x03:
		off := addr & 0x7FFF
		return uint32(b.IWRAM[off]) | uint32(b.IWRAM[off+1])<<8 |
			uint32(b.IWRAM[off+2])<<16 | uint32(b.IWRAM[off+3])<<24
	case 0x04:
		return uint32(b.readIO16(addr)) | uint32(b.readIO16(addr+2))<<16
	case 0x05:
		return uint32(b.PPU.ReadPalette16(addr)) | uint32(b.PPU.ReadPalette16(addr+2))<<16
	case 0x06:
		off := vramOffset(addr)
		return uint32(b.PPU.VRAM[off]) | uint32(b.PPU.VRAM[off+1])<<8 |
			uint32(b.PPU.VRAM[off+2])<<16 | uint32(b.PPU.VRAM[off+3])<<24
	case 0x07:
		off := addr & 0x3FF
		return uint32(b.PPU.OAM[off]) | uint32(b.PPU.OAM[off+1])<<8 |
			uint32(b.PPU.OAM[off+2])<<16 | uint32(b.PPU.OAM[off+3])<<24
	case 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D:
		return b.Cart.ReadROM32(addr & 0x01FF_FFFF)
	case 0x0E, 0x0F:
		v := uint32(b.Cart.ReadSave(addr & 0xFFFF))
		return v | v<<8 | v<<16 | v<<24
	default:
		return b.openBus
	}
}

func (b *Bus) Write8(addr uint32, v uint8) {
	switch addr >> 24 {
	case 0x02:
		b.EWRAM[addr&0x3_FFFF] = v
	case 0x03:
		b.IWRAM[addr&0x7FFF] = v
	case 0x04:
		b.APU.WriteIO8(addr&0xFFF, v)
	case 0x05:
		// Byte writes to palette/VRAM replicate across both bytes of the
		// halfword on real hardware rather than touching only one byte.
		b.WritePalette8Mirrored(addr, v)
	case 0x06:
		off := vramOffset(addr)
		b.PPU.VRAM[off&^1] = v
		b.PPU.VRAM[off|1] = v
	case 0x07:
		// OAM ignores byte writes entirely on real hardware.
	case 0x0E, 0x0F:
		b.Cart.WriteSave(addr&0xFFFF, v)
	}
}

// WritePalette8Mirrored implements the palette RAM's documented byte-write
// quirk: a byte write is expanded to both bytes of its containing halfword.
func (b *Bus) WritePalette8Mirrored(addr uint32, v uint8) {
	off := addr & 0x3FE
	b.PPU.Palette[off] = v
	b.PPU.Palette[off+1] = v
}

func (b *Bus) Write16(addr uint32, v uint16) {
	addr &^= 1
	switch addr >> 24 {
	case 0x02:
		off := addr & 0x3_FFFF
		b.EWRAM[off], b.EWRAM[off+1] = byte(v), byte(v>>8)
	case 0x03:
		off := addr & 0x7FFF
		b.IWRAM[off], b.IWRAM[off+1] = byte(v), byte(v>>8)
	case 0x04:
		b.writeIO16(addr, v)
	case 0x05:
		b.PPU.WritePalette16(addr, v)
	case 0x06:
		off := vramOffset(addr)
		b.PPU.VRAM[off], b.PPU.VRAM[off+1] = byte(v), byte(v>>8)
	case 0x07:
		off := addr & 0x3FF
		b.PPU.OAM[off], b.PPU.OAM[off+1] = byte(v), byte(v>>8)
	case 0x0E, 0x0F:
		b.Cart.WriteSave(addr&0xFFFF, byte(v))
	}
}

func (b *Bus) Write32(addr uint32, v uint32) {
	addr &^= 3
	switch addr >> 24 {
	case 0x02:
		off := addr & 0x3_FFFF
		b.EWRAM[off], b.EWRAM[off+1] = byte(v), byte(v>>8)
		b.EWRAM[off+2], b.EWRAM[off+3] = byte(v>>16), byte(v>>24)
	case 0x03:
		off := addr & 0x7FFF
		b.IWRAM[off], b.IWRAM[off+1] = byte(v), byte(v>>8)
		b.IWRAM[off+2], b.IWRAM[off+3] = byte(v>>16), byte(v>>24)
	case 0x04:
		b.writeIO16(addr, uint16(v))
		b.writeIO16(addr+2, uint16(v>>16))
		b.APU.WriteIO32(addr&0xFFF, v)
	case 0x05:
		b.PPU.WritePalette16(addr, uint16(v))
		b.PPU.WritePalette16(addr+2, uint16(v>>16))
	case 0x06:
		off := vramOffset(addr)
		b.PPU.VRAM[off], b.PPU.VRAM[off+1] = byte(v), byte(v>>8)
		b.PPU.VRAM[off+2], b.PPU.VRAM[off+3] = byte(v>>16), byte(v>>24)
	case 0x07:
		off := addr & 0x3FF
		b.PPU.OAM[off], b.PPU.OAM[off+1] = byte(v), byte(v>>8)
		b.PPU.OAM[off+2], b.PPU.OAM[off+3] = byte(v>>16), byte(v>>24)
	case 0x0E, 0x0F:
		b.Cart.WriteSave(addr&0xFFFF, byte(v))
	}
}

// DMARead16/32/Write16/32 satisfy dma.Bus; DMA transfers use the ordinary
// bus paths, since a DMA copy is just another bus master.
func (b *Bus) DMARead16(addr uint32) uint16   { return b.Read16(addr) }
func (b *Bus) DMARead32(addr uint32) uint32   { return b.Read32(addr) }
func (b *Bus) DMAWrite16(addr uint32, v uint16) { b.Write16(addr, v) }
func (b *Bus) DMAWrite32(addr uint32, v uint32) { b.Write32(addr, v) }
