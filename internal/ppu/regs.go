// Package ppu implements the GBA LCD: the per-dot compositor that reads
// palette/VRAM/OAM and produces one 240x160 RGB555 frame every 70,224
// Step calls (308 dots x 228 lines, one dot per call; the console calls
// Step once per CPU cycle).
package ppu

import (
	"gba-core/internal/bits"
	"gba-core/internal/debug"
)

// Rgb555 is a 15-bit BGR color as the GBA's palette and bitmap modes store
// it: bit15 unused, bits10-14 blue, bits5-9 green, bits0-4 red.
type Rgb555 uint16

const (
	ScreenWidth  = 240
	ScreenHeight = 160

	dotsPerLine = 308
	linesPerFrame = 228
	hblankDot   = 240
	vblankLine  = 160
)

// BGLayer holds one of the four background layer register sets.
type BGLayer struct {
	Control uint16
	HOffset uint16
	VOffset uint16

	// Affine-only fields (BG2/BG3).
	PA, PB, PC, PD int16
	RefX, RefY     int32 // 20.8 fixed point
}

func (l *BGLayer) priority() int        { return int(bits.Range(l.Control, 0, 1)) }
func (l *BGLayer) charBaseBlock() int    { return int(bits.Range(l.Control, 2, 3)) }
func (l *BGLayer) mosaic() bool          { return bits.Bit(l.Control, 6) }
func (l *BGLayer) bpp8() bool            { return bits.Bit(l.Control, 7) }
func (l *BGLayer) screenBaseBlock() int  { return int(bits.Range(l.Control, 8, 12)) }
func (l *BGLayer) wraparound() bool      { return bits.Bit(l.Control, 13) }
func (l *BGLayer) screenSize() int       { return int(bits.Range(l.Control, 14, 15)) }

// Window holds one of the two rectangular window register sets.
type Window struct {
	Left, Right, Top, Bottom uint8
	Enable                   uint8 // per-layer + effect enable mask, 6 bits
}

// PPU is the full LCD register file, VRAM/OAM/palette memory, and
// rendering pipeline state.
type PPU struct {
	DISPCNT  uint16
	DISPSTAT uint16
	vcount   uint16

	BG  [4]BGLayer
	Win [2]Window
	WinOutEnable uint8 // outside-windows layer+effect mask
	ObjWinEnable uint8
	Mosaic       uint16
	BldCnt       uint16
	BldAlpha     uint16
	BldY         uint16

	Palette [1024]byte // 256 BG entries + 256 OBJ entries, 2 bytes each
	VRAM    [96 * 1024]byte
	OAM     [1024]byte

	dot uint32

	front [ScreenHeight][ScreenWidth]Rgb555
	back  [ScreenHeight][ScreenWidth]Rgb555

	// IRQRequest is set by Step when VBlank/HBlank/VCounter match fires and
	// the corresponding DISPSTAT enable bit is set; the bus polls and
	// clears it after routing the interrupt.
	IRQRequest uint8 // bit0 vblank, bit1 hblank, bit2 vcounter

	// HBlankPulse/VBlankPulse are edge-triggered pulses, true only after the
	// Step call on which HBlank/VBlank begins; Step clears them on entry and
	// the console polls them after each Step to trigger DMA.
	HBlankPulse bool
	VBlankPulse bool

	Logger *debug.Logger
}

// New returns a PPU with registers at their power-on state.
func New(logger *debug.Logger) *PPU {
	return &PPU{Logger: logger}
}

func (p *PPU) bgMode() int { return int(bits.Range(p.DISPCNT, 0, 2)) }
func (p *PPU) frameSelect() int { return int(bits.Range(p.DISPCNT, 4, 4)) }
func (p *PPU) objVRAM1D() bool { return bits.Bit(p.DISPCNT, 6) }
func (p *PPU) forcedBlank() bool { return bits.Bit(p.DISPCNT, 7) }
func (p *PPU) bgEnabled(n int) bool { return bits.Bit(p.DISPCNT, 8+n) }
func (p *PPU) objEnabled() bool { return bits.Bit(p.DISPCNT, 12) }
func (p *PPU) win0Enabled() bool { return bits.Bit(p.DISPCNT, 13) }
func (p *PPU) win1Enabled() bool { return bits.Bit(p.DISPCNT, 14) }
func (p *PPU) objWinEnabled() bool { return bits.Bit(p.DISPCNT, 15) }
func (p *PPU) anyWindowActive() bool {
	return p.win0Enabled() || p.win1Enabled() || p.objWinEnabled()
}

func (p *PPU) vblankIRQEnable() bool  { return bits.Bit(p.DISPSTAT, 3) }
func (p *PPU) hblankIRQEnable() bool  { return bits.Bit(p.DISPSTAT, 4) }
func (p *PPU) vcounterIRQEnable() bool { return bits.Bit(p.DISPSTAT, 5) }
func (p *PPU) vcountTarget() uint16   { return bits.Range(p.DISPSTAT, 8, 15) }

// VCount returns the current scanline, 0-227.
func (p *PPU) VCount() uint16 { return p.vcount }

// GetBuffer returns the last fully composited frame.
func (p *PPU) GetBuffer() *[ScreenHeight][ScreenWidth]Rgb555 { return &p.front }

// ReadPalette16 reads a little-endian palette entry.
func (p *PPU) ReadPalette16(offset uint32) uint16 {
	offset &= 0x3FF
	return uint16(p.Palette[offset]) | uint16(p.Palette[offset+1])<<8
}

// WritePalette16 writes a little-endian palette entry.
func (p *PPU) WritePalette16(offset uint32, v uint16) {
	offset &= 0x3FF
	p.Palette[offset] = byte(v)
	p.Palette[offset+1] = byte(v >> 8)
}

func (p *PPU) bgPaletteEntry(index int) Rgb555 {
	return Rgb555(p.ReadPalette16(uint32(index * 2)))
}

func (p *PPU) objPaletteEntry(index int) Rgb555 {
	return Rgb555(p.ReadPalette16(uint32(512 + index*2)))
}

// State is the gob-serializable snapshot of the LCD's register file and
// memories (not the rendering pipeline's transient front/back buffers,
// which a post-load Step call regenerates).
type State struct {
	DISPCNT, DISPSTAT uint16
	VCount            uint16
	BG                [4]BGLayer
	Win               [2]Window
	WinOutEnable      uint8
	ObjWinEnable      uint8
	Mosaic            uint16
	BldCnt, BldAlpha, BldY uint16
	Palette           [1024]byte
	VRAM              [96 * 1024]byte
	OAM               [1024]byte
	Dot               uint32
}

// Snapshot captures the PPU's register file and memories for save-state
// serialization.
func (p *PPU) Snapshot() State {
	return State{
		DISPCNT:  p.DISPCNT,
		DISPSTAT: p.DISPSTAT,
		VCount:   p.vcount,
		BG:       p.BG,
		Win:      p.Win,
		WinOutEnable: p.WinOutEnable,
		ObjWinEnable: p.ObjWinEnable,
		Mosaic:   p.Mosaic,
		BldCnt:   p.BldCnt,
		BldAlpha: p.BldAlpha,
		BldY:     p.BldY,
		Palette:  p.Palette,
		VRAM:     p.VRAM,
		OAM:      p.OAM,
		Dot:      p.dot,
	}
}

// Restore replaces the PPU's register file and memories with a previously
// captured State.
func (p *PPU) Restore(s State) {
	p.DISPCNT = s.DISPCNT
	p.DISPSTAT = s.DISPSTAT
	p.vcount = s.VCount
	p.BG = s.BG
	p.Win = s.Win
	p.WinOutEnable = s.WinOutEnable
	p.ObjWinEnable = s.ObjWinEnable
	p.Mosaic = s.Mosaic
	p.BldCnt = s.BldCnt
	p.BldAlpha = s.BldAlpha
	p.BldY = s.BldY
	p.Palette = s.Palette
	p.VRAM = s.VRAM
	p.OAM = s.OAM
	p.dot = s.Dot
}
