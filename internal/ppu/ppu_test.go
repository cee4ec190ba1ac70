package ppu

import "testing"

func TestStepEntersHBlankAtDot240(t *testing.T) {
	p := New(nil)
	for i := 0; i <= hblankDot; i++ {
		p.Step()
	}
	if !p.HBlankPulse {
		t.Fatalf("expected HBlankPulse at dot %d", hblankDot)
	}
}

func TestStepAdvancesVCountAfterFullLine(t *testing.T) {
	p := New(nil)
	for i := 0; i < dotsPerLine; i++ {
		p.Step()
	}
	if p.VCount() != 1 {
		t.Fatalf("VCount() = %d, want 1 after one full line", p.VCount())
	}
}

func TestStepEntersVBlankAtLine160(t *testing.T) {
	p := New(nil)
	sawVBlank := false
	for line := 0; line < vblankLine; line++ {
		for dot := 0; dot < dotsPerLine; dot++ {
			p.Step()
		}
	}
	p.Step()
	if p.VBlankPulse {
		sawVBlank = true
	}
	if !sawVBlank {
		t.Fatalf("expected VBlankPulse entering line %d", vblankLine)
	}
	if p.VCount() != vblankLine {
		t.Fatalf("VCount() = %d, want %d", p.VCount(), vblankLine)
	}
}

func TestFrameWrapsAt228Lines(t *testing.T) {
	p := New(nil)
	for i := 0; i < dotsPerLine*linesPerFrame; i++ {
		p.Step()
	}
	if p.VCount() != 0 {
		t.Fatalf("VCount() = %d, want 0 after a full frame", p.VCount())
	}
}

func TestForcedBlankProducesWhiteLine(t *testing.T) {
	p := New(nil)
	p.DISPCNT = 1 << 7
	p.renderLine(0)
	buf := p.back
	for x := 0; x < ScreenWidth; x++ {
		if buf[0][x] != Rgb555(0x7FFF) {
			t.Fatalf("forced blank pixel %d = %#04x, want 0x7FFF", x, buf[0][x])
		}
	}
}

func TestMode3DirectColorReadsVRAM(t *testing.T) {
	p := New(nil)
	p.DISPCNT = 3 | 1<<10 // mode 3, BG2 enabled
	p.WritePalette16(0, 0)
	addr := uint32(0)
	p.VRAM[addr] = 0xFF
	p.VRAM[addr+1] = 0x7F
	p.renderLine(0)
	if p.back[0][0] != Rgb555(0x7FFF) {
		t.Fatalf("mode 3 pixel = %#04x, want 0x7FFF", p.back[0][0])
	}
}

func TestWindowSelectionDefaultsToAllVisible(t *testing.T) {
	p := New(nil)
	sel := p.windowSelection(0, 0, false)
	for i := 0; i < 4; i++ {
		if !sel.bg[i] {
			t.Fatalf("expected BG%d visible with no windows active", i)
		}
	}
	if !sel.obj || !sel.effect {
		t.Fatalf("expected obj+effect visible with no windows active")
	}
}

func TestWindow0TakesPrecedenceOverWindow1(t *testing.T) {
	p := New(nil)
	p.DISPCNT = 1<<13 | 1<<14 // win0 + win1 enabled
	p.Win[0] = Window{Left: 0, Right: 10, Top: 0, Bottom: 10, Enable: 0x1}
	p.Win[1] = Window{Left: 0, Right: 10, Top: 0, Bottom: 10, Enable: 0x2}
	sel := p.windowSelection(5, 5, false)
	if !sel.bg[0] || sel.bg[1] {
		t.Fatalf("expected win0's mask to win over win1, got %+v", sel)
	}
}
