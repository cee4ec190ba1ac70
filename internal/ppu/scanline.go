package ppu

import (
	"gba-core/internal/bits"
	"gba-core/internal/debug"
)

// Step handles the dot at the current (dot, vcount) position, advances to
// the next dot, and updates DISPSTAT/IRQRequest. The console calls it once
// per CPU cycle.
func (p *PPU) Step() {
	p.HBlankPulse = false
	p.VBlankPulse = false

	atLineStart := p.dot == 0
	enteringHBlank := p.dot == hblankDot

	if atLineStart && p.vcount == vblankLine {
		p.front = p.back
		p.VBlankPulse = true
		if p.vblankIRQEnable() {
			p.IRQRequest |= 0x1
		}
	}

	if enteringHBlank && p.vcount < vblankLine {
		p.renderLine(int(p.vcount))
		p.HBlankPulse = true
		if p.hblankIRQEnable() {
			p.IRQRequest |= 0x2
		}
	}

	p.dot++
	if p.dot >= dotsPerLine {
		p.dot = 0
		p.vcount++
		if p.vcount >= linesPerFrame {
			p.vcount = 0
		}
		if p.vcounterIRQEnable() && p.vcount == p.vcountTarget() {
			p.IRQRequest |= 0x4
		}
	}
	p.DISPSTAT = setStatusFlags(p.DISPSTAT, p.vcount >= vblankLine, p.dot >= hblankDot, p.vcount == p.vcountTarget())
}

func setStatusFlags(v uint16, vblank, hblank, vcounter bool) uint16 {
	set := func(v uint16, bit int, val bool) uint16 {
		if val {
			return v | (1 << uint(bit))
		}
		return v &^ (1 << uint(bit))
	}
	v = set(v, 0, vblank)
	v = set(v, 1, hblank)
	v = set(v, 2, vcounter)
	return v
}

type pixelInfo struct {
	color           Rgb555
	priority        int
	layer           int // 0-3 BG index, 4 OBJ
	transparent     bool
	semiTransparent bool
}

// renderLine composites one full 240-pixel scanline into the back buffer.
func (p *PPU) renderLine(line int) {
	if p.forcedBlank() {
		for x := 0; x < ScreenWidth; x++ {
			p.back[line][x] = Rgb555(0x7FFF)
		}
		return
	}

	var bgPixels [4][ScreenWidth]pixelInfo
	var bgActive [4]bool
	mode := p.bgMode()

	switch mode {
	case 0:
		for i := 0; i < 4; i++ {
			if p.bgEnabled(i) {
				bgActive[i] = true
				p.renderTextLine(i, line, &bgPixels[i])
			}
		}
	case 1:
		for i := 0; i < 2; i++ {
			if p.bgEnabled(i) {
				bgActive[i] = true
				p.renderTextLine(i, line, &bgPixels[i])
			}
		}
		if p.bgEnabled(2) {
			bgActive[2] = true
			p.renderAffineLine(2, line, &bgPixels[2])
		}
	case 2:
		for i := 2; i < 4; i++ {
			if p.bgEnabled(i) {
				bgActive[i] = true
				p.renderAffineLine(i, line, &bgPixels[i])
			}
		}
	case 3:
		if p.bgEnabled(2) {
			bgActive[2] = true
			p.renderMode3Line(line, &bgPixels[2])
		}
	case 4:
		if p.bgEnabled(2) {
			bgActive[2] = true
			p.renderMode4Line(line, &bgPixels[2])
		}
	case 5:
		if p.bgEnabled(2) {
			bgActive[2] = true
			p.renderMode5Line(line, &bgPixels[2])
		}
	default:
		if p.Logger != nil {
			p.Logger.LogPPUf(debug.LogLevelWarning, "invalid BG mode %d selected, all backgrounds disabled", mode)
		}
	}
	if mode == 1 || mode == 2 {
		for i := 2; i < 4; i++ {
			p.BG[i].RefX += int32(p.BG[i].PB)
			p.BG[i].RefY += int32(p.BG[i].PD)
		}
	}

	var objPixels [ScreenWidth]pixelInfo
	var objWindowMask [ScreenWidth]bool
	if p.objEnabled() {
		p.renderSpriteLine(line, &objPixels, &objWindowMask)
	}

	backdrop := p.bgPaletteEntry(0)

	for x := 0; x < ScreenWidth; x++ {
		sel := p.windowSelection(x, line, objWindowMask[x])

		var candidates []pixelInfo
		for i := 0; i < 4; i++ {
			if bgActive[i] && sel.bg[i] && !bgPixels[i][x].transparent {
				candidates = append(candidates, bgPixels[i][x])
			}
		}
		if p.objEnabled() && sel.obj && !objPixels[x].transparent {
			candidates = append(candidates, objPixels[x])
		}

		top, second, haveSecond := pickTop(candidates)

		out := backdrop
		if top != nil {
			out = top.color
		}
		if sel.effect {
			out = p.applyBlend(top, second, haveSecond, backdrop)
		}
		p.back[line][x] = out
	}
}

// pickTop returns the highest-priority (lowest number, ties broken by
// layer index — OBJ and lower BG indices win) pixel and the runner-up, for
// use by alpha blending's two-target model.
func pickTop(candidates []pixelInfo) (top, second *pixelInfo, haveSecond bool) {
	if len(candidates) == 0 {
		return nil, nil, false
	}
	bestI := 0
	for i := 1; i < len(candidates); i++ {
		if higher(candidates[i], candidates[bestI]) {
			bestI = i
		}
	}
	top = &candidates[bestI]
	secondI := -1
	for i := range candidates {
		if i == bestI {
			continue
		}
		if secondI == -1 || higher(candidates[i], candidates[secondI]) {
			secondI = i
		}
	}
	if secondI >= 0 {
		second = &candidates[secondI]
		haveSecond = true
	}
	return top, second, haveSecond
}

func higher(a, b pixelInfo) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if (a.layer == 4) != (b.layer == 4) {
		return a.layer == 4
	}
	return a.layer < b.layer
}

const (
	effectNone = iota
	effectAlpha
	effectBrighten
	effectDarken
)

func (p *PPU) effectMode() int       { return int(bits.Range(p.BldCnt, 6, 7)) }
func (p *PPU) firstTargetMask() uint { return uint(bits.Range(p.BldCnt, 0, 5)) }
func (p *PPU) secondTargetMask() uint { return uint(bits.Range(p.BldCnt, 8, 13)) }

func layerMaskBit(layer int) uint {
	if layer == 4 {
		return 1 << 4
	}
	return 1 << uint(layer)
}

// applyBlend applies the selected color special effect to the already
// priority-resolved top (and, for alpha blending, second) pixel.
func (p *PPU) applyBlend(top, second *pixelInfo, haveSecond bool, backdrop Rgb555) Rgb555 {
	mode := p.effectMode()
	if top == nil {
		return backdrop
	}
	if top.semiTransparent && haveSecond {
		return p.blendAlpha(top.color, pickColor(second, backdrop))
	}
	if mode == effectNone {
		return top.color
	}
	if p.firstTargetMask()&layerMaskBit(top.layer) == 0 {
		return top.color
	}
	switch mode {
	case effectAlpha:
		if !haveSecond {
			return top.color
		}
		if p.secondTargetMask()&layerMaskBit(second.layer) == 0 {
			return top.color
		}
		return p.blendAlpha(top.color, second.color)
	case effectBrighten:
		return p.blendBrighten(top.color)
	case effectDarken:
		return p.blendDarken(top.color)
	}
	return top.color
}

func pickColor(p *pixelInfo, backdrop Rgb555) Rgb555 {
	if p == nil {
		return backdrop
	}
	return p.color
}

func (p *PPU) blendAlpha(a, b Rgb555) Rgb555 {
	eva := int(bits.Range(p.BldAlpha, 0, 4))
	evb := int(bits.Range(p.BldAlpha, 8, 12))
	if eva > 16 {
		eva = 16
	}
	if evb > 16 {
		evb = 16
	}
	blend := func(ca, cb uint8) uint8 {
		v := (int(ca)*eva + int(cb)*evb) / 16
		if v > 31 {
			v = 31
		}
		return uint8(v)
	}
	ra, ga, ba := splitRGB(a)
	rb, gb, bb := splitRGB(b)
	return joinRGB(blend(ra, rb), blend(ga, gb), blend(ba, bb))
}

func (p *PPU) blendBrighten(c Rgb555) Rgb555 {
	evy := int(bits.Range(p.BldY, 0, 4))
	if evy > 16 {
		evy = 16
	}
	r, g, b := splitRGB(c)
	up := func(ch uint8) uint8 {
		v := int(ch) + (31-int(ch))*evy/16
		if v > 31 {
			v = 31
		}
		return uint8(v)
	}
	return joinRGB(up(r), up(g), up(b))
}

func (p *PPU) blendDarken(c Rgb555) Rgb555 {
	evy := int(bits.Range(p.BldY, 0, 4))
	if evy > 16 {
		evy = 16
	}
	r, g, b := splitRGB(c)
	down := func(ch uint8) uint8 {
		v := int(ch) - int(ch)*evy/16
		if v < 0 {
			v = 0
		}
		return uint8(v)
	}
	return joinRGB(down(r), down(g), down(b))
}

func splitRGB(c Rgb555) (r, g, b uint8) {
	return uint8(c & 0x1F), uint8((c >> 5) & 0x1F), uint8((c >> 10) & 0x1F)
}

func joinRGB(r, g, b uint8) Rgb555 {
	return Rgb555(uint16(r) | uint16(g)<<5 | uint16(b)<<10)
}
