package ppu

import (
	"gba-core/internal/bits"
	"gba-core/internal/debug"
)

const (
	objTileDataBase = 0x10000
	oamEntrySize    = 8
	numSprites      = 128
)

var shapeSize = [3][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},    // square
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},    // horizontal
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},    // vertical
}

type oamEntry struct {
	attr0, attr1, attr2 uint16
}

func (p *PPU) readOAMEntry(n int) oamEntry {
	base := n * oamEntrySize
	return oamEntry{
		attr0: uint16(p.OAM[base]) | uint16(p.OAM[base+1])<<8,
		attr1: uint16(p.OAM[base+2]) | uint16(p.OAM[base+3])<<8,
		attr2: uint16(p.OAM[base+4]) | uint16(p.OAM[base+5])<<8,
	}
}

func (p *PPU) readAffineParams(group int) (a, b, c, d int16) {
	get := func(entry int) int16 {
		base := entry*oamEntrySize + 6
		return int16(uint16(p.OAM[base]) | uint16(p.OAM[base+1])<<8)
	}
	return get(group*4 + 0), get(group*4 + 1), get(group*4 + 2), get(group*4 + 3)
}

// renderSpriteLine walks all 128 OAM entries and fills out with the
// visible sprite pixel (if any) at each x on this scanline, plus a mask of
// which x positions are covered by an OBJ-window-mode sprite.
func (p *PPU) renderSpriteLine(line int, out *[ScreenWidth]pixelInfo, objWindow *[ScreenWidth]bool) {
	for x := range out {
		out[x].transparent = true
	}

	mh, mv := p.objMosaicSize()

	for n := 0; n < numSprites; n++ {
		e := p.readOAMEntry(n)

		rotScale := bits.Bit(e.attr0, 8)
		if !rotScale && bits.Bit(e.attr0, 9) {
			continue // disabled (non-affine "double size" bit reused as disable)
		}
		doubleSize := rotScale && bits.Bit(e.attr0, 9)

		shape := int(bits.Range(e.attr0, 14, 15))
		if shape == 3 {
			if p.Logger != nil {
				p.Logger.LogPPUf(debug.LogLevelWarning, "sprite %d uses prohibited shape/size combination, rendering disabled", n)
			}
			continue // prohibited shape
		}
		size := int(bits.Range(e.attr1, 14, 15))
		w, h := shapeSize[shape][size][0], shapeSize[shape][size][1]

		rawY := int(bits.Range(e.attr0, 0, 7))
		y := rawY
		if y >= 160 {
			y -= 256
		}
		rawX := int(bits.Range(e.attr1, 0, 8))
		x0 := rawX
		if x0 >= 256 {
			x0 -= 512
		}

		boxW, boxH := w, h
		if doubleSize {
			boxW, boxH = w*2, h*2
		}
		if line < y || line >= y+boxH {
			continue
		}

		mode := int(bits.Range(e.attr0, 10, 11))
		if mode == 3 {
			continue
		}
		mosaic := bits.Bit(e.attr0, 12)
		bpp8 := bits.Bit(e.attr0, 13)
		priority := int(bits.Range(e.attr2, 10, 11))
		palBank := int(bits.Range(e.attr2, 12, 15))
		tileIndex := int(bits.Range(e.attr2, 0, 9))

		screenY := line
		if mosaic {
			screenY -= (screenY - y) % mv
		}

		var pa, pb, pc, pd int16
		if rotScale {
			group := int(bits.Range(e.attr1, 9, 13))
			pa, pb, pc, pd = p.readAffineParams(group)
		} else {
			pa, pd = 256, 256
		}

		centerX, centerY := boxW/2, boxH/2
		flipH := !rotScale && bits.Bit(e.attr1, 12)
		flipV := !rotScale && bits.Bit(e.attr1, 13)

		for sx := 0; sx < boxW; sx++ {
			screenX := x0 + sx
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			sampleX := sx
			if mosaic {
				sampleX -= (sx) % mh
			}

			relX := sampleX - centerX
			relY := screenY - y - centerY

			var texX, texY int
			if rotScale {
				fx := int32(pa)*int32(relX) + int32(pb)*int32(relY)
				fy := int32(pc)*int32(relX) + int32(pd)*int32(relY)
				texX = int(fx>>8) + w/2
				texY = int(fy>>8) + h/2
				if texX < 0 || texX >= w || texY < 0 || texY >= h {
					continue
				}
			} else {
				texX = relX + centerX
				texY = relY + centerY
				if flipH {
					texX = w - 1 - texX
				}
				if flipV {
					texY = h - 1 - texY
				}
			}

			colorIndex, transparent := p.sampleObjTile(tileIndex, texX, texY, w, bpp8, palBank)
			if transparent {
				continue
			}

			if mode == 2 {
				objWindow[screenX] = true
				continue
			}

			cur := &out[screenX]
			if !cur.transparent && cur.priority <= priority {
				continue
			}
			cur.transparent = false
			cur.priority = priority
			cur.layer = 4
			cur.semiTransparent = mode == 1
			cur.color = colorIndex
		}
	}
}

func (p *PPU) sampleObjTile(tileIndex, x, y, spriteWidthPx int, bpp8 bool, palBank int) (color Rgb555, transparent bool) {
	tilesWide := spriteWidthPx / 8
	tileCol := x / 8
	tileRow := y / 8
	px, py := x%8, y%8

	if bpp8 {
		tileIndex &^= 1 // 8bpp tiles are indexed in pairs
		var tileOffset int
		if p.objVRAM1D() {
			tileOffset = tileIndex + tileRow*tilesWide*2 + tileCol*2
		} else {
			tileOffset = tileIndex + tileRow*32 + tileCol*2
		}
		addr := objTileDataBase + tileOffset*32 + py*8 + px
		idx := int(p.VRAM[addr&0x1FFFF])
		if idx == 0 {
			return 0, true
		}
		return p.objPaletteEntry(idx), false
	}

	var tileOffset int
	if p.objVRAM1D() {
		tileOffset = tileIndex + tileRow*tilesWide + tileCol
	} else {
		tileOffset = tileIndex + tileRow*32 + tileCol
	}
	addr := objTileDataBase + tileOffset*32 + (py*8+px)/2
	b := p.VRAM[addr&0x1FFFF]
	var nib int
	if px%2 == 0 {
		nib = int(b & 0xF)
	} else {
		nib = int(b >> 4)
	}
	if nib == 0 {
		return 0, true
	}
	return p.objPaletteEntry(palBank*16 + nib), false
}
