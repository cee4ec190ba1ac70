package ppu

import "gba-core/internal/bits"

func (p *PPU) bgMosaicSize() (h, v int) {
	return int(bits.Range(p.Mosaic, 0, 3)) + 1, int(bits.Range(p.Mosaic, 4, 7)) + 1
}

func (p *PPU) objMosaicSize() (h, v int) {
	return int(bits.Range(p.Mosaic, 8, 11)) + 1, int(bits.Range(p.Mosaic, 12, 15)) + 1
}

// renderTextLine fills out with one scanline of a mode 0/1 tiled
// background, following the map-block offset scheme of a text layer: the
// screen-size field selects how many 32x32-tile, 2KiB map blocks make up
// the layer and where the second/third/fourth block starts.
func (p *PPU) renderTextLine(index int, line int, out *[ScreenWidth]pixelInfo) {
	l := &p.BG[index]
	priority := l.priority()
	charBase := l.charBaseBlock() * 0x4000
	screenBase := l.screenBaseBlock()
	size := l.screenSize()
	bpp8 := l.bpp8()

	worldY := int(line) + int(l.VOffset)
	if l.mosaic() {
		_, mv := p.bgMosaicSize()
		worldY -= worldY % mv
	}

	for x := 0; x < ScreenWidth; x++ {
		worldX := x + int(l.HOffset)
		wx := worldX
		if l.mosaic() {
			mh, _ := p.bgMosaicSize()
			wx -= wx % mh
		}

		tileX := (wx / 8) % 64
		tileY := (worldY / 8) % 64
		block := screenBase
		switch size {
		case 1:
			if tileX >= 32 {
				block++
				tileX -= 32
			}
		case 2:
			if tileY >= 32 {
				block++
				tileY -= 32
			}
		case 3:
			if tileX >= 32 {
				block++
				tileX -= 32
			}
			if tileY >= 32 {
				block += 2
				tileY -= 32
			}
		}
		mapAddr := block*0x800 + (tileY*32+tileX)*2
		entry := uint16(p.VRAM[mapAddr]) | uint16(p.VRAM[mapAddr+1])<<8

		tileIndex := int(bits.Range(entry, 0, 9))
		flipH := bits.Bit(entry, 10)
		flipV := bits.Bit(entry, 11)
		palBank := int(bits.Range(entry, 12, 15))

		px := wx % 8
		py := worldY % 8
		if flipH {
			px = 7 - px
		}
		if flipV {
			py = 7 - py
		}

		var colorIndex int
		var paletteOffset int
		if bpp8 {
			tileSize := 64
			addr := charBase + tileIndex*tileSize + py*8 + px
			colorIndex = int(p.VRAM[addr&0x1FFFF])
		} else {
			tileSize := 32
			addr := charBase + tileIndex*tileSize + (py*8+px)/2
			b := p.VRAM[addr&0x1FFFF]
			if px%2 == 0 {
				colorIndex = int(b & 0xF)
			} else {
				colorIndex = int(b >> 4)
			}
			paletteOffset = palBank * 16
		}

		pix := &out[x]
		pix.priority = priority
		pix.layer = index
		if colorIndex == 0 {
			pix.transparent = true
			continue
		}
		pix.transparent = false
		pix.color = p.bgPaletteEntry(paletteOffset + colorIndex)
	}
}

// renderAffineLine fills out with one scanline of a mode 1/2 rotation-
// scaling background, sampling the tilemap through the layer's 2x2 affine
// matrix applied to its 20.8 fixed-point reference point.
func (p *PPU) renderAffineLine(index int, line int, out *[ScreenWidth]pixelInfo) {
	l := &p.BG[index]
	priority := l.priority()
	charBase := l.charBaseBlock() * 0x4000
	screenBase := l.screenBaseBlock() * 0x800
	sizeTiles := [4]int{16, 32, 64, 128}[l.screenSize()]
	sizePixels := sizeTiles * 8
	wrap := l.wraparound()

	refX := l.RefX
	refY := l.RefY

	for x := 0; x < ScreenWidth; x++ {
		dx := int32(x)
		fx := refX + int32(l.PA)*dx
		fy := refY + int32(l.PC)*dx

		tx := int(fx >> 8)
		ty := int(fy >> 8)

		pix := &out[x]
		pix.priority = priority
		pix.layer = index

		if tx < 0 || ty < 0 || tx >= sizePixels || ty >= sizePixels {
			if !wrap {
				pix.transparent = true
				continue
			}
			tx = ((tx % sizePixels) + sizePixels) % sizePixels
			ty = ((ty % sizePixels) + sizePixels) % sizePixels
		}

		tileX := tx / 8
		tileY := ty / 8
		mapAddr := screenBase + tileY*sizeTiles + tileX
		tileIndex := int(p.VRAM[mapAddr&0x1FFFF])

		px := tx % 8
		py := ty % 8
		addr := charBase + tileIndex*64 + py*8 + px
		colorIndex := int(p.VRAM[addr&0x1FFFF])
		if colorIndex == 0 {
			pix.transparent = true
			continue
		}
		pix.transparent = false
		pix.color = p.bgPaletteEntry(colorIndex)
	}
}

// renderMode3Line renders the mode 3 full-resolution direct-color bitmap:
// VRAM holds one RGB555 value per pixel, no tiles or palette involved.
func (p *PPU) renderMode3Line(line int, out *[ScreenWidth]pixelInfo) {
	for x := 0; x < ScreenWidth; x++ {
		addr := (line*ScreenWidth + x) * 2
		color := Rgb555(uint16(p.VRAM[addr]) | uint16(p.VRAM[addr+1])<<8)
		out[x] = pixelInfo{color: color, priority: p.BG[2].priority(), layer: 2}
	}
}

// renderMode4Line renders the mode 4 full-resolution paletted bitmap with
// two swappable frames at VRAM 0x0000/0xA000.
func (p *PPU) renderMode4Line(line int, out *[ScreenWidth]pixelInfo) {
	base := 0
	if p.frameSelect() == 1 {
		base = 0xA000
	}
	for x := 0; x < ScreenWidth; x++ {
		idx := int(p.VRAM[base+line*ScreenWidth+x])
		pix := &out[x]
		pix.priority = p.BG[2].priority()
		pix.layer = 2
		if idx == 0 {
			pix.transparent = true
			continue
		}
		pix.color = p.bgPaletteEntry(idx)
	}
}

// renderMode5Line renders the mode 5 reduced-resolution (160x128)
// direct-color bitmap, transparent outside its bounded region.
func (p *PPU) renderMode5Line(line int, out *[ScreenWidth]pixelInfo) {
	const w, h = 160, 128
	base := 0
	if p.frameSelect() == 1 {
		base = 0xA000
	}
	for x := 0; x < ScreenWidth; x++ {
		pix := &out[x]
		pix.priority = p.BG[2].priority()
		pix.layer = 2
		if x >= w || line >= h {
			pix.transparent = true
			continue
		}
		addr := base + (line*w+x)*2
		pix.color = Rgb555(uint16(p.VRAM[addr]) | uint16(p.VRAM[addr+1])<<8)
	}
}
