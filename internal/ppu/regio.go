package ppu

// Register offsets within the LCD I/O block, relative to 0x0400_0000.
const (
	RegDISPCNT  = 0x000
	RegDISPSTAT = 0x004
	RegVCOUNT   = 0x006
	RegBG0CNT   = 0x008
	RegBG1CNT   = 0x00A
	RegBG2CNT   = 0x00C
	RegBG3CNT   = 0x00E
	RegBG0HOFS  = 0x010
	RegBG0VOFS  = 0x012
	RegBG1HOFS  = 0x014
	RegBG1VOFS  = 0x016
	RegBG2HOFS  = 0x018
	RegBG2VOFS  = 0x01A
	RegBG3HOFS  = 0x01C
	RegBG3VOFS  = 0x01E
	RegBG2PA    = 0x020
	RegBG2PB    = 0x022
	RegBG2PC    = 0x024
	RegBG2PD    = 0x026
	RegBG2X     = 0x028
	RegBG2Y     = 0x02C
	RegBG3PA    = 0x030
	RegBG3PB    = 0x032
	RegBG3PC    = 0x034
	RegBG3PD    = 0x036
	RegBG3X     = 0x038
	RegBG3Y     = 0x03C
	RegWIN0H    = 0x040
	RegWIN1H    = 0x042
	RegWIN0V    = 0x044
	RegWIN1V    = 0x046
	RegWININ    = 0x048
	RegWINOUT   = 0x04A
	RegMOSAIC   = 0x04C
	RegBLDCNT   = 0x050
	RegBLDALPHA = 0x052
	RegBLDY     = 0x054
)

// ReadIO16 reads one 16-bit LCD control register.
func (p *PPU) ReadIO16(offset uint32) uint16 {
	switch offset {
	case RegDISPCNT:
		return p.DISPCNT
	case RegDISPSTAT:
		return p.DISPSTAT
	case RegVCOUNT:
		return p.vcount
	case RegBG0CNT:
		return p.BG[0].Control
	case RegBG1CNT:
		return p.BG[1].Control
	case RegBG2CNT:
		return p.BG[2].Control
	case RegBG3CNT:
		return p.BG[3].Control
	case RegWININ:
		return uint16(p.Win[0].Enable) | uint16(p.Win[1].Enable)<<8
	case RegWINOUT:
		return uint16(p.WinOutEnable) | uint16(p.ObjWinEnable)<<8
	case RegMOSAIC:
		return p.Mosaic
	case RegBLDCNT:
		return p.BldCnt
	case RegBLDALPHA:
		return p.BldAlpha
	case RegBLDY:
		return p.BldY
	default:
		return 0 // write-only scroll/affine/window-edge registers read as 0
	}
}

// WriteIO16 writes one 16-bit LCD control register.
func (p *PPU) WriteIO16(offset uint32, v uint16) {
	switch offset {
	case RegDISPCNT:
		p.DISPCNT = v
	case RegDISPSTAT:
		// VBlank/HBlank/VCounter flags (bits 0-2) are read-only.
		p.DISPSTAT = (p.DISPSTAT & 0x7) | (v &^ 0x7)
	case RegBG0CNT:
		p.BG[0].Control = v
	case RegBG1CNT:
		p.BG[1].Control = v
	case RegBG2CNT:
		p.BG[2].Control = v
	case RegBG3CNT:
		p.BG[3].Control = v
	case RegBG0HOFS:
		p.BG[0].HOffset = v
	case RegBG0VOFS:
		p.BG[0].VOffset = v
	case RegBG1HOFS:
		p.BG[1].HOffset = v
	case RegBG1VOFS:
		p.BG[1].VOffset = v
	case RegBG2HOFS:
		p.BG[2].HOffset = v
	case RegBG2VOFS:
		p.BG[2].VOffset = v
	case RegBG3HOFS:
		p.BG[3].HOffset = v
	case RegBG3VOFS:
		p.BG[3].VOffset = v
	case RegBG2PA:
		p.BG[2].PA = int16(v)
	case RegBG2PB:
		p.BG[2].PB = int16(v)
	case RegBG2PC:
		p.BG[2].PC = int16(v)
	case RegBG2PD:
		p.BG[2].PD = int16(v)
	case RegBG3PA:
		p.BG[3].PA = int16(v)
	case RegBG3PB:
		p.BG[3].PB = int16(v)
	case RegBG3PC:
		p.BG[3].PC = int16(v)
	case RegBG3PD:
		p.BG[3].PD = int16(v)
	case RegWIN0H:
		p.Win[0].Left, p.Win[0].Right = byte(v>>8), byte(v)
	case RegWIN1H:
		p.Win[1].Left, p.Win[1].Right = byte(v>>8), byte(v)
	case RegWIN0V:
		p.Win[0].Top, p.Win[0].Bottom = byte(v>>8), byte(v)
	case RegWIN1V:
		p.Win[1].Top, p.Win[1].Bottom = byte(v>>8), byte(v)
	case RegWININ:
		p.Win[0].Enable = uint8(v) & 0x3F
		p.Win[1].Enable = uint8(v>>8) & 0x3F
	case RegWINOUT:
		p.WinOutEnable = uint8(v) & 0x3F
		p.ObjWinEnable = uint8(v>>8) & 0x3F
	case RegMOSAIC:
		p.Mosaic = v
	case RegBLDCNT:
		p.BldCnt = v
	case RegBLDALPHA:
		p.BldAlpha = v
	case RegBLDY:
		p.BldY = v
	}
}

// ReadIO32/WriteIO32 handle the 32-bit affine reference-point registers.
func (p *PPU) ReadIO32(offset uint32) uint32 {
	switch offset {
	case RegBG2X:
		return uint32(p.BG[2].RefX)
	case RegBG2Y:
		return uint32(p.BG[2].RefY)
	case RegBG3X:
		return uint32(p.BG[3].RefX)
	case RegBG3Y:
		return uint32(p.BG[3].RefY)
	default:
		return uint32(p.ReadIO16(offset)) | uint32(p.ReadIO16(offset+2))<<16
	}
}

func (p *PPU) WriteIO32(offset uint32, v uint32) {
	signExtend28 := func(v uint32) int32 {
		return int32(v<<4) >> 4
	}
	switch offset {
	case RegBG2X:
		p.BG[2].RefX = signExtend28(v)
	case RegBG2Y:
		p.BG[2].RefY = signExtend28(v)
	case RegBG3X:
		p.BG[3].RefX = signExtend28(v)
	case RegBG3Y:
		p.BG[3].RefY = signExtend28(v)
	default:
		p.WriteIO16(offset, uint16(v))
		p.WriteIO16(offset+2, uint16(v>>16))
	}
}
