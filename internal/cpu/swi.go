package cpu

import "gba-core/internal/debug"

// BIOS call numbers this core emulates at the high level (HLE) instead of
// executing real BIOS machine code, since no BIOS ROM image is bundled.
// ARM7TDMI has no integer divide instruction; software is expected to call
// through these SWI numbers instead, so a plausible emulator must answer
// them directly.
const (
	swiSoftReset       = 0x00
	swiRegisterRamReset = 0x01
	swiHalt            = 0x02
	swiVBlankIntrWait  = 0x05
	swiDiv             = 0x06
	swiDivArm          = 0x07
	swiSqrt            = 0x08
	swiCpuSet          = 0x0B
	swiCpuFastSet      = 0x0C
)

// handleSWI services a software interrupt via HLE rather than a real BIOS
// vector jump; comment is the 8/24-bit immediate encoded in the trapping
// SWI instruction (only the low byte is a meaningful call number on the
// retail BIOS, which is all software actually relies on).
func (c *CPU) handleSWI(comment uint32) {
	switch uint8(comment) {
	case swiDiv:
		c.biosDiv(int32(c.r[0]), int32(c.r[1]))
	case swiDivArm:
		c.biosDiv(int32(c.r[1]), int32(c.r[0]))
	case swiSqrt:
		c.r[0] = isqrt(c.r[0])
	case swiHalt, swiVBlankIntrWait:
		c.Halt()
	case swiCpuSet:
		c.biosCpuSet(false)
	case swiCpuFastSet:
		c.biosCpuSet(true)
	case swiSoftReset, swiRegisterRamReset:
		// Nothing externally observable to reset at this layer; the
		// driver owns cartridge/save lifecycle.
	default:
		if c.Logger != nil {
			c.Logger.LogCPUf(debug.LogLevelWarning, "unhandled SWI %#02x", uint8(comment))
		}
	}
}

func (c *CPU) biosDiv(number, denom int32) {
	if denom == 0 {
		c.r[0], c.r[1], c.r[3] = 0, uint32(number), 0
		return
	}
	q := number / denom
	r := number % denom
	c.r[0] = uint32(q)
	c.r[1] = uint32(r)
	if q < 0 {
		c.r[3] = uint32(-q)
	} else {
		c.r[3] = uint32(q)
	}
}

func isqrt(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}

// biosCpuSet implements SWI 0x0B/0x0C: r0=src, r1=dst, r2=length/control.
// Bit 26 of r2 selects 32-bit transfers (otherwise 16-bit); bit 24 selects
// fixed-source fill instead of copy.
func (c *CPU) biosCpuSet(fast bool) {
	src, dst, ctrl := c.r[0], c.r[1], c.r[2]
	count := ctrl & 0x1F_FFFF
	fixedSrc := ctrl&(1<<24) != 0
	words32 := ctrl&(1<<26) != 0 || fast

	if words32 {
		for i := uint32(0); i < count; i++ {
			v := c.Bus.Read32(src)
			c.Bus.Write32(dst, v)
			dst += 4
			if !fixedSrc {
				src += 4
			}
		}
		return
	}
	for i := uint32(0); i < count; i++ {
		v := c.Bus.Read16(src)
		c.Bus.Write16(dst, v)
		dst += 2
		if !fixedSrc {
			src += 2
		}
	}
}
