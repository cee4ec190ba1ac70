package cpu

import (
	gbabits "gba-core/internal/bits"
	"math/bits"
)

// executeThumb decodes and runs one 16-bit Thumb-state instruction. The
// checks below are ordered from most to least specific bit-pattern so that
// formats sharing a common prefix (e.g. format1 and format2 both start with
// 000) are distinguished correctly.
func (c *CPU) executeThumb(instr uint16) {
	switch {
	case instr&0xF800 == 0x1800:
		c.thumbAddSub(instr)
	case instr&0xE000 == 0x0000:
		c.thumbMoveShifted(instr)
	case instr&0xE000 == 0x2000:
		c.thumbImmediate(instr)
	case instr&0xFC00 == 0x4000:
		c.thumbALU(instr)
	case instr&0xFC00 == 0x4400:
		c.thumbHiRegOps(instr)
	case instr&0xF800 == 0x4800:
		c.thumbPCRelLoad(instr)
	case instr&0xF200 == 0x5000:
		c.thumbLoadStoreReg(instr)
	case instr&0xF200 == 0x5200:
		c.thumbLoadStoreSigned(instr)
	case instr&0xE000 == 0x6000:
		c.thumbLoadStoreImm(instr)
	case instr&0xF000 == 0x8000:
		c.thumbLoadStoreHalf(instr)
	case instr&0xF000 == 0x9000:
		c.thumbSPRelLoadStore(instr)
	case instr&0xF000 == 0xA000:
		c.thumbLoadAddress(instr)
	case instr&0xFF00 == 0xB000:
		c.thumbAddSPOffset(instr)
	case instr&0xF600 == 0xB400:
		c.thumbPushPop(instr)
	case instr&0xF000 == 0xC000:
		c.thumbMultipleLoadStore(instr)
	case instr&0xFF00 == 0xDF00:
		c.thumbSWI(instr)
	case instr&0xF000 == 0xD000:
		c.thumbCondBranch(instr)
	case instr&0xF800 == 0xE000:
		c.thumbUncondBranch(instr)
	case instr&0xF000 == 0xF000:
		c.thumbLongBranchLink(instr)
	default:
		c.softwareException(ModeUndefined, vectorUndefined)
	}
}

// Format 1: LSL/LSR/ASR Rd, Rs, #offset5.
func (c *CPU) thumbMoveShifted(instr uint16) {
	op := (instr >> 11) & 0x3
	offset := uint32((instr >> 6) & 0x1F)
	rs := int((instr >> 3) & 0x7)
	rd := int(instr & 0x7)

	val := c.R(rs)
	var result uint32
	var carry bool
	switch op {
	case 0:
		result, carry = applyShift(shiftLSLType, val, offset, c.flagC(), true)
	case 1:
		result, carry = applyShift(shiftLSRType, val, offset, c.flagC(), true)
	default:
		result, carry = applyShift(shiftASRType, val, offset, c.flagC(), true)
	}
	c.SetR(rd, result)
	c.setNZ(result)
	c.setFlag(flagC, carry)
}

// Format 2: ADD/SUB Rd, Rs, Rn|#imm3.
func (c *CPU) thumbAddSub(instr uint16) {
	imm := instr&0x0400 != 0
	sub := instr&0x0200 != 0
	rnOrImm := uint32((instr >> 6) & 0x7)
	rs := int((instr >> 3) & 0x7)
	rd := int(instr & 0x7)

	var operand uint32
	if imm {
		operand = rnOrImm
	} else {
		operand = c.R(int(rnOrImm))
	}
	a := c.R(rs)
	var result uint32
	var carry, overflow bool
	if sub {
		result, carry, overflow = subWithFlags(a, operand)
	} else {
		result, carry, overflow = addWithFlags(a, operand)
	}
	c.SetR(rd, result)
	c.setNZ(result)
	c.setFlag(flagC, carry)
	c.setFlag(flagV, overflow)
}

// Format 3: MOV/CMP/ADD/SUB Rd, #imm8.
func (c *CPU) thumbImmediate(instr uint16) {
	op := (instr >> 11) & 0x3
	rd := int((instr >> 8) & 0x7)
	imm := uint32(instr & 0xFF)
	a := c.R(rd)

	switch op {
	case 0:
		c.SetR(rd, imm)
		c.setNZ(imm)
	case 1:
		result, carry, overflow := subWithFlags(a, imm)
		c.setNZ(result)
		c.setFlag(flagC, carry)
		c.setFlag(flagV, overflow)
	case 2:
		result, carry, overflow := addWithFlags(a, imm)
		c.SetR(rd, result)
		c.setNZ(result)
		c.setFlag(flagC, carry)
		c.setFlag(flagV, overflow)
	default:
		result, carry, overflow := subWithFlags(a, imm)
		c.SetR(rd, result)
		c.setNZ(result)
		c.setFlag(flagC, carry)
		c.setFlag(flagV, overflow)
	}
}

// Format 4: two-register ALU operations.
func (c *CPU) thumbALU(instr uint16) {
	op := (instr >> 6) & 0xF
	rs := int((instr >> 3) & 0x7)
	rd := int(instr & 0x7)
	a := c.R(rd)
	b := c.R(rs)

	var result uint32
	var carry, overflow bool
	writesRd := true

	switch op {
	case 0x0:
		result = a & b
	case 0x1:
		result = a ^ b
	case 0x2:
		result, carry = applyShift(shiftLSLType, a, b&0xFF, c.flagC(), false)
		c.setFlag(flagC, carry)
	case 0x3:
		result, carry = applyShift(shiftLSRType, a, b&0xFF, c.flagC(), false)
		c.setFlag(flagC, carry)
	case 0x4:
		result, carry = applyShift(shiftASRType, a, b&0xFF, c.flagC(), false)
		c.setFlag(flagC, carry)
	case 0x5:
		var ci uint64
		if c.flagC() {
			ci = 1
		}
		sum := uint64(a) + uint64(b) + ci
		result = uint32(sum)
		c.setFlag(flagC, sum > 0xFFFF_FFFF)
		c.setFlag(flagV, (a^result)&(b^result)&0x8000_0000 != 0)
	case 0x6:
		var ci uint64
		if c.flagC() {
			ci = 1
		}
		sum := uint64(a) + uint64(^b) + ci
		result = uint32(sum)
		c.setFlag(flagC, sum > 0xFFFF_FFFF)
		c.setFlag(flagV, (a^result)&(^b^result)&0x8000_0000 != 0)
	case 0x7:
		result, carry = applyShift(shiftRORType, a, b&0xFF, c.flagC(), false)
		c.setFlag(flagC, carry)
	case 0x8:
		result = a & b
		writesRd = false
	case 0x9: // NEG
		result, carry, overflow = subWithFlags(0, b)
		c.setFlag(flagC, carry)
		c.setFlag(flagV, overflow)
	case 0xA: // CMP
		result, carry, overflow = subWithFlags(a, b)
		c.setFlag(flagC, carry)
		c.setFlag(flagV, overflow)
		writesRd = false
	case 0xB: // CMN
		result, carry, overflow = addWithFlags(a, b)
		c.setFlag(flagC, carry)
		c.setFlag(flagV, overflow)
		writesRd = false
	case 0xC:
		result = a | b
	case 0xD:
		result = a * b
	case 0xE:
		result = a &^ b
	default: // MVN
		result = ^b
	}

	c.setNZ(result)
	if writesRd {
		c.SetR(rd, result)
	}
}

// Format 5: hi-register operations and branch/exchange.
func (c *CPU) thumbHiRegOps(instr uint16) {
	op := (instr >> 8) & 0x3
	h1 := instr&0x0080 != 0
	h2 := instr&0x0040 != 0
	rd := int(instr&0x7) + boolToInt(h1)*8
	rs := int((instr>>3)&0x7) + boolToInt(h2)*8

	switch op {
	case 0:
		c.SetR(rd, c.R(rd)+c.R(rs))
	case 1:
		result, carry, overflow := subWithFlags(c.R(rd), c.R(rs))
		c.setNZ(result)
		c.setFlag(flagC, carry)
		c.setFlag(flagV, overflow)
	case 2:
		c.SetR(rd, c.R(rs))
	default: // BX/BLX
		target := c.R(rs)
		thumb := target&1 != 0
		c.setFlag(flagT, thumb)
		if thumb {
			c.r[15] = target &^ 1
		} else {
			c.r[15] = target &^ 3
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Format 6: LDR Rd, [PC, #imm8*4].
func (c *CPU) thumbPCRelLoad(instr uint16) {
	rd := int((instr >> 8) & 0x7)
	imm := uint32(instr&0xFF) << 2
	base := (c.R(15) &^ 3) + imm
	c.SetR(rd, c.Bus.Read32(base))
}

// Format 7: load/store with register offset.
func (c *CPU) thumbLoadStoreReg(instr uint16) {
	l := instr&0x0800 != 0
	b := instr&0x0400 != 0
	ro := int((instr >> 6) & 0x7)
	rb := int((instr >> 3) & 0x7)
	rd := int(instr & 0x7)
	addr := c.R(rb) + c.R(ro)

	if l {
		if b {
			c.SetR(rd, uint32(c.Bus.Read8(addr)))
		} else {
			c.SetR(rd, c.readWordRotated(addr))
		}
	} else {
		if b {
			c.Bus.Write8(addr, uint8(c.R(rd)))
		} else {
			c.Bus.Write32(addr&^3, c.R(rd))
		}
	}
}

// Format 8: sign-extended byte/halfword load, halfword store.
func (c *CPU) thumbLoadStoreSigned(instr uint16) {
	hFlag := instr&0x0800 != 0
	sFlag := instr&0x0400 != 0
	ro := int((instr >> 6) & 0x7)
	rb := int((instr >> 3) & 0x7)
	rd := int(instr & 0x7)
	addr := c.R(rb) + c.R(ro)

	switch {
	case !sFlag && !hFlag:
		c.Bus.Write16(addr, uint16(c.R(rd)))
	case !sFlag && hFlag:
		c.SetR(rd, uint32(c.Bus.Read16(addr)))
	case sFlag && !hFlag:
		c.SetR(rd, uint32(gbabits.SignExtend(uint32(c.Bus.Read8(addr)), 8)))
	default:
		c.SetR(rd, uint32(gbabits.SignExtend(uint32(c.Bus.Read16(addr)), 16)))
	}
}

// Format 9: load/store with a 5-bit immediate offset (word offsets scaled by
// 4, byte offsets used verbatim).
func (c *CPU) thumbLoadStoreImm(instr uint16) {
	b := instr&0x1000 != 0
	l := instr&0x0800 != 0
	offset := uint32((instr >> 6) & 0x1F)
	rb := int((instr >> 3) & 0x7)
	rd := int(instr & 0x7)

	var addr uint32
	if b {
		addr = c.R(rb) + offset
	} else {
		addr = c.R(rb) + offset*4
	}

	if l {
		if b {
			c.SetR(rd, uint32(c.Bus.Read8(addr)))
		} else {
			c.SetR(rd, c.readWordRotated(addr))
		}
	} else {
		if b {
			c.Bus.Write8(addr, uint8(c.R(rd)))
		} else {
			c.Bus.Write32(addr&^3, c.R(rd))
		}
	}
}

// Format 10: halfword load/store with a 5-bit immediate offset scaled by 2.
func (c *CPU) thumbLoadStoreHalf(instr uint16) {
	l := instr&0x0800 != 0
	offset := uint32((instr>>6)&0x1F) * 2
	rb := int((instr >> 3) & 0x7)
	rd := int(instr & 0x7)
	addr := c.R(rb) + offset

	if l {
		c.SetR(rd, uint32(c.Bus.Read16(addr)))
	} else {
		c.Bus.Write16(addr, uint16(c.R(rd)))
	}
}

// Format 11: SP-relative load/store.
func (c *CPU) thumbSPRelLoadStore(instr uint16) {
	l := instr&0x0800 != 0
	rd := int((instr >> 8) & 0x7)
	imm := uint32(instr&0xFF) << 2
	addr := c.R(13) + imm

	if l {
		c.SetR(rd, c.readWordRotated(addr))
	} else {
		c.Bus.Write32(addr&^3, c.R(rd))
	}
}

// Format 12: ADD Rd, PC|SP, #imm8*4.
func (c *CPU) thumbLoadAddress(instr uint16) {
	sp := instr&0x0800 != 0
	rd := int((instr >> 8) & 0x7)
	imm := uint32(instr&0xFF) << 2

	var base uint32
	if sp {
		base = c.R(13)
	} else {
		base = c.R(15) &^ 3
	}
	c.SetR(rd, base+imm)
}

// Format 13: ADD/SUB SP, #imm7*4.
func (c *CPU) thumbAddSPOffset(instr uint16) {
	neg := instr&0x80 != 0
	imm := uint32(instr&0x7F) << 2
	if neg {
		c.r[13] -= imm
	} else {
		c.r[13] += imm
	}
}

// Format 14: PUSH/POP, optionally including LR (push) or PC (pop).
func (c *CPU) thumbPushPop(instr uint16) {
	l := instr&0x0800 != 0
	withR := instr&0x0100 != 0
	regList := uint32(instr & 0xFF)

	if l {
		for i := 0; i < 8; i++ {
			if regList&(1<<uint(i)) != 0 {
				c.SetR(i, c.Bus.Read32(c.r[13]))
				c.r[13] += 4
			}
		}
		if withR {
			c.r[15] = c.Bus.Read32(c.r[13]) &^ 1
			c.r[13] += 4
		}
		return
	}

	count := bits.OnesCount32(regList)
	if withR {
		count++
	}
	addr := c.r[13] - uint32(count)*4
	c.r[13] = addr
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) != 0 {
			c.Bus.Write32(addr, c.r[i])
			addr += 4
		}
	}
	if withR {
		c.Bus.Write32(addr, c.r[14])
	}
}

// Format 15: STMIA/LDMIA Rb!, {Rlist}. The base register is written back,
// except for a load whose list includes it (the loaded value is kept).
func (c *CPU) thumbMultipleLoadStore(instr uint16) {
	l := instr&0x0800 != 0
	rb := int((instr >> 8) & 0x7)
	regList := uint32(instr & 0xFF)
	addr := c.r[rb]

	if regList == 0 {
		if l {
			c.SetR(15, c.Bus.Read32(addr))
		} else {
			c.Bus.Write32(addr, c.r[15]+2)
		}
		c.r[rb] = addr + 0x40
		return
	}

	rbInList := regList&(1<<uint(rb)) != 0
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) == 0 {
			continue
		}
		if l {
			c.r[i] = c.Bus.Read32(addr)
		} else {
			c.Bus.Write32(addr, c.r[i])
		}
		addr += 4
	}
	if !(l && rbInList) {
		c.r[rb] = addr
	}
}

// Format 16: conditional branch, PC-relative signed 8-bit offset*2.
func (c *CPU) thumbCondBranch(instr uint16) {
	cond := uint32((instr >> 8) & 0xF)
	if !c.evalCondition(cond) {
		return
	}
	offset := gbabits.SignExtend(uint32(instr&0xFF), 8)
	c.r[15] = uint32(int64(c.R(15)) + int64(offset)*2)
}

// Format 17: SWI, serviced the same HLE way as the ARM-state path.
func (c *CPU) thumbSWI(instr uint16) {
	c.handleSWI(uint32(instr & 0xFF))
}

// Format 18: unconditional branch, signed 11-bit offset*2.
func (c *CPU) thumbUncondBranch(instr uint16) {
	offset := gbabits.SignExtend(uint32(instr&0x7FF), 11)
	c.r[15] = uint32(int64(c.R(15)) + int64(offset)*2)
}

// Format 19: BL, split across two 16-bit instructions (H=0 sets up LR with
// the high 11 bits of the offset, H=1 computes the target from LR and the
// low 11 bits and leaves LR pointing just past the second halfword).
func (c *CPU) thumbLongBranchLink(instr uint16) {
	h := instr&0x0800 != 0
	offset11 := uint32(instr & 0x7FF)

	if !h {
		signedOffset := gbabits.SignExtend(offset11, 11)
		c.r[14] = uint32(int64(c.R(15)) + int64(signedOffset)<<12)
		return
	}
	next := c.r[15]
	c.r[15] = (c.r[14] + (offset11 << 1)) &^ 1
	c.r[14] = next | 1
}
