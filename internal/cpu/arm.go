package cpu

import (
	gbabits "gba-core/internal/bits"
	"math/bits"
)

// executeARM decodes and runs one 32-bit ARM-state instruction, dispatching
// on the top three bits (27:25) of the standard ARM encoding tree and then
// the distinguishing bits within the 000-group shared by data processing,
// multiply, single-swap, halfword transfer, and branch-exchange.
func (c *CPU) executeARM(instr uint32) {
	top3 := (instr >> 25) & 0x7
	switch top3 {
	case 0b000, 0b001:
		c.armDataProcessingGroup(instr, top3 == 0b001)
	case 0b010:
		c.armSingleDataTransfer(instr, false)
	case 0b011:
		if instr&0x10 != 0 {
			c.softwareException(ModeUndefined, vectorUndefined)
		} else {
			c.armSingleDataTransfer(instr, true)
		}
	case 0b100:
		c.armBlockDataTransfer(instr)
	case 0b101:
		c.armBranch(instr)
	case 0b110:
		c.softwareException(ModeUndefined, vectorUndefined) // coprocessor transfer, unused on GBA
	case 0b111:
		if instr&0x0100_0000 != 0 {
			c.handleSWI(instr & 0x00FF_FFFF)
		} else {
			c.softwareException(ModeUndefined, vectorUndefined) // coprocessor data op, unused on GBA
		}
	}
}

func (c *CPU) armDataProcessingGroup(instr uint32, immediate bool) {
	if !immediate {
		if instr&0x0FFF_FFF0 == 0x012F_FF10 {
			c.armBX(instr, false)
			return
		}
		if instr&0x0FFF_FFF0 == 0x012F_FF30 {
			c.armBX(instr, true)
			return
		}
		if instr&0x0FC0_00F0 == 0x0000_0090 {
			c.armMultiply(instr)
			return
		}
		if instr&0x0F80_00F0 == 0x0080_0090 {
			c.armMultiplyLong(instr)
			return
		}
		if instr&0x0FB0_0FF0 == 0x0100_0090 {
			c.armSwap(instr)
			return
		}
		if instr&0x90 == 0x90 && instr&0x60 != 0 {
			c.armHalfwordTransfer(instr, instr&0x0040_0000 != 0)
			return
		}
	}

	opcode := (instr >> 21) & 0xF
	sBit := instr&0x0010_0000 != 0
	if !sBit && opcode >= 8 && opcode <= 11 {
		c.armPSRTransfer(instr, immediate)
		return
	}
	c.armDataProcessing(instr, immediate)
}

func (c *CPU) armBX(instr uint32, link bool) {
	rn := int(instr & 0xF)
	target := c.R(rn)
	thumb := target&1 != 0
	if link {
		c.r[14] = c.r[15]
	}
	c.setFlag(flagT, thumb)
	if thumb {
		c.r[15] = target &^ 1
	} else {
		c.r[15] = target &^ 3
	}
}

func (c *CPU) operand2ARM(instr uint32, immediate bool) (uint32, bool) {
	if immediate {
		imm8 := instr & 0xFF
		rot := ((instr >> 8) & 0xF) * 2
		return shiftROR(imm8, rot, c.flagC())
	}
	rm := int(instr & 0xF)
	st := shiftType((instr >> 5) & 0x3)
	if instr&0x10 != 0 {
		rs := int((instr >> 8) & 0xF)
		amount := c.R(rs) & 0xFF
		return applyShift(st, c.R(rm), amount, c.flagC(), false)
	}
	shiftAmt := (instr >> 7) & 0x1F
	return applyShift(st, c.R(rm), shiftAmt, c.flagC(), true)
}

func addWithFlags(a, b uint32) (result uint32, carry, overflow bool) {
	sum := uint64(a) + uint64(b)
	result = uint32(sum)
	carry = sum > 0xFFFF_FFFF
	overflow = (a^result)&(b^result)&0x8000_0000 != 0
	return
}

func subWithFlags(a, b uint32) (result uint32, carry, overflow bool) {
	result = a - b
	carry = a >= b
	overflow = (a^b)&(a^result)&0x8000_0000 != 0
	return
}

func (c *CPU) armDataProcessing(instr uint32, immediate bool) {
	opcode := (instr >> 21) & 0xF
	sBit := instr&0x0010_0000 != 0
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)

	op2, shifterCarry := c.operand2ARM(instr, immediate)
	opnd1 := c.R(rn)

	var result uint32
	var carry, overflow bool
	isLogical := false
	writesRd := true

	switch opcode {
	case 0x0: // AND
		result, carry, isLogical = opnd1&op2, shifterCarry, true
	case 0x1: // EOR
		result, carry, isLogical = opnd1^op2, shifterCarry, true
	case 0x2: // SUB
		result, carry, overflow = subWithFlags(opnd1, op2)
	case 0x3: // RSB
		result, carry, overflow = subWithFlags(op2, opnd1)
	case 0x4: // ADD
		result, carry, overflow = addWithFlags(opnd1, op2)
	case 0x5: // ADC: opnd1 + op2 + C
		var ci uint64
		if c.flagC() {
			ci = 1
		}
		sum := uint64(opnd1) + uint64(op2) + ci
		result = uint32(sum)
		carry = sum > 0xFFFF_FFFF
		overflow = (opnd1^result)&(op2^result)&0x8000_0000 != 0
	case 0x6: // SBC: opnd1 - op2 - !C, via opnd1 + ^op2 + C
		var ci uint64
		if c.flagC() {
			ci = 1
		}
		sum := uint64(opnd1) + uint64(^op2) + ci
		result = uint32(sum)
		carry = sum > 0xFFFF_FFFF
		overflow = (opnd1^result)&(^op2^result)&0x8000_0000 != 0
	case 0x7: // RSC: op2 - opnd1 - !C, via op2 + ^opnd1 + C
		var ci uint64
		if c.flagC() {
			ci = 1
		}
		sum := uint64(op2) + uint64(^opnd1) + ci
		result = uint32(sum)
		carry = sum > 0xFFFF_FFFF
		overflow = (op2^result)&(^opnd1^result)&0x8000_0000 != 0
	case 0x8: // TST
		result, carry, isLogical, writesRd = opnd1&op2, shifterCarry, true, false
	case 0x9: // TEQ
		result, carry, isLogical, writesRd = opnd1^op2, shifterCarry, true, false
	case 0xA: // CMP
		result, carry, overflow, writesRd = subResult(opnd1, op2)
	case 0xB: // CMN
		result, carry, overflow, writesRd = addResult(opnd1, op2)
	case 0xC: // ORR
		result, carry, isLogical = opnd1|op2, shifterCarry, true
	case 0xD: // MOV
		result, carry, isLogical = op2, shifterCarry, true
	case 0xE: // BIC
		result, carry, isLogical = opnd1&^op2, shifterCarry, true
	case 0xF: // MVN
		result, carry, isLogical = ^op2, shifterCarry, true
	}

	if sBit {
		if rd == 15 {
			if c.hasSPSR() {
				c.SetCPSR(c.SPSR())
			}
		} else {
			c.setNZ(result)
			c.setFlag(flagC, carry)
			if !isLogical {
				c.setFlag(flagV, overflow)
			}
		}
	}

	if writesRd {
		c.SetR(rd, result)
	}
}

func subResult(a, b uint32) (result uint32, carry, overflow, writes bool) {
	result, carry, overflow = subWithFlags(a, b)
	return result, carry, overflow, false
}

func addResult(a, b uint32) (result uint32, carry, overflow, writes bool) {
	result, carry, overflow = addWithFlags(a, b)
	return result, carry, overflow, false
}

// armPSRTransfer handles MRS (opcode TST/TEQ/CMP/CMN pattern with S=0,
// bit21=0) and MSR (same pattern, bit21=1), to/from CPSR or SPSR.
func (c *CPU) armPSRTransfer(instr uint32, immediate bool) {
	toSPSR := instr&0x0040_0000 != 0
	isMSR := instr&0x0020_0000 != 0
	if !isMSR {
		rd := int((instr >> 12) & 0xF)
		if toSPSR {
			c.SetR(rd, c.SPSR())
		} else {
			c.SetR(rd, c.CPSR())
		}
		return
	}

	var operand uint32
	if immediate {
		imm8 := instr & 0xFF
		rot := ((instr >> 8) & 0xF) * 2
		operand, _ = shiftROR(imm8, rot, false)
	} else {
		rm := int(instr & 0xF)
		operand = c.R(rm)
	}

	fieldMask := (instr >> 16) & 0xF
	var mask uint32
	if fieldMask&0x1 != 0 {
		mask |= 0x0000_00FF
	}
	if fieldMask&0x8 != 0 {
		mask |= 0xFF00_0000 // flags field: only the top byte (NZCV) is writable on ARMv4T
	}
	if toSPSR {
		if c.hasSPSR() {
			c.SetSPSR((c.SPSR() &^ mask) | (operand & mask))
		}
		return
	}
	// Only a privileged mode may alter the control bits (bottom byte).
	if c.Mode() == ModeUser {
		mask &^= 0x0000_00FF
	}
	c.SetCPSR((c.CPSR() &^ mask) | (operand & mask))
}

func (c *CPU) armMultiply(instr uint32) {
	rd := int((instr >> 16) & 0xF)
	rn := int((instr >> 12) & 0xF)
	rs := int((instr >> 8) & 0xF)
	rm := int(instr & 0xF)
	accumulate := instr&0x0020_0000 != 0
	sBit := instr&0x0010_0000 != 0

	result := c.R(rm) * c.R(rs)
	if accumulate {
		result += c.R(rn)
	}
	c.SetR(rd, result)
	if sBit {
		c.setNZ(result)
	}
}

func (c *CPU) armMultiplyLong(instr uint32) {
	rdHi := int((instr >> 16) & 0xF)
	rdLo := int((instr >> 12) & 0xF)
	rs := int((instr >> 8) & 0xF)
	rm := int(instr & 0xF)
	signedMul := instr&0x0040_0000 != 0
	accumulate := instr&0x0020_0000 != 0
	sBit := instr&0x0010_0000 != 0

	var result uint64
	if signedMul {
		result = uint64(int64(int32(c.R(rm))) * int64(int32(c.R(rs))))
	} else {
		result = uint64(c.R(rm)) * uint64(c.R(rs))
	}
	if accumulate {
		result += uint64(c.R(rdHi))<<32 | uint64(c.R(rdLo))
	}
	c.SetR(rdLo, uint32(result))
	c.SetR(rdHi, uint32(result>>32))
	if sBit {
		c.setFlag(flagN, result&0x8000_0000_0000_0000 != 0)
		c.setFlag(flagZ, result == 0)
	}
}

func (c *CPU) armSwap(instr uint32) {
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)
	rm := int(instr & 0xF)
	byteSwap := instr&0x0040_0000 != 0
	addr := c.R(rn)
	if byteSwap {
		old := c.Bus.Read8(addr)
		c.Bus.Write8(addr, uint8(c.R(rm)))
		c.SetR(rd, uint32(old))
	} else {
		old := c.readWordRotated(addr)
		c.Bus.Write32(addr&^3, c.R(rm))
		c.SetR(rd, old)
	}
}

// readWordRotated implements the ARM7TDMI's unaligned-word-read quirk: a
// misaligned LDR rotates the fetched word right by 8 times the low two
// address bits rather than faulting.
func (c *CPU) readWordRotated(addr uint32) uint32 {
	v := c.Bus.Read32(addr &^ 3)
	rot := (addr & 3) * 8
	if rot == 0 {
		return v
	}
	res, _ := shiftROR(v, rot, false)
	return res
}

func (c *CPU) armSingleDataTransfer(instr uint32, registerOffset bool) {
	p := instr&(1<<24) != 0
	u := instr&(1<<23) != 0
	b := instr&(1<<22) != 0
	w := instr&(1<<21) != 0
	l := instr&(1<<20) != 0
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)

	var offset uint32
	if registerOffset {
		rm := int(instr & 0xF)
		st := shiftType((instr >> 5) & 0x3)
		shiftAmt := (instr >> 7) & 0x1F
		offset, _ = applyShift(st, c.R(rm), shiftAmt, c.flagC(), true)
	} else {
		offset = instr & 0xFFF
	}

	base := c.R(rn)
	var addr uint32
	if p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
		if w {
			c.SetR(rn, addr)
		}
	} else {
		addr = base
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

	if !p {
		var post uint32
		if u {
			post = base + offset
		} else {
			post = base - offset
		}
		c.SetR(rn, post)
	}
}

func (c *CPU) armHalfwordTransfer(instr uint32, immediateOffset bool) {
	p := instr&(1<<24) != 0
	u := instr&(1<<23) != 0
	w := instr&(1<<21) != 0
	l := instr&(1<<20) != 0
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)
	sh := (instr >> 5) & 0x3

	var offset uint32
	if immediateOffset {
		offset = ((instr >> 4) & 0xF0) | (instr & 0xF)
	} else {
		offset = c.R(int(instr & 0xF))
	}

	base := c.R(rn)
	var addr uint32
	if p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
		if w {
			c.SetR(rn, addr)
		}
	} else {
		addr = base
	}

	if l {
		switch sh {
		case 1:
			c.SetR(rd, uint32(c.Bus.Read16(addr)))
		case 2:
			c.SetR(rd, uint32(gbabits.SignExtend(uint32(c.Bus.Read8(addr)), 8)))
		case 3:
			c.SetR(rd, uint32(gbabits.SignExtend(uint32(c.Bus.Read16(addr)), 16)))
		}
	} else if sh == 1 {
		c.Bus.Write16(addr, uint16(c.R(rd)))
	}

	if !p {
		var post uint32
		if u {
			post = base + offset
		} else {
			post = base - offset
		}
		c.SetR(rn, post)
	}
}

func (c *CPU) armBlockDataTransfer(instr uint32) {
	p := instr&(1<<24) != 0
	u := instr&(1<<23) != 0
	useUserBank := instr&(1<<22) != 0
	w := instr&(1<<21) != 0
	l := instr&(1<<20) != 0
	rn := int((instr >> 16) & 0xF)
	regList := instr & 0xFFFF

	numRegs := bits.OnesCount16(uint16(regList))
	base := c.r[rn]

	if regList == 0 {
		addr := base
		if l {
			c.SetR(15, c.Bus.Read32(addr))
		} else {
			c.Bus.Write32(addr, c.r[15]+4)
		}
		if w {
			if u {
				c.r[rn] = base + 0x40
			} else {
				c.r[rn] = base - 0x40
			}
		}
		return
	}

	var start uint32
	if u {
		start = base
		if p {
			start += 4
		}
	} else {
		start = base - uint32(numRegs)*4
		if !p {
			start += 4
		}
	}

	addr := start
	rnInList := regList&(1<<uint(rn)) != 0

	lowestInList := 0
	for lowestInList < 16 && regList&(1<<uint(lowestInList)) == 0 {
		lowestInList++
	}
	var writtenBackBase uint32
	if u {
		writtenBackBase = base + uint32(numRegs)*4
	} else {
		writtenBackBase = base - uint32(numRegs)*4
	}

	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) == 0 {
			continue
		}
		if l {
			v := c.Bus.Read32(addr)
			if i == 15 {
				if useUserBank && c.hasSPSR() {
					c.SetCPSR(c.SPSR())
				}
				c.SetR(15, v)
			} else if useUserBank && regList&0x8000 == 0 {
				c.setUserRegister(i, v)
			} else {
				c.r[i] = v
			}
		} else {
			var v uint32
			if i == 15 {
				v = c.r[15] + 4
			} else if useUserBank {
				v = c.getUserRegister(i)
			} else if i == rn && rnInList {
				if i == lowestInList {
					v = base
				} else {
					v = writtenBackBase
				}
			} else {
				v = c.r[i]
			}
			c.Bus.Write32(addr, v)
		}
		addr += 4
	}

	if w && !(l && rnInList) {
		if u {
			c.r[rn] = base + uint32(numRegs)*4
		} else {
			c.r[rn] = base - uint32(numRegs)*4
		}
	}
}

func (c *CPU) armBranch(instr uint32) {
	link := instr&(1<<24) != 0
	offsetWords := gbabits.SignExtend(instr&0xFF_FFFF, 24)
	target := uint32(int64(c.R(15)) + int64(offsetWords)*4)
	if link {
		c.r[14] = c.r[15]
	}
	c.r[15] = target &^ 3
}
