// Package cpu implements the ARM7TDMI core: its dual ARM/Thumb instruction
// decoders, banked register file, and mode/exception model.
package cpu

import "gba-core/internal/debug"

// Bus is the narrow memory interface the CPU needs; internal/bus.Bus
// satisfies it without the cpu package importing bus (bus imports cpu-free
// register plumbing only, avoiding an import cycle).
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
}

// Mode is one of the seven ARM7TDMI operating modes, stored in CPSR[4:0].
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

// CPSR/SPSR bit positions.
const (
	flagN = 31
	flagZ = 30
	flagC = 29
	flagV = 28
	flagI = 7
	flagF = 6
	flagT = 5
)

// CPU is the full ARM7TDMI register file plus decode/execute state.
type CPU struct {
	r    [16]uint32 // r0-r15 for the currently active mode; r15 is the PC
	cpsr uint32

	// Banked registers, indexed by bankIndex(mode): user/system share bank
	// 0; FIQ/IRQ/Supervisor/Abort/Undefined each have their own r13/r14/SPSR.
	r13Bank  [6]uint32
	r14Bank  [6]uint32
	spsrBank [6]uint32

	fiqR8_12 [5]uint32 // banked r8-r12, FIQ mode only
	usrR8_12 [5]uint32 // r8-r12 shared by every other mode

	Bus    Bus
	Logger *debug.Logger

	IRQLine bool
	FIQLine bool
	halted  bool

	lastCycles int
}

// New returns a CPU wired to the given bus, reset to the GBA's ROM entry
// state (System mode, interrupts masked, stack pointers preset the way the
// BIOS leaves them after handing off to cartridge code).
func New(bus Bus) *CPU {
	c := &CPU{Bus: bus}
	c.Reset()
	return c
}

// Reset puts the CPU in the state the BIOS leaves it in just before
// jumping to the cartridge entry point at 0x0800_0000.
func (c *CPU) Reset() {
	c.cpsr = uint32(ModeSystem) | (1 << flagI) | (1 << flagF)
	c.r13Bank[bankIndex(ModeSupervisor)] = 0x0300_7FE0
	c.r13Bank[bankIndex(ModeIRQ)] = 0x0300_7FA0
	c.r13Bank[bankIndex(ModeUser)] = 0x0300_7F00
	c.r[13] = c.r13Bank[bankIndex(ModeUser)]
	c.r[15] = 0x0800_0000
	c.halted = false
}

func (c *CPU) Mode() Mode   { return Mode(c.cpsr & 0x1F) }
func (c *CPU) Thumb() bool  { return c.cpsr&(1<<flagT) != 0 }
func (c *CPU) IRQDisabled() bool { return c.cpsr&(1<<flagI) != 0 }
func (c *CPU) FIQDisabled() bool { return c.cpsr&(1<<flagF) != 0 }

func (c *CPU) flag(bit int) bool   { return c.cpsr&(1<<uint(bit)) != 0 }
func (c *CPU) setFlag(bit int, v bool) {
	if v {
		c.cpsr |= 1 << uint(bit)
	} else {
		c.cpsr &^= 1 << uint(bit)
	}
}

func (c *CPU) flagN() bool { return c.flag(flagN) }
func (c *CPU) flagZ() bool { return c.flag(flagZ) }
func (c *CPU) flagC() bool { return c.flag(flagC) }
func (c *CPU) flagV() bool { return c.flag(flagV) }

// setNZ updates the N and Z flags from a 32-bit ALU result.
func (c *CPU) setNZ(result uint32) {
	c.setFlag(flagN, result&0x8000_0000 != 0)
	c.setFlag(flagZ, result == 0)
}

// R returns the value of register n as seen by the currently-executing
// instruction, applying the ARM pipeline's PC-read bias (pc+8 in ARM state,
// pc+4 in Thumb state) when n == 15.
func (c *CPU) R(n int) uint32 {
	if n == 15 {
		if c.Thumb() {
			return c.r[15] + 2
		}
		return c.r[15] + 4
	}
	return c.r[n]
}

// SetR writes register n; writes to r15 are a branch and the caller is
// responsible for any pipeline-flush side effects (handled uniformly by
// FetchDecodeExecute re-fetching from the new PC next step).
func (c *CPU) SetR(n int, v uint32) {
	if n == 15 {
		if c.Thumb() {
			v &^= 1
		} else {
			v &^= 3
		}
	}
	c.r[n] = v
}

// CPSR/SPSR accessors used by MRS/MSR and exception entry/return.
func (c *CPU) CPSR() uint32 { return c.cpsr }

func (c *CPU) SetCPSR(v uint32) {
	newMode := Mode(v & 0x1F)
	if newMode != c.Mode() {
		c.switchBanks(newMode)
	}
	c.cpsr = v
}

func (c *CPU) SPSR() uint32 {
	idx := bankIndex(c.Mode())
	return c.spsrBank[idx]
}

func (c *CPU) SetSPSR(v uint32) {
	idx := bankIndex(c.Mode())
	c.spsrBank[idx] = v
}

func (c *CPU) hasSPSR() bool {
	switch c.Mode() {
	case ModeUser, ModeSystem:
		return false
	default:
		return true
	}
}

// FetchDecodeExecute runs exactly one instruction (ARM or Thumb, depending
// on the current T bit) and returns the number of cycles it cost.
func (c *CPU) FetchDecodeExecute() int {
	if c.FIQLine && !c.FIQDisabled() {
		c.enterException(ModeFIQ, vectorFIQ, true)
	} else if c.IRQLine && !c.IRQDisabled() {
		c.enterException(ModeIRQ, vectorIRQ, false)
	}
	if c.halted {
		c.lastCycles = 1
		return 1
	}

	if c.Thumb() {
		pc := c.r[15]
		instr := c.Bus.Read16(pc)
		c.r[15] = pc + 2
		c.lastCycles = 1
		c.executeThumb(instr)
	} else {
		pc := c.r[15]
		instr := c.Bus.Read32(pc)
		c.r[15] = pc + 4
		c.lastCycles = 1
		if c.evalCondition(instr >> 28) {
			c.executeARM(instr)
		}
	}
	return c.lastCycles
}

// Halt puts the CPU in its low-power wait state (SWI Halt / VBlankIntrWait
// pattern); the next IRQ line assertion wakes it.
func (c *CPU) Halt() { c.halted = true }

// State is the gob-serializable snapshot of every register the ARM7TDMI
// core carries across a save/load boundary.
type State struct {
	R        [16]uint32
	CPSR     uint32
	R13Bank  [6]uint32
	R14Bank  [6]uint32
	SPSRBank [6]uint32
	FIQR8_12 [5]uint32
	UsrR8_12 [5]uint32
	IRQLine  bool
	FIQLine  bool
	Halted   bool
}

// Snapshot captures the CPU's register file for save-state serialization.
func (c *CPU) Snapshot() State {
	return State{
		R:        c.r,
		CPSR:     c.cpsr,
		R13Bank:  c.r13Bank,
		R14Bank:  c.r14Bank,
		SPSRBank: c.spsrBank,
		FIQR8_12: c.fiqR8_12,
		UsrR8_12: c.usrR8_12,
		IRQLine:  c.IRQLine,
		FIQLine:  c.FIQLine,
		Halted:   c.halted,
	}
}

// Restore replaces the CPU's register file with a previously captured
// State.
func (c *CPU) Restore(s State) {
	c.r = s.R
	c.cpsr = s.CPSR
	c.r13Bank = s.R13Bank
	c.r14Bank = s.R14Bank
	c.spsrBank = s.SPSRBank
	c.fiqR8_12 = s.FIQR8_12
	c.usrR8_12 = s.UsrR8_12
	c.IRQLine = s.IRQLine
	c.FIQLine = s.FIQLine
	c.halted = s.Halted
}

func bankIndex(m Mode) int {
	switch m {
	case ModeFIQ:
		return 1
	case ModeIRQ:
		return 2
	case ModeSupervisor:
		return 3
	case ModeAbort:
		return 4
	case ModeUndefined:
		return 5
	default: // User, System
		return 0
	}
}

// switchBanks saves the active r13/r14(/r8-r12 for FIQ) into the outgoing
// mode's bank and loads the incoming mode's bank into the visible register
// file, implementing the ARM7TDMI's banked-register model.
func (c *CPU) switchBanks(newMode Mode) {
	oldMode := c.Mode()
	if oldMode == ModeFIQ {
		copy(c.fiqR8_12[:], c.r[8:13])
	} else {
		copy(c.usrR8_12[:], c.r[8:13])
	}
	c.r13Bank[bankIndex(oldMode)] = c.r[13]
	c.r14Bank[bankIndex(oldMode)] = c.r[14]

	if newMode == ModeFIQ {
		copy(c.r[8:13], c.fiqR8_12[:])
	} else {
		copy(c.r[8:13], c.usrR8_12[:])
	}
	c.r[13] = c.r13Bank[bankIndex(newMode)]
	c.r[14] = c.r14Bank[bankIndex(newMode)]
}
