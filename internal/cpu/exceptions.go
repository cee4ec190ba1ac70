package cpu

// Exception vector addresses, relative to the BIOS ROM base at 0x0000_0000.
const (
	vectorReset          = 0x00
	vectorUndefined      = 0x04
	vectorSWI            = 0x08
	vectorPrefetchAbort  = 0x0C
	vectorDataAbort      = 0x10
	vectorIRQ            = 0x18
	vectorFIQ            = 0x1C
)

// raiseException performs the common entry sequence every ARM7TDMI
// exception shares: bank to the target mode, stash the old CPSR in that
// mode's SPSR, force ARM state, mask interrupts appropriately, and load
// LR/PC.
func (c *CPU) raiseException(newMode Mode, vector, lr uint32, alsoMaskFIQ bool) {
	oldCPSR := c.cpsr
	c.switchBanks(newMode)
	c.cpsr = (c.cpsr &^ 0x1F) | uint32(newMode)
	c.spsrBank[bankIndex(newMode)] = oldCPSR
	c.setFlag(flagT, false)
	c.setFlag(flagI, true)
	if alsoMaskFIQ {
		c.setFlag(flagF, true)
	}
	c.r[14] = lr
	c.r[15] = vector
	c.halted = false
}

// enterException handles the two hardware-asserted interrupt lines
// (IRQ/FIQ), checked once per FetchDecodeExecute before the next
// instruction is fetched. The pipeline convention here sets LR four bytes
// ahead of the not-yet-fetched next instruction so that the handler's
// conventional `SUBS PC, LR, #4` return lands exactly back on it.
func (c *CPU) enterException(newMode Mode, vector uint32, isFIQ bool) {
	lr := c.r[15] + 4
	c.raiseException(newMode, vector, lr, isFIQ)
}

// softwareException handles SWI/undefined-instruction traps raised from
// inside instruction execution, where r[15] already points at the
// instruction following the trapping one (no pipeline adjustment needed;
// handlers return via a plain `MOVS PC, LR`).
func (c *CPU) softwareException(newMode Mode, vector uint32) {
	c.raiseException(newMode, vector, c.r[15], false)
}

// ReturnFromException restores CPSR from the current mode's SPSR and jumps
// to dest, the behavior of `SUBS PC, LR, #n` / `MOVS PC, LR`.
func (c *CPU) ReturnFromException(dest uint32) {
	spsr := c.SPSR()
	c.SetCPSR(spsr)
	if c.Thumb() {
		dest &^= 1
	} else {
		dest &^= 3
	}
	c.r[15] = dest
}
