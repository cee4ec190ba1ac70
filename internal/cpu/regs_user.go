package cpu

// getUserRegister and setUserRegister access the User-mode register bank
// directly, bypassing whatever mode is currently active. STM with the S-bit
// set, and LDM with the S-bit set and no r15 in the register list, transfer
// to/from the User bank even when executed from a privileged mode (used by exception handlers to
// save/restore user-mode context).
func (c *CPU) getUserRegister(n int) uint32 {
	switch {
	case n >= 8 && n <= 12:
		if c.Mode() == ModeFIQ {
			return c.usrR8_12[n-8]
		}
		return c.r[n]
	case n == 13:
		if c.Mode() == ModeUser || c.Mode() == ModeSystem {
			return c.r[13]
		}
		return c.r13Bank[0]
	case n == 14:
		if c.Mode() == ModeUser || c.Mode() == ModeSystem {
			return c.r[14]
		}
		return c.r14Bank[0]
	default:
		return c.r[n]
	}
}

func (c *CPU) setUserRegister(n int, v uint32) {
	switch {
	case n >= 8 && n <= 12:
		if c.Mode() == ModeFIQ {
			c.usrR8_12[n-8] = v
		} else {
			c.r[n] = v
		}
	case n == 13:
		if c.Mode() == ModeUser || c.Mode() == ModeSystem {
			c.r[13] = v
		} else {
			c.r13Bank[0] = v
		}
	case n == 14:
		if c.Mode() == ModeUser || c.Mode() == ModeSystem {
			c.r[14] = v
		} else {
			c.r14Bank[0] = v
		}
	default:
		c.r[n] = v
	}
}
