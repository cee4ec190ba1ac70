package cpu

import "testing"

// memBus is a flat byte-addressable Bus double for exercising the decoder
// without the full memory map.
type memBus struct {
	mem [0x1000]byte
}

func (m *memBus) Read8(addr uint32) uint8  { return m.mem[addr&0xFFF] }
func (m *memBus) Read16(addr uint32) uint16 {
	a := addr & 0xFFF
	return uint16(m.mem[a]) | uint16(m.mem[a+1])<<8
}
func (m *memBus) Read32(addr uint32) uint32 {
	a := addr & 0xFFF
	return uint32(m.mem[a]) | uint32(m.mem[a+1])<<8 | uint32(m.mem[a+2])<<16 | uint32(m.mem[a+3])<<24
}
func (m *memBus) Write8(addr uint32, v uint8) { m.mem[addr&0xFFF] = v }
func (m *memBus) Write16(addr uint32, v uint16) {
	a := addr & 0xFFF
	m.mem[a] = byte(v)
	m.mem[a+1] = byte(v >> 8)
}
func (m *memBus) Write32(addr uint32, v uint32) {
	a := addr & 0xFFF
	m.mem[a] = byte(v)
	m.mem[a+1] = byte(v >> 8)
	m.mem[a+2] = byte(v >> 16)
	m.mem[a+3] = byte(v >> 24)
}

// TestBankedRegisterInvolution checks that switching into FIQ mode and back
// to System leaves every non-FIQ-banked register untouched, and that a
// second entry into FIQ sees its own bank exactly as last left it.
func TestBankedRegisterInvolution(t *testing.T) {
	c := New(&memBus{})

	for n := 0; n < 13; n++ {
		c.SetR(n, uint32(0x1000+n))
	}
	c.SetR(13, 0x0300_7F00)
	c.SetR(14, 0xDEAD_0000)

	c.SetCPSR((c.CPSR() &^ 0x1F) | uint32(ModeFIQ))
	for n := 8; n < 13; n++ {
		c.SetR(n, uint32(0xF000+n))
	}
	c.SetR(13, 0xFFFF_0D00)
	c.SetR(14, 0xFFFF_0E00)

	c.SetCPSR((c.CPSR() &^ 0x1F) | uint32(ModeSystem))
	for n := 0; n < 8; n++ {
		if got := c.R(n); got != uint32(0x1000+n) {
			t.Errorf("r%d after FIQ round-trip = %#x, want %#x", n, got, 0x1000+n)
		}
	}
	for n := 8; n < 13; n++ {
		if got := c.R(n); got != uint32(0x1000+n) {
			t.Errorf("r%d (usr bank) after FIQ round-trip = %#x, want %#x", n, got, 0x1000+n)
		}
	}
	if got := c.R(13); got != 0x0300_7F00 {
		t.Errorf("r13 (usr bank) after FIQ round-trip = %#x, want 0x03007F00", got)
	}
	if got := c.R(14); got != 0xDEAD_0000 {
		t.Errorf("r14 (usr bank) after FIQ round-trip = %#x, want 0xDEAD0000", got)
	}

	c.SetCPSR((c.CPSR() &^ 0x1F) | uint32(ModeFIQ))
	for n := 8; n < 13; n++ {
		if got := c.R(n); got != uint32(0xF000+n) {
			t.Errorf("r%d (fiq bank) on re-entry = %#x, want %#x", n, got, 0xF000+n)
		}
	}
	if got := c.R(13); got != 0xFFFF_0D00 {
		t.Errorf("r13 (fiq bank) on re-entry = %#x, want 0xFFFF0D00", got)
	}
	if got := c.R(14); got != 0xFFFF_0E00 {
		t.Errorf("r14 (fiq bank) on re-entry = %#x, want 0xFFFF0E00", got)
	}
}

// TestBXModeSwitch checks that BX toggles the T bit from the target
// address's low bit and masks it out of the written PC.
func TestBXModeSwitch(t *testing.T) {
	c := New(&memBus{})
	c.SetR(0, 0x0800_1001) // odd target: enter Thumb state
	c.armBX(0xE12F_FF10|0, false)
	if !c.Thumb() {
		t.Fatal("BX to an odd address did not set the T bit")
	}
	if pc := c.r[15]; pc != 0x0800_1000 {
		t.Fatalf("PC after BX = %#x, want 0x08001000 (bit0 masked)", pc)
	}

	c.SetR(1, 0x0800_2000) // even target: return to ARM state
	instr := uint32(0xE12F_FF11) // BX r1
	c.armBX(instr, false)
	if c.Thumb() {
		t.Fatal("BX to an even address did not clear the T bit")
	}
	if pc := c.r[15]; pc != 0x0800_2000 {
		t.Fatalf("PC after BX = %#x, want 0x08002000", pc)
	}
}

// TestBlockTransferBaseInListNoWriteback exercises the ARM LDM rule that
// writeback is suppressed when the base register is itself in the
// register list and L=1 (the loaded value wins, not the computed base).
func TestBlockTransferBaseInListNoWriteback(t *testing.T) {
	bus := &memBus{}
	c := New(bus)

	base := uint32(0x100)
	bus.Write32(base, 0x1234_5678) // value that will load into r0 (the base register)

	c.SetR(0, base)
	// LDMIA r0!, {r0} : cond=AL, 100, P=0,U=1,S=0,W=1,L=1, Rn=0, list={r0}
	instr := uint32(0xE8B0_0001)
	c.executeARM(instr)

	if got := c.R(0); got != 0x1234_5678 {
		t.Fatalf("r0 after LDMIA r0!,{r0} = %#x, want the loaded value 0x12345678 (writeback must not clobber it)", got)
	}
}

// TestBlockTransferBaseInListStoreWriteback exercises the complementary
// STM case: writeback DOES happen even with the base register in the
// list, since L=0 makes the base-in-list rule inapplicable.
func TestBlockTransferBaseInListStoreWriteback(t *testing.T) {
	bus := &memBus{}
	c := New(bus)

	base := uint32(0x200)
	c.SetR(0, base)
	// STMIA r0!, {r0} : P=0,U=1,S=0,W=1,L=0, Rn=0, list={r0}
	instr := uint32(0xE8A0_0001)
	c.executeARM(instr)

	if got := c.R(0); got != base+4 {
		t.Fatalf("r0 after STMIA r0!,{r0} = %#x, want base+4=%#x (writeback applies for stores)", got, base+4)
	}
}

// TestBlockTransferStoreBaseNotFirstInList exercises the ARM rule that STM
// stores the *updated* (post-writeback) base value when the base register
// is present in the list but isn't the lowest-numbered register in it;
// only when the base is the first listed register is the original value
// stored.
func TestBlockTransferStoreBaseNotFirstInList(t *testing.T) {
	bus := &memBus{}
	c := New(bus)

	base := uint32(0x400)
	c.SetR(0, 0x1111_1111)
	c.SetR(2, base)
	c.SetR(3, 0x3333_3333)

	// STMIA r2!, {r0,r2,r3} : P=0,U=1,S=0,W=1,L=0, Rn=2, list={r0,r2,r3}
	instr := uint32(0xE8A2_000D)
	c.executeARM(instr)

	wantWriteback := base + 3*4
	if got := c.R(2); got != wantWriteback {
		t.Fatalf("r2 after STMIA r2!,{r0,r2,r3} = %#x, want writeback value %#x", got, wantWriteback)
	}

	if got := bus.Read32(base); got != 0x1111_1111 {
		t.Fatalf("mem[base] (r0) = %#x, want 0x11111111", got)
	}
	if got := bus.Read32(base + 4); got != wantWriteback {
		t.Fatalf("mem[base+4] (r2, not first in list) = %#x, want the updated base %#x, not the original %#x", got, wantWriteback, base)
	}
	if got := bus.Read32(base + 8); got != 0x3333_3333 {
		t.Fatalf("mem[base+8] (r3) = %#x, want 0x33333333", got)
	}
}
