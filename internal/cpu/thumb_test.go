package cpu

import "testing"

// TestThumbMultipleLoadNoWriteback mirrors the ARM LDM rule in Thumb form:
// writeback is suppressed when the base register is in the load list.
func TestThumbMultipleLoadNoWriteback(t *testing.T) {
	bus := &memBus{}
	c := New(bus)

	base := uint32(0x300)
	bus.Write32(base, 0xCAFE_BABE)
	c.SetR(0, base)

	// LDMIA r0!, {r0}: 1100 1 000 00000001
	c.executeThumb(0xC801)

	if got := c.R(0); got != 0xCAFE_BABE {
		t.Fatalf("r0 after thumb LDMIA r0!,{r0} = %#x, want loaded value 0xCAFEBABE", got)
	}
}

// TestThumbMultipleStoreWriteback checks writeback still applies on stores
// even with the base register present in the list.
func TestThumbMultipleStoreWriteback(t *testing.T) {
	bus := &memBus{}
	c := New(bus)

	base := uint32(0x300)
	c.SetR(0, base)

	// STMIA r0!, {r0}: 1100 0 000 00000001
	c.executeThumb(0xC001)

	if got := c.R(0); got != base+4 {
		t.Fatalf("r0 after thumb STMIA r0!,{r0} = %#x, want base+4=%#x", got, base+4)
	}
}

// TestThumbMultipleEmptyListQuirk exercises the documented ARM7TDMI
// empty-register-list quirk: an empty list transfers r15 and advances the
// base by 0x40 regardless of direction.
func TestThumbMultipleEmptyListQuirk(t *testing.T) {
	bus := &memBus{}
	c := New(bus)

	base := uint32(0x400)
	c.SetR(2, base)

	// STMIA r2!, {} : Rb=2, list=0
	c.executeThumb(0xC200)

	if got := c.R(2); got != base+0x40 {
		t.Fatalf("r2 after empty-list STMIA = %#x, want base+0x40=%#x", got, base+0x40)
	}
}
