package dma

import "testing"

type fakeBus struct {
	mem map[uint32]uint16
}

func newFakeBus() *fakeBus { return &fakeBus{mem: map[uint32]uint16{}} }

func (f *fakeBus) DMARead16(addr uint32) uint16       { return f.mem[addr] }
func (f *fakeBus) DMAWrite16(addr uint32, v uint16)   { f.mem[addr] = v }
func (f *fakeBus) DMARead32(addr uint32) uint32       { return uint32(f.mem[addr]) | uint32(f.mem[addr+2])<<16 }
func (f *fakeBus) DMAWrite32(addr uint32, v uint32)   { f.mem[addr] = uint16(v); f.mem[addr+2] = uint16(v >> 16) }

func TestImmediateTransferCopiesWords(t *testing.T) {
	bus := newFakeBus()
	bus.mem[0x1000] = 0xBEEF
	bus.mem[0x1002] = 0xCAFE

	var b Bank
	b.Channels[0].SrcAddr = 0x1000
	b.Channels[0].DstAddr = 0x2000
	b.Channels[0].WordCount = 2
	b.WriteControl(0, 1<<15) // enable, immediate trigger, 16-bit, increment

	b.CheckTriggers(bus, TriggerImmediate)

	if bus.mem[0x2000] != 0xBEEF || bus.mem[0x2002] != 0xCAFE {
		t.Fatalf("transfer did not copy expected words: %#v", bus.mem)
	}
	if b.Channels[0].enabled() {
		t.Fatalf("expected non-repeating channel to disable itself after running")
	}
}

func TestDisabledChannelTransfersNothing(t *testing.T) {
	bus := newFakeBus()
	bus.mem[0x1000] = 0x1234
	var b Bank
	b.Channels[0].SrcAddr = 0x1000
	b.Channels[0].DstAddr = 0x2000
	b.Channels[0].WordCount = 1
	// control left at zero: disabled
	b.CheckTriggers(bus, TriggerImmediate)
	if _, ok := bus.mem[0x2000]; ok {
		t.Fatalf("expected no transfer from a disabled channel")
	}
}

func TestVBlankTriggerOnlyFiresOnMatchingEvent(t *testing.T) {
	bus := newFakeBus()
	bus.mem[0x1000] = 0x55AA
	var b Bank
	b.Channels[0].SrcAddr = 0x1000
	b.Channels[0].DstAddr = 0x2000
	b.Channels[0].WordCount = 1
	b.WriteControl(0, 1<<15|1<<12) // enable, VBlank trigger

	b.CheckTriggers(bus, TriggerHBlank)
	if _, ok := bus.mem[0x2000]; ok {
		t.Fatalf("VBlank-triggered channel fired on HBlank event")
	}

	b.CheckTriggers(bus, TriggerVBlank)
	if bus.mem[0x2000] != 0x55AA {
		t.Fatalf("VBlank-triggered channel did not fire on VBlank event")
	}
}
