package gba

import "testing"

func minimalROM() []byte {
	rom := make([]byte, 0x1000)
	copy(rom[0xA0:], []byte("SAVESTATETEST"))
	return rom
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	c, err := LoadROM(minimalROM(), nil)
	if err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	c.CPU.SetR(0, 0x1234_5678)
	c.CPU.SetR(1, 0xDEAD_BEEF)
	c.Bus.EWRAM[0x1000] = 0xAB
	c.Bus.IWRAM[0x10] = 0xCD
	c.Bus.IE = 0x1F
	c.Bus.PPU.WritePalette16(0, 0x7FFF)
	c.Bus.APU.SoundBias = 0x200
	c.cycles = 12345
	c.frames = 7

	saved, err := c.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if len(saved) == 0 {
		t.Fatal("SaveState returned no data")
	}

	c.CPU.SetR(0, 0)
	c.CPU.SetR(1, 0)
	c.Bus.EWRAM[0x1000] = 0
	c.Bus.IWRAM[0x10] = 0
	c.Bus.IE = 0
	c.Bus.PPU.WritePalette16(0, 0)
	c.Bus.APU.SoundBias = 0
	c.cycles = 0
	c.frames = 0

	if err := c.LoadState(saved); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	if got := c.CPU.R(0); got != 0x1234_5678 {
		t.Errorf("r0 = %#x, want %#x", got, 0x1234_5678)
	}
	if got := c.CPU.R(1); got != 0xDEAD_BEEF {
		t.Errorf("r1 = %#x, want %#x", got, 0xDEAD_BEEF)
	}
	if c.Bus.EWRAM[0x1000] != 0xAB {
		t.Errorf("EWRAM[0x1000] = %#x, want 0xAB", c.Bus.EWRAM[0x1000])
	}
	if c.Bus.IWRAM[0x10] != 0xCD {
		t.Errorf("IWRAM[0x10] = %#x, want 0xCD", c.Bus.IWRAM[0x10])
	}
	if c.Bus.IE != 0x1F {
		t.Errorf("IE = %#x, want 0x1F", c.Bus.IE)
	}
	if got := c.Bus.PPU.ReadPalette16(0); got != 0x7FFF {
		t.Errorf("palette[0] = %#x, want 0x7FFF", got)
	}
	if c.Bus.APU.SoundBias != 0x200 {
		t.Errorf("SoundBias = %#x, want 0x200", c.Bus.APU.SoundBias)
	}
	if c.cycles != 12345 || c.frames != 7 {
		t.Errorf("cycles/frames = %d/%d, want 12345/7", c.cycles, c.frames)
	}
}

func TestLoadStateRejectsBadVersion(t *testing.T) {
	c, err := LoadROM(minimalROM(), nil)
	if err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	if err := c.LoadState([]byte("not a valid save state")); err == nil {
		t.Fatal("expected LoadState to reject garbage input")
	}
}
