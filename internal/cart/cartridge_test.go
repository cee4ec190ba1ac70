package cart

import "testing"

func TestLoadMirrorsToPowerOfTwo(t *testing.T) {
	rom := make([]byte, 3) // forces mirroring to 4 bytes
	rom[0] = 0xAA
	c, err := Load(rom)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ROMSize() != 4 {
		t.Fatalf("ROMSize() = %d, want 4", c.ROMSize())
	}
	if c.ReadROM8(3) != rom[0] {
		t.Fatalf("expected mirrored wraparound byte, got %#02x", c.ReadROM8(3))
	}
}

func TestDetectSaveTypeSRAM(t *testing.T) {
	rom := append([]byte("junk"), []byte("SRAM_V110")...)
	c, err := Load(rom)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SaveType() != SaveSRAM {
		t.Fatalf("SaveType() = %v, want SaveSRAM", c.SaveType())
	}
	if len(c.SaveImage()) != 32*1024 {
		t.Fatalf("SaveImage() size = %d, want 32KiB", len(c.SaveImage()))
	}
}

func TestNoSaveMarkerReadsOpenBus(t *testing.T) {
	c, err := Load([]byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ReadSave(0) != 0xFF {
		t.Fatalf("expected open-bus 0xFF read with no save chip")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	rom := append([]byte("x"), []byte("EEPROM_V1")...)
	c, _ := Load(rom)
	c.WriteSave(4, 0x42)
	if c.ReadSave(4) != 0x42 {
		t.Fatalf("save write/read round trip failed")
	}
	dump := append([]byte(nil), c.SaveImage()...)
	c2, _ := Load(rom)
	c2.LoadSaveImage(dump)
	if c2.ReadSave(4) != 0x42 {
		t.Fatalf("LoadSaveImage did not restore contents")
	}
}
