// Package cart models a GBA cartridge: the ROM image mapped (mirrored) into
// the three 32 MiB ROM windows, and the backup save memory whose type is
// detected heuristically from ID strings embedded in the ROM, the same way
// every GBA-compatible loader does since the cartridge header carries no
// explicit save-type field.
package cart

import (
	"bytes"
	"fmt"
)

// SaveType enumerates the backup memory technologies GBA cartridges use.
type SaveType int

const (
	SaveNone SaveType = iota
	SaveSRAM
	SaveFlash512K
	SaveFlash1M
	SaveEEPROM512B
	SaveEEPROM8K
)

func (s SaveType) size() int {
	switch s {
	case SaveSRAM:
		return 32 * 1024
	case SaveFlash512K:
		return 64 * 1024
	case SaveFlash1M:
		return 128 * 1024
	case SaveEEPROM512B:
		return 512
	case SaveEEPROM8K:
		return 8 * 1024
	default:
		return 0
	}
}

// marker is one of the ID strings GBA cartridges embed to let a loader
// infer the save technology in use; order matters, since FLASH1M_V and
// FLASH512_V both begin with "FLASH".
var markers = []struct {
	text string
	kind SaveType
}{
	{"EEPROM_V", SaveEEPROM8K},
	{"FLASH1M_V", SaveFlash1M},
	{"FLASH512_V", SaveFlash512K},
	{"FLASH_V", SaveFlash512K},
	{"SRAM_V", SaveSRAM},
}

// Cartridge is a loaded ROM image plus its backup save RAM.
type Cartridge struct {
	rom      []byte // mirrored up to the next power of two
	romMask  uint32
	save     []byte
	saveType SaveType
}

// Load builds a Cartridge from a raw ROM byte slice. The ROM is mirrored to
// the next power-of-two size so that address wraparound within the 32 MiB
// ROM window behaves the way real cartridge bus decode does for
// non-power-of-two dumps.
func Load(rom []byte) (*Cartridge, error) {
	if len(rom) == 0 {
		return nil, fmt.Errorf("cart: empty ROM image")
	}
	size := nextPow2(len(rom))
	mirrored := make([]byte, size)
	for off := 0; off < size; off += len(rom) {
		n := copy(mirrored[off:], rom)
		if n < len(rom) {
			break
		}
	}
	st := detectSaveType(rom)
	c := &Cartridge{
		rom:      mirrored,
		romMask:  uint32(size - 1),
		saveType: st,
	}
	if n := st.size(); n > 0 {
		c.save = make([]byte, n)
		for i := range c.save {
			c.save[i] = 0xFF
		}
	}
	return c, nil
}

func detectSaveType(rom []byte) SaveType {
	for _, m := range markers {
		if bytes.Contains(rom, []byte(m.text)) {
			return m.kind
		}
	}
	return SaveNone
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// SaveType reports the detected backup memory technology.
func (c *Cartridge) SaveType() SaveType { return c.saveType }

// ReadROM8 reads a byte from the mirrored ROM image at the given
// window-relative offset.
func (c *Cartridge) ReadROM8(offset uint32) uint8 {
	return c.rom[offset&c.romMask]
}

// ReadROM16 reads a little-endian half-word.
func (c *Cartridge) ReadROM16(offset uint32) uint16 {
	lo := uint16(c.ReadROM8(offset))
	hi := uint16(c.ReadROM8(offset + 1))
	return lo | hi<<8
}

// ReadROM32 reads a little-endian word.
func (c *Cartridge) ReadROM32(offset uint32) uint32 {
	lo := uint32(c.ReadROM16(offset))
	hi := uint32(c.ReadROM16(offset + 2))
	return lo | hi<<16
}

// ROMSize returns the mirrored ROM size in bytes.
func (c *Cartridge) ROMSize() int { return len(c.rom) }

// ReadSave reads a byte of backup save memory; returns 0xFF when no backup
// memory is present, matching an unpopulated save chip's open-bus read.
func (c *Cartridge) ReadSave(offset uint32) uint8 {
	if len(c.save) == 0 {
		return 0xFF
	}
	return c.save[int(offset)%len(c.save)]
}

// WriteSave writes a byte of backup save memory; a no-op when no backup
// memory is present.
func (c *Cartridge) WriteSave(offset uint32, v uint8) {
	if len(c.save) == 0 {
		return
	}
	c.save[int(offset)%len(c.save)] = v
}

// SaveImage returns the raw backup memory contents for persistence by the
// driver layer (the CLI/UI owns reading and writing the `.sav` sidecar
// file; this package only exposes the bytes).
func (c *Cartridge) SaveImage() []byte { return c.save }

// LoadSaveImage restores previously persisted backup memory, truncating or
// padding with 0xFF to the detected save type's size.
func (c *Cartridge) LoadSaveImage(data []byte) {
	if len(c.save) == 0 {
		return
	}
	n := copy(c.save, data)
	for i := n; i < len(c.save); i++ {
		c.save[i] = 0xFF
	}
}
