package gba

// Scenario/checksum correctness tests against real commercial and homebrew
// ROMs. None were retrieved into this pack, so these run only when
// GBA_TEST_ROM_DIR points at a directory of .gba files; otherwise every
// case is skipped. Checksums and step counts are the ones spec.md §8
// documents (itself carried over from the original Rust implementation's
// own test suite), so a fixture placed at the expected path is checked
// against a known-good trace rather than a placeholder.

import (
	"os"
	"path/filepath"
	"testing"

	"gba-core/internal/keypad"
)

// cyclesPerSecond is the GBA's fixed CPU clock; a "100ms of CPU time" key
// hold is expressed in instruction steps the same way the original test
// suite expresses it.
const cyclesPerSecond = 16_777_216

type romScenario struct {
	name         string
	file         string
	steps        int
	wantChecksum uint64
}

var romScenarios = []romScenario{
	{name: "hello", file: "hello.gba", steps: 100_000_000, wantChecksum: 0xCF2FB83F6755E1DB},
	{name: "m3_demo", file: "m3_demo.gba", steps: 100_000_000, wantChecksum: 0x7F4A2DFC61FC7E34},
	{name: "mandelbrot", file: "mandelbrot.gba", steps: 100_000_000, wantChecksum: 0x643CD59EBF90FAA9},
	{name: "dma_demo", file: "dma_demo.gba", steps: 100_000_000, wantChecksum: 0x9BA3DB86C4D5D083},
	{name: "armwrestler boot screen", file: "armwrestler.gba", steps: 100_000_000, wantChecksum: 0x1C1579ACC537960D},
	{name: "suite boot screen", file: "suite.gba", steps: 100_000_000, wantChecksum: 0x3B32CCEB3BAE455B},
}

func TestROMScenarios(t *testing.T) {
	dir := romTestDir(t)

	for _, sc := range romScenarios {
		sc := sc
		t.Run(sc.name, func(t *testing.T) {
			console := loadROMFixture(t, dir, sc.file)
			runSteps(console, sc.steps)

			if got := CalculateLCDChecksum(console); got != sc.wantChecksum {
				t.Errorf("%s after %d steps: checksum = %#x, want %#x", sc.file, sc.steps, got, sc.wantChecksum)
			}
		})
	}
}

// TestArmwrestlerStartPress exercises the interactive scenario: from
// armwrestler.gba's boot screen, one Start press (held then released for
// ~100ms of CPU time) must advance into the ARM ALU test page.
func TestArmwrestlerStartPress(t *testing.T) {
	dir := romTestDir(t)
	console := loadROMFixture(t, dir, "armwrestler.gba")

	runSteps(console, 100_000_000)
	if got := CalculateLCDChecksum(console); got != 0x1C1579ACC537960D {
		t.Fatalf("armwrestler boot checksum = %#x, want 0x1C1579ACC537960D", got)
	}

	pressKey(console, keypad.Start)
	if got := CalculateLCDChecksum(console); got != 0x53DA53FF9EF55555 {
		t.Fatalf("armwrestler after Start press checksum = %#x, want 0x53DA53FF9EF55555 (ARM ALU part 1)", got)
	}
}

func romTestDir(t *testing.T) string {
	dir := os.Getenv("GBA_TEST_ROM_DIR")
	if dir == "" {
		t.Skip("GBA_TEST_ROM_DIR not set, skipping ROM scenario checksums")
	}
	return dir
}

func loadROMFixture(t *testing.T, dir, file string) *Console {
	t.Helper()
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Skipf("fixture %s not present in %s: %v", file, dir, err)
	}
	console, err := LoadROM(data, nil)
	if err != nil {
		t.Fatalf("LoadROM(%s): %v", file, err)
	}
	return console
}

func runSteps(c *Console, steps int) {
	for i := 0; i < steps; i++ {
		c.FetchDecodeExecuteNoLogs()
	}
}

// pressKey holds btn down, then up, for the ~100ms of CPU time the
// original test suite tunes key presses to.
func pressKey(c *Console, btn keypad.Button) {
	const keyPressDelay = cyclesPerSecond / 10

	c.Bus.Keypad.SetPressed(btn, true)
	runSteps(c, keyPressDelay)
	c.Bus.Keypad.SetPressed(btn, false)
	runSteps(c, keyPressDelay)
}
