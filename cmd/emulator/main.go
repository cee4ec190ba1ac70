package main

import (
	"flag"
	"fmt"
	"os"

	"gba-core/internal/debug"
	"gba-core/internal/gba"
	"gba-core/internal/ui"
)

func main() {
	romPath := flag.String("rom", "", "Path to a .gba ROM file")
	scale := flag.Int("scale", 3, "Display scale (1-6)")
	enableLogging := flag.Bool("log", false, "Enable component logging")
	frames := flag.Int("frames", 0, "Run headless for N frames and exit (0 = interactive)")
	flag.Parse()
	if *romPath == "" && flag.NArg() > 0 {
		*romPath = flag.Arg(0)
	}

	if *romPath == "" {
		fmt.Println("Usage: gba-core [flags] <path-to-rom.gba>")
		fmt.Println("  -rom <path>     Path to a .gba ROM file (instead of the positional path)")
		fmt.Println("  -scale <1-6>    Display scale (default: 3)")
		fmt.Println("  -log            Enable component logging")
		fmt.Println("  -frames <n>     Run headless for n frames and exit")
		os.Exit(1)
	}
	if *scale < 1 || *scale > 6 {
		fmt.Fprintln(os.Stderr, "Error: scale must be between 1 and 6")
		os.Exit(1)
	}

	romData, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ROM file: %v\n", err)
		os.Exit(1)
	}

	var logger *debug.Logger
	if *enableLogging {
		logger = debug.NewLogger(10000)
		for _, c := range []debug.Component{
			debug.ComponentCPU, debug.ComponentPPU, debug.ComponentAPU,
			debug.ComponentMemory, debug.ComponentKeypad, debug.ComponentDMA,
			debug.ComponentTimer, debug.ComponentUI, debug.ComponentSystem,
		} {
			logger.SetComponentEnabled(c, true)
		}
	}

	console, err := gba.LoadROM(romData, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ROM: %v\n", err)
		os.Exit(1)
	}
	if saveData, err := os.ReadFile(*romPath + ".sav"); err == nil {
		console.Bus.Cart.LoadSaveImage(saveData)
	}

	if *frames > 0 {
		for i := 0; i < *frames; i++ {
			console.RunFrame()
		}
		fmt.Printf("ran %d frames, checksum %#x\n", *frames, gba.CalculateLCDChecksum(console))
		return
	}

	fmt.Println("gba-core")
	fmt.Printf("ROM loaded: %s\n", *romPath)
	fmt.Println("Controls: arrows = D-pad, Z/X = B/A, Q/E = L/R, Enter = Start, Shift = Select")

	uiInstance, err := ui.NewFyneUI(console, *scale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating UI: %v\n", err)
		os.Exit(1)
	}
	if err := uiInstance.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "UI error: %v\n", err)
		os.Exit(1)
	}
}
