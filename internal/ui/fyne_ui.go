// Package ui hosts the desktop front end: a Fyne window whose canvas.Image
// is repainted from the PPU's composited frame every tick, paired with an
// SDL2 audio device for the APU's mixed PCM stream and Fyne keyboard
// events for joypad input.
package ui

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"sync"
	"time"

	"gba-core/internal/gba"
	"gba-core/internal/keypad"
	"gba-core/internal/ppu"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/veandco/go-sdl2/sdl"
)

// FyneUI is the Fyne-hosted front end wrapping one emulated console.
type FyneUI struct {
	app     fyne.App
	window  fyne.Window
	console *gba.Console
	scale   int
	running bool
	paused  bool

	audioDev   sdl.AudioDeviceID
	audioFrame []byte // interleaved stereo float32, one console frame's worth

	emulatorImage *canvas.Image
	statusLabel   *widget.Label
	frameImages   [2]*image.RGBA
	frameImageIdx int

	keyMu            sync.Mutex
	keyStates        map[fyne.KeyName]bool
	typedKeyUntil    map[fyne.KeyName]time.Time // held lease for typed-only platforms
	desktopKeyEvents bool
}

// NewFyneUI builds a window around an already-loaded Console.
func NewFyneUI(console *gba.Console, scale int) (*FyneUI, error) {
	if err := sdl.Init(sdl.INIT_AUDIO | sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("ui: init SDL: %w", err)
	}

	audioSpec := sdl.AudioSpec{
		Freq:     44100,
		Format:   sdl.AUDIO_F32,
		Channels: 2,
		Samples:  735,
	}
	audioDev, err := sdl.OpenAudioDevice("", false, &audioSpec, nil, 0)
	if err != nil {
		fmt.Printf("ui: audio device unavailable, continuing silent: %v\n", err)
		audioDev = 0
	} else {
		sdl.PauseAudioDevice(audioDev, false)
	}

	fyneApp := app.NewWithID("com.gba-core.emulator")
	window := fyneApp.NewWindow("gba-core")

	statusLabel := widget.NewLabel("frame 0")

	w, h := ppu.ScreenWidth*scale, ppu.ScreenHeight*scale
	frame0 := image.NewRGBA(image.Rect(0, 0, w, h))
	frame1 := image.NewRGBA(image.Rect(0, 0, w, h))
	emulatorImage := canvas.NewImageFromImage(frame0)
	emulatorImage.FillMode = canvas.ImageFillContain

	ui := &FyneUI{
		app:           fyneApp,
		window:        window,
		console:       console,
		scale:         scale,
		audioDev:      audioDev,
		audioFrame:    make([]byte, 735*2*4),
		emulatorImage: emulatorImage,
		statusLabel:   statusLabel,
		frameImages:   [2]*image.RGBA{frame0, frame1},
		keyStates:     make(map[fyne.KeyName]bool),
		typedKeyUntil: make(map[fyne.KeyName]time.Time),
	}

	content := container.NewBorder(nil, statusLabel, nil, nil, emulatorImage)
	window.SetContent(content)
	window.Resize(fyne.NewSize(float32(w), float32(h)+32))
	window.CenterOnScreen()

	createMenus(window, ui)
	setupKeyboardInput(window, ui)

	return ui, nil
}

// setupKeyboardInput wires Fyne's typed-key and desktop key down/up
// callbacks into the UI's held-key tracking.
func setupKeyboardInput(window fyne.Window, ui *FyneUI) {
	window.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		ui.keyMu.Lock()
		if !ui.desktopKeyEvents {
			ui.typedKeyUntil[key.Name] = time.Now().Add(450 * time.Millisecond)
		}
		ui.keyMu.Unlock()
		ui.updateInputFromKeys()
	})

	if c, ok := window.Canvas().(desktop.Canvas); ok {
		ui.keyMu.Lock()
		ui.desktopKeyEvents = true
		ui.keyMu.Unlock()
		c.SetOnKeyDown(func(key *fyne.KeyEvent) {
			ui.keyMu.Lock()
			ui.keyStates[key.Name] = true
			ui.keyMu.Unlock()
			ui.updateInputFromKeys()
		})
		c.SetOnKeyUp(func(key *fyne.KeyEvent) {
			ui.keyMu.Lock()
			ui.keyStates[key.Name] = false
			delete(ui.typedKeyUntil, key.Name)
			ui.keyMu.Unlock()
			ui.updateInputFromKeys()
		})
	}
}

// keymap pairs a keypad button with the Fyne key names that press it.
var keymap = []struct {
	btn  keypad.Button
	keys []fyne.KeyName
}{
	{keypad.Up, []fyne.KeyName{fyne.KeyUp}},
	{keypad.Down, []fyne.KeyName{fyne.KeyDown}},
	{keypad.Left, []fyne.KeyName{fyne.KeyLeft}},
	{keypad.Right, []fyne.KeyName{fyne.KeyRight}},
	{keypad.B, []fyne.KeyName{fyne.KeyZ}},
	{keypad.A, []fyne.KeyName{fyne.KeyX}},
	{keypad.L, []fyne.KeyName{fyne.KeyQ}},
	{keypad.R, []fyne.KeyName{fyne.KeyE}},
	{keypad.Start, []fyne.KeyName{fyne.KeyReturn}},
	{keypad.Select, []fyne.KeyName{fyne.KeyLeftShift, fyne.KeyRightShift}},
}

// updateInputFromKeys samples held-key state and latches it into the
// console's keypad.
func (ui *FyneUI) updateInputFromKeys() {
	now := time.Now()
	ui.keyMu.Lock()
	isPressed := func(key fyne.KeyName) bool {
		if ui.keyStates[key] {
			return true
		}
		if until, ok := ui.typedKeyUntil[key]; ok {
			if now.Before(until) {
				return true
			}
			delete(ui.typedKeyUntil, key)
		}
		return false
	}
	pressed := make(map[keypad.Button]bool, len(keymap))
	for _, m := range keymap {
		for _, k := range m.keys {
			if isPressed(k) {
				pressed[m.btn] = true
				break
			}
		}
	}
	ui.keyMu.Unlock()

	for _, m := range keymap {
		ui.console.Bus.Keypad.SetPressed(m.btn, pressed[m.btn])
	}
}

func (ui *FyneUI) loadROMBytes(data []byte) error {
	c, err := gba.LoadROM(data, ui.console.Logger)
	if err != nil {
		return err
	}
	ui.console = c
	if ui.audioDev != 0 {
		sdl.ClearQueuedAudio(ui.audioDev)
	}
	return nil
}

func createMenus(window fyne.Window, ui *FyneUI) {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open ROM...", func() {
			open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
				if err != nil || reader == nil {
					if err != nil {
						dialog.ShowError(fmt.Errorf("open ROM: %w", err), window)
					}
					return
				}
				defer reader.Close()
				data, readErr := io.ReadAll(reader)
				if readErr != nil {
					dialog.ShowError(fmt.Errorf("read ROM: %w", readErr), window)
					return
				}
				if loadErr := ui.loadROMBytes(data); loadErr != nil {
					dialog.ShowError(fmt.Errorf("load ROM: %w", loadErr), window)
					return
				}
				ui.statusLabel.SetText(fmt.Sprintf("loaded %s", reader.URI().Name()))
			}, window)
			open.SetFilter(storage.NewExtensionFileFilter([]string{".gba"}))
			open.Show()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() { window.Close() }),
	)

	emulationMenu := fyne.NewMenu("Emulation",
		fyne.NewMenuItem("Pause", func() { ui.paused = true }),
		fyne.NewMenuItem("Resume", func() { ui.paused = false }),
		fyne.NewMenuItem("Step Frame", func() {
			if ui.paused {
				ui.console.RunFrame()
			}
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", func() {
			dialog.ShowInformation("gba-core", "Z/X = B/A, arrows = D-pad, Q/E = L/R, Enter = Start, Shift = Select.", window)
		}),
	)

	window.SetMainMenu(fyne.NewMainMenu(fileMenu, emulationMenu, helpMenu))
}

// renderScreen converts the PPU's last composited RGB555 frame into a
// scaled RGBA image, reusing one of two double-buffered frames to avoid
// per-frame allocation.
func (ui *FyneUI) renderScreen() image.Image {
	buf := ui.console.Bus.PPU.GetBuffer()

	img := ui.frameImages[ui.frameImageIdx]
	ui.frameImageIdx ^= 1

	pix := img.Pix
	stride := img.Stride
	scale := ui.scale
	for y := 0; y < ppu.ScreenHeight; y++ {
		for x := 0; x < ppu.ScreenWidth; x++ {
			px := buf[y][x]
			r := uint8(px&0x1F) << 3
			g := uint8((px>>5)&0x1F) << 3
			b := uint8((px>>10)&0x1F) << 3

			baseX, baseY := x*scale, y*scale
			for sy := 0; sy < scale; sy++ {
				row := (baseY + sy) * stride
				for sx := 0; sx < scale; sx++ {
					off := row + (baseX+sx)*4
					pix[off+0], pix[off+1], pix[off+2], pix[off+3] = r, g, b, 0xFF
				}
			}
		}
	}
	return img
}

// Run shows the window and blocks until it is closed, driving emulation on
// a background goroutine at a fixed 60 Hz timestep.
func (ui *FyneUI) Run() error {
	defer ui.Cleanup()

	ui.running = true
	go ui.updateLoop()

	ui.window.ShowAndRun()
	ui.running = false
	return nil
}

func (ui *FyneUI) updateLoop() {
	const uiTickHz = 120
	const maxCatchUpFrames = 4
	frameStep := time.Second / 60

	ticker := time.NewTicker(time.Second / uiTickHz)
	defer ticker.Stop()

	lastTick := time.Now()
	var accumulator time.Duration

	for ui.running {
		<-ticker.C
		now := time.Now()
		delta := now.Sub(lastTick)
		lastTick = now
		if delta > 250*time.Millisecond {
			delta = 250 * time.Millisecond
		}

		sdl.PumpEvents()
		ui.updateInputFromKeys()

		framesStepped := 0
		if ui.paused {
			accumulator = 0
		} else {
			accumulator += delta
			if maxAccum := frameStep * maxCatchUpFrames; accumulator > maxAccum {
				accumulator = maxAccum
			}
			for accumulator >= frameStep && framesStepped < maxCatchUpFrames {
				ui.console.RunFrame()
				ui.queueFrameAudio()
				accumulator -= frameStep
				framesStepped++
			}
		}

		var img image.Image
		if framesStepped > 0 {
			img = ui.renderScreen()
		}

		frameCount := ui.console.FrameCount()
		fyne.Do(func() {
			if img != nil {
				ui.emulatorImage.Image = img
				ui.emulatorImage.Refresh()
			}
			ui.statusLabel.SetText(fmt.Sprintf("frame %d", frameCount))
		})
	}
}

func (ui *FyneUI) queueFrameAudio() {
	if ui.audioDev == 0 {
		return
	}
	if sdl.GetQueuedAudioSize(ui.audioDev) > uint32(len(ui.audioFrame))*4 {
		return
	}
	samples := ui.console.AudioSamples
	if len(samples) == 0 {
		return
	}

	j := 0
	for _, s := range samples {
		f := float32(s) / 32768
		bits := math.Float32bits(f)
		binary.LittleEndian.PutUint32(ui.audioFrame[j:j+4], bits)
		binary.LittleEndian.PutUint32(ui.audioFrame[j+4:j+8], bits)
		j += 8
	}
	_ = sdl.QueueAudio(ui.audioDev, ui.audioFrame[:j])
}

// Cleanup releases SDL resources; called once the window closes.
func (ui *FyneUI) Cleanup() {
	if ui.audioDev != 0 {
		sdl.CloseAudioDevice(ui.audioDev)
	}
	sdl.Quit()
}
