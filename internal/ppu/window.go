package ppu

type selection struct {
	bg     [4]bool
	obj    bool
	effect bool
}

func maskSel(mask uint8) selection {
	return selection{
		bg:     [4]bool{mask&1 != 0, mask&2 != 0, mask&4 != 0, mask&8 != 0},
		obj:    mask&16 != 0,
		effect: mask&32 != 0,
	}
}

func inRange(v, lo, hi uint8) bool {
	if lo <= hi {
		return v >= lo && v < hi
	}
	// lo > hi: the window wraps around the screen edge.
	return v >= lo || v < hi
}

func (w *Window) contains(x, y int) bool {
	return inRange(uint8(x), w.Left, w.Right) && inRange(uint8(y), w.Top, w.Bottom)
}

// windowSelection resolves, for one pixel, which layers and effects are
// visible given Win0/Win1/ObjWindow/Outside precedence (Win0 highest).
func (p *PPU) windowSelection(x, line int, objWinHit bool) selection {
	if !p.anyWindowActive() {
		return selection{bg: [4]bool{true, true, true, true}, obj: true, effect: true}
	}
	if p.win0Enabled() && p.Win[0].contains(x, line) {
		return maskSel(p.Win[0].Enable)
	}
	if p.win1Enabled() && p.Win[1].contains(x, line) {
		return maskSel(p.Win[1].Enable)
	}
	if p.objWinEnabled() && objWinHit {
		return maskSel(p.ObjWinEnable)
	}
	return maskSel(p.WinOutEnable)
}
