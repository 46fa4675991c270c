package main

import (
	"fmt"
	"time"

	"github.com/taigrr/panoedit/pkg/editor"
)

const flashDuration = 3 * time.Second

// HUD renders an overlay with the editor state and transient messages.
type HUD struct {
	session   *editor.Session
	visible   bool
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	flash     string
	flashTime time.Time
}

// NewHUD creates a visible HUD for s.
func NewHUD(s *editor.Session) *HUD {
	return &HUD{
		session: s,
		visible: true,
		fpsTime: time.Now(),
	}
}

// Toggle shows or hides the overlay. Flash messages always show.
func (h *HUD) Toggle() {
	h.visible = !h.visible
}

// Flash shows msg on the bottom row for a few seconds.
func (h *HUD) Flash(msg string) {
	h.flash = msg
	h.flashTime = time.Now()
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Render draws the HUD directly to the terminal, after the frame.
func (h *HUD) Render(width, height int) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgYellow  = "\x1b[93m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)

	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)

	if h.flash != "" && time.Since(h.flashTime) < flashDuration {
		msg := fitText(h.flash, width-2)
		fmt.Print(moveTo(height, 1) + bgBlack + bold + fgYellow + " " + msg + " " + reset)
	} else if h.visible {
		fmt.Print(moveTo(height, 1) + bgBlack + fgWhite + " " + fitText(h.status(), width-2) + " " + reset)
	}

	if !h.visible {
		return
	}

	fmt.Printf("%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	title := fmt.Sprintf("%s mode", h.session.Mode())
	titleCol := max((width-len(title)-2)/2, 1)
	fmt.Print(moveTo(1, titleCol) + bold + bgBlack + fgWhite + " " + title + " " + reset)

	count := fmt.Sprintf("%d media", h.session.Registry().Len())
	fmt.Print(moveTo(1, max(width-len(count)-1, 1)) + bgBlack + fgCyan + " " + count + " " + reset)
}

func (h *HUD) status() string {
	s := h.session
	switch s.Mode() {
	case editor.ModeTraceWalls:
		line := s.Polyline()
		if line.Closed {
			return fmt.Sprintf("room closed, %d walls  [u] undo", line.Len())
		}
		return fmt.Sprintf("%d vertices, click the first to close  [u] undo", line.Len())
	case editor.ModeAdd3D, editor.ModeAdd2D:
		return "press on a surface and drag to size"
	}
	obj, ok, err := s.Focused()
	switch {
	case err != nil:
		return err.Error()
	case !ok:
		return "click an object to focus it  [1-4] modes  [?] hud"
	}
	p := obj.Transform.Position
	return fmt.Sprintf("%s at (%.2f, %.2f, %.2f)  drag: %s  [t/r/s] [m] [del]",
		obj.Type, p.X, p.Y, p.Z, s.TransformMode())
}

// fitText truncates s to n bytes.
func fitText(s string, n int) string {
	n = max(n, 0)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
