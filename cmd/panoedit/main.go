// panoedit - Terminal panorama media editor
// Place, move, rotate and scale media inside a panorama room and trace its
// walls, all from the terminal.
//
// Controls:
//
//	1/2/3/4     - Select, add 3D placeholder, add 2D placeholder, trace walls
//	Mouse       - Click to focus, drag the focused object to edit it
//	T/R/S       - Edit drags translate, rotate or scale
//	Arrows      - Orbit the camera (select mode only)
//	Scroll, +/- - Orbit radius
//	M           - Turn the focused object into the loaded model
//	Delete      - Delete the focused object
//	U           - Undo the last wall vertex
//	Ctrl+S      - Save the scene
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/panoedit/pkg/config"
	"github.com/taigrr/panoedit/pkg/drag"
	"github.com/taigrr/panoedit/pkg/editor"
	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/media"
	"github.com/taigrr/panoedit/pkg/models"
	"github.com/taigrr/panoedit/pkg/projection"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file")
	scenePath  = flag.String("scene", "", "Scene file to load and save (JSON or URL hash)")
	modelPath  = flag.String("model", "", "GLB model available to model objects")
	exportRoom = flag.String("export-room", "", "Write the traced room as GLB to this path and exit")
	dumpPick   = flag.String("dump-pick", "", "Write the pick buffer as PNG to this path and exit")
	logPath    = flag.String("log", "", "Write logs to this file")
	targetFPS  = flag.Int("fps", 30, "Target FPS")
	floorY     = flag.Float64("floor", 0, "Floor height")
	ceilingY   = flag.Float64("ceiling", 2.6, "Ceiling height")
	eyeY       = flag.Float64("eye", 1.6, "Panorama capture height")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "panoedit - Terminal panorama media editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: panoedit [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  1/2/3/4     - Select, add 3D, add 2D, trace walls\n")
		fmt.Fprintf(os.Stderr, "  Mouse       - Focus and drag media\n")
		fmt.Fprintf(os.Stderr, "  T/R/S       - Translate, rotate or scale when dragging\n")
		fmt.Fprintf(os.Stderr, "  Arrows      - Orbit camera\n")
		fmt.Fprintf(os.Stderr, "  Scroll, +/- - Orbit radius\n")
		fmt.Fprintf(os.Stderr, "  M           - Make focused object the loaded model\n")
		fmt.Fprintf(os.Stderr, "  Delete      - Delete focused object\n")
		fmt.Fprintf(os.Stderr, "  U           - Undo wall vertex\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+S      - Save scene\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	logger, closeLog, err := newLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

// newLogger logs to path, or nowhere when path is empty since the terminal
// belongs to the editor.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log %s: %w", path, err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

// loadScene reads a scene file holding either snapshot JSON or the URL hash
// form of it.
func loadScene(path string) (editor.Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return editor.Snapshot{}, false, nil
	}
	if err != nil {
		return editor.Snapshot{}, false, fmt.Errorf("read scene %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	text = strings.TrimPrefix(text, "#")
	var snap editor.Snapshot
	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), &snap); err != nil {
			return editor.Snapshot{}, false, fmt.Errorf("parse scene %s: %w", path, err)
		}
		return snap, true, nil
	}
	snap, err = editor.DecodeHash(text)
	if err != nil {
		return editor.Snapshot{}, false, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return snap, true, nil
}

func saveScene(path string, snap editor.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create scene dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write scene %s: %w", path, err)
	}
	return nil
}

// loadModel loads a GLB and fits it into the unit box the placeholders use:
// centered on X and Z, standing on y = 0.
func loadModel(path string) (*models.Mesh, error) {
	mesh, err := models.LoadGLB(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	mesh.CalculateBounds()
	lo, _ := mesh.GetBounds()
	center := mesh.Center()
	size := mesh.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim > 0 {
		scale := 1.0 / maxDim
		base := math3d.V3(center.X, lo.Y, center.Z)
		mesh.Transform(math3d.Scale(math3d.V3(scale, scale, scale)).Mul(math3d.Translate(base.Negate())))
		mesh.CalculateBounds()
	}
	return mesh, nil
}

func newSession(cfg config.Config, logger *slog.Logger) (*editor.Session, error) {
	geom := projection.Geometry{
		FloorY:   *floorY,
		CeilingY: *ceilingY,
		Origin:   math3d.V3(0, *eyeY, 0),
	}
	s, err := editor.New(geom, editor.Options{Config: cfg, Logger: logger})
	if err != nil {
		return nil, err
	}
	if *scenePath != "" {
		snap, ok, err := loadScene(*scenePath)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := s.Restore(snap); err != nil {
				return nil, err
			}
		}
	}
	if *modelPath != "" {
		mesh, err := loadModel(*modelPath)
		if err != nil {
			return nil, err
		}
		s.RegisterModel(*modelPath, mesh)
		clips, err := models.AnimationNames(*modelPath)
		if err != nil {
			return nil, err
		}
		logger.Info("model loaded",
			slog.String("src", *modelPath),
			slog.Int("triangles", mesh.TriangleCount()),
			slog.Any("clips", clips))
	}
	return s, nil
}

// batch runs the non-interactive operations. It reports whether any ran.
func batch(s *editor.Session) (bool, error) {
	ran := false
	if *exportRoom != "" {
		if err := s.ExportRoom(*exportRoom); err != nil {
			return true, err
		}
		fmt.Printf("Room written to %s\n", *exportRoom)
		ran = true
	}
	if *dumpPick != "" {
		s.Tick()
		if err := s.PickBuffer().SavePNG(*dumpPick); err != nil {
			return true, err
		}
		fmt.Printf("Pick buffer written to %s (%d objects)\n", *dumpPick, s.PickBuffer().Len())
		ran = true
	}
	return ran, nil
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	session, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	if ran, err := batch(session); ran || err != nil {
		return err
	}

	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	camera := session.Camera()
	view := newView(camera, width, height)
	orbit := NewOrbit(*targetFPS, session.Geometry().Origin)
	hud := NewHUD(session)

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// The session is not safe for concurrent use, so events are handed to
	// the frame loop.
	events := make(chan uv.Event, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	handle := func(ev uv.Event) {
		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			width, height = ev.Width, ev.Height
			term.Erase()
			term.Resize(width, height)
			view = newView(camera, width, height)

		case uv.KeyPressEvent:
			switch {
			case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
				cancel()
			case ev.MatchString("1"):
				session.SetMode(editor.ModeSelect)
			case ev.MatchString("2"):
				session.SetMode(editor.ModeAdd3D)
			case ev.MatchString("3"):
				session.SetMode(editor.ModeAdd2D)
			case ev.MatchString("4"):
				session.SetMode(editor.ModeTraceWalls)
			case ev.MatchString("t"):
				session.SetTransformMode(drag.Translate)
			case ev.MatchString("r"):
				session.SetTransformMode(drag.Rotate)
			case ev.MatchString("s"):
				session.SetTransformMode(drag.Scale)
			case ev.MatchString("u"):
				session.UndoWall()
			case ev.MatchString("delete", "backspace"):
				if _, err := session.DeleteFocused(); err != nil {
					hud.Flash(err.Error())
				}
			case ev.MatchString("m"):
				if *modelPath == "" {
					hud.Flash("no model loaded")
					break
				}
				payload := media.Model.DefaultPayload()
				payload[media.PayloadSrc] = *modelPath
				if err := session.ChangeFocusedType(media.Model, payload); err != nil {
					hud.Flash(err.Error())
				}
			case ev.MatchString("ctrl+s"):
				if *scenePath == "" {
					hud.Flash("no scene file")
					break
				}
				if err := saveScene(*scenePath, session.Snapshot()); err != nil {
					hud.Flash(err.Error())
					break
				}
				hud.Flash("saved " + filepath.Base(*scenePath))
			case ev.MatchString("left"):
				orbit.Turn(-0.15, 0)
			case ev.MatchString("right"):
				orbit.Turn(0.15, 0)
			case ev.MatchString("up"):
				orbit.Turn(0, 0.1)
			case ev.MatchString("down"):
				orbit.Turn(0, -0.1)
			case ev.MatchString("+", "="):
				orbit.Zoom(-0.25)
			case ev.MatchString("-", "_"):
				orbit.Zoom(0.25)
			case ev.MatchString("?"), ev.MatchString("shift+/"):
				hud.Toggle()
			}

		case uv.MouseClickEvent:
			if ev.Button == uv.MouseLeft {
				view.pointer(session, editor.PointerDown, ev.X, ev.Y, hud)
			}

		case uv.MouseReleaseEvent:
			view.pointer(session, editor.PointerUp, ev.X, ev.Y, hud)

		case uv.MouseMotionEvent:
			view.pointer(session, editor.PointerMove, ev.X, ev.Y, hud)

		case uv.MouseWheelEvent:
			switch ev.Button {
			case uv.MouseWheelUp:
				orbit.Zoom(-0.25)
			case uv.MouseWheelDown:
				orbit.Zoom(0.25)
			}

		case uv.BlurEvent:
			session.Blur()
		}
	}

	// Main loop
	targetDuration := time.Second / time.Duration(*targetFPS)

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		now := time.Now()

	drain:
		for {
			select {
			case <-ctx.Done():
				cleanup()
				return nil
			case ev := <-events:
				handle(ev)
			default:
				break drain
			}
		}

		orbit.Update()
		if orbit.Pending() && session.OrbitCamera(orbit.Target, orbit.Radius(), orbit.Yaw(), orbit.Pitch()) {
			orbit.Applied()
		}
		session.Tick()

		view.draw(session)
		view.fb.Draw(term, uv.Rect(0, 0, width, height))
		if err := term.Display(); err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		hud.UpdateFPS()
		hud.Render(width, height)

		// Frame timing
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
