// Package editor ties the placement, selection and tracing machinery into
// one editing session. A Session owns the media registry, the drag and
// wall-trace state machines, the pick buffer and the camera; every
// operation goes through it, on one event timeline.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/taigrr/panoedit/pkg/config"
	"github.com/taigrr/panoedit/pkg/drag"
	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/media"
	"github.com/taigrr/panoedit/pkg/models"
	"github.com/taigrr/panoedit/pkg/pickbuffer"
	"github.com/taigrr/panoedit/pkg/preview"
	"github.com/taigrr/panoedit/pkg/projection"
	"github.com/taigrr/panoedit/pkg/render"
	"github.com/taigrr/panoedit/pkg/walltrace"
)

// ErrNoFocus is returned by operations on the focused object when nothing
// is focused.
var ErrNoFocus = media.ErrNoFocus

// ErrOpenOutline is returned when a room is exported before its wall
// outline is closed.
var ErrOpenOutline = errors.New("editor: wall outline is not closed")

// Mode is the editing mode, which decides what pointer gestures do.
type Mode int

const (
	ModeSelect Mode = iota
	ModeAdd3D
	ModeAdd2D
	ModeTraceWalls
)

var modeNames = map[Mode]string{
	ModeSelect:     "select",
	ModeAdd3D:      "add3d",
	ModeAdd2D:      "add2d",
	ModeTraceWalls: "trace",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// AddType returns the media type placed in an add mode.
func (m Mode) AddType() (media.Type, bool) {
	switch m {
	case ModeAdd3D:
		return media.Placeholder3D, true
	case ModeAdd2D:
		return media.Placeholder2D, true
	}
	return 0, false
}

// Options configures a new Session. Zero values take defaults.
type Options struct {
	Config config.Config
	Logger *slog.Logger
	Camera *render.Camera
	Shapes *media.Shapes
}

// press is a select-mode press on the focused object that has not yet
// decided between a click and an edit drag.
type press struct {
	index    int
	x, y     float64
	dragging bool
}

// Session is the editing context. It is not safe for concurrent use.
type Session struct {
	cfg       config.Config
	logger    *slog.Logger
	log       *slog.Logger
	geometry  projection.Geometry
	projector projection.Projector
	panorama  string

	registry *media.Registry
	shapes   *media.Shapes
	camera   *render.Camera

	drag     *drag.Session
	walls    *walltrace.Session
	pick     *pickbuffer.Buffer
	smoother *preview.Smoother

	pickBuilt   bool
	shapesDirty bool
	room        *models.Mesh

	mode          Mode
	transformMode drag.Mode
	press         *press
}

// New starts a session on geom with an empty registry.
func New(geom projection.Geometry, opts Options) (*Session, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	cfg := opts.Config
	if cfg == (config.Config{}) {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cam := opts.Camera
	if cam == nil {
		cam = render.NewCamera()
		cam.SetPosition(geom.Origin)
	}
	shapes := opts.Shapes
	if shapes == nil {
		shapes = media.NewShapes()
	}
	pick, err := pickbuffer.New(cfg.PickOptions())
	if err != nil {
		return nil, fmt.Errorf("create pick buffer: %w", err)
	}

	registry := media.NewRegistry()
	projector := cfg.Projector(geom)
	return &Session{
		cfg:       cfg,
		logger:    logger,
		log:       logger.With(slog.String("component", "editor")),
		geometry:  geom,
		projector: projector,
		registry:  registry,
		shapes:    shapes,
		camera:    cam,
		drag:      drag.NewSession(registry, cfg.DragConfig(), logger),
		walls:     walltrace.NewSession(projector, cfg.WallConfig(), logger),
		pick:      pick,
		smoother:  preview.NewSmoother(cfg.Preview.FPS, cfg.Preview.Frequency, cfg.Preview.Damping),
		mode:      ModeSelect,
	}, nil
}

// Geometry returns the panorama geometry.
func (s *Session) Geometry() projection.Geometry {
	return s.geometry
}

// Registry returns the media registry. Mutate it only through the Session
// so gestures and pick buffers stay consistent.
func (s *Session) Registry() *media.Registry {
	return s.registry
}

// Camera returns the view camera.
func (s *Session) Camera() *render.Camera {
	return s.camera
}

// Shapes returns the mesh table used for drawing and picking.
func (s *Session) Shapes() *media.Shapes {
	return s.shapes
}

// PickBuffer returns the index pick buffer.
func (s *Session) PickBuffer() *pickbuffer.Buffer {
	return s.pick
}

// Mode returns the editing mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// SetMode switches the editing mode. Any gesture in progress is cancelled
// first; the registry is never touched by a switch.
func (s *Session) SetMode(m Mode) {
	if _, ok := modeNames[m]; !ok {
		s.log.Warn("unknown mode", slog.Int("mode", int(m)))
		return
	}
	s.cancelGestures("mode switch")
	if m == s.mode {
		return
	}
	s.log.Info("mode changed", slog.String("from", s.mode.String()), slog.String("to", m.String()))
	s.mode = m
}

// Blur handles loss of input focus by cancelling any gesture.
func (s *Session) Blur() {
	s.cancelGestures("input focus lost")
}

func (s *Session) cancelGestures(reason string) {
	if s.drag.Cancel() {
		s.log.Info("gesture cancelled", slog.String("reason", reason))
	}
	s.press = nil
	s.smoother.Reset()
}

// CameraEnabled reports whether the camera may be moved by the user. Only
// select mode frees the camera.
func (s *Session) CameraEnabled() bool {
	return s.mode == ModeSelect && !s.Dragging()
}

// OrbitCamera orbits the camera around target when the camera is enabled.
func (s *Session) OrbitCamera(target math3d.Vec3, radius, yaw, pitch float64) bool {
	if !s.CameraEnabled() {
		return false
	}
	s.camera.Orbit(target, radius, yaw, pitch)
	return true
}

// TransformMode returns what edit drags change.
func (s *Session) TransformMode() drag.Mode {
	return s.transformMode
}

// SetTransformMode chooses what edit drags change. It does not affect a
// drag already running.
func (s *Session) SetTransformMode(m drag.Mode) {
	s.transformMode = m
}

// Dragging reports whether an add or edit gesture is active.
func (s *Session) Dragging() bool {
	return s.drag.Phase() == drag.Active
}

// RegisterModel makes mesh the shape of Model objects with source src.
func (s *Session) RegisterModel(src string, mesh *models.Mesh) {
	s.shapes.RegisterModel(src, mesh)
	s.shapesDirty = true
}

// Tick advances one frame: the pick buffer is rebuilt if the registry or
// the camera changed since the last build (never during a drag) and the
// preview springs step.
func (s *Session) Tick() {
	if err := s.syncPick(); err != nil {
		s.log.Error("rebuild pick buffer", slog.Any("err", err))
	}
	if s.Dragging() {
		s.smoother.Update()
	}
}
