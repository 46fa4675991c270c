// Package drag turns pointer gestures into object transforms. A gesture
// either places a new object (add) or edits the transform of an existing
// one (edit); the result is written to the media registry only when the
// pointer is released.
package drag

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/media"
	"github.com/taigrr/panoedit/pkg/transform"
)

// Default scale mapping for add gestures.
const (
	DefaultMinScale     = 0.1
	DefaultScalePerUnit = 1.0
)

// ErrActive is returned by PointerDown while a gesture is already running.
var ErrActive = errors.New("drag: gesture already active")

// Phase is the state of a Session.
type Phase int

const (
	Idle Phase = iota
	Active
	// Committed is reported only by the Result of PointerUp; the session
	// itself is back to Idle by the time the caller sees it.
	Committed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Mode selects what an edit gesture changes.
type Mode int

const (
	Translate Mode = iota
	Rotate
	Scale
)

func (m Mode) String() string {
	switch m {
	case Translate:
		return "translate"
	case Rotate:
		return "rotate"
	case Scale:
		return "scale"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Target says what a gesture produces.
type Target struct {
	add   bool
	Type  media.Type
	Index int
	Mode  Mode
}

// Add targets a new object of type t.
func Add(t media.Type) Target {
	return Target{add: true, Type: t, Index: media.NoFocus}
}

// Edit targets the object at index, changing what mode selects.
func Edit(index int, mode Mode) Target {
	return Target{Index: index, Mode: mode}
}

// IsAdd reports whether the target creates a new object.
func (t Target) IsAdd() bool {
	return t.add
}

// Hit is a resolved point under the pointer.
type Hit struct {
	Point     math3d.Vec3
	Normal    math3d.Vec3
	HasNormal bool
}

// Scene resolves pointer positions for a gesture.
type Scene interface {
	// Resolve returns the surface point under normalized coordinate
	// (nx, ny). ok is false when nothing is under the pointer.
	Resolve(nx, ny float64) (hit Hit, ok bool)
	// Viewer returns the world position flat objects turn to face.
	Viewer() math3d.Vec3
}

// Config holds the scale mapping of add gestures: the committed uniform
// scale is max(MinScale, ScalePerUnit*d), d being the planar drag distance.
type Config struct {
	MinScale     float64
	ScalePerUnit float64
}

// DefaultConfig returns the default scale mapping.
func DefaultConfig() Config {
	return Config{MinScale: DefaultMinScale, ScalePerUnit: DefaultScalePerUnit}
}

func (c Config) normalized() Config {
	if !(c.MinScale > 0) {
		c.MinScale = DefaultMinScale
	}
	if !(c.ScalePerUnit > 0) {
		c.ScalePerUnit = DefaultScalePerUnit
	}
	return c
}

// Result describes a committed gesture.
type Result struct {
	Phase     Phase
	Index     int
	Added     bool
	Transform transform.Transform
}

// Session is the drag state machine. It is driven from a single event
// timeline and is not safe for concurrent use.
type Session struct {
	cfg      Config
	registry *media.Registry
	log      *slog.Logger

	phase   Phase
	target  Target
	scene   Scene
	anchor  Hit
	start   transform.Transform
	current transform.Transform
}

// NewSession creates an idle session committing to registry. A nil logger
// uses slog.Default().
func NewSession(registry *media.Registry, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:      cfg.normalized(),
		registry: registry,
		log:      logger.With(slog.String("component", "drag")),
	}
}

// Config returns the session's scale mapping.
func (s *Session) Config() Config {
	return s.cfg
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Target returns the target of the active gesture.
func (s *Session) Target() (Target, bool) {
	return s.target, s.phase == Active
}

// Anchor returns the point the active gesture started on.
func (s *Session) Anchor() (Hit, bool) {
	return s.anchor, s.phase == Active
}

// Preview returns the transform the active gesture would commit now.
func (s *Session) Preview() (transform.Transform, bool) {
	return s.current, s.phase == Active
}

// PointerDown starts a gesture at (nx, ny). When nothing resolves under
// the pointer the session stays Idle and started is false.
func (s *Session) PointerDown(target Target, nx, ny float64, scene Scene) (started bool, err error) {
	if s.phase == Active {
		return false, ErrActive
	}
	hit, ok := scene.Resolve(nx, ny)
	if !ok {
		s.log.Debug("pointer down resolved nothing", slog.Float64("x", nx), slog.Float64("y", ny))
		return false, nil
	}

	if target.IsAdd() {
		s.start = s.placement(target.Type, hit, scene.Viewer(), 0)
	} else {
		obj, err := s.registry.At(target.Index)
		if err != nil {
			return false, fmt.Errorf("start edit: %w", err)
		}
		s.start = obj.Transform
	}

	s.phase = Active
	s.target = target
	s.scene = scene
	s.anchor = hit
	s.current = s.start
	s.log.Debug("gesture started", slog.Bool("add", target.IsAdd()), slog.Int("index", target.Index), slog.String("mode", target.Mode.String()))
	return true, nil
}

// PointerMove recomputes the preview transform from the pointer position.
// Moves outside a gesture are dropped. A move that resolves nothing keeps
// the previous preview.
func (s *Session) PointerMove(nx, ny float64) bool {
	if s.phase != Active {
		s.log.Debug("dropped late pointer move", slog.String("phase", s.phase.String()))
		return false
	}
	hit, ok := s.scene.Resolve(nx, ny)
	if !ok {
		return false
	}

	if s.target.IsAdd() {
		d := planarDistance(s.anchor, hit.Point)
		s.current = s.placement(s.target.Type, s.anchor, s.scene.Viewer(), d)
		return true
	}

	switch s.target.Mode {
	case Translate:
		s.current = s.start.WithPosition(hit.Point)
	case Rotate:
		s.current = s.start.WithOrientation(s.rotated(hit.Point))
	case Scale:
		s.current = s.start.WithScale(s.scaled(hit.Point))
	}
	return true
}

// PointerUp commits the last preview transform: a new object is appended
// in add gestures, the target's transform is overwritten in edit gestures.
// The session is Idle afterwards whether or not the commit succeeds.
func (s *Session) PointerUp() (Result, error) {
	if s.phase != Active {
		s.log.Debug("dropped late pointer up", slog.String("phase", s.phase.String()))
		return Result{Phase: s.phase}, nil
	}
	target, tr := s.target, s.current
	s.reset()

	if target.IsAdd() {
		obj := media.NewObject(target.Type, tr)
		index := s.registry.Append(obj)
		s.log.Info("object added",
			slog.Int("index", index),
			slog.String("type", target.Type.String()),
			slog.String("id", obj.ID.String()))
		return Result{Phase: Committed, Index: index, Added: true, Transform: tr}, nil
	}

	if err := s.registry.SetTransform(target.Index, tr); err != nil {
		return Result{Phase: Idle}, fmt.Errorf("commit edit: %w", err)
	}
	s.log.Info("object transformed", slog.Int("index", target.Index), slog.String("mode", target.Mode.String()))
	return Result{Phase: Committed, Index: target.Index, Transform: tr}, nil
}

// Cancel discards an active gesture without touching the registry.
func (s *Session) Cancel() bool {
	if s.phase != Active {
		return false
	}
	s.log.Debug("gesture cancelled", slog.Bool("add", s.target.IsAdd()))
	s.reset()
	return true
}

func (s *Session) reset() {
	s.phase = Idle
	s.target = Target{}
	s.scene = nil
	s.anchor = Hit{}
	s.start = transform.Transform{}
	s.current = transform.Transform{}
}

// placement is the transform of a new object of type t anchored at hit
// after a drag of planar length d.
func (s *Session) placement(t media.Type, hit Hit, viewer math3d.Vec3, d float64) transform.Transform {
	scale := math.Max(s.cfg.MinScale, s.cfg.ScalePerUnit*d)
	return transform.Uniform(hit.Point, scale, t.Orientation(hit.Point, viewer, hit.Normal, hit.HasNormal))
}

// rotated turns the start orientation about world up by the angle swept
// around the object's position from the anchor to p.
func (s *Session) rotated(p math3d.Vec3) mgl64.Quat {
	center := s.start.Position.XZ()
	from := s.anchor.Point.XZ().Sub(center)
	to := p.XZ().Sub(center)
	if from.Len() < 1e-9 || to.Len() < 1e-9 {
		return s.start.Orientation
	}
	// A positive XZ cross turns +X toward +Z, which is a negative yaw.
	angle := -math.Atan2(from.Cross(to), from.Dot(to))
	return math3d.YawQuat(angle).Mul(s.start.Orientation).Normalize()
}

// scaled multiplies the start scale by the ratio of planar distances from
// the object's position to p and to the anchor.
func (s *Session) scaled(p math3d.Vec3) math3d.Vec3 {
	center := s.start.Position.XZ()
	d0 := s.anchor.Point.XZ().Distance(center)
	d1 := p.XZ().Distance(center)
	if d0 < 1e-9 {
		return s.start.Scale
	}
	k := d1 / d0
	sc := s.start.Scale.Scale(k)
	return math3d.V3(
		math.Max(sc.X, s.cfg.MinScale),
		math.Max(sc.Y, s.cfg.MinScale),
		math.Max(sc.Z, s.cfg.MinScale),
	)
}

// planarDistance measures p against the anchor in the anchor's surface
// plane, or on the floor plane when the surface normal is unknown.
func planarDistance(anchor Hit, p math3d.Vec3) float64 {
	d := p.Sub(anchor.Point)
	if anchor.HasNormal && anchor.Normal.LenSq() > 0 {
		return d.RejectFrom(anchor.Normal.Normalize()).Len()
	}
	return d.XZ().Len()
}
