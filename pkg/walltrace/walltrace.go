// Package walltrace builds a floor-plan polyline from clicks on the
// panorama. Clicks close to an existing vertex on screen snap to it, and
// snapping back to the first vertex closes the outline.
package walltrace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/projection"
)

// Snap defaults: a 5 pixel radius on a 720 pixel tall view.
const (
	DefaultThresholdPx       = 5
	DefaultReferenceHeightPx = 720
)

// MinClosedVertices is the smallest vertex count that can close.
const MinClosedVertices = 3

// View is the camera a click is made through.
type View interface {
	Ray(nx, ny float64) math3d.Ray
	WorldToNormalized(p math3d.Vec3) (math3d.Vec2, bool)
	Aspect() float64
}

// Config controls snapping and the plane clicks land on.
type Config struct {
	ThresholdPx       float64
	ReferenceHeightPx float64
	// Surface is Floor or Ceiling.
	Surface projection.Mode
}

// DefaultConfig snaps within 5px of 720 on the floor.
func DefaultConfig() Config {
	return Config{
		ThresholdPx:       DefaultThresholdPx,
		ReferenceHeightPx: DefaultReferenceHeightPx,
		Surface:           projection.Floor,
	}
}

// threshold is the snap radius in normalized screen-height units.
func (c Config) threshold() float64 {
	px, ref := c.ThresholdPx, c.ReferenceHeightPx
	if !(px >= 0) {
		px = DefaultThresholdPx
	}
	if !(ref > 0) {
		ref = DefaultReferenceHeightPx
	}
	return px / ref
}

// Polyline is an outline on the floor plan. Points hold world X and Z.
type Polyline struct {
	Points []math3d.Vec2
	Closed bool
}

// Len returns the number of vertices.
func (p Polyline) Len() int {
	return len(p.Points)
}

// Loop returns the vertices in drawing order. A closed outline repeats its
// first vertex at the end.
func (p Polyline) Loop() []math3d.Vec2 {
	out := append([]math3d.Vec2(nil), p.Points...)
	if p.Closed && len(out) > 0 {
		out = append(out, out[0])
	}
	return out
}

// Clone returns a copy that shares no storage with p.
func (p Polyline) Clone() Polyline {
	return Polyline{Points: append([]math3d.Vec2(nil), p.Points...), Closed: p.Closed}
}

type polylineJSON struct {
	Points [][2]float64 `json:"points"`
	Closed bool         `json:"closed"`
}

func (p Polyline) MarshalJSON() ([]byte, error) {
	out := polylineJSON{Points: make([][2]float64, len(p.Points)), Closed: p.Closed}
	for i, v := range p.Points {
		out.Points[i] = [2]float64{v.X, v.Y}
	}
	return json.Marshal(out)
}

func (p *Polyline) UnmarshalJSON(data []byte) error {
	var in polylineJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode polyline: %w", err)
	}
	p.Points = make([]math3d.Vec2, len(in.Points))
	for i, v := range in.Points {
		p.Points[i] = math3d.V2(v[0], v[1])
	}
	p.Closed = in.Closed && len(p.Points) >= MinClosedVertices
	return nil
}

// ClickResult reports what a click did.
type ClickResult int

const (
	// Unresolved: the click did not land on the tracing plane.
	Unresolved ClickResult = iota
	// Appended: a new vertex was added.
	Appended
	// Snapped: the click merged into an existing vertex and changed nothing.
	Snapped
	// Closed: the click snapped to the first vertex and closed the outline.
	Closed
	// Ignored: the outline is already closed.
	Ignored
)

func (r ClickResult) String() string {
	switch r {
	case Unresolved:
		return "unresolved"
	case Appended:
		return "appended"
	case Snapped:
		return "snapped"
	case Closed:
		return "closed"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("ClickResult(%d)", int(r))
	}
}

// Session is the wall tracing state machine.
type Session struct {
	cfg       Config
	projector projection.Projector
	log       *slog.Logger
	line      Polyline
}

// NewSession starts an empty trace on geometry's floor (or ceiling). A nil
// logger uses slog.Default().
func NewSession(projector projection.Projector, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Surface != projection.Ceiling {
		cfg.Surface = projection.Floor
	}
	return &Session{
		cfg:       cfg,
		projector: projector,
		log:       logger.With(slog.String("component", "walltrace")),
	}
}

// Polyline returns a copy of the current outline.
func (s *Session) Polyline() Polyline {
	return s.line.Clone()
}

// Load replaces the outline, as when a saved layout is restored.
func (s *Session) Load(p Polyline) {
	s.line = p.Clone()
	if s.line.Len() < MinClosedVertices {
		s.line.Closed = false
	}
}

// Reset clears the outline.
func (s *Session) Reset() {
	s.line = Polyline{}
}

// Undo removes the last vertex, or reopens a closed outline. It reports
// whether anything changed.
func (s *Session) Undo() bool {
	switch {
	case s.line.Closed:
		s.line.Closed = false
	case s.line.Len() > 0:
		s.line.Points = s.line.Points[:s.line.Len()-1]
	default:
		return false
	}
	return true
}

// planeY is the height of the tracing plane.
func (s *Session) planeY() float64 {
	if s.cfg.Surface == projection.Ceiling {
		return s.projector.Geometry.CeilingY
	}
	return s.projector.Geometry.FloorY
}

// World returns vertex i lifted onto the tracing plane.
func (s *Session) World(i int) math3d.Vec3 {
	v := s.line.Points[i]
	return math3d.V3(v.X, s.planeY(), v.Y)
}

// Click handles a click at normalized screen coordinate (nx, ny) made
// through view.
func (s *Session) Click(nx, ny float64, view View) ClickResult {
	if s.line.Closed {
		s.log.Debug("click ignored on closed outline")
		return Ignored
	}
	p, ok := s.projector.ProjectScreen(view, s.cfg.Surface, nx, ny)
	if !ok {
		s.log.Debug("click did not resolve", slog.Float64("x", nx), slog.Float64("y", ny))
		return Unresolved
	}

	if i, ok := s.snap(math3d.V2(nx, ny), view); ok {
		if i == 0 && s.line.Len() >= MinClosedVertices {
			s.line.Closed = true
			s.log.Info("outline closed", slog.Int("vertices", s.line.Len()))
			return Closed
		}
		return Snapped
	}

	pt := p.XZ()
	if n := s.line.Len(); n > 0 && s.line.Points[n-1].ApproxEqual(pt, projection.DefaultEpsilon) {
		return Snapped
	}
	s.line.Points = append(s.line.Points, pt)
	return Appended
}

// snap returns the vertex nearest to click on screen within the snap
// radius. Vertices are re-projected every time since the camera may have
// moved since they were placed.
func (s *Session) snap(click math3d.Vec2, view View) (int, bool) {
	aspect := view.Aspect()
	if !(aspect > 0) {
		aspect = 1
	}
	limit := s.cfg.threshold()

	best, bestDist := -1, math.Inf(1)
	for i := range s.line.Points {
		sp, ok := view.WorldToNormalized(s.World(i))
		if !ok {
			continue
		}
		d := math.Hypot((sp.X-click.X)*aspect, sp.Y-click.Y)
		if d <= limit && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}
