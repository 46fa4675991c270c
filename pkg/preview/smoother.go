// Package preview eases the on-screen preview of a drag toward the
// transform the drag would commit, using damped springs.
package preview

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/transform"
)

// Spring defaults: moderate speed, critically damped.
const (
	DefaultFPS       = 30
	DefaultFrequency = 6.0
	DefaultDamping   = 1.0
)

// axis is one spring-driven value.
type axis struct {
	pos, vel float64
}

func (a *axis) update(s harmonica.Spring, target float64) {
	a.pos, a.vel = s.Update(a.pos, a.vel, target)
}

// Smoother follows a target transform. Position and scale components each
// ride their own spring; orientation blends from the last displayed
// orientation to the target along a spring-driven slerp.
type Smoother struct {
	spring harmonica.Spring

	pos   [3]axis
	scale [3]axis
	from  mgl64.Quat
	blend axis

	target transform.Transform
	active bool
}

// NewSmoother creates a smoother stepped fps times a second. Non-positive
// arguments take the defaults.
func NewSmoother(fps int, frequency, damping float64) *Smoother {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if frequency <= 0 {
		frequency = DefaultFrequency
	}
	if damping <= 0 {
		damping = DefaultDamping
	}
	return &Smoother{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

// SetTarget moves the target. The first target after a Reset is shown
// immediately.
func (s *Smoother) SetTarget(tr transform.Transform) {
	if !s.active {
		s.snap(tr)
		return
	}
	if !quatNear(tr.Orientation, s.target.Orientation) {
		s.from = s.orientation()
		s.blend = axis{}
	}
	s.target = tr
}

func (s *Smoother) snap(tr transform.Transform) {
	s.target = tr
	s.active = true
	s.from = tr.Orientation
	s.blend = axis{pos: 1}
	p, sc := vecArray(tr.Position), vecArray(tr.Scale)
	for i := range 3 {
		s.pos[i] = axis{pos: p[i]}
		s.scale[i] = axis{pos: sc[i]}
	}
}

// Update advances the springs by one frame and returns the transform to
// draw.
func (s *Smoother) Update() transform.Transform {
	if !s.active {
		return transform.Identity()
	}
	p, sc := vecArray(s.target.Position), vecArray(s.target.Scale)
	for i := range 3 {
		s.pos[i].update(s.spring, p[i])
		s.scale[i].update(s.spring, sc[i])
	}
	s.blend.update(s.spring, 1)
	return s.Current()
}

// Current returns the transform to draw without advancing.
func (s *Smoother) Current() transform.Transform {
	if !s.active {
		return transform.Identity()
	}
	return transform.New(
		math3d.V3(s.pos[0].pos, s.pos[1].pos, s.pos[2].pos),
		math3d.V3(s.scale[0].pos, s.scale[1].pos, s.scale[2].pos),
		s.orientation(),
	)
}

func (s *Smoother) orientation() mgl64.Quat {
	t := math.Max(0, math.Min(1, s.blend.pos))
	return mgl64.QuatSlerp(s.from, s.target.Orientation, t)
}

// Active reports whether a target is set.
func (s *Smoother) Active() bool {
	return s.active
}

// Settled reports whether the displayed transform is within eps of the
// target.
func (s *Smoother) Settled(eps float64) bool {
	return !s.active || s.Current().ApproxEqual(s.target, eps)
}

// Reset drops the target; the next one is shown without easing.
func (s *Smoother) Reset() {
	*s = Smoother{spring: s.spring}
}

func vecArray(v math3d.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func quatNear(a, b mgl64.Quat) bool {
	return math.Abs(math.Abs(a.Dot(b))-1) < 1e-12
}
