package main

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/panoedit/pkg/math3d"
)

const (
	minRadius = 0.1
	maxRadius = 4.5
)

// OrbitAxis eases one orbit parameter toward its goal with a spring.
type OrbitAxis struct {
	Position float64
	Goal     float64
	velocity float64
	spring   harmonica.Spring
}

// NewOrbitAxis creates an axis at pos with a critically damped spring.
func NewOrbitAxis(fps int, pos float64) OrbitAxis {
	return OrbitAxis{
		Position: pos,
		Goal:     pos,
		// Frequency 6.0 = quick settle, damping 1.0 = no overshoot
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
}

// Update steps the spring and reports whether the axis moved.
func (a *OrbitAxis) Update() bool {
	if math.Abs(a.Goal-a.Position) < 1e-4 && math.Abs(a.velocity) < 1e-4 {
		if a.Position == a.Goal {
			return false
		}
		a.Position, a.velocity = a.Goal, 0
		return true
	}
	a.Position, a.velocity = a.spring.Update(a.Position, a.velocity, a.Goal)
	return true
}

// Orbit is the camera rig: yaw, pitch and radius around a fixed target.
type Orbit struct {
	Target math3d.Vec3

	yaw, pitch, radius OrbitAxis
	pending            bool
}

// NewOrbit creates a rig around target, looking down -Z.
func NewOrbit(fps int, target math3d.Vec3) *Orbit {
	return &Orbit{
		Target:  target,
		yaw:     NewOrbitAxis(fps, 0),
		pitch:   NewOrbitAxis(fps, 0),
		radius:  NewOrbitAxis(fps, 1),
		pending: true,
	}
}

// Turn moves the yaw and pitch goals.
func (o *Orbit) Turn(dyaw, dpitch float64) {
	const maxPitch = math.Pi/2 - 0.05
	o.yaw.Goal += dyaw
	o.pitch.Goal = math.Max(-maxPitch, math.Min(maxPitch, o.pitch.Goal+dpitch))
}

// Zoom moves the radius goal.
func (o *Orbit) Zoom(d float64) {
	o.radius.Goal = math.Max(minRadius, math.Min(maxRadius, o.radius.Goal+d))
}

// Update steps all springs. Changes accumulate until Applied.
func (o *Orbit) Update() {
	moved := o.yaw.Update()
	moved = o.pitch.Update() || moved
	moved = o.radius.Update() || moved
	o.pending = o.pending || moved
}

// Pending reports whether the rig changed since the camera last followed it.
func (o *Orbit) Pending() bool {
	return o.pending
}

// Applied records that the camera follows the rig.
func (o *Orbit) Applied() {
	o.pending = false
}

func (o *Orbit) Yaw() float64    { return o.yaw.Position }
func (o *Orbit) Pitch() float64  { return o.pitch.Position }
func (o *Orbit) Radius() float64 { return o.radius.Position }
