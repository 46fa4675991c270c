// Package transform defines the position/scale/orientation value type that
// every editing operation produces and the registry stores.
package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/panoedit/pkg/math3d"
)

var (
	// ErrNegativeScale is returned when a scale component is below zero.
	ErrNegativeScale = errors.New("transform: negative scale")
	// ErrNotNormalized is returned when the orientation is not a unit quaternion.
	ErrNotNormalized = errors.New("transform: orientation not normalized")
	// ErrNonFinite is returned when any component is NaN or infinite.
	ErrNonFinite = errors.New("transform: non-finite component")
)

// unitTolerance is how far |q| may drift from 1 before Validate complains.
const unitTolerance = 1e-6

// Transform places an object in the scene.
//
// Orientation is always a unit quaternion and Scale components are never
// negative. A zero scale component is legal and describes a degenerate,
// invisible object.
type Transform struct {
	Position    math3d.Vec3
	Scale       math3d.Vec3
	Orientation mgl64.Quat
}

// Identity returns the transform at the origin with unit scale and no rotation.
func Identity() Transform {
	return Transform{
		Scale:       math3d.One3(),
		Orientation: mgl64.QuatIdent(),
	}
}

// New builds a transform, normalizing the orientation and clamping negative
// scale components to zero so the invariants hold.
func New(position, scale math3d.Vec3, orientation mgl64.Quat) Transform {
	return Transform{
		Position:    position,
		Scale:       clampScale(scale),
		Orientation: normalizeQuat(orientation),
	}
}

// Uniform builds a transform with the same scale on every axis.
func Uniform(position math3d.Vec3, scale float64, orientation mgl64.Quat) Transform {
	return New(position, math3d.V3(scale, scale, scale), orientation)
}

// WithPosition returns a copy of t moved to p.
func (t Transform) WithPosition(p math3d.Vec3) Transform {
	t.Position = p
	return t
}

// WithScale returns a copy of t with scale s (negative components clamp to zero).
func (t Transform) WithScale(s math3d.Vec3) Transform {
	t.Scale = clampScale(s)
	return t
}

// WithOrientation returns a copy of t with the normalized orientation q.
func (t Transform) WithOrientation(q mgl64.Quat) Transform {
	t.Orientation = normalizeQuat(q)
	return t
}

// Matrix returns the model matrix T * R * S.
func (t Transform) Matrix() math3d.Mat4 {
	return math3d.Compose(t.Position, math3d.RotationMatrix(t.Orientation), t.Scale)
}

// Degenerate reports whether any scale component is zero.
func (t Transform) Degenerate() bool {
	return t.Scale.X == 0 || t.Scale.Y == 0 || t.Scale.Z == 0
}

// Validate checks the invariants: finite values, non-negative scale and a
// unit orientation.
func (t Transform) Validate() error {
	q := t.Orientation
	if !t.Position.IsFinite() || !t.Scale.IsFinite() ||
		!math3d.V3(q.V[0], q.V[1], q.V[2]).IsFinite() || math.IsNaN(q.W) || math.IsInf(q.W, 0) {
		return ErrNonFinite
	}
	if t.Scale.X < 0 || t.Scale.Y < 0 || t.Scale.Z < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeScale, t.Scale)
	}
	if math.Abs(q.Len()-1) > unitTolerance {
		return fmt.Errorf("%w: |q| = %v", ErrNotNormalized, q.Len())
	}
	return nil
}

// ApproxEqual compares two transforms component-wise. Quaternions q and -q
// describe the same rotation and compare equal.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	if !t.Position.ApproxEqual(o.Position, eps) || !t.Scale.ApproxEqual(o.Scale, eps) {
		return false
	}
	return math.Abs(math.Abs(t.Orientation.Dot(o.Orientation))-1) <= eps
}

func clampScale(s math3d.Vec3) math3d.Vec3 {
	return math3d.V3(math.Max(0, s.X), math.Max(0, s.Y), math.Max(0, s.Z))
}

func normalizeQuat(q mgl64.Quat) mgl64.Quat {
	if q.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

// wireTransform is the plain-data form shared with the persistence layer:
// vectors as arrays and the quaternion as [x, y, z, w].
type wireTransform struct {
	Position   [3]float64 `json:"position"`
	Scale      [3]float64 `json:"scale"`
	Quaternion [4]float64 `json:"quaternion"`
}

// MarshalJSON encodes the transform as plain arrays.
func (t Transform) MarshalJSON() ([]byte, error) {
	q := t.Orientation
	return json.Marshal(wireTransform{
		Position:   [3]float64{t.Position.X, t.Position.Y, t.Position.Z},
		Scale:      [3]float64{t.Scale.X, t.Scale.Y, t.Scale.Z},
		Quaternion: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
	})
}

// UnmarshalJSON decodes the array form and re-establishes the invariants.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var w wireTransform
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode transform: %w", err)
	}
	*t = New(
		math3d.V3(w.Position[0], w.Position[1], w.Position[2]),
		math3d.V3(w.Scale[0], w.Scale[1], w.Scale[2]),
		mgl64.Quat{W: w.Quaternion[3], V: mgl64.Vec3{w.Quaternion[0], w.Quaternion[1], w.Quaternion[2]}},
	)
	return nil
}
