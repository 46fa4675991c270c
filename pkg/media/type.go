// Package media holds the placed media objects: their types, the registry
// that owns them in order, and the focus state used for editing.
package media

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/panoedit/pkg/math3d"
)

// ErrUnknownType is returned when parsing an unrecognized type name.
var ErrUnknownType = errors.New("media: unknown type")

// Type is the kind of a media object. Each type supplies its own bounding
// shape and its own rule for orienting a freshly placed object.
type Type int

const (
	Placeholder3D Type = iota
	Placeholder2D
	Model
)

// Types lists every known type in display order.
var Types = []Type{Placeholder3D, Placeholder2D, Model}

var typeNames = map[Type]string{
	Placeholder3D: "placeholder3d",
	Placeholder2D: "placeholder2d",
	Model:         "model",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType is the inverse of Type.String.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// MarshalText encodes the type by name.
func (t Type) MarshalText() ([]byte, error) {
	name, ok := typeNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a type name.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Flat reports whether objects of this type are planar.
func (t Type) Flat() bool {
	return t == Placeholder2D
}

// Orientation returns the orientation of a new object of this type placed
// at anchor and seen from viewer.
//
// Flat types turn about the world up axis so that their local +Z faces the
// viewer's horizontal position. Solid types stay upright, or stand on the
// surface when its normal is known.
func (t Type) Orientation(anchor, viewer, normal math3d.Vec3, hasNormal bool) mgl64.Quat {
	if t.Flat() {
		d := viewer.Sub(anchor)
		if math.Hypot(d.X, d.Z) < 1e-9 {
			return mgl64.QuatIdent()
		}
		return math3d.YawQuat(math.Atan2(d.X, d.Z))
	}
	if hasNormal && normal.LenSq() > 0 {
		return math3d.AlignQuat(math3d.Up(), normal)
	}
	return mgl64.QuatIdent()
}

// DefaultPayload returns the payload a new object of this type starts with.
func (t Type) DefaultPayload() map[string]any {
	switch t {
	case Model:
		return map[string]any{
			PayloadSrc:  "",
			PayloadClip: "",
			PayloadTime: 0.0,
		}
	default:
		return map[string]any{}
	}
}

// Payload keys understood for Model objects.
const (
	PayloadSrc  = "src"
	PayloadClip = "clip"
	PayloadTime = "time"
)
