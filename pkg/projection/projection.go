// Package projection maps normalized screen and panorama coordinates to 3D
// rays and to points constrained to the floor, the ceiling or the panorama
// wall.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/panoedit/pkg/math3d"
)

// DefaultEpsilon is the smallest ray parameter accepted as a hit.
const DefaultEpsilon = 1e-6

// DefaultWallRadius is the radius of the cylindrical panorama boundary used
// when no explicit radius is configured.
const DefaultWallRadius = 5.0

// ErrInvalidGeometry is returned when the ceiling is not above the floor.
var ErrInvalidGeometry = errors.New("projection: ceiling must be above floor")

// Geometry describes the room captured by the panorama. It is fixed for the
// lifetime of an editing session.
type Geometry struct {
	FloorY   float64     `json:"floorY"`
	CeilingY float64     `json:"ceilingY"`
	Origin   math3d.Vec3 `json:"panoramaOrigin"`
}

// Validate reports whether the geometry describes a room with height.
func (g Geometry) Validate() error {
	if !(g.CeilingY > g.FloorY) {
		return fmt.Errorf("%w: floor %v, ceiling %v", ErrInvalidGeometry, g.FloorY, g.CeilingY)
	}
	if !g.Origin.IsFinite() {
		return fmt.Errorf("%w: origin %v", ErrInvalidGeometry, g.Origin)
	}
	return nil
}

// Height returns the distance between floor and ceiling.
func (g Geometry) Height() float64 {
	return g.CeilingY - g.FloorY
}

// Mode selects the surface a ray is projected onto.
type Mode int

const (
	Floor Mode = iota
	Ceiling
	Wall
)

func (m Mode) String() string {
	switch m {
	case Floor:
		return "floor"
	case Ceiling:
		return "ceiling"
	case Wall:
		return "wall"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// RayCaster builds a world-space ray through a normalized screen coordinate,
// with (0, 0) at the top-left and (1, 1) at the bottom-right.
// render.Camera implements it.
type RayCaster interface {
	Ray(nx, ny float64) math3d.Ray
}

// Projector projects rays onto the surfaces of a Geometry.
type Projector struct {
	Geometry   Geometry
	Epsilon    float64
	WallRadius float64
}

// NewProjector returns a projector with the default epsilon and wall radius.
func NewProjector(geom Geometry) Projector {
	return Projector{
		Geometry:   geom,
		Epsilon:    DefaultEpsilon,
		WallRadius: DefaultWallRadius,
	}
}

func (p Projector) eps() float64 {
	if p.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return p.Epsilon
}

// Project intersects ray with the surface selected by mode. It returns false
// when the ray is parallel to the surface, when the intersection lies behind
// the ray origin, or when a wall hit falls outside the floor-to-ceiling band.
func (p Projector) Project(mode Mode, ray math3d.Ray) (math3d.Vec3, bool) {
	if !ray.Origin.IsFinite() || !ray.Dir.IsFinite() || ray.Dir.LenSq() == 0 {
		return math3d.Vec3{}, false
	}
	ray.Dir = ray.Dir.Normalize()
	eps := p.eps()

	var (
		t  float64
		ok bool
	)
	switch mode {
	case Floor:
		t, ok = ray.IntersectPlaneY(p.Geometry.FloorY, eps)
	case Ceiling:
		t, ok = ray.IntersectPlaneY(p.Geometry.CeilingY, eps)
	case Wall:
		radius := p.WallRadius
		if radius <= 0 {
			radius = DefaultWallRadius
		}
		t, ok = ray.IntersectVerticalCylinder(p.Geometry.Origin, radius, eps)
	default:
		return math3d.Vec3{}, false
	}
	if !ok {
		return math3d.Vec3{}, false
	}

	hit := ray.At(t)
	if !hit.IsFinite() {
		return math3d.Vec3{}, false
	}
	if mode == Wall && (hit.Y < p.Geometry.FloorY-eps || hit.Y > p.Geometry.CeilingY+eps) {
		return math3d.Vec3{}, false
	}
	return hit, true
}

// ProjectScreen builds the camera ray through (nx, ny) and projects it.
func (p Projector) ProjectScreen(cam RayCaster, mode Mode, nx, ny float64) (math3d.Vec3, bool) {
	if !finite2(nx, ny) {
		return math3d.Vec3{}, false
	}
	return p.Project(mode, cam.Ray(nx, ny))
}

// ProjectToFloor intersects the camera ray through a normalized screen
// coordinate with the floor plane. The ray itself is supplied by the caller;
// the coordinate only has to be finite.
func ProjectToFloor(nx, ny float64, geom Geometry, rayOrigin, rayDir math3d.Vec3) (math3d.Vec3, bool) {
	if !finite2(nx, ny) {
		return math3d.Vec3{}, false
	}
	return NewProjector(geom).Project(Floor, math3d.Ray{Origin: rayOrigin, Dir: rayDir})
}

func finite2(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsNaN(b) && !math.IsInf(a, 0) && !math.IsInf(b, 0)
}
