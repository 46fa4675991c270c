package projection

import (
	"math"

	"github.com/taigrr/panoedit/pkg/math3d"
)

// Equirectangular panoramas map u to longitude and v to latitude. u = 0.5,
// v = 0.5 looks down -Z; u grows to the right (towards +X) and v grows
// downwards.

// DirectionFromUV returns the unit view direction for panorama texture
// coordinate (u, v).
func DirectionFromUV(u, v float64) math3d.Vec3 {
	lon := (u - 0.5) * 2 * math.Pi
	lat := (0.5 - v) * math.Pi
	cosLat := math.Cos(lat)
	return math3d.V3(
		math.Sin(lon)*cosLat,
		math.Sin(lat),
		-math.Cos(lon)*cosLat,
	)
}

// UVFromDirection is the inverse of DirectionFromUV. A zero direction maps
// to the panorama center.
func UVFromDirection(dir math3d.Vec3) (u, v float64) {
	if dir.LenSq() == 0 {
		return 0.5, 0.5
	}
	d := dir.Normalize()
	lon := math.Atan2(d.X, -d.Z)
	lat := math.Asin(math.Max(-1, math.Min(1, d.Y)))
	u = lon/(2*math.Pi) + 0.5
	v = 0.5 - lat/math.Pi
	return u, v
}

// RayFromPanorama returns the ray from the panorama origin through texture
// coordinate (u, v).
func RayFromPanorama(geom Geometry, u, v float64) math3d.Ray {
	return math3d.Ray{Origin: geom.Origin, Dir: DirectionFromUV(u, v)}
}

// FloorPointFromPanorama projects a panorama texture coordinate onto the
// floor, returning the hit in the horizontal XZ plane.
func (p Projector) FloorPointFromPanorama(u, v float64) (math3d.Vec2, bool) {
	if !finite2(u, v) {
		return math3d.Vec2{}, false
	}
	hit, ok := p.Project(Floor, RayFromPanorama(p.Geometry, u, v))
	if !ok {
		return math3d.Vec2{}, false
	}
	return hit.XZ(), true
}

// PanoramaUVFromFloor returns the texture coordinate at which a floor point
// appears in the panorama.
func (p Projector) PanoramaUVFromFloor(pt math3d.Vec2) (u, v float64) {
	return UVFromDirection(math3d.V3(pt.X, p.Geometry.FloorY, pt.Y).Sub(p.Geometry.Origin))
}
