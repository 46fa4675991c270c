package math3d

import "math"

// Ray is a half-line starting at Origin. Dir is expected to be normalized so
// that intersection parameters are world-space distances.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// NewRay creates a ray, normalizing the direction.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// IntersectPlane intersects the ray with the plane through point with the
// given normal. Parameters at or below eps are rejected so that hits behind
// (or numerically at) the origin never count. A ray parallel to the plane
// never hits.
func (r Ray) IntersectPlane(point, normal Vec3, eps float64) (t float64, ok bool) {
	denom := normal.Dot(r.Dir)
	if math.Abs(denom) < eps {
		return 0, false
	}
	t = point.Sub(r.Origin).Dot(normal) / denom
	if t <= eps || !isFinite(t) {
		return 0, false
	}
	return t, true
}

// IntersectPlaneY intersects the ray with the horizontal plane at height y.
func (r Ray) IntersectPlaneY(y, eps float64) (t float64, ok bool) {
	return r.IntersectPlane(Vec3{0, y, 0}, Up(), eps)
}

// IntersectTriangle runs the Möller–Trumbore test against triangle (a, b, c),
// regardless of winding. It returns the ray parameter and the unnormalized
// geometric normal oriented against the ray.
func (r Ray) IntersectTriangle(a, b, c Vec3, eps float64) (t float64, normal Vec3, ok bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < 1e-12 {
		return 0, Vec3{}, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, Vec3{}, false
	}

	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, Vec3{}, false
	}

	t = e2.Dot(q) * invDet
	if t <= eps {
		return 0, Vec3{}, false
	}

	normal = e1.Cross(e2)
	if normal.Dot(r.Dir) > 0 {
		normal = normal.Negate()
	}
	return t, normal, true
}

// IntersectBox runs the slab test against the box [min, max]. If the origin
// is inside the box the exit distance is returned.
func (r Ray) IntersectBox(min, max Vec3) (t float64, ok bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	o := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	d := [3]float64{r.Dir.X, r.Dir.Y, r.Dir.Z}
	lo := [3]float64{min.X, min.Y, min.Z}
	hi := [3]float64{max.X, max.Y, max.Z}

	for i := range 3 {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectVerticalCylinder intersects the ray with the inside or outside of
// an infinite vertical cylinder of the given radius around center. The
// nearest parameter above eps is returned.
func (r Ray) IntersectVerticalCylinder(center Vec3, radius, eps float64) (t float64, ok bool) {
	ox := r.Origin.X - center.X
	oz := r.Origin.Z - center.Z
	a := r.Dir.X*r.Dir.X + r.Dir.Z*r.Dir.Z
	if a < eps*eps {
		// Vertical ray: parallel to the cylinder wall.
		return 0, false
	}
	b := 2 * (ox*r.Dir.X + oz*r.Dir.Z)
	c := ox*ox + oz*oz - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	if t0 > eps {
		return t0, true
	}
	if t1 > eps {
		return t1, true
	}
	return 0, false
}
