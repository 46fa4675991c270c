// Package picking casts pointer rays into the scene and finds the nearest
// object they hit, testing every triangle of the object's true geometry.
package picking

import (
	"math"

	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/projection"
	"github.com/taigrr/panoedit/pkg/render"
)

// TieEpsilon is the distance under which two hits count as equally near.
// The later candidate wins such ties.
const TieEpsilon = 1e-6

// Candidate is one object that can be hit: its registry index, local-space
// mesh and model matrix.
type Candidate struct {
	Index     int
	Mesh      render.BoundedMeshRenderer
	Transform math3d.Mat4
}

// Hit describes the nearest intersection found by a pick.
type Hit struct {
	Index    int
	Point    math3d.Vec3
	Normal   math3d.Vec3 // unit normal facing the ray origin
	Distance float64
}

// Pick casts the ray through normalized screen coordinate (nx, ny) of cam
// and returns the nearest candidate it hits.
func Pick(nx, ny float64, cam projection.RayCaster, candidates []Candidate) (Hit, bool) {
	return PickRay(cam.Ray(nx, ny), candidates)
}

// PickRay returns the candidate hit nearest to the ray origin. Candidates
// with a singular or non-finite transform are skipped.
func PickRay(ray math3d.Ray, candidates []Candidate) (Hit, bool) {
	if !ray.Origin.IsFinite() || !ray.Dir.IsFinite() || ray.Dir.LenSq() == 0 {
		return Hit{}, false
	}

	// nearest is the smallest distance seen. It stays apart from best so a
	// chain of near-ties cannot creep past the true minimum.
	var best Hit
	nearest := math.Inf(1)
	found := false
	for _, c := range candidates {
		if c.Mesh == nil || !usable(c.Transform) {
			continue
		}
		lo, hi := c.Mesh.GetBounds()
		box := render.AABB{Min: lo, Max: hi}.Transform(c.Transform)
		enter, ok := box.IntersectRay(ray)
		if !ok {
			continue
		}
		if box.ContainsPoint(ray.Origin) {
			enter = 0
		}
		if enter > nearest+TieEpsilon {
			continue
		}

		t, n, ok := intersectMesh(ray, c.Mesh, c.Transform)
		if !ok {
			continue
		}
		// Later candidates sit on top, so they take near-ties.
		if t < nearest+TieEpsilon {
			best = Hit{Index: c.Index, Point: ray.At(t), Normal: n.Normalize(), Distance: t}
			found = true
		}
		nearest = math.Min(nearest, t)
	}
	return best, found
}

func intersectMesh(ray math3d.Ray, mesh render.MeshRenderer, m math3d.Mat4) (t float64, normal math3d.Vec3, ok bool) {
	t = math.Inf(1)
	for i := range mesh.TriangleCount() {
		f := mesh.GetFace(i)
		a, _ := mesh.GetVertex(f[0])
		b, _ := mesh.GetVertex(f[1])
		c, _ := mesh.GetVertex(f[2])
		ti, ni, hit := ray.IntersectTriangle(m.MulVec3(a), m.MulVec3(b), m.MulVec3(c), projection.DefaultEpsilon)
		if hit && ti < t {
			t, normal, ok = ti, ni, true
		}
	}
	return t, normal, ok
}

func usable(m math3d.Mat4) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return math.Abs(m.Determinant()) > 1e-12
}
