package editor

import (
	"math"

	"github.com/taigrr/panoedit/pkg/drag"
	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/media"
	"github.com/taigrr/panoedit/pkg/picking"
	"github.com/taigrr/panoedit/pkg/projection"
)

// scene resolves pointer positions for drags: placed objects first, then
// the traced room shell, then the panorama's floor, ceiling and wall.
type scene struct {
	s       *Session
	exclude int
}

var _ drag.Scene = scene{}

func (sc scene) Viewer() math3d.Vec3 {
	return sc.s.camera.Position
}

func (sc scene) Resolve(nx, ny float64) (drag.Hit, bool) {
	ray := sc.s.camera.Ray(nx, ny)
	if hit, ok := picking.PickRay(ray, sc.s.rayCandidates(sc.exclude)); ok {
		return drag.Hit{Point: hit.Point, Normal: hit.Normal, HasNormal: true}, true
	}
	if room := sc.s.roomMesh(); room != nil {
		c := []picking.Candidate{{Index: -1, Mesh: room, Transform: math3d.Identity()}}
		if hit, ok := picking.PickRay(ray, c); ok {
			return drag.Hit{Point: hit.Point, Normal: hit.Normal, HasNormal: true}, true
		}
	}
	return sc.s.projectSurfaces(ray)
}

// projectSurfaces returns the nearest of the floor, ceiling and wall hits
// with the surface normal facing into the room.
func (s *Session) projectSurfaces(ray math3d.Ray) (drag.Hit, bool) {
	best := drag.Hit{}
	bestDist := math.Inf(1)
	for _, mode := range []projection.Mode{projection.Floor, projection.Ceiling, projection.Wall} {
		p, ok := s.projector.Project(mode, ray)
		if !ok {
			continue
		}
		d := p.Distance(ray.Origin)
		if d >= bestDist {
			continue
		}
		var n math3d.Vec3
		switch mode {
		case projection.Floor:
			n = math3d.Up()
		case projection.Ceiling:
			n = math3d.Up().Negate()
		case projection.Wall:
			o := s.geometry.Origin
			n = math3d.V3(o.X-p.X, 0, o.Z-p.Z).Normalize()
		}
		best, bestDist = drag.Hit{Point: p, Normal: n, HasNormal: true}, d
	}
	return best, !math.IsInf(bestDist, 1)
}

// ProjectPointer resolves (x, y) against the whole scene the way a drag
// would, for UI that shows where a click would land.
func (s *Session) ProjectPointer(x, y float64) (drag.Hit, bool) {
	return scene{s: s, exclude: media.NoFocus}.Resolve(x, y)
}
