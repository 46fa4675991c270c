package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/panoedit/pkg/math3d"
)

var room = Geometry{FloorY: 0, CeilingY: 3, Origin: math3d.V3(0, 1.5, 0)}

func TestProjectToFloor(t *testing.T) {
	tests := []struct {
		name   string
		origin math3d.Vec3
		dir    math3d.Vec3
		want   math3d.Vec3
		ok     bool
	}{
		{"straight down", math3d.V3(1, 2, -1), math3d.V3(0, -1, 0), math3d.V3(1, 0, -1), true},
		{"diagonal", math3d.V3(0, 2, 0), math3d.V3(0, -1, -1), math3d.V3(0, 0, -2), true},
		{"parallel", math3d.V3(0, 2, 0), math3d.V3(1, 0, 0), math3d.Vec3{}, false},
		{"pointing away", math3d.V3(0, 2, 0), math3d.V3(0, 1, 0), math3d.Vec3{}, false},
		{"origin on floor", math3d.V3(0, 0, 0), math3d.V3(0, -1, 0), math3d.Vec3{}, false},
		{"zero direction", math3d.V3(0, 2, 0), math3d.Vec3{}, math3d.Vec3{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ProjectToFloor(0.5, 0.5, room, tc.origin, tc.dir)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && !got.ApproxEqual(tc.want, 1e-9) {
				t.Errorf("hit = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProjectParallelNeverReturnsNonFinite(t *testing.T) {
	p := NewProjector(room)
	for i := range 64 {
		angle := float64(i) / 64 * 2 * math.Pi
		dir := math3d.V3(math.Cos(angle), 0, math.Sin(angle))
		for _, mode := range []Mode{Floor, Ceiling} {
			if hit, ok := p.Project(mode, math3d.Ray{Origin: math3d.V3(0, 1, 0), Dir: dir}); ok {
				t.Fatalf("%v: parallel ray %v hit %v", mode, dir, hit)
			}
		}
	}
}

func TestProjectCeiling(t *testing.T) {
	p := NewProjector(room)
	hit, ok := p.Project(Ceiling, math3d.NewRay(math3d.V3(0, 1, 0), math3d.V3(1, 1, 0)))
	if !ok {
		t.Fatal("expected a ceiling hit")
	}
	if want := math3d.V3(2, 3, 0); !hit.ApproxEqual(want, 1e-9) {
		t.Errorf("hit = %v, want %v", hit, want)
	}
}

func TestProjectWall(t *testing.T) {
	p := NewProjector(room)
	p.WallRadius = 4

	hit, ok := p.Project(Wall, math3d.Ray{Origin: room.Origin, Dir: math3d.V3(0, 0, -1)})
	if !ok {
		t.Fatal("expected a wall hit")
	}
	if want := math3d.V3(0, 1.5, -4); !hit.ApproxEqual(want, 1e-9) {
		t.Errorf("hit = %v, want %v", hit, want)
	}

	// Steeply upwards: the cylinder is hit far above the ceiling.
	if _, ok := p.Project(Wall, math3d.NewRay(room.Origin, math3d.V3(0, 10, -1))); ok {
		t.Error("wall hit above the ceiling should be rejected")
	}
	// Straight up never meets the wall.
	if _, ok := p.Project(Wall, math3d.Ray{Origin: room.Origin, Dir: math3d.Up()}); ok {
		t.Error("vertical ray should not hit the wall")
	}
}

func TestGeometryValidate(t *testing.T) {
	if err := room.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	bad := Geometry{FloorY: 2, CeilingY: 1}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Validate() = %v, want ErrInvalidGeometry", err)
	}
}

func TestEquirectRoundTrip(t *testing.T) {
	for _, uv := range [][2]float64{{0.5, 0.5}, {0.25, 0.3}, {0.9, 0.7}, {0.1, 0.55}} {
		dir := DirectionFromUV(uv[0], uv[1])
		if math.Abs(dir.Len()-1) > 1e-12 {
			t.Errorf("direction for %v not unit: %v", uv, dir.Len())
		}
		u, v := UVFromDirection(dir)
		if math.Abs(u-uv[0]) > 1e-9 || math.Abs(v-uv[1]) > 1e-9 {
			t.Errorf("round trip %v -> (%v, %v)", uv, u, v)
		}
	}

	if got := DirectionFromUV(0.5, 0.5); !got.ApproxEqual(math3d.V3(0, 0, -1), 1e-12) {
		t.Errorf("center direction = %v, want -Z", got)
	}
	if got := DirectionFromUV(0.75, 0.5); !got.ApproxEqual(math3d.V3(1, 0, 0), 1e-12) {
		t.Errorf("quarter direction = %v, want +X", got)
	}
}

func TestFloorPointFromPanorama(t *testing.T) {
	p := NewProjector(room)

	// Upper half of the panorama looks at the ceiling.
	if _, ok := p.FloorPointFromPanorama(0.5, 0.25); ok {
		t.Error("upper hemisphere should not reach the floor")
	}

	pt, ok := p.FloorPointFromPanorama(0.5, 0.75)
	if !ok {
		t.Fatal("lower hemisphere should reach the floor")
	}
	// 45 degrees down from 1.5m lands 1.5m ahead.
	if want := math3d.V2(0, -1.5); !pt.ApproxEqual(want, 1e-9) {
		t.Errorf("floor point = %v, want %v", pt, want)
	}

	u, v := p.PanoramaUVFromFloor(pt)
	if math.Abs(u-0.5) > 1e-9 || math.Abs(v-0.75) > 1e-9 {
		t.Errorf("PanoramaUVFromFloor = (%v, %v), want (0.5, 0.75)", u, v)
	}
}

type fixedCaster struct{ ray math3d.Ray }

func (f fixedCaster) Ray(float64, float64) math3d.Ray { return f.ray }

func TestProjectScreenRejectsNaN(t *testing.T) {
	p := NewProjector(room)
	cam := fixedCaster{math3d.Ray{Origin: math3d.V3(0, 2, 0), Dir: math3d.V3(0, -1, 0)}}
	if _, ok := p.ProjectScreen(cam, Floor, math.NaN(), 0.5); ok {
		t.Error("NaN coordinate should not project")
	}
	if _, ok := p.ProjectScreen(cam, Floor, 0.5, 0.5); !ok {
		t.Error("valid coordinate should project")
	}
}
