package picking

import (
	"math"
	"testing"

	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/models"
	"github.com/taigrr/panoedit/pkg/render"
)

func boxAt(index int, pos math3d.Vec3) Candidate {
	return Candidate{Index: index, Mesh: models.Box(), Transform: math3d.Translate(pos)}
}

// hollowAt is a mesh with a wall at z = -1 across the ray and a far sliver
// off to the side, so its bounds enclose the origin.
func hollowAt(index int) Candidate {
	m := models.NewMesh("hollow")
	a := m.AddVertex(math3d.V3(-1, 0, -1))
	b := m.AddVertex(math3d.V3(1, 0, -1))
	c := m.AddVertex(math3d.V3(0, 2, -1))
	m.AddTriangle(a, b, c)
	d := m.AddVertex(math3d.V3(5, 0, 2))
	e := m.AddVertex(math3d.V3(6, 0, -10))
	f := m.AddVertex(math3d.V3(5, 1, -10))
	m.AddTriangle(d, e, f)
	m.CalculateNormals()
	m.CalculateBounds()
	return Candidate{Index: index, Mesh: m, Transform: math3d.Identity()}
}

func TestPickRay(t *testing.T) {
	towardBoxes := math3d.NewRay(math3d.V3(0, 0.5, 10), math3d.V3(0, 0, -1))

	tests := []struct {
		name       string
		ray        math3d.Ray
		candidates []Candidate
		wantOK     bool
		wantIndex  int
		wantDist   float64
	}{
		{
			name:       "single box",
			ray:        towardBoxes,
			candidates: []Candidate{boxAt(0, math3d.Zero3())},
			wantOK:     true, wantIndex: 0, wantDist: 9.5,
		},
		{
			name:       "nearest wins regardless of order",
			ray:        towardBoxes,
			candidates: []Candidate{boxAt(0, math3d.V3(0, 0, 3)), boxAt(1, math3d.V3(0, 0, -3))},
			wantOK:     true, wantIndex: 0, wantDist: 6.5,
		},
		{
			name:       "nearest wins when listed last",
			ray:        towardBoxes,
			candidates: []Candidate{boxAt(0, math3d.V3(0, 0, -3)), boxAt(1, math3d.V3(0, 0, 3))},
			wantOK:     true, wantIndex: 1, wantDist: 6.5,
		},
		{
			name:       "tie goes to the later candidate",
			ray:        towardBoxes,
			candidates: []Candidate{boxAt(0, math3d.Zero3()), boxAt(1, math3d.Zero3()), boxAt(2, math3d.V3(0, 0, -5))},
			wantOK:     true, wantIndex: 1, wantDist: 9.5,
		},
		{
			name:       "near ties do not chain past the nearest",
			ray:        towardBoxes,
			candidates: []Candidate{boxAt(0, math3d.Zero3()), boxAt(1, math3d.V3(0, 0, -0.6e-6)), boxAt(2, math3d.V3(0, 0, -1.2e-6))},
			wantOK:     true, wantIndex: 1, wantDist: 9.5 + 0.6e-6,
		},
		{
			name:       "bounds around the origin still test the near wall",
			ray:        math3d.NewRay(math3d.V3(0, 0.5, 0), math3d.V3(0, 0, -1)),
			candidates: []Candidate{boxAt(0, math3d.V3(0, 0, -5)), hollowAt(1)},
			wantOK:     true, wantIndex: 1, wantDist: 1,
		},
		{
			name:       "ray pointing away",
			ray:        math3d.NewRay(math3d.V3(0, 0.5, 10), math3d.V3(0, 0, 1)),
			candidates: []Candidate{boxAt(0, math3d.Zero3())},
		},
		{
			name:       "ray passing beside",
			ray:        math3d.NewRay(math3d.V3(2, 0.5, 10), math3d.V3(0, 0, -1)),
			candidates: []Candidate{boxAt(0, math3d.Zero3())},
		},
		{
			name: "zero scale is skipped",
			ray:  towardBoxes,
			candidates: []Candidate{
				boxAt(0, math3d.V3(0, 0, -4)),
				{Index: 1, Mesh: models.Box(), Transform: math3d.ScaleUniform(0)},
			},
			wantOK: true, wantIndex: 0, wantDist: 13.5,
		},
		{
			name:       "no candidates",
			ray:        towardBoxes,
			candidates: nil,
		},
		{
			name:       "non-finite ray",
			ray:        math3d.Ray{Origin: math3d.V3(math.NaN(), 0, 0), Dir: math3d.V3(0, 0, -1)},
			candidates: []Candidate{boxAt(0, math3d.Zero3())},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := PickRay(tt.ray, tt.candidates)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (hit %+v)", ok, tt.wantOK, hit)
			}
			if !ok {
				return
			}
			if hit.Index != tt.wantIndex {
				t.Errorf("index = %d, want %d", hit.Index, tt.wantIndex)
			}
			if math.Abs(hit.Distance-tt.wantDist) > 1e-9 {
				t.Errorf("distance = %v, want %v", hit.Distance, tt.wantDist)
			}
			if !hit.Point.ApproxEqual(tt.ray.At(hit.Distance), 1e-9) {
				t.Errorf("point %v is not on the ray at %v", hit.Point, hit.Distance)
			}
		})
	}
}

func TestPickNormalFacesRay(t *testing.T) {
	plane := Candidate{Index: 0, Mesh: models.Plane(), Transform: math3d.Identity()}

	front, ok := PickRay(math3d.NewRay(math3d.V3(0, 0.5, 5), math3d.V3(0, 0, -1)), []Candidate{plane})
	if !ok {
		t.Fatal("front of plane missed")
	}
	if !front.Normal.ApproxEqual(math3d.V3(0, 0, 1), 1e-9) {
		t.Errorf("front normal = %v, want +Z", front.Normal)
	}

	back, ok := PickRay(math3d.NewRay(math3d.V3(0, 0.5, -5), math3d.V3(0, 0, 1)), []Candidate{plane})
	if !ok {
		t.Fatal("back of plane missed")
	}
	if !back.Normal.ApproxEqual(math3d.V3(0, 0, -1), 1e-9) {
		t.Errorf("back normal = %v, want -Z", back.Normal)
	}
}

func TestPickFromCamera(t *testing.T) {
	cam := render.NewCamera()
	cam.SetPosition(math3d.V3(0, 0.5, 10))
	cam.LookAt(math3d.V3(0, 0.5, 0))

	cands := []Candidate{boxAt(0, math3d.V3(-3, 0, 0)), boxAt(1, math3d.Zero3())}
	hit, ok := Pick(0.5, 0.5, cam, cands)
	if !ok || hit.Index != 1 {
		t.Fatalf("Pick(center) = %+v, %v; want index 1", hit, ok)
	}
	if !hit.Point.ApproxEqual(math3d.V3(0, 0.5, 0.5), 1e-6) {
		t.Errorf("point = %v, want (0, 0.5, 0.5)", hit.Point)
	}

	if _, ok := Pick(0.02, 0.02, cam, cands); ok {
		t.Error("corner ray should miss")
	}
}

func BenchmarkPickRay(b *testing.B) {
	var cands []Candidate
	for i := range 64 {
		cands = append(cands, boxAt(i, math3d.V3(float64(i%8)*2-8, 0, -float64(i/8)*2)))
	}
	ray := math3d.NewRay(math3d.V3(0, 0.5, 10), math3d.V3(0, 0, -1))
	for b.Loop() {
		_, _ = PickRay(ray, cands)
	}
}
