package render

import (
	"math"
	"testing"

	"github.com/taigrr/panoedit/pkg/math3d"
)

// mockMesh implements BoundedMeshRenderer for testing.
type mockMesh struct {
	vertices []math3d.Vec3
	faces    [][3]int
}

func (m *mockMesh) VertexCount() int     { return len(m.vertices) }
func (m *mockMesh) TriangleCount() int   { return len(m.faces) }
func (m *mockMesh) GetFace(i int) [3]int { return m.faces[i] }
func (m *mockMesh) GetVertex(i int) (pos, normal math3d.Vec3) {
	return m.vertices[i], math3d.Zero3()
}

func (m *mockMesh) GetBounds() (min, max math3d.Vec3) {
	min, max = m.vertices[0], m.vertices[0]
	for _, v := range m.vertices[1:] {
		min, max = min.Min(v), max.Max(v)
	}
	return min, max
}

// quadMesh is a unit square in the XY plane centered on the origin.
func quadMesh() *mockMesh {
	return &mockMesh{
		vertices: []math3d.Vec3{
			{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5},
		},
		faces: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

// createTestRasterizer creates a rasterizer looking down -Z from z=10.
func createTestRasterizer(width, height int) (*Rasterizer, *Framebuffer) {
	fb := NewFramebuffer(width, height)
	camera := NewCamera()
	camera.SetPosition(math3d.V3(0, 0, 10))
	camera.LookAt(math3d.Zero3())
	camera.SetAspectRatio(float64(width) / float64(height))
	camera.SetFOV(math.Pi / 3)
	return NewRasterizer(camera, fb), fb
}

func countColor(fb *Framebuffer, c Color) int {
	n := 0
	for _, p := range fb.Pixels {
		if p == c {
			n++
		}
	}
	return n
}

func TestBarycentric(t *testing.T) {
	tests := []struct {
		name   string
		px, py float64
		want   math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 10, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 10, math3d.V3(0, 0, 1)},
		{"edge midpoint", 5, 0, math3d.V3(0.5, 0.5, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := barycentric(0, 0, 10, 0, 0, 10, tc.px, tc.py)
			if !got.ApproxEqual(tc.want, 1e-9) {
				t.Errorf("barycentric(%v, %v) = %v, want %v", tc.px, tc.py, got, tc.want)
			}
		})
	}
}

func TestDrawMeshFlatWritesExactColor(t *testing.T) {
	r, fb := createTestRasterizer(64, 64)
	fb.Clear(ColorBlack)
	r.ClearDepth()

	id := RGB(0, 0, 7)
	r.DrawMeshFlat(quadMesh(), math3d.Identity(), id)

	if got := fb.GetPixel(32, 32); got != id {
		t.Errorf("center pixel = %v, want %v", got, id)
	}
	if countColor(fb, id) == 0 {
		t.Fatal("no pixel carries the flat color")
	}
	for _, p := range fb.Pixels {
		if p != id && p != ColorBlack {
			t.Fatalf("unexpected blended color %v", p)
		}
	}
}

func TestDepthTestKeepsNearest(t *testing.T) {
	r, fb := createTestRasterizer(32, 32)
	fb.Clear(ColorBlack)
	r.ClearDepth()

	near := RGB(0, 0, 1)
	far := RGB(0, 0, 2)
	r.DrawMeshFlat(quadMesh(), math3d.Translate(math3d.V3(0, 0, 1)), near)
	r.DrawMeshFlat(quadMesh(), math3d.Identity(), far)

	if got := fb.GetPixel(16, 16); got != near {
		t.Errorf("center pixel = %v, want nearer quad %v", got, near)
	}
}

func TestBackfaceCullingIsOptional(t *testing.T) {
	r, fb := createTestRasterizer(32, 32)
	flipped := math3d.RotateY(math.Pi)

	fb.Clear(ColorBlack)
	r.ClearDepth()
	r.DrawMeshFlat(quadMesh(), flipped, ColorWhite)
	if countColor(fb, ColorWhite) == 0 {
		t.Error("back face should be drawn when culling is off")
	}

	fb.Clear(ColorBlack)
	r.ClearDepth()
	r.CullBackfaces = true
	r.DrawMeshFlat(quadMesh(), flipped, ColorWhite)
	if n := countColor(fb, ColorWhite); n != 0 {
		t.Errorf("back face drew %d pixels with culling on", n)
	}

	fb.Clear(ColorBlack)
	r.ClearDepth()
	r.DrawMeshFlat(quadMesh(), math3d.Identity(), ColorWhite)
	if countColor(fb, ColorWhite) == 0 {
		t.Error("counter-clockwise front face should survive culling")
	}
}

func TestNearPlaneClippingKeepsFloor(t *testing.T) {
	fb := NewFramebuffer(32, 32)
	cam := NewCamera()
	cam.SetAspectRatio(1)
	cam.SetPosition(math3d.V3(0, 1.6, 0))
	cam.SetRotation(-0.3, 0, 0)
	r := NewRasterizer(cam, fb)

	fb.Clear(ColorBlack)
	r.ClearDepth()
	// A floor passing underneath the camera crosses the camera plane.
	r.DrawQuad(
		math3d.V3(-20, 0, 20), math3d.V3(20, 0, 20),
		math3d.V3(20, 0, -20), math3d.V3(-20, 0, -20),
		ColorFloor,
	)

	if got := fb.GetPixel(16, 31); got != ColorFloor {
		t.Errorf("bottom pixel = %v, want floor", got)
	}
	if got := fb.GetPixel(16, 0); got == ColorFloor {
		t.Error("top pixel should look above the horizon")
	}
}

func TestDrawMeshFrustumCulling(t *testing.T) {
	r, _ := createTestRasterizer(32, 32)
	r.ResetCullingStats()

	r.DrawMeshFlat(quadMesh(), math3d.Identity(), ColorWhite)
	r.DrawMeshFlat(quadMesh(), math3d.Translate(math3d.V3(0, 0, 50)), ColorWhite)

	if r.CullingStats.MeshesTested != 2 || r.CullingStats.MeshesCulled != 1 || r.CullingStats.MeshesDrawn != 1 {
		t.Errorf("CullingStats = %+v, want 2 tested / 1 culled / 1 drawn", r.CullingStats)
	}
}

func TestFrustumFollowsCameraVersion(t *testing.T) {
	r, _ := createTestRasterizer(32, 32)
	box := AABB{Min: math3d.V3(-0.5, -0.5, 19.5), Max: math3d.V3(0.5, 0.5, 20.5)}

	if r.IsVisible(box) {
		t.Fatal("box behind the camera should not be visible")
	}
	r.camera.SetPosition(math3d.V3(0, 0, 30))
	if !r.IsVisible(box) {
		t.Error("frustum should be rebuilt after the camera moved")
	}
}

func TestMin3Max3(t *testing.T) {
	if min3(1, 2, 3) != 1 || min3(3, 1, 2) != 1 || min3(2, 3, 1) != 1 {
		t.Error("min3 failed")
	}
	if max3(1, 2, 3) != 3 || max3(3, 1, 2) != 3 || max3(2, 3, 1) != 3 {
		t.Error("max3 failed")
	}
}

func TestRasterizerClearDepth(t *testing.T) {
	r, _ := createTestRasterizer(10, 10)

	r.setDepth(5, 5, 1.0)
	if r.getDepth(5, 5) != 1.0 {
		t.Error("setDepth/getDepth failed")
	}

	r.ClearDepth()
	if r.getDepth(5, 5) != math.MaxFloat64 {
		t.Error("ClearDepth should reset to MaxFloat64")
	}
}

func TestRasterizerDepthBoundsCheck(t *testing.T) {
	r, _ := createTestRasterizer(10, 10)

	if r.getDepth(-1, 0) != math.MaxFloat64 {
		t.Error("Out of bounds getDepth should return MaxFloat64")
	}
	if r.getDepth(100, 0) != math.MaxFloat64 {
		t.Error("Out of bounds getDepth should return MaxFloat64")
	}

	// setDepth out of bounds should not panic
	r.setDepth(-1, 0, 1.0)
	r.setDepth(100, 0, 1.0)
}

func BenchmarkDrawMeshFlat(b *testing.B) {
	r, fb := createTestRasterizer(160, 90)
	mesh := quadMesh()
	for b.Loop() {
		fb.Clear(ColorBlack)
		r.ClearDepth()
		r.DrawMeshFlat(mesh, math3d.ScaleUniform(4), ColorWhite)
	}
}
