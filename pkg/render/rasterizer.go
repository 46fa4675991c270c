// Package render provides the software rasterizer behind the editor's
// preview and its index pick buffer, plus terminal output.
package render

import (
	"math"

	"github.com/taigrr/panoedit/pkg/math3d"
)

// Rasterizer handles software triangle rasterization.
//
// Flat fills write the given color unmodified, so a Rasterizer drawing into
// a Framebuffer can produce exact per-object identifiers.
type Rasterizer struct {
	camera         *Camera
	fb             *Framebuffer
	zbuffer        []float64    // Depth buffer (1D array, row-major)
	frustum        Frustum      // Cached frustum planes
	frustumVersion uint64       // Camera version the frustum was built for
	frustumValid   bool         // Whether frustum has been built at all
	CullingStats   CullingStats // Statistics for debugging/benchmarking
	CullBackfaces  bool         // If true, skip triangles facing away
}

// CullingStats tracks frustum culling performance.
type CullingStats struct {
	MeshesTested int // Total meshes tested for culling
	MeshesCulled int // Meshes culled (not rendered)
	MeshesDrawn  int // Meshes that passed culling
}

// NewRasterizer creates a new rasterizer. Both faces of every triangle are
// drawn unless CullBackfaces is set.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera: camera,
		fb:     fb,
	}
	r.Resize()
	return r
}

// Resize resizes the rasterizer's buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// UpdateFrustum recalculates the frustum planes if the camera changed.
func (r *Rasterizer) UpdateFrustum() {
	if !r.frustumValid || r.frustumVersion != r.camera.Version() {
		r.frustum = r.camera.Frustum()
		r.frustumVersion = r.camera.Version()
		r.frustumValid = true
	}
}

// GetFrustum returns the current frustum (updating if needed).
func (r *Rasterizer) GetFrustum() Frustum {
	r.UpdateFrustum()
	return r.frustum
}

// ResetCullingStats resets the culling statistics (call once per frame).
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

// IsVisible tests if a world-space AABB is visible in the frustum.
func (r *Rasterizer) IsVisible(worldBounds AABB) bool {
	r.UpdateFrustum()
	return r.frustum.IntersectAABB(worldBounds)
}

// IsVisibleTransformed tests if a local-space AABB is visible after transformation.
func (r *Rasterizer) IsVisibleTransformed(localBounds AABB, transform math3d.Mat4) bool {
	return r.IsVisible(localBounds.Transform(transform))
}

// getDepth returns the depth at (x, y).
func (r *Rasterizer) getDepth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// setDepth sets the depth at (x, y).
func (r *Rasterizer) setDepth(x, y int, z float64) {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return
	}
	r.zbuffer[y*r.Width()+x] = z
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Screen coordinates
	Z    float64 // NDC depth (for Z-buffer)
}

// clipNear clips a clip-space polygon against the near plane (z >= -w).
// Triangles crossing the camera plane are cut instead of dropped, so large
// surfaces such as the room floor stay visible when the camera stands on them.
func clipNear(in []math3d.Vec4) []math3d.Vec4 {
	out := make([]math3d.Vec4, 0, len(in)+1)
	for i, cur := range in {
		prev := in[(i+len(in)-1)%len(in)]
		dCur := cur.Z + cur.W
		dPrev := prev.Z + prev.W

		if dCur >= 0 {
			if dPrev < 0 {
				out = append(out, lerp4(prev, cur, dPrev/(dPrev-dCur)))
			}
			out = append(out, cur)
		} else if dPrev >= 0 {
			out = append(out, lerp4(prev, cur, dPrev/(dPrev-dCur)))
		}
	}
	return out
}

func lerp4(a, b math3d.Vec4, t float64) math3d.Vec4 {
	return math3d.V4(
		a.X+(b.X-a.X)*t,
		a.Y+(b.Y-a.Y)*t,
		a.Z+(b.Z-a.Z)*t,
		a.W+(b.W-a.W)*t,
	)
}

func (r *Rasterizer) toScreen(c math3d.Vec4) screenVertex {
	ndc := c.PerspectiveDivide()
	return screenVertex{
		X: (ndc.X + 1) * 0.5 * float64(r.Width()),
		Y: (1 - ndc.Y) * 0.5 * float64(r.Height()), // Y flipped
		Z: ndc.Z,
	}
}

// DrawTriangleFlat draws a world-space triangle filled with a single color.
func (r *Rasterizer) DrawTriangleFlat(v0, v1, v2 math3d.Vec3, color Color) {
	viewProj := r.camera.ViewProjectionMatrix()
	poly := clipNear([]math3d.Vec4{
		viewProj.MulVec4(math3d.V4FromV3(v0, 1)),
		viewProj.MulVec4(math3d.V4FromV3(v1, 1)),
		viewProj.MulVec4(math3d.V4FromV3(v2, 1)),
	})
	if len(poly) < 3 {
		return
	}

	first := r.toScreen(poly[0])
	for i := 1; i+1 < len(poly); i++ {
		r.fillTriangle([3]screenVertex{first, r.toScreen(poly[i]), r.toScreen(poly[i+1])}, color)
	}
}

// fillTriangle scan-converts a screen-space triangle with depth testing.
func (r *Rasterizer) fillTriangle(sv [3]screenVertex, color Color) {
	edge1 := math3d.V2(sv[1].X-sv[0].X, sv[1].Y-sv[0].Y)
	edge2 := math3d.V2(sv[2].X-sv[0].X, sv[2].Y-sv[0].Y)
	cross := edge1.Cross(edge2)
	if math.Abs(cross) < 1e-12 {
		return // Degenerate
	}
	// Screen Y points down, so counter-clockwise front faces have negative
	// screen-space area.
	if r.CullBackfaces && cross > 0 {
		return // Back-facing
	}

	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			bc := barycentric(
				sv[0].X, sv[0].Y,
				sv[1].X, sv[1].Y,
				sv[2].X, sv[2].Y,
				px, py,
			)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			// NDC depth is affine in screen space.
			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			if z < -1 || z > 1 || z >= r.getDepth(x, y) {
				continue
			}

			r.setDepth(x, y, z)
			r.fb.SetPixel(x, y, color)
		}
	}
}

// DrawTriangleLit draws a triangle with simple two-sided directional lighting.
func (r *Rasterizer) DrawTriangleLit(v0, v1, v2 math3d.Vec3, baseColor Color, lightDir math3d.Vec3) {
	normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

	intensity := math.Abs(normal.Dot(lightDir.Normalize()))
	intensity = 0.3 + 0.7*intensity // Ambient + diffuse

	litColor := RGBA(
		uint8(float64(baseColor.R)*intensity),
		uint8(float64(baseColor.G)*intensity),
		uint8(float64(baseColor.B)*intensity),
		baseColor.A,
	)

	r.DrawTriangleFlat(v0, v1, v2, litColor)
}

// DrawQuad draws a quad as two triangles.
func (r *Rasterizer) DrawQuad(v0, v1, v2, v3 math3d.Vec3, color Color) {
	r.DrawTriangleFlat(v0, v1, v2, color)
	r.DrawTriangleFlat(v0, v2, v3, color)
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// MeshRenderer is implemented by models.Mesh.
// This interface allows drawing meshes without importing the models package.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer extends MeshRenderer with bounding box support for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// tryFrustumCull attempts to cull a mesh using its bounds if available.
// Returns true if the mesh should be culled (not visible).
func (r *Rasterizer) tryFrustumCull(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}

	r.CullingStats.MeshesTested++

	minBounds, maxBounds := bounded.GetBounds()
	if !r.IsVisibleTransformed(AABB{Min: minBounds, Max: maxBounds}, transform) {
		r.CullingStats.MeshesCulled++
		return true
	}

	r.CullingStats.MeshesDrawn++
	return false
}

// forEachTriangle calls fn with every triangle of mesh in world space.
func forEachTriangle(mesh MeshRenderer, transform math3d.Mat4, fn func(v0, v1, v2 math3d.Vec3)) {
	for i := range mesh.TriangleCount() {
		face := mesh.GetFace(i)
		p0, _ := mesh.GetVertex(face[0])
		p1, _ := mesh.GetVertex(face[1])
		p2, _ := mesh.GetVertex(face[2])
		fn(transform.MulVec3(p0), transform.MulVec3(p1), transform.MulVec3(p2))
	}
}

// DrawMesh renders a lit mesh with the given transform and color.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}
	forEachTriangle(mesh, transform, func(v0, v1, v2 math3d.Vec3) {
		r.DrawTriangleLit(v0, v1, v2, color, lightDir)
	})
}

// DrawMeshFlat renders a mesh filled with exactly color, without lighting.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshFlat(mesh MeshRenderer, transform math3d.Mat4, color Color) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}
	forEachTriangle(mesh, transform, func(v0, v1, v2 math3d.Vec3) {
		r.DrawTriangleFlat(v0, v1, v2, color)
	})
}

// DrawMeshWireframe renders a mesh as wireframe.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform math3d.Mat4, color Color) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}
	w := NewWireframe(r.camera, r.fb)
	forEachTriangle(mesh, transform, func(v0, v1, v2 math3d.Vec3) {
		w.DrawLine3D(v0, v1, color)
		w.DrawLine3D(v1, v2, color)
		w.DrawLine3D(v2, v0, color)
	})
}
