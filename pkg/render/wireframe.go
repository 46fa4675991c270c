package render

import (
	"github.com/taigrr/panoedit/pkg/math3d"
)

// Wireframe renders 3D line overlays such as wall outlines and gizmos.
type Wireframe struct {
	camera *Camera
	fb     *Framebuffer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe(camera *Camera, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		camera: camera,
		fb:     fb,
	}
}

// DrawLine3D draws a line in 3D space, clipped against the near plane.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	viewProj := w.camera.ViewProjectionMatrix()
	a := viewProj.MulVec4(math3d.V4FromV3(p1, 1))
	b := viewProj.MulVec4(math3d.V4FromV3(p2, 1))

	da := a.Z + a.W
	db := b.Z + b.W
	switch {
	case da < 0 && db < 0:
		return
	case da < 0:
		a = lerp4(a, b, da/(da-db))
	case db < 0:
		b = lerp4(b, a, db/(db-da))
	}

	x1, y1 := w.toPixel(a)
	x2, y2 := w.toPixel(b)
	w.fb.DrawLine(x1, y1, x2, y2, color)
}

func (w *Wireframe) toPixel(c math3d.Vec4) (int, int) {
	ndc := c.PerspectiveDivide()
	x := (ndc.X + 1) * 0.5 * float64(w.fb.Width)
	y := (1 - ndc.Y) * 0.5 * float64(w.fb.Height)
	return int(x), int(y)
}

// DrawPolyline draws connected segments through points, joining the last
// point back to the first when closed is set.
func (w *Wireframe) DrawPolyline(points []math3d.Vec3, closed bool, color Color) {
	for i := 0; i+1 < len(points); i++ {
		w.DrawLine3D(points[i], points[i+1], color)
	}
	if closed && len(points) > 2 {
		w.DrawLine3D(points[len(points)-1], points[0], color)
	}
}

// DrawAxes draws the coordinate axes at a point.
func (w *Wireframe) DrawAxes(origin math3d.Vec3, length float64) {
	w.DrawLine3D(origin, origin.Add(math3d.V3(length, 0, 0)), ColorRed)   // X axis
	w.DrawLine3D(origin, origin.Add(math3d.V3(0, length, 0)), ColorGreen) // Y axis
	w.DrawLine3D(origin, origin.Add(math3d.V3(0, 0, length)), ColorBlue)  // Z axis
}

// DrawGrid draws a grid on the XZ plane at height y.
func (w *Wireframe) DrawGrid(y, size, step float64, color Color) {
	half := size / 2
	for x := -half; x <= half; x += step {
		w.DrawLine3D(math3d.V3(x, y, -half), math3d.V3(x, y, half), color)
	}
	for z := -half; z <= half; z += step {
		w.DrawLine3D(math3d.V3(-half, y, z), math3d.V3(half, y, z), color)
	}
}

// DrawPoint draws a point as a small cross.
func (w *Wireframe) DrawPoint(pos math3d.Vec3, size float64, color Color) {
	h := size / 2
	w.DrawLine3D(pos.Sub(math3d.V3(h, 0, 0)), pos.Add(math3d.V3(h, 0, 0)), color)
	w.DrawLine3D(pos.Sub(math3d.V3(0, h, 0)), pos.Add(math3d.V3(0, h, 0)), color)
	w.DrawLine3D(pos.Sub(math3d.V3(0, 0, h)), pos.Add(math3d.V3(0, 0, h)), color)
}
