package main

import (
	"github.com/taigrr/panoedit/pkg/editor"
	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/media"
	"github.com/taigrr/panoedit/pkg/render"
)

var (
	colorBackground = render.RGB(30, 30, 40)
	colorGrid       = render.RGB(60, 60, 75)
	colorWall       = render.RGB(255, 200, 80)
	colorOpenWall   = render.RGB(200, 140, 60)
	colorFocus      = render.RGB(255, 120, 60)
	colorPreview    = render.RGB(120, 220, 255)
	colorHover      = render.RGB(240, 240, 150)
	colorAnchor     = render.RGB(255, 255, 255)
)

var typeColors = map[media.Type]render.Color{
	media.Placeholder3D: render.RGB(200, 200, 200),
	media.Placeholder2D: render.RGB(150, 200, 150),
	media.Model:         render.RGB(200, 180, 230),
}

var lightDir = math3d.V3(0.5, 1, 0.3).Normalize()

// view owns the framebuffer of one terminal size. Each terminal row holds
// two framebuffer rows.
type view struct {
	width, height int
	fb            *render.Framebuffer
	rasterizer    *render.Rasterizer
	wire          *render.Wireframe
	hover         int
}

func newView(camera *render.Camera, width, height int) *view {
	fb := render.NewFramebuffer(width, height*2)
	camera.SetAspectRatio(float64(fb.Width) / float64(fb.Height))
	return &view{
		width:      width,
		height:     height,
		fb:         fb,
		rasterizer: render.NewRasterizer(camera, fb),
		wire:       render.NewWireframe(camera, fb),
		hover:      media.NoFocus,
	}
}

// normalized maps a terminal cell to the normalized coordinate of its
// center.
func (v *view) normalized(x, y int) (float64, float64) {
	return (float64(x) + 0.5) / float64(max(v.width, 1)),
		(float64(y) + 0.5) / float64(max(v.height, 1))
}

func (v *view) pointer(s *editor.Session, kind editor.EventKind, x, y int, hud *HUD) {
	nx, ny := v.normalized(x, y)
	if err := s.HandlePointer(editor.PointerEvent{Kind: kind, X: nx, Y: ny}); err != nil {
		hud.Flash(err.Error())
	}
	v.hover = media.NoFocus
	if kind == editor.PointerMove && !s.Dragging() {
		if index, ok := s.Hover(nx, ny); ok {
			v.hover = index
		}
	}
}

func (v *view) draw(s *editor.Session) {
	v.fb.Clear(colorBackground)
	v.rasterizer.ClearDepth()

	geom := s.Geometry()
	v.drawGrid(geom.FloorY)

	preview, previewing := s.SmoothedPreview()
	focus := s.Focus()
	shapes := s.Shapes()
	s.Registry().Each(func(i int, o media.Object) {
		if previewing && o.ID == preview.ID {
			return
		}
		color := typeColors[o.Type]
		if i == focus {
			color = colorFocus
		}
		v.rasterizer.DrawMesh(shapes.For(o), o.Transform.Matrix(), color, lightDir)
		if i == v.hover {
			v.rasterizer.DrawMeshWireframe(shapes.For(o), o.Transform.Matrix(), colorHover)
		}
	})
	if previewing {
		mesh := shapes.For(preview)
		v.rasterizer.DrawMesh(mesh, preview.Transform.Matrix(), colorPreview, lightDir)
		v.rasterizer.DrawMeshWireframe(mesh, preview.Transform.Matrix(), colorFocus)
	}
	if anchor, ok := s.Anchor(); ok {
		v.wire.DrawPoint(anchor, 0.2, colorAnchor)
	}

	v.drawWalls(s, geom.FloorY, geom.CeilingY)
}

func (v *view) drawGrid(y float64) {
	const half = 5
	for i := -half; i <= half; i++ {
		f := float64(i)
		v.wire.DrawLine3D(math3d.V3(f, y, -half), math3d.V3(f, y, half), colorGrid)
		v.wire.DrawLine3D(math3d.V3(-half, y, f), math3d.V3(half, y, f), colorGrid)
	}
}

func (v *view) drawWalls(s *editor.Session, floorY, ceilingY float64) {
	line := s.Polyline()
	if line.Len() == 0 {
		return
	}
	floor := make([]math3d.Vec3, line.Len())
	for i, p := range line.Points {
		floor[i] = math3d.V3(p.X, floorY, p.Y)
	}
	if !line.Closed {
		v.wire.DrawPolyline(floor, false, colorOpenWall)
		return
	}
	ceiling := make([]math3d.Vec3, len(floor))
	for i, p := range floor {
		ceiling[i] = math3d.V3(p.X, ceilingY, p.Z)
		v.wire.DrawLine3D(p, ceiling[i], colorWall)
	}
	v.wire.DrawPolyline(floor, true, colorWall)
	v.wire.DrawPolyline(ceiling, true, colorWall)
}
