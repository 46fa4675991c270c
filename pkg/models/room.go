package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/panoedit/pkg/math3d"
)

// ErrDegenerateRoom is returned when a wall outline encloses no area.
var ErrDegenerateRoom = errors.New("models: room outline encloses no area")

const areaEpsilon = 1e-9

// RoomMesh builds the shell of a room from its closed wall outline in the
// floor plane: the floor, the ceiling and one quad per wall. Floor and
// ceiling face into the room.
func RoomMesh(outline []math3d.Vec2, floorY, ceilingY float64) (*Mesh, error) {
	if len(outline) < 3 {
		return nil, fmt.Errorf("%w: %d vertices", ErrDegenerateRoom, len(outline))
	}
	if ceilingY <= floorY {
		return nil, fmt.Errorf("%w: ceiling %v not above floor %v", ErrDegenerateRoom, ceilingY, floorY)
	}

	tris, err := triangulate(outline)
	if err != nil {
		return nil, err
	}

	m := NewMesh("room")
	n := len(outline)
	for _, p := range outline {
		m.AddVertex(math3d.V3(p.X, floorY, p.Y))
	}
	for _, p := range outline {
		m.AddVertex(math3d.V3(p.X, ceilingY, p.Y))
	}

	// triangulate returns counter-clockwise triangles in (x, z), which face
	// down in a Y-up world.
	for _, t := range tris {
		m.AddTriangle(t[0], t[2], t[1])
		m.AddTriangle(n+t[0], n+t[1], n+t[2])
	}
	for i := range n {
		j := (i + 1) % n
		m.AddQuad(i, j, n+j, n+i)
	}

	m.CalculateNormals()
	m.CalculateBounds()
	return m, nil
}

// triangulate ear-clips a simple polygon. The returned triangles index into
// pts and are counter-clockwise in the polygon's own coordinates.
func triangulate(pts []math3d.Vec2) ([][3]int, error) {
	area := signedArea(pts)
	if math.Abs(area) < areaEpsilon {
		return nil, ErrDegenerateRoom
	}

	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	if area < 0 {
		for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
	}

	tris := make([][3]int, 0, len(pts)-2)
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			prev := idx[(i+len(idx)-1)%len(idx)]
			cur := idx[i]
			next := idx[(i+1)%len(idx)]
			if !isEar(pts, idx, prev, cur, next) {
				continue
			}
			tris = append(tris, [3]int{prev, cur, next})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, fmt.Errorf("%w: self-intersecting outline", ErrDegenerateRoom)
		}
	}
	return append(tris, [3]int{idx[0], idx[1], idx[2]}), nil
}

func isEar(pts []math3d.Vec2, idx []int, prev, cur, next int) bool {
	a, b, c := pts[prev], pts[cur], pts[next]
	if b.Sub(a).Cross(c.Sub(b)) <= 0 {
		return false // reflex or collinear
	}
	for _, k := range idx {
		if k == prev || k == cur || k == next {
			continue
		}
		if inTriangle(pts[k], a, b, c) {
			return false
		}
	}
	return true
}

func inTriangle(p, a, b, c math3d.Vec2) bool {
	return b.Sub(a).Cross(p.Sub(a)) >= 0 &&
		c.Sub(b).Cross(p.Sub(b)) >= 0 &&
		a.Sub(c).Cross(p.Sub(c)) >= 0
}

func signedArea(pts []math3d.Vec2) float64 {
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.Cross(q)
	}
	return sum / 2
}

// Document converts a mesh into a single-node glTF document.
func Document(mesh *Mesh) *gltf.Document {
	positions := make([][3]float32, len(mesh.Vertices))
	normals := make([][3]float32, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = [3]float32{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
		normals[i] = [3]float32{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
	}
	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for _, f := range mesh.Faces {
		indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}

	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{
		Name: mesh.Name,
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: map[string]int{
				gltf.POSITION: modeler.WritePosition(doc, positions),
				gltf.NORMAL:   modeler.WriteNormal(doc, normals),
			},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: mesh.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

// ExportRoomGLB writes a mesh as a binary glTF file.
func ExportRoomGLB(path string, mesh *Mesh) error {
	if err := gltf.SaveBinary(Document(mesh), path); err != nil {
		return fmt.Errorf("save glb: %w", err)
	}
	return nil
}
