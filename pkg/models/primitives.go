package models

import "github.com/taigrr/panoedit/pkg/math3d"

// Placeholder meshes stand on their local origin: the anchor point of a
// drag becomes the middle of the bottom edge (plane) or bottom face (box).

// Box returns a unit cube spanning x and z in [-0.5, 0.5] and y in [0, 1].
func Box() *Mesh {
	m := NewMesh("box")
	for _, p := range [8]math3d.Vec3{
		{X: -0.5, Y: 0, Z: -0.5}, // 0: left-bottom-back
		{X: 0.5, Y: 0, Z: -0.5},  // 1: right-bottom-back
		{X: 0.5, Y: 1, Z: -0.5},  // 2: right-top-back
		{X: -0.5, Y: 1, Z: -0.5}, // 3: left-top-back
		{X: -0.5, Y: 0, Z: 0.5},  // 4: left-bottom-front
		{X: 0.5, Y: 0, Z: 0.5},   // 5: right-bottom-front
		{X: 0.5, Y: 1, Z: 0.5},   // 6: right-top-front
		{X: -0.5, Y: 1, Z: 0.5},  // 7: left-top-front
	} {
		m.AddVertex(p)
	}

	m.AddQuad(0, 3, 2, 1) // back
	m.AddQuad(4, 5, 6, 7) // front
	m.AddQuad(4, 7, 3, 0) // left
	m.AddQuad(1, 2, 6, 5) // right
	m.AddQuad(3, 7, 6, 2) // top
	m.AddQuad(4, 0, 1, 5) // bottom

	m.CalculateNormals()
	m.CalculateBounds()
	return m
}

// Plane returns a unit quad in the local XY plane facing +Z, spanning x in
// [-0.5, 0.5] and y in [0, 1].
func Plane() *Mesh {
	m := NewMesh("plane")
	a := m.AddVertex(math3d.V3(-0.5, 0, 0))
	b := m.AddVertex(math3d.V3(0.5, 0, 0))
	c := m.AddVertex(math3d.V3(0.5, 1, 0))
	d := m.AddVertex(math3d.V3(-0.5, 1, 0))
	m.AddQuad(a, b, c, d)

	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.V3(0, 0, 1)
	}
	m.CalculateBounds()
	return m
}
