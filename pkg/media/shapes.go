package media

import (
	"github.com/taigrr/panoedit/pkg/models"
)

// Shapes maps objects to the meshes used to draw and pick them. Model
// meshes are loaded elsewhere and registered by source; a model whose
// source has not been registered falls back to the box placeholder.
type Shapes struct {
	box    *models.Mesh
	plane  *models.Mesh
	models map[string]*models.Mesh
}

// NewShapes creates the shape table with the built-in placeholder meshes.
func NewShapes() *Shapes {
	return &Shapes{
		box:    models.Box(),
		plane:  models.Plane(),
		models: make(map[string]*models.Mesh),
	}
}

// RegisterModel makes mesh the shape of every Model object whose payload
// source is src.
func (s *Shapes) RegisterModel(src string, mesh *models.Mesh) {
	s.models[src] = mesh
}

// HasModel reports whether a mesh is registered for src.
func (s *Shapes) HasModel(src string) bool {
	_, ok := s.models[src]
	return ok
}

// ForType returns the mesh for a type with no payload.
func (s *Shapes) ForType(t Type) *models.Mesh {
	if t == Placeholder2D {
		return s.plane
	}
	return s.box
}

// For returns the mesh of o in its local space.
func (s *Shapes) For(o Object) *models.Mesh {
	if o.Type == Model {
		if m, ok := s.models[o.Src()]; ok {
			return m
		}
	}
	return s.ForType(o.Type)
}
