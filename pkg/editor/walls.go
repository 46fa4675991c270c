package editor

import (
	"fmt"
	"log/slog"

	"github.com/taigrr/panoedit/pkg/models"
	"github.com/taigrr/panoedit/pkg/walltrace"
)

// Polyline returns the traced wall outline.
func (s *Session) Polyline() walltrace.Polyline {
	return s.walls.Polyline()
}

// UndoWall removes the last traced vertex, or reopens a closed outline.
func (s *Session) UndoWall() bool {
	if !s.walls.Undo() {
		return false
	}
	s.room = nil
	return true
}

// ResetWalls clears the wall outline.
func (s *Session) ResetWalls() {
	s.walls.Reset()
	s.room = nil
}

func (s *Session) traceClick(x, y float64) walltrace.ClickResult {
	res := s.walls.Click(x, y, s.camera)
	switch res {
	case walltrace.Appended, walltrace.Closed:
		s.room = nil
		s.log.Info("wall vertex", slog.String("result", res.String()), slog.Int("vertices", s.walls.Polyline().Len()))
	default:
		s.log.Debug("wall click", slog.String("result", res.String()))
	}
	return res
}

// roomMesh returns the shell of the closed outline, or nil while the
// outline is open or encloses nothing.
func (s *Session) roomMesh() *models.Mesh {
	room, err := s.buildRoom()
	if err != nil {
		return nil
	}
	return room
}

func (s *Session) buildRoom() (*models.Mesh, error) {
	if s.room != nil {
		return s.room, nil
	}
	line := s.walls.Polyline()
	if !line.Closed {
		return nil, ErrOpenOutline
	}
	room, err := models.RoomMesh(line.Points, s.geometry.FloorY, s.geometry.CeilingY)
	if err != nil {
		return nil, err
	}
	s.room = room
	return room, nil
}

// ExportRoom writes the shell of the closed wall outline to a GLB file.
func (s *Session) ExportRoom(path string) error {
	room, err := s.buildRoom()
	if err != nil {
		return fmt.Errorf("export room: %w", err)
	}
	if err := models.ExportRoomGLB(path, room); err != nil {
		return fmt.Errorf("export room: %w", err)
	}
	s.log.Info("room exported", slog.String("path", path), slog.Int("triangles", room.TriangleCount()))
	return nil
}
