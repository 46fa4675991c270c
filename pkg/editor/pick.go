package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/taigrr/panoedit/pkg/media"
	"github.com/taigrr/panoedit/pkg/pickbuffer"
	"github.com/taigrr/panoedit/pkg/picking"
)

// pickCandidates lists every object in registry order.
func (s *Session) pickCandidates() []pickbuffer.Candidate {
	out := make([]pickbuffer.Candidate, 0, s.registry.Len())
	s.registry.Each(func(i int, o media.Object) {
		out = append(out, pickbuffer.Candidate{
			Index:     i,
			Mesh:      s.shapes.For(o),
			Transform: o.Transform.Matrix(),
		})
	})
	return out
}

// rayCandidates lists every object except exclude for the ray picker.
func (s *Session) rayCandidates(exclude int) []picking.Candidate {
	out := make([]picking.Candidate, 0, s.registry.Len())
	s.registry.Each(func(i int, o media.Object) {
		if i == exclude {
			return
		}
		out = append(out, picking.Candidate{
			Index:     i,
			Mesh:      s.shapes.For(o),
			Transform: o.Transform.Matrix(),
		})
	})
	return out
}

// pickCurrent reports whether the pick buffer matches the registry, the
// shapes and the camera.
func (s *Session) pickCurrent() bool {
	return s.pickBuilt && !s.shapesDirty &&
		s.pick.Generation() == s.registry.Generation() &&
		s.pick.CameraVersion() == s.camera.Version()
}

// syncPick rebuilds the pick buffer if it is out of date. Rebuilds never
// happen while a drag is active.
func (s *Session) syncPick() error {
	if s.Dragging() || s.pickCurrent() {
		return nil
	}
	return s.rebuildPick()
}

func (s *Session) rebuildPick() error {
	if err := s.pick.Rebuild(s.camera, s.pickCandidates(), s.registry.Generation()); err != nil {
		return fmt.Errorf("rebuild pick buffer: %w", err)
	}
	s.pickBuilt = true
	s.shapesDirty = false
	s.log.Debug("pick buffer rebuilt",
		slog.Uint64("generation", s.pick.Generation()),
		slog.Int("objects", s.pick.Len()))
	return nil
}

// ResolveIndex returns the index of the object under normalized coordinate
// (x, y) by reading the pick buffer. It does not rebuild the buffer for
// registry changes: a buffer built before the last mutation is a
// StaleBufferError. In strict mode that error is returned; otherwise the
// buffer is rebuilt and the read retried once.
func (s *Session) ResolveIndex(x, y float64) (int, bool, error) {
	// A moved camera only makes the view old, not the indices wrong.
	viewOnly := s.pick.Generation() == s.registry.Generation()
	if !s.Dragging() && (!s.pickBuilt || s.shapesDirty || (viewOnly && s.pick.CameraVersion() != s.camera.Version())) {
		if err := s.rebuildPick(); err != nil {
			return 0, false, err
		}
	}

	index, ok, err := s.pick.Resolve(x, y, s.registry.Generation())
	var stale *pickbuffer.StaleBufferError
	if !errors.As(err, &stale) {
		return index, ok, err
	}
	if s.cfg.Strict {
		s.log.Error("pick buffer is stale",
			slog.Uint64("built", stale.Built),
			slog.Uint64("current", stale.Current))
		return 0, false, err
	}

	s.log.Warn("pick buffer is stale, rebuilding",
		slog.Uint64("built", stale.Built),
		slog.Uint64("current", stale.Current))
	if err := s.rebuildPick(); err != nil {
		return 0, false, err
	}
	return s.pick.Resolve(x, y, s.registry.Generation())
}

// Hover returns the object under the pointer for highlighting. It only
// reads the pick buffer.
func (s *Session) Hover(x, y float64) (int, bool) {
	if !s.pickCurrent() {
		return 0, false
	}
	index, ok, err := s.pick.Resolve(x, y, s.registry.Generation())
	if err != nil {
		return 0, false
	}
	return index, ok
}
