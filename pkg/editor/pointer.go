package editor

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/taigrr/panoedit/pkg/drag"
	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/media"
)

// EventKind is the kind of a pointer event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// PointerEvent is a pointer event at normalized screen coordinates, with
// (0, 0) at the top-left and (1, 1) at the bottom-right.
type PointerEvent struct {
	Kind EventKind
	X, Y float64
}

// HandlePointer routes one pointer event according to the current mode.
// Events must arrive in order; events that no gesture expects are dropped.
func (s *Session) HandlePointer(ev PointerEvent) error {
	switch ev.Kind {
	case PointerDown:
		return s.PointerDown(ev.X, ev.Y)
	case PointerMove:
		return s.PointerMove(ev.X, ev.Y)
	case PointerUp:
		return s.PointerUp(ev.X, ev.Y)
	default:
		return fmt.Errorf("unknown pointer event kind %d", int(ev.Kind))
	}
}

// PointerDown handles a press.
func (s *Session) PointerDown(x, y float64) error {
	switch s.mode {
	case ModeSelect:
		return s.selectDown(x, y)
	case ModeAdd3D, ModeAdd2D:
		t, _ := s.mode.AddType()
		started, err := s.drag.PointerDown(drag.Add(t), x, y, scene{s: s, exclude: media.NoFocus})
		if err != nil {
			return err
		}
		if started {
			s.followPreview()
		}
	case ModeTraceWalls:
		s.traceClick(x, y)
	}
	return nil
}

// PointerMove handles pointer motion. It never rebuilds the pick buffer.
func (s *Session) PointerMove(x, y float64) error {
	switch s.mode {
	case ModeSelect:
		return s.selectMove(x, y)
	case ModeAdd3D, ModeAdd2D:
		if s.drag.PointerMove(x, y) {
			s.followPreview()
		}
	}
	return nil
}

// PointerUp handles a release.
func (s *Session) PointerUp(x, y float64) error {
	switch s.mode {
	case ModeSelect:
		return s.selectUp()
	case ModeAdd3D, ModeAdd2D:
		defer s.smoother.Reset()
		_, err := s.drag.PointerUp()
		return err
	}
	return nil
}

func (s *Session) selectDown(x, y float64) error {
	if s.press != nil || s.Dragging() {
		s.log.Debug("press ignored during gesture")
		return nil
	}
	if err := s.syncPick(); err != nil {
		return err
	}
	index, ok, err := s.ResolveIndex(x, y)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if index == s.registry.Focus() {
		// Click or edit drag, decided by how far the pointer travels.
		s.press = &press{index: index, x: x, y: y}
		return nil
	}
	return s.toggleFocus(index)
}

func (s *Session) selectMove(x, y float64) error {
	p := s.press
	if p == nil {
		return nil
	}
	if !p.dragging {
		if s.travel(p.x, p.y, x, y) <= s.cfg.DragThreshold() {
			return nil
		}
		started, err := s.drag.PointerDown(drag.Edit(p.index, s.transformMode), p.x, p.y, scene{s: s, exclude: p.index})
		if err != nil {
			s.press = nil
			return err
		}
		if !started {
			return nil
		}
		p.dragging = true
		s.followPreview()
	}
	if s.drag.PointerMove(x, y) {
		s.followPreview()
	}
	return nil
}

func (s *Session) selectUp() error {
	p := s.press
	s.press = nil
	if p == nil {
		s.log.Debug("dropped pointer up without press")
		return nil
	}
	if !p.dragging {
		return s.toggleFocus(p.index)
	}
	defer s.smoother.Reset()
	_, err := s.drag.PointerUp()
	return err
}

// travel is the aspect-corrected screen distance between two pointer
// positions, in units of screen height.
func (s *Session) travel(x0, y0, x1, y1 float64) float64 {
	return math.Hypot((x1-x0)*s.camera.Aspect(), y1-y0)
}

func (s *Session) toggleFocus(index int) error {
	if err := s.registry.ToggleFocus(index); err != nil {
		return err
	}
	s.log.Info("focus changed", slog.Int("focus", s.registry.Focus()))
	return nil
}

func (s *Session) followPreview() {
	if tr, ok := s.drag.Preview(); ok {
		s.smoother.SetTarget(tr)
	}
}

// Preview returns the object the active gesture would commit: a new
// object in add modes, the edited object in select mode.
func (s *Session) Preview() (media.Object, bool) {
	tr, ok := s.drag.Preview()
	if !ok {
		return media.Object{}, false
	}
	target, _ := s.drag.Target()
	if target.IsAdd() {
		return media.Object{Type: target.Type, Transform: tr, Payload: target.Type.DefaultPayload()}, true
	}
	obj, err := s.registry.At(target.Index)
	if err != nil {
		return media.Object{}, false
	}
	obj.Transform = tr
	return obj, true
}

// Anchor returns the surface point the active gesture started on.
func (s *Session) Anchor() (math3d.Vec3, bool) {
	hit, ok := s.drag.Anchor()
	return hit.Point, ok
}

// SmoothedPreview is Preview with the transform eased by the preview
// springs, for drawing.
func (s *Session) SmoothedPreview() (media.Object, bool) {
	obj, ok := s.Preview()
	if !ok || !s.smoother.Active() {
		return obj, ok
	}
	obj.Transform = s.smoother.Current()
	return obj, true
}
