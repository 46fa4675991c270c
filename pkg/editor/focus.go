package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/taigrr/panoedit/pkg/media"
)

// Focus returns the focused index, or media.NoFocus.
func (s *Session) Focus() int {
	return s.registry.Focus()
}

// Focused returns a copy of the focused object.
func (s *Session) Focused() (media.Object, bool, error) {
	obj, ok, err := s.registry.Focused()
	if err != nil {
		s.invalidFocus(err)
	}
	return obj, ok, err
}

func (s *Session) invalidFocus(err error) {
	if errors.Is(err, media.ErrInvalidFocus) {
		s.log.Error("broken focus invariant", slog.Any("err", err))
	}
}

func (s *Session) focusIndex() (int, error) {
	if _, ok, err := s.Focused(); err != nil {
		return 0, err
	} else if !ok {
		return 0, ErrNoFocus
	}
	return s.registry.Focus(), nil
}

// DeleteFocused removes the focused object and clears focus. A gesture in
// progress is cancelled first.
func (s *Session) DeleteFocused() (media.Object, error) {
	if _, err := s.focusIndex(); err != nil {
		return media.Object{}, err
	}
	s.cancelGestures("delete")
	obj, err := s.registry.DeleteFocused()
	if err != nil {
		s.invalidFocus(err)
		return media.Object{}, err
	}
	s.log.Info("object deleted", slog.String("id", obj.ID.String()), slog.String("type", obj.Type.String()))
	return obj, nil
}

// SetFocusedPayload replaces the payload of the focused object. Its
// transform is not touched.
func (s *Session) SetFocusedPayload(payload map[string]any) error {
	i, err := s.focusIndex()
	if err != nil {
		return err
	}
	if err := s.registry.SetPayload(i, payload); err != nil {
		return fmt.Errorf("set payload: %w", err)
	}
	s.log.Info("payload changed", slog.Int("index", i))
	return nil
}

// ChangeFocusedType changes the type and payload of the focused object.
// Its transform is not touched.
func (s *Session) ChangeFocusedType(t media.Type, payload map[string]any) error {
	i, err := s.focusIndex()
	if err != nil {
		return err
	}
	if s.Dragging() {
		s.cancelGestures("type change")
	}
	if err := s.registry.SetType(i, t, payload); err != nil {
		return fmt.Errorf("change type: %w", err)
	}
	s.log.Info("type changed", slog.Int("index", i), slog.String("type", t.String()))
	return nil
}
