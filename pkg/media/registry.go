package media

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taigrr/panoedit/pkg/transform"
)

var (
	// ErrIndexOutOfRange is returned for an index outside the registry.
	ErrIndexOutOfRange = errors.New("media: index out of range")
	// ErrNoFocus is returned by focus operations when nothing is focused.
	ErrNoFocus = errors.New("media: no focused object")
	// ErrInvalidFocus reports a focus index that no longer names an object.
	// Registry operations keep focus valid, so seeing it means a broken
	// invariant rather than bad input.
	ErrInvalidFocus = errors.New("media: focus refers to a removed object")
)

// NoFocus is the focus index when nothing is focused.
const NoFocus = -1

// Registry is the ordered collection of placed objects and the single source
// of truth for them. Candidate lists for picking are built from it in order,
// so any mutation bumps Generation and invalidates them.
//
// A Registry is not safe for concurrent use; all editing happens on one
// event timeline.
type Registry struct {
	objects    []Object
	focus      int
	generation uint64
}

// NewRegistry creates a registry holding copies of objs.
func NewRegistry(objs ...Object) *Registry {
	r := &Registry{focus: NoFocus}
	for _, o := range objs {
		r.objects = append(r.objects, o.Clone())
	}
	return r
}

// Len returns the number of objects.
func (r *Registry) Len() int {
	return len(r.objects)
}

// Generation returns a counter that changes on every mutation.
func (r *Registry) Generation() uint64 {
	return r.generation
}

func (r *Registry) bump() {
	r.generation++
}

func (r *Registry) check(i int) error {
	if i < 0 || i >= len(r.objects) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(r.objects))
	}
	return nil
}

// At returns a copy of the object at index i.
func (r *Registry) At(i int) (Object, error) {
	if err := r.check(i); err != nil {
		return Object{}, err
	}
	return r.objects[i].Clone(), nil
}

// Objects returns deep copies of all objects in registry order.
func (r *Registry) Objects() []Object {
	out := make([]Object, len(r.objects))
	for i, o := range r.objects {
		out[i] = o.Clone()
	}
	return out
}

// Each calls fn with every object in order. fn must not retain or mutate
// the object's payload.
func (r *Registry) Each(fn func(i int, o Object)) {
	for i, o := range r.objects {
		fn(i, o)
	}
}

// IndexOf returns the index of the object with the given ID.
func (r *Registry) IndexOf(id uuid.UUID) (int, bool) {
	for i, o := range r.objects {
		if o.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Focus returns the focused index, or NoFocus.
func (r *Registry) Focus() int {
	return r.focus
}

// Focused returns a copy of the focused object. ok is false when nothing is
// focused. ErrInvalidFocus means the focus index escaped the registry.
func (r *Registry) Focused() (obj Object, ok bool, err error) {
	if r.focus == NoFocus {
		return Object{}, false, nil
	}
	if r.focus < 0 || r.focus >= len(r.objects) {
		return Object{}, false, fmt.Errorf("%w: %d (len %d)", ErrInvalidFocus, r.focus, len(r.objects))
	}
	return r.objects[r.focus].Clone(), true, nil
}

// ToggleFocus applies a selection click on index i: clicking the focused
// object clears focus, clicking any other object moves focus to it.
func (r *Registry) ToggleFocus(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	if r.focus == i {
		r.focus = NoFocus
	} else {
		r.focus = i
	}
	return nil
}

// ClearFocus drops focus without touching any object.
func (r *Registry) ClearFocus() {
	r.focus = NoFocus
}

// Append adds an object at the end and returns its index.
func (r *Registry) Append(o Object) int {
	r.objects = append(r.objects, o.Clone())
	r.bump()
	return len(r.objects) - 1
}

// Delete removes the object at index i. Focus on i is cleared and focus on
// a later object follows it down one slot.
func (r *Registry) Delete(i int) (Object, error) {
	if err := r.check(i); err != nil {
		return Object{}, err
	}
	removed := r.objects[i]
	r.objects = append(r.objects[:i], r.objects[i+1:]...)
	switch {
	case r.focus == i:
		r.focus = NoFocus
	case r.focus > i:
		r.focus--
	}
	r.bump()
	return removed, nil
}

// DeleteFocused removes the focused object and clears focus in one step.
func (r *Registry) DeleteFocused() (Object, error) {
	if r.focus == NoFocus {
		return Object{}, ErrNoFocus
	}
	if _, _, err := r.Focused(); err != nil {
		return Object{}, err
	}
	return r.Delete(r.focus)
}

// SetTransform overwrites the transform of the object at index i.
func (r *Registry) SetTransform(i int, tr transform.Transform) error {
	if err := r.check(i); err != nil {
		return err
	}
	if err := tr.Validate(); err != nil {
		return fmt.Errorf("set transform %d: %w", i, err)
	}
	r.objects[i].Transform = tr
	r.bump()
	return nil
}

// SetPayload replaces the payload of the object at index i. The transform
// is left alone.
func (r *Registry) SetPayload(i int, payload map[string]any) error {
	if err := r.check(i); err != nil {
		return err
	}
	r.objects[i].Payload = clonePayload(payload)
	r.bump()
	return nil
}

// SetType changes the type and payload of the object at index i. The
// transform is left alone.
func (r *Registry) SetType(i int, t Type, payload map[string]any) error {
	if err := r.check(i); err != nil {
		return err
	}
	if _, ok := typeNames[t]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	r.objects[i].Type = t
	r.objects[i].Payload = clonePayload(payload)
	r.bump()
	return nil
}

// Replace swaps in a whole new object list, as when a saved scene is
// loaded. Focus is cleared.
func (r *Registry) Replace(objs []Object) {
	r.objects = make([]Object, len(objs))
	for i, o := range objs {
		r.objects[i] = o.Clone()
	}
	r.focus = NoFocus
	r.bump()
}
