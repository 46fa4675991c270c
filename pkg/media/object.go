package media

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/taigrr/panoedit/pkg/transform"
)

// Object is one placed media item.
type Object struct {
	ID        uuid.UUID           `json:"id"`
	Type      Type                `json:"type"`
	Transform transform.Transform `json:"transformation"`
	Payload   map[string]any      `json:"data,omitempty"`
}

// NewObject creates an object of type t with a fresh identifier and the
// type's default payload.
func NewObject(t Type, tr transform.Transform) Object {
	return Object{
		ID:        uuid.New(),
		Type:      t,
		Transform: tr,
		Payload:   t.DefaultPayload(),
	}
}

// Clone returns a deep copy of o. Payload maps and any nested values are not
// shared with the original.
func (o Object) Clone() Object {
	var out Object
	if err := copier.CopyWithOption(&out, &o, copier.Option{DeepCopy: true}); err != nil {
		panic(fmt.Sprintf("media: clone object: %v", err))
	}
	return out
}

// Src returns the model source of a Model payload.
func (o Object) Src() string {
	s, _ := o.Payload[PayloadSrc].(string)
	return s
}

func clonePayload(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	if err := copier.CopyWithOption(&out, &p, copier.Option{DeepCopy: true}); err != nil {
		panic(fmt.Sprintf("media: clone payload: %v", err))
	}
	return out
}
