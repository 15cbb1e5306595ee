package statemachine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// DefaultRegion is the region used by transitions that do not declare one.
var DefaultRegion = Tag("StateMachineRegion", "Default")

// Variant is a tagged value used for both regions and states.
// Payload holds the encoded embedded value and is empty for a bare tag.
type Variant struct {
	Family  string          `json:"family"`
	Tag     string          `json:"tag"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Tag returns a bare variant with no embedded value.
func Tag(family, tag string) Variant {
	return Variant{Family: family, Tag: tag}
}

// With returns a variant carrying value as its payload.
func With(family, tag string, value any) (Variant, error) {
	payload, err := store.Encode(value)
	if err != nil {
		return Variant{}, err
	}
	return Variant{Family: family, Tag: tag, Payload: payload}, nil
}

// MustWith is like With but panics if value cannot be encoded.
func MustWith(family, tag string, value any) Variant {
	v, err := With(family, tag, value)
	if err != nil {
		panic(fmt.Sprintf("statemachine: failed to build variant %s:%s: %v", family, tag, err))
	}
	return v
}

// HasPayload reports whether the variant carries an embedded value.
func (v Variant) HasPayload() bool {
	return len(v.Payload) > 0
}

// Decode decodes the embedded value into dst.
func (v Variant) Decode(dst any) error {
	if !v.HasPayload() {
		return fmt.Errorf("%w: variant %s has no payload", store.ErrDecodeFailed, v)
	}
	return store.Decode(v.Payload, dst)
}

// Is reports whether v belongs to family and carries tag, ignoring the payload.
func (v Variant) Is(family, tag string) bool {
	return v.Family == family && v.Tag == tag
}

// Equal reports whether family, tag and payload all match.
func (v Variant) Equal(other Variant) bool {
	return v.Is(other.Family, other.Tag) && bytes.Equal(v.Payload, other.Payload)
}

func (v Variant) String() string {
	if !v.HasPayload() {
		return v.Family + ":" + v.Tag
	}
	return v.Family + ":" + v.Tag + "(" + string(v.Payload) + ")"
}
