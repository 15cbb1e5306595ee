package statemachine

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

// Declaration is the declarative form of a transition:
//
//	play:
//	  state: Phase:Committing:player
//	  region: Domain:Players:player
//	  storage: instance
//
// Region may be empty for the default region. Storage accepts "persistent",
// "temporary" and "instance"; anything else means instance.
type Declaration struct {
	State   string `yaml:"state"`
	Region  string `yaml:"region,omitempty"`
	Storage string `yaml:"storage,omitempty"`
}

// Validate checks that the state and region paths are well formed.
func (d Declaration) Validate() error {
	if _, err := ParsePath[any](d.State); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	if d.Region != "" {
		if _, err := ParsePath[any](d.Region); err != nil {
			return fmt.Errorf("region: %w", err)
		}
	}
	return nil
}

// LoadDeclarations reads a YAML document mapping operation names to
// declarations and validates every entry.
func LoadDeclarations(r io.Reader) (map[string]Declaration, error) {
	decls := make(map[string]Declaration)
	if err := yaml.NewDecoder(r).Decode(&decls); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode declarations: %w", err)
	}

	for _, name := range slices.Sorted(maps.Keys(decls)) {
		if err := decls[name].Validate(); err != nil {
			return nil, fmt.Errorf("declaration %q: %w", name, err)
		}
	}
	return decls, nil
}

// FromDeclaration builds a transition from d. The tier parsed from d.Storage
// can still be overridden with WithTier.
func FromDeclaration[A any](d Declaration, opts ...Option) (*Transition[A], error) {
	state, err := ParsePath[A](d.State)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}

	region := Default[A]()
	if d.Region != "" {
		region, err = ParsePath[A](d.Region)
		if err != nil {
			return nil, fmt.Errorf("region: %w", err)
		}
	}

	opts = append([]Option{WithTier(store.ParseTier(d.Storage))}, opts...)
	return NewTransition(region, state, opts...), nil
}
