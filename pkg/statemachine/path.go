package statemachine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Path describes how to build a region or state variant for a call with
// arguments of type A. When Embed is nil the result is a bare tag; otherwise
// Embed is evaluated on every call and its result becomes the payload.
type Path[A any] struct {
	Family string
	Tag    string
	Embed  func(args A) (any, error)
}

// Static returns a path that always resolves to the bare variant family:tag.
func Static[A any](family, tag string) Path[A] {
	return Path[A]{Family: family, Tag: tag}
}

// Embedded returns a path whose payload is computed from the call arguments.
func Embedded[A, V any](family, tag string, fn func(args A) V) Path[A] {
	return Path[A]{
		Family: family,
		Tag:    tag,
		Embed: func(args A) (any, error) {
			return fn(args), nil
		},
	}
}

// ParsePath parses the declarative "Family:Tag[:param]" form. The optional
// param names the argument embedded in the variant and is looked up with Arg.
// Components past the third are ignored.
func ParsePath[A any](s string) (Path[A], error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Path[A]{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}

	p := Path[A]{Family: parts[0], Tag: parts[1]}
	if len(parts) > 2 && parts[2] != "" {
		p.Embed = Arg[A](parts[2])
	}
	return p, nil
}

// Resolve builds the variant for args.
func (p Path[A]) Resolve(args A) (Variant, error) {
	if p.Family == "" || p.Tag == "" {
		return Variant{}, fmt.Errorf("%w: family and tag are required", ErrInvalidPath)
	}
	if p.Embed == nil {
		return Tag(p.Family, p.Tag), nil
	}

	value, err := p.Embed(args)
	if err != nil {
		return Variant{}, errors.Join(fmt.Errorf("%w: %s:%s", ErrUnresolvedPath, p.Family, p.Tag), err)
	}
	v, err := With(p.Family, p.Tag, value)
	if err != nil {
		return Variant{}, errors.Join(fmt.Errorf("%w: %s:%s", ErrUnresolvedPath, p.Family, p.Tag), err)
	}
	return v, nil
}

func (p Path[A]) String() string {
	if p.Embed == nil {
		return p.Family + ":" + p.Tag
	}
	return p.Family + ":" + p.Tag + ":<embedded>"
}

// Arg returns an embed function that extracts the argument called name.
// Struct arguments are matched by `fsm` tag first, then by field name
// (case-insensitive); maps with string keys are matched by key. When A is
// not a struct or map, the whole argument value is embedded.
func Arg[A any](name string) func(args A) (any, error) {
	return func(args A) (any, error) {
		rv := reflect.ValueOf(args)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, fmt.Errorf("argument %q: nil value", name)
			}
			rv = rv.Elem()
		}

		switch rv.Kind() {
		case reflect.Struct:
			return structField(rv, name)
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return nil, fmt.Errorf("argument %q: map keys must be strings", name)
			}
			v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if !v.IsValid() {
				return nil, fmt.Errorf("argument %q: not found", name)
			}
			return v.Interface(), nil
		case reflect.Invalid:
			return nil, fmt.Errorf("argument %q: no arguments", name)
		default:
			return rv.Interface(), nil
		}
	}
}

func structField(rv reflect.Value, name string) (any, error) {
	rt := rv.Type()

	for i := range rt.NumField() {
		f := rt.Field(i)
		if f.IsExported() && f.Tag.Get("fsm") == name {
			return rv.Field(i).Interface(), nil
		}
	}
	for i := range rt.NumField() {
		f := rt.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return rv.Field(i).Interface(), nil
		}
	}
	return nil, fmt.Errorf("argument %q: no such field in %s", name, rt)
}
