package store

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"unicode/utf8"
)

// Encode produces the deterministic encoding used for keys and values.
// Struct fields keep declaration order and map keys are sorted, so two equal
// values always encode to the same bytes. Strings must be valid UTF-8;
// otherwise distinct values would collapse into one encoding.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}
	// Cycles are rejected by the encoder, so the walk terminates.
	if err := checkUTF8(reflect.ValueOf(v)); err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}

	// json.Encoder appends a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Decode is the inverse of Encode.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrDecodeFailed, err)
	}
	return nil
}

// Equal reports whether a and b share the same encoding.
func Equal(a, b any) (bool, error) {
	ea, err := Encode(a)
	if err != nil {
		return false, err
	}
	eb, err := Encode(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ea, eb), nil
}

// checkUTF8 finds strings the json encoder would rewrite with U+FFFD.
func checkUTF8(v reflect.Value) error {
	if !v.IsValid() {
		return nil
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil
	}

	if v.CanInterface() {
		switch m := v.Interface().(type) {
		case json.Marshaler:
			out, err := m.MarshalJSON()
			if err == nil && !utf8.Valid(out) {
				return fmt.Errorf("%T produced invalid UTF-8", m)
			}
			return nil
		case encoding.TextMarshaler:
			out, err := m.MarshalText()
			if err == nil && !utf8.Valid(out) {
				return fmt.Errorf("%T produced invalid UTF-8", m)
			}
			return nil
		}
	}

	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("invalid UTF-8 in string %q", v.String())
		}
	case reflect.Pointer, reflect.Interface:
		return checkUTF8(v.Elem())
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := range v.Len() {
			if err := checkUTF8(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkUTF8(iter.Key()); err != nil {
				return err
			}
			if err := checkUTF8(iter.Value()); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if (!f.IsExported() && !f.Anonymous) || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkUTF8(v.Field(i)); err != nil {
				return err
			}
		}
	}
	return nil
}
