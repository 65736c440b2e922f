package ledger

import (
	"bytes"
	"encoding"
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Canonicalize encodes payload as compact JSON with object keys sorted at
// every nesting level. Numbers keep their literal form. The result is stable
// for equal payloads, and canonicalizing canonical JSON is a no-op.
//
// Strings with invalid UTF-8 and objects with duplicate keys are rejected:
// encoding them would silently replace bytes or drop members.
func Canonicalize(payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &SerializationError{Cause: err}
	}
	// json.Marshal coerces invalid Go strings to U+FFFD, so they are checked
	// on the value. Raw JSON passes through unchanged and is checked here.
	if err := checkStrings(reflect.ValueOf(payload)); err != nil {
		return nil, &SerializationError{Cause: err}
	}
	if !utf8.Valid(raw) {
		return nil, &SerializationError{Cause: ErrInvalidUTF8}
	}
	if err := checkDuplicateKeys(raw); err != nil {
		return nil, &SerializationError{Cause: err}
	}

	// Raw JSON keeps the key order it was written with, so decode into generic
	// values and encode again: encoding/json writes map keys sorted.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, &SerializationError{Cause: err}
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, &SerializationError{Cause: err}
	}
	return canonical, nil
}

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// checkStrings walks v the way json.Marshal does and reports the first string
// or map key that is not valid UTF-8. Values with a MarshalJSON method are
// skipped since their output is validated after encoding.
func checkStrings(v reflect.Value) error {
	if !v.IsValid() {
		return nil
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil
	}
	t := v.Type()
	if t.Implements(jsonMarshalerType) || (v.CanAddr() && reflect.PointerTo(t).Implements(jsonMarshalerType)) {
		return nil
	}
	if t.Implements(textMarshalerType) && v.CanInterface() {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return err
		}
		if !utf8.Valid(text) {
			return errors.Wrapf(ErrInvalidUTF8, "%q", text)
		}
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return errors.Wrapf(ErrInvalidUTF8, "%q", v.String())
		}
	case reflect.Pointer, reflect.Interface:
		return checkStrings(v.Elem())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			// base64
			return nil
		}
		fallthrough
	case reflect.Array:
		for i := range v.Len() {
			if err := checkStrings(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkStrings(iter.Key()); err != nil {
				return err
			}
			if err := checkStrings(iter.Value()); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() && !f.Anonymous {
				continue
			}
			if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name == "-" {
				continue
			}
			if err := checkStrings(v.Field(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkDuplicateKeys reports the first object in raw that repeats a key.
func checkDuplicateKeys(raw []byte) error {
	type frame struct {
		keys    map[string]struct{}
		wantKey bool
	}
	var stack []*frame
	valueDone := func() {
		if n := len(stack); n > 0 && stack[n-1].keys != nil {
			stack[n-1].wantKey = true
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if n := len(stack); n > 0 && stack[n-1].wantKey {
			if tok == json.Delim('}') {
				stack = stack[:n-1]
				valueDone()
				continue
			}
			key, _ := tok.(string)
			if _, ok := stack[n-1].keys[key]; ok {
				return errors.Wrapf(ErrDuplicateKey, "%q", key)
			}
			stack[n-1].keys[key] = struct{}{}
			stack[n-1].wantKey = false
			continue
		}

		switch tok {
		case json.Delim('{'):
			stack = append(stack, &frame{keys: map[string]struct{}{}, wantKey: true})
		case json.Delim('['):
			stack = append(stack, &frame{})
		case json.Delim(']'), json.Delim('}'):
			stack = stack[:len(stack)-1]
			valueDone()
		default:
			valueDone()
		}
	}
}
