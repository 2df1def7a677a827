package value

import (
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/spf13/cast"
)

// Unpack contract violations. These identify protocol errors by the caller
// of Unpack, not user-code runtime errors, and are raised directly.
var (
	// ErrMalformedPackage reports input that is not a mapping, or content
	// that does not parse as the declared type.
	ErrMalformedPackage = errors.New("malformed package")
	// ErrMissingField reports a package without type, format or content.
	ErrMissingField = errors.New("package missing required field")
	// ErrUnknownType reports a type tag outside the closed set.
	ErrUnknownType = errors.New("unknown package type")
)

// Unpack decodes a wire value back into a native one. It accepts a *Value, a
// Value, a Value-shaped mapping, or JSON text of one. All three fields must
// be present; the type tag must be known. A null package unpacks to nil no
// matter what its content says, and so does unk: its content is a printed
// stand-in for a value that never crossed the wire. Declared media types
// (html, png, plot) unpack to their passthrough mapping shape so
// classification round-trips.
func Unpack(in any) (any, error) {
	v, err := asValue(in)
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case TagNull:
		return nil, nil
	case TagBool:
		b, err := cast.ToBoolE(strings.ToLower(v.Content))
		if err != nil {
			return nil, fmt.Errorf("%w: bool content %q", ErrMalformedPackage, v.Content)
		}
		return b, nil
	case TagInt:
		n, err := cast.ToInt64E(v.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: int content %q", ErrMalformedPackage, v.Content)
		}
		return n, nil
	case TagFlt:
		f, err := cast.ToFloat64E(v.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: flt content %q", ErrMalformedPackage, v.Content)
		}
		return f, nil
	case TagStr:
		return v.Content, nil
	case TagArr:
		out, err := decodeJSONContent([]byte(v.Content), jsonparser.Array)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
		}
		return out, nil
	case TagObj:
		out, err := decodeJSONContent([]byte(v.Content), jsonparser.Object)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
		}
		return out, nil
	case TagTab:
		t, err := decodeCSV(v.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
		}
		return t, nil
	case TagHTML, TagPNG, TagPlot:
		m := NewMap()
		m.Set("type", string(v.Type))
		m.Set("content", v.Content)
		return m, nil
	case TagUnk:
		return nil, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, string(v.Type))
}

// asValue normalizes the accepted input shapes into a validated Value.
func asValue(in any) (*Value, error) {
	switch x := in.(type) {
	case *Value:
		return validated(x)
	case Value:
		return validated(&x)
	case string:
		return fromJSON([]byte(x))
	case []byte:
		return fromJSON(x)
	case *Map:
		return fromFields(func(key string) (any, bool) { return x.Get(key) })
	case map[string]any:
		return fromFields(func(key string) (any, bool) { v, ok := x[key]; return v, ok })
	}
	return nil, fmt.Errorf("%w: got %T", ErrMalformedPackage, in)
}

func validated(v *Value) (*Value, error) {
	if v.Type == "" {
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	}
	if v.Format == "" {
		return nil, fmt.Errorf("%w: format", ErrMissingField)
	}
	return v, nil
}

func fromFields(get func(key string) (any, bool)) (*Value, error) {
	v := &Value{}
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"type", (*string)(&v.Type)},
		{"format", (*string)(&v.Format)},
		{"content", &v.Content},
	} {
		raw, ok := get(field.name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not text", ErrMalformedPackage, field.name)
		}
		*field.dst = s
	}
	return v, nil
}

func fromJSON(data []byte) (*Value, error) {
	raw, dt, _, err := jsonparser.Get(data)
	if err != nil || dt != jsonparser.Object {
		return nil, fmt.Errorf("%w: input does not parse to a mapping", ErrMalformedPackage)
	}
	v := &Value{}
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"type", (*string)(&v.Type)},
		{"format", (*string)(&v.Format)},
		{"content", &v.Content},
	} {
		s, err := jsonparser.GetString(raw, field.name)
		if err != nil {
			if errors.Is(err, jsonparser.KeyPathNotFoundError) {
				return nil, fmt.Errorf("%w: %s", ErrMissingField, field.name)
			}
			return nil, fmt.Errorf("%w: %s is not text", ErrMalformedPackage, field.name)
		}
		*field.dst = s
	}
	return v, nil
}
