package value

import (
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// decodeJSONContent parses arr/obj content into native values, preserving
// mapping key order and keeping whole JSON numbers as int64 rather than
// collapsing everything to float64.
func decodeJSONContent(data []byte, want jsonparser.ValueType) (any, error) {
	raw, dt, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("parsing content: %w", err)
	}
	if dt != want {
		return nil, fmt.Errorf("content is %s, expected %s", dt, want)
	}
	return decodeJSONValue(raw, dt)
}

func decodeJSONValue(data []byte, dt jsonparser.ValueType) (any, error) {
	switch dt {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(data)
	case jsonparser.Number:
		s := string(data)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		return strconv.ParseFloat(s, 64)
	case jsonparser.String:
		return jsonparser.ParseString(data)
	case jsonparser.Array:
		return decodeJSONArray(data)
	case jsonparser.Object:
		return decodeJSONObject(data)
	}
	return nil, fmt.Errorf("unsupported JSON value type %s", dt)
}

func decodeJSONArray(data []byte) ([]any, error) {
	out := []any{}
	var walkErr error
	_, err := jsonparser.ArrayEach(data, func(item []byte, dt jsonparser.ValueType, _ int, _ error) {
		if walkErr != nil {
			return
		}
		v, err := decodeJSONValue(item, dt)
		if err != nil {
			walkErr = err
			return
		}
		out = append(out, v)
	})
	if err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

func decodeJSONObject(data []byte) (*Map, error) {
	out := NewMap()
	err := jsonparser.ObjectEach(data, func(key, item []byte, dt jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		v, err := decodeJSONValue(item, dt)
		if err != nil {
			return err
		}
		out.Set(name, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
