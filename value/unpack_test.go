package value

import (
	"errors"
	"math"
	"testing"
)

// TestUnpackRoundTripsPrimitives verifies unpack(pack(v)) == v for scalars
func TestUnpackRoundTripsPrimitives(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", int64(42), int64(42)},
		{"negative int", int64(-5), int64(-5)},
		{"whole float becomes int", float64(6), int64(6)},
		{"string", "round trip", "round trip"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		packed, err := Pack(tt.in, nil)
		if err != nil {
			t.Errorf("Pack(%s) error: %v", tt.name, err)
			continue
		}
		got, err := Unpack(packed)
		if err != nil {
			t.Errorf("Unpack(%s) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("round trip %s = %#v, want %#v", tt.name, got, tt.want)
		}
	}
}

// TestUnpackFloatRoundTrip verifies flt survives within 15-digit rounding
func TestUnpackFloatRoundTrip(t *testing.T) {
	for _, f := range []float64{3.5, 1.0 / 3.0, 1e-10, 6.02e23, -0.125} {
		packed, err := Pack(f, nil)
		if err != nil {
			t.Fatalf("Pack(%v) error: %v", f, err)
		}
		got, err := Unpack(packed)
		if err != nil {
			t.Fatalf("Unpack(%v) error: %v", f, err)
		}
		n, ok := got.(float64)
		if !ok {
			t.Fatalf("Unpack(%v) = %#v, want float64", f, got)
		}
		if rel := math.Abs(n-f) / math.Abs(f); rel > 1e-14 {
			t.Errorf("round trip %v = %v (relative error %g)", f, n, rel)
		}
	}
}

// TestUnpackNullIgnoresContent verifies null unpacks to nil regardless of content
func TestUnpackNullIgnoresContent(t *testing.T) {
	got, err := Unpack(&Value{Type: TagNull, Format: FormatText, Content: "anything"})
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	if got != nil {
		t.Errorf("Unpack(null) = %#v, want nil", got)
	}
}

// TestUnpackSequence verifies arr content keeps int and flt apart
func TestUnpackSequence(t *testing.T) {
	got, err := Unpack(&Value{Type: TagArr, Format: FormatJSON, Content: `[1,2.5,"x",true,null]`})
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	seq, ok := got.([]any)
	if !ok {
		t.Fatalf("Unpack(arr) = %#v, want []any", got)
	}
	want := []any{int64(1), 2.5, "x", true, nil}
	if len(seq) != len(want) {
		t.Fatalf("len = %d, want %d", len(seq), len(want))
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Errorf("seq[%d] = %#v, want %#v", i, seq[i], want[i])
		}
	}
}

// TestUnpackMappingOrder verifies obj content preserves key order
func TestUnpackMappingOrder(t *testing.T) {
	got, err := Unpack(&Value{Type: TagObj, Format: FormatJSON, Content: `{"b":1,"a":{"nested":false}}`})
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	m, ok := got.(*Map)
	if !ok {
		t.Fatalf("Unpack(obj) = %#v, want *Map", got)
	}
	keys := []string{}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("key order = %v, want [b a]", keys)
	}
	if v, _ := m.Get("b"); v != int64(1) {
		t.Errorf(`m["b"] = %#v, want int64 1`, v)
	}
	nested, _ := m.Get("a")
	nm, ok := nested.(*Map)
	if !ok {
		t.Fatalf(`m["a"] = %#v, want *Map`, nested)
	}
	if v, _ := nm.Get("nested"); v != false {
		t.Errorf(`nested value = %#v, want false`, v)
	}
}

// TestUnpackFromJSONText verifies a JSON string is accepted as input
func TestUnpackFromJSONText(t *testing.T) {
	got, err := Unpack(`{"type":"int","format":"text","content":"42"}`)
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	if got != int64(42) {
		t.Errorf("Unpack = %#v, want int64 42", got)
	}
}

// TestUnpackMediaPassthrough verifies html/png unpack to their mapping shape
func TestUnpackMediaPassthrough(t *testing.T) {
	got, err := Unpack(&Value{Type: TagHTML, Format: FormatText, Content: "<b>x</b>"})
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	if TypeOf(got) != TagHTML {
		t.Errorf("unpacked html classifies as %s", TypeOf(got))
	}
	m := got.(*Map)
	if c, _ := m.Get("content"); c != "<b>x</b>" {
		t.Errorf("content = %#v", c)
	}
}

// TestUnpackContractErrors verifies the distinct protocol error taxonomy
func TestUnpackContractErrors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want error
	}{
		{"not a mapping", 42, ErrMalformedPackage},
		{"json non-mapping", `[1,2]`, ErrMalformedPackage},
		{"json garbage", `]o ops`, ErrMalformedPackage},
		{"missing type", map[string]any{"format": "text", "content": "1"}, ErrMissingField},
		{"missing format", map[string]any{"type": "int", "content": "1"}, ErrMissingField},
		{"missing content", map[string]any{"type": "int", "format": "text"}, ErrMissingField},
		{"json missing content", `{"type":"int","format":"text"}`, ErrMissingField},
		{"unknown type", map[string]any{"type": "frob", "format": "text", "content": ""}, ErrUnknownType},
		{"empty struct type", Value{Format: FormatText, Content: "1"}, ErrMissingField},
	}

	for _, tt := range tests {
		_, err := Unpack(tt.in)
		if err == nil {
			t.Errorf("Unpack(%s): expected error", tt.name)
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("Unpack(%s) error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

// TestUnpackUnkYieldsNil verifies an unk package unpacks to nil: its
// content is a printed stand-in, not a value to reconstruct.
func TestUnpackUnkYieldsNil(t *testing.T) {
	got, err := Unpack(&Value{Type: TagUnk, Format: FormatText, Content: "function: 0x1"})
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	if got != nil {
		t.Errorf("Unpack(unk) = %#v, want nil", got)
	}
}

// TestUnpackBoolIsCaseInsensitive verifies lenient bool content parsing
func TestUnpackBoolIsCaseInsensitive(t *testing.T) {
	for _, content := range []string{"true", "TRUE", "True"} {
		got, err := Unpack(&Value{Type: TagBool, Format: FormatText, Content: content})
		if err != nil {
			t.Fatalf("Unpack(%q) error: %v", content, err)
		}
		if got != true {
			t.Errorf("Unpack(%q) = %#v, want true", content, got)
		}
	}
}
