package value

import (
	"errors"
	"strings"
	"testing"
)

type stubRenderer struct {
	raster []byte
	err    error
}

func (s stubRenderer) Render(p *Plot) ([]byte, error) {
	return s.raster, s.err
}

// TestPackScalars verifies text encodings of primitive values
func TestPackScalars(t *testing.T) {
	tests := []struct {
		name        string
		in          any
		wantType    Tag
		wantContent string
	}{
		{"nil", nil, TagNull, "null"},
		{"true", true, TagBool, "true"},
		{"false", false, TagBool, "false"},
		{"int", 42, TagInt, "42"},
		{"negative int", int64(-17), TagInt, "-17"},
		{"whole float", float64(6), TagInt, "6"},
		{"fraction", 3.5, TagFlt, "3.5"},
		{"big magnitude", 1e10, TagFlt, "1e+10"},
		{"small magnitude", 1e-10, TagFlt, "1e-10"},
		{"string", "hello", TagStr, "hello"},
		{"empty string", "", TagStr, ""},
	}

	for _, tt := range tests {
		got, err := Pack(tt.in, nil)
		if err != nil {
			t.Errorf("Pack(%s) error: %v", tt.name, err)
			continue
		}
		if got.Type != tt.wantType {
			t.Errorf("Pack(%s) type = %s, want %s", tt.name, got.Type, tt.wantType)
		}
		if got.Format != FormatText {
			t.Errorf("Pack(%s) format = %s, want text", tt.name, got.Format)
		}
		if got.Content != tt.wantContent {
			t.Errorf("Pack(%s) content = %q, want %q", tt.name, got.Content, tt.wantContent)
		}
	}
}

// TestPackEmptyCollections verifies the fixed encodings of empty values
func TestPackEmptyCollections(t *testing.T) {
	tests := []struct {
		name        string
		in          any
		want        Value
	}{
		{"empty mapping", map[string]any{}, Value{TagObj, FormatJSON, "{}"}},
		{"empty ordered mapping", NewMap(), Value{TagObj, FormatJSON, "{}"}},
		{"empty sequence", []any{}, Value{TagArr, FormatJSON, "[]"}},
		{"empty table", NewTable(), Value{TagTab, FormatCSV, ""}},
	}

	for _, tt := range tests {
		got, err := Pack(tt.in, nil)
		if err != nil {
			t.Errorf("Pack(%s) error: %v", tt.name, err)
			continue
		}
		if *got != tt.want {
			t.Errorf("Pack(%s) = %+v, want %+v", tt.name, *got, tt.want)
		}
	}
}

// TestPackSequenceJSON verifies arr content keeps element types apart
func TestPackSequenceJSON(t *testing.T) {
	got, err := Pack([]any{int64(1), 2.5, "x", true, nil}, nil)
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	want := `[1,2.5,"x",true,null]`
	if got.Content != want {
		t.Errorf("arr content = %q, want %q", got.Content, want)
	}
}

// TestPackMappingOrder verifies obj content preserves insertion order
func TestPackMappingOrder(t *testing.T) {
	m := NewMap()
	m.Set("zeta", int64(1))
	m.Set("alpha", "two")
	m.Set("mid", []any{int64(3)})

	got, err := Pack(m, nil)
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	want := `{"zeta":1,"alpha":"two","mid":[3]}`
	if got.Content != want {
		t.Errorf("obj content = %q, want %q", got.Content, want)
	}
}

// TestPackTable verifies csv encoding with header plus records
func TestPackTable(t *testing.T) {
	tab := NewTable("name", "count")
	tab.Append("ada", int64(2))
	tab.Append("grace", int64(3))

	got, err := Pack(tab, nil)
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	want := "name,count\nada,2\ngrace,3\n"
	if got.Content != want {
		t.Errorf("tab content = %q, want %q", got.Content, want)
	}

	headerOnly, err := Pack(NewTable("a", "b"), nil)
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	if headerOnly.Content != "a,b\n" {
		t.Errorf("zero-row tab content = %q, want %q", headerOnly.Content, "a,b\n")
	}
}

// TestPackMediaPassthrough verifies declared-type mappings keep content verbatim
func TestPackMediaPassthrough(t *testing.T) {
	got, err := Pack(map[string]any{"type": "html", "content": "<em>x</em>"}, nil)
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	if got.Type != TagHTML || got.Format != FormatText || got.Content != "<em>x</em>" {
		t.Errorf("html pack = %+v", *got)
	}

	uri := "data:image/png;base64,AQID"
	png := NewMap()
	png.Set("type", "png")
	png.Set("content", uri)
	got, err = Pack(png, nil)
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	if got.Type != TagPNG || got.Format != FormatDataURI || got.Content != uri {
		t.Errorf("png pack = %+v", *got)
	}

	if _, err = Pack(map[string]any{"type": "html"}, nil); err == nil {
		t.Error("expected error for html mapping without content")
	}
}

// TestPackPlot verifies rasterization through the renderer
func TestPackPlot(t *testing.T) {
	p := &Plot{Kind: PlotLine, X: []float64{1, 2}, Y: []float64{3, 4}}

	got, err := Pack(p, stubRenderer{raster: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	if got.Type != TagPlot || got.Format != FormatDataURI {
		t.Errorf("plot pack = %+v", *got)
	}
	if got.Content != "data:image/png;base64,AQID" {
		t.Errorf("plot content = %q", got.Content)
	}

	if _, err = Pack(p, nil); err == nil {
		t.Error("expected error packing a plot without a renderer")
	}

	boom := errors.New("no device")
	if _, err = Pack(p, stubRenderer{err: boom}); err == nil || !strings.Contains(err.Error(), "no device") {
		t.Errorf("expected render failure to surface, got %v", err)
	}
}

// TestPackUnknown verifies the unk catch-all
func TestPackUnknown(t *testing.T) {
	got, err := Pack(func() {}, nil)
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	if got.Type != TagUnk || got.Format != FormatText {
		t.Errorf("unk pack = %+v", *got)
	}
}
