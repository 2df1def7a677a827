// Package value implements the typed wire format used to exchange results
// between an execution context and its host. A wire Value carries a type tag,
// an encoding format fixed by that tag, and the encoded content string.
package value

import (
	"math"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Tag identifies the wire type of a packed value. The set is closed.
type Tag string

const (
	TagNull Tag = "null"
	TagBool Tag = "bool"
	TagInt  Tag = "int"
	TagFlt  Tag = "flt"
	TagStr  Tag = "str"
	TagArr  Tag = "arr"
	TagObj  Tag = "obj"
	TagTab  Tag = "tab"
	TagHTML Tag = "html"
	TagPNG  Tag = "png"
	TagPlot Tag = "plot"
	TagUnk  Tag = "unk"
)

// Format names the encoding of a Value's content.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatDataURI Format = "dataUri"
)

// Value is the wire representation of an exchangeable result. Content is
// self-describing given (Type, Format); decoding never needs extra schema.
type Value struct {
	Type    Tag    `json:"type"`
	Format  Format `json:"format"`
	Content string `json:"content"`
}

// Map is the native mapping shape: insertion-ordered string keys.
type Map = orderedmap.OrderedMap[string, any]

// NewMap returns an empty ordered mapping.
func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// Whole floats classify as int only within the 32-bit integer range the host
// reserves for true integers; larger magnitudes stay flt and print in
// scientific notation (1e+10, not 10000000000).
const maxWholeInt = float64(math.MaxInt32)

// TypeOf classifies a native value. The rules apply in a fixed order: absence
// before booleans, whole numbers before other numerics, scalars before
// sequences, tables before plain mappings, and mappings that declare a media
// type (html, png, plot) pass through as that type. Anything unclassifiable
// is unk. TypeOf is total: it never fails.
func TypeOf(v any) Tag {
	switch x := v.(type) {
	case nil:
		return TagNull
	case bool:
		return TagBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TagInt
	case float64:
		if isWholeFloat(x) {
			return TagInt
		}
		return TagFlt
	case float32:
		if isWholeFloat(float64(x)) {
			return TagInt
		}
		return TagFlt
	case string:
		return TagStr
	case []any:
		return TagArr
	case *Table:
		return TagTab
	case *Plot:
		return TagPlot
	case *Map:
		if t, ok := mediaTag(mapEntry(x, "type")); ok {
			return t
		}
		return TagObj
	case map[string]any:
		if t, ok := mediaTag(x["type"]); ok {
			return t
		}
		return TagObj
	}
	return reflectTag(v)
}

// reflectTag covers sequence and mapping kinds beyond the concrete types the
// context itself produces, so host-supplied slices and maps classify sanely.
func reflectTag(v any) Tag {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return TagUnk
		}
		return TagArr
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return TagObj
		}
	}
	return TagUnk
}

// FormatFor returns the encoding fixed for a tag. The pairing is a closed
// table: primitives and markup are text, sequences and mappings are json,
// tables are csv, image-bearing types are data URIs.
func FormatFor(t Tag) Format {
	switch t {
	case TagArr, TagObj:
		return FormatJSON
	case TagTab:
		return FormatCSV
	case TagPlot, TagPNG:
		return FormatDataURI
	}
	return FormatText
}

func isWholeFloat(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) <= maxWholeInt
}

func mediaTag(typ any) (Tag, bool) {
	s, ok := typ.(string)
	if !ok {
		return "", false
	}
	switch t := Tag(s); t {
	case TagHTML, TagPNG, TagPlot:
		return t, true
	}
	return "", false
}

func mapEntry(m *Map, key string) any {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	return v
}
