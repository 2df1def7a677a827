package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const pngURIPrefix = "data:image/png;base64,"

// Pack encodes a native value into its wire representation. The renderer is
// consulted only for graphics objects and may be nil, in which case packing a
// plot fails. Failures are reported as errors for the caller to attribute;
// Pack never panics on user-produced values.
func Pack(v any, r Renderer) (*Value, error) {
	tag := TypeOf(v)
	out := &Value{Type: tag, Format: FormatFor(tag)}
	switch tag {
	case TagNull:
		out.Content = "null"
	case TagBool:
		if v.(bool) {
			out.Content = "true"
		} else {
			out.Content = "false"
		}
	case TagInt:
		out.Content = intText(v)
	case TagFlt:
		out.Content = FloatText(toFloat(v))
	case TagStr:
		out.Content = v.(string)
	case TagArr, TagObj:
		content, err := jsonContent(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s content: %w", tag, err)
		}
		out.Content = content
	case TagTab:
		content, err := v.(*Table).encodeCSV()
		if err != nil {
			return nil, fmt.Errorf("encoding table: %w", err)
		}
		out.Content = content
	case TagHTML, TagPNG, TagPlot:
		content, err := mediaContent(tag, v, r)
		if err != nil {
			return nil, err
		}
		out.Content = content
	default:
		out.Content = fmt.Sprintf("%v", v)
	}
	return out, nil
}

// mediaContent resolves the content of image-bearing and markup values:
// declared-type mappings pass their content entry through verbatim, plots are
// rasterized and wrapped in a PNG data URI.
func mediaContent(tag Tag, v any, r Renderer) (string, error) {
	if p, ok := v.(*Plot); ok {
		if r == nil {
			return "", fmt.Errorf("packing plot: no renderer configured")
		}
		raster, err := r.Render(p)
		if err != nil {
			return "", fmt.Errorf("rendering plot: %w", err)
		}
		return pngURIPrefix + base64.StdEncoding.EncodeToString(raster), nil
	}
	var entry any
	switch m := v.(type) {
	case *Map:
		entry = mapEntry(m, "content")
	case map[string]any:
		entry = m["content"]
	}
	s, ok := entry.(string)
	if !ok {
		return "", fmt.Errorf("packing %s: content entry is not a string", tag)
	}
	return s, nil
}

// jsonContent marshals without HTML escaping and without the trailing newline
// json.Encoder appends. Ordered mappings marshal in insertion order.
func jsonContent(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func intText(v any) string {
	switch x := v.(type) {
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatInt(int64(x), 10)
	}
	return fmt.Sprintf("%v", v)
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}
	return math.NaN()
}

// FloatText renders a float the way interactive hosts print doubles: rounded
// to 15 significant digits, then the shorter of fixed and scientific
// notation, fixed winning ties. Examples: 1e+10, 1e-04, 0.001,
// 0.333333333333333. Infinities and NaN spell Inf, -Inf, NaN.
func FloatText(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'e', 14, 64), 64)
	fixed := strconv.FormatFloat(rounded, 'f', -1, 64)
	sci := strconv.FormatFloat(rounded, 'e', -1, 64)
	if len(fixed) <= len(sci) {
		return fixed
	}
	return sci
}
