package value

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Table is rectangular, ordered-column data: the native shape behind the tab
// wire type. Cell values are primitives (int64, float64, bool, string, nil).
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable returns an empty table with the given column names.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row. Short rows are padded with nil, long rows truncated,
// keeping the table rectangular.
func (t *Table) Append(cells ...any) {
	row := make([]any, len(t.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

// encodeCSV writes the header row then one record per row. A zero-column
// table encodes to the empty string; a zero-row table to the header alone.
func (t *Table) encodeCSV() (string, error) {
	if len(t.Columns) == 0 {
		return "", nil
	}
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return "", err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = cellText(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func decodeCSV(content string) (*Table, error) {
	if strings.TrimSpace(content) == "" {
		return &Table{}, nil
	}
	r := csv.NewReader(strings.NewReader(content))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv content: %w", err)
	}
	t := &Table{Columns: records[0]}
	for _, record := range records[1:] {
		row := make([]any, len(record))
		for i, field := range record {
			row[i] = cellValue(field)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// cellText mirrors the scalar text encodings so table cells and bare
// primitives stringify identically.
func cellText(cell any) string {
	switch x := cell.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		if isWholeFloat(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return FloatText(x)
	case string:
		return x
	}
	return fmt.Sprintf("%v", cell)
}

// cellValue is the reverse inference: int64, then float64, then bool, else
// the field text itself.
func cellValue(field string) any {
	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return f
	}
	switch field {
	case "true":
		return true
	case "false":
		return false
	}
	return field
}

// MarshalJSON renders the table as an array of ordered records, the shape it
// takes when nested inside arr/obj content.
func (t *Table) MarshalJSON() ([]byte, error) {
	records := make([]*Map, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := NewMap()
		for i, col := range t.Columns {
			if i < len(row) {
				rec.Set(col, row[i])
			} else {
				rec.Set(col, nil)
			}
		}
		records = append(records, rec)
	}
	return json.Marshal(records)
}
