package luacell

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/luacell/luacell/value"
)

// luaToNative lowers an interpreter value into the native interchange form:
// nil, bool, float64, string, []any, *value.Map, *value.Table, or whatever a
// userdata carries. Anything else passes through and packs as unknown.
func luaToNative(lv lua.LValue) any {
	return lowerValue(lv, map[*lua.LTable]bool{})
}

func lowerValue(lv lua.LValue, seen map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LUserData:
		return v.Value
	case *lua.LTable:
		return lowerTable(v, seen)
	}
	return lv
}

// lowerTable follows the array part when present, otherwise the string keys
// in insertion order. An empty table lowers to an empty mapping, so {} packs
// as obj. Cycles break to nil.
func lowerTable(tbl *lua.LTable, seen map[*lua.LTable]bool) any {
	if seen[tbl] {
		return nil
	}
	seen[tbl] = true
	defer delete(seen, tbl)

	if n := tbl.MaxN(); n > 0 {
		items := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			items = append(items, lowerValue(tbl.RawGetInt(i), seen))
		}
		if t := recordsTable(items); t != nil {
			return t
		}
		return items
	}

	m := value.NewMap()
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			m.Set(string(ks), lowerValue(v, seen))
		}
	})
	return m
}

// recordsTable detects arrays of uniform records: every element a mapping
// with the same keys and primitive cells. Those lower to tables so tabular
// results cross the wire as csv rather than as an array of objects. Column
// order follows the first record.
func recordsTable(items []any) *value.Table {
	if len(items) == 0 {
		return nil
	}
	first, ok := items[0].(*value.Map)
	if !ok || first.Len() == 0 {
		return nil
	}
	columns := make([]string, 0, first.Len())
	for pair := first.Oldest(); pair != nil; pair = pair.Next() {
		columns = append(columns, pair.Key)
	}

	t := value.NewTable(columns...)
	for _, item := range items {
		rec, ok := item.(*value.Map)
		if !ok || rec.Len() != len(columns) {
			return nil
		}
		row := make([]any, len(columns))
		for i, col := range columns {
			cell, present := rec.Get(col)
			if !present || !primitiveCell(cell) {
				return nil
			}
			row[i] = cell
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func primitiveCell(v any) bool {
	switch v.(type) {
	case nil, bool, int64, float64, string:
		return true
	}
	return false
}

// nativeToLua raises a native value into the interpreter. Unpacked inputs
// arrive as primitives, []any, *value.Map, *value.Table or *value.Plot.
func nativeToLua(L *lua.LState, v any) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case int:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(t)
	case float64:
		return lua.LNumber(t)
	case string:
		return lua.LString(t)
	case []any:
		tbl := L.NewTable()
		for i, item := range t {
			tbl.RawSetInt(i+1, nativeToLua(L, item))
		}
		return tbl
	case *value.Map:
		tbl := L.NewTable()
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			tbl.RawSetString(pair.Key, nativeToLua(L, pair.Value))
		}
		return tbl
	case *value.Table:
		tbl := L.NewTable()
		for i, row := range t.Rows {
			rec := L.NewTable()
			for j, col := range t.Columns {
				if j < len(row) {
					rec.RawSetString(col, nativeToLua(L, row[j]))
				}
			}
			tbl.RawSetInt(i+1, rec)
		}
		return tbl
	case *value.Plot:
		ud := L.NewUserData()
		ud.Value = t
		return ud
	}
	return lua.LNil
}
