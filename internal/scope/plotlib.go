package scope

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/luacell/luacell/value"
)

// plotNamespace builds the plot namespace: constructors user code calls to
// produce declarative graphics objects. The objects surface as userdata and
// only take shape as images when the result is packed.
func plotNamespace(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "line", L.NewFunction(plotCtor(value.PlotLine)))
	L.SetField(mod, "scatter", L.NewFunction(plotCtor(value.PlotScatter)))
	L.SetField(mod, "bar", L.NewFunction(plotCtor(value.PlotBar)))
	return mod
}

// plotCtor builds a constructor taking one spec table, e.g.
// plot.line{x={1,2,3}, y={2,4,6}, title="growth"}.
func plotCtor(kind string) lua.LGFunction {
	return func(L *lua.LState) int {
		spec := L.CheckTable(1)
		p := &value.Plot{
			Kind:   kind,
			Title:  stringField(L, spec, "title"),
			XLabel: stringField(L, spec, "xlabel"),
			YLabel: stringField(L, spec, "ylabel"),
			X:      floatField(L, spec, "x"),
			Y:      floatField(L, spec, "y"),
			Labels: stringsField(L, spec, "labels"),
			Values: floatField(L, spec, "values"),
		}
		ud := L.NewUserData()
		ud.Value = p
		L.Push(ud)
		return 1
	}
}

func stringField(L *lua.LState, spec *lua.LTable, name string) string {
	if s, ok := L.GetField(spec, name).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func floatField(L *lua.LState, spec *lua.LTable, name string) []float64 {
	tbl, ok := L.GetField(spec, name).(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]float64, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		if n, isNum := tbl.RawGetInt(i).(lua.LNumber); isNum {
			out = append(out, float64(n))
		}
	}
	return out
}

func stringsField(L *lua.LState, spec *lua.LTable, name string) []string {
	tbl, ok := L.GetField(spec, name).(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]string, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		out = append(out, lua.LVAsString(tbl.RawGetInt(i)))
	}
	return out
}
