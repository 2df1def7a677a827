// Package scope constructs the evaluation scope chain: a flattened library
// scope, a session scope that may be the ambient globals or an isolated
// table, and ephemeral call scopes. Scopes are Lua tables linked with
// __index metatables, so reads climb the chain while assignments land in the
// innermost scope.
package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Options configure chain construction for one context.
type Options struct {
	// Libraries is the allow-list of namespaces flattened into the library
	// scope. Nil means DefaultLibraries; an unknown name fails construction.
	Libraries []string
	// Local selects a fresh session scope. When false the session scope is
	// the ambient globals table and assignments leak into it.
	Local bool
	// Closed cuts the chain off at the minimal builtin scope instead of the
	// ambient globals.
	Closed bool
	// WorkingDir is the search base for require. Empty means the process
	// working directory.
	WorkingDir string
}

// DefaultLibraries is the namespace allow-list used when none is given.
var DefaultLibraries = []string{"string", "table", "math", "os"}

// stdNamespaces maps allow-listable names to their gopher-lua loaders.
var stdNamespaces = map[string]lua.LGFunction{
	"string":    lua.OpenString,
	"table":     lua.OpenTable,
	"math":      lua.OpenMath,
	"os":        lua.OpenOs,
	"coroutine": lua.OpenCoroutine,
}

// baseNames is the subset of base-library functions carried by the minimal
// builtin scope. Loaders, environment accessors and the collector stay out.
var baseNames = []string{
	"print", "type", "tostring", "tonumber", "pairs", "ipairs", "next",
	"select", "pcall", "xpcall", "error", "assert", "unpack", "rawget",
	"rawset", "rawequal", "setmetatable", "getmetatable",
}

// Chain holds the constructed scopes of one context.
type Chain struct {
	// Library is the flattened, immutable library scope.
	Library *lua.LTable
	// Session is the persistent evaluation scope behind runCode.
	Session *lua.LTable
	// Function is the permanently empty parent for isolated call scopes.
	Function *lua.LTable

	builtins map[string]bool
	loaded   *lua.LTable
}

// Build opens the allow-listed namespaces into a fresh state and links the
// scope chain. Namespace members are flattened into the library scope in
// allow-list order, later namespaces overwriting earlier collisions, and
// each namespace is also bound under its own name.
func Build(L *lua.LState, opts Options) (*Chain, error) {
	lua.OpenBase(L)
	ambient, ok := L.Get(lua.GlobalsIndex).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("no ambient globals table")
	}

	libs := opts.Libraries
	if libs == nil {
		libs = DefaultLibraries
	}

	c := &Chain{
		Library:  L.NewTable(),
		builtins: map[string]bool{},
	}

	base := L.NewTable()
	for _, name := range baseNames {
		base.RawSetString(name, L.GetGlobal(name))
		c.builtins[name] = true
	}
	requireFn, loaded := registerRequire(L, opts.WorkingDir)
	base.RawSetString("require", requireFn)
	c.loaded = loaded
	c.builtins["require"] = true
	c.builtins["_G"] = true
	c.builtins["_VERSION"] = true

	for _, ns := range libs {
		tbl, err := openNamespace(L, ns)
		if err != nil {
			return nil, err
		}
		tbl.ForEach(func(k, v lua.LValue) {
			if ks, isStr := k.(lua.LString); isStr {
				c.Library.RawSetString(string(ks), v)
				c.builtins[string(ks)] = true
			}
		})
		c.Library.RawSetString(ns, tbl)
		c.builtins[ns] = true
	}

	// The library parent is the ambient globals only for local open
	// contexts. When the session scope is the ambient table itself, parenting
	// the library back on it would make the chain circular, so it bottoms
	// out at the minimal scope and the ambient table sits above instead.
	libraryParent := lua.LValue(base)
	if !opts.Closed && opts.Local {
		libraryParent = ambient
	}
	setParent(L, c.Library, libraryParent)

	if opts.Local {
		c.Session = Child(L, c.Library)
	} else {
		c.Session = ambient
		setParent(L, ambient, c.Library)
	}

	c.Function = Child(L, c.Library)

	return c, nil
}

// Call returns a fresh call scope: parented on the session scope, or on the
// empty function scope for isolated calls.
func (c *Chain) Call(L *lua.LState, isolated bool) *lua.LTable {
	if isolated {
		return Child(L, c.Function)
	}
	return Child(L, c.Session)
}

// IsBuiltin reports whether a name belongs to the library scope or the
// builtin base set. The dependency scan uses this as its exclusion list.
func (c *Chain) IsBuiltin(name string) bool {
	return c.builtins[name]
}

// Invalidate removes a module from the require cache, so the next
// require re-reads and re-runs its file. It reports whether the module
// was cached.
func (c *Chain) Invalidate(name string) bool {
	if c.loaded == nil || c.loaded.RawGetString(name) == lua.LNil {
		return false
	}
	c.loaded.RawSetString(name, lua.LNil)
	return true
}

// Child links a fresh table under parent for reads.
func Child(L *lua.LState, parent lua.LValue) *lua.LTable {
	tbl := L.NewTable()
	setParent(L, tbl, parent)
	return tbl
}

func setParent(L *lua.LState, tbl *lua.LTable, parent lua.LValue) {
	mt := L.NewTable()
	mt.RawSetString("__index", parent)
	L.SetMetatable(tbl, mt)
}

func openNamespace(L *lua.LState, ns string) (*lua.LTable, error) {
	if ns == "plot" {
		return plotNamespace(L), nil
	}
	loader, ok := stdNamespaces[ns]
	if !ok {
		return nil, fmt.Errorf("unknown library namespace %q", ns)
	}
	loader(L)
	tbl, ok := L.GetGlobal(ns).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("namespace %q did not register a table", ns)
	}
	return tbl, nil
}

// registerRequire installs a require that resolves module names against the
// working directory ("a.b" loads a/b.lua), evaluates the file in the ambient
// globals, and caches results in the returned table. Modules are marked
// loaded before they run so circular requires terminate.
func registerRequire(L *lua.LState, baseDir string) (*lua.LFunction, *lua.LTable) {
	if baseDir == "" {
		baseDir = "."
	}
	loaded := L.NewTable()

	requireFn := L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		if cached := L.GetField(loaded, modName); cached != lua.LNil {
			L.Push(cached)
			return 1
		}

		filename := strings.ReplaceAll(modName, ".", string(filepath.Separator)) + ".lua"
		src, err := os.ReadFile(filepath.Join(baseDir, filename))
		if err != nil {
			L.RaiseError("error loading module '%s': %v", modName, err)
			return 0
		}
		fn, err := L.LoadString(string(src))
		if err != nil {
			L.RaiseError("error loading module '%s': %v", modName, err)
			return 0
		}

		L.SetField(loaded, modName, lua.LTrue)

		L.Push(fn)
		if err := L.PCall(0, 1, nil); err != nil {
			L.SetField(loaded, modName, lua.LNil)
			L.RaiseError("error loading module '%s': %v", modName, err)
			return 0
		}
		result := L.Get(-1)
		L.Pop(1)
		if result == lua.LNil {
			result = lua.LTrue
		}

		L.SetField(loaded, modName, result)
		L.Push(result)
		return 1
	})

	L.SetGlobal("require", requireFn)
	pkg := L.NewTable()
	L.SetField(pkg, "loaded", loaded)
	L.SetGlobal("package", pkg)
	return requireFn, loaded
}
