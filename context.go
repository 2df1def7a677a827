package luacell

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/luacell/luacell/internal/deps"
	"github.com/luacell/luacell/internal/program"
	"github.com/luacell/luacell/internal/scope"
	"github.com/luacell/luacell/value"
)

// chunkName names every compiled unit, so runtime error positions read
// code:<line> with lines counted against the submitted source.
const chunkName = "code"

var errPosition = regexp.MustCompile(`(?s)^` + chunkName + `:(\d+): (.*)$`)

// ErrClosed is returned by operations on a closed context.
var ErrClosed = errors.New("context is closed")

// Context is one sandboxed interpreter session. A context owns a single
// interpreter state and a scope chain; its session scope accumulates state
// across RunCode calls until the context is closed. Methods serialize on an
// internal lock, so a context is safe for concurrent use but evaluates one
// submission at a time.
type Context struct {
	mu       sync.Mutex
	L        *lua.LState
	chain    *scope.Chain
	renderer value.Renderer
	logf     func(format string, args ...any)
	reload   *reloader
	closed   bool
}

// New constructs a context. The default configuration opens the standard
// namespace allow-list, keeps session state local to the context, and
// renders plots to PNG.
func New(opts ...Option) (*Context, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	chain, err := scope.Build(L, scope.Options{
		Libraries:  cfg.libraries,
		Local:      cfg.local,
		Closed:     cfg.closed,
		WorkingDir: cfg.workingDir,
	})
	if err != nil {
		L.Close()
		return nil, err
	}

	c := &Context{
		L:        L,
		chain:    chain,
		renderer: cfg.renderer,
		logf:     cfg.logf,
	}
	if cfg.reload {
		if cfg.workingDir == "" {
			L.Close()
			return nil, errors.New("reload requires a working directory")
		}
		r, err := startReloader(c, cfg.workingDir)
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("watching %s: %w", cfg.workingDir, err)
		}
		c.reload = r
	}
	c.debugf("context ready: local=%t closed=%t", cfg.local, cfg.closed)
	return c, nil
}

// Close releases the interpreter state. Further calls return ErrClosed.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.reload != nil {
		c.reload.stop()
	}
	c.L.Close()
}

// InvalidateModule drops a module from the require cache so the next
// require re-reads its file. It reports whether the module was cached.
func (c *Context) InvalidateModule(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	return c.chain.Invalidate(name)
}

// RunCode evaluates a submission statement by statement against the session
// scope. A statement that fails contributes an error entry and evaluation
// moves on to the next one; a source-level return ends the submission early.
// The value of the last successfully evaluated value-producing statement is
// packed as the output.
func (c *Context) RunCode(code string) (*EvaluationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	res := newResult()
	units, err := program.Split(code, chunkName)
	if err != nil {
		return syntaxResult(res, err)
	}
	c.debugf("runCode: %d statements", len(units))

	var last lua.LValue = lua.LNil
	var have bool
	for _, u := range units {
		val, entry := c.evalUnit(u, c.chain.Session)
		if entry != nil {
			res.Errors = append(res.Errors, *entry)
			continue
		}
		if u.Produces {
			last, have = val, true
		}
		if u.Terminates {
			break
		}
	}
	c.packInto(res, last, have)
	return res, nil
}

// CallCode evaluates a submission like a function call: inputs are unpacked
// into a fresh call scope, evaluation stops at the first error or early
// return, and the call scope is discarded afterwards. An isolated call reads
// only the library scope; otherwise the session scope shows through.
//
// Input values may be *value.Value, raw JSON bytes, or decoded field maps;
// an input that cannot be unpacked fails the whole call before any code
// runs.
func (c *Context) CallCode(code string, inputs map[string]any, isolated bool) (*EvaluationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	res := newResult()
	units, err := program.Split(code, chunkName)
	if err != nil {
		return syntaxResult(res, err)
	}

	call := c.chain.Call(c.L, isolated)
	for name, in := range inputs {
		native, err := value.Unpack(in)
		if err != nil {
			return nil, fmt.Errorf("unpacking input %q: %w", name, err)
		}
		call.RawSetString(name, nativeToLua(c.L, native))
	}
	ctl := c.installReturn(call)
	c.debugf("callCode: %d statements, %d inputs, isolated=%t", len(units), len(inputs), isolated)

	var last lua.LValue = lua.LNil
	var have bool
	for _, u := range units {
		val, entry := c.evalUnit(u, call)
		if ctl.returned {
			last, have = ctl.value, true
			break
		}
		if entry != nil {
			res.Errors = append(res.Errors, *entry)
			return res, nil
		}
		if u.Produces {
			last, have = val, true
		}
		if u.Terminates {
			break
		}
	}
	c.packInto(res, last, have)
	return res, nil
}

// CodeDependencies reports the identifiers a submission references that the
// library scope does not provide, in first-seen order. Session variables do
// count: they are exactly what a call would need as inputs.
func (c *Context) CodeDependencies(code string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return deps.Scan(code, func(name string) bool {
		return name == "ret" || c.chain.IsBuiltin(name)
	})
}

// returnControl records an early return triggered by the ret callable. The
// raised unwinding error is recognized by this flag, never by matching the
// error text.
type returnControl struct {
	value    lua.LValue
	returned bool
}

// installReturn binds ret into the call scope. It is installed after the
// inputs, so an input named ret cannot shadow it.
func (c *Context) installReturn(call *lua.LTable) *returnControl {
	ctl := &returnControl{}
	call.RawSetString("ret", c.L.NewFunction(func(L *lua.LState) int {
		ctl.value = L.Get(1)
		ctl.returned = true
		L.Error(lua.LString("early return"), 0)
		return 0
	}))
	return ctl
}

// evalUnit compiles and runs one statement in the given scope, returning its
// value when the unit produces one, or the error entry attributed to it.
func (c *Context) evalUnit(u program.Unit, env *lua.LTable) (lua.LValue, *ErrorEntry) {
	proto, err := u.Compile(chunkName)
	if err != nil {
		return lua.LNil, &ErrorEntry{Line: u.Line, Message: err.Error()}
	}
	fn := c.L.NewFunctionFromProto(proto)
	c.L.SetFEnv(fn, env)
	c.L.Push(fn)

	nret := 0
	if u.Produces {
		nret = 1
	}
	if err := c.L.PCall(0, nret, nil); err != nil {
		return lua.LNil, c.runtimeEntry(u, err)
	}
	if !u.Produces {
		return lua.LNil, nil
	}
	val := c.L.Get(-1)
	c.L.Pop(1)
	return val, nil
}

// runtimeEntry extracts the line the interpreter attributed to a runtime
// error, falling back to the unit's own line, and strips the position prefix
// from the message.
func (c *Context) runtimeEntry(u program.Unit, err error) *ErrorEntry {
	msg := err.Error()
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		msg = apiErr.Object.String()
	}
	line := u.Line
	if m := errPosition.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			line = n
		}
		msg = m[2]
	}
	return &ErrorEntry{Line: line, Message: msg}
}

// packInto encodes the candidate output. A packing failure becomes an error
// entry on line zero and the result carries no output.
func (c *Context) packInto(res *EvaluationResult, lv lua.LValue, have bool) {
	if !have {
		return
	}
	out, err := value.Pack(luaToNative(lv), c.renderer)
	if err != nil {
		res.Errors = append(res.Errors, ErrorEntry{Message: fmt.Sprintf("packing output: %v", err)})
		return
	}
	res.Output = out
}

// syntaxResult maps a parse failure onto the result. Anything other than a
// syntax error is an internal failure and propagates.
func syntaxResult(res *EvaluationResult, err error) (*EvaluationResult, error) {
	var serr *program.SyntaxError
	if errors.As(err, &serr) {
		res.Errors = append(res.Errors, ErrorEntry{Line: serr.Line, Message: serr.Message})
		return res, nil
	}
	return nil, err
}

func (c *Context) debugf(format string, args ...any) {
	if c.logf != nil {
		c.logf(format, args...)
	}
}
