package luacell

import (
	"github.com/luacell/luacell/internal/render"
	"github.com/luacell/luacell/value"
)

// Option adjusts context construction.
type Option func(*options)

type options struct {
	libraries  []string
	local      bool
	closed     bool
	workingDir string
	reload     bool
	renderer   value.Renderer
	logf       func(format string, args ...any)
}

func defaultOptions() options {
	return options{
		local:    true,
		renderer: render.PNG{Width: 640, Height: 480},
	}
}

// WithLibraries replaces the default namespace allow-list. Construction
// fails on names the runtime does not provide.
func WithLibraries(names ...string) Option {
	return func(o *options) {
		o.libraries = names
	}
}

// WithWorkingDir sets the directory require resolves module files against.
func WithWorkingDir(dir string) Option {
	return func(o *options) {
		o.workingDir = dir
	}
}

// WithReload watches the working directory and drops changed modules from
// the require cache, so the next require re-reads them. It requires a
// working directory.
func WithReload(reload bool) Option {
	return func(o *options) {
		o.reload = reload
	}
}

// WithLocal controls whether the session scope is a fresh table (true, the
// default) or the ambient globals table, where assignments persist into the
// interpreter's own globals.
func WithLocal(local bool) Option {
	return func(o *options) {
		o.local = local
	}
}

// WithClosed cuts the scope chain off from the ambient globals so code sees
// only the allow-listed libraries and the builtin base set.
func WithClosed(closed bool) Option {
	return func(o *options) {
		o.closed = closed
	}
}

// WithRenderer replaces the plot renderer. A nil renderer makes packing a
// plot fail with an error entry.
func WithRenderer(r value.Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithLogf directs context diagnostics to logf. The default discards them.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(o *options) {
		o.logf = logf
	}
}
