package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureOutput runs fn with stdout redirected to a pipe and returns
// what it printed along with its exit code.
func captureOutput(t *testing.T, fn func() int) (string, int) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	code := fn()

	w.Close()
	os.Stdout = old
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured output: %v", err)
	}
	return string(data), code
}

func writeLua(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lua")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// TestRunUnknownCommand verifies unknown commands fail with help text.
func TestRunUnknownCommand(t *testing.T) {
	out, code := captureOutput(t, func() int {
		return Run([]string{"nosuchcommand"})
	})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "Usage:") {
		t.Error("expected help text after unknown command")
	}
}

// TestRunVersion verifies the version command.
func TestRunVersion(t *testing.T) {
	out, code := captureOutput(t, func() int {
		return Run([]string{"version"})
	})
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out, "luacell v") {
		t.Errorf("version output = %q", out)
	}
}

// TestRunHelp verifies the help command lists the commands.
func TestRunHelp(t *testing.T) {
	out, code := captureOutput(t, func() int {
		return Run([]string{"help"})
	})
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	for _, want := range []string{"serve", "repl", "run <file>", "deps"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

// TestHooksBeforeDispatch verifies hooks can intercept commands.
func TestHooksBeforeDispatch(t *testing.T) {
	hooks := &Hooks{
		BeforeDispatch: func(command string, args []string) (bool, int) {
			if command == "custom" {
				return true, 7
			}
			return false, 0
		},
	}
	if code := RunWithHooks([]string{"custom"}, hooks); code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
}

// TestHooksCustomVersion verifies extra version info is appended.
func TestHooksCustomVersion(t *testing.T) {
	hooks := &Hooks{
		CustomVersion: func() string { return "wrapper v9" },
	}
	out, _ := captureOutput(t, func() int {
		return RunWithHooks([]string{"version"}, hooks)
	})
	if !strings.Contains(out, "wrapper v9") {
		t.Errorf("version output = %q, want wrapper line", out)
	}
}

// TestRunFile verifies a file evaluates and prints its result JSON.
func TestRunFile(t *testing.T) {
	path := writeLua(t, "x = 40\nx + 2")
	out, code := captureOutput(t, func() int {
		return Run([]string{"run", path})
	})
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out, `"content": "42"`) {
		t.Errorf("run output = %q, want output content 42", out)
	}
}

// TestRunFileErrors verifies evaluation errors set the exit code.
func TestRunFileErrors(t *testing.T) {
	path := writeLua(t, "boom()")
	out, code := captureOutput(t, func() int {
		return Run([]string{"run", path})
	})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, `"line": 1`) {
		t.Errorf("run output = %q, want an error entry on line 1", out)
	}
}

// TestRunFileMissing verifies a missing file fails.
func TestRunFileMissing(t *testing.T) {
	_, code := captureOutput(t, func() int {
		return Run([]string{"run", filepath.Join(t.TempDir(), "absent.lua")})
	})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

// TestRunDeps verifies free identifiers print one per line.
func TestRunDeps(t *testing.T) {
	path := writeLua(t, "f(x) + 1")
	out, code := captureOutput(t, func() int {
		return Run([]string{"deps", path})
	})
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if out != "f\nx\n" {
		t.Errorf("deps output = %q, want f and x lines", out)
	}
}
