package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/luacell/luacell"
	"github.com/luacell/luacell/internal/config"
	"github.com/luacell/luacell/internal/program"
	"github.com/luacell/luacell/internal/server"
)

const historyFile = ".luacell_history"

// runREPL runs an interactive evaluation loop over one context. Session
// state persists for the life of the process.
func runREPL(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx, err := server.NewContext(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create context: %v\n", err)
		return 1
	}
	defer ctx.Close()

	fmt.Println("luacell v" + luacell.Version + "  (exit or Ctrl+D to quit)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readStatement(ln)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			break
		}

		result, err := ctx.RunCode(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		for _, e := range result.Errors {
			fmt.Printf("error:%d: %s\n", e.Line, e.Message)
		}
		if result.Output != nil {
			fmt.Println(result.Output.Content)
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readStatement reads lines until the parser accepts the buffer as a
// complete program, prompting for continuation lines after truncated
// statements.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt("> ")
		} else {
			line, err = ln.Prompt(">> ")
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C aborts the current input; let the user start again.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := program.Split(src, "repl"); perr != nil && program.IsIncomplete(perr) {
			continue
		}
		// Complete, or a real error the evaluator will report.
		return src, true
	}
}
