// Package cli provides the command-line interface for luacell.
// It exports Run() and RunWithHooks() to allow extension by wrapper projects.
package cli

import (
	"fmt"
	"os"

	"github.com/luacell/luacell"
)

// Hooks allows extending the CLI with additional commands.
type Hooks struct {
	// BeforeDispatch is called before command dispatch.
	// Return (handled=true, exitCode) to skip normal dispatch.
	BeforeDispatch func(command string, args []string) (handled bool, exitCode int)

	// CustomHelp returns additional help text to append.
	CustomHelp func() string

	// CustomVersion returns version info to append (optional).
	CustomVersion func() string
}

// Run executes the CLI with the given arguments.
// Returns exit code (0 = success, non-zero = error).
func Run(args []string) int {
	return RunWithHooks(args, nil)
}

// RunWithHooks executes the CLI with extension hooks.
func RunWithHooks(args []string, hooks *Hooks) int {
	if len(args) < 1 {
		return runServe(args)
	}

	command := args[0]
	cmdArgs := args[1:]

	// Let hooks intercept first
	if hooks != nil && hooks.BeforeDispatch != nil {
		if handled, code := hooks.BeforeDispatch(command, cmdArgs); handled {
			return code
		}
	}

	switch command {
	case "serve":
		return runServe(cmdArgs)
	case "mcp":
		return runMCP(cmdArgs)
	case "repl":
		return runREPL(cmdArgs)
	case "run":
		return runFile(cmdArgs)
	case "deps":
		return runDeps(cmdArgs)
	case "help", "-h", "--help":
		printHelp(hooks)
		return 0
	case "version", "--version":
		printVersion(hooks)
		return 0
	default:
		// Check if it's a flag (starts with -)
		if len(command) > 0 && command[0] == '-' {
			return runServe(args)
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printHelp(hooks)
		return 1
	}
}

func printHelp(hooks *Hooks) {
	fmt.Println(`Luacell Evaluation Server

Usage: luacell [command] [options]

Commands:
  serve           Start the WebSocket server (default)
  mcp             Serve the evaluation tools over MCP on stdio
  repl            Interactive evaluation loop
  run <file>      Evaluate a Lua file and print the result JSON
  deps <file|->   Print the free identifiers of a Lua file

Options:
  -host               Listen address (default: 127.0.0.1)
  -port               Listen port (default: 8080)
  -libraries          Comma-separated namespace allow-list (default: string,table,math,os)
  -local              Keep session state out of the ambient globals (default: true)
  -closed             Cut contexts off from the ambient globals
  -dir                Working directory for require
  -reload             Re-read changed Lua modules under -dir
  -session-timeout    Idle session expiry (default: 1h, 0=never)
  -log-level          Log level: debug, info, warn, error
  -v                  Increase verbosity (repeatable: -v, -vv, -vvv)

Examples:
  luacell serve -port 9000
  luacell repl -libraries math,string
  luacell run script.lua
  echo 'f(x) + 1' | luacell deps -`)

	if hooks != nil && hooks.CustomHelp != nil {
		fmt.Println(hooks.CustomHelp())
	}
}

func printVersion(hooks *Hooks) {
	fmt.Println("luacell v" + luacell.Version)
	if hooks != nil && hooks.CustomVersion != nil {
		fmt.Println(hooks.CustomVersion())
	}
}
