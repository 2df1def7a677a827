package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/luacell/luacell/internal/config"
	"github.com/luacell/luacell/internal/server"
)

// runFile evaluates a Lua file and prints the result as JSON. The exit
// code is 1 when the result carries errors.
func runFile(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: luacell run <file.lua> [options]")
		return 1
	}
	path, rest := args[0], args[1:]

	code, err := readSource(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		return 1
	}

	cfg, err := config.Load(rest)
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

	result, err := ctx.RunCode(code)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		return 1
	}
	fmt.Println(string(payload))

	if len(result.Errors) > 0 {
		return 1
	}
	return 0
}

// runDeps prints the free identifiers of a Lua file, one per line. A
// path of "-" reads from stdin.
func runDeps(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: luacell deps <file.lua|-> [options]")
		return 1
	}
	path, rest := args[0], args[1:]

	code, err := readSource(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		return 1
	}

	cfg, err := config.Load(rest)
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

	names, err := ctx.CodeDependencies(code)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return 0
}

// readSource reads a Lua file, or stdin when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
