// Package mcp exposes an evaluation context as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/luacell/luacell"
	"github.com/luacell/luacell/internal/config"
)

// Server wraps one shared evaluation context in a set of MCP tools. All
// tool calls run against the same session scope, so variables set by one
// call are visible to the next.
type Server struct {
	config *config.Config
	ctx    *luacell.Context
	mcp    *server.MCPServer
}

// NewServer creates an MCP server around the given evaluation context.
// The caller keeps ownership of the context and closes it after Serve
// returns.
func NewServer(cfg *config.Config, ctx *luacell.Context) *Server {
	s := &Server{
		config: cfg,
		ctx:    ctx,
		mcp: server.NewMCPServer(
			"luacell",
			luacell.Version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdin and stdout until the stream closes.
func (s *Server) Serve() error {
	s.config.Log(0, "mcp server on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	runTool := mcp.NewTool("run_code",
		mcp.WithDescription("Evaluate Lua code in the session scope. Assignments persist across calls. Evaluation continues past failed statements; the result lists each error with its line and carries the value of the last expression as the output."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Lua source to evaluate"),
		),
	)
	s.mcp.AddTool(runTool, s.handleRunCode)

	callTool := mcp.NewTool("call_code",
		mcp.WithDescription("Evaluate Lua code as a function body. Inputs are unpacked into a scope that vanishes afterwards, and evaluation stops at the first error. Call ret(value) to return early."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Lua source to evaluate"),
		),
		mcp.WithObject("inputs",
			mcp.Description("Named input values, each a {type, format, content} package"),
		),
		mcp.WithBoolean("isolated",
			mcp.Description("Hide session variables from the call"),
		),
	)
	s.mcp.AddTool(callTool, s.handleCallCode)

	depsTool := mcp.NewTool("code_dependencies",
		mcp.WithDescription("List the identifiers the code references, excluding built-ins, in first-seen order. A lexical scan: names the code itself binds may still appear. These are the names a call would likely need as inputs."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Lua source to scan"),
		),
	)
	s.mcp.AddTool(depsTool, s.handleCodeDependencies)
}

func (s *Server) handleRunCode(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.config.Log(2, "mcp run_code: %d bytes", len(code))
	result, err := s.ctx.RunCode(code)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(result)
}

func (s *Server) handleCallCode(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	inputs := map[string]any{}
	if raw, ok := request.GetArguments()["inputs"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("inputs must be an object of named packages"), nil
		}
		inputs = m
	}
	isolated := request.GetBool("isolated", false)

	s.config.Log(2, "mcp call_code: %d bytes, %d inputs", len(code), len(inputs))
	result, err := s.ctx.CallCode(code, inputs, isolated)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(result)
}

func (s *Server) handleCodeDependencies(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	names, err := s.ctx.CodeDependencies(code)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if names == nil {
		names = []string{}
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding names: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// toolResult encodes an evaluation result as a JSON text payload. User
// code errors ride inside the payload; only protocol failures become
// tool errors.
func toolResult(result *luacell.EvaluationResult) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
