// Package program parses submitted source into evaluable units: one
// top-level statement each, carrying its 1-based source line. Interactive
// snippets often end in a bare expression, which is not a Lua statement, so
// splitting recovers a trailing expression by re-parsing it as a return.
package program

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"
)

// Unit is one evaluable top-level statement.
type Unit struct {
	Stmt ast.Stmt
	// Line is the statement's 1-based line in the submitted source.
	Line int
	// Produces marks units evaluated for a visible value: returns, trailing
	// expressions, and call statements.
	Produces bool
	// Terminates marks a source-level return, which ends evaluation of the
	// whole submission.
	Terminates bool
}

// SyntaxError is a parse failure attributed to a source line.
type SyntaxError struct {
	Line    int
	Message string
	cause   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *SyntaxError) Unwrap() error { return e.cause }

// IsIncomplete reports whether err is a parse failure caused by source
// that ended mid-statement, as opposed to a real syntax error. The parser
// reports such failures at the EOF pseudo-position. REPLs use this to
// keep reading continuation lines.
func IsIncomplete(err error) bool {
	var perr *parse.Error
	return errors.As(err, &perr) && perr.Pos.Line == parse.EOF
}

// Split parses source into units. A trailing expression is recovered by
// scanning split points from the end: the head must parse on its own and the
// tail must parse as "return <tail>", padded with newlines so every
// statement keeps its absolute line number. Anything else that fails to
// parse is a SyntaxError.
func Split(source, chunkName string) ([]Unit, error) {
	stmts, err := parseChunk(source, chunkName)
	if err == nil {
		return units(stmts), nil
	}

	lines := strings.Split(source, "\n")
	for k := len(lines); k >= 1; k-- {
		tail := strings.Join(lines[k-1:], "\n")
		if strings.TrimSpace(tail) == "" {
			continue
		}
		head := strings.Join(lines[:k-1], "\n")
		headStmts, headErr := parseChunk(head, chunkName)
		if headErr != nil {
			continue
		}
		padded := strings.Repeat("\n", k-1) + "return " + tail
		tailStmts, tailErr := parseChunk(padded, chunkName)
		if tailErr != nil {
			continue
		}
		return units(append(headStmts, tailStmts...)), nil
	}

	return nil, asSyntaxError(err)
}

// Compile translates the unit into its own chunk.
func (u Unit) Compile(chunkName string) (*lua.FunctionProto, error) {
	return lua.Compile([]ast.Stmt{u.Stmt}, chunkName)
}

func parseChunk(source, chunkName string) ([]ast.Stmt, error) {
	return parse.Parse(strings.NewReader(source), chunkName)
}

func units(stmts []ast.Stmt) []Unit {
	out := make([]Unit, 0, len(stmts))
	for _, stmt := range stmts {
		out = append(out, unitFor(stmt))
	}
	return out
}

// unitFor classifies one statement. Call statements are rewrapped as returns
// so their value is visible, without terminating evaluation the way a
// source-level return does.
func unitFor(stmt ast.Stmt) Unit {
	switch s := stmt.(type) {
	case *ast.FuncCallStmt:
		ret := &ast.ReturnStmt{Exprs: []ast.Expr{s.Expr}}
		ret.SetLine(s.Line())
		ret.SetLastLine(s.LastLine())
		return Unit{Stmt: ret, Line: s.Line(), Produces: true}
	case *ast.ReturnStmt:
		return Unit{Stmt: stmt, Line: stmt.Line(), Produces: true, Terminates: true}
	}
	return Unit{Stmt: stmt, Line: stmt.Line()}
}

func asSyntaxError(err error) *SyntaxError {
	var perr *parse.Error
	if errors.As(err, &perr) {
		line := perr.Pos.Line
		if line < 1 {
			line = 1
		}
		msg := strings.TrimSpace(perr.Message)
		if perr.Token != "" {
			msg = fmt.Sprintf("%s near '%s'", msg, perr.Token)
		}
		return &SyntaxError{Line: line, Message: msg, cause: err}
	}
	return &SyntaxError{Line: 1, Message: err.Error(), cause: err}
}
