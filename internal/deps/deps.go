// Package deps performs the lexical dependency scan: every identifier a
// snippet references, in first-seen order, minus builtin names. It is a
// syntactic over-approximation by design. Names bound later in the same
// snippet still count, and indirect references never do.
package deps

import (
	"github.com/yuin/gopher-lua/ast"

	"github.com/luacell/luacell/internal/program"
)

const chunkName = "code"

// Scan parses source and collects free identifiers. isBuiltin filters out
// names the scope chain already provides; nil keeps everything.
func Scan(source string, isBuiltin func(string) bool) ([]string, error) {
	units, err := program.Split(source, chunkName)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	names := []string{}
	visit := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if isBuiltin != nil && isBuiltin(name) {
			return
		}
		names = append(names, name)
	}

	for _, u := range units {
		walkStmt(u.Stmt, visit)
	}
	return names, nil
}

func walkStmts(stmts []ast.Stmt, visit func(string)) {
	for _, stmt := range stmts {
		walkStmt(stmt, visit)
	}
}

func walkStmt(stmt ast.Stmt, visit func(string)) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		walkExprs(s.Lhs, visit)
		walkExprs(s.Rhs, visit)
	case *ast.LocalAssignStmt:
		for _, name := range s.Names {
			visit(name)
		}
		walkExprs(s.Exprs, visit)
	case *ast.FuncCallStmt:
		walkExpr(s.Expr, visit)
	case *ast.DoBlockStmt:
		walkStmts(s.Stmts, visit)
	case *ast.WhileStmt:
		walkExpr(s.Condition, visit)
		walkStmts(s.Stmts, visit)
	case *ast.RepeatStmt:
		walkStmts(s.Stmts, visit)
		walkExpr(s.Condition, visit)
	case *ast.IfStmt:
		walkExpr(s.Condition, visit)
		walkStmts(s.Then, visit)
		walkStmts(s.Else, visit)
	case *ast.NumberForStmt:
		visit(s.Name)
		walkExpr(s.Init, visit)
		walkExpr(s.Limit, visit)
		if s.Step != nil {
			walkExpr(s.Step, visit)
		}
		walkStmts(s.Stmts, visit)
	case *ast.GenericForStmt:
		for _, name := range s.Names {
			visit(name)
		}
		walkExprs(s.Exprs, visit)
		walkStmts(s.Stmts, visit)
	case *ast.FuncDefStmt:
		if s.Name.Func != nil {
			walkExpr(s.Name.Func, visit)
		}
		if s.Name.Receiver != nil {
			walkExpr(s.Name.Receiver, visit)
		}
		walkExpr(s.Func, visit)
	case *ast.ReturnStmt:
		walkExprs(s.Exprs, visit)
	}
}

func walkExprs(exprs []ast.Expr, visit func(string)) {
	for _, expr := range exprs {
		walkExpr(expr, visit)
	}
}

func walkExpr(expr ast.Expr, visit func(string)) {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		visit(e.Value)
	case *ast.AttrGetExpr:
		walkExpr(e.Object, visit)
		// x.y parses the key as a string literal; only computed keys like
		// x[i] reference an identifier.
		if _, literal := e.Key.(*ast.StringExpr); !literal {
			walkExpr(e.Key, visit)
		}
	case *ast.TableExpr:
		for _, field := range e.Fields {
			if field.Key != nil {
				if _, literal := field.Key.(*ast.StringExpr); !literal {
					walkExpr(field.Key, visit)
				}
			}
			walkExpr(field.Value, visit)
		}
	case *ast.FuncCallExpr:
		if e.Func != nil {
			walkExpr(e.Func, visit)
		}
		if e.Receiver != nil {
			walkExpr(e.Receiver, visit)
		}
		walkExprs(e.Args, visit)
	case *ast.LogicalOpExpr:
		walkExpr(e.Lhs, visit)
		walkExpr(e.Rhs, visit)
	case *ast.RelationalOpExpr:
		walkExpr(e.Lhs, visit)
		walkExpr(e.Rhs, visit)
	case *ast.StringConcatOpExpr:
		walkExpr(e.Lhs, visit)
		walkExpr(e.Rhs, visit)
	case *ast.ArithmeticOpExpr:
		walkExpr(e.Lhs, visit)
		walkExpr(e.Rhs, visit)
	case *ast.UnaryMinusOpExpr:
		walkExpr(e.Expr, visit)
	case *ast.UnaryNotOpExpr:
		walkExpr(e.Expr, visit)
	case *ast.UnaryLenOpExpr:
		walkExpr(e.Expr, visit)
	case *ast.FunctionExpr:
		for _, name := range e.ParList.Names {
			visit(name)
		}
		walkStmts(e.Stmts, visit)
	}
}
