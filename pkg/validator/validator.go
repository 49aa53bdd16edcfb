// Package validator implements static checks on IOzide programs.
//
// The walk mirrors runtime scoping: function bodies, if/elseif/else bodies
// and loop bodies each open a child scope, while a for initializer declares
// into the enclosing scope. Only problems that are certain to fail at run
// time on the path that reaches them are reported.
package validator

import (
	"fmt"

	"github.com/iozide/iozide/pkg/ast"
	"github.com/iozide/iozide/pkg/diagnostics"
)

type scope struct {
	bindings map[string]bool // name -> constant
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

// lookup returns whether name is visible and whether it is constant.
func (s *scope) lookup(name string) (found, constant bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if c, ok := cur.bindings[name]; ok {
			return true, c
		}
	}
	return false, false
}

func (s *scope) hasLocal(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

func (s *scope) add(name string, constant bool) {
	s.bindings[name] = constant
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate performs static analysis on a program and returns diagnostics in
// source order. Predeclared names are constants of the top-level scope, the
// way the standard global environment declares them.
func Validate(program *ast.Program, predeclared ...string) []diagnostics.Diagnostic {
	globals := newScope(nil)
	for _, name := range predeclared {
		globals.add(name, true)
	}
	v := &validator{}
	v.validateStatements(program.Body, globals)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (v *validator) declare(name string, constant bool, span ast.Span, sc *scope) {
	if sc.hasLocal(name) {
		v.addDiag(diagnostics.EDupBinding,
			fmt.Sprintf("duplicate binding '%s' in the same scope", name), span,
			"rename one of the bindings or assign instead of declaring")
	}
	sc.add(name, constant)
}

func (v *validator) validateStatements(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		v.validateStmt(stmt, sc)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		v.validateExpr(s.Value, sc)
		v.declare(s.Name, s.Constant, s.Span, sc)

	case *ast.FunctionDeclaration:
		// the name is bound before the body runs, so recursion resolves
		v.declare(s.Name, true, s.Span, sc)
		body := newScope(sc)
		for _, param := range s.Params {
			v.declare(param, false, s.Span, body)
		}
		v.validateStatements(s.Body, body)

	case *ast.IfStatement:
		for link := s; link != nil; link = link.Else {
			v.validateExpr(link.Condition, sc)
			v.validateStatements(link.Body, newScope(sc))
		}

	case *ast.WhileStatement:
		v.validateExpr(s.Condition, sc)
		v.validateStatements(s.Body, newScope(sc))

	case *ast.ForStatement:
		if s.Init != nil {
			v.validateStmt(s.Init, sc)
		}
		v.validateExpr(s.Condition, sc)
		if s.Step != nil {
			v.validateStmt(s.Step, sc)
		}
		v.validateStatements(s.Body, newScope(sc))

	case *ast.DieStatement:
		// nothing to check

	case ast.Expr:
		v.validateExpr(s, sc)
	}
}

func (v *validator) validateExpr(expr ast.Expr, sc *scope) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *ast.NumericLiteral, *ast.StringLiteral, *ast.Identifier:
		// always valid statically

	case *ast.AssignmentExpression:
		v.validateExpr(e.Value, sc)
		v.validateAssignee(e, sc)

	case *ast.BinaryExpression:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)

	case *ast.LogicalExpression:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)

	case *ast.CallExpression:
		for _, arg := range e.Arguments {
			v.validateExpr(arg, sc)
		}
		v.validateExpr(e.Callee, sc)

	case *ast.MemberExpression:
		v.validateExpr(e.Object, sc)
		if e.Computed {
			v.validateExpr(e.Property, sc)
		}

	case *ast.ObjectLiteral:
		for _, prop := range e.Properties {
			v.validateExpr(prop.Value, sc)
		}
	}
}

func (v *validator) validateAssignee(e *ast.AssignmentExpression, sc *scope) {
	id, ok := e.Assignee.(*ast.Identifier)
	if !ok || id.Negate {
		kind := e.Assignee.Kind()
		if ok {
			kind = "negated Identifier"
		}
		v.addDiag(diagnostics.EAssignTarget,
			fmt.Sprintf("invalid assignment target: %s", kind), e.Assignee.NodeSpan(),
			"only plain variable names can be assigned")
		return
	}
	if found, constant := sc.lookup(id.Symbol); found && constant {
		v.addDiag(diagnostics.EConstAssign,
			fmt.Sprintf("cannot assign to constant '%s'", id.Symbol), id.Span,
			"declare it with 'let' if it needs to change")
	}
}
