package ast_test

import (
	"testing"

	"github.com/iozide/iozide/pkg/ast"
)

func TestNodeKinds(t *testing.T) {
	nodes := []ast.Node{
		&ast.Program{},
		&ast.VariableDeclaration{Name: "x"},
		&ast.FunctionDeclaration{Name: "f"},
		&ast.IfStatement{},
		&ast.WhileStatement{},
		&ast.ForStatement{},
		&ast.DieStatement{Code: 1},
		&ast.NumericLiteral{Value: 42},
		&ast.StringLiteral{Value: "hello"},
		&ast.Identifier{Symbol: "x"},
		&ast.AssignmentExpression{Operator: "="},
		&ast.BinaryExpression{Operator: ast.OpAdd},
		&ast.LogicalExpression{Operator: ast.OpAnd},
		&ast.CallExpression{},
		&ast.MemberExpression{},
		&ast.ObjectLiteral{},
		&ast.Property{Key: "k"},
	}

	expected := []string{
		"Program", "VariableDeclaration", "FunctionDeclaration", "IfStatement",
		"WhileStatement", "ForStatement", "DieStatement", "NumericLiteral",
		"StringLiteral", "Identifier", "AssignmentExpression", "BinaryExpression",
		"LogicalExpression", "CallExpression", "MemberExpression", "ObjectLiteral",
		"Property",
	}

	for i, node := range nodes {
		if got := node.Kind(); got != expected[i] {
			t.Errorf("node %d: got Kind() = %q, want %q", i, got, expected[i])
		}
	}
}

func TestExpressionsAreStatements(t *testing.T) {
	var body []ast.Stmt
	exprs := []ast.Expr{
		&ast.Identifier{Symbol: "x"},
		&ast.CallExpression{Callee: &ast.Identifier{Symbol: "print"}},
		&ast.ObjectLiteral{},
	}
	for _, e := range exprs {
		body = append(body, e)
	}
	if len(body) != len(exprs) {
		t.Fatalf("got %d statements, want %d", len(body), len(exprs))
	}
}

func TestIsComparison(t *testing.T) {
	cmp := []ast.BinaryOp{ast.OpGt, ast.OpLt, ast.OpGtEq, ast.OpLtEq, ast.OpEqEq, ast.OpNeq}
	for _, op := range cmp {
		if !op.IsComparison() {
			t.Errorf("%s should be a comparison", op)
		}
	}
	arith := []ast.BinaryOp{ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow}
	for _, op := range arith {
		if op.IsComparison() {
			t.Errorf("%s should not be a comparison", op)
		}
	}
}
