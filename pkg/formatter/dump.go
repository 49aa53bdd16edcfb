package formatter

import (
	"encoding/json"
	"fmt"

	"github.com/iozide/iozide/pkg/ast"
)

// Dump renders node as indented JSON. Every node object carries a "kind"
// tag and a compact "span" of the form line:col-line:col.
func Dump(node ast.Node) ([]byte, error) {
	return json.MarshalIndent(dumpNode(node), "", "  ")
}

type tree = map[string]any

func spanText(s ast.Span) string {
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}

func dumpList[T ast.Node](nodes []T) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = dumpNode(n)
	}
	return out
}

func dumpNode(node ast.Node) any {
	if node == nil {
		return nil
	}
	t := tree{"kind": node.Kind(), "span": spanText(node.NodeSpan())}

	switch n := node.(type) {
	case *ast.Program:
		t["body"] = dumpList(n.Body)

	case *ast.VariableDeclaration:
		t["name"] = n.Name
		t["constant"] = n.Constant
		t["value"] = dumpExpr(n.Value)

	case *ast.FunctionDeclaration:
		t["name"] = n.Name
		t["params"] = n.Params
		t["body"] = dumpList(n.Body)

	case *ast.IfStatement:
		t["condition"] = dumpExpr(n.Condition)
		t["body"] = dumpList(n.Body)
		if n.Else != nil {
			t["else"] = dumpNode(n.Else)
		}

	case *ast.WhileStatement:
		t["condition"] = dumpExpr(n.Condition)
		t["body"] = dumpList(n.Body)

	case *ast.ForStatement:
		t["init"] = dumpNode(n.Init)
		t["condition"] = dumpExpr(n.Condition)
		t["step"] = dumpNode(n.Step)
		t["body"] = dumpList(n.Body)

	case *ast.DieStatement:
		t["code"] = n.Code

	case *ast.NumericLiteral:
		t["value"] = n.Value

	case *ast.StringLiteral:
		t["value"] = n.Value

	case *ast.Identifier:
		t["symbol"] = n.Symbol
		if n.Negate {
			t["negate"] = true
		}

	case *ast.AssignmentExpression:
		t["operator"] = n.Operator
		t["assignee"] = dumpExpr(n.Assignee)
		t["value"] = dumpExpr(n.Value)

	case *ast.BinaryExpression:
		t["operator"] = string(n.Operator)
		t["left"] = dumpExpr(n.Left)
		t["right"] = dumpExpr(n.Right)

	case *ast.LogicalExpression:
		t["operator"] = string(n.Operator)
		t["left"] = dumpExpr(n.Left)
		t["right"] = dumpExpr(n.Right)

	case *ast.CallExpression:
		t["callee"] = dumpExpr(n.Callee)
		t["arguments"] = dumpList(n.Arguments)

	case *ast.MemberExpression:
		t["object"] = dumpExpr(n.Object)
		t["property"] = dumpExpr(n.Property)
		t["computed"] = n.Computed

	case *ast.ObjectLiteral:
		t["properties"] = dumpList(n.Properties)

	case *ast.Property:
		t["key"] = n.Key
		t["value"] = dumpExpr(n.Value)
	}
	return t
}

// dumpExpr keeps a nil expression as JSON null instead of a typed nil node.
func dumpExpr(e ast.Expr) any {
	if e == nil {
		return nil
	}
	return dumpNode(e)
}
