// Package formatter renders IOzide ASTs back to canonical source.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/iozide/iozide/pkg/ast"
)

const indent = "  "

// maxInline is the widest object literal kept on one line.
const maxInline = 72

// Binding strength of each expression form (higher = tighter binding).
const (
	precAssign = iota
	precLogical
	precComparison
	precAdditive
	precMultiplicative
	precPostfix
	precPrimary
)

func binaryPrec(op ast.BinaryOp) int {
	switch op {
	case ast.OpAdd, ast.OpSub:
		return precAdditive
	case ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		return precMultiplicative
	}
	return precComparison
}

func exprPrec(e ast.Expr) int {
	switch expr := e.(type) {
	case *ast.AssignmentExpression:
		return precAssign
	case *ast.ObjectLiteral:
		// an object literal may only open an expression, so anywhere
		// tighter than a full expression it needs parentheses
		return precAssign
	case *ast.LogicalExpression:
		return precLogical
	case *ast.BinaryExpression:
		return binaryPrec(expr.Operator)
	case *ast.CallExpression, *ast.MemberExpression:
		return precPostfix
	}
	return precPrimary
}

// Format pretty-prints a program back to source code.
func Format(program *ast.Program) string {
	if len(program.Body) == 0 {
		return ""
	}
	lines := make([]string, len(program.Body))
	for i, s := range program.Body {
		lines[i] = formatStmt(s, 0)
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments reports whether source contains '~' comments, which the
// lexer discards and Format therefore cannot reproduce.
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		switch ch := source[i]; {
		case inString && ch == '\\':
			i++
		case ch == '"':
			inString = !inString
		case !inString && ch == '~':
			return true
		}
	}
	return false
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.VariableDeclaration:
		keyword := "let "
		if stmt.Constant {
			keyword = "const "
		}
		if stmt.Value == nil {
			return prefix + keyword + stmt.Name + ";"
		}
		return prefix + keyword + stmt.Name + " = " + formatExpr(stmt.Value, precAssign, depth) + ";"

	case *ast.FunctionDeclaration:
		params := strings.Join(stmt.Params, ", ")
		return prefix + "fn " + stmt.Name + "(" + params + ") " + formatBlock(stmt.Body, depth)

	case *ast.IfStatement:
		out := prefix + "if (" + formatExpr(stmt.Condition, precLogical, depth) + ") " + formatBlock(stmt.Body, depth)
		for link := stmt.Else; link != nil; link = link.Else {
			if link.Condition == nil {
				out += " else " + formatBlock(link.Body, depth)
				break
			}
			out += " elseif (" + formatExpr(link.Condition, precLogical, depth) + ") " + formatBlock(link.Body, depth)
		}
		return out

	case *ast.WhileStatement:
		return prefix + "while (" + formatExpr(stmt.Condition, precLogical, depth) + ") " + formatBlock(stmt.Body, depth)

	case *ast.ForStatement:
		// the initializer carries its own semicolon
		return prefix + "for (" + formatStmt(stmt.Init, 0) + " " +
			formatExpr(stmt.Condition, precAssign, depth) + "; " +
			strings.TrimSuffix(formatStmt(stmt.Step, 0), ";") + ") " +
			formatBlock(stmt.Body, depth)

	case *ast.DieStatement:
		if stmt.Code == 0 {
			return prefix + "die;"
		}
		return prefix + "die " + strconv.Itoa(stmt.Code) + ";"

	case ast.Expr:
		return prefix + formatExpr(stmt, precAssign, depth) + ";"
	}
	return ""
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = formatStmt(s, depth+1)
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

// formatExpr renders e, parenthesized when it binds looser than minPrec.
func formatExpr(e ast.Expr, minPrec, depth int) string {
	out := formatBare(e, depth)
	if exprPrec(e) < minPrec {
		return "(" + out + ")"
	}
	return out
}

func formatBare(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.NumericLiteral:
		return formatNumber(expr.Value)

	case *ast.StringLiteral:
		return quote(expr.Value)

	case *ast.Identifier:
		if expr.Negate {
			return "!" + expr.Symbol
		}
		return expr.Symbol

	case *ast.AssignmentExpression:
		target := formatExpr(expr.Assignee, precLogical, depth)
		if expr.Value == nil {
			return target + expr.Operator + expr.Operator
		}
		return target + " " + expr.Operator + " " + formatExpr(expr.Value, precAssign, depth)

	case *ast.LogicalExpression:
		// left-associative: a chain nests on the left
		return formatExpr(expr.Left, precLogical, depth) + " " + string(expr.Operator) + " " +
			formatExpr(expr.Right, precComparison, depth)

	case *ast.BinaryExpression:
		prec := binaryPrec(expr.Operator)
		return formatExpr(expr.Left, prec, depth) + " " + string(expr.Operator) + " " +
			formatExpr(expr.Right, prec+1, depth)

	case *ast.CallExpression:
		args := make([]string, len(expr.Arguments))
		for i, arg := range expr.Arguments {
			args[i] = formatExpr(arg, precAssign, depth)
		}
		return formatExpr(expr.Callee, precPostfix, depth) + "(" + strings.Join(args, ", ") + ")"

	case *ast.MemberExpression:
		object := formatExpr(expr.Object, precPostfix, depth)
		if expr.Computed {
			return object + "[" + formatExpr(expr.Property, precAssign, depth) + "]"
		}
		return object + "." + formatBare(expr.Property, depth)

	case *ast.ObjectLiteral:
		return formatObject(expr, depth)
	}
	return ""
}

// formatNumber writes numbers the way the lexer reads them back: digit runs
// with an optional leading sign.
func formatNumber(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote renders s as a string literal using only the escapes the lexer knows.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatProperty(p *ast.Property, depth int) string {
	if p.Value == nil {
		return p.Key
	}
	return p.Key + ": " + formatExpr(p.Value, precAssign, depth)
}

func formatObject(obj *ast.ObjectLiteral, depth int) string {
	if len(obj.Properties) == 0 {
		return "{}"
	}

	// Try inline first
	inlineParts := make([]string, len(obj.Properties))
	for i, p := range obj.Properties {
		inlineParts[i] = formatProperty(p, depth+1)
	}
	inline := "{ " + strings.Join(inlineParts, ", ") + " }"
	if len(inline) <= maxInline && !strings.Contains(inline, "\n") {
		return inline
	}

	// Multi-line
	inner := strings.Repeat(indent, depth+1)
	outer := strings.Repeat(indent, depth)
	parts := make([]string, len(obj.Properties))
	for i, p := range obj.Properties {
		parts[i] = inner + formatProperty(p, depth+1)
	}
	return "{\n" + strings.Join(parts, ",\n") + "\n" + outer + "}"
}
