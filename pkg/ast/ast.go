// Package ast defines the IOzide language AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents an arithmetic or comparison operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpMod  BinaryOp = "%"
	OpPow  BinaryOp = "^"
	OpGt   BinaryOp = ">"
	OpLt   BinaryOp = "<"
	OpGtEq BinaryOp = ">="
	OpLtEq BinaryOp = "<="
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
)

// IsComparison reports whether op yields a boolean from two operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpGt, OpLt, OpGtEq, OpLtEq, OpEqEq, OpNeq:
		return true
	}
	return false
}

// LogicalOp represents a boolean connective.
type LogicalOp string

const (
	OpAnd LogicalOp = "&&"
	OpOr  LogicalOp = "||"
)

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Expr is the interface for all expression nodes ---
// Every expression may stand alone as a statement.

type Expr interface {
	Stmt
	exprNode() // sealed marker
}

// --- Program ---

type Program struct {
	Span Span
	Body []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
func (n *Program) stmtNode()      {}

// --- Statements ---

type VariableDeclaration struct {
	Span     Span
	Name     string
	Value    Expr // nil when declared without initializer
	Constant bool
}

func (n *VariableDeclaration) Kind() string   { return "VariableDeclaration" }
func (n *VariableDeclaration) NodeSpan() Span { return n.Span }
func (n *VariableDeclaration) stmtNode()      {}

type FunctionDeclaration struct {
	Span   Span
	Name   string
	Params []string
	Body   []Stmt
}

func (n *FunctionDeclaration) Kind() string   { return "FunctionDeclaration" }
func (n *FunctionDeclaration) NodeSpan() Span { return n.Span }
func (n *FunctionDeclaration) stmtNode()      {}

// IfStatement is one link of an if / elseif / else chain.
// A nil Condition marks a bare else. Else is nil at the end of the chain.
type IfStatement struct {
	Span      Span
	Condition Expr
	Body      []Stmt
	Else      *IfStatement
}

func (n *IfStatement) Kind() string   { return "IfStatement" }
func (n *IfStatement) NodeSpan() Span { return n.Span }
func (n *IfStatement) stmtNode()      {}

type WhileStatement struct {
	Span      Span
	Condition Expr
	Body      []Stmt
}

func (n *WhileStatement) Kind() string   { return "WhileStatement" }
func (n *WhileStatement) NodeSpan() Span { return n.Span }
func (n *WhileStatement) stmtNode()      {}

type ForStatement struct {
	Span      Span
	Init      Stmt
	Condition Expr
	Step      Stmt
	Body      []Stmt
}

func (n *ForStatement) Kind() string   { return "ForStatement" }
func (n *ForStatement) NodeSpan() Span { return n.Span }
func (n *ForStatement) stmtNode()      {}

type DieStatement struct {
	Span Span
	Code int
}

func (n *DieStatement) Kind() string   { return "DieStatement" }
func (n *DieStatement) NodeSpan() Span { return n.Span }
func (n *DieStatement) stmtNode()      {}

// --- Literal Expressions ---

type NumericLiteral struct {
	Span  Span
	Value float64
}

func (n *NumericLiteral) Kind() string   { return "NumericLiteral" }
func (n *NumericLiteral) NodeSpan() Span { return n.Span }
func (n *NumericLiteral) stmtNode()      {}
func (n *NumericLiteral) exprNode()      {}

type StringLiteral struct {
	Span  Span
	Value string
}

func (n *StringLiteral) Kind() string   { return "StringLiteral" }
func (n *StringLiteral) NodeSpan() Span { return n.Span }
func (n *StringLiteral) stmtNode()      {}
func (n *StringLiteral) exprNode()      {}

// --- Identifiers ---

// Identifier names a binding. Negate is applied when the identifier is
// evaluated: numbers flip sign, booleans are inverted.
type Identifier struct {
	Span   Span
	Symbol string
	Negate bool
}

func (n *Identifier) Kind() string   { return "Identifier" }
func (n *Identifier) NodeSpan() Span { return n.Span }
func (n *Identifier) stmtNode()      {}
func (n *Identifier) exprNode()      {}

// --- Operators ---

// AssignmentExpression stores the raw operator: "=" for plain assignment,
// "+=" style for compound forms, and a bare "+" or "-" with a nil Value for
// increment and decrement.
type AssignmentExpression struct {
	Span     Span
	Assignee Expr
	Value    Expr
	Operator string
}

func (n *AssignmentExpression) Kind() string   { return "AssignmentExpression" }
func (n *AssignmentExpression) NodeSpan() Span { return n.Span }
func (n *AssignmentExpression) stmtNode()      {}
func (n *AssignmentExpression) exprNode()      {}

type BinaryExpression struct {
	Span     Span
	Left     Expr
	Right    Expr
	Operator BinaryOp
}

func (n *BinaryExpression) Kind() string   { return "BinaryExpression" }
func (n *BinaryExpression) NodeSpan() Span { return n.Span }
func (n *BinaryExpression) stmtNode()      {}
func (n *BinaryExpression) exprNode()      {}

type LogicalExpression struct {
	Span     Span
	Left     Expr
	Right    Expr
	Operator LogicalOp
}

func (n *LogicalExpression) Kind() string   { return "LogicalExpression" }
func (n *LogicalExpression) NodeSpan() Span { return n.Span }
func (n *LogicalExpression) stmtNode()      {}
func (n *LogicalExpression) exprNode()      {}

// --- Calls & Members ---

type CallExpression struct {
	Span      Span
	Callee    Expr
	Arguments []Expr
}

func (n *CallExpression) Kind() string   { return "CallExpression" }
func (n *CallExpression) NodeSpan() Span { return n.Span }
func (n *CallExpression) stmtNode()      {}
func (n *CallExpression) exprNode()      {}

type MemberExpression struct {
	Span     Span
	Object   Expr
	Property Expr
	Computed bool
}

func (n *MemberExpression) Kind() string   { return "MemberExpression" }
func (n *MemberExpression) NodeSpan() Span { return n.Span }
func (n *MemberExpression) stmtNode()      {}
func (n *MemberExpression) exprNode()      {}

// --- Objects ---

// Property is a single key in an object literal. A nil Value is the
// shorthand form, which reads the variable named Key.
type Property struct {
	Span  Span
	Key   string
	Value Expr
}

func (n *Property) Kind() string   { return "Property" }
func (n *Property) NodeSpan() Span { return n.Span }

type ObjectLiteral struct {
	Span       Span
	Properties []*Property
}

func (n *ObjectLiteral) Kind() string   { return "ObjectLiteral" }
func (n *ObjectLiteral) NodeSpan() Span { return n.Span }
func (n *ObjectLiteral) stmtNode()      {}
func (n *ObjectLiteral) exprNode()      {}
