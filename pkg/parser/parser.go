// Package parser implements the IOzide language parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/iozide/iozide/pkg/ast"
	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/lexer"
)

// ParseError is the first syntax error found in a program.
type ParseError struct {
	Diag     diagnostics.Diagnostic
	Expected string
	Found    lexer.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s", e.Diag.Message, e.Diag.Location())
}

type parser struct {
	tokens []lexer.Token
	pos    int
	err    *ParseError
}

// Parse tokenizes source and parses it into an AST. Lexing failures are
// returned as *lexer.LexError, syntax failures as *ParseError.
func Parse(source, filename string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	if p.err != nil {
		return nil, p.err
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// previous returns the most recently consumed token.
func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.fail(typ.String(), fmt.Sprintf("expected %s, found %s", typ, describe(tok)), "")
		return tok, false
	}
	return p.advance(), true
}

// fail records the first error only; everything after it is noise.
func (p *parser) fail(expected, msg, hint string) {
	if p.err != nil {
		return
	}
	tok := p.current()
	span := tok.Span
	p.err = &ParseError{
		Diag:     diagnostics.MakeDiag(diagnostics.EParse, msg, &span, hint),
		Expected: expected,
		Found:    tok,
	}
}

// spanFrom covers start through the last consumed token.
func (p *parser) spanFrom(start ast.Span) ast.Span {
	end := p.previous().Span
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokEOF {
		return "end of file"
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span

	var body []ast.Stmt
	for p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		body = append(body, stmt)
	}

	return &ast.Program{
		Span: p.spanFromTo(startSpan, p.current().Span),
		Body: body,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokLet, lexer.TokConst:
		s := p.parseVarDecl()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokFn:
		s := p.parseFnDecl()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokIf:
		s := p.parseIf()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokWhile:
		s := p.parseWhile()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokFor:
		s := p.parseFor()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokDie:
		s := p.parseDie()
		if s == nil {
			return nil
		}
		return s
	default:
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokSemicolon); !ok {
			return nil
		}
		return expr
	}
}

// parseVarDecl consumes the terminating semicolon as well.
func (p *parser) parseVarDecl() *ast.VariableDeclaration {
	start := p.advance() // consume 'let' or 'const'
	constant := start.Type == lexer.TokConst

	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}

	if p.peek() == lexer.TokSemicolon {
		if constant {
			p.fail("'='", fmt.Sprintf("constant '%s' must be initialized", nameTok.Value),
				"write const "+nameTok.Value+" = <value>;")
			return nil
		}
		p.advance()
		return &ast.VariableDeclaration{
			Span: p.spanFrom(start.Span),
			Name: nameTok.Value,
		}
	}

	if _, ok := p.expect(lexer.TokEquals); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}
	return &ast.VariableDeclaration{
		Span:     p.spanFrom(start.Span),
		Name:     nameTok.Value,
		Value:    value,
		Constant: constant,
	}
}

func (p *parser) parseFnDecl() *ast.FunctionDeclaration {
	start := p.advance() // consume 'fn'
	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}

	args, ok := p.parseArguments()
	if !ok {
		return nil
	}
	params := make([]string, 0, len(args))
	for _, arg := range args {
		id, isIdent := arg.(*ast.Identifier)
		if !isIdent || id.Negate {
			span := arg.NodeSpan()
			p.err = &ParseError{
				Diag: diagnostics.MakeDiag(diagnostics.EParse,
					fmt.Sprintf("parameters of '%s' must be identifiers, found %s", nameTok.Value, arg.Kind()),
					&span, ""),
				Expected: lexer.TokIdent.String(),
				Found:    nameTok,
			}
			return nil
		}
		params = append(params, id.Symbol)
	}

	body, ok := p.parseBlock()
	if !ok {
		return nil
	}

	return &ast.FunctionDeclaration{
		Span:   p.spanFrom(start.Span),
		Name:   nameTok.Value,
		Params: params,
		Body:   body,
	}
}

// parseIf handles both 'if' and 'elseif' heads.
func (p *parser) parseIf() *ast.IfStatement {
	start := p.advance() // consume 'if' or 'elseif'
	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}

	stmt := &ast.IfStatement{
		Condition: cond,
		Body:      body,
	}

	switch p.peek() {
	case lexer.TokElseIf:
		next := p.parseIf()
		if next == nil {
			return nil
		}
		stmt.Else = next
	case lexer.TokElse:
		elseTok := p.advance()
		if p.peek() == lexer.TokIf {
			p.fail("'{'", "'else if' is not supported", "use 'elseif'")
			return nil
		}
		elseBody, ok := p.parseBlock()
		if !ok {
			return nil
		}
		stmt.Else = &ast.IfStatement{
			Span: p.spanFrom(elseTok.Span),
			Body: elseBody,
		}
	}

	stmt.Span = p.spanFrom(start.Span)
	return stmt
}

func (p *parser) parseWhile() *ast.WhileStatement {
	start := p.advance() // consume 'while'
	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}
	return &ast.WhileStatement{
		Span:      p.spanFrom(start.Span),
		Condition: cond,
		Body:      body,
	}
}

func (p *parser) parseFor() *ast.ForStatement {
	start := p.advance() // consume 'for'
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	var init ast.Stmt
	if p.peek() == lexer.TokLet || p.peek() == lexer.TokConst {
		decl := p.parseVarDecl()
		if decl == nil {
			return nil
		}
		init = decl
	} else {
		initTok := p.current()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if !isAssignOrCall(expr) {
			p.failAt(initTok, "for-loop initializer must be a declaration, assignment or call")
			return nil
		}
		if _, ok := p.expect(lexer.TokSemicolon); !ok {
			return nil
		}
		init = expr
	}

	condTok := p.current()
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	switch cond.(type) {
	case *ast.BinaryExpression, *ast.LogicalExpression:
	default:
		p.failAt(condTok, "for-loop condition must be a comparison or logical expression")
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}

	stepTok := p.current()
	step := p.parseExpr()
	if step == nil {
		return nil
	}
	if !isAssignOrCall(step) {
		p.failAt(stepTok, "for-loop step must be an assignment or call")
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	body, ok := p.parseBlock()
	if !ok {
		return nil
	}

	return &ast.ForStatement{
		Span:      p.spanFrom(start.Span),
		Init:      init,
		Condition: cond,
		Step:      step,
		Body:      body,
	}
}

func isAssignOrCall(e ast.Expr) bool {
	switch e.(type) {
	case *ast.AssignmentExpression, *ast.CallExpression:
		return true
	}
	return false
}

// failAt reports an error anchored at tok rather than the current token.
func (p *parser) failAt(tok lexer.Token, msg string) {
	if p.err != nil {
		return
	}
	span := tok.Span
	p.err = &ParseError{
		Diag:  diagnostics.MakeDiag(diagnostics.EParse, msg, &span, ""),
		Found: tok,
	}
}

func (p *parser) parseDie() *ast.DieStatement {
	start := p.advance() // consume 'die'
	code := 0
	if p.peek() == lexer.TokNumber {
		tok := p.advance()
		n, err := strconv.Atoi(tok.Value)
		if err != nil {
			p.failAt(tok, fmt.Sprintf("exit code %s is out of range", tok.Value))
			return nil
		}
		code = n
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}
	return &ast.DieStatement{
		Span: p.spanFrom(start.Span),
		Code: code,
	}
}

// --- Blocks & conditions ---

func (p *parser) parseBlock() ([]ast.Stmt, bool) {
	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return nil, false
	}
	stmts := []ast.Stmt{}
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil, false
		}
		stmts = append(stmts, stmt)
	}
	if _, ok := p.expect(lexer.TokRBrace); !ok {
		return nil, false
	}
	return stmts, true
}

func (p *parser) parseCondition() ast.Expr {
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	if p.peek() == lexer.TokRParen {
		p.fail("expression", "condition must not be empty", "")
		return nil
	}
	cond := p.parseLogical()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	return cond
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	left := p.parseLogical()
	if left == nil {
		return nil
	}

	switch p.peek() {
	case lexer.TokEquals, lexer.TokCompoundAssign:
		opTok := p.advance()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		return &ast.AssignmentExpression{
			Span:     p.spanFromTo(left.NodeSpan(), value.NodeSpan()),
			Assignee: left,
			Value:    value,
			Operator: opTok.Value,
		}
	case lexer.TokIncrement, lexer.TokDecrement:
		opTok := p.advance()
		return &ast.AssignmentExpression{
			Span:     p.spanFromTo(left.NodeSpan(), opTok.Span),
			Assignee: left,
			Operator: opTok.Value[:1],
		}
	}
	return left
}

// parseLogical is the only place an object literal can begin.
func (p *parser) parseLogical() ast.Expr {
	if p.peek() == lexer.TokLBrace {
		obj := p.parseObject()
		if obj == nil {
			return nil
		}
		return obj
	}

	left := p.parseComparison()
	if left == nil {
		return nil
	}

	for {
		var op ast.LogicalOp
		switch p.peek() {
		case lexer.TokAnd:
			op = ast.OpAnd
		case lexer.TokOr:
			op = ast.OpOr
		default:
			return left
		}
		p.advance()
		right := p.parseComparison()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpression{
			Span:     p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Left:     left,
			Right:    right,
			Operator: op,
		}
	}
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}

	for p.peek() == lexer.TokComparison {
		op := ast.BinaryOp(p.advance().Value)
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpression{
			Span:     p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Left:     left,
			Right:    right,
			Operator: op,
		}
	}
	return left
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}

	for p.peek() == lexer.TokBinaryOp {
		v := p.current().Value
		if v != "+" && v != "-" {
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpression{
			Span:     p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Left:     left,
			Right:    right,
			Operator: ast.BinaryOp(v),
		}
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseCallMember()
	if left == nil {
		return nil
	}

	for p.peek() == lexer.TokBinaryOp {
		v := p.current().Value
		switch v {
		case "*", "/", "%", "^":
		default:
			return left
		}
		p.advance()
		right := p.parseCallMember()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpression{
			Span:     p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Left:     left,
			Right:    right,
			Operator: ast.BinaryOp(v),
		}
	}
	return left
}

// parseCallMember chains '.name', '[expr]' and '(args)' suffixes.
func (p *parser) parseCallMember() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for {
		switch p.peek() {
		case lexer.TokDot:
			p.advance()
			propTok, ok := p.expect(lexer.TokIdent)
			if !ok {
				return nil
			}
			expr = &ast.MemberExpression{
				Span:     p.spanFromTo(expr.NodeSpan(), propTok.Span),
				Object:   expr,
				Property: &ast.Identifier{Span: propTok.Span, Symbol: propTok.Value},
			}
		case lexer.TokLBracket:
			p.advance()
			prop := p.parseExpr()
			if prop == nil {
				return nil
			}
			if _, ok := p.expect(lexer.TokRBracket); !ok {
				return nil
			}
			expr = &ast.MemberExpression{
				Span:     p.spanFrom(expr.NodeSpan()),
				Object:   expr,
				Property: prop,
				Computed: true,
			}
		case lexer.TokLParen:
			args, ok := p.parseArguments()
			if !ok {
				return nil
			}
			expr = &ast.CallExpression{
				Span:      p.spanFrom(expr.NodeSpan()),
				Callee:    expr,
				Arguments: args,
			}
		default:
			return expr
		}
	}
}

func (p *parser) parseArguments() ([]ast.Expr, bool) {
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil, false
	}
	args := []ast.Expr{}
	if p.peek() == lexer.TokRParen {
		p.advance()
		return args, true
	}
	for {
		arg := p.parseExpr()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil, false
	}
	return args, true
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokIdent:
		tok := p.advance()
		return &ast.Identifier{Span: tok.Span, Symbol: tok.Value}

	case lexer.TokNumber:
		tok := p.advance()
		return p.numberLiteral(tok, tok.Span, false)

	case lexer.TokString:
		tok := p.advance()
		return &ast.StringLiteral{Span: tok.Span, Value: tok.Value}

	case lexer.TokLParen:
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen); !ok {
			return nil
		}
		return expr

	case lexer.TokBinaryOp, lexer.TokNot:
		return p.parseUnary()

	default:
		tok := p.current()
		p.fail("expression", fmt.Sprintf("unexpected %s", describe(tok)), "")
		return nil
	}
}

// parseUnary applies a leading sign to a number literal, or marks an
// identifier for negation at evaluation time.
func (p *parser) parseUnary() ast.Expr {
	opTok := p.current()
	if opTok.Type == lexer.TokBinaryOp && opTok.Value != "+" && opTok.Value != "-" {
		p.fail("expression", fmt.Sprintf("unexpected %s", describe(opTok)), "")
		return nil
	}
	p.advance()

	switch p.peek() {
	case lexer.TokNumber:
		if opTok.Type == lexer.TokNot {
			p.fail("identifier", "'!' can only be applied to an identifier", "")
			return nil
		}
		tok := p.advance()
		return p.numberLiteral(tok, p.spanFromTo(opTok.Span, tok.Span), opTok.Value == "-")
	case lexer.TokIdent:
		tok := p.advance()
		return &ast.Identifier{
			Span:   p.spanFromTo(opTok.Span, tok.Span),
			Symbol: tok.Value,
			Negate: opTok.Value != "+",
		}
	default:
		p.fail("identifier", fmt.Sprintf("'%s' must be followed by a number or identifier, found %s",
			opTok.Value, describe(p.current())), "")
		return nil
	}
}

func (p *parser) numberLiteral(tok lexer.Token, span ast.Span, negative bool) ast.Expr {
	val, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		p.failAt(tok, fmt.Sprintf("number %s is out of range", tok.Value))
		return nil
	}
	if negative {
		val = -val
	}
	return &ast.NumericLiteral{Span: span, Value: val}
}

// --- Objects ---

func (p *parser) parseObject() *ast.ObjectLiteral {
	start := p.advance() // consume '{'

	props := []*ast.Property{}
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		keyTok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil
		}
		prop := &ast.Property{Key: keyTok.Value}

		if p.peek() == lexer.TokColon {
			p.advance()
			var value ast.Expr
			if p.peek() == lexer.TokLBrace {
				nested := p.parseObject()
				if nested == nil {
					return nil
				}
				value = nested
			} else {
				value = p.parseExpr()
				if value == nil {
					return nil
				}
			}
			prop.Value = value
		}
		prop.Span = p.spanFrom(keyTok.Span)
		props = append(props, prop)

		if p.peek() == lexer.TokRBrace {
			break
		}
		if p.peek() != lexer.TokComma {
			p.fail("','", fmt.Sprintf("expected ',' or '}' after property '%s', found %s",
				keyTok.Value, describe(p.current())), "")
			return nil
		}
		p.advance()
	}

	if _, ok := p.expect(lexer.TokRBrace); !ok {
		return nil
	}
	return &ast.ObjectLiteral{
		Span:       p.spanFrom(start.Span),
		Properties: props,
	}
}
