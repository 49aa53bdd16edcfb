// Package lexer implements the IOzide language tokenizer.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iozide/iozide/pkg/ast"
	"github.com/iozide/iozide/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokLet TokenType = iota
	TokConst
	TokFn
	TokIf
	TokElseIf
	TokElse
	TokWhile
	TokFor
	TokDie

	// Literals
	TokNumber
	TokString

	// Identifiers
	TokIdent

	// Punctuation
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokDot       // .
	TokComma     // ,
	TokColon     // :
	TokSemicolon // ;

	// Operators
	TokEquals         // =
	TokBinaryOp       // + - * / % ^
	TokComparison     // == != > >= < <=
	TokAnd            // &&
	TokOr             // ||
	TokNot            // !
	TokCompoundAssign // += -= *= /= %= ^=
	TokIncrement      // ++
	TokDecrement      // --

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokLet:            "'let'",
	TokConst:          "'const'",
	TokFn:             "'fn'",
	TokIf:             "'if'",
	TokElseIf:         "'elseif'",
	TokElse:           "'else'",
	TokWhile:          "'while'",
	TokFor:            "'for'",
	TokDie:            "'die'",
	TokNumber:         "number",
	TokString:         "string",
	TokIdent:          "identifier",
	TokLParen:         "'('",
	TokRParen:         "')'",
	TokLBrace:         "'{'",
	TokRBrace:         "'}'",
	TokLBracket:       "'['",
	TokRBracket:       "']'",
	TokDot:            "'.'",
	TokComma:          "','",
	TokColon:          "':'",
	TokSemicolon:      "';'",
	TokEquals:         "'='",
	TokBinaryOp:       "binary operator",
	TokComparison:     "comparison operator",
	TokAnd:            "'&&'",
	TokOr:             "'||'",
	TokNot:            "'!'",
	TokCompoundAssign: "compound assignment",
	TokIncrement:      "'++'",
	TokDecrement:      "'--'",
	TokEOF:            "end of file",
}

// String returns a human readable name used in diagnostics.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= TokLet && t <= TokDie
}

// Token represents a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

var keywords = map[string]TokenType{
	"let":    TokLet,
	"const":  TokConst,
	"fn":     TokFn,
	"if":     TokIf,
	"elseif": TokElseIf,
	"else":   TokElse,
	"while":  TokWhile,
	"for":    TokFor,
	"die":    TokDie,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	return r
}

// advance consumes one rune and returns it.
func (s *scanner) advance() rune {
	r, size := utf8.DecodeRuneInString(s.source[s.pos:])
	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if isSkippable(ch) {
			s.advance()
		} else if ch == '~' {
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isSkippable(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance() // consume closing "
			return Token{
				Type:  TokString,
				Value: buf.String(),
				Span:  s.span(startLine, startCol),
			}, nil
		}
		if ch == '\\' && s.pos+1 < len(s.source) {
			s.advance() // consume backslash
			switch esc := s.advance(); esc {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			default:
				buf.WriteRune(esc)
			}
			continue
		}
		buf.WriteRune(s.advance())
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	return Token{
		Type:  TokNumber,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && unicode.IsLetter(s.peekRune()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	if tokType, ok := keywords[text]; ok {
		return Token{
			Type:  tokType,
			Value: text,
			Span:  s.span(startLine, startCol),
		}
	}

	return Token{
		Type:  TokIdent,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %s", e.Diag.Message, e.Diag.Location())
}

func (s *scanner) single(typ TokenType, startLine, startCol int) Token {
	text := string(s.advance())
	return Token{Type: typ, Value: text, Span: s.span(startLine, startCol)}
}

func (s *scanner) double(typ TokenType, startLine, startCol int) Token {
	start := s.pos
	s.advance()
	s.advance()
	return Token{Type: typ, Value: s.source[start:s.pos], Span: s.span(startLine, startCol)}
}

// nextToken returns the next token, or ok == false when the input
// produced nothing (a discarded lone '&' or '|').
func (s *scanner) nextToken() (tok Token, ok bool, err error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "EndOfFile",
			Span:  s.span(s.line, s.col),
		}, true, nil
	}

	ch := s.peek()
	next := s.peekAt(1)
	startLine, startCol := s.line, s.col

	switch ch {
	case '(':
		return s.single(TokLParen, startLine, startCol), true, nil
	case ')':
		return s.single(TokRParen, startLine, startCol), true, nil
	case '{':
		return s.single(TokLBrace, startLine, startCol), true, nil
	case '}':
		return s.single(TokRBrace, startLine, startCol), true, nil
	case '[':
		return s.single(TokLBracket, startLine, startCol), true, nil
	case ']':
		return s.single(TokRBracket, startLine, startCol), true, nil
	case '.':
		return s.single(TokDot, startLine, startCol), true, nil
	case ',':
		return s.single(TokComma, startLine, startCol), true, nil
	case ':':
		return s.single(TokColon, startLine, startCol), true, nil
	case ';':
		return s.single(TokSemicolon, startLine, startCol), true, nil

	case '&', '|':
		if next == ch {
			typ := TokAnd
			if ch == '|' {
				typ = TokOr
			}
			return s.double(typ, startLine, startCol), true, nil
		}
		s.advance()
		return Token{}, false, nil

	case '+', '-':
		if next == '=' {
			return s.double(TokCompoundAssign, startLine, startCol), true, nil
		}
		if next == ch {
			typ := TokIncrement
			if ch == '-' {
				typ = TokDecrement
			}
			return s.double(typ, startLine, startCol), true, nil
		}
		return s.single(TokBinaryOp, startLine, startCol), true, nil

	case '*', '/', '%', '^':
		if next == '=' {
			return s.double(TokCompoundAssign, startLine, startCol), true, nil
		}
		return s.single(TokBinaryOp, startLine, startCol), true, nil

	case '=':
		if next == '=' {
			return s.double(TokComparison, startLine, startCol), true, nil
		}
		return s.single(TokEquals, startLine, startCol), true, nil

	case '!':
		if next == '=' {
			return s.double(TokComparison, startLine, startCol), true, nil
		}
		return s.single(TokNot, startLine, startCol), true, nil

	case '>', '<':
		if next == '=' {
			return s.double(TokComparison, startLine, startCol), true, nil
		}
		return s.single(TokComparison, startLine, startCol), true, nil

	case '"':
		tok, err := s.scanString()
		return tok, err == nil, err
	}

	if isDigit(ch) {
		return s.scanNumber(), true, nil
	}

	if r := s.peekRune(); unicode.IsLetter(r) {
		return s.scanIdentOrKeyword(), true, nil
	}

	r := s.advance()
	return Token{}, false, s.lexError(startLine, startCol, fmt.Sprintf("unrecognized character '%c'", r))
}

// Tokenize breaks source code into a slice of tokens terminated by TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, ok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
