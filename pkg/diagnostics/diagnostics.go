// Package diagnostics defines IOzide diagnostic types for lex, parse,
// validation and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iozide/iozide/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex            = "E_LEX"
	EParse          = "E_PARSE"
	EUnbound        = "E_UNBOUND"
	EConstAssign    = "E_CONST_ASSIGN"
	ERedeclare      = "E_REDECLARE"
	EDupBinding     = "E_DUP_BINDING"
	ENotCallable    = "E_NOT_CALLABLE"
	ECondition      = "E_CONDITION"
	EType           = "E_TYPE"
	EArgs           = "E_ARGS"
	EAssignTarget   = "E_ASSIGN_TARGET"
	ENotImplemented = "E_NOT_IMPLEMENTED"
	EIO             = "E_IO"
	ECallDepth      = "E_CALL_DEPTH"
)

// Diagnostic represents a lex, parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Location renders the span as file:line:col, or "<unknown>".
func (d Diagnostic) Location() string {
	if d.Span == nil {
		return "<unknown>"
	}
	file := d.Span.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, d.Span.StartLine, d.Span.StartCol)
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, d.Location())
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
