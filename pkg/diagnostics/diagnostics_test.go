package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/iozide/iozide/pkg/ast"
	"github.com/iozide/iozide/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{File: "test.io", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "unexpected token" {
		t.Errorf("got Message = %q, want %q", d.Message, "unexpected token")
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &ast.Span{File: "test.io", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUnbound, "cannot resolve 'x'", span, "declare it with let")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_UNBOUND]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "test.io:3:5") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
}

func TestLocation(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.EParse, "x", nil, "")
	if got := d.Location(); got != "<unknown>" {
		t.Errorf("got %q, want <unknown>", got)
	}
	d.Span = &ast.Span{StartLine: 2, StartCol: 7}
	if got := d.Location(); got != "<input>:2:7" {
		t.Errorf("got %q, want <input>:2:7", got)
	}
}

func TestFormatDiagnosticsPrettyJoins(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EDupBinding, "first", nil, ""),
		diagnostics.MakeDiag(diagnostics.EConstAssign, "second", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, true)
	if strings.Count(out, "error[") != 2 {
		t.Errorf("expected two entries, got: %s", out)
	}
}
