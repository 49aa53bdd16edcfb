package evaluator_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iozide/iozide/pkg/ast"
	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/evaluator"
	"github.com/iozide/iozide/pkg/parser"
)

// --- helpers ---

// newEnv builds a root scope with the literal constants and a "record"
// native that captures the textual form of its argument.
func newEnv(t *testing.T) (*evaluator.Env, *[]string) {
	t.Helper()
	env := evaluator.NewEnv(nil)
	var out []string
	mustDeclare(t, env, "null", evaluator.NewNull())
	mustDeclare(t, env, "true", evaluator.NewBool(true))
	mustDeclare(t, env, "false", evaluator.NewBool(false))
	mustDeclare(t, env, "record", &evaluator.NativeFunc{
		Name: "record",
		Fn: func(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
			for _, a := range args {
				out = append(out, evaluator.Text(a))
			}
			return evaluator.NewNull(), nil
		},
	})
	return env, &out
}

func mustDeclare(t *testing.T, env *evaluator.Env, name string, v evaluator.Value) {
	t.Helper()
	if _, err := env.Declare(name, v, true); err != nil {
		t.Fatalf("declare %s: %v", name, err)
	}
}

// run parses and evaluates source, failing the test on parse errors.
func run(t *testing.T, src string) (evaluator.Value, []string, error) {
	t.Helper()
	env, out := newEnv(t)
	prog, err := parser.Parse(src, "test.io")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	val, err := evaluator.Evaluate(prog, env)
	return val, *out, err
}

// mustRun is like run but also fails on runtime errors.
func mustRun(t *testing.T, src string) (evaluator.Value, []string) {
	t.Helper()
	val, out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	return val, out
}

// expectText asserts the textual form and type of a value.
func expectText(t *testing.T, val evaluator.Value, typ, text string) {
	t.Helper()
	if got := evaluator.TypeName(val); got != typ {
		t.Errorf("type = %s, want %s (value %s)", got, typ, evaluator.Text(val))
	}
	if got := evaluator.Text(val); got != text {
		t.Errorf("text = %q, want %q", got, text)
	}
}

// expectCode asserts err is a *RuntimeError with the given code.
func expectCode(t *testing.T, err error, code string) *evaluator.RuntimeError {
	t.Helper()
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RuntimeError with code %s, got %T: %v", code, err, err)
	}
	if re.Code != code {
		t.Errorf("code = %s, want %s (%s)", re.Code, code, re.Message)
	}
	return re
}

// ---- Declarations ----

func TestDeclarationThenLookupMatchesExpression(t *testing.T) {
	exprs := []string{`42`, `"hi"`, `2 + 3 * 4`, `{ a: 1, b: "x" }`, `1 == 1`, `null`, `"ab" * 2`}
	for _, e := range exprs {
		t.Run(e, func(t *testing.T) {
			alone, _ := mustRun(t, e+";")
			viaVar, _ := mustRun(t, "let x = "+e+"; x;")
			if evaluator.EqualityKey(alone) != evaluator.EqualityKey(viaVar) {
				t.Errorf("let x = %s; x -> %s, want %s", e, evaluator.Text(viaVar), evaluator.Text(alone))
			}
		})
	}
}

func TestUninitializedLetIsNull(t *testing.T) {
	val, _ := mustRun(t, "let x; x;")
	expectText(t, val, "null", "null")
}

func TestRedeclareSameScopeFails(t *testing.T) {
	_, _, err := run(t, "let x = 1; let x = 2;")
	re := expectCode(t, err, diagnostics.ERedeclare)
	if re.Span == nil || re.Span.StartCol != 12 {
		t.Errorf("expected span at the second declaration, got %+v", re.Span)
	}
}

func TestShadowingInNestedScope(t *testing.T) {
	_, out := mustRun(t, `
let x = 1;
if (true) { let x = 2; record(x); }
record(x);
`)
	if diff := cmp.Diff([]string{"2", "1"}, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestConstAssignFails(t *testing.T) {
	_, _, err := run(t, "const x = 1; x = 2;")
	expectCode(t, err, diagnostics.EConstAssign)

	_, _, err = run(t, "fn f() { 1; } f = 3;")
	expectCode(t, err, diagnostics.EConstAssign)
}

func TestAssignVisibleInChildScope(t *testing.T) {
	_, out := mustRun(t, `
let x = 1;
x = 5;
fn show() { record(x); }
show();
if (true) { x = 7; }
record(x);
`)
	if diff := cmp.Diff([]string{"5", "7"}, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

// ---- Arithmetic & strings ----

func TestBinaryOperators(t *testing.T) {
	tests := []struct {
		src  string
		typ  string
		text string
	}{
		{"2 + 3 * 4;", "number", "14"},
		{"2 ^ 3;", "number", "8"},
		{"7 / 2;", "number", "3.5"},
		{"10 % 3;", "number", "1"},
		{"1 - 5;", "number", "-4"},
		{`"a" + 1;`, "string", "a1"},
		{`1 + "a";`, "string", "1a"},
		{`"x" + true;`, "string", "xtrue"},
		{`"ab" * 3;`, "string", "ababab"},
		{`"ab" * "2";`, "string", "abab"},
		{`"ab" * 0;`, "string", ""},
		{`"a" - 1;`, "null", "null"},
		{`"a" / "b";`, "null", "null"},
		{"null + 1;", "null", "null"},
		{"true * 2;", "null", "null"},
		{"let third = 1 / 3; third * 3 == 1;", "boolean", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			val, _ := mustRun(t, tt.src)
			expectText(t, val, tt.typ, tt.text)
		})
	}
}

func TestStringRepeatRejectsBadCounts(t *testing.T) {
	for _, src := range []string{`"ab" * "x";`, `"ab" * -1;`, `"ab" * null;`} {
		t.Run(src, func(t *testing.T) {
			_, _, err := run(t, src)
			expectCode(t, err, diagnostics.EType)
		})
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 == 1;", "true"},
		{`1 == "1";`, "false"},
		{`1 != "1";`, "true"},
		{"3 < 5;", "true"},
		{"5 <= 5;", "true"},
		{"5 > 5;", "false"},
		{"6 >= 5;", "true"},
		{"null == null;", "true"},
		{"true == true;", "true"},
		{`"a" == "a";`, "true"},
		{"let p = { a: 1 }; let q = { a: 1 }; p == q;", "true"},
		{"let p = { a: 1 }; let q = { a: 2 }; p == q;", "false"},
		{"let p = { a: 1 }; p == \"{ a: 1 }\";", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			val, _ := mustRun(t, tt.src)
			expectText(t, val, "boolean", tt.want)
		})
	}
}

func TestOrderingRequiresNumbers(t *testing.T) {
	_, _, err := run(t, `"a" < 1;`)
	expectCode(t, err, diagnostics.EType)
}

func TestBothOperandsAlwaysEvaluated(t *testing.T) {
	_, out := mustRun(t, `
fn l() { record("l"); 1; }
fn r() { record("r"); 2; }
l() + r();
fn f() { record("f"); false; }
f() && f();
`)
	if diff := cmp.Diff([]string{"l", "r", "f", "f"}, out); diff != "" {
		t.Errorf("evaluation order mismatch (-want +got):\n%s", diff)
	}
}

func TestLogical(t *testing.T) {
	tests := []struct {
		src  string
		typ  string
		text string
	}{
		{"true && false;", "boolean", "false"},
		{"true || false;", "boolean", "true"},
		{"false || false || true;", "boolean", "true"},
		{"1 && true;", "null", "null"},
		{`true || "x";`, "null", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			val, _ := mustRun(t, tt.src)
			expectText(t, val, tt.typ, tt.text)
		})
	}
}

func TestNegatedIdentifiers(t *testing.T) {
	val, _ := mustRun(t, "let n = 4; -n;")
	expectText(t, val, "number", "-4")

	val, _ = mustRun(t, "let b = true; !b;")
	expectText(t, val, "boolean", "false")

	_, _, err := run(t, `let s = "x"; -s;`)
	expectCode(t, err, diagnostics.EType)
}

// ---- Assignment ----

func TestCompoundAssignment(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"let x = 5; x += 2; x;", "7"},
		{"let x = 5; x -= 2; x;", "3"},
		{"let x = 5; x *= 2; x;", "10"},
		{"let x = 5; x /= 2; x;", "2.5"},
		{"let x = 5; x %= 2; x;", "1"},
		{"let x = 5; x ^= 2; x;", "25"},
		{"let x = 5; x++; x;", "6"},
		{"let x = 5; x--; x;", "4"},
		{`let s = "a"; s += "b"; s;`, "ab"},
		{"let x = 1; x = x + 1;", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			val, _ := mustRun(t, tt.src)
			if got := evaluator.Text(val); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAssignmentTargetMustBeIdentifier(t *testing.T) {
	_, _, err := run(t, "let o = { a: 1 }; o.a = 2;")
	re := expectCode(t, err, diagnostics.EAssignTarget)
	if !strings.Contains(re.Message, "MemberExpression") {
		t.Errorf("message should name the target kind: %s", re.Message)
	}

	_, _, err = run(t, "1 = 2;")
	expectCode(t, err, diagnostics.EAssignTarget)
}

func TestAssignUnbound(t *testing.T) {
	_, _, err := run(t, "y = 1;")
	expectCode(t, err, diagnostics.EUnbound)
}

// ---- Objects & members ----

func TestObjects(t *testing.T) {
	val, _ := mustRun(t, `let b = "hi"; { a: 1, b, c: { d: true } };`)
	expectText(t, val, "object", "{ a: 1, b: hi, c: { d: true } }")

	val, _ = mustRun(t, "{};")
	expectText(t, val, "object", "{}")
}

func TestShorthandResolvedAtEvaluation(t *testing.T) {
	_, _, err := run(t, "{ missing };")
	re := expectCode(t, err, diagnostics.EUnbound)
	if !strings.Contains(re.Message, "missing") {
		t.Errorf("message should name the variable: %s", re.Message)
	}
}

func TestMemberAccess(t *testing.T) {
	tests := []struct {
		src  string
		text string
	}{
		{"let o = { a: { b: 3 } }; o.a.b;", "3"},
		{`let o = { a: 1 }; o["a"];`, "1"},
		{`let o = { a: 1 }; let k = "a"; o[k];`, "1"},
		{"let o = { a: 1 }; o.zzz;", "null"},
		{"fn mk() { { v: 9 }; } mk().v;", "9"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			val, _ := mustRun(t, tt.src)
			if got := evaluator.Text(val); got != tt.text {
				t.Errorf("got %s, want %s", got, tt.text)
			}
		})
	}

	_, _, err := run(t, "let n = 1; n.a;")
	expectCode(t, err, diagnostics.EType)
}

// ---- Calls ----

func TestFunctionImplicitReturn(t *testing.T) {
	val, _ := mustRun(t, "fn add(a, b) { a + b; } add(2, 3);")
	expectText(t, val, "number", "5")

	val, _ = mustRun(t, "fn nothing() { } nothing();")
	expectText(t, val, "null", "null")
}

func TestClosureOutlivesDefiningCall(t *testing.T) {
	val, _ := mustRun(t, `
fn makeAdder(n) {
  fn add(x) { x + n; }
  add;
}
let addTwo = makeAdder(2);
addTwo(40);
`)
	expectText(t, val, "number", "42")

	val, _ = mustRun(t, "fn outer(a) { fn inner(b) { a * b; } inner; } outer(3)(4);")
	expectText(t, val, "number", "12")
}

func TestRecursion(t *testing.T) {
	val, _ := mustRun(t, `
fn fib(n) {
  if (n < 2) { n; } else { fib(n - 1) + fib(n - 2); }
}
fib(15);
`)
	expectText(t, val, "number", "610")
}

func TestCallUndeclaredNamesIdentifier(t *testing.T) {
	_, _, err := run(t, "nope(1);")
	re := expectCode(t, err, diagnostics.EUnbound)
	if !strings.Contains(re.Message, "'nope'") {
		t.Errorf("message should name the identifier: %s", re.Message)
	}
}

func TestCallNonCallable(t *testing.T) {
	_, _, err := run(t, "let x = 3; x();")
	re := expectCode(t, err, diagnostics.ENotCallable)
	if !strings.Contains(re.Message, "'x'") {
		t.Errorf("message should name the callee: %s", re.Message)
	}
}

func TestUserFunctionArity(t *testing.T) {
	for _, src := range []string{"fn f(a) { a; } f();", "fn f(a) { a; } f(1, 2);"} {
		t.Run(src, func(t *testing.T) {
			_, _, err := run(t, src)
			expectCode(t, err, diagnostics.EArgs)
		})
	}
}

func TestArgumentsEvaluatedBeforeCallee(t *testing.T) {
	_, out := mustRun(t, `
fn pick() { record("callee"); record; }
pick()(1);
`)
	if diff := cmp.Diff([]string{"callee", "1"}, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	_, out = mustRun(t, `
fn arg() { record("arg"); 0; }
fn pick() { record("callee"); record; }
pick()(arg());
`)
	if diff := cmp.Diff([]string{"arg", "callee", "0"}, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCallDepthLimit(t *testing.T) {
	env, _ := newEnv(t)
	prog, err := parser.Parse("fn loop(n) { loop(n + 1); } loop(0);", "test.io")
	if err != nil {
		t.Fatal(err)
	}
	_, err = evaluator.Execute(prog, env, evaluator.ExecOptions{Limits: evaluator.Limits{MaxCallDepth: 50}})
	expectCode(t, err, diagnostics.ECallDepth)
}

func TestInvoke(t *testing.T) {
	env, _ := newEnv(t)
	prog, err := parser.Parse("fn twice(x) { x * 2; }", "test.io")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := evaluator.Execute(prog, env, evaluator.ExecOptions{}); err != nil {
		t.Fatal(err)
	}
	fn, err := env.Lookup("twice")
	if err != nil {
		t.Fatal(err)
	}
	val, err := evaluator.Invoke(fn, []evaluator.Value{evaluator.NewNumber(21)}, env, evaluator.ExecOptions{})
	if err != nil {
		t.Fatal(err)
	}
	expectText(t, val, "number", "42")
}

// ---- Control flow ----

func TestIfChainRunsExactlyOneBranch(t *testing.T) {
	val, out := mustRun(t, `if (false) { record("A"); } elseif (true) { record("B"); "b"; } else { record("C"); }`)
	if diff := cmp.Diff([]string{"B"}, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	expectText(t, val, "string", "b")

	_, out = mustRun(t, `if (false) { record("A"); } elseif (false) { record("B"); } else { record("C"); }`)
	if diff := cmp.Diff([]string{"C"}, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	val, out = mustRun(t, `if (false) { record("A"); }`)
	if len(out) != 0 {
		t.Errorf("expected no output, got %v", out)
	}
	expectText(t, val, "null", "null")
}

func TestIfBodyScopeDoesNotLeak(t *testing.T) {
	_, _, err := run(t, "if (true) { let inner = 1; } inner;")
	expectCode(t, err, diagnostics.EUnbound)

	_, _, err = run(t, "if (false) { } else { let inner = 1; } inner;")
	expectCode(t, err, diagnostics.EUnbound)
}

func TestConditionMustBeBoolean(t *testing.T) {
	for _, src := range []string{"if (1) { }", "while (null) { }", `for (let i = 0; i + 1; i++) { }`} {
		t.Run(src, func(t *testing.T) {
			_, _, err := run(t, src)
			expectCode(t, err, diagnostics.ECondition)
		})
	}
}

func TestWhile(t *testing.T) {
	_, out := mustRun(t, `while (false) { record("never"); }`)
	if len(out) != 0 {
		t.Errorf("body ran: %v", out)
	}

	_, out = mustRun(t, `
let i = 0;
while (i < 3) {
  let sq = i * i;
  record(sq);
  i++;
}
`)
	if diff := cmp.Diff([]string{"0", "1", "4"}, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestForRunsThreeTimesWithOuterCounter(t *testing.T) {
	val, out := mustRun(t, `
for (let i = 0; i < 3; i += 1) { record(i); }
i;
`)
	if diff := cmp.Diff([]string{"0", "1", "2"}, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	expectText(t, val, "number", "3")
}

func TestForBodyLocalsAreFreshEachIteration(t *testing.T) {
	_, out := mustRun(t, `for (let i = 0; i < 2; i++) { let local = i; record(local); }`)
	if diff := cmp.Diff([]string{"0", "1"}, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDieStopsExecution(t *testing.T) {
	_, out, err := run(t, `record("before"); die 2; record("after");`)
	var exit *evaluator.ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected *ExitError, got %T: %v", err, err)
	}
	if exit.Code != 2 {
		t.Errorf("exit code = %d, want 2", exit.Code)
	}
	if diff := cmp.Diff([]string{"before"}, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDieInsideFunctionAndLoop(t *testing.T) {
	_, _, err := run(t, "fn f() { while (true) { die 7; } } f();")
	var exit *evaluator.ExitError
	if !errors.As(err, &exit) || exit.Code != 7 {
		t.Fatalf("expected exit code 7, got %v", err)
	}
}

// ---- Dispatch ----

func TestUnknownNodeKind(t *testing.T) {
	env, _ := newEnv(t)
	_, err := evaluator.Evaluate(&ast.Property{Key: "k"}, env)
	re := expectCode(t, err, diagnostics.ENotImplemented)
	if !strings.Contains(re.Message, "Property") {
		t.Errorf("message should name the node kind: %s", re.Message)
	}
}

func TestRuntimeErrorsCarrySpans(t *testing.T) {
	_, _, err := run(t, "let a = 1;\nlet b = a + missing;")
	re := expectCode(t, err, diagnostics.EUnbound)
	if re.Span == nil || re.Span.StartLine != 2 || re.Span.StartCol != 13 {
		t.Errorf("unexpected span: %+v", re.Span)
	}
	d := re.Diagnostic()
	if d.Code != diagnostics.EUnbound || d.Span != re.Span {
		t.Errorf("Diagnostic() = %+v", d)
	}
}

// ---- Trace ----

func TestTraceEvents(t *testing.T) {
	env, _ := newEnv(t)
	prog, err := parser.Parse("fn f(x) { x; } for (let i = 0; i < 2; i++) { f(i); }", "test.io")
	if err != nil {
		t.Fatal(err)
	}
	var events []evaluator.TraceEventType
	res, err := evaluator.Execute(prog, env, evaluator.ExecOptions{
		RunID: "r1",
		Trace: func(ev evaluator.TraceEvent) {
			if ev.RunID != "r1" {
				t.Errorf("event %s has run id %q", ev.Event, ev.RunID)
			}
			events = append(events, ev.Event)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []evaluator.TraceEventType{
		evaluator.TraceRunStart,
		evaluator.TraceStmtStart, evaluator.TraceStmtEnd,
		evaluator.TraceStmtStart,
		evaluator.TraceLoopStart,
		evaluator.TraceFnCallStart, evaluator.TraceFnCallEnd,
		evaluator.TraceFnCallStart, evaluator.TraceFnCallEnd,
		evaluator.TraceLoopEnd,
		evaluator.TraceStmtEnd,
		evaluator.TraceRunEnd,
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Calls != 2 || res.Stats.Iterations != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
}
