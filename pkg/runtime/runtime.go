// Package runtime provides the top-level IOzide runtime orchestrator.
package runtime

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/iozide/iozide/pkg/ast"
	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/evaluator"
	"github.com/iozide/iozide/pkg/formatter"
	"github.com/iozide/iozide/pkg/lexer"
	"github.com/iozide/iozide/pkg/parser"
	"github.com/iozide/iozide/pkg/stdlib"
	"github.com/iozide/iozide/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	// Value is the value of the last top-level statement.
	Value evaluator.Value
	// Main is the value returned by the main function, nil when the
	// program declares none.
	Main  evaluator.Value
	Stats evaluator.Tracker
}

// Runtime wires together all IOzide components for program execution.
type Runtime struct {
	stdin  io.Reader
	stdout io.Writer
	now    func() time.Time
	logger *slog.Logger
	runID  string
	trace  func(event evaluator.TraceEvent)
	mainFn string
	limits evaluator.Limits
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdin sets where input() reads from.
func WithStdin(r io.Reader) Option {
	return func(rt *Runtime) {
		rt.stdin = r
	}
}

// WithStdout sets where print() and write() go.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithClock sets the time source behind time().
func WithClock(now func() time.Time) Option {
	return func(rt *Runtime) {
		rt.now = now
	}
}

// WithLogger sets the logger for phase timings. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithMainFunction sets the name of the function Run invokes after the
// top level finishes. An empty name disables the call.
func WithMainFunction(name string) Option {
	return func(rt *Runtime) {
		rt.mainFn = name
	}
}

// WithLimits sets evaluation limits.
func WithLimits(l evaluator.Limits) Option {
	return func(rt *Runtime) {
		rt.limits = l
	}
}

// New creates a new Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		runID:  "cli",
		mainFn: "Main",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) globalEnv() *evaluator.Env {
	return stdlib.GlobalEnv(stdlib.IO{Stdin: rt.stdin, Stdout: rt.stdout, Now: rt.now})
}

func (rt *Runtime) execOptions() evaluator.ExecOptions {
	return evaluator.ExecOptions{
		Trace:  rt.trace,
		RunID:  rt.runID,
		Limits: rt.limits,
	}
}

// Run parses and executes a program in a fresh global environment, then
// calls its main function if one is declared at the top level.
func (rt *Runtime) Run(source, filename string) (*Result, error) {
	program, err := rt.parse(source, filename)
	if err != nil {
		return nil, err
	}

	env := rt.globalEnv()
	start := time.Now()
	exec, err := evaluator.Execute(program, env, rt.execOptions())
	if err != nil {
		rt.logger.Debug("run failed", "file", filename, "elapsed", time.Since(start), "err", err)
		return nil, err
	}
	result := &Result{Value: exec.Value, Stats: exec.Stats}
	rt.logger.Debug("executed", "file", filename, "elapsed", time.Since(start),
		"calls", exec.Stats.Calls, "iterations", exec.Stats.Iterations)

	if !declaresFunction(program, rt.mainFn) {
		return result, nil
	}
	mainFn, err := env.Lookup(rt.mainFn)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	result.Main, err = evaluator.Invoke(mainFn, nil, env, rt.execOptions())
	rt.logger.Debug("main returned", "fn", rt.mainFn, "elapsed", time.Since(start), "err", err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func declaresFunction(program *ast.Program, name string) bool {
	if name == "" {
		return false
	}
	for _, stmt := range program.Body {
		if fn, ok := stmt.(*ast.FunctionDeclaration); ok && fn.Name == name {
			return true
		}
	}
	return false
}

func (rt *Runtime) parse(source, filename string) (*ast.Program, error) {
	start := time.Now()
	program, err := parser.Parse(source, filename)
	if err != nil {
		return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{errorDiagnostic(err)}}
	}
	rt.logger.Debug("parsed", "file", filename, "statements", len(program.Body), "elapsed", time.Since(start))
	return program, nil
}

// Check parses and validates a program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, err := parser.Parse(source, filename)
	if err != nil {
		return []diagnostics.Diagnostic{errorDiagnostic(err)}
	}
	return validator.Validate(program, rt.globalEnv().Names()...)
}

// Format parses and formats a program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, err := rt.parse(source, filename)
	if err != nil {
		return "", err
	}
	return formatter.Format(program), nil
}

// Dump parses a program and renders its AST as JSON.
func (rt *Runtime) Dump(source, filename string) ([]byte, error) {
	program, err := rt.parse(source, filename)
	if err != nil {
		return nil, err
	}
	return formatter.Dump(program)
}

// Session is an interactive evaluation context whose global environment
// survives across inputs.
type Session struct {
	rt   *Runtime
	env  *evaluator.Env
	line int
}

// Session starts a new interactive session with its own global environment.
func (rt *Runtime) Session() *Session {
	return &Session{rt: rt, env: rt.globalEnv()}
}

// Eval runs one input. Statements that completed before an error keep
// their effects.
func (s *Session) Eval(source string) (evaluator.Value, error) {
	s.line++
	program, err := s.rt.parse(source, fmt.Sprintf("<repl:%d>", s.line))
	if err != nil {
		return nil, err
	}
	exec, err := evaluator.Execute(program, s.env, s.rt.execOptions())
	if err != nil {
		s.rt.logger.Debug("repl input failed", "input", s.line, "err", err)
		return nil, err
	}
	return exec.Value, nil
}

// Env exposes the session's global environment.
func (s *Session) Env() *evaluator.Env {
	return s.env
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// errorDiagnostic extracts the diagnostic carried by a lex, parse or
// runtime error.
func errorDiagnostic(err error) diagnostics.Diagnostic {
	var lexErr *lexer.LexError
	var parseErr *parser.ParseError
	var rtErr *evaluator.RuntimeError
	switch {
	case errors.As(err, &lexErr):
		return lexErr.Diag
	case errors.As(err, &parseErr):
		return parseErr.Diag
	case errors.As(err, &rtErr):
		return rtErr.Diagnostic()
	}
	return diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")
}

// Diagnostics returns the diagnostics describing err, or nil when err does
// not carry any (for example a die exit).
func Diagnostics(err error) []diagnostics.Diagnostic {
	var dErr *DiagnosticError
	if errors.As(err, &dErr) {
		return dErr.Diagnostics
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		return []diagnostics.Diagnostic{rtErr.Diagnostic()}
	}
	return nil
}
