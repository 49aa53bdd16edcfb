package evaluator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iozide/iozide/pkg/ast"
	"github.com/iozide/iozide/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart    TraceEventType = "run_start"
	TraceRunEnd      TraceEventType = "run_end"
	TraceStmtStart   TraceEventType = "stmt_start"
	TraceStmtEnd     TraceEventType = "stmt_end"
	TraceFnCallStart TraceEventType = "fn_call_start"
	TraceFnCallEnd   TraceEventType = "fn_call_end"
	TraceLoopStart   TraceEventType = "loop_start"
	TraceLoopEnd     TraceEventType = "loop_end"
	TraceDie         TraceEventType = "die"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId,omitempty"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Trace  func(event TraceEvent)
	RunID  string
	Limits Limits
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	Value Value
	Stats Tracker
}

// RuntimeError represents a runtime error during evaluation.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error into a diagnostic for reporting.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

// ExitError is produced by a die statement. Nothing in the evaluator
// handles it; the host is expected to exit with Code.
type ExitError struct {
	Code int
	Span *ast.Span
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("die with exit code %d", e.Code)
}

type evaluator struct {
	opts    ExecOptions
	tracker Tracker
}

func (ev *evaluator) emit(event TraceEventType, span ast.Span, data map[string]string) {
	if ev.opts.Trace == nil {
		return
	}
	ev.opts.Trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     ev.opts.RunID,
		Event:     event,
		Span:      &span,
		Data:      data,
	})
}

// Evaluate evaluates a single node against env with default limits and
// no tracing.
func Evaluate(node ast.Node, env *Env) (Value, error) {
	ev := &evaluator{}
	return ev.eval(node, env)
}

// Execute runs a program in env and returns its last value.
func Execute(program *ast.Program, env *Env, opts ExecOptions) (*ExecResult, error) {
	ev := &evaluator{opts: opts}

	ev.emit(TraceRunStart, program.Span, nil)
	val, err := ev.evalProgram(program, env)
	ev.emit(TraceRunEnd, program.Span, map[string]string{
		"calls":      strconv.FormatInt(ev.tracker.Calls, 10),
		"iterations": strconv.FormatInt(ev.tracker.Iterations, 10),
	})
	if err != nil {
		return nil, err
	}
	return &ExecResult{Value: val, Stats: ev.tracker}, nil
}

// Invoke calls a function value with already-evaluated arguments.
func Invoke(callee Value, args []Value, env *Env, opts ExecOptions) (Value, error) {
	ev := &evaluator{opts: opts}
	return ev.call(callee, "", args, env, ast.Span{})
}

// withSpan attaches span to a runtime error that has none yet.
func withSpan(err error, span ast.Span) error {
	var re *RuntimeError
	if errors.As(err, &re) && re.Span == nil && span != (ast.Span{}) {
		s := span
		re.Span = &s
	}
	return err
}

func (ev *evaluator) eval(node ast.Node, env *Env) (Value, error) {
	switch n := node.(type) {
	case *ast.Program:
		return ev.evalProgram(n, env)

	// Literals
	case *ast.NumericLiteral:
		return Number{Value: n.Value}, nil
	case *ast.StringLiteral:
		return String{Value: n.Value}, nil

	// Expressions
	case *ast.Identifier:
		return ev.evalIdentifier(n, env)
	case *ast.ObjectLiteral:
		return ev.evalObject(n, env)
	case *ast.BinaryExpression:
		return ev.evalBinary(n, env)
	case *ast.LogicalExpression:
		return ev.evalLogical(n, env)
	case *ast.AssignmentExpression:
		return ev.evalAssignment(n, env)
	case *ast.CallExpression:
		return ev.evalCall(n, env)
	case *ast.MemberExpression:
		return ev.evalMember(n, env)

	// Statements
	case *ast.VariableDeclaration:
		return ev.evalVarDecl(n, env)
	case *ast.FunctionDeclaration:
		return ev.evalFnDecl(n, env)
	case *ast.IfStatement:
		return ev.evalIf(n, env)
	case *ast.WhileStatement:
		return ev.evalWhile(n, env)
	case *ast.ForStatement:
		return ev.evalFor(n, env)
	case *ast.DieStatement:
		ev.emit(TraceDie, n.Span, map[string]string{"code": strconv.Itoa(n.Code)})
		span := n.Span
		return nil, &ExitError{Code: n.Code, Span: &span}
	}

	kind := "<nil>"
	var span *ast.Span
	if node != nil {
		kind = node.Kind()
		s := node.NodeSpan()
		span = &s
	}
	return nil, &RuntimeError{
		Code:    diagnostics.ENotImplemented,
		Message: fmt.Sprintf("evaluation of %s nodes is not implemented", kind),
		Span:    span,
	}
}

func (ev *evaluator) evalProgram(p *ast.Program, env *Env) (Value, error) {
	var last Value = Null{}
	for _, stmt := range p.Body {
		ev.emit(TraceStmtStart, stmt.NodeSpan(), map[string]string{"kind": stmt.Kind()})
		val, err := ev.eval(stmt, env)
		ev.emit(TraceStmtEnd, stmt.NodeSpan(), map[string]string{"kind": stmt.Kind()})
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

// evalBlock runs statements in order and yields the last value.
func (ev *evaluator) evalBlock(stmts []ast.Stmt, env *Env) (Value, error) {
	var last Value = Null{}
	for _, stmt := range stmts {
		val, err := ev.eval(stmt, env)
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

// --- Expressions ---

func (ev *evaluator) evalIdentifier(n *ast.Identifier, env *Env) (Value, error) {
	val, err := env.Lookup(n.Symbol)
	if err != nil {
		return nil, withSpan(err, n.Span)
	}
	if !n.Negate {
		return val, nil
	}
	neg, err := negate(val)
	if err != nil {
		return nil, withSpan(err, n.Span)
	}
	return neg, nil
}

func (ev *evaluator) evalObject(n *ast.ObjectLiteral, env *Env) (Value, error) {
	obj := &Object{}
	for _, prop := range n.Properties {
		var val Value
		var err error
		if prop.Value == nil {
			val, err = env.Lookup(prop.Key)
			err = withSpan(err, prop.Span)
		} else {
			val, err = ev.eval(prop.Value, env)
		}
		if err != nil {
			return nil, err
		}
		obj.Set(prop.Key, val)
	}
	return obj, nil
}

func (ev *evaluator) evalBinary(n *ast.BinaryExpression, env *Env) (Value, error) {
	left, err := ev.eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	val, err := binaryOp(n.Operator, left, right)
	if err != nil {
		return nil, withSpan(err, n.Span)
	}
	return val, nil
}

func (ev *evaluator) evalLogical(n *ast.LogicalExpression, env *Env) (Value, error) {
	left, err := ev.eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	return logicalOp(n.Operator, left, right), nil
}

func (ev *evaluator) evalAssignment(n *ast.AssignmentExpression, env *Env) (Value, error) {
	target, ok := n.Assignee.(*ast.Identifier)
	if !ok || target.Negate {
		return nil, &RuntimeError{
			Code:    diagnostics.EAssignTarget,
			Message: fmt.Sprintf("invalid assignment target: %s", n.Assignee.Kind()),
			Span:    &n.Span,
		}
	}

	var val Value
	var err error
	if n.Operator == "=" {
		val, err = ev.eval(n.Value, env)
		if err != nil {
			return nil, err
		}
	} else {
		// x op= e and x++ / x-- become x = x op e, with e = 1 when absent.
		current, err := env.Lookup(target.Symbol)
		if err != nil {
			return nil, withSpan(err, target.Span)
		}
		var rhs Value = Number{Value: 1}
		if n.Value != nil {
			rhs, err = ev.eval(n.Value, env)
			if err != nil {
				return nil, err
			}
		}
		op := ast.BinaryOp(strings.TrimSuffix(n.Operator, "="))
		val, err = binaryOp(op, current, rhs)
		if err != nil {
			return nil, withSpan(err, n.Span)
		}
	}

	if _, err := env.Assign(target.Symbol, val); err != nil {
		return nil, withSpan(err, n.Span)
	}
	return val, nil
}

func (ev *evaluator) evalMember(n *ast.MemberExpression, env *Env) (Value, error) {
	objVal, err := ev.eval(n.Object, env)
	if err != nil {
		return nil, err
	}
	obj, ok := objVal.(*Object)
	if !ok {
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("cannot access a property of %s", TypeName(objVal)),
			Span:    &n.Span,
		}
	}

	var key string
	if n.Computed {
		keyVal, err := ev.eval(n.Property, env)
		if err != nil {
			return nil, err
		}
		key = Text(keyVal)
	} else {
		id, ok := n.Property.(*ast.Identifier)
		if !ok {
			return nil, &RuntimeError{
				Code:    diagnostics.EType,
				Message: fmt.Sprintf("property name must be an identifier, got %s", n.Property.Kind()),
				Span:    &n.Span,
			}
		}
		key = id.Symbol
	}

	if val, ok := obj.Get(key); ok {
		return val, nil
	}
	return Null{}, nil
}

func (ev *evaluator) evalCall(n *ast.CallExpression, env *Env) (Value, error) {
	args := make([]Value, 0, len(n.Arguments))
	for _, arg := range n.Arguments {
		val, err := ev.eval(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	callee, err := ev.eval(n.Callee, env)
	if err != nil {
		return nil, err
	}

	name := ""
	if id, ok := n.Callee.(*ast.Identifier); ok {
		name = id.Symbol
	}
	return ev.call(callee, name, args, env, n.Span)
}

func (ev *evaluator) call(callee Value, name string, args []Value, env *Env, span ast.Span) (Value, error) {
	switch fn := callee.(type) {
	case *NativeFunc:
		ev.tracker.Calls++
		val, err := fn.Fn(args, env)
		if err != nil {
			return nil, withSpan(err, span)
		}
		if val == nil {
			return Null{}, nil
		}
		return val, nil

	case *Function:
		if len(args) != len(fn.Params) {
			return nil, &RuntimeError{
				Code:    diagnostics.EArgs,
				Message: fmt.Sprintf("%s expects %d argument(s), got %d", fn.Name, len(fn.Params), len(args)),
				Span:    &span,
			}
		}
		if ev.tracker.depth >= ev.opts.Limits.maxCallDepth() {
			return nil, &RuntimeError{
				Code:    diagnostics.ECallDepth,
				Message: fmt.Sprintf("maximum call depth of %d exceeded in %s", ev.opts.Limits.maxCallDepth(), fn.Name),
				Span:    &span,
			}
		}

		ev.tracker.Calls++
		ev.tracker.depth++
		defer func() { ev.tracker.depth-- }()

		ev.emit(TraceFnCallStart, span, map[string]string{"fn": fn.Name})
		scope := fn.Env.Child()
		for i, param := range fn.Params {
			if _, err := scope.Declare(param, args[i], false); err != nil {
				return nil, withSpan(err, span)
			}
		}
		result, err := ev.evalBlock(fn.Body, scope)
		ev.emit(TraceFnCallEnd, span, map[string]string{"fn": fn.Name})
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	msg := fmt.Sprintf("value of type %s is not callable", TypeName(callee))
	if name != "" {
		msg = fmt.Sprintf("'%s' is not callable: it holds a %s", name, TypeName(callee))
	}
	return nil, &RuntimeError{
		Code:    diagnostics.ENotCallable,
		Message: msg,
		Span:    &span,
	}
}

// --- Statements ---

func (ev *evaluator) evalVarDecl(n *ast.VariableDeclaration, env *Env) (Value, error) {
	var val Value = Null{}
	if n.Value != nil {
		v, err := ev.eval(n.Value, env)
		if err != nil {
			return nil, err
		}
		val = v
	}
	if _, err := env.Declare(n.Name, val, n.Constant); err != nil {
		return nil, withSpan(err, n.Span)
	}
	return val, nil
}

func (ev *evaluator) evalFnDecl(n *ast.FunctionDeclaration, env *Env) (Value, error) {
	fn := &Function{
		Name:   n.Name,
		Params: n.Params,
		Env:    env,
		Body:   n.Body,
	}
	if _, err := env.Declare(n.Name, fn, true); err != nil {
		return nil, withSpan(err, n.Span)
	}
	return fn, nil
}

// condition evaluates a control-flow condition, which must be a Bool.
func (ev *evaluator) condition(what string, expr ast.Expr, env *Env) (bool, error) {
	val, err := ev.eval(expr, env)
	if err != nil {
		return false, err
	}
	b, ok := val.(Bool)
	if !ok {
		span := expr.NodeSpan()
		return false, &RuntimeError{
			Code:    diagnostics.ECondition,
			Message: fmt.Sprintf("%s condition must be a boolean, got %s", what, TypeName(val)),
			Span:    &span,
		}
	}
	return b.Value, nil
}

// evalIf walks the else chain in the chain's own environment; only the
// taken body gets a child scope.
func (ev *evaluator) evalIf(n *ast.IfStatement, env *Env) (Value, error) {
	for link := n; link != nil; link = link.Else {
		if link.Condition != nil {
			ok, err := ev.condition("if", link.Condition, env)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		return ev.evalBlock(link.Body, env.Child())
	}
	return Null{}, nil
}

func (ev *evaluator) evalWhile(n *ast.WhileStatement, env *Env) (Value, error) {
	ev.emit(TraceLoopStart, n.Span, map[string]string{"kind": "while"})
	for {
		ok, err := ev.condition("while", n.Condition, env)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ev.tracker.Iterations++
		if _, err := ev.evalBlock(n.Body, env.Child()); err != nil {
			return nil, err
		}
	}
	ev.emit(TraceLoopEnd, n.Span, map[string]string{"kind": "while"})
	return Null{}, nil
}

func (ev *evaluator) evalFor(n *ast.ForStatement, env *Env) (Value, error) {
	ev.emit(TraceLoopStart, n.Span, map[string]string{"kind": "for"})
	if _, err := ev.eval(n.Init, env); err != nil {
		return nil, err
	}
	for {
		ok, err := ev.condition("for", n.Condition, env)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ev.tracker.Iterations++
		if _, err := ev.evalBlock(n.Body, env.Child()); err != nil {
			return nil, err
		}
		if _, err := ev.eval(n.Step, env); err != nil {
			return nil, err
		}
	}
	ev.emit(TraceLoopEnd, n.Span, map[string]string{"kind": "for"})
	return Null{}, nil
}
