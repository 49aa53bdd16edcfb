package stdlib

import (
	"fmt"
	"unicode/utf8"

	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/evaluator"
)

func typeError(format string, a ...any) error {
	return &evaluator.RuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf(format, a...),
	}
}

// number(value) → numbers as-is, numeric strings parsed, booleans as 1 / 0
func nativeNumber(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	n, ok := evaluator.ToNumber(args[0])
	if !ok {
		return nil, typeError("number: cannot convert %s %q to a number",
			evaluator.TypeName(args[0]), evaluator.Text(args[0]))
	}
	return evaluator.NewNumber(n), nil
}

// string(value) → textual form
func nativeString(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	return evaluator.NewString(evaluator.Text(args[0])), nil
}

// boolean(value) → booleans as-is, numbers != 0, null as false, "true" / "false"
func nativeBoolean(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	switch v := args[0].(type) {
	case evaluator.Bool:
		return v, nil
	case evaluator.Number:
		return evaluator.NewBool(v.Value != 0), nil
	case evaluator.Null:
		return evaluator.NewBool(false), nil
	case evaluator.String:
		switch v.Value {
		case "true":
			return evaluator.NewBool(true), nil
		case "false":
			return evaluator.NewBool(false), nil
		}
	}
	return nil, typeError("boolean: cannot convert %s %q to a boolean",
		evaluator.TypeName(args[0]), evaluator.Text(args[0]))
}

// typeof(value) → type name
func nativeTypeof(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	return evaluator.NewString(evaluator.TypeName(args[0])), nil
}

// len(string | object) → character count or property count
func nativeLen(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	switch v := args[0].(type) {
	case evaluator.String:
		return evaluator.NewNumber(float64(utf8.RuneCountInString(v.Value))), nil
	case *evaluator.Object:
		return evaluator.NewNumber(float64(len(v.Pairs))), nil
	}
	return nil, typeError("len: expected a string or object, got %s", evaluator.TypeName(args[0]))
}
