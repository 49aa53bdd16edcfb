package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iozide/iozide/pkg/ast"
	"github.com/iozide/iozide/pkg/diagnostics"
)

// roundOperand trims floating point noise to 7 decimal places before an
// arithmetic operation. Magnitudes past 1e15 carry no fractional digits.
func roundOperand(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e15 {
		return v
	}
	return math.Round(v*1e7) / 1e7
}

// binaryOp applies op to two already-evaluated operands.
func binaryOp(op ast.BinaryOp, left, right Value) (Value, error) {
	if op.IsComparison() {
		return compare(op, left, right)
	}

	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if lok && rok {
		return arithmetic(op, roundOperand(ln.Value), roundOperand(rn.Value))
	}

	_, ls := left.(String)
	_, rs := right.(String)
	if ls || rs {
		return stringOp(op, left, right)
	}

	return Null{}, nil
}

func compare(op ast.BinaryOp, left, right Value) (Value, error) {
	switch op {
	case ast.OpEqEq:
		return Bool{Value: EqualityKey(left) == EqualityKey(right)}, nil
	case ast.OpNeq:
		return Bool{Value: EqualityKey(left) != EqualityKey(right)}, nil
	}

	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("operator '%s' requires two numbers, got %s and %s", op, TypeName(left), TypeName(right)),
		}
	}

	var result bool
	switch op {
	case ast.OpGt:
		result = ln.Value > rn.Value
	case ast.OpGtEq:
		result = ln.Value >= rn.Value
	case ast.OpLt:
		result = ln.Value < rn.Value
	case ast.OpLtEq:
		result = ln.Value <= rn.Value
	}
	return Bool{Value: result}, nil
}

func arithmetic(op ast.BinaryOp, l, r float64) (Value, error) {
	switch op {
	case ast.OpAdd:
		return Number{Value: l + r}, nil
	case ast.OpSub:
		return Number{Value: l - r}, nil
	case ast.OpMul:
		return Number{Value: l * r}, nil
	case ast.OpDiv:
		return Number{Value: l / r}, nil
	case ast.OpMod:
		return Number{Value: math.Mod(l, r)}, nil
	case ast.OpPow:
		return Number{Value: math.Pow(l, r)}, nil
	}
	return nil, &RuntimeError{
		Code:    diagnostics.ENotImplemented,
		Message: fmt.Sprintf("operator '%s' is not implemented", op),
	}
}

const maxStringLen = 1 << 30

// stringOp handles every operator where at least one operand is a String.
func stringOp(op ast.BinaryOp, left, right Value) (Value, error) {
	switch op {
	case ast.OpAdd:
		return String{Value: Text(left) + Text(right)}, nil
	case ast.OpMul:
		n, ok := ToNumber(right)
		if !ok || n < 0 || math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, &RuntimeError{
				Code:    diagnostics.EType,
				Message: fmt.Sprintf("cannot repeat a string %s times", Text(right)),
			}
		}
		text := Text(left)
		if text == "" {
			return String{}, nil
		}
		if n*float64(len(text)) > maxStringLen {
			return nil, &RuntimeError{
				Code:    diagnostics.EType,
				Message: fmt.Sprintf("repeating a string %s times exceeds the maximum string length", Text(right)),
			}
		}
		return String{Value: strings.Repeat(text, int(n))}, nil
	}
	return Null{}, nil
}

// ToNumber coerces a value to a number: numbers as-is, numeric strings
// parsed, booleans as 1 and 0. Anything else fails.
func ToNumber(v Value) (float64, bool) {
	switch val := v.(type) {
	case Number:
		return val.Value, true
	case Bool:
		if val.Value {
			return 1, true
		}
		return 0, true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(val.Value), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func logicalOp(op ast.LogicalOp, left, right Value) Value {
	lb, lok := left.(Bool)
	rb, rok := right.(Bool)
	if !lok || !rok {
		return Null{}
	}
	switch op {
	case ast.OpAnd:
		return Bool{Value: lb.Value && rb.Value}
	case ast.OpOr:
		return Bool{Value: lb.Value || rb.Value}
	}
	return Null{}
}

// negate applies an identifier's negate flag.
func negate(v Value) (Value, error) {
	switch val := v.(type) {
	case Number:
		return Number{Value: -val.Value}, nil
	case Bool:
		return Bool{Value: !val.Value}, nil
	}
	return nil, &RuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf("cannot negate a value of type %s", TypeName(v)),
	}
}
