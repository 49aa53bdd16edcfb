package stdlib

import (
	"math"

	"github.com/iozide/iozide/pkg/evaluator"
)

// max(n, ...) → largest number
func nativeMax(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	return fold("max", args, math.Inf(-1), math.Max)
}

// min(n, ...) → smallest number
func nativeMin(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	return fold("min", args, math.Inf(1), math.Min)
}

func fold(name string, args []evaluator.Value, start float64, pick func(a, b float64) float64) (evaluator.Value, error) {
	acc := start
	for i, arg := range args {
		num, ok := arg.(evaluator.Number)
		if !ok {
			return nil, typeError("%s: argument %d must be a number, got %s", name, i+1, evaluator.TypeName(arg))
		}
		acc = pick(acc, num.Value)
	}
	return evaluator.NewNumber(acc), nil
}
