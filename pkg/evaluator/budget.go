package evaluator

// DefaultMaxCallDepth bounds nested user-function calls when no limit is configured.
const DefaultMaxCallDepth = 10000

// Limits holds the resource limits for an evaluation.
type Limits struct {
	// MaxCallDepth is the deepest chain of nested user-function calls
	// allowed. Zero means DefaultMaxCallDepth.
	MaxCallDepth int
}

func (l Limits) maxCallDepth() int {
	if l.MaxCallDepth <= 0 {
		return DefaultMaxCallDepth
	}
	return l.MaxCallDepth
}

// Tracker records resource consumption during an evaluation.
type Tracker struct {
	Calls      int64
	Iterations int64
	depth      int
}
