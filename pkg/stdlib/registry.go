// Package stdlib provides the IOzide native function registry and the
// global environment every program starts in.
package stdlib

import (
	"fmt"
	"sort"

	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/evaluator"
)

// Variadic marks an Fn without an upper argument bound.
const Variadic = -1

// Fn represents a native function.
type Fn struct {
	Name    string
	MinArgs int
	MaxArgs int // Variadic for no limit
	Usage   string
	Execute func(args []evaluator.Value, env *evaluator.Env) (evaluator.Value, error)
}

// Registry holds registered native functions.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a native function to the registry.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a native function by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered native functions.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Native wraps fn as a runtime value that checks its own arity.
func (fn *Fn) Native() *evaluator.NativeFunc {
	return &evaluator.NativeFunc{
		Name: fn.Name,
		Fn: func(args []evaluator.Value, env *evaluator.Env) (evaluator.Value, error) {
			if err := fn.checkArity(len(args)); err != nil {
				return nil, err
			}
			return fn.Execute(args, env)
		},
	}
}

func (fn *Fn) checkArity(n int) error {
	if n >= fn.MinArgs && (fn.MaxArgs == Variadic || n <= fn.MaxArgs) {
		return nil
	}
	var want string
	switch {
	case fn.MaxArgs == Variadic:
		want = fmt.Sprintf("at least %d", fn.MinArgs)
	case fn.MinArgs == fn.MaxArgs:
		want = fmt.Sprintf("%d", fn.MinArgs)
	default:
		want = fmt.Sprintf("%d to %d", fn.MinArgs, fn.MaxArgs)
	}
	return &evaluator.RuntimeError{
		Code:    diagnostics.EArgs,
		Message: fmt.Sprintf("%s expects %s argument(s), got %d; usage: %s", fn.Name, want, n, fn.Usage),
	}
}
