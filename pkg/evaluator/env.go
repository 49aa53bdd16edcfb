package evaluator

import (
	"fmt"
	"sort"

	"github.com/iozide/iozide/pkg/diagnostics"
)

// Env is a scoped environment for variable bindings.
// It supports parent-chained lookup for lexical scoping.
type Env struct {
	bindings  map[string]Value
	constants map[string]bool
	parent    *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings:  make(map[string]Value),
		constants: make(map[string]bool),
		parent:    parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing scope, or nil for the root.
func (e *Env) Parent() *Env {
	return e.parent
}

// Global reports whether e is the root scope.
func (e *Env) Global() bool {
	return e.parent == nil
}

// Declare binds name in this exact scope. Shadowing an outer binding is
// allowed; declaring a name twice in one scope is not.
func (e *Env) Declare(name string, val Value, constant bool) (Value, error) {
	if _, exists := e.bindings[name]; exists {
		return nil, &RuntimeError{
			Code:    diagnostics.ERedeclare,
			Message: fmt.Sprintf("cannot redeclare '%s': already declared in this scope", name),
		}
	}
	e.bindings[name] = val
	if constant {
		e.constants[name] = true
	}
	return val, nil
}

// Assign rebinds an existing name in the scope that owns it.
func (e *Env) Assign(name string, val Value) (Value, error) {
	owner, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	if owner.constants[name] {
		return nil, &RuntimeError{
			Code:    diagnostics.EConstAssign,
			Message: fmt.Sprintf("cannot assign to constant '%s'", name),
		}
	}
	owner.bindings[name] = val
	return val, nil
}

// Lookup returns the value bound to name in the nearest scope.
func (e *Env) Lookup(name string) (Value, error) {
	owner, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	return owner.bindings[name], nil
}

// Resolve finds the nearest scope that binds name.
func (e *Env) Resolve(name string) (*Env, error) {
	for scope := e; scope != nil; scope = scope.parent {
		if _, ok := scope.bindings[name]; ok {
			return scope, nil
		}
	}
	return nil, &RuntimeError{
		Code:    diagnostics.EUnbound,
		Message: fmt.Sprintf("unbound variable '%s'", name),
	}
}

// IsConstant reports whether name is declared constant in this exact scope.
func (e *Env) IsConstant(name string) bool {
	return e.constants[name]
}

// Names lists the names bound in this exact scope, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
