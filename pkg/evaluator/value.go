// Package evaluator implements the IOzide values, scopes and tree-walking interpreter.
package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/iozide/iozide/pkg/ast"
)

// Value is the interface for all IOzide runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	value() // sealed marker
}

// Null represents the absence of a value.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) value() {}

// Number represents a numeric value. All numbers are float64.
type Number struct {
	Value float64
}

func (Number) value() {}

// String represents a text value.
type String struct {
	Value string
}

func (String) value() {}

// KeyValue is a single property of an Object.
type KeyValue struct {
	Key   string
	Value Value
}

// Object is a mapping of property names to values.
// Insertion order is preserved via the Pairs slice.
type Object struct {
	Pairs []KeyValue
	index map[string]int // lazy index for lookups
}

func (*Object) value() {}

// NativeFunc is a callable implemented in Go.
type NativeFunc struct {
	Name string
	Fn   func(args []Value, env *Env) (Value, error)
}

func (*NativeFunc) value() {}

// Function is a user-defined closure over the scope it was declared in.
type Function struct {
	Name   string
	Params []string
	Env    *Env
	Body   []ast.Stmt
}

func (*Function) value() {}

// NewNull creates a null value.
func NewNull() Value {
	return Null{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// NewObject creates an object from key-value pairs. A repeated key keeps
// its first position and its last value.
func NewObject(pairs []KeyValue) *Object {
	obj := &Object{}
	for _, kv := range pairs {
		obj.Set(kv.Key, kv.Value)
	}
	return obj
}

func (o *Object) ensureIndex() {
	if o.index == nil {
		o.index = make(map[string]int, len(o.Pairs))
		for i, kv := range o.Pairs {
			o.index[kv.Key] = i
		}
	}
}

// Get retrieves a property by key.
func (o *Object) Get(key string) (Value, bool) {
	o.ensureIndex()
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.Pairs[i].Value, true
}

// Set sets a property, preserving insertion order.
func (o *Object) Set(key string, val Value) {
	o.ensureIndex()
	if i, ok := o.index[key]; ok {
		o.Pairs[i].Value = val
		return
	}
	o.index[key] = len(o.Pairs)
	o.Pairs = append(o.Pairs, KeyValue{Key: key, Value: val})
}

// Keys returns all keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.Pairs))
	for i, kv := range o.Pairs {
		keys[i] = kv.Key
	}
	return keys
}

// TypeName returns the user-facing name of a value's type.
func TypeName(v Value) string {
	switch v.(type) {
	case Null, nil:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case *Object:
		return "object"
	case *NativeFunc:
		return "native function"
	case *Function:
		return "function"
	}
	return "unknown"
}

// Text renders the textual form of a value, as used by print, string()
// and string concatenation.
func Text(v Value) string {
	switch val := v.(type) {
	case Null, nil:
		return "null"
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(val.Value)
	case String:
		return val.Value
	case *Object:
		if len(val.Pairs) == 0 {
			return "{}"
		}
		var b strings.Builder
		b.WriteString("{ ")
		for i, kv := range val.Pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(kv.Key)
			b.WriteString(": ")
			b.WriteString(Text(kv.Value))
		}
		b.WriteString(" }")
		return b.String()
	case *NativeFunc:
		return "native fn " + val.Name
	case *Function:
		return "fn " + val.Name + "(" + strings.Join(val.Params, ", ") + ")"
	}
	return ""
}

// EqualityKey is the composite key compared by == and !=. Values of
// different types never share a key.
func EqualityKey(v Value) string {
	return TypeName(v) + ":" + Text(v)
}

// FormatNumber renders the shortest decimal form of n: 14, 2.5, -0.125.
func FormatNumber(n float64) string {
	if n == 0 {
		return "0" // also covers -0
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
