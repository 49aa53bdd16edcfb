package parser_test

import (
	"testing"

	"github.com/iozide/iozide/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// Invalid input must come back as an error, never a panic or a nil program without one.
func FuzzParse(f *testing.F) {
	seeds := []string{
		// Minimal valid programs
		`42;`,
		`let x = 1; x;`,
		`const greeting = "hi"; print(greeting);`,
		// Objects
		`let o = { a: 1, b: { c: "x" }, d, };`,
		`o.a; o["b"].c;`,
		// Functions and closures
		`fn add(a, b) { a + b } add(1, 2);`,
		`fn outer(x) { fn inner(y) { x + y } inner } outer(1)(2);`,
		// Control flow
		`if (a) { 1; } elseif (b) { 2; } else { 3; }`,
		`while (i < 10) { i++; }`,
		`for (let i = 0; i < 3; i += 1) { print(i); }`,
		`die; die 3;`,
		// Unary
		`-x; !flag; +5; -5;`,
		// Error cases
		``,
		`let`,
		`const x;`,
		`fn f(1) { }`,
		`if () { }`,
		`if (a) { } else if (b) { }`,
		`for (;;) { }`,
		`{ a: 1 b: 2 };`,
		`((((`,
		`))))`,
		`a.`,
		`a[`,
		`f(,)`,
		`"unterminated`,
		`x +;`,
		`die -1;`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse panicked on input %q: %v", input, r)
				}
			}()
			prog, err := parser.Parse(input, "fuzz.io")
			if err == nil && prog == nil {
				t.Fatalf("Parse returned neither program nor error for %q", input)
			}
		}()
	})
}
