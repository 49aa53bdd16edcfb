package evaluator_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/evaluator"
)

func TestEnvDeclareAndLookup(t *testing.T) {
	env := evaluator.NewEnv(nil)
	if !env.Global() {
		t.Error("root scope should be global")
	}
	if _, err := env.Declare("x", evaluator.NewNumber(1), false); err != nil {
		t.Fatal(err)
	}
	v, err := env.Lookup("x")
	if err != nil || evaluator.Text(v) != "1" {
		t.Fatalf("Lookup(x) = %v, %v", v, err)
	}

	_, err = env.Declare("x", evaluator.NewNumber(2), false)
	expectCode(t, err, diagnostics.ERedeclare)
}

func TestEnvShadowing(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Declare("x", evaluator.NewNumber(1), false)

	child := root.Child()
	if child.Global() || child.Parent() != root {
		t.Fatal("child should link to its parent")
	}
	if _, err := child.Declare("x", evaluator.NewNumber(2), false); err != nil {
		t.Fatalf("shadowing should be allowed: %v", err)
	}

	inner, _ := child.Lookup("x")
	outer, _ := root.Lookup("x")
	if evaluator.Text(inner) != "2" || evaluator.Text(outer) != "1" {
		t.Errorf("inner = %s, outer = %s", evaluator.Text(inner), evaluator.Text(outer))
	}
}

func TestEnvAssign(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Declare("x", evaluator.NewNumber(1), false)
	root.Declare("c", evaluator.NewNumber(1), true)
	child := root.Child()

	if _, err := child.Assign("x", evaluator.NewNumber(5)); err != nil {
		t.Fatal(err)
	}
	if v, _ := root.Lookup("x"); evaluator.Text(v) != "5" {
		t.Errorf("assignment should land in the owning scope, got %s", evaluator.Text(v))
	}
	if len(child.Names()) != 0 {
		t.Errorf("child scope should stay empty, has %v", child.Names())
	}

	_, err := child.Assign("c", evaluator.NewNumber(2))
	expectCode(t, err, diagnostics.EConstAssign)

	_, err = child.Assign("missing", evaluator.NewNumber(2))
	expectCode(t, err, diagnostics.EUnbound)
}

func TestEnvResolve(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Declare("a", evaluator.NewNull(), true)
	mid := root.Child()
	mid.Declare("b", evaluator.NewNull(), false)
	leaf := mid.Child()

	owner, err := leaf.Resolve("a")
	if err != nil || owner != root {
		t.Errorf("Resolve(a) = %p, %v; want root", owner, err)
	}
	owner, err = leaf.Resolve("b")
	if err != nil || owner != mid {
		t.Errorf("Resolve(b) = %p, %v; want mid", owner, err)
	}
	if !root.IsConstant("a") || mid.IsConstant("b") {
		t.Error("constancy flags are wrong")
	}

	_, err = leaf.Lookup("zzz")
	expectCode(t, err, diagnostics.EUnbound)
}

func TestEnvNamesSorted(t *testing.T) {
	env := evaluator.NewEnv(nil)
	for _, n := range []string{"b", "c", "a"} {
		env.Declare(n, evaluator.NewNull(), false)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, env.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
