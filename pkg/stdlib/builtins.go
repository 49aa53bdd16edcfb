package stdlib

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/iozide/iozide/pkg/evaluator"
)

// IO is the outside world the natives talk to.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Now    func() time.Time
}

// natives carries the resolved IO shared by every native of one environment.
type natives struct {
	in  *bufio.Reader
	out io.Writer
	now func() time.Time
}

func newNatives(stdio IO) *natives {
	n := &natives{out: stdio.Stdout, now: stdio.Now}
	if stdio.Stdin == nil {
		stdio.Stdin = strings.NewReader("")
	}
	n.in = bufio.NewReader(stdio.Stdin)
	if n.out == nil {
		n.out = io.Discard
	}
	if n.now == nil {
		n.now = time.Now
	}
	return n
}

// RegisterDefaults adds all native functions bound to stdio.
func RegisterDefaults(r *Registry, stdio IO) {
	n := newNatives(stdio)

	// I/O
	r.Register(Fn{Name: "print", MinArgs: 1, MaxArgs: 1, Usage: "print(value)", Execute: n.print})
	r.Register(Fn{Name: "write", MinArgs: 1, MaxArgs: 1, Usage: "write(value)", Execute: n.write})
	r.Register(Fn{Name: "input", MinArgs: 0, MaxArgs: 1, Usage: "input([prompt])", Execute: n.input})
	r.Register(Fn{Name: "time", MinArgs: 0, MaxArgs: 0, Usage: "time()", Execute: n.time})

	// Conversions
	r.Register(Fn{Name: "number", MinArgs: 1, MaxArgs: 1, Usage: "number(value)", Execute: nativeNumber})
	r.Register(Fn{Name: "string", MinArgs: 1, MaxArgs: 1, Usage: "string(value)", Execute: nativeString})
	r.Register(Fn{Name: "boolean", MinArgs: 1, MaxArgs: 1, Usage: "boolean(value)", Execute: nativeBoolean})
	r.Register(Fn{Name: "typeof", MinArgs: 1, MaxArgs: 1, Usage: "typeof(value)", Execute: nativeTypeof})
	r.Register(Fn{Name: "len", MinArgs: 1, MaxArgs: 1, Usage: "len(string | object)", Execute: nativeLen})

	// Math
	r.Register(Fn{Name: "max", MinArgs: 1, MaxArgs: Variadic, Usage: "max(n, ...)", Execute: nativeMax})
	r.Register(Fn{Name: "min", MinArgs: 1, MaxArgs: Variadic, Usage: "min(n, ...)", Execute: nativeMin})
}

// GlobalEnv creates the root scope every program runs in: the constants
// null, true and false plus every default native, all constant.
func GlobalEnv(stdio IO) *evaluator.Env {
	env := evaluator.NewEnv(nil)
	env.Declare("null", evaluator.NewNull(), true)
	env.Declare("true", evaluator.NewBool(true), true)
	env.Declare("false", evaluator.NewBool(false), true)

	reg := NewRegistry()
	RegisterDefaults(reg, stdio)
	for _, name := range reg.Names() {
		env.Declare(name, reg.Get(name).Native(), true)
	}
	return env
}
