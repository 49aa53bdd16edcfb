// Package help holds the built-in IOzide reference shown by `iozide help`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iozide/iozide/pkg/stdlib"
)

// Version is the IOzide release.
const Version = "v0.2.0"

// TopicList is the display order of help topics.
var TopicList = []string{"syntax", "types", "natives", "flow", "diagnostics", "examples"}

// QUICKREF is the one-screen overview printed by `iozide help`.
var QUICKREF = `IOzide ` + Version + ` quick reference

  let x = 1;            mutable binding
  const y = "hi";       constant binding, must be initialized
  fn add(a, b) { a + b; }
                        function; the last statement is the result
  if (c) { } elseif (d) { } else { }
  while (c) { }
  for (let i = 0; i < 3; i++) { }
  die 2;                stop the program with exit code 2
  ~ comment             runs to the end of the line

Commands: run <file>, repl, check <files...>, fmt <file>, ast <file>, help [topic], version

Topics: ` + strings.Join(TopicList, ", ") + `
  iozide help <topic>   (prefixes work: "iozide help diag")
`

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `Syntax

Statements end with ';' except blocks. Identifiers are letters only.
Numbers are digit runs; prefix '-' for negative literals.
Strings use double quotes with \n \r \t escapes; '\' before any other
character keeps that character.

Operators, loosest first:
  =  +=  -=  *=  /=  %=  ++  --     assignment (right-assoc)
  &&  ||                            logical (one level, left-assoc)
  ==  !=  <  >  <=  >=              comparison
  +  -                              additive
  *  /  %  ^                        multiplicative, '^' is power
  f(x)  o.key  o[expr]              call and member access

'-name' and '!name' negate a variable: numbers flip sign, booleans invert.
Object literals { a: 1, b } may only start an expression.
`,
	"types": `Types

  null      the absent value
  boolean   true / false
  number    64-bit float; whole numbers print without a decimal point
  string    text; '+' concatenates with anything, '*' repeats
  object    ordered properties; a missing key reads as null
  function  user function, closes over its defining scope

Arithmetic rounds each operand to 7 decimal places first.
'==' compares type and printed form, so objects compare by content.
Arithmetic on unsupported operand types yields null.
`,
	"natives": "", // filled from the registry in init
	"flow": `Control flow

Conditions must be booleans; anything else is E_CONDITION.
Each taken if/elseif/else body, each loop iteration and each function
call gets a fresh scope. A for initializer declares into the enclosing
scope, so the loop variable is visible after the loop.

A function's value is its last statement. There is no return.
When a program declares a top-level 'fn Main()', 'iozide run' calls it
after the top level finishes.

'die;' and 'die N;' end the program immediately with exit code N (0).
`,
	"diagnostics": `Diagnostics

  E_LEX              unrecognized character or unterminated string
  E_PARSE            syntax error
  E_UNBOUND          name not declared in any visible scope
  E_REDECLARE        name declared twice in one scope at run time
  E_DUP_BINDING      same, found statically by 'iozide check'
  E_CONST_ASSIGN     assignment to a constant
  E_ASSIGN_TARGET    left side of '=' is not a plain name
  E_NOT_CALLABLE     call on a value that is not a function
  E_CONDITION        non-boolean condition
  E_TYPE             operator or native applied to the wrong type
  E_ARGS             wrong number of arguments
  E_CALL_DEPTH       recursion deeper than max_call_depth
  E_IO               reading or writing the console failed
  E_NOT_IMPLEMENTED  construct the evaluator cannot run

Exit codes: 0 ok, 2 diagnostics, 3 runtime error, N after 'die N;'.
`,
	"examples": `Examples

  fn fib(n) {
    if (n < 2) { n; } else { fib(n - 1) + fib(n - 2); }
  }
  print(fib(15));

  let name = input("name? ");
  print("hello " + name);

  let p = { x: 1, y: 2 };
  p = { x: p.x + 1, y: p["y"] };

  fn Main() {
    for (let i = 1; i <= 3; i++) { write(i); write(" "); }
    print("");
  }
`,
}

func init() {
	Topics["natives"] = "Native functions\n\n" + NativesIndex()
}

// NativesIndex lists every native function with its usage.
func NativesIndex() string {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, stdlib.IO{})

	var b strings.Builder
	names := reg.Names()
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", reg.Get(name).Usage)
	}
	b.WriteString("\nConstants: null, true, false\n")
	fmt.Fprintf(&b, "Total: %d functions\n", len(names))
	return b.String()
}

// MatchTopic resolves an exact topic name or a unique prefix of one.
func MatchTopic(query string) (name, content string, err error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}

	var matches []string
	for _, topic := range TopicList {
		if query != "" && strings.HasPrefix(topic, query) {
			matches = append(matches, topic)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q; topics: %s", query, strings.Join(TopicList, ", "))
	}
	sort.Strings(matches)
	return "", "", fmt.Errorf("ambiguous help topic %q matches %s", query, strings.Join(matches, ", "))
}
