package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/evaluator"
	"github.com/iozide/iozide/pkg/lexer"
	"github.com/iozide/iozide/pkg/parser"
	"github.com/iozide/iozide/pkg/runtime"
)

const continuePrompt = "... "

// lineEditor is the part of *liner.State the REPL loop needs.
type lineEditor interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func (c *cli) cmdRepl(args []string) int {
	cfg, ok := c.loadConfig()
	if !ok {
		return exitUsage
	}
	for i := 0; i < len(args); i++ {
		if args[i] == "--log-level" && i+1 < len(args) {
			i++
			cfg.LogLevel = args[i]
		}
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := cfg.HistoryPath(c.home)
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	rt := runtime.New(
		runtime.WithStdin(c.stdin),
		runtime.WithStdout(c.stdout),
		runtime.WithLogger(c.logger(cfg)),
		runtime.WithLimits(evaluator.Limits{MaxCallDepth: cfg.MaxCallDepth}),
	)
	return c.repl(ln, rt.Session(), cfg.Prompt)
}

// repl reads inputs until "exit" or end of input. Errors are reported and
// the input is discarded; a die statement ends the session with its code.
func (c *cli) repl(ed lineEditor, session *runtime.Session, prompt string) int {
	fmt.Fprintln(c.stdout, "— IOzide Repl ———————————————————————————")
	fmt.Fprintln(c.stdout, `Type "exit" to exit.`)

	for {
		code, ok := readByParseProbe(ed, prompt, continuePrompt)
		if !ok {
			fmt.Fprintln(c.stdout)
			return exitOK
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "exit") {
			return exitOK
		}
		ed.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		v, err := session.Eval(code)
		if err != nil {
			var exit *evaluator.ExitError
			if errors.As(err, &exit) {
				return exit.Code
			}
			if diags := runtime.Diagnostics(err); diags != nil {
				fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diags, true))
			} else {
				fmt.Fprintln(c.stderr, err)
			}
			continue
		}
		if _, isNull := v.(evaluator.Null); !isNull {
			fmt.Fprintln(c.stdout, evaluator.Text(v))
		}
	}
}

// readByParseProbe keeps prompting while the collected input ends before
// the parser expected it to.
func readByParseProbe(ed lineEditor, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ed.Prompt(p)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.EqualFold(strings.TrimSpace(src), "exit") {
			return src, true
		}
		if !incomplete(src) {
			return src, true
		}
	}
}

func incomplete(src string) bool {
	_, err := parser.Parse(src, "<probe>")
	var perr *parser.ParseError
	return errors.As(err, &perr) && perr.Found.Type == lexer.TokEOF
}
