// Command iozide is the IOzide CLI entry point.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iozide/iozide/pkg/config"
	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/evaluator"
	"github.com/iozide/iozide/pkg/formatter"
	"github.com/iozide/iozide/pkg/help"
	"github.com/iozide/iozide/pkg/runtime"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitDiag    = 2
	exitRuntime = 3
)

const usage = `usage: iozide <command> [options]
commands: run, repl, check, fmt, ast, trace, help, version`

// cli carries the process environment so commands can run in tests.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cwd    string
	home   string
}

func main() {
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, cwd: cwd, home: home}
	os.Exit(c.main(os.Args[1:]))
}

func (c *cli) main(args []string) int {
	if len(args) == 0 {
		return c.cmdMenu()
	}

	cmd := args[0]
	switch cmd {
	case "run":
		return c.cmdRun(args[1:])
	case "repl":
		return c.cmdRepl(args[1:])
	case "check":
		return c.cmdCheck(args[1:])
	case "fmt":
		return c.cmdFmt(args[1:])
	case "ast":
		return c.cmdAst(args[1:])
	case "trace":
		return c.cmdTrace(args[1:])
	case "help", "--help", "-h":
		return c.cmdHelp(args[1:])
	case "version", "--version":
		fmt.Fprintf(c.stdout, "iozide %s\n", help.Version)
		return exitOK
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n%s\n", cmd, usage)
		return exitUsage
	}
}

// cmdMenu is the interactive start screen shown when no command is given.
func (c *cli) cmdMenu() int {
	fmt.Fprintf(c.stdout,
		"— IOzide %s ———————————————————————————\n\n"+
			"Enter Repl: [1]\n"+
			"Run Script: [2]\n"+
			"Exit [3]\n\n> ", help.Version)

	in := bufio.NewReader(c.stdin)
	choice, _ := in.ReadString('\n')
	switch strings.TrimSpace(choice) {
	case "1":
		return c.cmdRepl(nil)
	case "2":
		fmt.Fprint(c.stdout, "Script: ")
		path, _ := in.ReadString('\n')
		path = strings.TrimSpace(path)
		if path == "" {
			return exitUsage
		}
		// the script keeps reading from the same buffered stdin
		sub := *c
		sub.stdin = in
		return sub.cmdRun([]string{path})
	case "3":
		return exitOK
	default:
		fmt.Fprintln(c.stdout, "Invalid command, exiting..")
		return exitUsage
	}
}

func (c *cli) loadConfig() (*config.Config, bool) {
	cfg, err := config.LoadFrom(c.cwd, c.home)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return nil, false
	}
	return cfg, true
}

func (c *cli) logger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func (c *cli) cmdRun(args []string) int {
	cfg, ok := c.loadConfig()
	if !ok {
		return exitUsage
	}

	var file string
	jsonOutput := false
	tracePath := ""
	if cfg.Trace {
		tracePath = "-"
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			cfg.PrettyErrors = true
		case "--json":
			jsonOutput = true
		case "--trace":
			if i+1 < len(args) {
				i++
				tracePath = args[i]
			}
		case "--log-level":
			if i+1 < len(args) {
				i++
				cfg.LogLevel = args[i]
			}
		case "--main":
			if i+1 < len(args) {
				i++
				cfg.MainFunction = args[i]
			}
		case "--no-main":
			cfg.MainFunction = ""
		default:
			if !strings.HasPrefix(args[i], "-") || args[i] == "-" {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(c.stderr, "usage: iozide run <file> [--pretty] [--json] [--trace <path|->] [--main <name> | --no-main] [--log-level <level>]")
		return exitUsage
	}

	source, filename, err := c.readSource(file)
	if err != nil {
		return c.reportIOError(err, cfg.PrettyErrors)
	}

	logger := c.logger(cfg)
	opts := []runtime.Option{
		runtime.WithStdin(c.stdin),
		runtime.WithStdout(c.stdout),
		runtime.WithLogger(logger),
		runtime.WithMainFunction(cfg.MainFunction),
		runtime.WithLimits(evaluator.Limits{MaxCallDepth: cfg.MaxCallDepth}),
	}
	if tracePath != "" {
		sink, closeSink, err := c.traceSink(tracePath)
		if err != nil {
			return c.reportIOError(err, cfg.PrettyErrors)
		}
		defer closeSink()
		opts = append(opts, runtime.WithTrace(sink))
	}
	rt := runtime.New(opts...)

	result, execErr := rt.Run(source, filename)
	if execErr != nil {
		return c.reportError(execErr, cfg.PrettyErrors)
	}

	if jsonOutput {
		value := result.Value
		if result.Main != nil {
			value = result.Main
		}
		jsonBytes, err := evaluator.ValueToJSON(value)
		if err != nil {
			fmt.Fprintf(c.stderr, "error serializing result: %s\n", err)
			return exitRuntime
		}
		fmt.Fprintln(c.stdout, string(jsonBytes))
	}
	return exitOK
}

// traceSink writes trace events as NDJSON to path, or to stderr for "-".
func (c *cli) traceSink(path string) (func(evaluator.TraceEvent), func(), error) {
	w := c.stderr
	closeFn := func() {}
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("trace: create %s: %w", path, err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	enc := json.NewEncoder(w)
	var mu sync.Mutex
	return func(ev evaluator.TraceEvent) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(ev)
	}, closeFn, nil
}

// reportError prints err and maps it to an exit code. A die statement
// exits with its own code and prints nothing.
func (c *cli) reportError(err error, pretty bool) int {
	var exit *evaluator.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, pretty))
		return exitDiag
	}
	if diags := runtime.Diagnostics(err); diags != nil {
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return exitRuntime
	}
	fmt.Fprintln(c.stderr, err.Error())
	return exitUsage
}

func (c *cli) reportIOError(err error, pretty bool) int {
	diag := diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")
	fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
	return exitUsage
}

func (c *cli) cmdCheck(args []string) int {
	pretty := false
	var files []string
	for _, arg := range args {
		switch {
		case arg == "--pretty":
			pretty = true
		case !strings.HasPrefix(arg, "-"):
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(c.stderr, "usage: iozide check <files...> [--pretty]")
		return exitUsage
	}

	rt := runtime.New()
	results := make([][]diagnostics.Diagnostic, len(files))
	var g errgroup.Group
	g.SetLimit(8)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			source, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("cannot read file: %s: %w", file, err)
			}
			results[i] = rt.Check(string(source), file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return c.reportIOError(err, pretty)
	}

	var all []diagnostics.Diagnostic
	for _, diags := range results {
		all = append(all, diags...)
	}
	if len(all) > 0 {
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(all, pretty))
		return exitDiag
	}

	if pretty {
		fmt.Fprintln(c.stdout, "No errors found.")
	} else {
		fmt.Fprintln(c.stdout, "[]")
	}
	return exitOK
}

func (c *cli) cmdFmt(args []string) int {
	var file string
	write := false
	check := false

	for _, arg := range args {
		switch arg {
		case "--write":
			write = true
		case "--check":
			check = true
		default:
			if !strings.HasPrefix(arg, "-") {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(c.stderr, "usage: iozide fmt <file> [--write | --check]")
		return exitUsage
	}

	source, filename, err := c.readSource(file)
	if err != nil {
		return c.reportIOError(err, false)
	}

	formatted, fmtErr := runtime.New().Format(source, filename)
	if fmtErr != nil {
		return c.reportError(fmtErr, false)
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(c.stderr, "warning: comments are not preserved by the formatter")
	}

	switch {
	case check:
		if formatted != source {
			fmt.Fprintf(c.stderr, "%s is not formatted\n", file)
			return exitUsage
		}
	case write:
		if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(c.stderr, "error writing file: %s\n", err)
			return exitUsage
		}
	default:
		fmt.Fprint(c.stdout, formatted)
	}
	return exitOK
}

func (c *cli) cmdAst(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(c.stderr, "usage: iozide ast <file>")
		return exitUsage
	}
	source, filename, err := c.readSource(args[0])
	if err != nil {
		return c.reportIOError(err, false)
	}
	out, err := runtime.New().Dump(source, filename)
	if err != nil {
		return c.reportError(err, false)
	}
	fmt.Fprintln(c.stdout, string(out))
	return exitOK
}

func (c *cli) cmdHelp(args []string) int {
	topic := ""
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if topic == "" {
		fmt.Fprint(c.stdout, help.QUICKREF)
		return exitOK
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitUsage
	}
	fmt.Fprint(c.stdout, content)
	return exitOK
}

func (c *cli) readSource(file string) (string, string, error) {
	if file == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", "", fmt.Errorf("error reading stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}

	source, err := os.ReadFile(file)
	if err != nil {
		return "", "", fmt.Errorf("cannot read file: %s", file)
	}
	return string(source), file, nil
}
