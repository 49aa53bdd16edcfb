package stdlib

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iozide/iozide/pkg/diagnostics"
	"github.com/iozide/iozide/pkg/evaluator"
)

func ioError(name string, err error) error {
	return &evaluator.RuntimeError{
		Code:    diagnostics.EIO,
		Message: fmt.Sprintf("%s: %v", name, err),
	}
}

// print(value) → writes the textual form and a newline
func (n *natives) print(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	if _, err := io.WriteString(n.out, evaluator.Text(args[0])+"\n"); err != nil {
		return nil, ioError("print", err)
	}
	return evaluator.NewNull(), nil
}

// write(value) → writes the textual form, no newline
func (n *natives) write(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	if _, err := io.WriteString(n.out, evaluator.Text(args[0])); err != nil {
		return nil, ioError("write", err)
	}
	return evaluator.NewNull(), nil
}

// input([prompt]) → one line of text without its line ending, or null at end of input
func (n *natives) input(args []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	if len(args) == 1 {
		if _, err := io.WriteString(n.out, evaluator.Text(args[0])); err != nil {
			return nil, ioError("input", err)
		}
	}
	line, err := n.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ioError("input", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return evaluator.NewNull(), nil
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return evaluator.NewString(line), nil
}

// time() → current Unix time in whole seconds
func (n *natives) time(_ []evaluator.Value, _ *evaluator.Env) (evaluator.Value, error) {
	return evaluator.NewNumber(float64(n.now().Unix())), nil
}
