package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeScenario(t *testing.T, root, name, yamlText string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ScenarioFile), []byte(yamlText), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.io"), []byte(`print(1);`), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadScenario(t *testing.T) {
	root := t.TempDir()
	dir := writeScenario(t, root, "basic", `
cmd: [run, --pretty, main.io]
stdin: "x\n"
meta:
  tags: [smoke]
expect:
  exitCode: 3
  stdout: "1\n"
  errorCodes: [E_TYPE]
`)

	s, err := LoadScenario(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := "1\n"
	if diff := cmp.Diff(&Scenario{
		Cmd:   []string{"run", "--pretty", "main.io"},
		Stdin: "x\n",
		Meta:  &ScenarioMeta{Tags: []string{"smoke"}},
		Expect: ExpectedResult{
			ExitCode:   3,
			Stdout:     &want,
			ErrorCodes: []string{"E_TYPE"},
		},
	}, s); diff != "" {
		t.Errorf("scenario mismatch (-want +got):\n%s", diff)
	}
	if !s.HasFlag("--pretty") || s.HasFlag("--json") {
		t.Error("HasFlag is wrong")
	}

	source, filename, err := ReadProgramFile(dir, s.Cmd)
	if err != nil || source != `print(1);` || filename != "main.io" {
		t.Errorf("ReadProgramFile = %q, %q, %v", source, filename, err)
	}
}

func TestLoadScenarioRejectsUnknownKeys(t *testing.T) {
	dir := writeScenario(t, t.TempDir(), "typo", "cmd: [run, main.io]\nexpect:\n  exitcode: 1\n")
	if _, err := LoadScenario(dir); err == nil || !strings.Contains(err.Error(), "exitcode") {
		t.Errorf("expected unknown field error, got %v", err)
	}
}

func TestLoadScenarioNeedsProgram(t *testing.T) {
	dir := writeScenario(t, t.TempDir(), "short", "cmd: [run]\n")
	if _, err := LoadScenario(dir); err == nil {
		t.Error("expected error for cmd without program file")
	}
}

func TestListScenarios(t *testing.T) {
	root := t.TempDir()
	writeScenario(t, root, "b", "cmd: [run, main.io]\n")
	writeScenario(t, root, "a", "cmd: [run, main.io]\n")
	if err := os.MkdirAll(filepath.Join(root, "not-a-scenario"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs, err := ListScenarios(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(root, "a"), filepath.Join(root, "b")}
	if diff := cmp.Diff(want, dirs); diff != "" {
		t.Errorf("dirs mismatch (-want +got):\n%s", diff)
	}
}
