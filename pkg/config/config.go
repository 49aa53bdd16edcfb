// Package config loads IOzide host settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// File names searched by Load.
const (
	ProjectFile = ".iozide.yaml"
	UserDir     = ".iozide"
	UserFile    = "config.yaml"
)

// Config holds host settings. Zero-valued fields in a file keep their defaults.
type Config struct {
	Prompt       string `yaml:"prompt"`
	HistoryFile  string `yaml:"history_file"`
	MainFunction string `yaml:"main_function"`
	LogLevel     string `yaml:"log_level"`
	PrettyErrors bool   `yaml:"pretty_errors"`
	Trace        bool   `yaml:"trace"`
	MaxCallDepth int    `yaml:"max_call_depth"`

	// Source is the file the settings came from, empty for defaults.
	Source string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Prompt:       "> ",
		HistoryFile:  filepath.Join("~", UserDir, "history"),
		MainFunction: "Main",
		LogLevel:     "warn",
		MaxCallDepth: 10000,
	}
}

// ValidationError lists every problem found in one config file.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config: %s is invalid", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load resolves settings for a project directory.
// Precedence: project (.iozide.yaml) → user (~/.iozide/config.yaml) → defaults.
// The first file that exists wins; a file that exists but is malformed is an error.
func Load(projectDir string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return LoadFrom(projectDir, home)
}

// LoadFrom is Load with an explicit home directory. An empty home skips the
// user file.
func LoadFrom(projectDir, home string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, UserDir, UserFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Default(), nil
}

// LoadFile decodes one YAML file on top of the defaults. Unknown keys are
// rejected.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	cfg := Default()
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Source = path
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func (c *Config) validate() error {
	errs := ValidationError{Path: c.Source}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		errs.Issues = append(errs.Issues, fmt.Sprintf("log_level %q must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_call_depth must not be negative, got %d", c.MaxCallDepth))
	}
	if c.MainFunction != "" && !isIdentifier(c.MainFunction) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("main_function %q is not a valid identifier", c.MainFunction))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// identifiers are letter runs only
func isIdentifier(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// SlogLevel maps LogLevel to a slog level, defaulting to warn.
func (c *Config) SlogLevel() slog.Level {
	if lvl, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return lvl
	}
	return slog.LevelWarn
}

// HistoryPath returns the REPL history file with a leading ~ expanded
// against home. An empty HistoryFile disables history.
func (c *Config) HistoryPath(home string) string {
	p := c.HistoryFile
	if p == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(p, "~"+string(filepath.Separator)); ok {
		return filepath.Join(home, rest)
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return p
}
