package plugin

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tribunales-evau/bundler/internal/build/module"
)

// ExecName is the registry name of the external command plugin.
const ExecName = "exec"

// Exec pipes module code through an external command: code on stdin, the
// transformed code on stdout. This is how real compilers (TypeScript, Sass,
// the Vue SFC compiler) plug into a build.
//
// "{file}" and "{id}" in the arguments expand to the module path and ID.
// The same values are exported as BUNDLER_FILE and BUNDLER_ID.
type Exec struct {
	name    string
	command []string
	lang    module.Lang
	output  module.Lang
	timeout time.Duration
}

type execOptions struct {
	// Name overrides the plugin name in logs and errors.
	Name string `mapstructure:"name"`
	// Command is the program and its arguments.
	Command []string `mapstructure:"command"`
	// Lang selects modules by current language.
	Lang string `mapstructure:"lang"`
	// Output is the language the command produces. Default: js.
	Output string `mapstructure:"output"`
	// Timeout bounds each invocation. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

// NewExec is the registry factory for Exec.
func NewExec(opts Options) (Plugin, error) {
	var cfg execOptions
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, fmt.Errorf("options.command is required")
	}
	if cfg.Lang == "" {
		return nil, fmt.Errorf("options.lang is required")
	}
	e := &Exec{
		name:    ExecName,
		command: cfg.Command,
		lang:    module.Lang(cfg.Lang),
		output:  module.LangJS,
		timeout: cfg.Timeout,
	}
	if cfg.Name != "" {
		e.name = cfg.Name
	}
	if cfg.Output != "" {
		e.output = module.Lang(cfg.Output)
	}
	return e, nil
}

func (e *Exec) Name() string { return e.name }

func (e *Exec) Match(meta Meta) bool { return meta.Lang == e.lang }

func (e *Exec) Transform(ctx context.Context, code []byte, meta Meta) (*Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	expand := strings.NewReplacer("{file}", meta.Path, "{id}", meta.ID)
	args := make([]string, len(e.command)-1)
	for i, a := range e.command[1:] {
		args[i] = expand.Replace(a)
	}

	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Stdin = bytes.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "BUNDLER_FILE="+meta.Path, "BUNDLER_ID="+meta.ID)
	if !module.IsVirtual(meta.Path) {
		cmd.Dir = filepath.Dir(meta.Path)
	}

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", e.command[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", e.command[0], err)
	}
	return &Result{Code: stdout.Bytes(), Lang: e.output}, nil
}
