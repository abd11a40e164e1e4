// SPDX-License-Identifier: MPL-2.0

// Package toolchain drives the external tools: the build orchestrator that
// produces the shader compiler, and the compiler itself.
package toolchain

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/vkshadergen/vkshadergen/internal/discovery"
	"github.com/vkshadergen/vkshadergen/internal/issue"
	"github.com/vkshadergen/vkshadergen/pkg/fspath"
	"github.com/vkshadergen/vkshadergen/pkg/platform"
	"github.com/vkshadergen/vkshadergen/pkg/types"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"
)

type (
	// Settings holds the external tool names and flags.
	Settings struct {
		// BuildCommand is the orchestrator command line, split with shell word
		// rules. "-C <buildDir> <BuildTarget>" is appended.
		BuildCommand string
		BuildTarget  string
		// CompilerBinary is the file name of the compiler inside the build
		// directory, without executable suffix.
		CompilerBinary string
		// TargetFlag is the compiler's output profile flag.
		TargetFlag string
		// GOOS selects the executable suffix; empty means the host OS.
		GOOS string
	}

	// Toolchain runs the orchestrator and compiler for one working directory.
	Toolchain struct {
		settings Settings
		workDir  string
		runner   Runner
		logger   *log.Logger
		output   io.Writer
		getenv   func(string) string
	}

	// Option configures a Toolchain.
	Option func(*Toolchain)
)

// WithRunner replaces the subprocess runner.
func WithRunner(r Runner) Option {
	return func(t *Toolchain) { t.runner = r }
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l *log.Logger) Option {
	return func(t *Toolchain) { t.logger = l }
}

// WithOutput sets where tool stdout and stderr are forwarded.
func WithOutput(w io.Writer) Option {
	return func(t *Toolchain) { t.output = w }
}

// WithGetenv sets the lookup used to expand variables in BuildCommand.
func WithGetenv(fn func(string) string) Option {
	return func(t *Toolchain) { t.getenv = fn }
}

// New creates a Toolchain that runs tools from workDir.
func New(settings Settings, workDir string, opts ...Option) *Toolchain {
	t := &Toolchain{
		settings: settings,
		workDir:  workDir,
		runner:   ExecRunner{},
		logger:   log.New(io.Discard),
		output:   os.Stderr,
		getenv:   os.Getenv,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CompilerPath returns where the orchestrator leaves the compiler in buildDir.
func (t *Toolchain) CompilerPath(buildDir string) string {
	goos := t.settings.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	return filepath.Join(buildDir, platform.ExecutableNameFor(goos, t.settings.CompilerBinary))
}

// Prepare builds the compiler through the orchestrator and returns its path.
// A nonzero orchestrator exit is an ExternalToolFailure; a missing binary
// afterwards is a ToolMissing failure.
func (t *Toolchain) Prepare(ctx context.Context, buildDir string) (string, error) {
	argv, err := shell.Fields(t.settings.BuildCommand, t.getenv)
	if err != nil || len(argv) == 0 {
		if err == nil {
			err = fmt.Errorf("empty command")
		}
		return "", issue.NewErrorContext(issue.KindExternalToolFailure).
			WithOperation("parse build command").
			WithResource(t.settings.BuildCommand).
			WithSuggestion("Check the build.command setting").
			Wrap(err).
			BuildError()
	}
	argv = append(argv, "-C", buildDir, t.settings.BuildTarget)

	t.logger.Info("building shader compiler", "dir", buildDir, "target", t.settings.BuildTarget)
	t.logger.Debug("exec", "argv", strings.Join(argv, " "))

	res := t.runner.Run(ctx, Command{
		Name:   argv[0],
		Args:   argv[1:],
		Dir:    t.workDir,
		Stdout: t.output,
		Stderr: t.output,
	})
	if err := toolError(ctx, res, argv[0]); err != nil {
		return "", issue.NewErrorContext(issue.KindExternalToolFailure).
			WithOperation("build shader compiler").
			WithResource(buildDir).
			WithSuggestion(fmt.Sprintf("Run '%s' by hand to see the full build log", strings.Join(argv, " "))).
			WithSuggestion("Check the build.command and build.target settings").
			Wrap(err).
			BuildError()
	}

	compiler := t.CompilerPath(buildDir)
	if !fspath.IsFile(types.FilesystemPath(compiler)) {
		return "", issue.NewErrorContext(issue.KindToolMissing).
			WithOperation("locate shader compiler").
			WithResource(compiler).
			WithSuggestion(fmt.Sprintf("Check that target %q produces %s", t.settings.BuildTarget, filepath.Base(compiler))).
			WithSuggestion("Check the compiler.binary setting").
			Wrap(fmt.Errorf("%s not found after build step", compiler)).
			BuildError()
	}
	return compiler, nil
}

// Compile runs the compiler for one shader:
// <compiler> <flag> --variable-name <var> -o <output> <input>.
func (t *Toolchain) Compile(ctx context.Context, compiler string, s discovery.Shader) error {
	args := []string{t.settings.TargetFlag, "--variable-name", s.Variable, "-o", s.Output, s.Input}
	t.logger.Debug("compiling", "input", s.Input, "output", s.Output, "variable", s.Variable)

	res := t.runner.Run(ctx, Command{
		Name:   compiler,
		Args:   args,
		Dir:    t.workDir,
		Stdout: t.output,
		Stderr: t.output,
	})
	if err := toolError(ctx, res, filepath.Base(compiler)); err != nil {
		return issue.NewErrorContext(issue.KindExternalToolFailure).
			WithOperation("compile shader").
			WithResource(s.Input).
			WithSuggestion("See the compiler diagnostics above").
			Wrap(err).
			BuildError()
	}
	return nil
}

// CompileAll compiles shaders in order and stops at the first failure. Blob
// files written before the failure stay on disk.
func (t *Toolchain) CompileAll(ctx context.Context, compiler string, shaders []discovery.Shader) error {
	made := make(map[string]bool)
	for _, s := range shaders {
		dir := filepath.Join(t.workDir, filepath.Dir(s.Output))
		if made[dir] {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create generated directory: %w", err)
		}
		made[dir] = true
	}

	for i, s := range shaders {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("compilation interrupted: %w", err)
		}
		if err := t.Compile(ctx, compiler, s); err != nil {
			return err
		}
		t.logger.Debug("compiled", "shader", s.Input, "n", i+1, "of", len(shaders))
	}
	return nil
}

func toolError(ctx context.Context, res Result, name string) error {
	if res.Error != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s interrupted: %w", name, ctxErr)
		}
		return fmt.Errorf("run %s: %w", name, res.Error)
	}
	if !res.ExitCode.IsSuccess() {
		return fmt.Errorf("%s exited with status %s", name, res.ExitCode)
	}
	return nil
}
