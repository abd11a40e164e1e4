// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vkshadergen/vkshadergen/internal/config"
	"github.com/vkshadergen/vkshadergen/internal/generator"
	"github.com/vkshadergen/vkshadergen/internal/toolchain"

	"github.com/charmbracelet/log"
)

type (
	// App is the CLI composition root. Commands receive it instead of reaching
	// for package-level state, so tests can swap every external collaborator.
	App struct {
		Config ConfigProvider

		runner toolchain.Runner
		clock  generator.Clock
		getenv func(string) string
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies holds the optional collaborators of an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Runner executes the orchestrator and compiler.
		Runner toolchain.Runner
		// Clock supplies the provenance year.
		Clock  generator.Clock
		Getenv func(string) string
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration from explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlagValues holds the persistent flags shared by every subcommand.
	rootFlagValues struct {
		configPath string
		verbose    bool
		dir        string
	}

	// session is everything one command invocation needs after flags and
	// configuration have been resolved.
	session struct {
		cfg     *config.Config
		workDir string
		logger  *log.Logger
		gen     *generator.Generator
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = toolchain.ExecRunner{}
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}

	return &App{
		Config: deps.Config,
		runner: deps.Runner,
		clock:  deps.Clock,
		getenv: deps.Getenv,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

// workDir returns the absolute generator root selected by --dir.
func (f *rootFlagValues) workDir() (string, error) {
	dir := f.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve --dir %q: %w", f.dir, err)
	}
	return abs, nil
}

// loadConfig resolves the working directory and loads its configuration.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, string, error) {
	workDir, err := flags.workDir()
	if err != nil {
		return nil, "", err
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		WorkDir:        workDir,
	})
	if err != nil {
		return nil, "", err
	}
	return cfg, workDir, nil
}

// newSession loads configuration and builds the logger and generator.
func (a *App) newSession(ctx context.Context, flags *rootFlagValues) (*session, error) {
	cfg, workDir, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	logger := a.newLogger(cfg.LogLevel, flags.verbose)

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithOutput(a.stderr),
		generator.WithRunner(a.runner),
		generator.WithGetenv(a.getenv),
	}
	if a.clock != nil {
		opts = append(opts, generator.WithClock(a.clock))
	}

	return &session{
		cfg:     cfg,
		workDir: workDir,
		logger:  logger,
		gen:     generator.New(generator.OptionsFromConfig(cfg, workDir), opts...),
	}, nil
}

// newLogger builds the pipeline logger. --verbose always wins over the
// configured level.
func (a *App) newLogger(level config.LogLevel, verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		return logger
	}
	lvl, err := log.ParseLevel(level.String())
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
