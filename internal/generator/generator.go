// SPDX-License-Identifier: MPL-2.0

// Package generator wires the pipeline together: discovery, build directory
// resolution, compilation, and artifact assembly. Every stage receives its
// settings from one immutable Options value.
package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vkshadergen/vkshadergen/internal/assemble"
	"github.com/vkshadergen/vkshadergen/internal/buildpath"
	"github.com/vkshadergen/vkshadergen/internal/config"
	"github.com/vkshadergen/vkshadergen/internal/discovery"
	"github.com/vkshadergen/vkshadergen/internal/toolchain"

	"github.com/charmbracelet/log"
)

// SourceDateEpochEnv pins the provenance year for reproducible builds.
const SourceDateEpochEnv = "SOURCE_DATE_EPOCH"

type (
	// Options is the complete, immutable input of a run.
	Options struct {
		// WorkDir is the generator root; every relative path is resolved from it.
		WorkDir   string
		Name      string
		Discovery discovery.Options
		Resolver  buildpath.Resolver
		Toolchain toolchain.Settings
		Artifacts assemble.Settings
	}

	// Clock supplies the generation date.
	Clock interface {
		Now() time.Time
	}

	// Result describes a completed generation.
	Result struct {
		BuildDir  string
		Compiler  string
		Shaders   []discovery.Shader
		Artifacts []string
	}

	// Generator runs the pipeline for one Options value.
	Generator struct {
		opts      Options
		clock     Clock
		logger    *log.Logger
		output    io.Writer
		runner    toolchain.Runner
		getenv    func(string) string
		assembler *assemble.Assembler
	}

	// Option configures a Generator.
	Option func(*Generator)

	systemClock struct{}
)

func (systemClock) Now() time.Time { return time.Now() }

// WithClock replaces the clock used for the provenance year.
func WithClock(c Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithOutput sets where external tool output is forwarded.
func WithOutput(w io.Writer) Option {
	return func(g *Generator) { g.output = w }
}

// WithRunner replaces the subprocess runner.
func WithRunner(r toolchain.Runner) Option {
	return func(g *Generator) { g.runner = r }
}

// WithGetenv replaces environment lookups (SOURCE_DATE_EPOCH, build command
// expansion).
func WithGetenv(fn func(string) string) Option {
	return func(g *Generator) { g.getenv = fn }
}

// OptionsFromConfig builds Options for workDir from a loaded configuration.
func OptionsFromConfig(cfg *config.Config, workDir string) Options {
	return Options{
		WorkDir: workDir,
		Name:    config.AppName,
		Discovery: discovery.Options{
			ShadersDir: filepath.FromSlash(cfg.ShadersDir),
			Exclude:    cfg.Exclude,
			Naming: discovery.Naming{
				GeneratedDir:   filepath.FromSlash(cfg.GeneratedDir),
				OutputSuffix:   cfg.OutputSuffix,
				VariablePrefix: cfg.VariablePrefix,
			},
		},
		Resolver: buildpath.Resolver{
			OutDirName: cfg.Build.OutDir,
			MarkerFile: cfg.Build.MarkerFile,
			MaxDepth:   cfg.Build.MaxDepth,
		},
		Toolchain: toolchain.Settings{
			BuildCommand:   cfg.Build.Command,
			BuildTarget:    cfg.Build.Target,
			CompilerBinary: cfg.Compiler.Binary,
			TargetFlag:     cfg.Compiler.TargetFlag,
		},
		Artifacts: assemble.Settings{
			Implementation:  cfg.Artifacts.Implementation,
			Declaration:     cfg.Artifacts.Declaration,
			BuildFragment:   cfg.Artifacts.BuildFragment,
			IncludePrefix:   cfg.Artifacts.IncludePrefix,
			GNVariable:      cfg.Artifacts.GNVariable,
			CopyrightHolder: cfg.Artifacts.CopyrightHolder,
		},
	}
}

// New creates a Generator.
func New(opts Options, options ...Option) *Generator {
	g := &Generator{
		opts:   opts,
		clock:  systemClock{},
		logger: log.New(io.Discard),
		output: os.Stderr,
		runner: toolchain.ExecRunner{},
		getenv: os.Getenv,
	}
	for _, o := range options {
		o(g)
	}
	g.assembler = assemble.New(opts.Artifacts)
	return g
}

// Inputs returns the shader source paths in sorted order. It runs no tools
// and writes nothing.
func (g *Generator) Inputs() ([]string, error) {
	shaders, err := discovery.Discover(g.opts.WorkDir, g.opts.Discovery)
	if err != nil {
		return nil, err
	}
	return discovery.Inputs(shaders), nil
}

// Outputs returns the sorted blob paths followed by the implementation and
// declaration artifact names. It runs no tools and writes nothing.
func (g *Generator) Outputs() ([]string, error) {
	shaders, err := discovery.Discover(g.opts.WorkDir, g.opts.Discovery)
	if err != nil {
		return nil, err
	}
	return append(discovery.SortedOutputs(shaders), g.assembler.FileNames()...), nil
}

// Generate runs the full pipeline. Artifacts are written only after every
// shader compiled; on failure the blobs written so far stay on disk.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	shaders, err := discovery.Discover(g.opts.WorkDir, g.opts.Discovery)
	if err != nil {
		return nil, err
	}
	prov, err := g.provenance()
	if err != nil {
		return nil, err
	}

	buildDir, err := g.opts.Resolver.Resolve(g.opts.WorkDir)
	if err != nil {
		return nil, err
	}
	g.logger.Info("using build directory", "dir", buildDir)

	tc := toolchain.New(g.opts.Toolchain, g.opts.WorkDir,
		toolchain.WithRunner(g.runner),
		toolchain.WithLogger(g.logger),
		toolchain.WithOutput(g.output),
		toolchain.WithGetenv(g.getenv),
	)
	compiler, err := tc.Prepare(ctx, buildDir)
	if err != nil {
		return nil, err
	}
	if err := tc.CompileAll(ctx, compiler, shaders); err != nil {
		return nil, err
	}

	artifacts, err := g.assembler.Render(shaders, prov)
	if err != nil {
		return nil, err
	}
	if err := assemble.Write(g.opts.WorkDir, artifacts); err != nil {
		return nil, err
	}

	res := &Result{BuildDir: buildDir, Compiler: compiler, Shaders: shaders}
	for _, a := range artifacts {
		g.logger.Info("wrote", "artifact", a.Path, "kind", a.Kind)
		res.Artifacts = append(res.Artifacts, a.Path)
	}
	return res, nil
}

// provenance fills the artifact header. SOURCE_DATE_EPOCH, when set, wins
// over the clock.
func (g *Generator) provenance() (assemble.Provenance, error) {
	now := g.clock.Now()
	if v := g.getenv(SourceDateEpochEnv); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return assemble.Provenance{}, fmt.Errorf("invalid %s %q: %w", SourceDateEpochEnv, v, err)
		}
		now = time.Unix(secs, 0)
	}
	return assemble.Provenance{
		Generator: g.opts.Name,
		InputGlob: filepath.ToSlash(g.opts.Discovery.ShadersDir) + "/*",
		Year:      now.UTC().Year(),
	}, nil
}
