// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vkshadergen/vkshadergen/internal/config"
	"github.com/vkshadergen/vkshadergen/internal/issue"
	"github.com/vkshadergen/vkshadergen/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Exit codes reported for each failure class.
const (
	exitFailure          types.ExitCode = 1
	exitConfigNotFound   types.ExitCode = 2
	exitExternalTool     types.ExitCode = 3
	exitToolMissing      types.ExitCode = 4
	exitInvalidArguments types.ExitCode = 64
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the vkshadergen command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Compile Vulkan internal shaders and generate their lookup tables",
		Long: TitleStyle.Render(config.AppName) + SubtitleStyle.Render(" - Vulkan internal shader generator") + `

Compiles every shader under shaders/src with glslang_validator, writing one
SPIR-V blob per shader to shaders/gen, then regenerates the C++ lookup table,
its header, and the GN list of generated files.

The compiler is built first through the build orchestrator in the nearest
out/<config> directory that contains args.gn.

` + SubtitleStyle.Render("Examples:") + `
  vkshadergen               Compile shaders and regenerate artifacts
  vkshadergen inputs        Print the shader sources, comma-separated
  vkshadergen outputs       Print the generated files, comma-separated
  vkshadergen watch         Regenerate whenever a shader source changes
  vkshadergen config show   Show the effective configuration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, app, flags)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and detailed errors")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ./"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVarP(&flags.dir, "dir", "C", "", "generator root directory (default is the current directory)")

	rootCmd.AddCommand(newInputsCommand(app, flags))
	rootCmd.AddCommand(newOutputsCommand(app, flags))
	rootCmd.AddCommand(newWatchCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the vkshadergen command line. It is called by main.main().
func Execute() {
	if code := run(); code != 0 {
		os.Exit(int(code))
	}
}

// run executes the root command and returns the process exit code.
func run() types.ExitCode {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		return exitFailure
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return exitFailure
	}
	return 0
}

// fail reports err on stderr in its actionable form and converts it to an
// ExitError carrying the exit code of its failure class.
func (a *App) fail(cmd *cobra.Command, flags *rootFlagValues, err error) error {
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+issue.FormatForDisplay(err, flags.verbose))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: classifyExitCode(err), Err: err}
}

// classifyExitCode maps an error to the exit code of its failure class.
func classifyExitCode(err error) types.ExitCode {
	switch issue.KindOf(err) {
	case issue.KindConfigurationNotFound:
		return exitConfigNotFound
	case issue.KindExternalToolFailure:
		return exitExternalTool
	case issue.KindToolMissing:
		return exitToolMissing
	default:
		return exitFailure
	}
}

// runGenerate is the root command: compile everything and write the artifacts.
func runGenerate(cmd *cobra.Command, app *App, flags *rootFlagValues) error {
	s, err := app.newSession(cmd.Context(), flags)
	if err != nil {
		return app.fail(cmd, flags, err)
	}
	res, err := s.gen.Generate(cmd.Context())
	if err != nil {
		return app.fail(cmd, flags, err)
	}
	s.logger.Info("generated", "shaders", len(res.Shaders), "build_dir", res.BuildDir)
	return nil
}
