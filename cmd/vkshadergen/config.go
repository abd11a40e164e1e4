// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/vkshadergen/vkshadergen/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `vkshadergen config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vkshadergen configuration",
		Long: `Manage vkshadergen configuration.

Configuration is read from ` + config.ConfigFileName + ` in the generator root
(or the file given with --config), then overridden by VKSHADERGEN_*
environment variables. Without a file the built-in defaults apply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, workDir, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			showConfig(app.stdout, cfg, config.FilePath(config.LoadOptions{
				ConfigFilePath: flags.configPath,
				WorkDir:        workDir,
			}))
			return nil
		},
	})

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			switch strings.ToLower(format) {
			case "cue":
				fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			case "toml":
				out, err := config.GenerateTOML(cfg)
				if err != nil {
					return app.fail(cmd, flags, err)
				}
				fmt.Fprint(app.stdout, out)
			default:
				fmt.Fprintf(app.stderr, "%s unknown format %q (valid: cue, toml)\n", ErrorStyle.Render("Error:"), format)
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return &ExitError{Code: exitInvalidArguments}
			}
			return nil
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "cue", "output format (cue or toml)")
	cfgCmd.AddCommand(dumpCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create " + config.ConfigFileName + " with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := flags.workDir()
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			path, created, err := config.CreateDefaultConfig(workDir)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s %s already exists\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := flags.workDir()
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			path := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configPath, WorkDir: workDir})
			if path == "" {
				fmt.Fprintln(app.stdout, "(defaults)")
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, path string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	row := func(indent, key, value string) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(value))
	}
	row("", "shaders_dir", cfg.ShadersDir)
	row("", "generated_dir", cfg.GeneratedDir)
	row("", "output_suffix", cfg.OutputSuffix)
	row("", "variable_prefix", cfg.VariablePrefix)
	row("", "exclude", strings.Join(cfg.Exclude, ", "))
	row("", "log_level", cfg.LogLevel.String())

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("artifacts"))
	row("  ", "implementation", cfg.Artifacts.Implementation)
	row("  ", "declaration", cfg.Artifacts.Declaration)
	row("  ", "build_fragment", cfg.Artifacts.BuildFragment)
	row("  ", "include_prefix", cfg.Artifacts.IncludePrefix)
	row("  ", "gn_variable", cfg.Artifacts.GNVariable)
	row("  ", "copyright_holder", cfg.Artifacts.CopyrightHolder)

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("build"))
	row("  ", "out_dir", cfg.Build.OutDir)
	row("  ", "marker_file", cfg.Build.MarkerFile)
	row("  ", "max_depth", fmt.Sprint(cfg.Build.MaxDepth))
	row("  ", "command", cfg.Build.Command)
	row("  ", "target", cfg.Build.Target)

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("compiler"))
	row("  ", "binary", cfg.Compiler.Binary)
	row("  ", "target_flag", cfg.Compiler.TargetFlag)

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("watch"))
	row("  ", "debounce", cfg.Watch.Debounce)
	row("  ", "clear_screen", fmt.Sprint(cfg.Watch.ClearScreen))
}
