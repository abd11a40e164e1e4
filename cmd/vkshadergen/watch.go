// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vkshadergen/vkshadergen/internal/issue"
	"github.com/vkshadergen/vkshadergen/internal/watch"

	"github.com/spf13/cobra"
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever a shader source changes",
		Long: `Generate once, then watch the shader source directory and regenerate
after every change until interrupted.

A failed run is reported and watching continues, so a broken shader can be
fixed and saved again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, flags)
		},
	}
}

// runWatch runs the pipeline once, then blocks in the watcher loop until the
// command context is cancelled (Ctrl+C).
func runWatch(cmd *cobra.Command, app *App, flags *rootFlagValues) error {
	s, err := app.newSession(cmd.Context(), flags)
	if err != nil {
		return app.fail(cmd, flags, err)
	}
	debounce, err := s.cfg.Watch.DebounceDuration()
	if err != nil {
		return app.fail(cmd, flags, err)
	}

	regenerate := func(ctx context.Context) {
		if _, genErr := s.gen.Generate(ctx); genErr != nil {
			fmt.Fprintln(app.stderr, WarningStyle.Render("!")+" "+issue.FormatForDisplay(genErr, flags.verbose))
		}
	}

	fmt.Fprintf(app.stdout, "%s Watch mode: initial generation\n", CmdStyle.Render("→"))
	regenerate(cmd.Context())

	w, err := watch.New(watch.Config{
		Dirs:        []string{filepath.FromSlash(s.cfg.ShadersDir)},
		Exclude:     s.cfg.Exclude,
		Debounce:    debounce,
		ClearScreen: s.cfg.Watch.ClearScreen,
		BaseDir:     s.workDir,
		Logger:      s.logger,
		Stdout:      app.stdout,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "%s Detected %d change(s), regenerating...\n", CmdStyle.Render("→"), len(changed))
			regenerate(ctx)
			return nil
		},
	})
	if err != nil {
		return app.fail(cmd, flags, fmt.Errorf("failed to start watcher: %w", err))
	}

	fmt.Fprintf(app.stdout, "\n%s Watching %s for changes (Ctrl+C to stop)...\n\n",
		CmdStyle.Render("→"), s.cfg.ShadersDir)
	if err := w.Run(cmd.Context()); err != nil {
		return app.fail(cmd, flags, err)
	}
	return nil
}
