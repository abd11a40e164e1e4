// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Query mode: the build system asks for the file lists before deciding
// whether to run the generator. Neither command resolves the build directory,
// runs a tool, or writes a file.

func newInputsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "inputs",
		Short: "Print the shader source paths, comma-separated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			inputs, err := s.gen.Inputs()
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprintln(app.stdout, strings.Join(inputs, ","))
			return nil
		},
	}
}

func newOutputsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs",
		Short: "Print the generated file paths, comma-separated",
		Long: `Print the generated file paths, comma-separated.

Blob paths are listed in sorted order, exactly as they appear in the build
fragment, followed by the implementation and declaration file names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			outputs, err := s.gen.Outputs()
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprintln(app.stdout, strings.Join(outputs, ","))
			return nil
		},
	}
}
