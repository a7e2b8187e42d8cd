package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hdlvet.dev/pkg/hdlvet/internal/controller"
)

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>...",
		Short: "Compile files with their dependencies and report diagnostics",
		Long: `Compile each given file after its dependencies, in dependency order,
and print the resulting compiler, database and style diagnostics.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot()
			project := container.Get(root)
			ui := controller.NewSimpleUI(cmd, outputFormat())

			hadErrors := false

			for _, path := range parsePaths(root, args) {
				diags, err := project.CheckPath(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("check %q: %w", path.Name(), err)
				}

				if err := ui.DisplayDiagnostics(cmd.Context(), path, diags); err != nil {
					return err
				}

				for _, diag := range diags {
					if diag.Severity.IsError() {
						hadErrors = true
					}
				}
			}

			saveSnapshot(project)

			if hadErrors {
				return fmt.Errorf("errors found")
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
