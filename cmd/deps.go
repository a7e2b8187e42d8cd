package cmd

import (
	"github.com/spf13/cobra"

	"hdlvet.dev/pkg/hdlvet/internal/controller"
)

// depsCmd represents the deps command.
var depsCmd = newDepsCmd()

func newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <path>",
		Short: "Show the transitive dependency units of a file",
		Long: `Print the transitive closure of (library, unit) pairs the given file
depends on, directly or through other project files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot()
			project := container.Get(root)
			ui := controller.NewSimpleUI(cmd, outputFormat())

			target := parsePaths(root, args)[0]
			units := project.DB.DependenciesUnits(target)

			if err := ui.DisplayDependencies(cmd.Context(), target, units); err != nil {
				return err
			}

			saveSnapshot(project)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(depsCmd)
}
