package cmd

import (
	"github.com/spf13/cobra"

	"hdlvet.dev/pkg/hdlvet/internal/controller"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the source files registered in the project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := projectRoot()
			project := container.Get(root)
			ui := controller.NewSimpleUI(cmd, outputFormat())

			return ui.DisplaySources(cmd.Context(), project.DB.Paths())
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
