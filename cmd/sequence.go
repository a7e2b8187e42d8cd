package cmd

import (
	"github.com/spf13/cobra"

	"hdlvet.dev/pkg/hdlvet/internal/controller"
)

// sequenceCmd represents the sequence command.
var sequenceCmd = newSequenceCmd()

func newSequenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sequence <path>",
		Short: "Show the compile order for a file's dependencies",
		Long: `Print the ordered list of (library, path) steps that would be compiled
before the given file. The file itself is not part of its own sequence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot()
			project := container.Get(root)
			ui := controller.NewSimpleUI(cmd, outputFormat())

			target := parsePaths(root, args)[0]
			steps := project.DB.BuildSequence(target, project.Orc.Builder().BuiltinLibraries())

			if err := ui.DisplaySequence(cmd.Context(), target, steps); err != nil {
				return err
			}

			saveSnapshot(project)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(sequenceCmd)
}
