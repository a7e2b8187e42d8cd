package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hdlvet.dev/pkg/hdlvet/internal/adapter"
)

// cleanCmd represents the clean command.
var cleanCmd = newCleanCmd()

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the database snapshot and compiler working libraries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := projectRoot()

			store := adapter.NewSnapshotStore(workDir(root))
			if err := store.Delete(); err != nil {
				return err
			}

			if err := os.RemoveAll(workDir(root)); err != nil {
				return fmt.Errorf("remove work dir: %w", err)
			}

			cmd.Println("Cleaned", workDir(root))

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
