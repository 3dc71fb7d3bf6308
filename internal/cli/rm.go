package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/moodb/internal/ui"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an object and its files",
	Long: `Delete an object: its verb and function files, its descriptor, and its
directory once empty.

Examples:
  moodb rm brass-lamp
  moodb rm brass-lamp --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		return runRemove(s, args[0])
	},
}

func runRemove(s *store, id string) error {
	removed, err := s.cache.Remove(id)
	if err != nil {
		return handleStoreError(err)
	}
	if !removed {
		return handleErrorMsg(ErrObjectNotFound, fmt.Sprintf("object not found: %s", id), "Run 'moodb ls' to see object IDs")
	}

	if jsonOutput {
		outputSuccess(map[string]any{"id": id, "removed": true}, nil, nil)
		return nil
	}
	fmt.Fprintln(stdout, ui.Successf("Removed %s", ui.ObjectID(id)))
	return nil
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
