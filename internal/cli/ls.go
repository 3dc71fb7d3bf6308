package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/moodb/internal/ui"
)

var lsPlayers bool

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List object IDs",
	Long: `List the IDs of every object in the store, sorted.

Examples:
  moodb ls
  moodb ls --players
  moodb ls --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		return runList(s, lsPlayers)
	},
}

func runList(s *store, players bool) error {
	ids := s.cache.IDs()
	if players {
		ids = s.cache.PlayerIDs()
	}
	if ids == nil {
		ids = []string{}
	}
	warnings := s.loadWarnings()

	if jsonOutput {
		outputSuccess(map[string]any{"ids": ids}, warnings, &Meta{Count: len(ids)})
		return nil
	}

	printWarnings(warnings)
	for _, id := range ids {
		fmt.Fprintln(stdout, ui.ObjectID(id))
	}
	return nil
}

func init() {
	lsCmd.Flags().BoolVar(&lsPlayers, "players", false, "Only list player-controlled objects")
	rootCmd.AddCommand(lsCmd)
}
