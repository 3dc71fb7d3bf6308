package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an object with its verbs and functions",
	Long: `Show one object. Verb and function properties are shown with their
source bodies and, for verbs, their invocation pattern and arguments.

Text output is YAML.

Examples:
  moodb show kitchen
  moodb show kitchen --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		return runShow(s, args[0])
	},
}

func runShow(s *store, id string) error {
	obj, ok := s.cache.FindByID(id)
	if !ok {
		return handleErrorMsg(ErrObjectNotFound, fmt.Sprintf("object not found: %s", id), "Run 'moodb ls' to see object IDs")
	}

	if jsonOutput {
		outputSuccess(map[string]any{"object": obj}, nil, nil)
		return nil
	}

	out, err := yaml.Marshal(obj)
	if err != nil {
		return handleError(ErrInternal, err, "")
	}
	_, err = stdout.Write(out)
	return err
}

func init() {
	rootCmd.AddCommand(showCmd)
}
