package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/ui"
)

var findAttributes = []string{model.AttrID, model.AttrName, model.AttrLocationID, model.AttrUserID}

var findCmd = &cobra.Command{
	Use:   "find <attribute> <value>",
	Short: "Find objects by attribute",
	Long: `Find objects whose attribute exactly equals value.

Attributes: id, name, locationId, userId.

Examples:
  moodb find locationId kitchen
  moodb find name "Brass lamp" --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		return runFind(s, args[0], args[1])
	},
}

func runFind(s *store, attribute, value string) error {
	if !slices.Contains(findAttributes, attribute) {
		return handleErrorMsg(ErrInvalidInput,
			fmt.Sprintf("unknown attribute: %s", attribute),
			"Use one of: "+strings.Join(findAttributes, ", "))
	}

	found := s.cache.FindBy(attribute, value)
	if jsonOutput {
		objects := make([]*model.Object, 0, len(found))
		objects = append(objects, found...)
		outputSuccess(map[string]any{"objects": objects}, nil, &Meta{Count: len(objects)})
		return nil
	}

	if len(found) == 0 {
		fmt.Fprintln(stdout, ui.Hint("no matches"))
		return nil
	}
	for _, obj := range found {
		fmt.Fprintf(stdout, "%s  %s\n", ui.ObjectID(obj.ID), obj.Name)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(findCmd)
}
