package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/slugs"
	"github.com/aidanlsb/moodb/internal/ui"
)

var (
	newID       string
	newLocation string
	newUser     string
	newAliases  []string
	newTraits   []string
)

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new object",
	Long: `Create a new object with the given display name.

The ID defaults to a slug of the name ("Brass Lamp" becomes brass-lamp),
with a numeric suffix if that ID is taken.

Examples:
  moodb new Kitchen
  moodb new "Brass Lamp" --location kitchen --alias lamp --alias light
  moodb new Alice --user u-42 --location kitchen --trait player`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		return runNew(s, newObjectInput{
			Name:       args[0],
			ID:         newID,
			LocationID: newLocation,
			UserID:     newUser,
			Aliases:    newAliases,
			TraitIDs:   newTraits,
		})
	},
}

type newObjectInput struct {
	Name       string
	ID         string
	LocationID string
	UserID     string
	Aliases    []string
	TraitIDs   []string
}

func runNew(s *store, in newObjectInput) error {
	id := in.ID
	if id == "" {
		id = slugs.UniqueObjectID(in.Name, s.cache.Has)
	}
	if id == "" {
		return handleErrorMsg(ErrInvalidInput,
			fmt.Sprintf("cannot derive an id from %q", in.Name),
			"Pass one explicitly with --id")
	}

	obj, err := s.cache.Insert(&model.Object{
		ID:         id,
		Name:       in.Name,
		Aliases:    in.Aliases,
		TraitIDs:   in.TraitIDs,
		LocationID: in.LocationID,
		UserID:     in.UserID,
	})
	if err != nil {
		return handleStoreError(err)
	}

	if jsonOutput {
		outputSuccess(map[string]any{"id": obj.ID, "object": obj}, nil, nil)
		return nil
	}
	fmt.Fprintln(stdout, ui.Successf("Created %s", ui.ObjectID(obj.ID)))
	return nil
}

func init() {
	newCmd.Flags().StringVar(&newID, "id", "", "Object ID (default: slug of the name)")
	newCmd.Flags().StringVar(&newLocation, "location", "", "ID of the containing object")
	newCmd.Flags().StringVar(&newUser, "user", "", "User ID; makes the object a player")
	newCmd.Flags().StringArrayVar(&newAliases, "alias", nil, "Alternate name (repeatable)")
	newCmd.Flags().StringArrayVar(&newTraits, "trait", nil, "Trait object ID (repeatable)")
	rootCmd.AddCommand(newCmd)
}
