package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/ui"
)

var setCmd = &cobra.Command{
	Use:   "set <id> <key> <value>",
	Short: "Set a plain property on an object",
	Long: `Set a literal property. The value is parsed as JSON when it is valid
JSON and stored as a string otherwise.

Verbs and functions are attached from source files with 'moodb attach'.

Examples:
  moodb set kitchen smell bread
  moodb set lamp lit true
  moodb set lamp weight 2.5
  moodb set chest contents '["coin", "map"]'`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		return runSet(s, args[0], args[1], args[2])
	},
}

var unsetCmd = &cobra.Command{
	Use:   "unset <id> <key>",
	Short: "Remove a property from an object",
	Long: `Remove a property. Removing a verb or function also deletes its source
file.

Examples:
  moodb unset kitchen smell
  moodb unset kitchen look`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		return runUnset(s, args[0], args[1])
	},
}

func runSet(s *store, id, key, raw string) error {
	value, err := parseLiteral(raw)
	if err != nil {
		return handleError(ErrInvalidInput, err, "Use 'moodb attach' for verbs and functions")
	}
	if err := s.cache.SetProperty(id, key, value); err != nil {
		return handleStoreError(err)
	}

	if jsonOutput {
		outputSuccess(map[string]any{"id": id, "key": key, "value": value}, nil, nil)
		return nil
	}
	fmt.Fprintln(stdout, ui.Successf("Set %s.%s", ui.ObjectID(id), key))
	return nil
}

func runUnset(s *store, id, key string) error {
	obj, ok := s.cache.FindByID(id)
	if !ok {
		return handleErrorMsg(ErrObjectNotFound, fmt.Sprintf("object not found: %s", id), "")
	}
	if _, ok := obj.Property(key); !ok {
		return handleErrorMsg(ErrPropertyNotFound, fmt.Sprintf("%s has no property %q", id, key), "")
	}
	if err := s.cache.RemoveProperty(id, key, nil); err != nil {
		return handleStoreError(err)
	}

	if jsonOutput {
		outputSuccess(map[string]any{"id": id, "key": key}, nil, nil)
		return nil
	}
	fmt.Fprintln(stdout, ui.Successf("Removed %s.%s", ui.ObjectID(id), key))
	return nil
}

// parseLiteral reads a command-line value as JSON, falling back to the raw
// string. Objects shaped like callable markers are rejected; stored as
// literals they would come back as verbs or functions.
func parseLiteral(raw string) (model.Literal, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return model.Literal{Value: raw}, nil
	}
	if m, ok := v.(map[string]any); ok {
		for _, marker := range []string{"verb", "function"} {
			if _, has := m[marker]; has {
				return model.Literal{}, fmt.Errorf("value must not have a %q key", marker)
			}
		}
	}
	return model.Literal{Value: v}, nil
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(unsetCmd)
}
