package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/paths"
	"github.com/aidanlsb/moodb/internal/ui"
)

var attachFile string

var attachCmd = &cobra.Command{
	Use:   "attach <id> <key> <source-file>",
	Short: "Attach a verb or function from a source file",
	Long: `Read a source file and store it as a property of an object.

A first line of the form

  // verb: <pattern>; <dobjarg>; <preparg>; <iobjarg>

makes the property a verb; anything else makes it a function. The source is
copied into the object's directory as <key>.js unless --file names another
file.

Examples:
  moodb attach kitchen look ./look.js
  moodb attach lamp describe ./describe.js --file lamp-describe.js`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		return runAttach(s, args[0], args[1], args[2], attachFile)
	},
}

func runAttach(s *store, id, key, sourcePath, file string) error {
	if file == "" {
		file = paths.DefaultCallableFile(key)
	}
	if !paths.ValidCallableFile(file) {
		return handleErrorMsg(ErrInvalidInput,
			fmt.Sprintf("invalid file name %q", file),
			"Use a plain file name ending in "+paths.CodeExt)
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return handleError(ErrFileReadError, err, "")
	}

	value := s.codec.Parse(file, string(source))
	if err := s.cache.SetProperty(id, key, value); err != nil {
		return handleStoreError(err)
	}

	kind := "function"
	if _, ok := value.(*model.Verb); ok {
		kind = "verb"
	}
	if jsonOutput {
		outputSuccess(map[string]any{"id": id, "key": key, "kind": kind, "file": file}, nil, nil)
		return nil
	}
	fmt.Fprintln(stdout, ui.Successf("Attached %s %s.%s (%s)", kind, ui.ObjectID(id), key, ui.Hint(paths.CallablePath(id, file))))
	return nil
}

func init() {
	attachCmd.Flags().StringVar(&attachFile, "file", "", "File name inside the object directory (default: <key>.js)")
	rootCmd.AddCommand(attachCmd)
}
