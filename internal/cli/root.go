// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidanlsb/moodb/internal/config"
	"github.com/aidanlsb/moodb/internal/logging"
	"github.com/aidanlsb/moodb/internal/ui"
)

var (
	// Global flags
	rootPathFlag string
	configPath   string
	verbose      bool

	// Resolved values
	resolvedRoot string
	cfg          *config.Config
	logger       = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "moodb",
	Short: "moodb - a file-backed object store for text worlds",
	Long: `moodb keeps the objects of a text world (rooms, players, items) in
memory and on disk. Each object lives in its own directory under the store
root: <id>/<id>.json describes it, and every verb or function it carries is
a sibling source file.

Edits made to those files by hand or by other tools are picked up by
'moodb watch'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip store resolution for commands that don't need it
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && (cmd.Parent().Name() == "config" || cmd.Parent().Name() == "completion") {
			ui.SetColor(!jsonOutput && ui.ColorEnabled(os.Stdout.Fd()))
			return nil
		}

		var err error
		cfg, err = loadConfig()
		if err != nil {
			return failSetup(ErrConfigInvalid, err.Error(), "Check "+configHint())
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return failSetup(ErrConfigInvalid, err.Error(), "")
		}
		ui.SetColor(!jsonOutput && ui.ColorEnabled(os.Stdout.Fd()))

		resolvedRoot, err = cfg.ResolveRoot(rootPathFlag)
		if err != nil {
			return failSetup(ErrStoreNotSpecified, err.Error(),
				"Pass --root, set "+config.RootEnv+", or set root in "+configHint())
		}
		info, err := os.Stat(resolvedRoot)
		if err != nil || !info.IsDir() {
			return failSetup(ErrStoreNotFound, fmt.Sprintf("store not found: %s", resolvedRoot),
				"Create the directory first: mkdir -p "+resolvedRoot)
		}
		logger.Debug("resolved store", zap.String("root", resolvedRoot))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// errReported marks an error already written as a JSON envelope.
var errReported = errors.New("error reported")

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(stderr, ui.Error(err.Error()))
	}
	return err
}

// failSetup aborts the command before it runs. Unlike handleError it always
// returns a non-nil error so the command body is skipped.
func failSetup(code, message, suggestion string) error {
	if jsonOutput {
		outputError(code, message, suggestion)
		return errReported
	}
	if suggestion != "" {
		return fmt.Errorf("%s\n\n%s", message, suggestion)
	}
	return errors.New(message)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootPathFlag, "root", "", "Store directory (overrides $"+config.RootEnv+" and config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Log at debug level")
}

// getRoot returns the resolved store root.
func getRoot() string {
	return resolvedRoot
}

func loadConfig() (*config.Config, error) {
	if strings.TrimSpace(configPath) != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func configHint() string {
	if strings.TrimSpace(configPath) != "" {
		return configPath
	}
	return config.DefaultPath()
}
