package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/moodb/internal/config"
	"github.com/aidanlsb/moodb/internal/ui"
)

var (
	configSetRoot      string
	configSetDebounce  time.Duration
	configSetLogLevel  string
	configSetLogFormat string
	configSetAudit     bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the moodb config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, path, exists, err := loadConfigAllowMissing()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		data := configData(c, path, exists)
		if jsonOutput {
			outputSuccess(data, nil, nil)
			return nil
		}
		fmt.Fprintln(stdout, ui.Header(path))
		if !exists {
			fmt.Fprintln(stdout, ui.Hint("(file does not exist; showing defaults)"))
		}
		for _, key := range []string{"root", "debounce", "log_level", "log_format", "audit"} {
			fmt.Fprintf(stdout, "%s = %v\n", key, data[key])
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented config file if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(configPath) != "" {
			return handleErrorMsg(ErrInvalidInput, "config init always writes the default path", "Drop --config")
		}
		path, err := config.CreateDefault()
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if jsonOutput {
			outputSuccess(map[string]any{"path": path}, nil, nil)
			return nil
		}
		fmt.Fprintln(stdout, ui.Successf("Config at %s", path))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set config values",
	Long: `Set one or more config values and write the file.

Examples:
  moodb config set --root ~/worlds/castle
  moodb config set --debounce 250ms --log-format json --audit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, path, _, err := loadConfigAllowMissing()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		flags := cmd.Flags()
		changed := false
		if flags.Changed("root") {
			c.Root, changed = configSetRoot, true
		}
		if flags.Changed("debounce") {
			c.Debounce.Duration, changed = configSetDebounce, true
		}
		if flags.Changed("log-level") {
			c.LogLevel, changed = configSetLogLevel, true
		}
		if flags.Changed("log-format") {
			c.LogFormat, changed = configSetLogFormat, true
		}
		if flags.Changed("audit") {
			c.Audit, changed = configSetAudit, true
		}
		if !changed {
			return handleErrorMsg(ErrInvalidInput, "nothing to set", "Pass at least one flag, e.g. --root")
		}
		if err := c.Validate(); err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		if err := config.SaveTo(path, c); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if jsonOutput {
			outputSuccess(configData(c, path, true), nil, nil)
			return nil
		}
		fmt.Fprintln(stdout, ui.Successf("Updated %s", path))
		return nil
	},
}

func loadConfigAllowMissing() (*config.Config, string, bool, error) {
	path := configHint()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Default(), path, false, nil
	}
	c, err := config.LoadFrom(path)
	if err != nil {
		return nil, path, true, err
	}
	return c, path, true, nil
}

func configData(c *config.Config, path string, exists bool) map[string]any {
	return map[string]any{
		"path":       path,
		"exists":     exists,
		"root":       c.Root,
		"debounce":   c.Debounce.String(),
		"log_level":  c.LogLevel,
		"log_format": c.LogFormat,
		"audit":      c.Audit,
	}
}

func init() {
	configSetCmd.Flags().StringVar(&configSetRoot, "root", "", "Store directory")
	configSetCmd.Flags().DurationVar(&configSetDebounce, "debounce", config.DefaultDebounce, "Watcher debounce delay")
	configSetCmd.Flags().StringVar(&configSetLogLevel, "log-level", "", "debug, info, warn or error")
	configSetCmd.Flags().StringVar(&configSetLogFormat, "log-format", "", "console or json")
	configSetCmd.Flags().BoolVar(&configSetAudit, "audit", false, "Record changes in <root>/.moodb/audit.log")

	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
