package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidanlsb/moodb/internal/fsdb"
	"github.com/aidanlsb/moodb/internal/reconcile"
	"github.com/aidanlsb/moodb/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow external changes to the store",
	Long: `Load every object, then keep the in-memory store in step with edits made
to its files until interrupted. Objects that appear or disappear are printed
as they happen.

With --json, each event is one JSON object per line:
  {"kind":"object-added","id":"kitchen"}

Examples:
  moodb watch
  moodb watch --json | jq .id`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCurrentStore()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, s, cfg.Debounce.Duration, nil)
	},
}

// runWatch blocks until ctx is cancelled. ready, if non-nil, is closed once
// the watcher is in place.
func runWatch(ctx context.Context, s *store, debounce time.Duration, ready chan<- struct{}) error {
	ctrl, err := reconcile.New(reconcile.Config{
		Cache:  s.cache,
		Sink:   s.sink,
		Logger: s.logger,
		Audit:  s.audit,
		Failed: s.failedIDs(),
	})
	if err != nil {
		return handleError(ErrInternal, err, "")
	}
	watcher, err := fsdb.NewWatcher(fsdb.WatcherConfig{
		Root:          s.root,
		DebounceDelay: debounce,
		Logger:        s.logger,
	})
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	enc := json.NewEncoder(stdout)
	cancel := ctrl.Subscribe(func(ev reconcile.Event) {
		if jsonOutput {
			_ = enc.Encode(ev)
			return
		}
		fmt.Fprintln(stdout, ui.Event(ev.Kind.String(), ev.ID))
	})
	defer cancel()

	if !jsonOutput {
		printWarnings(s.loadWarnings())
		fmt.Fprintf(stderr, "Watching %s %s\n", ui.ObjectID(s.root), ui.Hint("("+ui.Count(s.cache.Len(), "object", "objects")+")"))
	}
	// From here on failures are only logged.
	s.failures.Stop()
	if ready != nil {
		go func() {
			select {
			case <-watcher.Ready():
				close(ready)
			case <-ctx.Done():
			}
		}()
	}

	err = ctrl.Run(ctx, watcher)
	if errors.Is(err, context.Canceled) {
		s.logger.Debug("watch stopped")
		return nil
	}
	if err != nil {
		s.logger.Error("watch failed", zap.Error(err))
		return handleError(ErrInternal, err, "")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
