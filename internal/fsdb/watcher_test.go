package fsdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestScheduleCoalesces(t *testing.T) {
	tests := []struct {
		name string
		ops  []Op
		want Op
	}{
		{"single add", []Op{Added}, Added},
		{"add then change", []Op{Added, Changed}, Added},
		{"change then add", []Op{Changed, Added}, Added},
		{"remove then add", []Op{Removed, Added}, Changed},
		{"remove then change", []Op{Removed, Changed}, Changed},
		{"add then remove", []Op{Added, Removed}, Removed},
		{"change then remove", []Op{Changed, Removed}, Removed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWatcher(WatcherConfig{Root: t.TempDir(), DebounceDelay: time.Millisecond})
			require.NoError(t, err)

			for _, op := range tt.ops {
				w.schedule("kitchen/kitchen.json", op)
			}
			got := w.takeReady(time.Now().Add(time.Second))
			assert.Equal(t, []Change{{Op: tt.want, Path: "kitchen/kitchen.json"}}, got)
		})
	}
}

func TestTakeReadyRespectsDebounce(t *testing.T) {
	w, err := NewWatcher(WatcherConfig{Root: t.TempDir(), DebounceDelay: time.Hour})
	require.NoError(t, err)

	w.schedule("kitchen/look.js", Changed)
	assert.Empty(t, w.takeReady(time.Now()))
	assert.Len(t, w.takeReady(time.Now().Add(2*time.Hour)), 1)
	assert.Empty(t, w.takeReady(time.Now().Add(2*time.Hour)))
}

func TestNewWatcherRequiresRoot(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{})
	assert.Error(t, err)
}

func TestWatcherReportsChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	db, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, db.Write("kitchen/kitchen.json", `{"name":"Kitchen"}`))

	w, err := NewWatcher(WatcherConfig{Root: root, DebounceDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	changes := make(chan Change, 64)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx, func(c Change) { changes <- c })
	}()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}

	require.NoError(t, db.Write("kitchen/look.js", "return 1;"))
	waitFor(t, changes, Change{Op: Added, Path: "kitchen/look.js"})

	require.NoError(t, os.Remove(filepath.Join(root, "kitchen", "look.js")))
	waitFor(t, changes, Change{Op: Removed, Path: "kitchen/look.js"})

	// A new object directory is picked up along with its files.
	require.NoError(t, db.Write("hall/hall.json", `{"name":"Hall"}`))
	waitFor(t, changes, Change{Op: Added, Path: "hall/hall.json"})

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherReportsDirectoryMovedAway(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	db, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, db.Write("kitchen/kitchen.json", `{"name":"Kitchen"}`))
	require.NoError(t, db.Write("kitchen/look.js", "return 1;"))

	w, err := NewWatcher(WatcherConfig{Root: root, DebounceDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	changes := make(chan Change, 64)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx, func(c Change) { changes <- c })
	}()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher never became ready")
	}

	elsewhere := filepath.Join(t.TempDir(), "kitchen")
	require.NoError(t, os.Rename(filepath.Join(root, "kitchen"), elsewhere))

	waitFor(t, changes, Change{Op: Removed, Path: "kitchen/kitchen.json"})
	waitFor(t, changes, Change{Op: Removed, Path: "kitchen/look.js"})

	// Edits in the moved directory are no longer reported under the old name.
	require.NoError(t, os.WriteFile(filepath.Join(elsewhere, "look.js"), []byte("return 2;"), 0o644))
	select {
	case c := <-changes:
		t.Errorf("unexpected change after move: %v %s", c.Op, c.Path)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestDropDirOrdersDescriptorFirst(t *testing.T) {
	w, err := NewWatcher(WatcherConfig{Root: t.TempDir(), DebounceDelay: time.Millisecond})
	require.NoError(t, err)
	fsw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fsw.Close()
	w.fsWatcher = fsw

	w.dirs["kitchen"] = struct{}{}
	w.files["kitchen/a.js"] = struct{}{}
	w.files["kitchen/look.js"] = struct{}{}
	w.files["hall/hall.json"] = struct{}{}

	w.dropDir("kitchen")

	got := w.takeReady(time.Now().Add(time.Second))
	assert.Equal(t, []Change{
		{Op: Removed, Path: "kitchen/kitchen.json"},
		{Op: Removed, Path: "kitchen/a.js"},
		{Op: Removed, Path: "kitchen/look.js"},
	}, got)
	assert.NotContains(t, w.dirs, "kitchen")
	assert.Contains(t, w.files, "hall/hall.json")
	assert.NotContains(t, w.files, "kitchen/look.js")
}

func waitFor(t *testing.T, changes <-chan Change, want Change) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			if c == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %v %s", want.Op, want.Path)
		}
	}
}
