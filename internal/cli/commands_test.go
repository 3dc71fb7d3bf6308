package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/testutil"
	"github.com/aidanlsb/moodb/internal/ui"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine to write to
// while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureOutput redirects command output for the test and sets JSON mode.
func captureOutput(t *testing.T, asJSON bool) *syncBuffer {
	t.Helper()
	out := &syncBuffer{}
	prevOut, prevErr, prevJSON := stdout, stderr, jsonOutput
	t.Cleanup(func() {
		stdout, stderr, jsonOutput = prevOut, prevErr, prevJSON
		ui.SetColor(false)
	})
	stdout, stderr, jsonOutput = out, &syncBuffer{}, asJSON
	ui.SetColor(false)
	return out
}

func decodeResponse(t *testing.T, out *syncBuffer) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out.String()), &resp), out.String())
	return resp
}

func kitchenStore(t *testing.T) (*testutil.TestWorld, *store) {
	t.Helper()
	w := testutil.NewTestWorld(t).
		WithObject("kitchen", testutil.KitchenDescriptor).
		WithFile("kitchen/look.js", testutil.KitchenLook).
		WithObject("alice", `{"name":"Alice","locationId":"kitchen","userId":"u-1","properties":{}}`).
		Build()
	s, err := openStore(w.Path, false, zap.NewNop())
	require.NoError(t, err)
	return w, s
}

func TestList(t *testing.T) {
	_, s := kitchenStore(t)

	out := captureOutput(t, true)
	require.NoError(t, runList(s, false))
	resp := decodeResponse(t, out)
	assert.True(t, resp.OK)
	assert.Equal(t, map[string]any{"ids": []any{"alice", "kitchen"}}, resp.Data)
	assert.Equal(t, 2, resp.Meta.Count)

	out = captureOutput(t, false)
	require.NoError(t, runList(s, true))
	assert.Equal(t, "alice\n", out.String())
}

func TestListReportsLoadFailures(t *testing.T) {
	w := testutil.NewTestWorld(t).WithObject("broken", "nope").Build()
	s, err := openStore(w.Path, false, zap.NewNop())
	require.NoError(t, err)

	out := captureOutput(t, true)
	require.NoError(t, runList(s, false))
	resp := decodeResponse(t, out)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, WarnLoadFailed, resp.Warnings[0].Code)
	assert.Equal(t, "broken", resp.Warnings[0].ObjectID)
}

func TestShow(t *testing.T) {
	_, s := kitchenStore(t)

	t.Run("yaml", func(t *testing.T) {
		out := captureOutput(t, false)
		require.NoError(t, runShow(s, "kitchen"))
		text := out.String()
		assert.Contains(t, text, "name: Kitchen")
		assert.Contains(t, text, "pattern: look")
		assert.Contains(t, text, "A small kitchen.")
	})

	t.Run("json", func(t *testing.T) {
		out := captureOutput(t, true)
		require.NoError(t, runShow(s, "kitchen"))
		resp := decodeResponse(t, out)
		obj := resp.Data.(map[string]any)["object"].(map[string]any)
		look := obj["properties"].(map[string]any)["look"].(map[string]any)
		assert.Equal(t, true, look["verb"])
		assert.Equal(t, "none", look["dobjarg"])
	})

	t.Run("missing", func(t *testing.T) {
		out := captureOutput(t, true)
		require.NoError(t, runShow(s, "ghost"))
		resp := decodeResponse(t, out)
		assert.False(t, resp.OK)
		assert.Equal(t, ErrObjectNotFound, resp.Error.Code)
	})

	t.Run("missing text mode", func(t *testing.T) {
		captureOutput(t, false)
		assert.Error(t, runShow(s, "ghost"))
	})
}

func TestFind(t *testing.T) {
	_, s := kitchenStore(t)

	out := captureOutput(t, false)
	require.NoError(t, runFind(s, "locationId", "kitchen"))
	assert.Equal(t, "alice  Alice\n", out.String())

	out = captureOutput(t, true)
	require.NoError(t, runFind(s, "aliases", "kitchen"))
	resp := decodeResponse(t, out)
	assert.Equal(t, ErrInvalidInput, resp.Error.Code)
}

func TestNew(t *testing.T) {
	w, s := kitchenStore(t)

	out := captureOutput(t, true)
	require.NoError(t, runNew(s, newObjectInput{Name: "Kitchen", Aliases: []string{"galley"}}))
	resp := decodeResponse(t, out)
	require.True(t, resp.OK, out.String())
	assert.Equal(t, "kitchen-2", resp.Data.(map[string]any)["id"])
	w.AssertFileContains("kitchen-2/kitchen-2.json", `"galley"`)

	out = captureOutput(t, true)
	require.NoError(t, runNew(s, newObjectInput{Name: "Dup", ID: "kitchen"}))
	assert.Equal(t, ErrObjectExists, decodeResponse(t, out).Error.Code)

	out = captureOutput(t, true)
	require.NoError(t, runNew(s, newObjectInput{Name: "!!!"}))
	assert.Equal(t, ErrInvalidInput, decodeResponse(t, out).Error.Code)

	out = captureOutput(t, true)
	require.NoError(t, runNew(s, newObjectInput{Name: "Bad", ID: "a/b"}))
	assert.Equal(t, ErrValidationFailed, decodeResponse(t, out).Error.Code)
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"bread", "bread"},
		{`"quoted"`, "quoted"},
		{"true", true},
		{"2.5", 2.5},
		{"null", nil},
		{`["a", 1]`, []any{"a", 1.0}},
		{`{"label": "x"}`, map[string]any{"label": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseLiteral(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, model.Literal{Value: tt.want}, got)
		})
	}

	_, err := parseLiteral(`{"verb": false}`)
	assert.Error(t, err)
}

func TestSetAndUnset(t *testing.T) {
	w, s := kitchenStore(t)

	captureOutput(t, false)
	require.NoError(t, runSet(s, "kitchen", "smell", "bread"))
	w.AssertFileContains("kitchen/kitchen.json", `"smell": "bread"`)

	require.NoError(t, runUnset(s, "kitchen", "look"))
	w.AssertFileNotExists("kitchen/look.js")

	out := captureOutput(t, true)
	require.NoError(t, runUnset(s, "kitchen", "look"))
	assert.Equal(t, ErrPropertyNotFound, decodeResponse(t, out).Error.Code)

	out = captureOutput(t, true)
	require.NoError(t, runSet(s, "ghost", "smell", "bread"))
	assert.Equal(t, ErrObjectNotFound, decodeResponse(t, out).Error.Code)
}

func TestAttach(t *testing.T) {
	w, s := kitchenStore(t)
	dir := t.TempDir()
	verbSrc := filepath.Join(dir, "v.js")
	fnSrc := filepath.Join(dir, "f.js")
	require.NoError(t, os.WriteFile(verbSrc, []byte("//verb:sm*ell;none;none;none\nreturn 'Bread.';"), 0o644))
	require.NoError(t, os.WriteFile(fnSrc, []byte("return 42;"), 0o644))

	out := captureOutput(t, true)
	require.NoError(t, runAttach(s, "kitchen", "smell", verbSrc, ""))
	resp := decodeResponse(t, out)
	require.True(t, resp.OK, out.String())
	assert.Equal(t, "verb", resp.Data.(map[string]any)["kind"])
	// The descriptor line is written back normalized.
	w.AssertFileEquals("kitchen/smell.js", "// verb: sm*ell; none; none; none\nreturn 'Bread.';")

	out = captureOutput(t, true)
	require.NoError(t, runAttach(s, "kitchen", "answer", fnSrc, "the-answer.js"))
	assert.Equal(t, "function", decodeResponse(t, out).Data.(map[string]any)["kind"])
	w.AssertFileEquals("kitchen/the-answer.js", "return 42;")
	w.AssertFileContains("kitchen/kitchen.json", `"file": "the-answer.js"`)

	for _, bad := range []string{"../x.js", "x.txt", ".hidden.js"} {
		out = captureOutput(t, true)
		require.NoError(t, runAttach(s, "kitchen", "answer", fnSrc, bad))
		assert.Equal(t, ErrInvalidInput, decodeResponse(t, out).Error.Code, bad)
	}

	out = captureOutput(t, true)
	require.NoError(t, runAttach(s, "kitchen", "answer", filepath.Join(dir, "missing.js"), ""))
	assert.Equal(t, ErrFileReadError, decodeResponse(t, out).Error.Code)
}

func TestRemove(t *testing.T) {
	w, s := kitchenStore(t)

	out := captureOutput(t, false)
	require.NoError(t, runRemove(s, "kitchen"))
	assert.Equal(t, "✓ Removed kitchen\n", out.String())
	w.AssertFileNotExists("kitchen")

	out = captureOutput(t, true)
	require.NoError(t, runRemove(s, "kitchen"))
	assert.Equal(t, ErrObjectNotFound, decodeResponse(t, out).Error.Code)
}

func TestWatchPrintsEvents(t *testing.T) {
	w := testutil.NewTestWorld(t).Build()
	s, err := openStore(w.Path, false, zap.NewNop())
	require.NoError(t, err)

	out := captureOutput(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, s, 20*time.Millisecond, ready) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher never became ready")
	}

	w.WriteFile("hall/hall.json", `{"name":"Hall","properties":{}}`)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `{"kind":"object-added","id":"hall"}`)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchRetriesObjectsThatFailedAtStartup(t *testing.T) {
	w := testutil.NewTestWorld(t).
		WithObject("kitchen", testutil.KitchenDescriptor).
		Build()
	s, err := openStore(w.Path, false, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"kitchen"}, s.failedIDs())

	out := captureOutput(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, s, 20*time.Millisecond, ready) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher never became ready")
	}
	// Startup failures are not kept for the life of the watch.
	assert.Zero(t, s.failures.Len())

	w.WriteFile("kitchen/look.js", testutil.KitchenLook)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `{"kind":"object-added","id":"kitchen"}`)
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, s.cache.Has("kitchen"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, ErrObjectNotFound, codeFor(model.NotFound("x")))
	assert.Equal(t, ErrObjectExists, codeFor(model.Conflict("x")))
	assert.Equal(t, ErrParseError, codeFor(model.Parse("x", "x/x.json", nil)))
	assert.Equal(t, ErrInternal, codeFor(os.ErrClosed))
}
