package wiki

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevantFiltersEvents(t *testing.T) {
	cases := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"markdown write", fsnotify.Event{Name: "guides/retry.md", Op: fsnotify.Write}, true},
		{"markdown create", fsnotify.Event{Name: "new.md", Op: fsnotify.Create}, true},
		{"markdown remove", fsnotify.Event{Name: "old.md", Op: fsnotify.Remove}, true},
		{"markdown rename", fsnotify.Event{Name: "moved.md", Op: fsnotify.Rename}, true},
		{"markdown chmod only", fsnotify.Event{Name: "perm.md", Op: fsnotify.Chmod}, false},
		{"non-markdown write", fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}, false},
		{"editor swap file", fsnotify.Event{Name: ".retry.md.swp", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, relevant(tc.event))
		})
	}
}

func TestWatcherStartStop(t *testing.T) {
	w := NewWatcher(t.TempDir(), func(context.Context) {}, nil)

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	// Stop is idempotent.
	w.Stop()
}

func TestWatcherRescansOnCategoryDirectoryEdit(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "guides"), 0o755))

	var calls atomic.Int32
	w := NewWatcher(root, func(context.Context) { calls.Add(1) }, nil)
	w.debounce = 10 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	doc := filepath.Join(root, "guides", "retry.md")
	require.NoError(t, os.WriteFile(doc, []byte("# Retry\n"), 0o644))

	require.Eventually(t, func() bool { return calls.Load() > 0 },
		5*time.Second, 10*time.Millisecond,
		"edit inside a category directory must trigger a rescan")
}

func TestWatcherPicksUpDirectoriesCreatedLater(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int32
	w := NewWatcher(root, func(context.Context) { calls.Add(1) }, nil)
	w.debounce = 10 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// A directory appearing under the root schedules a rescan on its own; it
	// may have been moved in with documents already inside.
	require.NoError(t, os.Mkdir(filepath.Join(root, "runbooks"), 0o755))

	require.Eventually(t, func() bool { return calls.Load() > 0 },
		5*time.Second, 10*time.Millisecond)
}
