// Package cache persists the index and sync state as versioned JSON
// documents on disk.
//
// Reads soft-fail: a missing, corrupt, or version-mismatched index is
// treated as absent so startup triggers a rebuild instead of crashing.
// Writes rewrite each file wholesale; the files are pretty-printed so they
// stay human-diffable.
package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/index"
	"github.com/fyrsmithlabs/hubd/internal/logging"
)

const (
	indexFile     = "index.json"
	syncStateFile = "sync-state.json"
)

// Store owns the serialized cache files. The index file is written by the
// index builder, the sync-state file by the sync engine; there is no
// cross-process locking, concurrent external mutation is unsupported.
type Store struct {
	dir    string
	logger *logging.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{dir: dir, logger: logger.Named("cache")}
}

// Load reads the cached index. A missing file, unreadable content, or a
// schema version mismatch all return (nil, nil); none of these are errors
// to the caller, they all mean "rebuild".
func (s *Store) Load() (*index.Index, error) {
	ctx := context.Background()
	path := filepath.Join(s.dir, indexFile)

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn(ctx, "unreadable index cache", zap.String("path", path), zap.Error(err))
		}
		return nil, nil
	}

	var ix index.Index
	if err := json.Unmarshal(content, &ix); err != nil {
		s.logger.Warn(ctx, "corrupt index cache, discarding", zap.String("path", path), zap.Error(err))
		return nil, nil
	}

	if ix.Version != index.SchemaVersion {
		s.logger.Info(ctx, "index cache version mismatch, discarding",
			zap.String("cached", ix.Version),
			zap.String("current", index.SchemaVersion))
		return nil, nil
	}

	return &ix, nil
}

// Save rewrites the index file wholesale.
func (s *Store) Save(ix *index.Index) error {
	return s.write(indexFile, ix)
}

// LoadSyncState reads the persisted sync state. It never fails: any read
// error yields an empty default.
func (s *Store) LoadSyncState() *index.SyncState {
	path := filepath.Join(s.dir, syncStateFile)

	content, err := os.ReadFile(path)
	if err != nil {
		return index.NewSyncState()
	}

	var state index.SyncState
	if err := json.Unmarshal(content, &state); err != nil {
		s.logger.Warn(context.Background(), "corrupt sync state, starting fresh",
			zap.String("path", path), zap.Error(err))
		return index.NewSyncState()
	}
	if state.Repos == nil {
		state.Repos = make(map[string]index.RepoSync)
	}
	return &state
}

// SaveSyncState rewrites the sync-state file wholesale.
func (s *Store) SaveSyncState(state *index.SyncState) error {
	return s.write(syncStateFile, state)
}

// IsStale reports whether the index needs a rebuild. An absent index is
// always stale; otherwise the index is stale iff its age exceeds maxAge.
func IsStale(ix *index.Index, maxAge time.Duration) bool {
	if ix == nil {
		return true
	}
	return time.Since(ix.LastFullIndex) > maxAge
}

// write marshals v and replaces the named file atomically (write to a temp
// file in the same directory, then rename).
func (s *Store) write(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
