// Package index holds hubd's persisted data model and the index builder.
//
// The Index is a point-in-time snapshot of repository metadata plus the
// curated wiki documents. Snapshots are immutable once published: writers
// build a complete new Index and install it in one atomic swap, so readers
// always observe a consistent view.
package index

import (
	"time"

	"github.com/fyrsmithlabs/hubd/internal/wiki"
)

// SchemaVersion identifies the on-disk index layout. A cached index with a
// different version is discarded rather than partially trusted.
const SchemaVersion = "2"

// Index is the combined snapshot of repository metadata and curated
// documents, the unit of cache persistence.
type Index struct {
	Version       string          `json:"version"`
	LastFullIndex time.Time       `json:"last_full_index"`
	Repositories  []RepoRecord    `json:"repositories"`
	Documents     []wiki.Document `json:"documents"`
}

// RepoRecord is extracted metadata describing one discovered repository.
// Path is the identity key for merge/update operations; Name is the display
// and lookup key (assumed unique within one index, not enforced).
type RepoRecord struct {
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	RemoteURL      string    `json:"remote_url,omitempty"`
	Branch         string    `json:"branch,omitempty"`
	LastCommit     string    `json:"last_commit,omitempty"`
	LastCommitTime time.Time `json:"last_commit_time,omitempty"`
	LastIndexed    time.Time `json:"last_indexed"`
	Languages      []string  `json:"languages,omitempty"`
	FileCount      int       `json:"file_count"`
	HasReadme      bool      `json:"has_readme"`
	Description    string    `json:"description,omitempty"`
}

// RepoByName looks up a repository record by display name.
func (ix *Index) RepoByName(name string) (RepoRecord, bool) {
	if ix == nil {
		return RepoRecord{}, false
	}
	for _, r := range ix.Repositories {
		if r.Name == name {
			return r, true
		}
	}
	return RepoRecord{}, false
}

// RepoPaths returns the local paths of all indexed repositories.
func (ix *Index) RepoPaths() []string {
	if ix == nil {
		return nil
	}
	paths := make([]string, 0, len(ix.Repositories))
	for _, r := range ix.Repositories {
		paths = append(paths, r.Path)
	}
	return paths
}

// SyncStatus enumerates per-repository reconciliation outcomes.
type SyncStatus string

const (
	StatusSynced SyncStatus = "synced"
	StatusBehind SyncStatus = "behind"
	StatusError  SyncStatus = "error"
	StatusNew    SyncStatus = "new"
)

// RepoSync describes the outcome of the last reconciliation attempt for one
// repository. A record is only replaced after a pull or clone attempt
// completes; it is never left half-written.
type RepoSync struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	LastPull   time.Time  `json:"last_pull,omitempty"`
	LastCommit string     `json:"last_commit,omitempty"`
	Status     SyncStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
}

// SyncState is the separately persisted reconciliation state, keyed by
// repository display name.
type SyncState struct {
	Repos       map[string]RepoSync `json:"repos"`
	LastFull    time.Time           `json:"last_full_sync,omitempty"`
	LastAPICall time.Time           `json:"last_api_call,omitempty"`
}

// NewSyncState returns an empty, usable sync state.
func NewSyncState() *SyncState {
	return &SyncState{Repos: make(map[string]RepoSync)}
}
