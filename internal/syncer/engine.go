// Package syncer reconciles local repositories against the remote list.
//
// One reconciliation cycle fetches the authoritative remote repository list
// (when credentials are configured), pulls repositories that are behind,
// clones repositories that only exist remotely, and persists per-repository
// sync records. A cycle never throws past SyncNow: failures land in the
// report's error list and the accumulated state is persisted regardless.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/config"
	"github.com/fyrsmithlabs/hubd/internal/github"
	"github.com/fyrsmithlabs/hubd/internal/gitops"
	"github.com/fyrsmithlabs/hubd/internal/index"
	"github.com/fyrsmithlabs/hubd/internal/logging"
)

// ErrSyncInProgress rejects a second concurrent SyncNow call. Cycles fail
// fast instead of queuing.
var ErrSyncInProgress = errors.New("sync already in progress")

// ReportError is one (repo, message) failure entry. Repo is empty for
// cycle-level failures.
type ReportError struct {
	Repo    string `json:"repo"`
	Message string `json:"message"`
}

// Report aggregates one reconciliation cycle.
type Report struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	ReposChecked int           `json:"repos_checked"`
	ReposPulled  int           `json:"repos_pulled"`
	ReposCloned  int           `json:"repos_cloned"`
	Errors       []ReportError `json:"errors,omitempty"`
}

// GitOps is the slice of gitops.Client the engine uses.
type GitOps interface {
	Fetch(ctx context.Context, path string) error
	Status(path string) (gitops.Status, error)
	Pull(ctx context.Context, path string) (bool, error)
	Clone(ctx context.Context, url, dest string) error
	LastCommit(path string) (gitops.Commit, error)
}

// RemoteLister fetches the remote repository list. Satisfied by
// github.Client; nil disables remote reconciliation.
type RemoteLister interface {
	ListOwnedRepos(ctx context.Context) ([]github.Repo, error)
}

// Indexer is the slice of index.Builder the engine uses.
type Indexer interface {
	Current() *index.Index
	UpdateOne(ctx context.Context, repoPath string) error
}

// StateStore persists sync state. Satisfied by cache.Store.
type StateStore interface {
	LoadSyncState() *index.SyncState
	SaveSyncState(*index.SyncState) error
}

// Engine runs reconciliation cycles.
type Engine struct {
	cfg     config.Config
	git     GitOps
	remote  RemoteLister
	indexer Indexer
	store   StateStore
	logger  *logging.Logger
	metrics *Metrics

	running chan struct{} // 1-slot token; empty means a cycle is running
}

// NewEngine creates a sync engine. remote may be nil when no credentials are
// configured; the engine then only refreshes local repositories.
func NewEngine(cfg config.Config, git GitOps, remote RemoteLister, indexer Indexer, store StateStore, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	e := &Engine{
		cfg:     cfg,
		git:     git,
		remote:  remote,
		indexer: indexer,
		store:   store,
		logger:  logger.Named("syncer"),
		metrics: NewMetrics(),
		running: make(chan struct{}, 1),
	}
	e.running <- struct{}{}
	return e
}

// SyncNow runs one reconciliation cycle. A concurrent call fails fast with
// ErrSyncInProgress instead of queuing.
func (e *Engine) SyncNow(ctx context.Context, force bool) (*Report, error) {
	select {
	case <-e.running:
	default:
		return nil, ErrSyncInProgress
	}
	defer func() { e.running <- struct{}{} }()

	start := time.Now()
	report := &Report{
		ID:        uuid.NewString(),
		Timestamp: start,
	}
	ctx = logging.WithRequestID(ctx, report.ID)
	state := e.store.LoadSyncState()

	func() {
		defer func() {
			if r := recover(); r != nil {
				msg := fmt.Sprintf("cycle panic: %v", r)
				e.logger.Error(ctx, "sync cycle panicked", zap.String("panic", msg))
				report.Errors = append(report.Errors, ReportError{Message: msg})
			}
		}()
		e.runCycle(ctx, force, state, report)
	}()

	// Persist regardless of whether any repository changed.
	state.LastFull = time.Now()
	if err := e.store.SaveSyncState(state); err != nil {
		e.logger.Error(ctx, "failed to persist sync state", zap.Error(err))
	}

	e.metrics.CyclesTotal.Inc()
	e.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	e.metrics.ReposPulledTotal.Add(float64(report.ReposPulled))
	e.metrics.ReposClonedTotal.Add(float64(report.ReposCloned))
	e.metrics.ErrorsTotal.Add(float64(len(report.Errors)))

	e.logger.Info(ctx, "sync cycle complete",
		zap.Int("checked", report.ReposChecked),
		zap.Int("pulled", report.ReposPulled),
		zap.Int("cloned", report.ReposCloned),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// runCycle executes the fixed cycle order: remote list, local
// reconciliation, then new-repo cloning.
func (e *Engine) runCycle(ctx context.Context, force bool, state *index.SyncState, report *Report) {
	var remoteRepos []github.Repo
	if e.remote != nil {
		repos, err := e.remote.ListOwnedRepos(ctx)
		state.LastAPICall = time.Now()
		if err != nil {
			e.logger.Warn(ctx, "remote list failed, local-only cycle", zap.Error(err))
			report.Errors = append(report.Errors, ReportError{Message: fmt.Sprintf("remote list: %v", err)})
		} else {
			remoteRepos = repos
		}
	}

	local := e.localRepos()
	for _, record := range local {
		report.ReposChecked++
		e.reconcileLocal(ctx, force, record, state, report)
	}

	for _, remote := range remoteRepos {
		if _, ok := local[remote.Name]; ok {
			continue
		}
		e.cloneNew(ctx, remote, state, report)
	}
}

// localRepos maps the installed index's repositories by display name.
func (e *Engine) localRepos() map[string]index.RepoRecord {
	out := make(map[string]index.RepoRecord)
	snapshot := e.indexer.Current()
	if snapshot == nil {
		return out
	}
	for _, r := range snapshot.Repositories {
		out[r.Name] = r
	}
	return out
}

// reconcileLocal fetches and, when behind or forced, pulls one repository.
//
// A fetch failure skips the repository for this cycle without touching its
// prior sync record: a transient network hiccup is not an error state. Sync
// records are only replaced after a pull attempt completes.
func (e *Engine) reconcileLocal(ctx context.Context, force bool, record index.RepoRecord, state *index.SyncState, report *Report) {
	if err := e.git.Fetch(ctx, record.Path); err != nil {
		e.logger.Warn(ctx, "fetch failed, skipping repository",
			zap.String("repo", record.Name), zap.Error(err))
		return
	}

	status, err := e.git.Status(record.Path)
	if err != nil {
		e.logger.Warn(ctx, "status failed, skipping repository",
			zap.String("repo", record.Name), zap.Error(err))
		return
	}

	if status.Behind < 1 && !force {
		return
	}

	changed, err := e.git.Pull(ctx, record.Path)
	if err != nil {
		state.Repos[record.Name] = index.RepoSync{
			Name:       record.Name,
			Path:       record.Path,
			LastCommit: record.LastCommit,
			Status:     index.StatusError,
			Error:      err.Error(),
		}
		report.Errors = append(report.Errors, ReportError{Repo: record.Name, Message: err.Error()})
		return
	}

	sha := record.LastCommit
	if commit, err := e.git.LastCommit(record.Path); err == nil {
		sha = commit.SHA
	}

	if changed {
		report.ReposPulled++
		if err := e.indexer.UpdateOne(ctx, record.Path); err != nil {
			e.logger.Warn(ctx, "incremental index update failed",
				zap.String("repo", record.Name), zap.Error(err))
		}
	}

	state.Repos[record.Name] = index.RepoSync{
		Name:       record.Name,
		Path:       record.Path,
		LastPull:   time.Now(),
		LastCommit: sha,
		Status:     index.StatusSynced,
	}
}

// cloneNew clones a remote-only repository into the first source directory.
// A failed clone lands in the report only; no local stub entry is created.
func (e *Engine) cloneNew(ctx context.Context, remote github.Repo, state *index.SyncState, report *Report) {
	if len(e.cfg.Sources.Dirs) == 0 {
		report.Errors = append(report.Errors, ReportError{Repo: remote.Name, Message: "no source directory configured for clone"})
		return
	}
	dest := filepath.Join(e.cfg.Sources.Dirs[0], remote.Name)
	url := github.CloneURLFor(remote, e.cfg.GitHub.Token)

	if err := e.git.Clone(ctx, url, dest); err != nil {
		report.Errors = append(report.Errors, ReportError{Repo: remote.Name, Message: err.Error()})
		return
	}

	report.ReposCloned++
	if err := e.indexer.UpdateOne(ctx, dest); err != nil {
		e.logger.Warn(ctx, "indexing cloned repository failed",
			zap.String("repo", remote.Name), zap.Error(err))
	}

	// No local history check has run yet, so the commit SHA stays empty.
	state.Repos[remote.Name] = index.RepoSync{
		Name:     remote.Name,
		Path:     dest,
		LastPull: time.Now(),
		Status:   index.StatusSynced,
	}
}
