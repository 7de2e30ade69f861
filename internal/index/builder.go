package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/config"
	"github.com/fyrsmithlabs/hubd/internal/gitops"
	"github.com/fyrsmithlabs/hubd/internal/logging"
	"github.com/fyrsmithlabs/hubd/internal/wiki"
)

const (
	// languageDepth bounds extension sniffing below a repository root.
	languageDepth = 2

	// fileCountDepth bounds the approximate source-file count walk.
	fileCountDepth = 3

	// descriptionLimit truncates derived one-line descriptions.
	descriptionLimit = 200
)

// Saver persists a finished snapshot. Satisfied by cache.Store.
type Saver interface {
	Save(*Index) error
}

// Builder discovers repositories, extracts per-repo metadata, merges in the
// wiki collection, and publishes immutable index snapshots.
//
// Builds are single-flight: a build already in progress causes a concurrent
// call to return the current (possibly stale) snapshot immediately. This is
// a coarse boolean guard, not a queue; rebuild triggers are low-frequency.
type Builder struct {
	cfg      config.SourcesConfig
	wikiRoot string
	git      *gitops.Client
	saver    Saver
	logger   *logging.Logger

	mu       sync.Mutex
	building bool
	current  atomic.Pointer[Index]
	metrics  *Metrics
}

// NewBuilder creates a builder. saver may be nil (snapshots stay in memory).
func NewBuilder(cfg config.SourcesConfig, wikiRoot string, git *gitops.Client, saver Saver, logger *logging.Logger) *Builder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Builder{
		cfg:      cfg,
		wikiRoot: wikiRoot,
		git:      git,
		saver:    saver,
		logger:   logger.Named("index"),
		metrics:  NewMetrics(),
	}
}

// Current returns the installed snapshot, which may be nil before the first
// build or cache load.
func (b *Builder) Current() *Index {
	return b.current.Load()
}

// Install publishes a snapshot without building, used to seed the builder
// from the cache at startup.
func (b *Builder) Install(ix *Index) {
	b.current.Store(ix)
}

// BuildFull scans all configured source directories and publishes a new
// snapshot. The snapshot fully replaces the previous one.
func (b *Builder) BuildFull(ctx context.Context) *Index {
	b.mu.Lock()
	if b.building {
		b.mu.Unlock()
		b.logger.Debug(ctx, "build already in progress, returning current snapshot")
		return b.current.Load()
	}
	b.building = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.building = false
		b.mu.Unlock()
	}()

	start := time.Now()
	var repos []RepoRecord
	for _, path := range b.discover(ctx) {
		record, err := b.extract(ctx, path)
		if err != nil {
			// One repository's failure never aborts the build.
			b.logger.Warn(ctx, "skipping repository", zap.String("path", path), zap.Error(err))
			continue
		}
		repos = append(repos, record)
	}

	docs, err := wiki.Scan(b.wikiRoot)
	if err != nil {
		b.logger.Warn(ctx, "wiki scan failed", zap.String("root", b.wikiRoot), zap.Error(err))
		docs = []wiki.Document{}
	}

	ix := &Index{
		Version:       SchemaVersion,
		LastFullIndex: time.Now(),
		Repositories:  repos,
		Documents:     docs,
	}
	b.current.Store(ix)
	b.persist(ctx, ix)
	b.writeLocationsReport(ctx, ix)

	b.metrics.BuildsTotal.Inc()
	b.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	b.logger.Info(ctx, "full index built",
		zap.Int("repositories", len(repos)),
		zap.Int("documents", len(docs)),
		zap.Duration("elapsed", time.Since(start)))
	return ix
}

// UpdateOne re-extracts metadata for a single repository and replaces or
// appends its record by path in a copied snapshot.
func (b *Builder) UpdateOne(ctx context.Context, repoPath string) error {
	record, err := b.extract(ctx, repoPath)
	if err != nil {
		return err
	}

	cur := b.current.Load()
	next := &Index{Version: SchemaVersion}
	if cur != nil {
		next.LastFullIndex = cur.LastFullIndex
		next.Repositories = append([]RepoRecord(nil), cur.Repositories...)
		next.Documents = cur.Documents
	}

	replaced := false
	for i, r := range next.Repositories {
		if r.Path == record.Path {
			next.Repositories[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		next.Repositories = append(next.Repositories, record)
	}

	b.current.Store(next)
	b.persist(ctx, next)
	return nil
}

// RefreshDocuments rescans the wiki collection into a copied snapshot.
// Called by the wiki watcher so edits show up without a full rebuild.
func (b *Builder) RefreshDocuments(ctx context.Context) {
	docs, err := wiki.Scan(b.wikiRoot)
	if err != nil {
		b.logger.Warn(ctx, "wiki rescan failed", zap.Error(err))
		return
	}

	cur := b.current.Load()
	next := &Index{Version: SchemaVersion, Documents: docs}
	if cur != nil {
		next.LastFullIndex = cur.LastFullIndex
		next.Repositories = cur.Repositories
	}
	b.current.Store(next)
	b.persist(ctx, next)
	b.logger.Info(ctx, "wiki documents refreshed", zap.Int("documents", len(docs)))
}

// discover returns candidate repository paths: each source directory itself
// when it contains version-control metadata, plus its immediate children.
// The configured self segment is always excluded so the indexer never
// indexes its own deployment.
func (b *Builder) discover(ctx context.Context) []string {
	seen := make(map[string]bool)
	var paths []string

	add := func(path string) {
		if b.excluded(path) || seen[path] {
			return
		}
		if gitops.IsRepo(path) {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	for _, dir := range b.cfg.Dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			b.logger.Warn(ctx, "unresolvable source directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		add(abs)

		entries, err := os.ReadDir(abs)
		if err != nil {
			b.logger.Warn(ctx, "unreadable source directory", zap.String("dir", abs), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			add(filepath.Join(abs, e.Name()))
		}
	}
	return paths
}

func (b *Builder) excluded(path string) bool {
	if b.cfg.ExcludeSegment == "" {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == b.cfg.ExcludeSegment {
			return true
		}
	}
	return false
}

// extract reads one repository's metadata.
func (b *Builder) extract(ctx context.Context, path string) (RepoRecord, error) {
	if !gitops.IsRepo(path) {
		return RepoRecord{}, gitops.ErrNotRepo
	}

	record := RepoRecord{
		Name:        filepath.Base(path),
		Path:        path,
		LastIndexed: time.Now(),
	}

	if url, err := b.git.RemoteURL(path); err == nil {
		record.RemoteURL = url
	} else {
		b.logger.Debug(ctx, "no remote url", zap.String("path", path), zap.Error(err))
	}

	if commit, err := b.git.LastCommit(path); err == nil {
		record.LastCommit = commit.SHA
		record.LastCommitTime = commit.When
	} else {
		b.logger.Debug(ctx, "no head commit", zap.String("path", path), zap.Error(err))
	}

	if branch, err := gitops.DetectBranch(path); err == nil {
		record.Branch = branch
	}

	langs := make(map[string]bool)
	if err := walkDepth(path, languageDepth, func(file string) {
		if lang, ok := LanguageForExt(filepath.Ext(file)); ok {
			langs[lang] = true
		}
	}); err != nil {
		return RepoRecord{}, err
	}
	for lang := range langs {
		record.Languages = append(record.Languages, lang)
	}
	sort.Strings(record.Languages)

	count := 0
	if err := walkDepth(path, fileCountDepth, func(string) { count++ }); err != nil {
		return RepoRecord{}, err
	}
	record.FileCount = count

	readme := readmePath(path)
	record.HasReadme = readme != ""
	record.Description = describe(path, readme)

	return record, nil
}

// persist saves a snapshot; failures are logged and swallowed because the
// in-memory snapshot stays authoritative for the running process.
func (b *Builder) persist(ctx context.Context, ix *Index) {
	if b.saver == nil {
		return
	}
	if err := b.saver.Save(ix); err != nil {
		b.logger.Error(ctx, "failed to persist index", zap.Error(err))
	}
}

// walkDepth visits files up to depth levels below root, skipping hidden and
// well-known build/dependency directories.
func walkDepth(root string, depth int, visit func(string)) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if depth <= 1 || skipDirs[name] || strings.HasPrefix(name, ".") {
				continue
			}
			// Subtree errors are tolerated; partial counts are acceptable.
			_ = walkDepth(filepath.Join(root, name), depth-1, visit)
			continue
		}
		visit(name)
	}
	return nil
}

// readmePath finds a readme directly under the repository root.
func readmePath(repo string) string {
	for _, name := range []string{"README.md", "README", "readme.md", "Readme.md", "README.rst", "README.txt"} {
		p := filepath.Join(repo, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// describe derives a one-line description: a package manifest's description
// field wins, else the first readme line that is not a heading, image, or
// link. Truncated to descriptionLimit.
func describe(repo, readme string) string {
	if desc := manifestDescription(repo); desc != "" {
		return truncate(desc, descriptionLimit)
	}
	if readme == "" {
		return ""
	}
	content, err := os.ReadFile(readme)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" ||
			strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "![") ||
			strings.HasPrefix(line, "[") {
			continue
		}
		return truncate(line, descriptionLimit)
	}
	return ""
}

// manifestDescription reads the description field of a package.json, if any.
func manifestDescription(repo string) string {
	content, err := os.ReadFile(filepath.Join(repo, "package.json"))
	if err != nil {
		return ""
	}
	var manifest struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(content, &manifest); err != nil {
		return ""
	}
	return strings.TrimSpace(manifest.Description)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
