// Package search scores and ranks query matches drawn from the wiki
// collection and from ripgrep over indexed repositories.
//
// The engine only reads the installed index snapshot, never mutates it; a
// search concurrent with a rebuild sees pre-rebuild results, which is an
// accepted staleness window.
package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/config"
	"github.com/fyrsmithlabs/hubd/internal/index"
	"github.com/fyrsmithlabs/hubd/internal/logging"
	"github.com/fyrsmithlabs/hubd/internal/ripgrep"
)

// Kind discriminates result variants.
type Kind string

const (
	KindWiki Kind = "wiki"
	KindCode Kind = "code"
)

// Result is one ranked match. Results are ephemeral, computed per query.
type Result struct {
	Kind    Kind    `json:"kind"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`

	// Wiki fields.
	Title    string   `json:"title,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	DocPath  string   `json:"doc_path,omitempty"`

	// Code fields.
	Repo string `json:"repo,omitempty"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// Filters narrows a search. Both corpora are included by default.
type Filters struct {
	Category    string
	Language    string
	Repo        string
	IncludeWiki bool
	IncludeCode bool
}

// DefaultFilters returns filters with both corpora enabled.
func DefaultFilters() Filters {
	return Filters{IncludeWiki: true, IncludeCode: true}
}

// Report is the response to one search call.
type Report struct {
	Query       string        `json:"query"`
	Results     []Result      `json:"results"`
	Total       int           `json:"total"`
	WikiCount   int           `json:"wiki_count"`
	CodeCount   int           `json:"code_count"`
	Elapsed     time.Duration `json:"elapsed"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// Snapshots provides the current index snapshot. Satisfied by index.Builder.
type Snapshots interface {
	Current() *index.Index
}

// CodeSearcher runs a text query over repository paths. Satisfied by
// ripgrep.Searcher.
type CodeSearcher interface {
	Search(ctx context.Context, pattern string, paths []string, opts ripgrep.Options) ([]ripgrep.Match, error)
}

// rgTypes maps display languages to ripgrep file types. Unknown languages
// are passed through lowercased.
var rgTypes = map[string]string{
	"Go":         "go",
	"Rust":       "rust",
	"Python":     "py",
	"Ruby":       "ruby",
	"JavaScript": "js",
	"TypeScript": "ts",
	"Java":       "java",
	"Kotlin":     "kotlin",
	"Swift":      "swift",
	"C":          "c",
	"C++":        "cpp",
	"C#":         "cs",
	"PHP":        "php",
	"Shell":      "sh",
	"Haskell":    "haskell",
	"Elixir":     "elixir",
	"Lua":        "lua",
}

// Engine answers ranked search queries.
type Engine struct {
	snapshots Snapshots
	rg        CodeSearcher
	cfg       config.SearchConfig
	logger    *logging.Logger
	metrics   *Metrics

	// now is injectable for deterministic recency scoring in tests.
	now func() time.Time
}

// NewEngine creates a search engine over the given snapshot source.
func NewEngine(snapshots Snapshots, rg CodeSearcher, cfg config.SearchConfig, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 50
	}
	if cfg.WikiBoost == 0 {
		cfg.WikiBoost = 2.0
	}
	return &Engine{
		snapshots: snapshots,
		rg:        rg,
		cfg:       cfg,
		logger:    logger.Named("search"),
		metrics:   NewMetrics(),
		now:       time.Now,
	}
}

// Search scores and ranks matches for query. limit <= 0 uses the configured
// default. Adapter failures degrade to empty code results; the query never
// fails outright.
func (e *Engine) Search(ctx context.Context, query string, filters Filters, limit int) Report {
	start := time.Now()
	if limit <= 0 {
		limit = e.cfg.MaxResults
	}

	report := Report{Query: query}
	terms := Tokenize(query)
	if len(terms) == 0 {
		report.Suggestions = []string{"enter one or more search terms"}
		report.Elapsed = time.Since(start)
		return report
	}

	snapshot := e.snapshots.Current()
	if snapshot == nil {
		report.Suggestions = []string{"the index is empty; run a full index build first"}
		report.Elapsed = time.Since(start)
		return report
	}

	// Documents are appended first so score ties favor wiki results after
	// the stable sort.
	var results []Result
	if filters.IncludeWiki {
		results = append(results, e.searchWiki(snapshot, terms, filters)...)
	}
	if filters.IncludeCode {
		results = append(results, e.searchCode(ctx, snapshot, query, filters)...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	for _, r := range results {
		switch r.Kind {
		case KindWiki:
			report.WikiCount++
		case KindCode:
			report.CodeCount++
		}
	}
	report.Total = len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	report.Results = results

	if report.Total == 0 {
		report.Suggestions = e.suggestions(filters)
	}
	report.Elapsed = time.Since(start)

	e.metrics.QueriesTotal.Inc()
	e.metrics.QueryDuration.Observe(report.Elapsed.Seconds())
	e.logger.Debug(ctx, "search complete",
		zap.String("query", query),
		zap.Int("total", report.Total),
		zap.Duration("elapsed", report.Elapsed))
	return report
}

// searchWiki scores the document collection.
func (e *Engine) searchWiki(snapshot *index.Index, terms []string, filters Filters) []Result {
	now := e.now()
	var out []Result
	for _, doc := range snapshot.Documents {
		if filters.Category != "" && doc.Category != filters.Category {
			continue
		}
		if filters.Language != "" && !strings.EqualFold(doc.Frontmatter.Language, filters.Language) {
			continue
		}

		score := ScoreDocument(doc, terms, now) * e.cfg.WikiBoost
		if score <= 0 {
			continue
		}
		out = append(out, Result{
			Kind:     KindWiki,
			Score:    score,
			Preview:  doc.Preview,
			Title:    doc.Frontmatter.Title,
			Category: doc.Category,
			Tags:     doc.Frontmatter.Tags,
			DocPath:  doc.RelPath,
		})
	}
	return out
}

// searchCode delegates to the ripgrep adapter over indexed repositories.
func (e *Engine) searchCode(ctx context.Context, snapshot *index.Index, query string, filters Filters) []Result {
	paths := snapshot.RepoPaths()
	repoForPath := make(map[string]string, len(snapshot.Repositories))
	for _, r := range snapshot.Repositories {
		repoForPath[r.Path] = r.Name
	}

	if filters.Repo != "" {
		record, ok := snapshot.RepoByName(filters.Repo)
		if !ok {
			return nil
		}
		paths = []string{record.Path}
	}
	if len(paths) == 0 {
		return nil
	}

	opts := ripgrep.Options{
		CaseInsensitive: true,
		MaxPerFile:      5,
	}
	if filters.Language != "" {
		if t, ok := rgTypes[filters.Language]; ok {
			opts.FileType = t
		} else {
			opts.FileType = strings.ToLower(filters.Language)
		}
	}

	matches, err := e.rg.Search(ctx, query, paths, opts)
	if err != nil {
		// Degrade to wiki-only results rather than failing the query.
		e.logger.Warn(ctx, "code search failed", zap.Error(err))
		return nil
	}

	out := make([]Result, 0, len(matches))
	for _, m := range matches {
		out = append(out, Result{
			Kind:    KindCode,
			Score:   ScoreLine(m.Text, query),
			Preview: centerPreview(m.Text, query),
			Repo:    repoName(repoForPath, m.File),
			File:    m.File,
			Line:    m.Line,
		})
	}
	return out
}

// repoName finds the indexed repository containing file.
func repoName(repoForPath map[string]string, file string) string {
	for path, name := range repoForPath {
		if strings.HasPrefix(file, path+"/") || file == path {
			return name
		}
	}
	return ""
}

func (e *Engine) suggestions(filters Filters) []string {
	out := []string{"try fewer or broader terms"}
	if filters.Category != "" || filters.Language != "" || filters.Repo != "" {
		out = append(out, "drop the category, language, or repo filter")
	}
	if !filters.IncludeCode {
		out = append(out, "enable code results to search repository files")
	}
	if !filters.IncludeWiki {
		out = append(out, "enable wiki results to search curated documents")
	}
	out = append(out, "rebuild the index if repositories were added recently")
	return out
}
