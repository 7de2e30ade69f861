package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/gitops"
)

// writeLocationsReport regenerates the human-readable repository locations
// page under the wiki root. It is a best-effort side effect of a full build;
// failure is logged, never propagated.
func (b *Builder) writeLocationsReport(ctx context.Context, ix *Index) {
	if b.wikiRoot == "" {
		return
	}

	dir := filepath.Join(b.wikiRoot, "meta")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.logger.Warn(ctx, "cannot create locations report directory", zap.Error(err))
		return
	}

	path := filepath.Join(dir, "repository-locations.md")
	if err := os.WriteFile(path, []byte(locationsMarkdown(ix)), 0o644); err != nil {
		b.logger.Warn(ctx, "cannot write locations report", zap.String("path", path), zap.Error(err))
	}
}

// locationsMarkdown renders the report grouped by parent directory.
func locationsMarkdown(ix *Index) string {
	groups := make(map[string][]RepoRecord)
	for _, r := range ix.Repositories {
		parent := filepath.Dir(r.Path)
		groups[parent] = append(groups[parent], r)
	}

	parents := make([]string, 0, len(groups))
	for p := range groups {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString("title: Repository Locations\n")
	sb.WriteString("tags: [repositories, generated]\n")
	fmt.Fprintf(&sb, "updated: %s\n", ix.LastFullIndex.Format("2006-01-02"))
	sb.WriteString("---\n\n")
	sb.WriteString("# Repository Locations\n\n")
	fmt.Fprintf(&sb, "Generated from the index built at %s. Do not edit by hand.\n\n",
		ix.LastFullIndex.Format(time.RFC3339))

	for _, parent := range parents {
		repos := groups[parent]
		sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })

		fmt.Fprintf(&sb, "## %s\n\n", parent)
		for _, r := range repos {
			fmt.Fprintf(&sb, "- **%s** at `%s`", r.Name, r.Path)
			if len(r.Languages) > 0 {
				fmt.Fprintf(&sb, " (%s)", strings.Join(r.Languages, ", "))
			}
			// Checkouts sitting on a feature branch are worth calling out.
			if r.Branch != "" && !gitops.IsMainBranch(r.Branch) {
				fmt.Fprintf(&sb, " [branch: %s]", r.Branch)
			}
			if r.Description != "" {
				fmt.Fprintf(&sb, ": %s", r.Description)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
