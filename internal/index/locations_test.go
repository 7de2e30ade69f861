package index

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocationsMarkdown(t *testing.T) {
	ix := &Index{
		LastFullIndex: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Repositories: []RepoRecord{
			{Name: "beta", Path: "/src/beta", Languages: []string{"Rust"}},
			{Name: "alpha", Path: "/src/alpha", Languages: []string{"Go"}, Description: "an indexer"},
			{Name: "tool", Path: "/opt/tool"},
		},
	}

	md := locationsMarkdown(ix)

	assert.Contains(t, md, "title: Repository Locations")
	assert.Contains(t, md, "updated: 2026-08-01")
	assert.Contains(t, md, "## /opt")
	assert.Contains(t, md, "## /src")
	assert.Contains(t, md, "**alpha** at `/src/alpha` (Go): an indexer")
	assert.Contains(t, md, "**beta** at `/src/beta` (Rust)")

	// Repositories under the same parent are listed alphabetically.
	assert.Less(t, strings.Index(md, "**alpha**"), strings.Index(md, "**beta**"))
}

func TestLocationsMarkdownFlagsNonMainBranch(t *testing.T) {
	ix := &Index{
		Repositories: []RepoRecord{
			{Name: "alpha", Path: "/src/alpha", Branch: "feature-x"},
			{Name: "beta", Path: "/src/beta", Branch: "master"},
			{Name: "gamma", Path: "/src/gamma", Branch: "main"},
		},
	}

	md := locationsMarkdown(ix)

	assert.Contains(t, md, "**alpha** at `/src/alpha` [branch: feature-x]")
	assert.NotContains(t, md, "[branch: master]")
	assert.NotContains(t, md, "[branch: main]")
}
