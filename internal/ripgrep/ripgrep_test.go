package ripgrep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatch(t *testing.T) {
	line := []byte(`{"type":"match","data":{"path":{"text":"/src/hubd/main.go"},"lines":{"text":"func main() {\n"},"line_number":12}}`)

	m, ok := parseMatch(line)
	require.True(t, ok)
	assert.Equal(t, "/src/hubd/main.go", m.File)
	assert.Equal(t, 12, m.Line)
	assert.Equal(t, "func main() {", m.Text, "trailing newline is trimmed")
}

func TestParseMatchSkipsNonMatchEvents(t *testing.T) {
	for _, line := range []string{
		`{"type":"begin","data":{"path":{"text":"/src/hubd/main.go"}}}`,
		`{"type":"end","data":{"path":{"text":"/src/hubd/main.go"}}}`,
		`{"type":"summary","data":{}}`,
	} {
		_, ok := parseMatch([]byte(line))
		assert.False(t, ok, line)
	}
}

func TestParseMatchSkipsMalformedLines(t *testing.T) {
	_, ok := parseMatch([]byte("not json at all"))
	assert.False(t, ok)

	_, ok = parseMatch([]byte(""))
	assert.False(t, ok)
}

func TestCommonArgsIncludesNoiseGlobs(t *testing.T) {
	s := New(nil)
	args := s.commonArgs(Options{})

	assert.Contains(t, args, "--line-number")
	assert.Contains(t, args, "!node_modules/**")
	assert.Contains(t, args, "!.git/**")
	assert.Contains(t, args, "!go.sum")
	assert.NotContains(t, args, "--ignore-case")
}

func TestCommonArgsOptions(t *testing.T) {
	s := New(nil)
	args := s.commonArgs(Options{
		CaseInsensitive: true,
		FileType:        "go",
		Glob:            "*.go",
		Hidden:          true,
		MaxPerFile:      5,
	})

	assert.Contains(t, args, "--ignore-case")
	assert.Contains(t, args, "--type")
	assert.Contains(t, args, "go")
	assert.Contains(t, args, "*.go")
	assert.Contains(t, args, "--hidden")
	assert.Contains(t, args, "--max-count")
	assert.Contains(t, args, "5")
}

func TestSearchNoPathsShortCircuits(t *testing.T) {
	s := New(nil)
	// The binary is never executed when there is nothing to search.
	s.binary = "definitely-not-a-real-binary"

	matches, err := s.Search(context.Background(), "anything", nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, matches)

	files, err := s.SearchFiles(context.Background(), "anything", nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, files)
}
