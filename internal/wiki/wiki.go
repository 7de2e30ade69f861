// Package wiki loads the curated document collection.
//
// Documents are markdown files under a single root, annotated with a YAML
// frontmatter block. Each scan replaces the full document set; records are
// never partially updated.
package wiki

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// previewLimit bounds the body excerpt carried on each document record.
const previewLimit = 300

// Categories is the closed set of document categories. The category of a
// document is derived from its top-level subdirectory under the wiki root;
// anything unknown falls back to "notes".
var Categories = []string{
	"guides",
	"architecture",
	"runbooks",
	"decisions",
	"notes",
	"meta",
}

const defaultCategory = "notes"

// Frontmatter is the parsed YAML header of a document.
type Frontmatter struct {
	Title       string   `yaml:"title"`
	Tags        []string `yaml:"tags"`
	Language    string   `yaml:"language"`
	Updated     string   `yaml:"updated"`
	SourceRepo  string   `yaml:"source_repo"`
	Description string   `yaml:"description"`
}

// Document is one curated, frontmatter-annotated content item.
type Document struct {
	Path        string      `json:"path"`
	RelPath     string      `json:"rel_path"`
	Category    string      `json:"category"`
	Frontmatter Frontmatter `json:"frontmatter"`
	Preview     string      `json:"preview"`
	ModTime     time.Time   `json:"mod_time"`
}

// UpdatedTime parses the frontmatter updated date. The zero time is returned
// when the field is absent or unparsable.
func (d *Document) UpdatedTime() time.Time {
	if d.Frontmatter.Updated == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, d.Frontmatter.Updated); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ValidCategory reports whether c is in the closed category set.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Scan walks the wiki root and returns the full document set. A missing root
// yields an empty set, not an error. Individual unreadable files are skipped.
func Scan(root string) ([]Document, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return []Document{}, nil
	}

	var docs []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		doc, ok := readDocument(root, path)
		if !ok {
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// readDocument parses one markdown file into a Document record.
func readDocument(root, path string) (Document, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, false
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return Document{}, false
	}

	fm, body := splitFrontmatter(string(content))
	if fm.Title == "" {
		// Untitled documents get their filename as a title so they remain
		// searchable.
		fm.Title = strings.TrimSuffix(filepath.Base(path), ".md")
	}

	return Document{
		Path:        path,
		RelPath:     relPath,
		Category:    categoryFor(relPath),
		Frontmatter: fm,
		Preview:     preview(body),
		ModTime:     info.ModTime(),
	}, true
}

// splitFrontmatter separates the YAML header from the body. Content without
// a parsable header is returned whole as body.
func splitFrontmatter(content string) (Frontmatter, string) {
	s := strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(s, "---") {
		return Frontmatter{}, content
	}

	parts := strings.SplitN(s, "---", 3)
	if len(parts) < 3 {
		return Frontmatter{}, content
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return Frontmatter{}, content
	}
	return fm, strings.TrimPrefix(parts[2], "\n")
}

// categoryFor maps the top-level subdirectory to a category.
func categoryFor(relPath string) string {
	dir := strings.Split(filepath.ToSlash(relPath), "/")[0]
	if ValidCategory(dir) {
		return dir
	}
	return defaultCategory
}

// preview returns a bounded excerpt of body text, skipping blank lines.
func preview(body string) string {
	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
		if b.Len() >= previewLimit {
			break
		}
	}
	out := b.String()
	if len(out) > previewLimit {
		out = out[:previewLimit]
	}
	return out
}
