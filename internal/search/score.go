package search

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fyrsmithlabs/hubd/internal/wiki"
)

// Scoring weights. The ranking here is a deliberate small heuristic, not
// BM25; the functions are pure over plain records so weights can be tuned
// without touching any I/O component.
const (
	titleContainsScore = 50
	titleExactBonus    = 25
	tagContainsScore   = 30
	tagExactBonus      = 15
	descContainsScore  = 20
	contentPerHit      = 5
	contentHitCap      = 25

	recencyMaxBonus    = 20.0
	recencyDecayPerDay = 0.5

	lineBaseScore      = 10
	verbatimQueryBonus = 20
	definitionBonus    = 15
	exportBonus        = 10
	typeDeclBonus      = 10

	previewMaxLen = 150
)

// Tokenize splits a query into lowercase whitespace-separated terms.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ScoreDocument scores one wiki document against query terms. The score is
// non-decreasing in the number of matching terms; an exact title match beats
// a partial one.
func ScoreDocument(doc wiki.Document, terms []string, now time.Time) float64 {
	title := strings.ToLower(doc.Frontmatter.Title)
	desc := strings.ToLower(doc.Frontmatter.Description)
	content := strings.ToLower(doc.Preview)

	tags := make([]string, len(doc.Frontmatter.Tags))
	for i, t := range doc.Frontmatter.Tags {
		tags[i] = strings.ToLower(t)
	}

	var score float64
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleContainsScore
			if titleWordMatch(title, term) {
				score += titleExactBonus
			}
		}

		tagContains, tagExact := false, false
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				tagContains = true
			}
			if tag == term {
				tagExact = true
			}
		}
		if tagContains {
			score += tagContainsScore
		}
		if tagExact {
			score += tagExactBonus
		}

		if strings.Contains(desc, term) {
			score += descContainsScore
		}

		if hits := strings.Count(content, term); hits > 0 {
			freq := hits * contentPerHit
			if freq > contentHitCap {
				freq = contentHitCap
			}
			score += float64(freq)
		}
	}

	if score > 0 {
		if updated := doc.UpdatedTime(); !updated.IsZero() {
			days := now.Sub(updated).Hours() / 24
			if bonus := recencyMaxBonus - recencyDecayPerDay*days; bonus > 0 {
				score += bonus
			}
		}
	}

	return score
}

// titleWordMatch reports whether term equals the title or is a whole
// leading/trailing word of it.
func titleWordMatch(title, term string) bool {
	return title == term ||
		strings.HasPrefix(title, term+" ") ||
		strings.HasSuffix(title, " "+term)
}

// ScoreLine scores one matched repository-file line against the full query.
func ScoreLine(line, query string) float64 {
	lower := strings.ToLower(line)
	trimmed := strings.TrimSpace(lower)

	score := float64(lineBaseScore)
	if strings.Contains(lower, strings.ToLower(query)) {
		score += verbatimQueryBonus
	}
	if looksLikeDefinition(trimmed) {
		score += definitionBonus
	}
	if looksLikeExport(trimmed) {
		score += exportBonus
	}
	if looksLikeTypeDecl(trimmed) {
		score += typeDeclBonus
	}
	return score
}

// looksLikeDefinition spots function/class/variable definitions across the
// languages in the extension table. Keyword heuristic, nothing more.
func looksLikeDefinition(line string) bool {
	for _, kw := range []string{"func ", "function ", "def ", "fn ", "class ", "const ", "let ", "var ", "val ", "sub "} {
		if strings.HasPrefix(line, kw) {
			return true
		}
	}
	return strings.Contains(line, " = function") || strings.Contains(line, "=>")
}

func looksLikeExport(line string) bool {
	return strings.HasPrefix(line, "export ") ||
		strings.HasPrefix(line, "pub ") ||
		strings.Contains(line, "module.exports")
}

func looksLikeTypeDecl(line string) bool {
	for _, kw := range []string{"type ", "interface ", "struct ", "enum ", "trait "} {
		if strings.HasPrefix(line, kw) {
			return true
		}
	}
	return strings.Contains(line, " interface ") || strings.Contains(line, " struct ")
}

// centerPreview bounds a matched line to previewMaxLen runes, centering on
// the first occurrence of the query and marking truncated sides with
// ellipses. Cuts land on rune boundaries so the preview stays valid UTF-8.
func centerPreview(line, query string) string {
	runes := []rune(line)
	if len(runes) <= previewMaxLen {
		return line
	}

	mid := 0
	if i := strings.Index(strings.ToLower(line), strings.ToLower(query)); i >= 0 {
		mid = utf8.RuneCountInString(line[:i])
	}
	mid += utf8.RuneCountInString(query) / 2

	half := previewMaxLen / 2
	start := mid - half
	end := mid + half
	if start < 0 {
		start = 0
		end = previewMaxLen
	}
	if end > len(runes) {
		end = len(runes)
		start = end - previewMaxLen
		if start < 0 {
			start = 0
		}
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out = out + "…"
	}
	return out
}
