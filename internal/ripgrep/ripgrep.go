// Package ripgrep wraps the external rg binary as a structured search
// adapter.
//
// The adapter optimizes for "always return something": unparsable output
// lines are skipped, exit code 1 (no matches) is success, and unexpected
// exit codes are logged as warnings while whatever was parsed is still
// returned.
package ripgrep

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/logging"
)

// defaultMaxMatches bounds the total match list when the caller sets no cap.
const defaultMaxMatches = 200

// noiseGlobs are always excluded regardless of caller options.
var noiseGlobs = []string{
	"!node_modules/**",
	"!.git/**",
	"!dist/**",
	"!build/**",
	"!*.min.js",
	"!*.min.css",
	"!package-lock.json",
	"!yarn.lock",
	"!pnpm-lock.yaml",
	"!Cargo.lock",
	"!go.sum",
}

// Options are additive flags on top of the fixed request shape.
type Options struct {
	CaseInsensitive bool
	FileType        string
	Glob            string
	Hidden          bool
	MaxPerFile      int
	MaxTotal        int
}

// Match is one structured match record.
type Match struct {
	File string
	Line int
	Text string
}

// Searcher runs rg and parses its line-delimited JSON output.
type Searcher struct {
	binary string
	logger *logging.Logger
}

// New creates a searcher using rg from PATH.
func New(logger *logging.Logger) *Searcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Searcher{binary: "rg", logger: logger.Named("ripgrep")}
}

// Available probes for the rg binary.
func (s *Searcher) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

// Search runs pattern over paths and returns a bounded match list.
func (s *Searcher) Search(ctx context.Context, pattern string, paths []string, opts Options) ([]Match, error) {
	if len(paths) == 0 {
		return []Match{}, nil
	}
	maxTotal := opts.MaxTotal
	if maxTotal <= 0 {
		maxTotal = defaultMaxMatches
	}

	args := []string{"--json"}
	args = append(args, s.commonArgs(opts)...)
	args = append(args, "--", pattern)
	args = append(args, paths...)

	matches := []Match{}
	err := s.run(ctx, args, func(line []byte) {
		if len(matches) >= maxTotal {
			// Cap reached; keep draining the pipe without parsing.
			return
		}
		if m, ok := parseMatch(line); ok {
			matches = append(matches, m)
		}
	})
	if err != nil {
		return matches, err
	}
	return matches, nil
}

// SearchFiles returns the paths of files containing pattern.
func (s *Searcher) SearchFiles(ctx context.Context, pattern string, paths []string, opts Options) ([]string, error) {
	if len(paths) == 0 {
		return []string{}, nil
	}

	args := []string{"--files-with-matches"}
	args = append(args, s.commonArgs(opts)...)
	args = append(args, "--", pattern)
	args = append(args, paths...)

	files := []string{}
	err := s.run(ctx, args, func(line []byte) {
		if f := strings.TrimSpace(string(line)); f != "" {
			files = append(files, f)
		}
	})
	if err != nil {
		return files, err
	}
	return files, nil
}

// commonArgs builds the flag set shared by both request kinds.
func (s *Searcher) commonArgs(opts Options) []string {
	args := []string{"--line-number"}
	for _, g := range noiseGlobs {
		args = append(args, "--glob", g)
	}
	if opts.CaseInsensitive {
		args = append(args, "--ignore-case")
	}
	if opts.FileType != "" {
		args = append(args, "--type", opts.FileType)
	}
	if opts.Glob != "" {
		args = append(args, "--glob", opts.Glob)
	}
	if opts.Hidden {
		args = append(args, "--hidden")
	}
	if opts.MaxPerFile > 0 {
		args = append(args, "--max-count", strconv.Itoa(opts.MaxPerFile))
	}
	return args
}

// run executes rg and feeds each stdout line to handle. The stream is always
// drained to completion to avoid pipe deadlock. Exit codes 0 and 1 are
// success; anything else is logged and the partial output stands.
func (s *Searcher) run(ctx context.Context, args []string, handle func([]byte)) error {
	cmd := exec.CommandContext(ctx, s.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		handle(scanner.Bytes())
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			switch exitErr.ExitCode() {
			case 1:
				// No matches.
				return nil
			default:
				s.logger.Warn(ctx, "rg exited abnormally",
					zap.Int("exit_code", exitErr.ExitCode()),
					zap.String("stderr", string(exitErr.Stderr)))
				return nil
			}
		}
		return err
	}
	return nil
}

// event mirrors the subset of rg's JSON schema the adapter consumes.
type event struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		Lines struct {
			Text string `json:"text"`
		} `json:"lines"`
		LineNumber int `json:"line_number"`
	} `json:"data"`
}

// parseMatch decodes one output line. Non-match event types and malformed
// lines are skipped, never fatal.
func parseMatch(line []byte) (Match, bool) {
	var ev event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Match{}, false
	}
	if ev.Type != "match" {
		return Match{}, false
	}
	return Match{
		File: ev.Data.Path.Text,
		Line: ev.Data.LineNumber,
		Text: strings.TrimRight(ev.Data.Lines.Text, "\n"),
	}, true
}
