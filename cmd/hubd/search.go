package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/hubd/internal/search"
)

var (
	searchCategory string
	searchLanguage string
	searchRepo     string
	searchNoWiki   bool
	searchNoCode   bool
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the wiki and indexed repositories",
	Long: `Search curated wiki documents and repository file contents with a
single ranked result list.

Examples:
  # Search everything
  hubd search "retry policy"

  # Wiki runbooks only
  hubd search --no-code --category runbooks "incident"

  # Go files in one repository
  hubd search --repo hubd --language Go "rate limiter"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "restrict wiki results to one category")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "restrict results to one language")
	searchCmd.Flags().StringVar(&searchRepo, "repo", "", "restrict code results to one repository")
	searchCmd.Flags().BoolVar(&searchNoWiki, "no-wiki", false, "exclude wiki documents")
	searchCmd.Flags().BoolVar(&searchNoCode, "no-code", false, "exclude repository file matches")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (0 uses the configured default)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.logger.Sync()
	}()

	app.loadOrBuild(ctx)

	filters := search.DefaultFilters()
	filters.Category = searchCategory
	filters.Language = searchLanguage
	filters.Repo = searchRepo
	filters.IncludeWiki = !searchNoWiki
	filters.IncludeCode = !searchNoCode

	query := strings.Join(args, " ")
	report := app.reg.Search().Search(ctx, query, filters, searchLimit)

	if len(report.Results) == 0 {
		fmt.Printf("No results for %q\n", query)
		for _, s := range report.Suggestions {
			fmt.Printf("  hint: %s\n", s)
		}
		return nil
	}

	fmt.Printf("%d results (%d wiki, %d code) in %s\n\n",
		report.Total, report.WikiCount, report.CodeCount, report.Elapsed.Round(time.Millisecond))
	for _, r := range report.Results {
		switch r.Kind {
		case search.KindWiki:
			fmt.Printf("%6.1f  wiki  %s (%s)\n", r.Score, r.Title, r.Category)
			fmt.Printf("        %s\n", r.DocPath)
		case search.KindCode:
			fmt.Printf("%6.1f  code  %s:%d", r.Score, r.File, r.Line)
			if r.Repo != "" {
				fmt.Printf("  [%s]", r.Repo)
			}
			fmt.Println()
		}
		if r.Preview != "" {
			fmt.Printf("        %s\n", firstLine(r.Preview))
		}
	}
	return nil
}

// firstLine keeps terminal output to one preview line per result.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
