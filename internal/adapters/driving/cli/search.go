package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

var (
	searchPage     string
	searchMoreLike int64
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the archive",
	Long: `Searches the full-text index. Queries support field prefixes
(title:, content:, correspondent:, tag:, type:), date filters such as
created:2023 or added:>=2023-06-01, quoted phrases and trailing-*
prefix terms.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchPage, "page", "p", "1", "result page to show")
	searchCmd.Flags().Int64Var(&searchMoreLike, "more-like", 0, "find documents similar to this document id")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	var page *domain.SearchPage
	var err error
	if searchMoreLike != 0 {
		page, err = searchService.MoreLike(cmd.Context(), searchMoreLike, query, searchPage)
	} else {
		page, err = searchService.Search(cmd.Context(), query, searchPage)
	}
	if err != nil {
		return err
	}

	if page.CorrectedQuery != "" {
		cmd.Printf("Did you mean: %s\n\n", page.CorrectedQuery)
	}
	if page.Total == 0 {
		cmd.Println("No results.")
		return nil
	}

	cmd.Printf("%d results, page %d of %d\n\n", page.Total, page.Page, page.PageCount)
	for i := range page.Results {
		printResult(cmd, &page.Results[i])
	}
	return nil
}

func printResult(cmd *cobra.Command, r *domain.SearchResult) {
	cmd.Printf("  #%d  %s", r.ID, r.Title)
	if r.Correspondent != "" {
		cmd.Printf("  (%s)", r.Correspondent)
	}
	cmd.Printf("  %s\n", r.Created.Format("2006-01-02"))
	if len(r.Tags) > 0 {
		cmd.Printf("      tags: %s\n", strings.Join(r.Tags, ", "))
	}
	for _, fragment := range r.Highlights {
		cmd.Printf("      %s\n", renderFragmentText(fragment))
	}
	cmd.Println()
}

// renderFragmentText marks highlighted spans for terminal output.
func renderFragmentText(spans []domain.HighlightSpan) string {
	var b strings.Builder
	b.WriteString("...")
	for _, span := range spans {
		if span.Highlight {
			b.WriteString("[")
			b.WriteString(span.Text)
			b.WriteString("]")
		} else {
			b.WriteString(span.Text)
		}
	}
	b.WriteString("...")
	return b.String()
}

var autocompleteLimit int

var autocompleteCmd = &cobra.Command{
	Use:   "autocomplete [prefix]",
	Short: "Suggest search terms for a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		terms, err := searchService.Autocomplete(cmd.Context(), args[0], autocompleteLimit)
		if err != nil {
			return err
		}
		for _, term := range terms {
			cmd.Println(term)
		}
		return nil
	},
}

func init() {
	autocompleteCmd.Flags().IntVarP(&autocompleteLimit, "limit", "n", 0, "maximum number of suggestions (default 10)")
	rootCmd.AddCommand(autocompleteCmd)
}
