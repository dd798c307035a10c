package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/mmahmad/whatsapp-cli-macos/internal/engine"
	"github.com/mmahmad/whatsapp-cli-macos/internal/tui"
)

var (
	searchContact       string
	searchThreshold     int
	searchSort          string
	searchPage          int
	searchPageSize      int
	searchJSON          bool
	searchNoInteractive bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search messages",
	Long: `Search your WhatsApp messages with typo-tolerant fuzzy matching.

Matching tolerates single-character typos ("pizzza" matches "pizza") and
word-order differences. Exact substring matches always score 100 and are
always included. Results are paginated; repeated page requests for the
same query reuse a cached result set.

On a terminal, results open in an interactive pager (n/p to page, g to
jump, t to toggle sort, q to quit). Use --json or --no-interactive for
plain output.

Examples:
  wasearch search pizza tonight
  wasearch search -c basit "car payment"
  wasearch search --threshold 80 --sort time invoice
  wasearch search --json birthday | jq '.results[].text'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		sortMode, err := engine.ParseSortMode(chooseSort())
		if err != nil {
			return err
		}
		params := engine.SearchParams{
			Query:    query,
			Sort:     sortMode,
			Page:     searchPage,
			PageSize: choosePageSize(),
		}.WithThreshold(chooseThreshold())

		eng, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		if interactive() {
			return tui.Run(eng, tui.Options{Contact: searchContact, Params: params})
		}

		if searchContact != "" {
			page, err := eng.SearchInContact(cmd.Context(), searchContact, params)
			if err != nil {
				return err
			}
			if searchJSON {
				return outputJSON(page)
			}
			printContactHeader(page.Contact)
			return outputSearchTable(&page.SearchPage)
		}

		page, err := eng.Search(cmd.Context(), params)
		if err != nil {
			return err
		}
		if searchJSON {
			return outputJSON(page)
		}
		return outputSearchTable(page)
	},
}

// interactive reports whether the pager should run: a TTY on stdout and no
// flag forcing plain output.
func interactive() bool {
	if searchJSON || searchNoInteractive {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func chooseThreshold() int {
	if searchThreshold >= 0 {
		return searchThreshold
	}
	return cfg.Search.Threshold
}

func choosePageSize() int {
	if searchPageSize > 0 {
		return searchPageSize
	}
	return cfg.Search.PageSize
}

func chooseSort() string {
	if searchSort != "" {
		return searchSort
	}
	return cfg.Search.Sort
}

func printContactHeader(c engine.ResolvedContact) {
	fmt.Printf("Conversation: %s (%s match, score %d)\n", c.Name, c.Tier, c.Score)
	if len(c.Alternates) > 0 {
		names := make([]string, 0, len(c.Alternates))
		for _, alt := range c.Alternates {
			names = append(names, fmt.Sprintf("%s (%d)", alt.Name, alt.Score))
		}
		fmt.Printf("Also matched: %s\n", strings.Join(names, ", "))
	}
	fmt.Println()
}

func outputSearchTable(page *engine.SearchPage) error {
	if page.TotalMatches == 0 {
		fmt.Println("No messages found.")
		return nil
	}
	if page.Truncated {
		fmt.Fprintln(os.Stderr, "Note: candidate cap reached; narrow the query for full coverage.")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tDATE\tSENDER\tCHAT\tMESSAGE")
	fmt.Fprintln(w, "─────\t────\t──────\t────\t───────")
	for _, r := range page.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.Score,
			r.Timestamp.Format("2006-01-02 15:04"),
			truncate(r.Sender, 25),
			truncate(r.ChatName, 25),
			truncate(r.Text, 60),
		)
	}
	w.Flush()
	fmt.Printf("\nPage %d/%d, %d matches\n", page.Page, page.TotalPages, page.TotalMatches)
	return nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to width display cells, appending an ellipsis.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchContact, "contact", "c", "", "Scope the search to one contact's conversation")
	searchCmd.Flags().IntVarP(&searchThreshold, "threshold", "t", -1, "Minimum match score 0-100 (default from config)")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "Sort order: relevance or time (default from config)")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Page number")
	searchCmd.Flags().IntVarP(&searchPageSize, "page-size", "n", 0, "Results per page (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	searchCmd.Flags().BoolVar(&searchNoInteractive, "no-interactive", false, "Disable the interactive pager")
}
