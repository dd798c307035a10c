package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmahmad/whatsapp-cli-macos/internal/contacts"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a contact name",
	Long: `Resolve a free-text name to the best-matching known contact.

Matching is tiered: name prefixes and exact matches win outright, then
shared whole words, then character similarity. All viable candidates are
listed with their scores.

Examples:
  wasearch resolve basit
  wasearch resolve "john sm" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		eng, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		res, err := eng.ResolveContact(cmd.Context(), query)
		if err != nil {
			var nf *contacts.NotFoundError
			if errors.As(err, &nf) {
				fmt.Printf("No contact matching %q.\n", nf.Query)
				if len(nf.Alternates) > 0 {
					fmt.Println("Closest names:")
					for _, alt := range nf.Alternates {
						fmt.Printf("  %s (score %d)\n", alt.Identity.DisplayName, alt.Score)
					}
				}
				return nil
			}
			return err
		}
		if resolveJSON {
			return outputJSON(res)
		}

		fmt.Printf("Best match: %s (%s, score %d)\n\n", res.Best.Name, res.Best.Tier, res.Best.Score)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSCORE")
		fmt.Fprintln(w, "────\t─────")
		for _, c := range res.Candidates {
			fmt.Fprintf(w, "%s\t%d\n", truncate(c.Name, 40), c.Score)
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Output as JSON")
}
