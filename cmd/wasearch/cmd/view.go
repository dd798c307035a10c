package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	viewPage     int
	viewPageSize int
	viewJSON     bool
)

var viewCmd = &cobra.Command{
	Use:   "view <contact>",
	Short: "View a conversation page by page",
	Long: `View the conversation with a contact, resolved fuzzily by name.

Pages run from most recent backwards: page 1 is the latest window, higher
pages reach further into history. Within each page messages read top to
bottom in chronological order, like a messaging app.

Examples:
  wasearch view basit
  wasearch view "john smith" --page 3
  wasearch view alice --page-size 50 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contact := strings.Join(args, " ")

		eng, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		page, err := eng.ViewConversation(cmd.Context(), contact, viewPage, viewPageSize)
		if err != nil {
			return err
		}
		if viewJSON {
			return outputJSON(page)
		}

		printContactHeader(page.Contact)
		if len(page.Messages) == 0 {
			fmt.Println("No messages in this conversation.")
			return nil
		}
		for _, m := range page.Messages {
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), m.Sender, m.Text)
		}
		fmt.Printf("\nPage %d/%d", page.Page, page.TotalPages)
		if page.HasMore {
			fmt.Printf("  (older messages on page %d)", page.Page+1)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().IntVar(&viewPage, "page", 1, "Page number (1 = most recent)")
	viewCmd.Flags().IntVarP(&viewPageSize, "page-size", "n", 20, "Messages per page")
	viewCmd.Flags().BoolVar(&viewJSON, "json", false, "Output as JSON")
}
