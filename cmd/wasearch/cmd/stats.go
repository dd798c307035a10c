package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  `Show message and conversation counts for the WhatsApp database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := databasePath()
		if err != nil {
			return err
		}

		eng, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		stats, err := eng.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		if statsJSON {
			return outputJSON(stats)
		}

		fmt.Printf("Database: %s\n", path)
		fmt.Printf("  Messages:            %d\n", stats.MessageCount)
		fmt.Printf("  Text messages:       %d\n", stats.TextMessageCount)
		fmt.Printf("  Conversations:       %d\n", stats.ConversationCount)
		fmt.Printf("  Named conversations: %d\n", stats.NamedConversationCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}
