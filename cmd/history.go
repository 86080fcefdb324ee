package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent digests from the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		entries, err := a.service.History(cmd.Context(), flagHistoryLimit)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No digests in the cache.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s  (%d bytes)\n", e.CreatedAt.Format("2006-01-02 15:04"), e.ID, len(e.Digest))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "number of entries to show")
}
