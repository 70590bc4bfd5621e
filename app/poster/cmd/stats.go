package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show posting-state statistics",
	Long:  `Prints, per category, how many records have been posted and when the most recent post went out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false)
		if err != nil {
			return err
		}

		snapshot, err := rt.history.All(cmd.Context())
		if err != nil {
			return err
		}
		if len(snapshot) == 0 {
			fmt.Println("No posts recorded yet.")
			return nil
		}

		categories := make([]string, 0, len(snapshot))
		for category := range snapshot {
			categories = append(categories, string(category))
		}
		sort.Strings(categories)

		fmt.Println("=== Posting statistics ===")
		for _, name := range categories {
			entries := snapshot[catalog.Category(name)]

			var lastID string
			var lastAt time.Time
			for id, at := range entries {
				if at.After(lastAt) {
					lastID, lastAt = id, at
				}
			}

			fmt.Printf("\n%s:\n", name)
			fmt.Printf("  posted: %d\n", len(entries))
			if lastID != "" {
				fmt.Printf("  last:   %s at %s\n", lastID, lastAt.Format(time.RFC3339))
			}
		}
		return nil
	},
}
