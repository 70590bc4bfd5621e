package cmd

import (
	"fmt"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/runner"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(glossaryCmd)
	for _, category := range catalog.GlossaryCategories {
		rootCmd.AddCommand(glossaryCategoryCommand(category))
	}
}

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Post one random glossary entry from any category",
	Long: `Picks one entry uniformly from all glossary categories, excluding
entries posted within the cooldown window, and posts it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		report, err := rt.runner.PostRandom(cmd.Context(), catalog.GlossaryCategories)
		if err != nil {
			return err
		}
		return finishRun(report)
	},
}

// glossaryCategoryCommand builds one command per glossary category. With no
// flags it posts a random not-recently-posted entry; --id posts a specific
// one regardless of posting history.
func glossaryCategoryCommand(category catalog.Category) *cobra.Command {
	c := &cobra.Command{
		Use:   string(category),
		Short: fmt.Sprintf("Post a random %s, or a specific one with --id", category),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")

			rt, err := newRuntime(true)
			if err != nil {
				return err
			}

			var report *runner.Report
			if id != "" {
				report, err = rt.runner.PostByID(cmd.Context(), category, id)
			} else {
				report, err = rt.runner.PostRandom(cmd.Context(), []catalog.Category{category})
			}
			if err != nil {
				return err
			}
			return finishRun(report)
		},
	}
	c.Flags().String("id", "", "post the record with this id or slug instead of a random one")
	return c
}
