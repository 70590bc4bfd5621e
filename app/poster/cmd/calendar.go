package cmd

import (
	"fmt"
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringSlice("categories", nil,
		"restrict posting to these calendar categories (birthday, deathday, event)")

	rootCmd.AddCommand(dateCommand("birthday", catalog.CategoryBirthday,
		"Post the birthdays of a given date"))
	rootCmd.AddCommand(dateCommand("deathday", catalog.CategoryDeathday,
		"Post the deathdays of a given date"))
	rootCmd.AddCommand(dateCommand("event", catalog.CategoryEvent,
		"Post the events of a given date"))
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Post today's birthdays, deathdays and events",
	Long: `Posts every calendar record matching today's date. Records already
posted today are skipped, so re-running the command is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		categories := catalog.CalendarCategories
		if names, _ := cmd.Flags().GetStringSlice("categories"); len(names) > 0 {
			categories = nil
			for _, name := range names {
				category := catalog.Category(name)
				if !category.IsCalendar() {
					return fmt.Errorf("%w: %q is not a calendar category", errInvalidInput, name)
				}
				categories = append(categories, category)
			}
		}

		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		report, err := rt.runner.PostForDate(cmd.Context(), categories, time.Now())
		if err != nil {
			return err
		}
		return finishRun(report)
	},
}

// dateCommand builds one of the birthday/deathday/event commands, which all
// take a single YYYY-MM-DD argument.
func dateCommand(use string, category catalog.Category, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <date>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := catalog.ParseExact(args[0])
			if err != nil {
				return fmt.Errorf("%w: date must be YYYY-MM-DD: %v", errInvalidInput, err)
			}

			rt, err := newRuntime(true)
			if err != nil {
				return err
			}
			report, err := rt.runner.PostForDate(cmd.Context(), []catalog.Category{category}, target)
			if err != nil {
				return err
			}
			return finishRun(report)
		},
	}
}
