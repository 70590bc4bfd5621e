package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(testCmd)
}

var testCmd = &cobra.Command{
	Use:   "test <text>",
	Short: "Post ad-hoc text",
	Long: `Posts the given text directly, bypassing the catalog and posting
history. The length limit still applies. Useful for verifying credentials.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		report, err := rt.runner.PostText(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return finishRun(report)
	},
}
