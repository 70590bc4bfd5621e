package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/spf13/cobra"
)

var dryRun bool

// errInvalidInput marks bad command arguments; Execute maps it to exit 2.
var errInvalidInput = errors.New("invalid arguments")

var rootCmd = &cobra.Command{
	Use:     "poster",
	Short:   "Potterpedia X posting bot",
	Version: Version,
	Long: `
Potterpedia poster (` + Version + `)

Posts pre-authored Potterpedia content to X on a schedule or on demand.

CALENDAR POSTS:
  today       Post today's birthdays, deathdays and events
  birthday    Post the birthdays of a given date
  deathday    Post the deathdays of a given date
  event       Post the events of a given date

GLOSSARY POSTS:
  glossary    Post one random glossary entry (any category)
  spell, potion, creature, object, location, organization, concept, character
              Post a random entry of that category, or --id for a specific one

OTHER:
  stats       Show posting-state statistics
  test        Post ad-hoc text
  version     Display version information

EXAMPLES:
  poster --dry-run today
  poster birthday 1980-07-31
  poster spell --id expelliarmus
  poster glossary
`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the CLI and maps errors onto the documented exit codes:
// 0 success or partial success, 1 total failure, 2 invalid usage or an
// explicitly requested identifier that does not exist.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌ Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, errInvalidInput) || errors.Is(err, catalog.ErrNotFound) {
		return 2
	}
	// Cobra's own parse failures are usage errors too.
	msg := err.Error()
	if strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "arg(s)") {
		return 2
	}
	return 1
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("poster {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"print the posts instead of publishing, without recording history")
}
