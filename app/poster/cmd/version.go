package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

const releasesURL = "https://api.github.com/repos/IrisKashu114/potterpedia-bot-runner/releases"

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
	Draft      bool   `json:"draft"`
	HTMLURL    string `json:"html_url"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Displays the poster version and checks GitHub for a newer release.`,
	Run: func(cmd *cobra.Command, args []string) {
		noRemote, _ := cmd.Flags().GetBool("no-remote")
		timeout, _ := cmd.Flags().GetInt("timeout")

		fmt.Printf("poster %s (commit %s, %s, %s/%s)\n",
			Version, shortCommit(Commit), BuildDate, goruntime.GOOS, goruntime.GOARCH)

		if noRemote {
			return
		}
		latest, url, err := latestRelease(cmd.Context(), time.Duration(timeout)*time.Second)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Update check failed: %v\n", err)
			return
		}
		if latest != "" && isNewerVersion(latest, Version) {
			fmt.Printf("Update: %s available → %s\n", latest, url)
		} else {
			fmt.Println("Up to date.")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("no-remote", false, "Skip GitHub update check")
	versionCmd.Flags().Int("timeout", 3, "Network timeout in seconds for update check")
}

// latestRelease returns the newest non-draft, non-prerelease tag.
func latestRelease(ctx context.Context, timeout time.Duration) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var releases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return "", "", fmt.Errorf("failed to parse GitHub response: %w", err)
	}
	for _, release := range releases {
		if release.Draft || release.Prerelease {
			continue
		}
		return release.TagName, release.HTMLURL, nil
	}
	return "", "", nil
}

// isNewerVersion performs semantic version comparison.
func isNewerVersion(latest, current string) bool {
	if current == "dev" {
		return true
	}
	latestVer, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return latest > current
	}
	currentVer, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return true
	}
	return latestVer.GreaterThan(currentVer)
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
