package cmd

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/core/settings"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/filesystem"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/history"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/publisher"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/renderer"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/runner"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/selector"
)

// runtime bundles the wired collaborators for one command invocation.
type runtime struct {
	settings *settings.Settings
	runner   *runner.Runner
	history  history.Store
	logger   *slog.Logger
}

// newRuntime builds the component graph from the environment settings.
// Credentials are only demanded when the command will actually publish.
func newRuntime(requireCredentials bool) (*runtime, error) {
	cfg, err := settings.New()
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	fs := filesystem.New()
	cat := catalog.New(fs, cfg.DataDir, logger)

	var store history.Store
	if cfg.UseGist() {
		logger.Debug("using gist-backed history store", "gist", cfg.GistID)
		store = history.NewGistStore(cfg.GistID, cfg.GistToken, "", logger)
	} else {
		store = history.NewFileStore(fs, cfg.HistoryFile)
	}

	var rnd *rand.Rand
	if cfg.RandomSeed != 0 {
		rnd = rand.New(rand.NewSource(cfg.RandomSeed))
	}
	sel := selector.New(cat, store, rnd, cfg.CooldownDays, nil, logger)

	var pub publisher.Publisher
	if requireCredentials && !dryRun {
		if err := cfg.RequireCredentials(); err != nil {
			return nil, err
		}
		pub = publisher.NewXClient(publisher.Credentials{
			APIKey:            cfg.APIKey,
			APIKeySecret:      cfg.APIKeySecret,
			AccessToken:       cfg.AccessToken,
			AccessTokenSecret: cfg.AccessTokenSecret,
		}, cfg.APIBaseURL)
	}

	run := runner.New(runner.Config{
		Selector:  sel,
		Renderer:  renderer.New(cfg.PostMaxLength),
		Publisher: pub,
		History:   store,
		Logger:    logger,
		DryRun:    dryRun,
	})

	return &runtime{settings: cfg, runner: run, history: store, logger: logger}, nil
}

// finishRun prints the run outcome and converts a total failure into an
// error so Execute can exit non-zero. Partial success stays exit 0.
func finishRun(report *runner.Report) error {
	for _, item := range report.Posted {
		label := item.Name
		if label == "" {
			label = item.ID
		}
		if report.DryRun {
			fmt.Printf("✓ rendered %s %s\n", item.Category, label)
		} else if item.PostID != "" {
			fmt.Printf("✓ posted %s %s (post id %s)\n", item.Category, label, item.PostID)
		} else {
			fmt.Printf("✓ posted %s %s\n", item.Category, label)
		}
		if item.Err != nil {
			fmt.Fprintf(os.Stderr, "⚠ %s %s: %v\n", item.Category, label, item.Err)
		}
	}
	for _, item := range report.Failed {
		fmt.Fprintf(os.Stderr, "✗ failed %s %s: %v\n", item.Category, item.ID, item.Err)
	}

	fmt.Printf("run %s: %s (%d posted, %d failed)\n",
		report.RunID, report.Status, len(report.Posted), len(report.Failed))

	if report.Status == runner.StatusFailure {
		return fmt.Errorf("run failed: nothing was posted")
	}
	return nil
}
