// Package runner orchestrates one posting invocation: select records,
// render text, publish (or print in dry-run mode) and record history.
// Failures are isolated per record so one broken entry never aborts the
// rest of the batch.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/history"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/publisher"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/renderer"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/selector"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Status is the terminal state of a run.
type Status string

const (
	// StatusSuccess means every selected record was posted or printed.
	// A run that selected nothing is also a success: there was nothing
	// to post.
	StatusSuccess Status = "success"
	// StatusPartial means some records posted and some failed.
	StatusPartial Status = "partial"
	// StatusFailure means nothing could be posted.
	StatusFailure Status = "failure"
)

// Item is the outcome for a single record within a run.
type Item struct {
	Category catalog.Category
	ID       string
	Name     string
	Text     string
	PostID   string
	Err      error
}

// Report summarizes one invocation.
type Report struct {
	RunID   string
	Status  Status
	DryRun  bool
	Posted  []Item
	Skipped []Item
	Failed  []Item
}

// Config wires the collaborators of a Runner.
type Config struct {
	Selector  *selector.Selector
	Renderer  renderer.Renderer
	Publisher publisher.Publisher
	History   history.Store
	Logger    *slog.Logger
	Now       func() time.Time
	DryRun    bool
	Out       io.Writer
}

// Runner executes posting commands.
type Runner struct {
	selector  *selector.Selector
	renderer  renderer.Renderer
	publisher publisher.Publisher
	history   history.Store
	logger    *slog.Logger
	now       func() time.Time
	dryRun    bool
	out       io.Writer
}

// New creates a runner. Logger, Now and Out may be left unset.
func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Runner{
		selector:  cfg.Selector,
		renderer:  cfg.Renderer,
		publisher: cfg.Publisher,
		history:   cfg.History,
		logger:    cfg.Logger,
		now:       cfg.Now,
		dryRun:    cfg.DryRun,
		out:       cfg.Out,
	}
}

// PostForDate posts every record of the given calendar categories matching
// the target date. Records already posted today are skipped, making the
// command idempotent within a day.
func (r *Runner) PostForDate(ctx context.Context, categories []catalog.Category, target time.Time) (*Report, error) {
	records, err := r.selector.ForDate(ctx, categories, target)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		r.logger.Info("nothing to post", "date", target.Format(catalog.DateLayout))
	}
	return r.postRecords(ctx, records), nil
}

// PostRandom posts one randomly selected record from the given glossary
// categories.
func (r *Runner) PostRandom(ctx context.Context, categories []catalog.Category) (*Report, error) {
	record, err := r.selector.Random(ctx, categories)
	if err != nil {
		return nil, err
	}
	return r.postRecords(ctx, []catalog.Record{record}), nil
}

// PostByID posts the record with the given id or slug. Explicit requests
// bypass the already-posted suppression but still record history.
func (r *Runner) PostByID(ctx context.Context, category catalog.Category, id string) (*Report, error) {
	record, err := r.selector.ByID(ctx, category, id)
	if err != nil {
		return nil, err
	}
	return r.postRecords(ctx, []catalog.Record{record}), nil
}

// PostText posts ad-hoc text, bypassing catalog and history entirely.
func (r *Runner) PostText(ctx context.Context, text string) (*Report, error) {
	report := r.newReport()
	item := Item{Text: text}

	rendered, err := r.renderer.RenderText(text)
	if err != nil {
		item.Err = err
		report.Failed = append(report.Failed, item)
		report.Status = StatusFailure
		return report, nil
	}
	item.Text = rendered

	if r.dryRun {
		r.printDryRun(rendered)
		report.Posted = append(report.Posted, item)
		return report, nil
	}

	postID, err := r.publishWithRetry(ctx, rendered)
	if err != nil {
		item.Err = err
		report.Failed = append(report.Failed, item)
		report.Status = StatusFailure
		return report, nil
	}
	item.PostID = postID
	report.Posted = append(report.Posted, item)
	return report, nil
}

func (r *Runner) newReport() *Report {
	return &Report{
		RunID:  uuid.NewString(),
		Status: StatusSuccess,
		DryRun: r.dryRun,
	}
}

// postRecords processes records sequentially. Each record gets its own
// history write immediately after its successful publish, so a mid-batch
// interruption leaves history consistent with what actually went out.
func (r *Runner) postRecords(ctx context.Context, records []catalog.Record) *Report {
	report := r.newReport()

	for _, record := range records {
		item := Item{Category: record.Category, ID: record.ID, Name: record.Name()}

		text, err := r.renderer.Render(record)
		if err != nil {
			// Too-long text skips this record only, the batch continues.
			r.logger.Error("render failed", "category", record.Category, "id", record.ID, "error", err)
			item.Err = err
			report.Failed = append(report.Failed, item)
			continue
		}
		item.Text = text

		if r.dryRun {
			r.printDryRun(text)
			report.Posted = append(report.Posted, item)
			continue
		}

		postID, err := r.publishWithRetry(ctx, text)
		if err != nil {
			r.logger.Error("publish failed", "category", record.Category, "id", record.ID, "error", err)
			item.Err = err
			report.Failed = append(report.Failed, item)
			continue
		}
		item.PostID = postID
		r.logger.Info("posted", "category", record.Category, "id", record.ID, "post_id", postID)

		if err := r.history.Put(ctx, record.Category, record.ID, r.now()); err != nil {
			// The post is live; losing the history write risks a duplicate
			// on the next run, so it must be loud in the report.
			r.logger.Error("history write failed after publish",
				"category", record.Category, "id", record.ID, "error", err)
			item.Err = fmt.Errorf("posted but history write failed: %w", err)
		}
		report.Posted = append(report.Posted, item)
	}

	switch {
	case len(report.Failed) == 0:
		report.Status = StatusSuccess
	case len(report.Posted) > 0:
		report.Status = StatusPartial
	default:
		report.Status = StatusFailure
	}
	return report
}

// publishWithRetry retries a retryable publish failure once with backoff
// before giving up on the record.
func (r *Runner) publishWithRetry(ctx context.Context, text string) (string, error) {
	var postID string

	operation := func() error {
		id, err := r.publisher.Publish(ctx, text)
		if err != nil {
			var pubErr *publisher.PublishError
			if errors.As(err, &pubErr) && !pubErr.Retryable {
				return backoff.Permanent(err)
			}
			return err
		}
		postID = id
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, 1), ctx)); err != nil {
		return "", err
	}
	return postID, nil
}

func (r *Runner) printDryRun(text string) {
	_, _ = fmt.Fprintln(r.out, "[DRY RUN] would post:")
	_, _ = fmt.Fprintln(r.out, "==================================================")
	_, _ = fmt.Fprintln(r.out, text)
	_, _ = fmt.Fprintln(r.out, "==================================================")
}
