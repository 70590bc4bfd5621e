// Package selector implements the policy for choosing which records to post
// for a given command: exact date matching for calendar commands, direct
// lookup for targeted commands, and cooldown-aware uniform random choice for
// glossary commands.
package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/datematch"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/history"
)

// Selector picks the records to post for one invocation. The random source
// is injected so tests can seed it; the live run uses a time-seeded one.
type Selector struct {
	catalog      catalog.Catalog
	history      history.Store
	rnd          *rand.Rand
	cooldownDays int
	now          func() time.Time
	logger       *slog.Logger
}

// New creates a selector. rnd may be nil for a time-seeded source and now
// may be nil for time.Now. cooldownDays <= 0 derives the cooldown from the
// pool size so a category cycles fully before repeating.
func New(cat catalog.Catalog, hist history.Store, rnd *rand.Rand, cooldownDays int, now func() time.Time, logger *slog.Logger) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		catalog:      cat,
		history:      hist,
		rnd:          rnd,
		cooldownDays: cooldownDays,
		now:          now,
		logger:       logger,
	}
}

// ForDate returns every record of the given calendar categories matching the
// target date that has not already been posted today. Re-running the same
// date command on the same day therefore selects nothing the second time.
func (s *Selector) ForDate(ctx context.Context, categories []catalog.Category, target time.Time) ([]catalog.Record, error) {
	var selected []catalog.Record
	for _, category := range categories {
		records, err := s.catalog.Load(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, r := range datematch.Match(records, target) {
			postedAt, posted, err := s.history.Get(ctx, r.Category, r.ID)
			if err != nil {
				return nil, err
			}
			if posted && sameDay(postedAt, s.now()) {
				s.logger.Info("already posted today, skipping",
					"category", r.Category, "id", r.ID, "posted_at", postedAt)
				continue
			}
			selected = append(selected, r)
		}
	}
	return selected, nil
}

// ByID returns the record with the given id or slug. An explicit request
// always attempts to post, so posting history is not consulted here.
func (s *Selector) ByID(ctx context.Context, category catalog.Category, id string) (catalog.Record, error) {
	return s.catalog.GetByID(ctx, category, id)
}

// Random picks one record uniformly from the given glossary categories,
// excluding records posted within the cooldown window. If the entire pool
// is cooling down it falls back to the full pool rather than failing.
func (s *Selector) Random(ctx context.Context, categories []catalog.Category) (catalog.Record, error) {
	var pool []catalog.Record
	for _, category := range categories {
		records, err := s.catalog.Load(ctx, category)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("category data file missing, skipping", "category", category)
				continue
			}
			return catalog.Record{}, err
		}
		pool = append(pool, records...)
	}
	if len(pool) == 0 {
		return catalog.Record{}, fmt.Errorf("%w: no records in requested categories", catalog.ErrNotFound)
	}

	cooldown := s.cooldownDays
	if cooldown <= 0 {
		cooldown = len(pool) - 1
	}
	window := time.Duration(cooldown) * 24 * time.Hour

	var eligible []catalog.Record
	for _, r := range pool {
		postedAt, posted, err := s.history.Get(ctx, r.Category, r.ID)
		if err != nil {
			return catalog.Record{}, err
		}
		if posted && s.now().Sub(postedAt) < window {
			continue
		}
		eligible = append(eligible, r)
	}
	if len(eligible) == 0 {
		s.logger.Info("entire pool within cooldown, falling back to full pool",
			"pool", len(pool), "cooldown_days", cooldown)
		eligible = pool
	}

	return eligible[s.rnd.Intn(len(eligible))], nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
