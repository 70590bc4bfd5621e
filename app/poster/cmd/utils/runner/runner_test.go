package runner

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/history"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/publisher"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/renderer"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	records map[catalog.Category][]catalog.Record
}

func (f *fakeCatalog) Load(_ context.Context, category catalog.Category) ([]catalog.Record, error) {
	records, ok := f.records[category]
	if !ok {
		return nil, fmt.Errorf("data file for category %q not found: %w", category, os.ErrNotExist)
	}
	return records, nil
}

func (f *fakeCatalog) GetByID(ctx context.Context, category catalog.Category, id string) (catalog.Record, error) {
	records, err := f.Load(ctx, category)
	if err != nil {
		return catalog.Record{}, err
	}
	for _, r := range records {
		if r.ID == id || (r.Slug != "" && r.Slug == id) {
			return r, nil
		}
	}
	return catalog.Record{}, fmt.Errorf("%w: no %s with id %q", catalog.ErrNotFound, category, id)
}

type memStore struct {
	entries map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]time.Time)}
}

func (m *memStore) Get(_ context.Context, category catalog.Category, id string) (time.Time, bool, error) {
	at, ok := m.entries[string(category)+"/"+id]
	return at, ok, nil
}

func (m *memStore) Put(_ context.Context, category catalog.Category, id string, at time.Time) error {
	m.entries[string(category)+"/"+id] = at
	return nil
}

func (m *memStore) All(context.Context) (history.Snapshot, error) {
	return nil, nil
}

// fakePublisher records calls and fails the texts it is told to fail.
type fakePublisher struct {
	calls    []string
	failures map[string][]error // consumed one per call
	nextID   int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failures: make(map[string][]error)}
}

func (p *fakePublisher) failNext(text string, err error) {
	p.failures[text] = append(p.failures[text], err)
}

func (p *fakePublisher) Publish(_ context.Context, text string) (string, error) {
	p.calls = append(p.calls, text)
	if errs := p.failures[text]; len(errs) > 0 {
		p.failures[text] = errs[1:]
		return "", errs[0]
	}
	p.nextID++
	return fmt.Sprintf("post-%d", p.nextID), nil
}

type harness struct {
	runner    *Runner
	publisher *fakePublisher
	history   *memStore
	out       *bytes.Buffer
	now       time.Time
}

func newHarness(t *testing.T, records map[catalog.Category][]catalog.Record, dryRun bool) *harness {
	t.Helper()
	now := time.Date(2026, time.July, 31, 9, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	store := newMemStore()
	pub := newFakePublisher()
	out := &bytes.Buffer{}

	sel := selector.New(&fakeCatalog{records: records}, store, rand.New(rand.NewSource(1)), 0, nowFn, nil)
	run := New(Config{
		Selector:  sel,
		Renderer:  renderer.New(280),
		Publisher: pub,
		History:   store,
		Now:       nowFn,
		DryRun:    dryRun,
		Out:       out,
	})
	return &harness{runner: run, publisher: pub, history: store, out: out, now: now}
}

func birthdayRecords() map[catalog.Category][]catalog.Record {
	return map[catalog.Category][]catalog.Record{
		catalog.CategoryBirthday: {
			{ID: "harry-potter-id", Slug: "harry-potter", NameJA: "ハリー・ポッター",
				Birthday: "1980-07-31", TweetText: "🎂 今日はハリーの誕生日！",
				Category: catalog.CategoryBirthday},
		},
	}
}

func TestPostForDate(t *testing.T) {
	ctx := context.Background()
	target := time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)

	t.Run("should post the matching birthday and record history", func(t *testing.T) {
		h := newHarness(t, birthdayRecords(), false)

		report, err := h.runner.PostForDate(ctx, []catalog.Category{catalog.CategoryBirthday}, target)
		require.NoError(t, err)

		assert.Equal(t, StatusSuccess, report.Status)
		require.Len(t, report.Posted, 1)
		assert.Equal(t, "harry-potter-id", report.Posted[0].ID)
		assert.Equal(t, "post-1", report.Posted[0].PostID)
		require.Len(t, h.publisher.calls, 1)

		at, posted, err := h.history.Get(ctx, catalog.CategoryBirthday, "harry-potter-id")
		require.NoError(t, err)
		assert.True(t, posted)
		assert.True(t, at.Equal(h.now))
	})

	t.Run("should post nothing on a second run the same day", func(t *testing.T) {
		h := newHarness(t, birthdayRecords(), false)

		_, err := h.runner.PostForDate(ctx, []catalog.Category{catalog.CategoryBirthday}, target)
		require.NoError(t, err)

		report, err := h.runner.PostForDate(ctx, []catalog.Category{catalog.CategoryBirthday}, target)
		require.NoError(t, err)

		assert.Equal(t, StatusSuccess, report.Status)
		assert.Empty(t, report.Posted)
		assert.Empty(t, report.Failed)
		assert.Len(t, h.publisher.calls, 1, "no second publish call")
	})

	t.Run("should continue the batch when one record fails to publish", func(t *testing.T) {
		records := map[catalog.Category][]catalog.Record{
			catalog.CategoryDeathday: {
				{ID: "fred", Deathday: "1998-05-02", TweetText: "フレッドを偲んで", Category: catalog.CategoryDeathday},
				{ID: "remus", Deathday: "1998-05-02", TweetText: "ルーピンを偲んで", Category: catalog.CategoryDeathday},
			},
		}
		h := newHarness(t, records, false)
		h.publisher.failNext("フレッドを偲んで", &publisher.PublishError{Reason: "forbidden", Retryable: false})

		report, err := h.runner.PostForDate(ctx, []catalog.Category{catalog.CategoryDeathday},
			time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		assert.Equal(t, StatusPartial, report.Status)
		require.Len(t, report.Posted, 1)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, "fred", report.Failed[0].ID)

		// History reflects only what actually went out.
		_, posted, _ := h.history.Get(ctx, catalog.CategoryDeathday, "fred")
		assert.False(t, posted)
		_, posted, _ = h.history.Get(ctx, catalog.CategoryDeathday, "remus")
		assert.True(t, posted)
	})

	t.Run("should retry a retryable publish failure once", func(t *testing.T) {
		h := newHarness(t, birthdayRecords(), false)
		h.publisher.failNext("🎂 今日はハリーの誕生日！", &publisher.PublishError{Reason: "server error", Retryable: true})

		report, err := h.runner.PostForDate(ctx, []catalog.Category{catalog.CategoryBirthday}, target)
		require.NoError(t, err)

		assert.Equal(t, StatusSuccess, report.Status)
		assert.Len(t, h.publisher.calls, 2)
	})

	t.Run("should skip an over-limit record and keep going", func(t *testing.T) {
		records := birthdayRecords()
		records[catalog.CategoryBirthday] = append(records[catalog.CategoryBirthday], catalog.Record{
			ID: "chatty", Birthday: "1980-07-31",
			TweetText: strings.Repeat("あ", 300), Category: catalog.CategoryBirthday,
		})
		h := newHarness(t, records, false)

		report, err := h.runner.PostForDate(ctx, []catalog.Category{catalog.CategoryBirthday}, target)
		require.NoError(t, err)

		assert.Equal(t, StatusPartial, report.Status)
		require.Len(t, report.Failed, 1)
		assert.ErrorIs(t, report.Failed[0].Err, renderer.ErrTextTooLong)
		assert.Len(t, report.Posted, 1)
	})
}

func TestDryRun(t *testing.T) {
	ctx := context.Background()

	records := map[catalog.Category][]catalog.Record{
		catalog.CategoryBirthday: {},
		catalog.CategoryDeathday: {},
		catalog.CategoryEvent: {
			{ID: "e1", EventDate: "1991-09-01", Recurring: true, TweetText: "新学期です", Category: catalog.CategoryEvent},
			{ID: "e2", EventDate: "????-09-01", Recurring: true, TweetText: "特急が出ます", Category: catalog.CategoryEvent},
		},
	}
	h := newHarness(t, records, true)

	report, err := h.runner.PostForDate(ctx, catalog.CalendarCategories,
		time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Len(t, report.Posted, 2)
	assert.Empty(t, h.publisher.calls, "dry run must not publish")
	assert.Empty(t, h.history.entries, "dry run must not touch history")

	printed := h.out.String()
	assert.Contains(t, printed, "新学期です")
	assert.Contains(t, printed, "特急が出ます")
}

func TestPostByID(t *testing.T) {
	ctx := context.Background()

	t.Run("should post an explicitly requested record even if posted before", func(t *testing.T) {
		records := map[catalog.Category][]catalog.Record{
			catalog.CategorySpell: {
				{ID: "uuid-1", Slug: "lumos", TweetText: "光よ", Category: catalog.CategorySpell},
			},
		}
		h := newHarness(t, records, false)
		require.NoError(t, h.history.Put(ctx, catalog.CategorySpell, "uuid-1", h.now.Add(-time.Hour)))

		report, err := h.runner.PostByID(ctx, catalog.CategorySpell, "lumos")
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, report.Status)
		assert.Len(t, h.publisher.calls, 1)
	})

	t.Run("should surface ErrNotFound for an unknown id", func(t *testing.T) {
		h := newHarness(t, map[catalog.Category][]catalog.Record{
			catalog.CategorySpell: {},
		}, false)

		_, err := h.runner.PostByID(ctx, catalog.CategorySpell, "UNKNOWN_ID")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		assert.Empty(t, h.publisher.calls)
	})
}

func TestPostRandom(t *testing.T) {
	ctx := context.Background()
	records := map[catalog.Category][]catalog.Record{
		catalog.CategorySpell: {
			{ID: "s1", TweetText: "呪文その1", Category: catalog.CategorySpell},
			{ID: "s2", TweetText: "呪文その2", Category: catalog.CategorySpell},
		},
	}
	h := newHarness(t, records, false)

	report, err := h.runner.PostRandom(ctx, []catalog.Category{catalog.CategorySpell})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	require.Len(t, report.Posted, 1)

	_, posted, err := h.history.Get(ctx, catalog.CategorySpell, report.Posted[0].ID)
	require.NoError(t, err)
	assert.True(t, posted)
}

func TestPostText(t *testing.T) {
	ctx := context.Background()

	t.Run("should post ad-hoc text without touching history", func(t *testing.T) {
		h := newHarness(t, map[catalog.Category][]catalog.Record{}, false)

		report, err := h.runner.PostText(ctx, "テスト投稿です")
		require.NoError(t, err)

		assert.Equal(t, StatusSuccess, report.Status)
		assert.Len(t, h.publisher.calls, 1)
		assert.Empty(t, h.history.entries)
	})

	t.Run("should fail on over-limit text", func(t *testing.T) {
		h := newHarness(t, map[catalog.Category][]catalog.Record{}, false)

		report, err := h.runner.PostText(ctx, strings.Repeat("あ", 281))
		require.NoError(t, err)

		assert.Equal(t, StatusFailure, report.Status)
		assert.ErrorIs(t, report.Failed[0].Err, renderer.ErrTextTooLong)
		assert.Empty(t, h.publisher.calls)
	})
}
