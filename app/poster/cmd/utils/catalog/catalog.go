package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/filesystem"
)

var (
	// ErrNotFound is returned when a category has no record with the
	// requested id or slug.
	ErrNotFound = errors.New("record not found")

	// ErrDataIntegrity is returned when a data file is malformed, a record
	// misses a required field, or an id collides within its category.
	ErrDataIntegrity = errors.New("data integrity error")
)

// Record is one postable unit of content. All categories share id, slug and
// the post text; calendar categories additionally carry their date field.
type Record struct {
	ID        string `json:"id"`
	Slug      string `json:"slug,omitempty"`
	NameJA    string `json:"name_ja,omitempty"`
	NameEN    string `json:"name_en,omitempty"`
	TweetText string `json:"tweet_text_ja"`

	// Calendar fields. Exactly one is set depending on the category.
	Birthday  string `json:"birthday,omitempty"`
	Deathday  string `json:"deathday,omitempty"`
	EventDate string `json:"event_date,omitempty"`

	// Recurring marks an event that repeats annually instead of matching
	// its exact year. Ignored for non-event categories.
	Recurring bool `json:"recurring,omitempty"`

	// Category is filled in by the catalog on load, not by the data file.
	Category Category `json:"-"`
}

// DateField returns the raw date string for the record's category.
func (r Record) DateField() string {
	switch r.Category {
	case CategoryBirthday:
		return r.Birthday
	case CategoryDeathday:
		return r.Deathday
	case CategoryEvent:
		return r.EventDate
	}
	return ""
}

// Name returns the display name of the record, preferring the Japanese one.
func (r Record) Name() string {
	if r.NameJA != "" {
		return r.NameJA
	}
	return r.NameEN
}

// envelope is the on-disk shape of every data file.
type envelope struct {
	Data []Record `json:"data"`
}

// Catalog is a read-only, typed view over the category data files. It is
// rebuilt fresh each run and caches each category after the first load.
type Catalog interface {
	// Load returns all records of the category in file order.
	Load(ctx context.Context, category Category) ([]Record, error)

	// GetByID returns the record with the given id or slug.
	// Returns ErrNotFound if no such record exists.
	GetByID(ctx context.Context, category Category, id string) (Record, error)
}

type fileCatalog struct {
	fs      filesystem.FileSystem
	dataDir string
	logger  *slog.Logger
	cache   map[Category][]Record
}

// New creates a catalog over the JSON data files below dataDir.
func New(fs filesystem.FileSystem, dataDir string, logger *slog.Logger) Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &fileCatalog{
		fs:      fs,
		dataDir: dataDir,
		logger:  logger,
		cache:   make(map[Category][]Record),
	}
}

func (c *fileCatalog) Load(ctx context.Context, category Category) ([]Record, error) {
	if records, ok := c.cache[category]; ok {
		return records, nil
	}
	if !Known(string(category)) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrDataIntegrity, category)
	}

	path := category.dataFile(c.dataDir)
	exists, err := c.fs.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("data file for category %q not found at %s: %w", category, path, os.ErrNotExist)
	}
	data, err := c.fs.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrDataIntegrity, path, err)
	}

	seen := make(map[string]struct{}, len(env.Data))
	for i := range env.Data {
		env.Data[i].Category = category
		if err := validate(env.Data[i]); err != nil {
			return nil, fmt.Errorf("%w: %s record %d: %v", ErrDataIntegrity, path, i, err)
		}
		if _, dup := seen[env.Data[i].ID]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate id %q", ErrDataIntegrity, path, env.Data[i].ID)
		}
		seen[env.Data[i].ID] = struct{}{}
	}

	c.logger.Debug("category loaded", "category", category, "records", len(env.Data))
	c.cache[category] = env.Data
	return env.Data, nil
}

func (c *fileCatalog) GetByID(ctx context.Context, category Category, id string) (Record, error) {
	records, err := c.Load(ctx, category)
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.ID == id || (r.Slug != "" && r.Slug == id) {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: no %s with id %q", ErrNotFound, category, id)
}

func validate(r Record) error {
	if r.ID == "" {
		return errors.New("missing id")
	}
	if r.TweetText == "" {
		return fmt.Errorf("record %q has no tweet text", r.ID)
	}
	if r.Category.IsCalendar() {
		raw := r.DateField()
		if raw == "" {
			return fmt.Errorf("record %q has no %s date", r.ID, r.Category)
		}
		if err := checkDateField(r.Category, raw, r.Recurring); err != nil {
			return fmt.Errorf("record %q: %v", r.ID, err)
		}
	}
	return nil
}
