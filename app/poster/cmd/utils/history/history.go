// Package history tracks which records have already been posted, keyed by
// (category, id). It is the only persistent state of the poster: created
// empty on first run, appended after each successful post, never pruned.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/filesystem"
)

// Snapshot is the full posting state: category -> record id -> last posted.
type Snapshot map[catalog.Category]map[string]time.Time

// Store persists posting timestamps. Writing the same key twice with a later
// timestamp must be an idempotent overwrite. If concurrent invocations are
// possible the backing store has to make Put atomic per key; the bundled
// implementations guarantee that for a single process.
type Store interface {
	// Get returns the last time the record was posted, if ever.
	Get(ctx context.Context, category catalog.Category, id string) (time.Time, bool, error)

	// Put records a successful post of the record at the given time.
	Put(ctx context.Context, category catalog.Category, id string, at time.Time) error

	// All returns the complete posting state for reporting.
	All(ctx context.Context) (Snapshot, error)
}

// document is the on-disk / on-gist shape of the posting state.
type document struct {
	Posted      map[string]map[string]string `json:"posted"`
	LastUpdated string                       `json:"last_updated,omitempty"`
}

func newDocument() *document {
	return &document{Posted: make(map[string]map[string]string)}
}

func (d *document) get(category catalog.Category, id string) (time.Time, bool, error) {
	byID, ok := d.Posted[string(category)]
	if !ok {
		return time.Time{}, false, nil
	}
	raw, ok := byID[id]
	if !ok {
		return time.Time{}, false, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt timestamp for %s/%s: %w", category, id, err)
	}
	return at, true, nil
}

func (d *document) put(category catalog.Category, id string, at time.Time) {
	if d.Posted == nil {
		d.Posted = make(map[string]map[string]string)
	}
	byID, ok := d.Posted[string(category)]
	if !ok {
		byID = make(map[string]string)
		d.Posted[string(category)] = byID
	}
	byID[id] = at.UTC().Format(time.RFC3339)
	d.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}

func (d *document) snapshot() (Snapshot, error) {
	snap := make(Snapshot, len(d.Posted))
	for category, byID := range d.Posted {
		entries := make(map[string]time.Time, len(byID))
		for id, raw := range byID {
			at, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, fmt.Errorf("corrupt timestamp for %s/%s: %w", category, id, err)
			}
			entries[id] = at
		}
		snap[catalog.Category(category)] = entries
	}
	return snap, nil
}

// FileStore keeps the posting state in a local JSON file. Writes go through
// a temp file and a rename so a crash never leaves a half-written state.
type FileStore struct {
	fs   filesystem.FileSystem
	path string
}

// NewFileStore creates a file-backed store at the given path. The file is
// created on the first Put.
func NewFileStore(fs filesystem.FileSystem, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

func (s *FileStore) load(ctx context.Context) (*document, error) {
	data, err := s.fs.ReadFile(ctx, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newDocument(), nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return newDocument(), nil
	}
	doc := newDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) save(ctx context.Context, doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return s.fs.WriteFileAtomic(ctx, s.path, data, 0644)
}

func (s *FileStore) Get(ctx context.Context, category catalog.Category, id string) (time.Time, bool, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	return doc.get(category, id)
}

func (s *FileStore) Put(ctx context.Context, category catalog.Category, id string, at time.Time) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	doc.put(category, id, at)
	return s.save(ctx, doc)
}

func (s *FileStore) All(ctx context.Context) (Snapshot, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.snapshot()
}
