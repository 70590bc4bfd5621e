package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/cenkalti/backoff/v4"
)

const (
	gistStateFile  = "glossary_state.json"
	gistAPITimeout = 10 * time.Second
)

// GistStore keeps the posting state in a private GitHub Gist, so scheduled
// runs on throwaway CI machines share one history. Transient API failures
// are retried with exponential backoff before giving up.
type GistStore struct {
	gistID  string
	token   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewGistStore creates a gist-backed store. baseURL is the GitHub API root
// and may be empty for the public github.com API.
func NewGistStore(gistID, token, baseURL string, logger *slog.Logger) *GistStore {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GistStore{
		gistID:  gistID,
		token:   token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: gistAPITimeout},
		logger:  logger,
	}
}

type gistResponse struct {
	Files map[string]struct {
		Content string `json:"content"`
	} `json:"files"`
}

type gistPatch struct {
	Files map[string]struct {
		Content string `json:"content"`
	} `json:"files"`
}

func (s *GistStore) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	return backoff.WithMaxRetries(policy, 2)
}

func (s *GistStore) load(ctx context.Context) (*document, error) {
	var doc *document
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/gists/"+s.gistID, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		s.authorize(req)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("gist fetch failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusOK:
			// parsed below
		case resp.StatusCode == http.StatusNotFound:
			// No state yet. Start empty; the first Put creates it.
			s.logger.Warn("gist not found, starting with empty history", "gist", s.gistID)
			doc = newDocument()
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("gist fetch returned status %d", resp.StatusCode)
		default:
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("gist fetch returned status %d: %s", resp.StatusCode, body))
		}

		var gist gistResponse
		if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse gist response: %w", err))
		}
		file, ok := gist.Files[gistStateFile]
		if !ok || file.Content == "" {
			doc = newDocument()
			return nil
		}
		parsed := newDocument()
		if err := json.Unmarshal([]byte(file.Content), parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse gist state %s: %w", gistStateFile, err))
		}
		doc = parsed
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(s.retryPolicy(), ctx)); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *GistStore) save(ctx context.Context, doc *document) error {
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	patch := gistPatch{Files: map[string]struct {
		Content string `json:"content"`
	}{
		gistStateFile: {Content: string(content)},
	}}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal gist patch: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.baseURL+"/gists/"+s.gistID, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		s.authorize(req)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("gist save failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusOK {
			return nil
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("gist save returned status %d", resp.StatusCode)
		}
		respBody, _ := io.ReadAll(resp.Body)
		return backoff.Permanent(fmt.Errorf("gist save returned status %d: %s", resp.StatusCode, respBody))
	}

	return backoff.Retry(operation, backoff.WithContext(s.retryPolicy(), ctx))
}

func (s *GistStore) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if s.token != "" {
		req.Header.Set("Authorization", "token "+s.token)
	}
}

func (s *GistStore) Get(ctx context.Context, category catalog.Category, id string) (time.Time, bool, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	return doc.get(category, id)
}

func (s *GistStore) Put(ctx context.Context, category catalog.Category, id string, at time.Time) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	doc.put(category, id, at)
	return s.save(ctx, doc)
}

func (s *GistStore) All(ctx context.Context) (Snapshot, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.snapshot()
}
