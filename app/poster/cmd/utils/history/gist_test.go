package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGistAPI emulates the two gist endpoints the store uses.
type fakeGistAPI struct {
	mu      sync.Mutex
	content string
	fetches int
	saves   int
	fail5xx int // fail this many requests with 500 before succeeding
}

func (f *fakeGistAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.fail5xx > 0 {
			f.fail5xx--
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		switch r.Method {
		case http.MethodGet:
			f.fetches++
			if f.content == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			resp := map[string]any{
				"files": map[string]any{
					gistStateFile: map[string]any{"content": f.content},
				},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		case http.MethodPatch:
			f.saves++
			var patch struct {
				Files map[string]struct {
					Content string `json:"content"`
				} `json:"files"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			f.content = patch.Files[gistStateFile].Content
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func TestGistStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should start empty when the gist does not exist yet", func(t *testing.T) {
		api := &fakeGistAPI{}
		server := httptest.NewServer(api.handler(t))
		defer server.Close()

		store := NewGistStore("abc123", "token", server.URL, nil)
		_, posted, err := store.Get(ctx, catalog.CategorySpell, "lumos")
		require.NoError(t, err)
		assert.False(t, posted)
	})

	t.Run("should round-trip a post through the gist", func(t *testing.T) {
		api := &fakeGistAPI{}
		server := httptest.NewServer(api.handler(t))
		defer server.Close()

		store := NewGistStore("abc123", "token", server.URL, nil)
		at := time.Date(2026, time.July, 31, 9, 0, 0, 0, time.UTC)

		require.NoError(t, store.Put(ctx, catalog.CategoryBirthday, "harry", at))
		assert.Equal(t, 1, api.saves)

		got, posted, err := store.Get(ctx, catalog.CategoryBirthday, "harry")
		require.NoError(t, err)
		assert.True(t, posted)
		assert.True(t, got.Equal(at))
	})

	t.Run("should retry a transient server error", func(t *testing.T) {
		api := &fakeGistAPI{fail5xx: 1}
		server := httptest.NewServer(api.handler(t))
		defer server.Close()

		store := NewGistStore("abc123", "token", server.URL, nil)
		_, posted, err := store.Get(ctx, catalog.CategorySpell, "lumos")
		require.NoError(t, err)
		assert.False(t, posted)
		assert.Equal(t, 1, api.fetches)
	})

	t.Run("should not retry a client error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		store := NewGistStore("abc123", "bad-token", server.URL, nil)
		_, _, err := store.Get(ctx, catalog.CategorySpell, "lumos")
		assert.Error(t, err)
	})
}
