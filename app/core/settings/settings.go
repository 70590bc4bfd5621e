// Package settings holds the run configuration of the poster. Values come
// from environment variables (loaded from .env by the entrypoint) and are
// passed explicitly into the orchestrator instead of being read ad hoc.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultDataDir       = "data"
	defaultCooldownDays  = 0 // derive from pool size
	defaultPostMaxLength = 280
)

// Settings is the full configuration of one invocation.
type Settings struct {
	// X API user-context credentials. Required for live runs only.
	APIKey            string
	APIKeySecret      string
	AccessToken       string
	AccessTokenSecret string
	APIBaseURL        string

	// DataDir is the root of the calendar/ and glossary/ data files.
	DataDir string

	// HistoryFile is the local posting-state file, used when no gist is
	// configured.
	HistoryFile string

	// GistID and GistToken select the gist-backed history store shared
	// between scheduled runs.
	GistID    string
	GistToken string

	// CooldownDays is the random-selection cooldown window. Zero derives
	// it from the pool size so a category cycles fully before repeating.
	CooldownDays int

	// PostMaxLength is the platform character limit.
	PostMaxLength int

	// RandomSeed fixes the random source for reproducible runs. Zero
	// seeds from the clock.
	RandomSeed int64

	LogLevel string
}

// New reads settings from the environment, applying defaults.
func New() (*Settings, error) {
	s := &Settings{
		APIKey:            os.Getenv("X_API_KEY"),
		APIKeySecret:      os.Getenv("X_API_KEY_SECRET"),
		AccessToken:       os.Getenv("X_ACCESS_TOKEN"),
		AccessTokenSecret: os.Getenv("X_ACCESS_TOKEN_SECRET"),
		APIBaseURL:        os.Getenv("X_API_BASE_URL"),
		DataDir:           os.Getenv("DATA_DIR"),
		HistoryFile:       os.Getenv("HISTORY_FILE"),
		GistID:            os.Getenv("GLOSSARY_STATE_GIST_ID"),
		GistToken:         os.Getenv("GIST_TOKEN"),
		CooldownDays:      defaultCooldownDays,
		PostMaxLength:     defaultPostMaxLength,
		LogLevel:          os.Getenv("LOG_LEVEL"),
	}

	if s.DataDir == "" {
		s.DataDir = defaultDataDir
	}
	if s.HistoryFile == "" {
		s.HistoryFile = filepath.Join(s.DataDir, "state", "posting_history.json")
	}
	if s.GistToken == "" {
		s.GistToken = os.Getenv("GITHUB_TOKEN")
	}

	if raw := os.Getenv("COOLDOWN_DAYS"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("COOLDOWN_DAYS must be a number: %w", err)
		}
		s.CooldownDays = v
	}
	if raw := os.Getenv("POST_MAX_LENGTH"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("POST_MAX_LENGTH must be a number: %w", err)
		}
		s.PostMaxLength = v
	}
	if raw := os.Getenv("RANDOM_SEED"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("RANDOM_SEED must be a number: %w", err)
		}
		s.RandomSeed = v
	}

	return s, nil
}

// RequireCredentials verifies that all four X API secrets are present.
// Dry runs never call it.
func (s *Settings) RequireCredentials() error {
	var missing []string
	if s.APIKey == "" {
		missing = append(missing, "X_API_KEY")
	}
	if s.APIKeySecret == "" {
		missing = append(missing, "X_API_KEY_SECRET")
	}
	if s.AccessToken == "" {
		missing = append(missing, "X_ACCESS_TOKEN")
	}
	if s.AccessTokenSecret == "" {
		missing = append(missing, "X_ACCESS_TOKEN_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s (create a .env file, see .env.example)",
			strings.Join(missing, ", "))
	}
	return nil
}

// UseGist reports whether the gist-backed history store is configured.
func (s *Settings) UseGist() bool {
	return s.GistID != "" && s.GistToken != ""
}

// SlogLevel maps the LOG_LEVEL setting onto a slog level, defaulting to info.
func (s *Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
