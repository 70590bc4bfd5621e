// Package publisher posts finished text to X through the v2 API, signing
// requests with OAuth 1.0a user context.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the X API root.
const DefaultBaseURL = "https://api.x.com"

// Publisher accepts finished text and returns the platform id of the
// created post.
type Publisher interface {
	Publish(ctx context.Context, text string) (string, error)
}

// PublishError describes a failed publish attempt. Retryable failures
// (network errors, rate limiting, server errors) may be attempted once more
// with backoff; anything else is permanent for this run.
type PublishError struct {
	Reason    string
	Retryable bool
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed: %s", e.Reason)
}

// XClient publishes via POST /2/tweets.
type XClient struct {
	httpClient *http.Client
	baseURL    string
}

// Credentials are the four OAuth 1.0a user-context secrets of the bot
// account.
type Credentials struct {
	APIKey            string
	APIKeySecret      string
	AccessToken       string
	AccessTokenSecret string
}

// NewXClient creates a publisher for the given bot account. baseURL may be
// empty for the production API; tests point it at a local server.
func NewXClient(creds Credentials, baseURL string) *XClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &XClient{
		httpClient: newOAuth1Client(creds),
		baseURL:    baseURL,
	}
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func (c *XClient) Publish(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(createTweetRequest{Text: text})
	if err != nil {
		return "", &PublishError{Reason: fmt.Sprintf("failed to encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return "", &PublishError{Reason: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &PublishError{Reason: fmt.Sprintf("request failed: %v", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &PublishError{
			Reason:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, respBody),
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var created createTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", &PublishError{Reason: fmt.Sprintf("failed to parse response: %v", err)}
	}
	if created.Data.ID == "" {
		return "", &PublishError{Reason: "API response contained no post id"}
	}
	return created.Data.ID, nil
}

// timeout for a single publish call, generous for a batch job.
const publishTimeout = 30 * time.Second
