// Package renderer turns a selected record into the final postable text.
//
// Grouped calendar entries that share one date are rendered as one post per
// member, never merged; the orchestrator publishes them sequentially. Text
// over the platform limit is rejected with ErrTextTooLong instead of being
// truncated, since a cut-off post could drop names or tags.
package renderer

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
)

// ErrTextTooLong is returned when a post exceeds the platform limit.
var ErrTextTooLong = errors.New("post text exceeds length limit")

// DefaultMaxLength is the X post limit in characters.
const DefaultMaxLength = 280

// Renderer validates and produces final post text.
type Renderer struct {
	maxLength int
}

// New creates a renderer enforcing the given character limit.
// maxLength <= 0 selects DefaultMaxLength.
func New(maxLength int) Renderer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return Renderer{maxLength: maxLength}
}

// Render returns the postable text for a record.
func (r Renderer) Render(record catalog.Record) (string, error) {
	text, err := r.RenderText(record.TweetText)
	if err != nil {
		return "", fmt.Errorf("record %s/%s: %w", record.Category, record.ID, err)
	}
	return text, nil
}

// RenderText validates free-form text against the length limit. Length is
// counted in runes, matching how the platform counts Japanese text.
func (r Renderer) RenderText(text string) (string, error) {
	if count := utf8.RuneCountInString(text); count > r.maxLength {
		return "", fmt.Errorf("%w: %d > %d characters", ErrTextTooLong, count, r.maxLength)
	}
	return text, nil
}
