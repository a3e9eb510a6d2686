package db

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// Page represents a cached fetch result
type Page struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	HTML        *string   `json:"html,omitempty"`
	Text        string    `json:"text"`
	ContentType *string   `json:"content_type,omitempty"`
	ContentHash *string   `json:"content_hash,omitempty"`
	HTTPStatus  int       `json:"http_status"`
	FetchedAt   time.Time `json:"fetched_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsFresh returns true if the page was fetched within maxAge
func (p *Page) IsFresh(maxAge time.Duration) bool {
	return time.Since(p.FetchedAt) < maxAge
}

// AnswerRecord is a stored answer together with the context it came from.
type AnswerRecord struct {
	ID        uuid.UUID       `json:"id"`
	Question  string          `json:"question"`
	Query     string          `json:"query"`
	Answer    string          `json:"answer"`
	ExtraData types.ExtraData `json:"extra_data"`
	Context   string          `json:"context"`
	Sources   []types.Source  `json:"sources"`
	CreatedAt time.Time       `json:"created_at"`
}

// Feedback marks an answer as good or bad.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	AnswerID  uuid.UUID `json:"answer_id"`
	Helpful   bool      `json:"helpful"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackSummary counts the feedback left on an answer.
type FeedbackSummary struct {
	Helpful   int `json:"helpful"`
	Unhelpful int `json:"unhelpful"`
}

// HashContent computes SHA-256 hash of content for change detection
func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
