// Package domain holds the voiceout entities and their error codes.
package domain

import (
	"time"

	"github.com/uptrace/bun"
)

// Error codes.
const (
	CodePostNotFound     = "VOICE_OUT_NOT_FOUND"
	CodeFeedbackNotFound = "FEEDBACK_NOT_FOUND"
	CodePostConflict     = "VOICE_OUT_ALREADY_EXISTS"
	CodeFeedbackConflict = "FEEDBACK_ALREADY_EXISTS"
)

// Post is a published voice out. It is immutable once created.
type Post struct {
	bun.BaseModel `bun:"table:voice_outs,alias:vo" json:"-"`

	ID       string    `bun:"id,pk"              json:"id"`
	VoiceOut string    `bun:"voice_out,notnull"  json:"voice_out"`
	Date     time.Time `bun:"date,notnull"       json:"date"`
	// Media is the filestore reference of the attached file, nil without one.
	Media     *string `bun:"media"               json:"media"`
	MediaType string  `bun:"media_type,nullzero" json:"media_type,omitempty"`
}

// Feedback is a free-text message from a user.
type Feedback struct {
	bun.BaseModel `bun:"table:feedbacks,alias:fb" json:"-"`

	ID       string    `bun:"id,pk"            json:"id"`
	Email    string    `bun:"email,notnull"    json:"email"`
	Feedback string    `bun:"feedback,notnull" json:"feedback"`
	Subject  *string   `bun:"subject"          json:"subject"`
	Date     time.Time `bun:"date,notnull"     json:"date"`
}
