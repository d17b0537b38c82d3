package models

import "time"

// FeedbackType is the tone of a transient message.
type FeedbackType string

const (
	FeedbackSuccess FeedbackType = "success"
	FeedbackError   FeedbackType = "error"
	FeedbackInfo    FeedbackType = "info"
)

// Feedback is a short-lived, dismissible message describing the outcome
// of an operation.
type Feedback struct {
	ID        string       `json:"id"`
	Message   string       `json:"message"`
	Type      FeedbackType `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Outcome summarises a completed mutating operation for the caller.
type Outcome struct {
	Feedback  Feedback `json:"feedback"`
	Persisted bool     `json:"persisted"`
	Notified  int      `json:"notified"`
}
