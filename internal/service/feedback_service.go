package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pocket-university-api/internal/models"
)

const defaultFeedbackTTL = 5 * time.Second

// FeedbackService keeps the short-lived outcome messages shown after each
// operation. Messages expire on their own; expired entries are dropped
// whenever the queue is touched.
type FeedbackService struct {
	mu    sync.Mutex
	items []models.Feedback
	ttl   time.Duration
	now   Clock
}

// NewFeedbackService constructs the queue.
func NewFeedbackService(ttl time.Duration, now Clock) *FeedbackService {
	if ttl <= 0 {
		ttl = defaultFeedbackTTL
	}
	if now == nil {
		now = systemClock
	}
	return &FeedbackService{ttl: ttl, now: now}
}

// Push records a message of the given tone.
func (s *FeedbackService) Push(kind models.FeedbackType, message string) models.Feedback {
	if s == nil {
		return models.Feedback{Message: message, Type: kind}
	}
	now := s.now()
	item := models.Feedback{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.items = append(s.items, item)
	return item
}

// Success records a success message.
func (s *FeedbackService) Success(message string) models.Feedback {
	return s.Push(models.FeedbackSuccess, message)
}

// Error records a failure message.
func (s *FeedbackService) Error(message string) models.Feedback {
	return s.Push(models.FeedbackError, message)
}

// Info records an informational message.
func (s *FeedbackService) Info(message string) models.Feedback {
	return s.Push(models.FeedbackInfo, message)
}

// Active returns unexpired messages, oldest first.
func (s *FeedbackService) Active() []models.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return append([]models.Feedback{}, s.items...)
}

// Dismiss removes a message before it expires.
func (s *FeedbackService) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *FeedbackService) pruneLocked(now time.Time) {
	kept := s.items[:0]
	for _, item := range s.items {
		if now.Before(item.ExpiresAt) {
			kept = append(kept, item)
		}
	}
	s.items = kept
}
