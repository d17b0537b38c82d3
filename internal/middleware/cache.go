package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/models"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	feedbackKey     = "feedback"
	persistedKey    = "persisted"
	notifiedKey     = "notified"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records cache hit information for the current response.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// SetOutcome exposes the feedback of a mutating operation together with
// its persistence and fan-out results.
func SetOutcome(c *gin.Context, outcome models.Outcome) {
	meta := ensureMeta(c)
	if outcome.Feedback.ID != "" {
		meta[feedbackKey] = outcome.Feedback
	}
	meta[persistedKey] = outcome.Persisted
	meta[notifiedKey] = outcome.Notified
}

// SetFeedback exposes a single feedback item without an outcome.
func SetFeedback(c *gin.Context, feedback models.Feedback) {
	if feedback.ID == "" {
		return
	}
	ensureMeta(c)[feedbackKey] = feedback
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok && len(typed) > 0 {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
