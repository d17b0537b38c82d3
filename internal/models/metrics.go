package models

import "time"

// SystemMetrics is a JSON snapshot of the process counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	PersistenceWrites        uint64    `json:"persistenceWrites"`
	PersistenceFailures      uint64    `json:"persistenceFailures"`
	NotificationsDelivered   uint64    `json:"notificationsDelivered"`
	NotificationsFailed      uint64    `json:"notificationsFailed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
