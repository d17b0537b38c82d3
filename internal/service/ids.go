package service

import (
	"strconv"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// IDGenerator issues timestamp-derived entity ids. Ids are the millisecond
// clock reading, bumped so that two ids issued in the same millisecond
// never collide.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  Clock
}

// NewIDGenerator constructs a generator over now (system clock when nil).
func NewIDGenerator(now Clock) *IDGenerator {
	if now == nil {
		now = systemClock
	}
	return &IDGenerator{now: now}
}

// Next returns prefix followed by a strictly increasing millisecond value.
func (g *IDGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return prefix + strconv.FormatInt(ms, 10)
}

// Now exposes the generator's clock so entities share one time source.
func (g *IDGenerator) Now() time.Time {
	return g.now()
}
