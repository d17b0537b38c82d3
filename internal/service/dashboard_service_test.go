package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

type memoryCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, pattern)
	c.items = map[string][]byte{}
	return nil
}

func TestDashboardSummary(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	course := createCourse(t, p, dto.CreateCourseRequest{Code: "CSE101", Semester: "3", Section: "A"})
	_, _, err := p.courses.Publish(ctx, p.user(t, "T1000"), course.ID)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, _, err = p.courses.AddResource(ctx, p.user(t, "T1000"), course.ID, dto.UploadResourceRequest{Name: "notes.pdf", Size: 1024})
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		start := p.clock.Now().Add(time.Duration(i+1) * time.Hour)
		_, _, err = p.schedules.Schedule(ctx, p.user(t, "T1000"), dto.ScheduleSessionRequest{CourseID: course.ID, StartTime: &start})
		require.NoError(t, err)
	}

	summary, cached, err := p.dashboard.Summary(ctx, p.user(t, "ST1001"))
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, summary.CourseCount)
	assert.Equal(t, 2, summary.ResourceCount)
	assert.Equal(t, 7, summary.UnreadNotifications)
	assert.Len(t, summary.RecentNotifications, 3)
	assert.Len(t, summary.UpcomingSessions, 3)

	empty, _, err := p.dashboard.Summary(ctx, p.user(t, "ST1005"))
	require.NoError(t, err)
	assert.Zero(t, empty.CourseCount)
	assert.Empty(t, empty.UpcomingSessions)
}

func TestDashboardCacheHitAndInvalidation(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	repo := newMemoryCache()
	cache := NewCacheService(repo, p.metrics, time.Minute, nil, true)
	p.dashboard = NewDashboardService(p.store, p.schedules, cache, nil, DashboardServiceConfig{})
	p.courses.deps.Cache = cache

	_, cached, err := p.dashboard.Summary(ctx, p.user(t, "T1000"))
	require.NoError(t, err)
	assert.False(t, cached)

	again, cached, err := p.dashboard.Summary(ctx, p.user(t, "T1000"))
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Zero(t, again.CourseCount)

	createCourse(t, p, dto.CreateCourseRequest{Code: "CSE101"})
	assert.Equal(t, []string{"dashboard:*"}, repo.invalidated)

	fresh, cached, err := p.dashboard.Summary(ctx, p.user(t, "T1000"))
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, fresh.CourseCount)
	assert.Equal(t, uint64(1), p.metrics.Snapshot().CacheHits)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	var nilCache *CacheService
	hit, err := nilCache.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	nilCache.InvalidateDashboards(context.Background())

	disabled := NewCacheService(newMemoryCache(), nil, 0, nil, false)
	assert.False(t, disabled.Enabled())
	require.NoError(t, disabled.Set(context.Background(), "k", 1, 0))
}
