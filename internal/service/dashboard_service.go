package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/store"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL            time.Duration
	RecentNotifications int
	UpcomingSessions    int
}

// DashboardService composes the landing summary of a user.
type DashboardService struct {
	store     *store.Store
	schedules *ScheduleService
	cache     *CacheService
	logger    *zap.Logger
	now       Clock
	cfg       DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(st *store.Store, schedules *ScheduleService, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.RecentNotifications <= 0 {
		cfg.RecentNotifications = 3
	}
	if cfg.UpcomingSessions <= 0 {
		cfg.UpcomingSessions = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{store: st, schedules: schedules, cache: cache, logger: logger, now: systemClock, cfg: cfg}
}

// Summary returns the actor's dashboard and whether it came from cache.
func (s *DashboardService) Summary(ctx context.Context, actor *models.User) (*models.DashboardSummary, bool, error) {
	if err := requireActor(actor); err != nil {
		return nil, false, err
	}

	key := dashboardKey(actor.ID)
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	courses := VisibleCourses(*actor, s.store.Courses())
	resources := 0
	for _, c := range courses {
		resources += len(c.Resources)
	}

	recent := []models.Notification{}
	unread := 0
	for _, n := range s.store.Notifications() {
		if n.UserID != actor.ID {
			continue
		}
		if !n.Read {
			unread++
		}
		if len(recent) < s.cfg.RecentNotifications {
			recent = append(recent, n)
		}
	}

	upcoming, err := s.schedules.Upcoming(actor, s.cfg.UpcomingSessions)
	if err != nil {
		return nil, false, appErrors.FromError(err)
	}

	summary := &models.DashboardSummary{
		UserID:              actor.ID,
		Role:                actor.Role,
		CourseCount:         len(courses),
		ResourceCount:       resources,
		UnreadNotifications: unread,
		RecentNotifications: recent,
		UpcomingSessions:    upcoming,
		GeneratedAt:         s.now(),
	}

	if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("dashboard cache write skipped", zap.String("user_id", actor.ID), zap.Error(err))
	}
	return summary, false, nil
}
