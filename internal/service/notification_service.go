package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	"github.com/noah-isme/pocket-university-api/internal/store"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationService writes derived notifications and serves a user's
// inbox.
type NotificationService struct {
	store   *store.Store
	repo    notificationRepository
	persist persister
	metrics *MetricsService
	cache   *CacheService
	now     Clock
	logger  *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(st *store.Store, repo notificationRepository, metrics *MetricsService, cache *CacheService, now Clock, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = systemClock
	}
	return &NotificationService{
		store:   st,
		repo:    repo,
		persist: newPersister(metrics, logger),
		metrics: metrics,
		cache:   cache,
		now:     now,
		logger:  logger,
	}
}

// Compose returns the notification text for one recipient of event.
func Compose(event Event, r Recipient) (title, message string) {
	code := event.Course.Code
	switch event.Kind {
	case EventClassRepAssigned:
		return "Role Assigned", fmt.Sprintf("You have been assigned as CR for course %s", code)
	case EventCoursePublished:
		return "Course Available", fmt.Sprintf("%s is now available on your dashboard.", code)
	case EventResourceAdded:
		if r.Segment == SegmentClassRep || event.Resource == nil {
			return "New Resource", fmt.Sprintf("New file in %s", code)
		}
		return "New Resource", fmt.Sprintf("%s uploaded in %s", event.Resource.Title, code)
	case EventSessionScheduled:
		if event.Session == nil {
			return "New Class Scheduled", code
		}
		return "New Class Scheduled", fmt.Sprintf("%s: %s at %s", code, event.Session.Topic, event.Session.StartTime.Format("15:04"))
	case EventProfileUpdated:
		return "Profile Updated", "Your profile details have been successfully updated."
	default:
		return string(event.Kind), ""
	}
}

// Dispatch writes one notification per recipient. Writes run concurrently
// and independently: a failed write never cancels the others. The
// returned error joins every failed write. Failed writes are not retried.
func (s *NotificationService) Dispatch(ctx context.Context, event Event, recipients []Recipient) (int, error) {
	if len(recipients) == 0 {
		return 0, nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, r := range recipients {
		title, message := Compose(event, r)
		n := models.Notification{
			ID:        uuid.NewString(),
			UserID:    r.UserID,
			Title:     title,
			Message:   message,
			Type:      models.NotificationInfo,
			Timestamp: s.now(),
		}
		s.store.PrependNotification(n)

		wg.Add(1)
		go func(n models.Notification) {
			defer wg.Done()
			err := s.persist.write(ctx, repository.CollectionNotifications, "create", func(ctx context.Context) error {
				_, err := s.repo.Create(ctx, n)
				return err
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("notify %s: %w", n.UserID, err))
				mu.Unlock()
			}
		}(n)
	}
	wg.Wait()

	delivered := len(recipients) - len(errs)
	s.metrics.RecordFanout(string(event.Kind), delivered, len(errs))
	s.logger.Debug("notifications dispatched",
		zap.String("event", string(event.Kind)),
		zap.Int("recipients", len(recipients)),
		zap.Int("failed", len(errs)),
	)
	return delivered, errors.Join(errs...)
}

// List returns the actor's notifications newest first with the unread count.
func (s *NotificationService) List(actor *models.User) (*models.NotificationList, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	items := []models.Notification{}
	unread := 0
	for _, n := range s.store.Notifications() {
		if n.UserID != actor.ID {
			continue
		}
		items = append(items, n)
		if !n.Read {
			unread++
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return &models.NotificationList{Items: items, UnreadCount: unread}, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor *models.User, id string) (*models.Notification, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var target *models.Notification
	for _, n := range s.store.Notifications() {
		if n.ID == id {
			n := n
			target = &n
			break
		}
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	if target.UserID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "notification belongs to another user")
	}

	updated, _ := s.store.MarkNotificationRead(id)
	_ = s.persist.write(ctx, repository.CollectionNotifications, "markRead", func(ctx context.Context) error {
		return s.repo.MarkRead(ctx, id)
	})
	s.cache.InvalidateDashboards(ctx)
	return &updated, nil
}

// MarkAllRead flags every notification of the actor as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *models.User) (int, error) {
	if actor == nil {
		return 0, appErrors.ErrUnauthorized
	}
	changed := s.store.MarkAllNotificationsRead(actor.ID)
	_ = s.persist.write(ctx, repository.CollectionNotifications, "markAllRead", func(ctx context.Context) error {
		return s.repo.MarkAllRead(ctx, actor.ID)
	})
	s.cache.InvalidateDashboards(ctx)
	return changed, nil
}
