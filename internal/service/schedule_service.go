package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
	"github.com/noah-isme/pocket-university-api/pkg/export"
)

type sessionRepository interface {
	Create(ctx context.Context, s models.ClassSession) (models.ClassSession, error)
}

const (
	defaultSessionTopic = "Class Session"
	defaultSessionRoom  = "Online"
	upcomingGrace       = 2 * time.Hour
)

// ScheduleService schedules lectures and serves timetables.
type ScheduleService struct {
	deps    EngineDeps
	repo    sessionRepository
	persist persister
}

// NewScheduleService constructs the service.
func NewScheduleService(deps EngineDeps, repo sessionRepository) *ScheduleService {
	deps = deps.withDefaults()
	return &ScheduleService{deps: deps, repo: repo, persist: deps.persister()}
}

// Schedule adds a session to a course owned by the acting Teacher. The
// cohort is notified only when the course is already published.
func (s *ScheduleService) Schedule(ctx context.Context, actor *models.User, req dto.ScheduleSessionRequest) (*models.ClassSession, models.Outcome, error) {
	const failure = "Failed to schedule class"
	if err := requireActor(actor); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	if err := s.deps.validate(req); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	course, ok := s.deps.Store.FindCourse(req.CourseID)
	if !ok {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrNotFound, "course not found"))
	}
	if course.TeacherID != actor.ID {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrForbidden, "only the owning teacher schedules classes"))
	}

	start := s.deps.IDs.Now()
	if req.StartTime != nil && !req.StartTime.IsZero() {
		start = *req.StartTime
	}
	duration := req.Duration
	if duration <= 0 {
		duration = models.DefaultSessionDuration
	}
	session := models.ClassSession{
		ID:        s.deps.IDs.Next("S"),
		CourseID:  course.ID,
		TeacherID: actor.ID,
		StartTime: start,
		Duration:  duration,
		Topic:     firstNonEmpty(req.Topic, defaultSessionTopic),
		Room:      firstNonEmpty(req.Room, defaultSessionRoom),
	}
	s.deps.Store.InsertSession(session)

	persistErr := s.persist.write(ctx, repository.CollectionSessions, "create", func(ctx context.Context) error {
		_, err := s.repo.Create(ctx, session)
		return err
	})
	event := Event{Kind: EventSessionScheduled, ActorID: actor.ID, Course: course, Session: &session}
	outcome := s.deps.complete(ctx, &event, persistErr, "Class session scheduled", failure)
	return &session, outcome, nil
}

// ListVisible returns the sessions of every course the actor can see,
// ordered by start time.
func (s *ScheduleService) ListVisible(actor *models.User) ([]models.ClassSession, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	visible := map[string]struct{}{}
	for _, c := range VisibleCourses(*actor, s.deps.Store.Courses()) {
		visible[c.ID] = struct{}{}
	}
	out := []models.ClassSession{}
	for _, session := range s.deps.Store.Sessions() {
		if _, ok := visible[session.CourseID]; ok {
			out = append(out, session)
		}
	}
	return out, nil
}

// Upcoming returns at most limit visible sessions that started no earlier
// than two hours ago. A non-positive limit returns them all.
func (s *ScheduleService) Upcoming(actor *models.User, limit int) ([]models.ClassSession, error) {
	sessions, err := s.ListVisible(actor)
	if err != nil {
		return nil, err
	}
	cutoff := s.deps.IDs.Now().Add(-upcomingGrace)
	out := []models.ClassSession{}
	for _, session := range sessions {
		if session.StartTime.Before(cutoff) {
			continue
		}
		out = append(out, session)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ExportTimetable renders the actor's visible sessions as CSV or PDF.
func (s *ScheduleService) ExportTimetable(actor *models.User, format export.Format) (*dto.TimetableExport, error) {
	sessions, err := s.ListVisible(actor)
	if err != nil {
		return nil, err
	}
	courses := map[string]models.Course{}
	for _, c := range s.deps.Store.Courses() {
		courses[c.ID] = c
	}

	table := export.Table{
		Title:   fmt.Sprintf("Timetable - %s", actor.Name),
		Columns: []string{"Course", "Title", "Topic", "Start", "End", "Minutes", "Room"},
	}
	for _, session := range sessions {
		course := courses[session.CourseID]
		table.Rows = append(table.Rows, []string{
			course.Code,
			course.Title,
			session.Topic,
			session.StartTime.Format("2006-01-02 15:04"),
			session.EndTime().Format("15:04"),
			strconv.Itoa(session.Duration),
			session.Room,
		})
	}

	data, err := export.Render(table, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &dto.TimetableExport{
		Filename:    fmt.Sprintf("timetable-%s.%s", actor.ID, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}
