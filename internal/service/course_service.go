package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, c models.Course) (models.Course, error)
	Update(ctx context.Context, c models.Course) (models.Course, error)
}

// Course field defaults.
const (
	defaultCourseCode       = "UNK"
	defaultCourseTitle      = "Untitled Course"
	defaultCourseSemester   = "1"
	defaultCourseSection    = "A"
	defaultCourseDepartment = "Gen"
)

// CourseService implements the course lifecycle: create, class rep
// assignment, publishing and resources.
type CourseService struct {
	deps    EngineDeps
	repo    courseRepository
	persist persister
}

// NewCourseService constructs the service.
func NewCourseService(deps EngineDeps, repo courseRepository) *CourseService {
	deps = deps.withDefaults()
	return &CourseService{deps: deps, repo: repo, persist: deps.persister()}
}

// Create adds a draft course owned by the acting Teacher.
func (s *CourseService) Create(ctx context.Context, actor *models.User, req dto.CreateCourseRequest) (*models.Course, models.Outcome, error) {
	const failure = "Failed to create course"
	if err := requireActor(actor); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	if actor.Role != models.RoleTeacher {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrForbidden, "only teachers create courses"))
	}

	course := models.Course{
		ID:         s.deps.IDs.Next("C"),
		Code:       firstNonEmpty(req.Code, defaultCourseCode),
		Title:      firstNonEmpty(req.Title, defaultCourseTitle),
		Department: firstNonEmpty(req.Department, actor.Department, defaultCourseDepartment),
		Semester:   firstNonEmpty(req.Semester, defaultCourseSemester),
		Section:    firstNonEmpty(req.Section, defaultCourseSection),
		TeacherID:  actor.ID,
		Resources:  []models.Resource{},
		StudentIDs: []string{},
	}
	s.deps.Store.AddCourse(course)

	persistErr := s.persist.write(ctx, repository.CollectionCourses, "create", func(ctx context.Context) error {
		_, err := s.repo.Create(ctx, course)
		return err
	})
	outcome := s.deps.complete(ctx, nil, persistErr, "Course created", failure)
	return &course, outcome, nil
}

// AssignClassRep names userID as the course's class rep and notifies them.
// Only the owning Teacher may assign; an already assigned class rep cannot
// be replaced by a different user.
func (s *CourseService) AssignClassRep(ctx context.Context, actor *models.User, courseID string, req dto.AssignClassRepRequest) (*models.Course, models.Outcome, error) {
	const failure = "Failed to assign CR"
	if err := requireActor(actor); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	if err := s.deps.validate(req); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	rep, ok := s.deps.Store.FindUser(req.UserID)
	if !ok {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrNotFound, "user not found"))
	}
	if rep.Role == models.RoleTeacher {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrValidation, "a teacher cannot be a class rep"))
	}

	course, found, err := s.deps.Store.UpdateCourse(courseID, func(c *models.Course) error {
		if c.TeacherID != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the owning teacher assigns a class rep")
		}
		if c.CRID != "" && c.CRID != rep.ID {
			return appErrors.Clone(appErrors.ErrConflict, "course already has a class rep")
		}
		c.CRID = rep.ID
		return nil
	})
	if !found {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrNotFound, "course not found"))
	}
	if err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}

	persistErr := s.persist.write(ctx, repository.CollectionCourses, "update", func(ctx context.Context) error {
		_, err := s.repo.Update(ctx, course)
		return err
	})
	event := Event{Kind: EventClassRepAssigned, ActorID: actor.ID, Course: course}
	outcome := s.deps.complete(ctx, &event, persistErr, fmt.Sprintf("CR assigned to %s", course.Code), failure)
	return &course, outcome, nil
}

// Publish makes the course visible to its student cohort and notifies that
// cohort. When the actor publishes as the course's class rep and has a
// section, the course adopts that section first. Publishing an already
// published course sends the notifications again.
func (s *CourseService) Publish(ctx context.Context, actor *models.User, courseID string) (*models.Course, models.Outcome, error) {
	const failure = "Failed to publish course"
	if err := requireActor(actor); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}

	course, found, err := s.deps.Store.UpdateCourse(courseID, func(c *models.Course) error {
		if c.TeacherID != actor.ID && c.CRID != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the owning teacher or the class rep publishes")
		}
		if actsAsClassRep(*actor, *c) && actor.Section != "" {
			c.Section = actor.Section
		}
		c.IsPublishedToStudents = true
		return nil
	})
	if !found {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrNotFound, "course not found"))
	}
	if err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}

	persistErr := s.persist.write(ctx, repository.CollectionCourses, "update", func(ctx context.Context) error {
		_, err := s.repo.Update(ctx, course)
		return err
	})
	event := Event{Kind: EventCoursePublished, ActorID: actor.ID, Course: course}
	outcome := s.deps.complete(ctx, &event, persistErr, "Course published to students", failure)
	return &course, outcome, nil
}

// AddResource appends file metadata to the course.
func (s *CourseService) AddResource(ctx context.Context, actor *models.User, courseID string, req dto.UploadResourceRequest) (*models.Resource, models.Outcome, error) {
	const failure = "Failed to upload resource"
	if err := requireActor(actor); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	if err := s.deps.validate(req); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}

	resource := models.Resource{
		ID:         s.deps.IDs.Next("R"),
		Title:      req.Name,
		Type:       models.ClassifyResource(req.Name),
		UploadedBy: actor.ID,
		UploadDate: s.deps.IDs.Now(),
		Size:       models.FormatResourceSize(req.Size),
	}
	course, found, err := s.deps.Store.UpdateCourse(courseID, func(c *models.Course) error {
		if c.TeacherID != actor.ID && c.CRID != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the owning teacher or the class rep uploads")
		}
		c.Resources = append(c.Resources, resource)
		return nil
	})
	if !found {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrNotFound, "course not found"))
	}
	if err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}

	persistErr := s.persist.write(ctx, repository.CollectionCourses, "update", func(ctx context.Context) error {
		_, err := s.repo.Update(ctx, course)
		return err
	})
	event := Event{Kind: EventResourceAdded, ActorID: actor.ID, Course: course, Resource: &resource}
	outcome := s.deps.complete(ctx, &event, persistErr, "Resource uploaded", failure)
	return &resource, outcome, nil
}

// Get returns a course the actor can see.
func (s *CourseService) Get(actor *models.User, courseID string) (*models.Course, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	course, ok := s.deps.Store.FindCourse(courseID)
	if !ok || !CanView(*actor, course) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return &course, nil
}

// ListVisible returns the courses the actor can see whose code or title
// contains query, ignoring case.
func (s *CourseService) ListVisible(actor *models.User, query string) ([]models.Course, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	visible := VisibleCourses(*actor, s.deps.Store.Courses())
	if query == "" {
		return visible, nil
	}
	out := make([]models.Course, 0, len(visible))
	for _, c := range visible {
		if containsFold(c.Code, query) || containsFold(c.Title, query) {
			out = append(out, c)
		}
	}
	s.deps.Logger.Debug("course search", zap.String("query", query), zap.Int("matches", len(out)))
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
