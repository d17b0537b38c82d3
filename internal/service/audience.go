package service

import (
	"github.com/noah-isme/pocket-university-api/internal/models"
)

// EventKind names a state change that may derive notifications.
type EventKind string

const (
	EventClassRepAssigned EventKind = "class_rep_assigned"
	EventCoursePublished  EventKind = "course_published"
	EventResourceAdded    EventKind = "resource_added"
	EventSessionScheduled EventKind = "session_scheduled"
	EventProfileUpdated   EventKind = "profile_updated"
)

// Segment explains why a recipient is in an audience.
type Segment string

const (
	SegmentClassRep Segment = "class_rep"
	SegmentCohort   Segment = "cohort"
	SegmentSelf     Segment = "self"
)

// Event is a completed state change. Course is the post-mutation course;
// Resource and Session are set for the events that create them.
type Event struct {
	Kind     EventKind
	ActorID  string
	Course   models.Course
	Resource *models.Resource
	Session  *models.ClassSession
}

// Recipient is one audience member.
type Recipient struct {
	UserID  string
	Segment Segment
}

// Audience computes who is notified about event given the current users.
// It has no side effects. Segments are independent: a class rep who also
// belongs to the cohort is listed once per segment.
func Audience(event Event, users []models.User) []Recipient {
	var out []Recipient
	add := func(id string, seg Segment) {
		if id == "" {
			return
		}
		out = append(out, Recipient{UserID: id, Segment: seg})
	}
	cohort := func() {
		target := event.Course.Cohort()
		for _, u := range users {
			if u.Role == models.RoleStudent && target.Matches(u) {
				add(u.ID, SegmentCohort)
			}
		}
	}

	switch event.Kind {
	case EventClassRepAssigned:
		add(event.Course.CRID, SegmentClassRep)
	case EventCoursePublished:
		cohort()
	case EventResourceAdded:
		if event.Course.CRID != event.ActorID {
			add(event.Course.CRID, SegmentClassRep)
		}
		if event.Course.IsPublishedToStudents {
			cohort()
		}
	case EventSessionScheduled:
		if event.Course.IsPublishedToStudents {
			cohort()
		}
	case EventProfileUpdated:
		add(event.ActorID, SegmentSelf)
	}
	return out
}
