package models

import "time"

// DefaultSessionDuration applies when a session is scheduled without one.
const DefaultSessionDuration = 60

// ClassSession is a scheduled lecture of a course. Duration is in minutes.
type ClassSession struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	TeacherID string    `json:"teacherId"`
	StartTime time.Time `json:"startTime"`
	Duration  int       `json:"duration"`
	Topic     string    `json:"topic"`
	Room      string    `json:"room"`
}

// EndTime returns the scheduled end of the session.
func (s ClassSession) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.Duration) * time.Minute)
}
