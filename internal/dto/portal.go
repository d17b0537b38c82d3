package dto

import (
	"time"

	"github.com/noah-isme/pocket-university-api/internal/models"
)

// SignupRequest registers a new account. Password defaults to a
// placeholder when omitted.
type SignupRequest struct {
	Name       string          `json:"name" validate:"required"`
	Email      string          `json:"email" validate:"required,email"`
	Role       models.UserRole `json:"role" validate:"required,role"`
	Department string          `json:"department" validate:"required"`
	Semester   string          `json:"semester"`
	Section    string          `json:"section"`
	Password   string          `json:"password"`
	Phone      string          `json:"phone"`
}

// CreateCourseRequest describes a new course. Empty fields take defaults.
type CreateCourseRequest struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	Department string `json:"department"`
	Semester   string `json:"semester"`
	Section    string `json:"section"`
}

// AssignClassRepRequest names the user that becomes the course's class rep.
type AssignClassRepRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// UploadResourceRequest carries the metadata of an uploaded file.
type UploadResourceRequest struct {
	Name string `json:"name" validate:"required"`
	Size int64  `json:"size" validate:"gte=0"`
}

// ScheduleSessionRequest schedules a lecture. StartTime defaults to now and
// Duration to 60 minutes.
type ScheduleSessionRequest struct {
	CourseID  string     `json:"courseId" validate:"required"`
	StartTime *time.Time `json:"startTime"`
	Duration  int        `json:"duration" validate:"gte=0"`
	Topic     string     `json:"topic"`
	Room      string     `json:"room"`
}

// SendMessageRequest posts a chat message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// UpdateProfileRequest carries the fields of a self-service profile edit.
// Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Department   *string `json:"department"`
	Phone        *string `json:"phone"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profileImage"`
	IsOnline     *bool   `json:"isOnline"`
	Password     *string `json:"password"`
}

// TimetableExport is a rendered timetable file.
type TimetableExport struct {
	Filename    string
	ContentType string
	Data        []byte
}
