package service

import (
	"strings"

	"github.com/noah-isme/pocket-university-api/internal/models"
)

// CanView reports whether u may see course c:
//   - a Teacher sees the courses they own;
//   - a class rep sees the courses naming them as crId, published or not;
//   - a Student sees a published course whose department, semester and
//     section all equal their own.
func CanView(u models.User, c models.Course) bool {
	switch u.Role {
	case models.RoleTeacher:
		return c.TeacherID == u.ID
	case models.RoleClassRep:
		return c.CRID != "" && c.CRID == u.ID
	case models.RoleStudent:
		return c.IsPublishedToStudents && c.Cohort().Matches(u)
	default:
		return false
	}
}

// VisibleCourses filters courses down to those u may see, keeping order.
func VisibleCourses(u models.User, courses []models.Course) []models.Course {
	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if CanView(u, c) {
			out = append(out, c)
		}
	}
	return out
}

// actsAsClassRep reports whether the actor operates on c in its class rep
// capacity.
func actsAsClassRep(actor models.User, c models.Course) bool {
	return actor.Role == models.RoleClassRep || (c.CRID != "" && c.CRID == actor.ID)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
