package models

import (
	"fmt"
	"strings"
)

// UserRole represents the single role a portal account holds.
type UserRole string

const (
	RoleTeacher  UserRole = "Teacher"
	RoleClassRep UserRole = "CR"
	RoleStudent  UserRole = "Student"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleTeacher, RoleClassRep, RoleStudent:
		return true
	default:
		return false
	}
}

// IDPrefix returns the prefix every user id of this role starts with.
func (r UserRole) IDPrefix() string {
	switch r {
	case RoleTeacher:
		return "T"
	case RoleClassRep:
		return "CR"
	case RoleStudent:
		return "ST"
	default:
		return ""
	}
}

// RequiresCohort reports whether accounts of this role belong to a
// semester and section.
func (r UserRole) RequiresCohort() bool {
	return r == RoleStudent || r == RoleClassRep
}

// User is a portal account. Field names mirror the stored documents.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Initials     string   `json:"initials"`
	Email        string   `json:"email"`
	Role         UserRole `json:"role"`
	Department   string   `json:"department"`
	Semester     string   `json:"semester"`
	Section      string   `json:"section"`
	Password     string   `json:"password"`
	IsOnline     bool     `json:"isOnline"`
	ProfileImage string   `json:"profileImage"`
	Phone        string   `json:"phone"`
	Bio          string   `json:"bio"`
}

// PublicUser is the client-facing view of a User; the shadowing field keeps
// the stored secret out of responses.
type PublicUser struct {
	User
	Password string `json:"password,omitempty"`
}

// Public returns the client-facing view of u.
func (u User) Public() PublicUser {
	return PublicUser{User: u}
}

// PublicUsers maps a slice of users to their client-facing views.
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

// CheckInvariants verifies the id prefix and cohort fields match the role.
func (u User) CheckInvariants() error {
	if !u.Role.Valid() {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	prefix := u.Role.IDPrefix()
	rest := strings.TrimPrefix(u.ID, prefix)
	if rest == u.ID || rest == "" {
		return fmt.Errorf("id %q does not carry role prefix %q", u.ID, prefix)
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return fmt.Errorf("id %q does not carry role prefix %q", u.ID, prefix)
		}
	}
	if u.Role.RequiresCohort() {
		if u.Semester == "" || u.Section == "" {
			return fmt.Errorf("%s accounts require semester and section", u.Role)
		}
	} else if u.Semester != "" || u.Section != "" {
		return fmt.Errorf("%s accounts carry no semester or section", u.Role)
	}
	return nil
}

// ComputeInitials returns the uppercased first letters of up to two
// space-separated name tokens.
func ComputeInitials(name string) string {
	var b strings.Builder
	for _, token := range strings.Split(name, " ") {
		if token == "" {
			continue
		}
		r := []rune(token)[0]
		b.WriteString(strings.ToUpper(string(r)))
		if len([]rune(b.String())) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "XX"
	}
	return b.String()
}
