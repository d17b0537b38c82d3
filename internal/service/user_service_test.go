package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

func strPtr(s string) *string {
	return &s
}

func TestUpdateProfileRecomputesInitialsAndNotifiesSelf(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	_, ok := p.auth.Login(ctx, models.LoginRequest{Identifier: "ST1001", Password: "123"})
	require.True(t, ok)

	updated, outcome, err := p.users.UpdateProfile(ctx, p.user(t, "ST1001"), dto.UpdateProfileRequest{
		Name:  strPtr("zara khan"),
		Phone: strPtr(" 01700000000 "),
	})
	require.NoError(t, err)

	assert.Equal(t, "ZK", updated.Initials)
	assert.Equal(t, "01700000000", updated.Phone)
	assert.Empty(t, updated.Password)
	assert.Equal(t, "Profile updated", outcome.Feedback.Message)
	assert.Equal(t, []string{"Profile Updated"}, p.inbox("ST1001"))
	assert.Len(t, p.store.Notifications(), 1)

	current, ok := p.auth.Current()
	require.True(t, ok)
	assert.Equal(t, "zara khan", current.Name)
	assert.Equal(t, "zara khan", p.slot.user.Name)
}

func TestUpdateProfileKeepsSemesterAndRejectsTakenEmail(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()

	_, _, err := p.users.UpdateProfile(ctx, p.user(t, "ST1001"), dto.UpdateProfileRequest{Email: strPtr("grace@pocket.edu")})
	assertCode(t, err, appErrors.ErrConflict.Code)

	_, _, err = p.users.UpdateProfile(ctx, p.user(t, "ST1001"), dto.UpdateProfileRequest{Name: strPtr("  ")})
	assertCode(t, err, appErrors.ErrValidation.Code)

	updated, _, err := p.users.UpdateProfile(ctx, p.user(t, "ST1001"), dto.UpdateProfileRequest{Password: strPtr("n3w")})
	require.NoError(t, err)
	assert.Equal(t, "3", updated.Semester)
	stored, _ := p.store.FindUser("ST1001")
	assert.True(t, secretMatches(stored.Password, "n3w"))
	assert.Empty(t, p.inbox("ST1002"))
}

func TestUserDirectory(t *testing.T) {
	p := newPortal(t)

	teachers, err := p.users.List(models.RoleTeacher, "")
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "Alan Turing", teachers[0].Name)

	found, err := p.users.List("", "eee")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ST1004", found[0].ID)

	byInitials, err := p.users.List("", "GH")
	require.NoError(t, err)
	require.Len(t, byInitials, 1)
	assert.Equal(t, "T1000", byInitials[0].ID)

	_, err = p.users.List("Dean", "")
	assertCode(t, err, appErrors.ErrValidation.Code)

	u, err := p.users.Get("CR2000")
	require.NoError(t, err)
	assert.Equal(t, models.RoleClassRep, u.Role)

	_, err = p.users.Get("nobody")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}
