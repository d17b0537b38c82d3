package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	"github.com/noah-isme/pocket-university-api/internal/store"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

func studentSignup() dto.SignupRequest {
	return dto.SignupRequest{
		Name:       "farhan  ahmed",
		Email:      "farhan@pocket.edu",
		Role:       models.RoleStudent,
		Department: "CSE",
		Semester:   "3",
		Section:    "A",
		Password:   "s3cret",
	}
}

func TestSignupThenLogin(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()

	resp, err := p.auth.Signup(ctx, studentSignup())
	require.NoError(t, err)

	user := resp.User
	assert.Regexp(t, `^ST\d{4}$`, user.ID)
	assert.Equal(t, "FA", user.Initials)
	assert.True(t, user.IsOnline)
	assert.Equal(t, "Hi, I am a Student at Pocket University.", user.Bio)
	assert.Empty(t, user.Password)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Account created successfully!", p.lastFeedback(t).Message)

	current, ok := p.auth.Current()
	require.True(t, ok)
	assert.Equal(t, user.ID, current.ID)
	assert.Equal(t, user.ID, p.slot.user.ID)

	require.NoError(t, p.auth.Logout(ctx))
	_, ok = p.auth.Current()
	assert.False(t, ok)

	login, ok := p.auth.Login(ctx, models.LoginRequest{Identifier: strings.ToLower(user.ID), Password: "s3cret"})
	require.True(t, ok)
	assert.Equal(t, user.ID, login.User.ID)
	assert.Equal(t, "Welcome back, farhan  ahmed!", p.lastFeedback(t).Message)
}

func TestSignupStoresHashAndDefaultsSecret(t *testing.T) {
	p := newPortal(t)
	req := studentSignup()
	req.Password = ""

	resp, err := p.auth.Signup(context.Background(), req)
	require.NoError(t, err)

	stored, ok := p.store.FindUser(resp.User.ID)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(stored.Password, "$2"))
	assert.True(t, secretMatches(stored.Password, "123"))
}

func TestSignupTeacherDropsCohort(t *testing.T) {
	p := newPortal(t)
	req := dto.SignupRequest{Name: "Ada", Email: "ada@pocket.edu", Role: models.RoleTeacher, Department: "CSE", Semester: "3", Section: "A"}

	resp, err := p.auth.Signup(context.Background(), req)
	require.NoError(t, err)
	assert.Regexp(t, `^T\d{4}$`, resp.User.ID)
	assert.Empty(t, resp.User.Semester)
	assert.Empty(t, resp.User.Section)
}

func TestSignupValidation(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()

	req := studentSignup()
	req.Section = ""
	_, err := p.auth.Signup(ctx, req)
	assertCode(t, err, appErrors.ErrValidation.Code)

	req = studentSignup()
	req.Role = "Dean"
	_, err = p.auth.Signup(ctx, req)
	assertCode(t, err, appErrors.ErrValidation.Code)

	req = studentSignup()
	req.Email = "MAYA@pocket.edu"
	_, err = p.auth.Signup(ctx, req)
	assertCode(t, err, appErrors.ErrConflict.Code)

	_, ok := p.auth.Current()
	assert.False(t, ok)
}

func TestSignupRegeneratesCollidingID(t *testing.T) {
	p := newPortal(t)
	draws := []int{4821, 1001, 7777}
	p.auth.idSuffix = func() int {
		next := draws[0]
		draws = draws[1:]
		return next
	}

	resp, err := p.auth.Signup(context.Background(), studentSignup())
	require.NoError(t, err)
	assert.Equal(t, "ST7777", resp.User.ID)
}

func TestSignupFallsBackToLowestFreeID(t *testing.T) {
	p := newPortal(t)
	p.auth.idSuffix = func() int { return 1001 }
	users := p.store.Users()
	users = append(users, models.User{ID: "ST1000", Role: models.RoleStudent})
	p.store.Replace(store.Snapshot{Users: users})

	resp, err := p.auth.Signup(context.Background(), studentSignup())
	require.NoError(t, err)
	assert.Equal(t, "ST1007", resp.User.ID)
}

func TestSignupRejectsWhenRoleIDsExhausted(t *testing.T) {
	p := newPortal(t)
	p.auth.idSuffix = func() int { return 1000 }
	users := p.store.Users()
	for suffix := 1000; suffix <= 9999; suffix++ {
		users = append(users, models.User{ID: fmt.Sprintf("ST%d", suffix), Role: models.RoleStudent})
	}
	p.store.Replace(store.Snapshot{Users: users})

	_, err := p.auth.Signup(context.Background(), studentSignup())
	assertCode(t, err, appErrors.ErrConflict.Code)
	assert.Len(t, p.store.Users(), len(users))
	assert.Equal(t, "Failed to create account.", p.lastFeedback(t).Message)
}

func TestSignupPersistFailureCreatesNothing(t *testing.T) {
	p := newPortal(t)
	p.backend.failOn(repository.CollectionUsers, repository.VerbInsertOne)

	_, err := p.auth.Signup(context.Background(), studentSignup())
	assertCode(t, err, appErrors.ErrPersistence.Code)
	assert.Len(t, p.store.Users(), len(seedUsers()))
	_, ok := p.auth.Current()
	assert.False(t, ok)
	assert.Equal(t, "Failed to create account.", p.lastFeedback(t).Message)
}

func TestLoginWrongSecretLeavesSessionUntouched(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()

	_, ok := p.auth.Login(ctx, models.LoginRequest{Identifier: "T1000", Password: "123"})
	require.True(t, ok)

	_, ok = p.auth.Login(ctx, models.LoginRequest{Identifier: "ST1001", Password: "wrong"})
	assert.False(t, ok)
	assert.Equal(t, "Invalid credentials", p.lastFeedback(t).Message)

	current, ok := p.auth.Current()
	require.True(t, ok)
	assert.Equal(t, "T1000", current.ID)
	assert.Equal(t, "T1000", p.slot.user.ID)
}

func TestLoginByEmailIgnoresCase(t *testing.T) {
	p := newPortal(t)

	resp, ok := p.auth.Login(context.Background(), models.LoginRequest{Identifier: "Grace@Pocket.EDU", Password: "123"})
	require.True(t, ok)
	assert.Equal(t, "T1000", resp.User.ID)

	claims, err := p.auth.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "T1000", claims.Subject)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestLoginRefetchFailure(t *testing.T) {
	p := newPortal(t)
	p.backend.failOn(repository.CollectionUsers, repository.VerbFind)

	_, ok := p.auth.Login(context.Background(), models.LoginRequest{Identifier: "T1000", Password: "123"})
	assert.False(t, ok)
	assert.Equal(t, "Login error. Check connection.", p.lastFeedback(t).Message)
	assert.Len(t, p.store.Users(), len(seedUsers()))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	p := newPortal(t)
	other := NewAuthService(p.store, p.data.Users, &memorySlot{}, nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	resp, ok := other.Login(context.Background(), models.LoginRequest{Identifier: "T1000", Password: "123"})
	require.True(t, ok)

	_, err := p.auth.ValidateToken(resp.AccessToken)
	assertCode(t, err, appErrors.ErrUnauthorized.Code)
}

func TestRestoreAdoptsSlotUser(t *testing.T) {
	p := newPortal(t)
	stale := seedUsers()[0]
	stale.Name = "Stale Name"
	p.slot.user = &stale

	require.NoError(t, p.auth.Restore(context.Background()))
	current, ok := p.auth.Current()
	require.True(t, ok)
	assert.Equal(t, "Grace Hopper", current.Name)
}

func TestSecretMatches(t *testing.T) {
	assert.True(t, secretMatches("123", "123"))
	assert.False(t, secretMatches("123", "1234"))
	assert.False(t, secretMatches("", "x"))
}
