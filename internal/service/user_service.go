package service

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

type userRepository interface {
	Update(ctx context.Context, u models.User) (models.User, error)
}

type sessionRefresher interface {
	Refresh(ctx context.Context, user models.User)
}

// UserService serves the directory and self-service profile edits.
type UserService struct {
	deps     EngineDeps
	repo     userRepository
	sessions sessionRefresher
	persist  persister
}

// NewUserService constructs the service.
func NewUserService(deps EngineDeps, repo userRepository, sessions sessionRefresher) *UserService {
	deps = deps.withDefaults()
	return &UserService{deps: deps, repo: repo, sessions: sessions, persist: deps.persister()}
}

// UpdateProfile merges the provided fields into the actor's own record. A
// name change recomputes initials. The actor always receives one
// "Profile Updated" notification.
func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, req dto.UpdateProfileRequest) (*models.PublicUser, models.Outcome, error) {
	const failure = "Failed to update profile"
	if err := requireActor(actor); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	if err := s.deps.validate(req); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	user, ok := s.deps.Store.FindUser(actor.ID)
	if !ok {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrNotFound, "user not found"))
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty"))
		}
		if name != user.Name {
			user.Name = name
			user.Initials = models.ComputeInitials(name)
		}
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		for _, other := range s.deps.Store.Users() {
			if other.ID != user.ID && strings.EqualFold(other.Email, email) {
				return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrConflict, "email already registered"))
			}
		}
		user.Email = email
	}
	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.ProfileImage != nil {
		user.ProfileImage = *req.ProfileImage
	}
	if req.IsOnline != nil {
		user.IsOnline = *req.IsOnline
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password"))
		}
		user.Password = string(hash)
	}

	s.deps.Store.ReplaceUser(user)
	if s.sessions != nil {
		s.sessions.Refresh(ctx, user)
	}

	persistErr := s.persist.write(ctx, repository.CollectionUsers, "update", func(ctx context.Context) error {
		_, err := s.repo.Update(ctx, user)
		return err
	})
	event := Event{Kind: EventProfileUpdated, ActorID: user.ID}
	outcome := s.deps.complete(ctx, &event, persistErr, "Profile updated", failure)
	public := user.Public()
	return &public, outcome, nil
}

// Get returns one user.
func (s *UserService) Get(id string) (*models.PublicUser, error) {
	user, ok := s.deps.Store.FindUser(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	public := user.Public()
	return &public, nil
}

// List returns users filtered by role (when set) and by a case-insensitive
// match of query against name, id, initials, email or department, ordered by
// name.
func (s *UserService) List(role models.UserRole, query string) ([]models.PublicUser, error) {
	if role != "" && !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	query = strings.TrimSpace(query)
	out := []models.User{}
	for _, u := range s.deps.Store.Users() {
		if role != "" && u.Role != role {
			continue
		}
		if query != "" && !containsFold(u.Name, query) && !containsFold(u.ID, query) &&
			!containsFold(u.Initials, query) && !containsFold(u.Email, query) && !containsFold(u.Department, query) {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return models.PublicUsers(out), nil
}
