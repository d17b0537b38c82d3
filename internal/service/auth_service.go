package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	"github.com/noah-isme/pocket-university-api/internal/store"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

const defaultSecret = "123"

const (
	minIDSuffix = 1000
	maxIDSuffix = 9999
	maxIDDraws  = 64
)

type authUserRepository interface {
	GetAll(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
}

type sessionSlot interface {
	Load(ctx context.Context) (*models.User, error)
	Save(ctx context.Context, user models.User) error
	Clear(ctx context.Context) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService owns the single current session: credential checks, signup,
// the durable session slot and the bearer tokens that front it.
type AuthService struct {
	store     *store.Store
	users     authUserRepository
	slot      sessionSlot
	feedback  *FeedbackService
	persist   persister
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       Clock

	mu      sync.RWMutex
	current *models.User

	randMu   sync.Mutex
	idSuffix func() int
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(st *store.Store, users authUserRepository, slot sessionSlot, feedback *FeedbackService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if feedback == nil {
		feedback = NewFeedbackService(0, nil)
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &AuthService{
		store:     st,
		users:     users,
		slot:      slot,
		feedback:  feedback,
		persist:   newPersister(metrics, logger),
		validator: validate,
		logger:    logger,
		config:    config,
		now:       systemClock,
		idSuffix:  func() int { return minIDSuffix + rng.Intn(maxIDSuffix-minIDSuffix+1) },
	}
}

// Restore adopts the user held in the session slot, preferring the fresher
// copy from the store when one exists.
func (s *AuthService) Restore(ctx context.Context) error {
	user, err := s.slot.Load(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	if fresh, ok := s.store.FindUser(user.ID); ok {
		user = &fresh
	}
	s.setCurrent(user)
	s.logger.Info("session restored", zap.String("user_id", user.ID))
	return nil
}

// Login re-reads the user collection, then looks for a user whose id or
// email equals identifier ignoring case and whose secret matches. The
// boolean is the outcome; a failed login leaves the session untouched.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, bool) {
	if err := s.validator.Struct(req); err != nil {
		s.feedback.Error("Invalid credentials")
		return nil, false
	}

	users, err := s.users.GetAll(ctx)
	if err != nil {
		s.logger.Warn("login user refetch failed", zap.Error(err))
		s.feedback.Error("Login error. Check connection.")
		return nil, false
	}
	s.store.ReplaceUsers(users)

	var match *models.User
	for i := range users {
		u := users[i]
		if (strings.EqualFold(u.ID, req.Identifier) || strings.EqualFold(u.Email, req.Identifier)) && secretMatches(u.Password, req.Password) {
			match = &u
			break
		}
	}
	if match == nil {
		s.feedback.Error("Invalid credentials")
		return nil, false
	}

	resp, err := s.adopt(ctx, *match)
	if err != nil {
		s.logger.Error("failed to issue access token", zap.Error(err))
		s.feedback.Error("Login error. Check connection.")
		return nil, false
	}
	s.feedback.Success(fmt.Sprintf("Welcome back, %s!", match.Name))
	return resp, true
}

// Signup creates an account and logs it in. Unlike other operations the
// durable write gates the outcome: a failed write creates nothing.
func (s *AuthService) Signup(ctx context.Context, req dto.SignupRequest) (*models.LoginResponse, error) {
	const failure = "Failed to create account."
	if err := s.validator.Struct(req); err != nil {
		s.feedback.Error(failure)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	user := models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Role:       req.Role,
		Department: strings.TrimSpace(req.Department),
		Phone:      strings.TrimSpace(req.Phone),
		IsOnline:   true,
		Bio:        fmt.Sprintf("Hi, I am a %s at Pocket University.", req.Role),
	}
	if req.Role.RequiresCohort() {
		user.Semester = strings.TrimSpace(req.Semester)
		user.Section = strings.TrimSpace(req.Section)
	}
	user.Initials = models.ComputeInitials(user.Name)

	existing := s.store.Users()
	for _, u := range existing {
		if strings.EqualFold(u.Email, user.Email) {
			s.feedback.Error(failure)
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
	}
	id, ok := s.newUserID(req.Role, existing)
	if !ok {
		s.feedback.Error(failure)
		return nil, appErrors.Clone(appErrors.ErrConflict, "no user ids left for role")
	}
	user.ID = id

	if err := user.CheckInvariants(); err != nil {
		s.feedback.Error(failure)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	secret := req.Password
	if secret == "" {
		secret = defaultSecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		s.feedback.Error(failure)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.Password = string(hash)

	if err := s.persist.write(ctx, repository.CollectionUsers, "create", func(ctx context.Context) error {
		_, err := s.users.Create(ctx, user)
		return err
	}); err != nil {
		s.feedback.Error(failure)
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create account")
	}
	s.store.AddUser(user)

	resp, err := s.adopt(ctx, user)
	if err != nil {
		s.feedback.Error(failure)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.feedback.Success("Account created successfully!")
	return resp, nil
}

// Logout clears the session.
func (s *AuthService) Logout(ctx context.Context) error {
	s.setCurrent(nil)
	if err := s.slot.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear session slot", zap.Error(err))
	}
	s.feedback.Success("Signed out successfully")
	return nil
}

// Current returns the session user, refreshed from the store.
func (s *AuthService) Current() (*models.User, bool) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current == nil {
		return nil, false
	}
	if fresh, ok := s.store.FindUser(current.ID); ok {
		return &fresh, true
	}
	user := *current
	return &user, true
}

// Refresh replaces the session copy of user when it is the current session
// user, keeping the durable slot in step.
func (s *AuthService) Refresh(ctx context.Context, user models.User) {
	s.mu.Lock()
	if s.current == nil || s.current.ID != user.ID {
		s.mu.Unlock()
		return
	}
	u := user
	s.current = &u
	s.mu.Unlock()
	if err := s.slot.Save(ctx, user); err != nil {
		s.logger.Warn("failed to update session slot", zap.Error(err))
	}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) adopt(ctx context.Context, user models.User) (*models.LoginResponse, error) {
	token, issuedAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	s.setCurrent(&user)
	if err := s.slot.Save(ctx, user); err != nil {
		s.logger.Warn("failed to persist session slot", zap.String("user_id", user.ID), zap.Error(err))
	}
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        user.Public(),
	}, nil
}

func (s *AuthService) setCurrent(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.current = nil
		return
	}
	u := *user
	s.current = &u
}

// newUserID draws role prefix + four digits until the id is unused. After
// maxIDDraws collisions it takes the lowest free suffix instead; false means
// every id of the role is taken.
func (s *AuthService) newUserID(role models.UserRole, existing []models.User) (string, bool) {
	taken := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		taken[u.ID] = struct{}{}
	}
	free := func(suffix int) (string, bool) {
		id := fmt.Sprintf("%s%d", role.IDPrefix(), suffix)
		_, used := taken[id]
		return id, !used
	}

	s.randMu.Lock()
	defer s.randMu.Unlock()
	for i := 0; i < maxIDDraws; i++ {
		if id, ok := free(s.idSuffix()); ok {
			return id, true
		}
	}
	for suffix := minIDSuffix; suffix <= maxIDSuffix; suffix++ {
		if id, ok := free(suffix); ok {
			return id, true
		}
	}
	return "", false
}

func (s *AuthService) generateAccessToken(user models.User) (string, time.Time, error) {
	issuedAt := s.now()
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

// secretMatches accepts bcrypt hashes and, for records written before
// hashing, an exact plaintext match.
func secretMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
