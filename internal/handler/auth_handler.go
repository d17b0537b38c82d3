package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/middleware"
	"github.com/noah-isme/pocket-university-api/internal/models"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
	"github.com/noah-isme/pocket-university-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, bool)
	Signup(ctx context.Context, req dto.SignupRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context) error
}

type feedbackReader interface {
	Active() []models.Feedback
}

// AuthHandler wires HTTP endpoints to the auth gate.
type AuthHandler struct {
	service  authService
	feedback feedbackReader
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, feedback feedbackReader) *AuthHandler {
	return &AuthHandler{service: svc, feedback: feedback}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by user id or email, ignoring case
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	res, ok := h.service.Login(c.Request.Context(), req)
	feedback := h.latestFeedback()
	if !ok {
		message := appErrors.ErrInvalidCredentials.Message
		if feedback.Message != "" {
			message = feedback.Message
		}
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidCredentials, message))
		return
	}

	middleware.SetFeedback(c, feedback)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// Signup godoc
// @Summary Create an account
// @Description Registers a user and starts a session for it
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req, "invalid signup payload") {
		return
	}

	res, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetFeedback(c, h.latestFeedback())
	response.JSON(c, http.StatusCreated, res, middleware.ExtractMeta(c))
}

// Logout godoc
// @Summary Logout current session
// @Tags Authentication
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Get current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, actor.Public())
}

func (h *AuthHandler) latestFeedback() models.Feedback {
	if h.feedback == nil {
		return models.Feedback{}
	}
	items := h.feedback.Active()
	if len(items) == 0 {
		return models.Feedback{}
	}
	return items[len(items)-1]
}
