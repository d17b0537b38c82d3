package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/models"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
	"github.com/noah-isme/pocket-university-api/pkg/response"
)

type feedbackService interface {
	Active() []models.Feedback
	Dismiss(id string) bool
}

// FeedbackHandler exposes the transient outcome messages.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(svc feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// List godoc
// @Summary Active feedback messages
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Active())
}

// Dismiss godoc
// @Summary Dismiss a feedback message
// @Tags Feedback
// @Param id path string true "Feedback ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /feedback/{id} [delete]
func (h *FeedbackHandler) Dismiss(c *gin.Context) {
	if !h.service.Dismiss(c.Param("id")) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "feedback expired or unknown"))
		return
	}
	response.NoContent(c)
}
