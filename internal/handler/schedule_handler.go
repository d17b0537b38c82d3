package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
	"github.com/noah-isme/pocket-university-api/pkg/export"
	"github.com/noah-isme/pocket-university-api/pkg/response"
)

type scheduleService interface {
	Schedule(ctx context.Context, actor *models.User, req dto.ScheduleSessionRequest) (*models.ClassSession, models.Outcome, error)
	ListVisible(actor *models.User) ([]models.ClassSession, error)
	Upcoming(actor *models.User, limit int) ([]models.ClassSession, error)
	ExportTimetable(actor *models.User, format export.Format) (*dto.TimetableExport, error)
}

// ScheduleHandler manages class session endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List visible sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sessions, err := h.service.ListVisible(actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions)
}

// Upcoming godoc
// @Summary List upcoming sessions
// @Tags Sessions
// @Produce json
// @Param limit query int false "Maximum sessions" default(3)
// @Success 200 {object} response.Envelope
// @Router /sessions/upcoming [get]
func (h *ScheduleHandler) Upcoming(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "3"))
	if err != nil || limit < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
		return
	}
	sessions, err := h.service.Upcoming(actor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions)
}

// Create godoc
// @Summary Schedule a class session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sessions [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ScheduleSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, outcome, err := h.service.Schedule(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, http.StatusCreated, session, outcome)
}

// Export godoc
// @Summary Export timetable
// @Tags Sessions
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /sessions/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	file, err := h.service.ExportTimetable(actor, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
