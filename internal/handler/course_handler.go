package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/pkg/response"
)

type courseService interface {
	Create(ctx context.Context, actor *models.User, req dto.CreateCourseRequest) (*models.Course, models.Outcome, error)
	AssignClassRep(ctx context.Context, actor *models.User, courseID string, req dto.AssignClassRepRequest) (*models.Course, models.Outcome, error)
	Publish(ctx context.Context, actor *models.User, courseID string) (*models.Course, models.Outcome, error)
	AddResource(ctx context.Context, actor *models.User, courseID string, req dto.UploadResourceRequest) (*models.Resource, models.Outcome, error)
	Get(actor *models.User, courseID string) (*models.Course, error)
	ListVisible(actor *models.User, query string) ([]models.Course, error)
}

// CourseHandler exposes course endpoints.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List visible courses
// @Description Courses the caller may see: owned, represented, or published to their cohort
// @Tags Courses
// @Produce json
// @Param q query string false "Match on code or title"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	courses, err := h.service.ListVisible(actor, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	course, err := h.service.Get(actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, outcome, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, http.StatusCreated, course, outcome)
}

// AssignClassRep godoc
// @Summary Assign class representative
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.AssignClassRepRequest true "Class rep"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/class-rep [put]
func (h *CourseHandler) AssignClassRep(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AssignClassRepRequest
	if !bindJSON(c, &req, "invalid class rep payload") {
		return
	}
	course, outcome, err := h.service.AssignClassRep(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, http.StatusOK, course, outcome)
}

// Publish godoc
// @Summary Publish course to its cohort
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/publish [post]
func (h *CourseHandler) Publish(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	course, outcome, err := h.service.Publish(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, http.StatusOK, course, outcome)
}

// AddResource godoc
// @Summary Attach a resource to a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.UploadResourceRequest true "Resource metadata"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/resources [post]
func (h *CourseHandler) AddResource(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UploadResourceRequest
	if !bindJSON(c, &req, "invalid resource payload") {
		return
	}
	resource, outcome, err := h.service.AddResource(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, http.StatusCreated, resource, outcome)
}
