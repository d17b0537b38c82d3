package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/middleware"
	"github.com/noah-isme/pocket-university-api/internal/models"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
	"github.com/noah-isme/pocket-university-api/pkg/export"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newTestContext(method, target string, body interface{}, actor *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	if actor != nil {
		c.Set(middleware.ContextUserKey, actor)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

var teacher = &models.User{ID: "T1000", Name: "Grace Hopper", Role: models.RoleTeacher, Department: "CSE"}

type fakeCourses struct {
	lastActor *models.User
	lastID    string
	err       error
}

func (f *fakeCourses) Create(_ context.Context, actor *models.User, req dto.CreateCourseRequest) (*models.Course, models.Outcome, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, models.Outcome{}, f.err
	}
	return &models.Course{ID: "C1", Code: req.Code, TeacherID: actor.ID}, models.Outcome{
		Feedback:  models.Feedback{ID: "fb1", Message: "Course created", Type: models.FeedbackSuccess},
		Persisted: true,
	}, nil
}

func (f *fakeCourses) AssignClassRep(_ context.Context, _ *models.User, courseID string, _ dto.AssignClassRepRequest) (*models.Course, models.Outcome, error) {
	f.lastID = courseID
	return nil, models.Outcome{}, f.err
}

func (f *fakeCourses) Publish(_ context.Context, _ *models.User, courseID string) (*models.Course, models.Outcome, error) {
	f.lastID = courseID
	return &models.Course{ID: courseID, IsPublishedToStudents: true}, models.Outcome{Notified: 3, Persisted: true}, nil
}

func (f *fakeCourses) AddResource(context.Context, *models.User, string, dto.UploadResourceRequest) (*models.Resource, models.Outcome, error) {
	return nil, models.Outcome{}, f.err
}

func (f *fakeCourses) Get(*models.User, string) (*models.Course, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

func (f *fakeCourses) ListVisible(*models.User, string) ([]models.Course, error) {
	return []models.Course{}, nil
}

func TestCourseCreateReturnsOutcomeMeta(t *testing.T) {
	svc := &fakeCourses{}
	h := NewCourseHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/courses", dto.CreateCourseRequest{Code: "CSE101"}, teacher)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	feedback := env.Meta["feedback"].(map[string]interface{})
	assert.Equal(t, "Course created", feedback["message"])
	assert.Equal(t, true, env.Meta["persisted"])
	assert.Equal(t, "T1000", svc.lastActor.ID)
}

func TestCourseHandlerRequiresActor(t *testing.T) {
	h := NewCourseHandler(&fakeCourses{})
	c, rec := newTestContext(http.MethodGet, "/courses", nil, nil)

	h.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCoursePublishUsesPathID(t *testing.T) {
	svc := &fakeCourses{}
	h := NewCourseHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/courses/C42/publish", nil, teacher)
	c.Params = gin.Params{{Key: "id", Value: "C42"}}

	h.Publish(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "C42", svc.lastID)
	assert.EqualValues(t, 3, decode(t, rec).Meta["notified"])
}

func TestCourseErrorsMapToStatus(t *testing.T) {
	h := NewCourseHandler(&fakeCourses{err: appErrors.Clone(appErrors.ErrConflict, "course already has a class rep")})
	c, rec := newTestContext(http.MethodPut, "/courses/C1/class-rep", dto.AssignClassRepRequest{UserID: "ST1"}, teacher)
	c.Params = gin.Params{{Key: "id", Value: "C1"}}

	h.AssignClassRep(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, appErrors.ErrConflict.Code, decode(t, rec).Error.Code)

	c, rec = newTestContext(http.MethodGet, "/courses/C9", nil, teacher)
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeAuth struct {
	ok bool
}

func (f *fakeAuth) Login(context.Context, models.LoginRequest) (*models.LoginResponse, bool) {
	if !f.ok {
		return nil, false
	}
	return &models.LoginResponse{AccessToken: "token", User: teacher.Public()}, true
}

func (f *fakeAuth) Signup(context.Context, dto.SignupRequest) (*models.LoginResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrPersistence, "failed to create account")
}

func (f *fakeAuth) Logout(context.Context) error { return nil }

type stubFeedback struct {
	items []models.Feedback
}

func (s *stubFeedback) Active() []models.Feedback { return s.items }

func (s *stubFeedback) Dismiss(id string) bool {
	for _, item := range s.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func TestLoginFailureSurfacesFeedbackMessage(t *testing.T) {
	feedback := &stubFeedback{items: []models.Feedback{{ID: "f1", Message: "Login error. Check connection.", Type: models.FeedbackError}}}
	h := NewAuthHandler(&fakeAuth{}, feedback)
	c, rec := newTestContext(http.MethodPost, "/auth/login", models.LoginRequest{Identifier: "st4821", Password: "123"}, nil)

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Login error. Check connection.", decode(t, rec).Error.Message)
}

func TestLoginSuccessAndSignupFailure(t *testing.T) {
	feedback := &stubFeedback{items: []models.Feedback{{ID: "f2", Message: "Welcome back, Grace Hopper!", Type: models.FeedbackSuccess}}}
	h := NewAuthHandler(&fakeAuth{ok: true}, feedback)

	c, rec := newTestContext(http.MethodPost, "/auth/login", models.LoginRequest{Identifier: "T1000", Password: "123"}, nil)
	h.Login(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Contains(t, string(env.Data), `"access_token":"token"`)
	assert.NotContains(t, string(env.Data), `"password"`)

	c, rec = newTestContext(http.MethodPost, "/auth/signup", map[string]string{"name": "x"}, nil)
	h.Signup(c)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/auth/login", "not-an-object", nil)
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeSchedules struct {
	format export.Format
}

func (f *fakeSchedules) Schedule(context.Context, *models.User, dto.ScheduleSessionRequest) (*models.ClassSession, models.Outcome, error) {
	return &models.ClassSession{ID: "S1"}, models.Outcome{}, nil
}

func (f *fakeSchedules) ListVisible(*models.User) ([]models.ClassSession, error) {
	return []models.ClassSession{}, nil
}

func (f *fakeSchedules) Upcoming(*models.User, int) ([]models.ClassSession, error) {
	return []models.ClassSession{}, nil
}

func (f *fakeSchedules) ExportTimetable(actor *models.User, format export.Format) (*dto.TimetableExport, error) {
	f.format = format
	return &dto.TimetableExport{Filename: "timetable-" + actor.ID + ".pdf", ContentType: format.ContentType(), Data: []byte("%PDF")}, nil
}

func TestTimetableExportHeaders(t *testing.T) {
	svc := &fakeSchedules{}
	h := NewScheduleHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/sessions/export?format=pdf", nil, teacher)

	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.FormatPDF, svc.format)
	assert.Equal(t, `attachment; filename="timetable-T1000.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", rec.Body.String())

	c, rec = newTestContext(http.MethodGet, "/sessions/export?format=xlsx", nil, teacher)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/sessions/upcoming?limit=-1", nil, teacher)
	h.Upcoming(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeDashboard struct {
	hit bool
}

func (f *fakeDashboard) Summary(_ context.Context, actor *models.User) (*models.DashboardSummary, bool, error) {
	return &models.DashboardSummary{UserID: actor.ID, CourseCount: 2}, f.hit, nil
}

func TestDashboardSummaryReportsCacheHit(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboard{hit: true})
	c, rec := newTestContext(http.MethodGet, "/dashboard", nil, teacher)

	h.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), `"courseCount":2`)
}

func TestFeedbackDismiss(t *testing.T) {
	h := NewFeedbackHandler(&stubFeedback{items: []models.Feedback{{ID: "f1"}}})

	c, rec := newTestContext(http.MethodDelete, "/feedback/f1", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "f1"}}
	h.Dismiss(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = newTestContext(http.MethodDelete, "/feedback/gone", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "gone"}}
	h.Dismiss(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadyReportsDegradedCollections(t *testing.T) {
	h := NewMetricsHandler(nil, "local", []string{"courses"})
	c, rec := newTestContext(http.MethodGet, "/ready", nil, nil)

	h.Ready(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","backend":"local","degraded":["courses"]}`, rec.Body.String())
}
