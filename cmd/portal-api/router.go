package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/internal/handler"
	"github.com/noah-isme/pocket-university-api/internal/middleware"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/service"
	"github.com/noah-isme/pocket-university-api/pkg/config"
	"github.com/noah-isme/pocket-university-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pocket-university-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pocket-university-api/pkg/middleware/requestid"
)

type routerServices struct {
	auth          *service.AuthService
	courses       *service.CourseService
	schedules     *service.ScheduleService
	messages      *service.MessageService
	notifications *service.NotificationService
	users         *service.UserService
	dashboard     *service.DashboardService
	feedback      *service.FeedbackService
	metrics       *service.MetricsService
	backend       string
	degraded      []string
}

func newRouter(cfg *config.Config, logr *zap.Logger, s routerServices) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(s.metrics))

	metricsHandler := handler.NewMetricsHandler(s.metrics, s.backend, s.degraded)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(s.auth, s.feedback)
	courseHandler := handler.NewCourseHandler(s.courses)
	scheduleHandler := handler.NewScheduleHandler(s.schedules)
	messageHandler := handler.NewMessageHandler(s.messages)
	notificationHandler := handler.NewNotificationHandler(s.notifications)
	userHandler := handler.NewUserHandler(s.users)
	dashboardHandler := handler.NewDashboardHandler(s.dashboard)
	feedbackHandler := handler.NewFeedbackHandler(s.feedback)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/signup", authHandler.Signup)
	api.GET("/feedback", feedbackHandler.List)
	api.DELETE("/feedback/:id", feedbackHandler.Dismiss)

	secured := api.Group("")
	secured.Use(middleware.JWT(s.auth))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)

	// Publish and resource uploads stay open to every role: a student can be
	// a course's class rep, so ownership is checked by the course service.
	teacherOnly := middleware.RequireRoles(models.RoleTeacher)

	courses := secured.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/:id", courseHandler.Get)
	courses.POST("", teacherOnly, courseHandler.Create)
	courses.PUT("/:id/class-rep", teacherOnly, courseHandler.AssignClassRep)
	courses.POST("/:id/publish", courseHandler.Publish)
	courses.POST("/:id/resources", courseHandler.AddResource)

	sessions := secured.Group("/sessions")
	sessions.GET("", scheduleHandler.List)
	sessions.GET("/upcoming", scheduleHandler.Upcoming)
	sessions.GET("/export", scheduleHandler.Export)
	sessions.POST("", teacherOnly, scheduleHandler.Create)

	messages := secured.Group("/messages")
	messages.GET("/contacts", messageHandler.Contacts)
	messages.GET("/:userId", messageHandler.Conversation)
	messages.POST("", messageHandler.Send)

	notifications := secured.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
	notifications.PATCH("/:id/read", notificationHandler.MarkRead)

	users := secured.Group("/users")
	users.GET("", userHandler.List)
	users.PATCH("/me", userHandler.UpdateMe)
	users.GET("/:id", userHandler.Get)

	secured.GET("/dashboard", dashboardHandler.Summary)
	secured.GET("/metrics/summary", metricsHandler.Summary)

	return r
}
