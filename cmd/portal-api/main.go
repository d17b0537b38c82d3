package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pocket-university-api/api/swagger"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	"github.com/noah-isme/pocket-university-api/internal/service"
	"github.com/noah-isme/pocket-university-api/internal/store"
	"github.com/noah-isme/pocket-university-api/pkg/cache"
	"github.com/noah-isme/pocket-university-api/pkg/config"
	"github.com/noah-isme/pocket-university-api/pkg/database"
	"github.com/noah-isme/pocket-university-api/pkg/logger"
)

// @title Pocket University API
// @version 1.0.0
// @description Role-based academic portal
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewSQLite(cfg.Local)
	if err != nil {
		logr.Fatal("failed to open local database", zap.String("path", cfg.Local.Path), zap.Error(err))
	}
	defer db.Close()

	kv := repository.NewKVRepository(db)
	if err := kv.Migrate(ctx); err != nil {
		logr.Fatal("failed to migrate local database", zap.Error(err))
	}

	backend := repository.SelectBackend(cfg.Mongo, kv, logr)
	data := repository.NewDatastore(backend)
	logr.Info("document backend selected", zap.String("backend", data.Backend()))

	var redisClient *redis.Client
	if cfg.Dashboard.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("dashboard cache disabled, redis unreachable", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	st := store.New()
	metrics := service.NewMetricsService()
	feedback := service.NewFeedbackService(cfg.Feedback.TTL, nil)
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, logr),
		metrics,
		cfg.Dashboard.CacheTTL,
		logr,
		redisClient != nil,
	)
	validate := service.NewValidator()
	notifier := service.NewNotificationService(st, data.Notifications, metrics, cacheSvc, nil, logr)
	deps := service.EngineDeps{
		Store:     st,
		Notifier:  notifier,
		Feedback:  feedback,
		Cache:     cacheSvc,
		Metrics:   metrics,
		IDs:       service.NewIDGenerator(nil),
		Validator: validate,
		Logger:    logr,
	}

	auth := service.NewAuthService(st, data.Users, repository.NewSessionRepository(kv), feedback, metrics, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "pocket-university",
	})
	schedules := service.NewScheduleService(deps, data.Sessions)

	degraded := service.Bootstrap(ctx, st, data, auth, feedback, logr)

	services := routerServices{
		auth:          auth,
		courses:       service.NewCourseService(deps, data.Courses),
		schedules:     schedules,
		messages:      service.NewMessageService(deps, data.Messages),
		notifications: notifier,
		users:         service.NewUserService(deps, data.Users, auth),
		dashboard: service.NewDashboardService(st, schedules, cacheSvc, logr, service.DashboardServiceConfig{
			CacheTTL: cfg.Dashboard.CacheTTL,
		}),
		feedback: feedback,
		metrics:  metrics,
		backend:  data.Backend(),
		degraded: degraded,
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, logr, services)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", data.Backend())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
