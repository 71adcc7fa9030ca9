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
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/barangay-api/api/swagger"
	"github.com/noah-isme/barangay-api/internal/handler"
	"github.com/noah-isme/barangay-api/internal/repository"
	"github.com/noah-isme/barangay-api/internal/service"
	"github.com/noah-isme/barangay-api/migrations"
	"github.com/noah-isme/barangay-api/pkg/cache"
	"github.com/noah-isme/barangay-api/pkg/config"
	"github.com/noah-isme/barangay-api/pkg/database"
	"github.com/noah-isme/barangay-api/pkg/jobs"
	"github.com/noah-isme/barangay-api/pkg/llm"
	"github.com/noah-isme/barangay-api/pkg/logger"
	"github.com/noah-isme/barangay-api/pkg/storage"
)

// @title Barangay Citizen Services API
// @version 1.0.0
// @description Complaint lifecycle and virtual barangay captain.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, migrations.FS, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("attachment storage: %w", err)
	}

	provider, err := llm.New(ctx, cfg.Captain, logr)
	if err != nil {
		logr.Warn("llm provider unavailable, captain runs rule-based only", zap.Error(err))
		provider = nil
	}
	if provider != nil {
		defer provider.Close() //nolint:errcheck
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	captainRepo := repository.NewCaptainRepository(db)

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, logr),
		metricsSvc,
		cfg.Complaints.StatsCacheTTL,
		logr,
		cfg.Complaints.CacheEnabled && redisClient != nil,
	)

	queue := jobs.NewQueue("notifications", jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationSvc := service.NewNotificationService(repository.NewNotificationRepository(db), queue, metricsSvc, logr)
	// Workers outlive the signal context so Drain can finish accepted jobs.
	queue.Start(context.WithoutCancel(ctx))

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	complaintSvc := service.NewComplaintService(service.ComplaintDeps{
		Complaints:  complaintRepo,
		Comments:    repository.NewComplaintCommentRepository(db),
		Attachments: repository.NewComplaintAttachmentRepository(db),
		Categories:  repository.NewComplaintCategoryRepository(db),
		Audit:       userRepo,
		Notifier:    notificationSvc,
		Objects:     objects,
		Signer:      storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL),
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
	}, service.ComplaintServiceConfig{
		StatsCacheTTL:         cfg.Complaints.StatsCacheTTL,
		ReferenceMaxAttempts:  cfg.Complaints.ReferenceMaxAttempts,
		AttachmentMaxBytes:    cfg.Complaints.AttachmentMaxBytes,
		AttachmentAllowedMIME: cfg.Complaints.AttachmentAllowedMIME,
		ExportMaxRows:         cfg.Complaints.ExportMaxRows,
		DownloadPath:          cfg.APIPrefix + "/complaints/attachments/download",
	}, validate, logr)

	var primary service.Responder
	if provider != nil {
		primary = service.NewLLMResponder(provider, cfg.Captain.Timeout, metricsSvc)
		logr.Info("captain llm enabled", zap.String("provider", provider.Name()))
	}
	captainSvc := service.NewCaptainService(
		captainRepo,
		service.NewFallbackResponder(primary, logr),
		metricsSvc,
		cfg.Captain.HistoryLimit,
		validate,
		logr,
	)

	router := newRouter(cfg, logr, routeDeps{
		auth:          handler.NewAuthHandler(authSvc),
		complaints:    handler.NewComplaintHandler(complaintSvc),
		captain:       handler.NewCaptainHandler(captainSvc),
		notifications: handler.NewNotificationHandler(notificationSvc),
		metrics:       handler.NewMetricsHandler(metricsSvc),
		metricsSvc:    metricsSvc,
		tokens:        authSvc,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	if err := queue.Drain(shutdownCtx); err != nil {
		logr.Warn("notification queue drain", zap.Error(err))
	}
	queue.Stop()
	return nil
}
