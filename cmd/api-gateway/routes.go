package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/barangay-api/internal/handler"
	"github.com/noah-isme/barangay-api/internal/middleware"
	"github.com/noah-isme/barangay-api/internal/models"
	"github.com/noah-isme/barangay-api/internal/service"
	"github.com/noah-isme/barangay-api/pkg/config"
	"github.com/noah-isme/barangay-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/barangay-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/barangay-api/pkg/middleware/requestid"
)

type routeDeps struct {
	auth          *handler.AuthHandler
	complaints    *handler.ComplaintHandler
	captain       *handler.CaptainHandler
	notifications *handler.NotificationHandler
	metrics       *handler.MetricsHandler
	metricsSvc    *service.MetricsService
	tokens        middleware.TokenValidator
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metricsSvc, cfg.Metrics.Path, "/health", "/ready"))
	r.Use(middleware.ResponseMeta())

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Health)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, deps.metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", deps.auth.Login)
	auth.POST("/refresh", deps.auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.tokens))

	secured.POST("/auth/logout", deps.auth.Logout)
	secured.POST("/auth/change-password", deps.auth.ChangePassword)
	secured.GET("/auth/me", deps.auth.Me)

	registerComplaintRoutes(api, secured, deps.complaints)
	registerCaptainRoutes(secured, deps.captain)

	secured.GET("/notifications", deps.notifications.List)
	secured.POST("/notifications/:id/read", deps.notifications.MarkRead)

	secured.GET("/system/metrics", middleware.RequireOfficial(), deps.metrics.System)

	return r
}

func registerComplaintRoutes(public, secured *gin.RouterGroup, h *handler.ComplaintHandler) {
	// Download links carry their own signed token.
	public.GET("/complaints/attachments/download", h.DownloadAttachment)

	// Lifecycle permissions are enforced per edge by the service.
	official := middleware.RequireOfficial()
	complaints := secured.Group("/complaints")

	complaints.GET("/categories", h.Categories)
	complaints.POST("", h.Create)
	complaints.GET("", h.List)
	complaints.GET("/statistics", official, h.Statistics)
	complaints.GET("/export", official, h.Export)
	complaints.DELETE("/attachments/:attachmentId", h.DeleteAttachment)

	complaints.GET("/:id", h.Get)
	complaints.DELETE("/:id", h.Delete)
	complaints.GET("/:id/history", h.History)
	complaints.GET("/:id/track", h.Track)
	complaints.GET("/:id/transitions", h.Transitions)
	complaints.POST("/:id/transitions", h.Transition)
	complaints.POST("/:id/accept", h.Accept)
	complaints.POST("/:id/resolve", h.Resolve)
	complaints.PATCH("/:id/priority", h.SetPriority)
	complaints.POST("/:id/rating", h.Rate)
	complaints.GET("/:id/comments", h.Comments)
	complaints.POST("/:id/comments", h.AddComment)
	complaints.GET("/:id/attachments", h.Attachments)
	complaints.POST("/:id/attachments", h.UploadAttachment)
}

func registerCaptainRoutes(secured *gin.RouterGroup, h *handler.CaptainHandler) {
	captain := secured.Group("/captain")

	resident := captain.Group("")
	resident.Use(middleware.RequireRoles(models.RoleResident))
	resident.POST("/conversations", h.Start)
	resident.POST("/conversations/end", h.End)
	resident.POST("/chat", h.Chat)
	resident.POST("/feedback", h.Feedback)

	official := captain.Group("")
	official.Use(middleware.RequireOfficial())
	official.GET("/analytics", h.Analytics)
	official.GET("/policies", h.Policies)
}
