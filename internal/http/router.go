package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sewasew/media-service/internal/auth"
	"github.com/sewasew/media-service/internal/config"
	"github.com/sewasew/media-service/internal/http/handler"
	"github.com/sewasew/media-service/internal/http/middleware"
	"github.com/sewasew/media-service/internal/media"
	"github.com/sewasew/media-service/internal/metrics"
)

// NewRouter wires the HTTP surface: authenticated upload endpoints under the
// optional API prefix, static /uploads serving when the local driver is
// active, and the operational endpoints.
func NewRouter(svc *media.Service, staticRoot string, cfg *config.Config, metricsHandler http.Handler, m *metrics.Metrics, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLog(logger, m))

	healthHandler := handler.NewHealthHandler()
	uploadHandler := handler.NewUploadHandler(svc, logger)

	router.GET("/healthz", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(metricsHandler))

	// Media URLs resolve here; never behind the API prefix.
	if staticRoot != "" {
		router.Static("/uploads", staticRoot)
	}

	jwksClient := auth.NewJWKSClient(cfg.Auth.JWKSUrl, cfg.Auth.JWKSCacheTTL)

	api := router.Group(cfg.APIPrefix)
	uploads := api.Group("/uploads")
	uploads.Use(auth.Middleware(jwksClient, cfg.Auth))
	uploads.Use(auth.RequirePermission(auth.PermissionUpload))
	{
		uploads.POST("/avatar", uploadHandler.UploadAvatar)
		uploads.POST("/strategy", uploadHandler.UploadStrategyImage)
		uploads.POST("/missionary", uploadHandler.UploadMissionaryImage)
		uploads.POST("/project", uploadHandler.UploadProjectImage)
		uploads.POST("/resume", uploadHandler.UploadResume)
		uploads.POST("/chat", uploadHandler.UploadChatAttachment)
		uploads.DELETE("", uploadHandler.DeleteMedia)
	}

	return router
}
