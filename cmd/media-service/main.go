package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sewasew/media-service/internal/config"
	httphandler "github.com/sewasew/media-service/internal/http"
	"github.com/sewasew/media-service/internal/log"
	"github.com/sewasew/media-service/internal/media"
	"github.com/sewasew/media-service/internal/metrics"
	"github.com/sewasew/media-service/internal/storage"
	"github.com/sewasew/media-service/internal/storage/local"
	"github.com/sewasew/media-service/internal/storage/minio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewLogger()

	var backend storage.Backend
	var staticRoot string
	switch cfg.StorageDriver {
	case "s3":
		backend, err = minio.New(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.UseSSL)
		if err != nil {
			logger.Error("Failed to initialize s3 storage", "error", err)
			os.Exit(1)
		}
	default:
		lb := local.New(cfg.UploadRoot)
		backend = lb
		staticRoot = lb.Root()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	svc := media.NewService(backend, cfg.PublicBaseURL, m, logger)

	provisionCtx, cancelProvision := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelProvision()
	if err := svc.Provision(provisionCtx); err != nil {
		logger.Error("Failed to provision storage", "error", err)
		os.Exit(1)
	}

	router := httphandler.NewRouter(svc, staticRoot, cfg, promhttp.Handler(), m, logger)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("Starting media service", "addr", cfg.HTTPAddr, "driver", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited")
}
