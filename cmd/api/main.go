package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidtube/internal/bootstrap"
	"vidtube/internal/config"
	"vidtube/internal/metrics"
	"vidtube/internal/pkg/logger"
	"vidtube/internal/server"
)

// @title			VidTube API
// @version		1.0
// @description	User accounts, sessions and channel profiles.
// @BasePath		/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stores.Close(closeCtx); err != nil {
			zl.Warn("close store", zap.Error(err))
		}
	}()

	uploader, err := bootstrap.OpenUploader(ctx, cfg)
	if err != nil {
		zl.Fatal("open media store", zap.String("driver", cfg.MediaDriver), zap.Error(err))
	}

	router, err := server.NewRouter(server.Deps{
		Config:   cfg,
		Log:      zl,
		Store:    stores.Users,
		Uploader: uploader,
		Registry: metrics.NewRegistry(),
		Ping:     stores.Ping,
	})
	if err != nil {
		zl.Fatal("build router", zap.Error(err))
	}

	zl.Info("starting vidtube api",
		zap.String("env", cfg.AppEnv),
		zap.String("store", cfg.StoreDriver),
		zap.String("media", cfg.MediaDriver),
	)
	if err := server.Serve(ctx, ":"+cfg.Port, router, 15*time.Second, zl); err != nil {
		zl.Error("server stopped", zap.Error(err))
		return
	}
	zl.Info("server stopped")
}
