package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"vidtube/internal/bootstrap"
	"vidtube/internal/config"
	"vidtube/internal/pkg/jwt"
	"vidtube/internal/pkg/logger"
)

// auth_cleanup unsets stored refresh tokens that no longer verify (expired
// or signed with a rotated secret). Run it from cron.
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

	tokens, err := jwt.New(jwt.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	})
	if err != nil {
		zl.Fatal("jwt config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stores, err := bootstrap.OpenStores(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = stores.Close(context.Background()) }()

	cleared, err := stores.Users.ClearExpiredRefreshTokens(ctx, func(token string) bool {
		_, err := tokens.VerifyRefresh(token)
		return err == nil
	})
	if err != nil {
		zl.Fatal("cleanup refresh tokens failed", zap.Error(err))
	}

	zl.Info("auth cleanup completed", zap.Int64("refresh_tokens_cleared", cleared))
}
