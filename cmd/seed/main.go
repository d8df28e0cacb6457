package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"vidtube/internal/bootstrap"
	"vidtube/internal/config"
	"vidtube/internal/domain"
	"vidtube/internal/pkg/logger"
	"vidtube/internal/pkg/password"
	"vidtube/internal/repository"
)

const demoPassword = "password123"

type seedUser struct {
	username, fullName string
}

var demoUsers = []seedUser{
	{"neo", "Thomas Anderson"},
	{"trinity", "Trinity"},
	{"morpheus", "Morpheus"},
	{"oracle", "The Oracle"},
}

// seed fills the configured store with demo channels, videos,
// subscriptions and watch history. Existing users are left alone.
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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stores, err := bootstrap.OpenStores(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = stores.Close(context.Background()) }()

	if err := seed(ctx, stores, password.NewBcrypt(cfg.BcryptCost), zl); err != nil {
		zl.Fatal("seed failed", zap.Error(err))
	}
	zl.Info("seed completed", zap.String("password", demoPassword))
}

func seed(ctx context.Context, stores *bootstrap.Stores, hasher password.Hasher, zl *zap.Logger) error {
	hash, err := hasher.Hash(demoPassword)
	if err != nil {
		return err
	}

	users := make([]*domain.User, 0, len(demoUsers))
	for _, su := range demoUsers {
		u := &domain.User{
			Username:     su.username,
			Email:        su.username + "@vidtube.dev",
			FullName:     su.fullName,
			Avatar:       fmt.Sprintf("https://api.dicebear.com/7.x/identicon/svg?seed=%s", su.username),
			PasswordHash: hash,
		}
		err := stores.Users.Create(ctx, u)
		if errors.Is(err, repository.ErrDuplicate) {
			zl.Info("user exists, skipping seed", zap.String("username", su.username))
			return nil
		}
		if err != nil {
			return fmt.Errorf("create user %s: %w", su.username, err)
		}
		users = append(users, u)
	}

	var videos []*domain.Video
	for i, owner := range users {
		for n := 1; n <= 2; n++ {
			v := &domain.Video{
				OwnerID:     owner.ID,
				Title:       fmt.Sprintf("%s #%d", owner.FullName, n),
				Description: "Demo upload",
				VideoFile:   fmt.Sprintf("https://cdn.vidtube.dev/videos/%s-%d.mp4", owner.Username, n),
				Thumbnail:   fmt.Sprintf("https://cdn.vidtube.dev/thumbs/%s-%d.jpg", owner.Username, n),
				Duration:    float64(60 * (i + n)),
				Views:       int64(100 * (i + 1) * n),
				IsPublished: true,
			}
			if err := stores.Videos.Create(ctx, v); err != nil {
				return fmt.Errorf("create video: %w", err)
			}
			videos = append(videos, v)
		}
	}

	// everyone follows neo; neo follows trinity
	neo := users[0]
	for _, u := range users[1:] {
		if err := stores.Subscriptions.Create(ctx, &domain.Subscription{SubscriberID: u.ID, ChannelID: neo.ID}); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}
	if err := stores.Subscriptions.Create(ctx, &domain.Subscription{SubscriberID: neo.ID, ChannelID: users[1].ID}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for i, u := range users {
		for j := range 3 {
			v := videos[(i+j+1)%len(videos)]
			if err := stores.Users.AppendWatchHistory(ctx, u.ID, v.ID); err != nil {
				return fmt.Errorf("watch history: %w", err)
			}
		}
	}

	zl.Info("seeded demo data",
		zap.Int("users", len(users)),
		zap.Int("videos", len(videos)),
		zap.Int("subscriptions", len(users)),
	)
	return nil
}
