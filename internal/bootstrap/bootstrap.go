// Package bootstrap opens the configured backends for the binaries in cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/domain"
	"vidtube/internal/media"
	"vidtube/internal/repository"
	"vidtube/internal/repository/mongostore"
	"vidtube/internal/server"
)

// UserStore is everything the binaries do with users.
type UserStore interface {
	server.Store
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
	ClearExpiredRefreshTokens(ctx context.Context, stillValid func(token string) bool) (int64, error)
}

type VideoStore interface {
	Create(ctx context.Context, v *domain.Video) error
}

type SubscriptionStore interface {
	Create(ctx context.Context, s *domain.Subscription) error
}

// Stores bundles one backend's repositories with its lifecycle hooks.
type Stores struct {
	Users         UserStore
	Videos        VideoStore
	Subscriptions SubscriptionStore
	Ping          func(ctx context.Context) error
	Close         func(ctx context.Context) error
}

// OpenStores connects to the backend selected by cfg.StoreDriver and
// prepares its schema (AutoMigrate for SQL, indexes for Mongo).
func OpenStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return openMongo(ctx, cfg, log)
	case config.StoreSQL, "":
		return openSQL(cfg, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openSQL(cfg *config.Config, log *zap.Logger) (*Stores, error) {
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	return &Stores{
		Users:         repository.NewUserRepository(db),
		Videos:        repository.NewVideoRepository(db),
		Subscriptions: repository.NewSubscriptionRepository(db),
		Ping:          sqlDB.PingContext,
		Close:         func(context.Context) error { return sqlDB.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stores, error) {
	client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.DBName, log)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mongostore.EnsureIndexes(idxCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return &Stores{
		Users:         mongostore.NewUserStore(db),
		Videos:        mongostore.NewVideoStore(db),
		Subscriptions: mongostore.NewSubscriptionStore(db),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
	}, nil
}

// OpenUploader builds the media backend selected by cfg.MediaDriver.
func OpenUploader(ctx context.Context, cfg *config.Config) (media.Uploader, error) {
	switch cfg.MediaDriver {
	case config.MediaS3:
		up, err := media.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return up, nil
	case config.MediaDisk, "":
		return media.NewDiskUploader(cfg.UploadsDir, cfg.StaticURLBase), nil
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.MediaDriver)
	}
}
