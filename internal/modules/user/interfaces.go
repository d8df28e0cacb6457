package user

import (
	"context"

	"vidtube/internal/domain"
)

// UserStore lists the reads and writes the account service needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserUpdate) (*domain.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error)
}
