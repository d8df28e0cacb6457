package auth

import (
	"context"

	"vidtube/internal/domain"
	"vidtube/internal/pkg/jwt"
)

// UserStore holds only the methods the session manager uses.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserUpdate) (*domain.User, error)
	SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error)
}

// TokenIssuer signs and verifies the access/refresh pair.
type TokenIssuer interface {
	IssuePair(u *domain.User) (jwt.TokenPair, error)
	VerifyRefresh(token string) (*jwt.RefreshClaims, error)
}
