package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/database"
	"vidtube/internal/pkg/jwt"
	"vidtube/internal/pkg/password"
	"vidtube/internal/repository"
)

type staticUploader struct{}

func (staticUploader) Upload(_ context.Context, localPath string) (string, error) {
	return "https://cdn.example.com" + localPath, nil
}

func newSQLiteService(t *testing.T) (*Service, *repository.UserRepository) {
	t.Helper()
	db, err := database.Connect(":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	tokens, err := jwt.New(jwt.Config{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    240 * time.Hour,
	})
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	return NewService(users, password.NewBcrypt(bcrypt.MinCost), tokens, staticUploader{}, zap.NewNop()), users
}

func TestScenario_RegisterLoginRefreshReplay(t *testing.T) {
	svc, users := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		Username:   "neo",
		Email:      "neo@x.com",
		FullName:   "Thomas Anderson",
		Password:   "p@ss",
		AvatarPath: "/neo.png",
	})
	require.NoError(t, err)
	assert.Empty(t, created.PasswordHash)
	assert.Nil(t, created.RefreshToken)
	assert.Equal(t, "", created.CoverImage)

	stored, err := users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "p@ss", stored.PasswordHash)
	assert.True(t, password.NewBcrypt(bcrypt.MinCost).Verify("p@ss", stored.PasswordHash))

	login, err := svc.Login(ctx, LoginRequest{Username: "neo", Password: "p@ss"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
	assert.NotEmpty(t, login.RefreshToken)

	stored, err = users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, login.RefreshToken, *stored.RefreshToken)

	rotated, err := svc.RefreshAccessToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = svc.RefreshAccessToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenUsed)

	again, err := svc.RefreshAccessToken(ctx, rotated.RefreshToken)
	require.NoError(t, err)

	_, err = svc.RefreshAccessToken(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenUsed)

	require.NoError(t, svc.Logout(ctx, created.ID))
	require.NoError(t, svc.Logout(ctx, created.ID))
	_, err = svc.RefreshAccessToken(ctx, again.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenUsed)
}

func TestScenario_LoginRotatesOutPreviousRefreshToken(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "trinity", Email: "trinity@x.com", FullName: "Trinity", Password: "p@ss", AvatarPath: "/t.png",
	})
	require.NoError(t, err)

	first, err := svc.Login(ctx, LoginRequest{Email: "TRINITY@x.com", Password: "p@ss"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, LoginRequest{Username: "trinity", Password: "p@ss"})
	require.NoError(t, err)

	_, err = svc.RefreshAccessToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenUsed)

	_, err = svc.RefreshAccessToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestScenario_ConflictOnEitherField(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	base := RegisterInput{Username: "neo", Email: "neo@x.com", FullName: "Neo", Password: "p@ss", AvatarPath: "/a.png"}
	_, err := svc.Register(ctx, base)
	require.NoError(t, err)

	sameName := base
	sameName.Email = "fresh@x.com"
	_, err = svc.Register(ctx, sameName)
	assert.ErrorIs(t, err, ErrUserExists)

	sameEmail := base
	sameEmail.Username = "fresh"
	_, err = svc.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestScenario_ChangePasswordKeepsSession(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Username: "morpheus", Email: "m@x.com", FullName: "Morpheus", Password: "old", AvatarPath: "/m.png",
	})
	require.NoError(t, err)
	login, err := svc.Login(ctx, LoginRequest{Username: "morpheus", Password: "old"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, ChangePasswordRequest{OldPassword: "old", NewPassword: "new"}))

	_, err = svc.Login(ctx, LoginRequest{Username: "morpheus", Password: "old"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// the password write must not touch the refresh-token slot
	_, err = svc.RefreshAccessToken(ctx, login.RefreshToken)
	assert.NoError(t, err)
}
