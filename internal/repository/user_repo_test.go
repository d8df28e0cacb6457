package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vidtube/internal/database"
	"vidtube/internal/domain"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func createUser(t *testing.T, repo *UserRepository, username, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        email,
		FullName:     "  " + username + "  ",
		Avatar:       "https://cdn.example.com/" + username + ".png",
		PasswordHash: hashOf(t, "p@ss"),
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_CreateNormalizes(t *testing.T) {
	repo := NewUserRepository(setupDB(t))

	u := createUser(t, repo, "  Neo ", " NEO@X.com ")

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "neo", u.Username)
	assert.Equal(t, "neo@x.com", u.Email)
	assert.Equal(t, "Neo", u.FullName)
	assert.Equal(t, "", u.CoverImage)
	assert.Nil(t, u.RefreshToken)
}

func TestUserRepository_CreateRejectsPlaintext(t *testing.T) {
	repo := NewUserRepository(setupDB(t))

	err := repo.Create(context.Background(), &domain.User{
		Username: "neo", Email: "neo@x.com", FullName: "Neo", Avatar: "a", PasswordHash: "p@ss",
	})
	assert.ErrorIs(t, err, ErrPlaintextPassword)
}

func TestUserRepository_UniqueUsernameAndEmail(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	createUser(t, repo, "neo", "neo@x.com")

	err := repo.Create(context.Background(), &domain.User{
		Username: "NEO", Email: "other@x.com", FullName: "x", Avatar: "a", PasswordHash: hashOf(t, "p"),
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = repo.Create(context.Background(), &domain.User{
		Username: "trinity", Email: "neo@x.com", FullName: "x", Avatar: "a", PasswordHash: hashOf(t, "p"),
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_FindByUsernameOrEmail(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	created := createUser(t, repo, "neo", "neo@x.com")
	ctx := context.Background()

	byName, err := repo.FindByUsernameOrEmail(ctx, "NEO", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := repo.FindByUsernameOrEmail(ctx, "", "Neo@X.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	either, err := repo.FindByUsernameOrEmail(ctx, "nobody", "neo@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, either.ID)

	_, err = repo.FindByUsernameOrEmail(ctx, "nobody", "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByUsernameOrEmail(ctx, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_UpdateTouchesOnlyPatchedFields(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	u := createUser(t, repo, "neo", "neo@x.com")
	ctx := context.Background()

	token := "refresh-1"
	updated, err := repo.Update(ctx, u.ID, domain.UserUpdate{RefreshToken: &token})
	require.NoError(t, err)

	require.NotNil(t, updated.RefreshToken)
	assert.Equal(t, "refresh-1", *updated.RefreshToken)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)
	assert.Equal(t, u.Email, updated.Email)

	cleared, err := repo.Update(ctx, u.ID, domain.UserUpdate{ClearRefreshToken: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.RefreshToken)

	plain := "not-a-hash"
	_, err = repo.Update(ctx, u.ID, domain.UserUpdate{PasswordHash: &plain})
	assert.ErrorIs(t, err, ErrPlaintextPassword)

	_, err = repo.Update(ctx, "missing", domain.UserUpdate{ClearRefreshToken: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_SwapRefreshToken(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	u := createUser(t, repo, "neo", "neo@x.com")
	ctx := context.Background()

	first := "t1"
	_, err := repo.Update(ctx, u.ID, domain.UserUpdate{RefreshToken: &first})
	require.NoError(t, err)

	ok, err := repo.SwapRefreshToken(ctx, u.ID, "t1", "t2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SwapRefreshToken(ctx, u.ID, "t1", "t3")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "t2", *got.RefreshToken)
}

func TestUserRepository_ClearExpiredRefreshTokens(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	ctx := context.Background()
	a := createUser(t, repo, "a", "a@x.com")
	b := createUser(t, repo, "b", "b@x.com")
	createUser(t, repo, "c", "c@x.com")

	stale, fresh := "stale", "fresh"
	_, err := repo.Update(ctx, a.ID, domain.UserUpdate{RefreshToken: &stale})
	require.NoError(t, err)
	_, err = repo.Update(ctx, b.ID, domain.UserUpdate{RefreshToken: &fresh})
	require.NoError(t, err)

	n, err := repo.ClearExpiredRefreshTokens(ctx, func(tok string) bool { return tok == "fresh" })
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	gotA, _ := repo.FindByID(ctx, a.ID)
	gotB, _ := repo.FindByID(ctx, b.ID)
	assert.Nil(t, gotA.RefreshToken)
	assert.NotNil(t, gotB.RefreshToken)
}
