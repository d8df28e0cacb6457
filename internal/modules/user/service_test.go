package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vidtube/internal/domain"
	"vidtube/internal/pkg/apierror"
	"vidtube/internal/repository"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserStore) Update(ctx context.Context, id string, patch domain.UserUpdate) (*domain.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserStore) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	args := m.Called(ctx, username, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelProfile), args.Error(1)
}

func (m *mockUserStore) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WatchedVideo), args.Error(1)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, localPath string) (string, error) {
	args := m.Called(ctx, localPath)
	return args.String(0), args.Error(1)
}

func strPtr(s string) *string { return &s }

func storedUser() *domain.User {
	return &domain.User{
		ID:           "u-1",
		Username:     "neo",
		Email:        "neo@x.com",
		FullName:     "Neo",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		RefreshToken: strPtr("refresh"),
	}
}

func TestGetCurrentUser(t *testing.T) {
	users := new(mockUserStore)
	users.On("FindByID", mock.Anything, "u-1").Return(storedUser(), nil)
	users.On("FindByID", mock.Anything, "gone").Return(nil, repository.ErrNotFound)
	svc := NewService(users, new(mockUploader), nil)

	u, err := svc.GetCurrentUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.Nil(t, u.RefreshToken)

	_, err = svc.GetCurrentUser(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateAccountDetails(t *testing.T) {
	t.Run("both blank", func(t *testing.T) {
		svc := NewService(new(mockUserStore), new(mockUploader), nil)
		_, err := svc.UpdateAccountDetails(context.Background(), "u-1", UpdateAccountRequest{FullName: "  "})
		assert.ErrorIs(t, err, ErrFieldsRequired)
	})

	t.Run("bad email", func(t *testing.T) {
		svc := NewService(new(mockUserStore), new(mockUploader), nil)
		_, err := svc.UpdateAccountDetails(context.Background(), "u-1", UpdateAccountRequest{Email: "not-an-email"})
		require.Error(t, err)
		assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	})

	t.Run("patches only supplied fields", func(t *testing.T) {
		users := new(mockUserStore)
		updated := storedUser()
		updated.Email = "new@x.com"
		users.On("Update", mock.Anything, "u-1", domain.UserUpdate{Email: strPtr("new@x.com")}).Return(updated, nil)
		svc := NewService(users, new(mockUploader), nil)

		u, err := svc.UpdateAccountDetails(context.Background(), "u-1", UpdateAccountRequest{Email: " NEW@x.com "})
		require.NoError(t, err)
		assert.Equal(t, "new@x.com", u.Email)
		assert.Empty(t, u.PasswordHash)
		users.AssertExpectations(t)
	})

	t.Run("email taken", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("Update", mock.Anything, "u-1", mock.Anything).Return(nil, repository.ErrDuplicate)
		svc := NewService(users, new(mockUploader), nil)

		_, err := svc.UpdateAccountDetails(context.Background(), "u-1", UpdateAccountRequest{Email: "taken@x.com", FullName: "Neo"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("Update", mock.Anything, "u-1", mock.Anything).Return(nil, errors.New("db down"))
		svc := NewService(users, new(mockUploader), nil)

		_, err := svc.UpdateAccountDetails(context.Background(), "u-1", UpdateAccountRequest{FullName: "Neo"})
		assert.Equal(t, apierror.KindInternal, apierror.KindOf(err))
	})
}

func TestUpdateAvatar(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		svc := NewService(new(mockUserStore), new(mockUploader), nil)
		_, err := svc.UpdateAvatar(context.Background(), "u-1", "")
		assert.ErrorIs(t, err, ErrAvatarMissing)
	})

	t.Run("upload failure", func(t *testing.T) {
		users := new(mockUserStore)
		uploader := new(mockUploader)
		uploader.On("Upload", mock.Anything, "/tmp/a.png").Return("", errors.New("s3 down"))
		svc := NewService(users, uploader, nil)

		_, err := svc.UpdateAvatar(context.Background(), "u-1", "/tmp/a.png")
		assert.ErrorIs(t, err, ErrAvatarUpload)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success writes only the avatar", func(t *testing.T) {
		users := new(mockUserStore)
		uploader := new(mockUploader)
		uploader.On("Upload", mock.Anything, "/tmp/a.png").Return("https://cdn/a.png", nil)
		updated := storedUser()
		updated.Avatar = "https://cdn/a.png"
		users.On("Update", mock.Anything, "u-1", domain.UserUpdate{Avatar: strPtr("https://cdn/a.png")}).Return(updated, nil)
		svc := NewService(users, uploader, nil)

		u, err := svc.UpdateAvatar(context.Background(), "u-1", "/tmp/a.png")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/a.png", u.Avatar)
		users.AssertExpectations(t)
	})
}

func TestUpdateCoverImage(t *testing.T) {
	svc := NewService(new(mockUserStore), new(mockUploader), nil)
	_, err := svc.UpdateCoverImage(context.Background(), "u-1", "")
	assert.ErrorIs(t, err, ErrCoverMissing)

	uploader := new(mockUploader)
	uploader.On("Upload", mock.Anything, "/tmp/c.png").Return("", nil)
	svc = NewService(new(mockUserStore), uploader, nil)
	_, err = svc.UpdateCoverImage(context.Background(), "u-1", "/tmp/c.png")
	assert.ErrorIs(t, err, ErrCoverUpload)

	users := new(mockUserStore)
	uploader = new(mockUploader)
	uploader.On("Upload", mock.Anything, "/tmp/c.png").Return("https://cdn/c.png", nil)
	users.On("Update", mock.Anything, "u-1", domain.UserUpdate{CoverImage: strPtr("https://cdn/c.png")}).
		Return(&domain.User{ID: "u-1", CoverImage: "https://cdn/c.png"}, nil)
	svc = NewService(users, uploader, nil)
	u, err := svc.UpdateCoverImage(context.Background(), "u-1", "/tmp/c.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/c.png", u.CoverImage)
}

func TestGetChannelProfile(t *testing.T) {
	users := new(mockUserStore)
	users.On("ChannelProfile", mock.Anything, "neo", "viewer").
		Return(&domain.ChannelProfile{Username: "neo", SubscribersCount: 2, IsSubscribed: true}, nil)
	users.On("ChannelProfile", mock.Anything, "ghost", "viewer").Return(nil, repository.ErrNotFound)
	svc := NewService(users, new(mockUploader), nil)

	_, err := svc.GetChannelProfile(context.Background(), "  ", "viewer")
	assert.ErrorIs(t, err, ErrUsernameMissing)

	p, err := svc.GetChannelProfile(context.Background(), " NEO ", "viewer")
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.SubscribersCount)
	assert.True(t, p.IsSubscribed)

	_, err = svc.GetChannelProfile(context.Background(), "ghost", "viewer")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestGetWatchHistory(t *testing.T) {
	users := new(mockUserStore)
	users.On("WatchHistory", mock.Anything, "u-1").Return(nil, nil)
	users.On("WatchHistory", mock.Anything, "gone").Return(nil, repository.ErrNotFound)
	svc := NewService(users, new(mockUploader), nil)

	videos, err := svc.GetWatchHistory(context.Background(), "u-1")
	require.NoError(t, err)
	assert.NotNil(t, videos)
	assert.Empty(t, videos)

	_, err = svc.GetWatchHistory(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
