package user

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"vidtube/internal/domain"
	"vidtube/internal/media"
	"vidtube/internal/metrics"
	"vidtube/internal/pkg/apierror"
	"vidtube/internal/pkg/validator"
	"vidtube/internal/repository"
)

// Service serves the authenticated account surface: profile edits, media
// replacement, channel pages and watch history.
type Service struct {
	users    UserStore
	uploader media.Uploader
	log      *zap.Logger
}

func NewService(users UserStore, uploader media.Uploader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, uploader: uploader, log: log.Named("user")}
}

func (s *Service) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return u.Sanitized(), nil
}

// UpdateAccountDetails patches email and full name. Blank fields are left as
// they are; at least one has to be supplied.
func (s *Service) UpdateAccountDetails(ctx context.Context, id string, req UpdateAccountRequest) (*domain.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = domain.NormalizeEmail(req.Email)
	if req.FullName == "" && req.Email == "" {
		return nil, ErrFieldsRequired
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, apierror.Validation("Invalid account details", validator.Details(errs)...)
	}

	var patch domain.UserUpdate
	if req.FullName != "" {
		patch.FullName = &req.FullName
	}
	if req.Email != "" {
		patch.Email = &req.Email
	}

	u, err := s.users.Update(ctx, id, patch)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, notFoundAs(err, ErrUserNotFound)
	}

	s.log.Info("account details updated", zap.String("user_id", id))
	return u.Sanitized(), nil
}

func (s *Service) UpdateAvatar(ctx context.Context, id, localPath string) (*domain.User, error) {
	if localPath == "" {
		return nil, ErrAvatarMissing
	}
	url, err := s.uploader.Upload(ctx, localPath)
	metrics.RecordMediaUpload("avatar", err)
	if err != nil || url == "" {
		s.log.Warn("avatar upload failed", zap.String("user_id", id), zap.Error(err))
		return nil, ErrAvatarUpload
	}
	return s.patchMedia(ctx, id, domain.UserUpdate{Avatar: &url})
}

func (s *Service) UpdateCoverImage(ctx context.Context, id, localPath string) (*domain.User, error) {
	if localPath == "" {
		return nil, ErrCoverMissing
	}
	url, err := s.uploader.Upload(ctx, localPath)
	metrics.RecordMediaUpload("cover_image", err)
	if err != nil || url == "" {
		s.log.Warn("cover image upload failed", zap.String("user_id", id), zap.Error(err))
		return nil, ErrCoverUpload
	}
	return s.patchMedia(ctx, id, domain.UserUpdate{CoverImage: &url})
}

func (s *Service) patchMedia(ctx context.Context, id string, patch domain.UserUpdate) (*domain.User, error) {
	u, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return u.Sanitized(), nil
}

// GetChannelProfile returns the channel page of username as seen by viewerID.
func (s *Service) GetChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return nil, ErrUsernameMissing
	}
	profile, err := s.users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, notFoundAs(err, ErrChannelNotFound)
	}
	return profile, nil
}

func (s *Service) GetWatchHistory(ctx context.Context, id string) ([]domain.WatchedVideo, error) {
	videos, err := s.users.WatchHistory(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	if videos == nil {
		videos = []domain.WatchedVideo{}
	}
	return videos, nil
}

// notFoundAs maps repository.ErrNotFound to target and anything else to a
// wrapped internal error.
func notFoundAs(err error, target *apierror.Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return apierror.Internal("Internal server error", err)
}
