package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"vidtube/internal/domain"
	"vidtube/internal/media"
	"vidtube/internal/metrics"
	"vidtube/internal/pkg/apierror"
	"vidtube/internal/pkg/jwt"
	"vidtube/internal/pkg/password"
	"vidtube/internal/repository"
)

// Service contains the session lifecycle: register, login, refresh, logout
// and password change.
//
// Each user has a single refresh-token slot. Login and refresh overwrite it,
// so only the most recently issued refresh token can be exchanged.
type Service struct {
	users    UserStore
	hasher   password.Hasher
	tokens   TokenIssuer
	uploader media.Uploader
	log      *zap.Logger
}

func NewService(users UserStore, hasher password.Hasher, tokens TokenIssuer, uploader media.Uploader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		uploader: uploader,
		log:      log.Named("auth"),
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if missing := blankFields(in); len(missing) > 0 {
		return nil, ErrFieldsRequired.WithDetails(missing...)
	}

	_, err := s.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		metrics.RecordAuthEvent(metrics.EventRegister, metrics.OutcomeRejected)
		return nil, ErrUserExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, ErrRegistrationFailed.Wrap(err)
	}

	if in.AvatarPath == "" {
		return nil, ErrAvatarRequired
	}
	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	metrics.RecordMediaUpload("avatar", err)
	if err != nil {
		s.log.Warn("avatar upload failed", zap.Error(err))
		return nil, ErrAvatarRequired
	}

	coverURL := ""
	if in.CoverImagePath != "" {
		url, err := s.uploader.Upload(ctx, in.CoverImagePath)
		metrics.RecordMediaUpload("cover_image", err)
		if err != nil {
			s.log.Warn("cover image upload failed, continuing without one", zap.Error(err))
		} else {
			coverURL = url
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, ErrRegistrationFailed.Wrap(err)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.RecordAuthEvent(metrics.EventRegister, metrics.OutcomeRejected)
			return nil, ErrUserExists
		}
		return nil, ErrRegistrationFailed.Wrap(err)
	}

	created, err := s.users.FindByID(ctx, user.ID)
	if err != nil || created == nil {
		return nil, ErrRegistrationFailed.Wrap(err)
	}

	metrics.RecordAuthEvent(metrics.EventRegister, metrics.OutcomeSuccess)
	s.log.Info("user registered", zap.String("user_id", created.ID), zap.String("username", created.Username))
	return created.Sanitized(), nil
}

func blankFields(in RegisterInput) []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"fullName", in.FullName},
		{"password", in.Password},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Login verifies the credentials and rotates the refresh token. The only
// write is the refresh-token field.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if strings.TrimSpace(req.Username) == "" && strings.TrimSpace(req.Email) == "" {
		return nil, ErrIdentifierRequired
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeRejected)
			return nil, ErrUserNotFound
		}
		return nil, apierror.Internal("Something went wrong while logging in", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeRejected)
		s.log.Info("login rejected", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeError)
		return nil, ErrTokenGeneration.Wrap(err)
	}
	updated, err := s.users.Update(ctx, user.ID, domain.UserUpdate{RefreshToken: &pair.RefreshToken})
	if err != nil {
		metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeError)
		return nil, ErrTokenGeneration.Wrap(err)
	}

	metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeSuccess)
	return &LoginResult{
		User:         updated.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout unsets the stored refresh token. Logging out twice, or for a user
// that no longer exists, is not an error.
func (s *Service) Logout(ctx context.Context, userID string) error {
	_, err := s.users.Update(ctx, userID, domain.UserUpdate{ClearRefreshToken: true})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apierror.Internal("Something went wrong while logging out", err)
	}
	metrics.RecordAuthEvent(metrics.EventLogout, metrics.OutcomeSuccess)
	return nil
}

// RefreshAccessToken exchanges the stored refresh token for a new pair.
// The stored value is replaced with compare-and-swap, so of two concurrent
// exchanges of the same token only one succeeds.
func (s *Service) RefreshAccessToken(ctx context.Context, token string) (jwt.TokenPair, error) {
	if token == "" {
		return jwt.TokenPair{}, ErrUnauthorizedRequest
	}

	claims, err := s.tokens.VerifyRefresh(token)
	if err != nil {
		metrics.RecordAuthEvent(metrics.EventRefresh, metrics.OutcomeRejected)
		s.log.Info("refresh token rejected", zap.String("reason", jwt.Reason(err)))
		return jwt.TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordAuthEvent(metrics.EventRefresh, metrics.OutcomeRejected)
			return jwt.TokenPair{}, ErrInvalidRefreshToken
		}
		return jwt.TokenPair{}, ErrTokenGeneration.Wrap(err)
	}

	if !user.HasRefreshToken(token) {
		metrics.RecordAuthEvent(metrics.EventRefresh, metrics.OutcomeReused)
		s.log.Warn("stale refresh token presented", zap.String("user_id", user.ID))
		return jwt.TokenPair{}, ErrRefreshTokenUsed
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		metrics.RecordAuthEvent(metrics.EventRefresh, metrics.OutcomeError)
		return jwt.TokenPair{}, ErrTokenGeneration.Wrap(err)
	}

	swapped, err := s.users.SwapRefreshToken(ctx, user.ID, token, pair.RefreshToken)
	if err != nil {
		metrics.RecordAuthEvent(metrics.EventRefresh, metrics.OutcomeError)
		return jwt.TokenPair{}, ErrTokenGeneration.Wrap(err)
	}
	if !swapped {
		metrics.RecordAuthEvent(metrics.EventRefresh, metrics.OutcomeReused)
		s.log.Warn("refresh token rotated concurrently", zap.String("user_id", user.ID))
		return jwt.TokenPair{}, ErrRefreshTokenUsed
	}

	metrics.RecordAuthEvent(metrics.EventRefresh, metrics.OutcomeSuccess)
	return pair, nil
}

// ChangePassword re-hashes and stores newPassword for userID. Only the
// password field is written.
func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	// a blank old password is left to Verify and rejected as unauthorized
	if strings.TrimSpace(req.NewPassword) == "" {
		return ErrNewPasswordRequired
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return apierror.Internal("Something went wrong while changing the password", err)
	}

	if !s.hasher.Verify(req.OldPassword, user.PasswordHash) {
		metrics.RecordAuthEvent(metrics.EventChangePassword, metrics.OutcomeRejected)
		return ErrInvalidOldPassword
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apierror.Internal("Something went wrong while changing the password", err)
	}
	if _, err := s.users.Update(ctx, user.ID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		return apierror.Internal("Something went wrong while changing the password", err)
	}

	metrics.RecordAuthEvent(metrics.EventChangePassword, metrics.OutcomeSuccess)
	return nil
}

// CurrentUser loads the sanitized record for an authenticated request.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apierror.Internal("Something went wrong while loading the user", err)
	}
	return user.Sanitized(), nil
}
