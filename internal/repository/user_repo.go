package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"vidtube/internal/domain"
	"vidtube/internal/pkg/password"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrPlaintextPassword = errors.New("refusing to persist a password that is not hashed")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	Username     string    `gorm:"column:username;size:64;uniqueIndex;not null"`
	Email        string    `gorm:"column:email;size:255;uniqueIndex;not null"`
	FullName     string    `gorm:"column:full_name;size:255;not null"`
	Avatar       string    `gorm:"column:avatar;not null"`
	CoverImage   string    `gorm:"column:cover_image;not null;default:''"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	RefreshToken *string   `gorm:"column:refresh_token"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type watchHistoryModel struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:36"`
	Position  int       `gorm:"column:position;primaryKey"`
	VideoID   string    `gorm:"column:video_id;size:36;not null;index"`
	WatchedAt time.Time `gorm:"column:watched_at"`
}

func (watchHistoryModel) TableName() string { return "watch_history" }

func toDomainUser(m userModel, history []string) *domain.User {
	if history == nil {
		history = []string{}
	}
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		FullName:     m.FullName,
		Avatar:       m.Avatar,
		CoverImage:   m.CoverImage,
		WatchHistory: history,
		PasswordHash: m.PasswordHash,
		RefreshToken: m.RefreshToken,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	return userModel{
		ID:           u.ID,
		Username:     domain.NormalizeUsername(u.Username),
		Email:        domain.NormalizeEmail(u.Email),
		FullName:     strings.TrimSpace(u.FullName),
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		PasswordHash: u.PasswordHash,
		RefreshToken: u.RefreshToken,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if !password.IsHash(u.PasswordHash) {
		return ErrPlaintextPassword
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translateError(err)
	}
	*u = *toDomainUser(m, nil)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	history, err := r.watchHistoryIDs(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return toDomainUser(m, history), nil
}

// FindByUsernameOrEmail matches username OR email; an empty argument is ignored.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	username = domain.NormalizeUsername(username)
	email = domain.NormalizeEmail(email)

	q := r.db.WithContext(ctx)
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		return nil, ErrNotFound
	}

	var m userModel
	if err := q.First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	history, err := r.watchHistoryIDs(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return toDomainUser(m, history), nil
}

// Update applies patch as a single field-level UPDATE and returns the fresh
// record. Fields absent from patch are not written.
func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserUpdate) (*domain.User, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Email != nil {
		updates["email"] = domain.NormalizeEmail(*patch.Email)
	}
	if patch.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*patch.FullName)
	}
	if patch.Avatar != nil {
		updates["avatar"] = *patch.Avatar
	}
	if patch.CoverImage != nil {
		updates["cover_image"] = *patch.CoverImage
	}
	if patch.PasswordHash != nil {
		if !password.IsHash(*patch.PasswordHash) {
			return nil, ErrPlaintextPassword
		}
		updates["password_hash"] = *patch.PasswordHash
	}
	switch {
	case patch.ClearRefreshToken:
		updates["refresh_token"] = nil
	case patch.RefreshToken != nil:
		updates["refresh_token"] = *patch.RefreshToken
	}

	tx := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return nil, translateError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// SwapRefreshToken replaces the stored refresh token with next only if it
// still equals expected. It reports whether the swap happened.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Updates(map[string]any{
			"refresh_token": next,
			"updated_at":    time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, translateError(tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

// AppendWatchHistory records videoID as the newest watch-history entry.
func (r *UserRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&watchHistoryModel{}).
			Where("user_id = ?", userID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		return translateError(tx.Create(&watchHistoryModel{
			UserID:    userID,
			Position:  next,
			VideoID:   videoID,
			WatchedAt: time.Now().UTC(),
		}).Error)
	})
}

// ClearExpiredRefreshTokens unsets refresh tokens rejected by stillValid.
// Used by the maintenance job; returns the number of users touched.
func (r *UserRepository) ClearExpiredRefreshTokens(ctx context.Context, stillValid func(token string) bool) (int64, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).
		Select("id", "refresh_token").
		Where("refresh_token IS NOT NULL").
		Find(&rows).Error; err != nil {
		return 0, err
	}

	var cleared int64
	for _, row := range rows {
		if row.RefreshToken == nil || stillValid(*row.RefreshToken) {
			continue
		}
		tx := r.db.WithContext(ctx).Model(&userModel{}).
			Where("id = ? AND refresh_token = ?", row.ID, *row.RefreshToken).
			Update("refresh_token", nil)
		if tx.Error != nil {
			return cleared, tx.Error
		}
		cleared += tx.RowsAffected
	}
	return cleared, nil
}

func (r *UserRepository) watchHistoryIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&watchHistoryModel{}).
		Where("user_id = ?", userID).
		Order("position ASC").
		Pluck("video_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isDuplicateKey(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
