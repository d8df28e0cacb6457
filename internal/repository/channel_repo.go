package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidtube/internal/domain"
)

type videoModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:36"`
	OwnerID     string    `gorm:"column:owner_id;size:36;index"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description"`
	VideoFile   string    `gorm:"column:video_file;not null"`
	Thumbnail   string    `gorm:"column:thumbnail"`
	Duration    float64   `gorm:"column:duration"`
	Views       int64     `gorm:"column:views;default:0"`
	IsPublished bool      `gorm:"column:is_published;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (videoModel) TableName() string { return "videos" }

type subscriptionModel struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	SubscriberID string    `gorm:"column:subscriber_id;size:36;not null;uniqueIndex:idx_subscription_pair"`
	ChannelID    string    `gorm:"column:channel_id;size:36;not null;uniqueIndex:idx_subscription_pair;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (subscriptionModel) TableName() string { return "subscriptions" }

// Migrate creates or updates every table this package reads or writes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&userModel{}, &videoModel{}, &subscriptionModel{}, &watchHistoryModel{})
}

type channelRow struct {
	ID                        string
	Username                  string
	FullName                  string
	Email                     string
	Avatar                    string
	CoverImage                string
	SubscribersCount          int64
	ChannelsSubscribedToCount int64
	IsSubscribed              bool
}

const channelProfileQuery = `
SELECT u.id, u.username, u.full_name, u.email, u.avatar, u.cover_image,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
	EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?) AS is_subscribed
FROM users u
WHERE u.username = ?
LIMIT 1`

// ChannelProfile returns the channel view of username as seen by viewerID.
func (r *UserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	var row channelRow
	tx := r.db.WithContext(ctx).Raw(channelProfileQuery, viewerID, domain.NormalizeUsername(username)).Scan(&row)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 || row.ID == "" {
		return nil, ErrNotFound
	}
	return &domain.ChannelProfile{
		ID:                        row.ID,
		Username:                  row.Username,
		FullName:                  row.FullName,
		Email:                     row.Email,
		Avatar:                    row.Avatar,
		CoverImage:                row.CoverImage,
		SubscribersCount:          row.SubscribersCount,
		ChannelsSubscribedToCount: row.ChannelsSubscribedToCount,
		IsSubscribed:              row.IsSubscribed,
	}, nil
}

type watchedRow struct {
	ID            string
	Title         string
	Description   string
	VideoFile     string
	Thumbnail     string
	Duration      float64
	Views         int64
	CreatedAt     time.Time
	OwnerID       *string
	OwnerUsername *string
	OwnerFullName *string
	OwnerAvatar   *string
}

const watchHistoryQuery = `
SELECT v.id, v.title, v.description, v.video_file, v.thumbnail, v.duration, v.views, v.created_at,
	o.id AS owner_id, o.username AS owner_username, o.full_name AS owner_full_name, o.avatar AS owner_avatar
FROM watch_history wh
JOIN videos v ON v.id = wh.video_id
LEFT JOIN users o ON o.id = v.owner_id
WHERE wh.user_id = ?
ORDER BY wh.position ASC`

// WatchHistory expands the user's watch history in watch order, each video
// with its owner's public fields.
func (r *UserRepository) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	var rows []watchedRow
	if err := r.db.WithContext(ctx).Raw(watchHistoryQuery, userID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.WatchedVideo, 0, len(rows))
	for _, row := range rows {
		v := domain.WatchedVideo{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			VideoFile:   row.VideoFile,
			Thumbnail:   row.Thumbnail,
			Duration:    row.Duration,
			Views:       row.Views,
			CreatedAt:   row.CreatedAt,
		}
		if row.OwnerID != nil {
			v.Owner = &domain.VideoOwner{
				ID:       *row.OwnerID,
				Username: deref(row.OwnerUsername),
				FullName: deref(row.OwnerFullName),
				Avatar:   deref(row.OwnerAvatar),
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// VideoRepository writes videos; reads go through the aggregation queries.
type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, v *domain.Video) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	m := videoModel{
		ID:          v.ID,
		OwnerID:     v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translateError(err)
	}
	v.CreatedAt, v.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m := subscriptionModel{ID: s.ID, SubscriberID: s.SubscriberID, ChannelID: s.ChannelID}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translateError(err)
	}
	s.CreatedAt = m.CreatedAt
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
