package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/domain"
)

const (
	usersCollection         = "users"
	videosCollection        = "videos"
	subscriptionsCollection = "subscriptions"
)

type userDoc struct {
	ID           bson.ObjectID   `bson:"_id"`
	Username     string          `bson:"username"`
	Email        string          `bson:"email"`
	FullName     string          `bson:"fullName"`
	Avatar       string          `bson:"avatar"`
	CoverImage   string          `bson:"coverImage"`
	WatchHistory []bson.ObjectID `bson:"watchHistory"`
	Password     string          `bson:"password"`
	RefreshToken *string         `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

func (d userDoc) toDomain() *domain.User {
	history := make([]string, 0, len(d.WatchHistory))
	for _, id := range d.WatchHistory {
		history = append(history, id.Hex())
	}
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		Avatar:       d.Avatar,
		CoverImage:   d.CoverImage,
		WatchHistory: history,
		PasswordHash: d.Password,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type videoDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	Owner       bson.ObjectID `bson:"owner"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	VideoFile   string        `bson:"videoFile"`
	Thumbnail   string        `bson:"thumbnail"`
	Duration    float64       `bson:"duration"`
	Views       int64         `bson:"views"`
	IsPublished bool          `bson:"isPublished"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

type subscriptionDoc struct {
	ID         bson.ObjectID `bson:"_id"`
	Subscriber bson.ObjectID `bson:"subscriber"`
	Channel    bson.ObjectID `bson:"channel"`
	CreatedAt  time.Time     `bson:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt"`
}

type channelDoc struct {
	ID                        bson.ObjectID `bson:"_id"`
	Username                  string        `bson:"username"`
	FullName                  string        `bson:"fullName"`
	Email                     string        `bson:"email"`
	Avatar                    string        `bson:"avatar"`
	CoverImage                string        `bson:"coverImage"`
	SubscribersCount          int64         `bson:"subscribersCount"`
	ChannelsSubscribedToCount int64         `bson:"channelsSubscribedToCount"`
	IsSubscribed              bool          `bson:"isSubscribed"`
}

func (d channelDoc) toDomain() *domain.ChannelProfile {
	return &domain.ChannelProfile{
		ID:                        d.ID.Hex(),
		Username:                  d.Username,
		FullName:                  d.FullName,
		Email:                     d.Email,
		Avatar:                    d.Avatar,
		CoverImage:                d.CoverImage,
		SubscribersCount:          d.SubscribersCount,
		ChannelsSubscribedToCount: d.ChannelsSubscribedToCount,
		IsSubscribed:              d.IsSubscribed,
	}
}

type ownerDoc struct {
	ID       bson.ObjectID `bson:"_id"`
	Username string        `bson:"username"`
	FullName string        `bson:"fullName"`
	Avatar   string        `bson:"avatar"`
}

type watchedDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	VideoFile   string        `bson:"videoFile"`
	Thumbnail   string        `bson:"thumbnail"`
	Duration    float64       `bson:"duration"`
	Views       int64         `bson:"views"`
	Owner       *ownerDoc     `bson:"owner,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt"`
}

// historyDoc is the single result of the watch-history pipeline: the ordered
// ids plus the looked-up videos, which $lookup returns unordered.
type historyDoc struct {
	WatchHistory []bson.ObjectID `bson:"watchHistory"`
	Videos       []watchedDoc    `bson:"videos"`
}

// ordered expands WatchHistory in order. Ids with no matching video are dropped.
func (d historyDoc) ordered() []domain.WatchedVideo {
	byID := make(map[bson.ObjectID]watchedDoc, len(d.Videos))
	for _, v := range d.Videos {
		byID[v.ID] = v
	}
	out := make([]domain.WatchedVideo, 0, len(d.WatchHistory))
	for _, id := range d.WatchHistory {
		v, ok := byID[id]
		if !ok {
			continue
		}
		w := domain.WatchedVideo{
			ID:          v.ID.Hex(),
			Title:       v.Title,
			Description: v.Description,
			VideoFile:   v.VideoFile,
			Thumbnail:   v.Thumbnail,
			Duration:    v.Duration,
			Views:       v.Views,
			CreatedAt:   v.CreatedAt,
		}
		if v.Owner != nil {
			w.Owner = &domain.VideoOwner{
				ID:       v.Owner.ID.Hex(),
				Username: v.Owner.Username,
				FullName: v.Owner.FullName,
				Avatar:   v.Owner.Avatar,
			}
		}
		out = append(out, w)
	}
	return out
}
