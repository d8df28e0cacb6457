// Package mongostore is the MongoDB implementation of the user, video and
// subscription stores. It returns the sentinel errors of package repository
// so callers can treat both backends alike.
package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"vidtube/internal/domain"
	"vidtube/internal/pkg/password"
	"vidtube/internal/repository"
)

// EnsureIndexes creates the unique indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(subscriptionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "channel", Value: 1}}},
	})
	return err
}

type UserStore struct {
	users *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{users: db.Collection(usersCollection)}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	if !password.IsHash(u.PasswordHash) {
		return repository.ErrPlaintextPassword
	}

	id := bson.NewObjectID()
	if u.ID != "" {
		parsed, err := bson.ObjectIDFromHex(u.ID)
		if err != nil {
			return err
		}
		id = parsed
	}

	now := time.Now().UTC()
	doc := userDoc{
		ID:           id,
		Username:     domain.NormalizeUsername(u.Username),
		Email:        domain.NormalizeEmail(u.Email),
		FullName:     strings.TrimSpace(u.FullName),
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		WatchHistory: []bson.ObjectID{},
		Password:     u.PasswordHash,
		RefreshToken: u.RefreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	*u = *doc.toDomain()
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// FindByUsernameOrEmail matches username OR email; an empty argument is ignored.
func (s *UserStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	filter := usernameOrEmailFilter(domain.NormalizeUsername(username), domain.NormalizeEmail(email))
	if filter == nil {
		return nil, repository.ErrNotFound
	}
	return s.findOne(ctx, filter)
}

func usernameOrEmailFilter(username, email string) bson.D {
	var or bson.A
	if username != "" {
		or = append(or, bson.D{{Key: "username", Value: username}})
	}
	if email != "" {
		or = append(or, bson.D{{Key: "email", Value: email}})
	}
	if len(or) == 0 {
		return nil
	}
	return bson.D{{Key: "$or", Value: or}}
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateError(err)
	}
	return doc.toDomain(), nil
}

// Update applies patch with one findOneAndUpdate and returns the new document.
func (s *UserStore) Update(ctx context.Context, id string, patch domain.UserUpdate) (*domain.User, error) {
	if patch.IsEmpty() {
		return s.FindByID(ctx, id)
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	update, err := updateDocument(patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, translateError(err)
	}
	return doc.toDomain(), nil
}

func updateDocument(patch domain.UserUpdate, now time.Time) (bson.D, error) {
	set := bson.D{{Key: "updatedAt", Value: now}}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: domain.NormalizeEmail(*patch.Email)})
	}
	if patch.FullName != nil {
		set = append(set, bson.E{Key: "fullName", Value: strings.TrimSpace(*patch.FullName)})
	}
	if patch.Avatar != nil {
		set = append(set, bson.E{Key: "avatar", Value: *patch.Avatar})
	}
	if patch.CoverImage != nil {
		set = append(set, bson.E{Key: "coverImage", Value: *patch.CoverImage})
	}
	if patch.PasswordHash != nil {
		if !password.IsHash(*patch.PasswordHash) {
			return nil, repository.ErrPlaintextPassword
		}
		set = append(set, bson.E{Key: "password", Value: *patch.PasswordHash})
	}

	update := bson.D{}
	switch {
	case patch.ClearRefreshToken:
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: ""}}})
	case patch.RefreshToken != nil:
		set = append(set, bson.E{Key: "refreshToken", Value: *patch.RefreshToken})
	}
	return append(bson.D{{Key: "$set", Value: set}}, update...), nil
}

// SwapRefreshToken replaces the stored refresh token with next only if it
// still equals expected.
func (s *UserStore) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "refreshToken", Value: expected}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "refreshToken", Value: next},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return false, translateError(err)
	}
	return res.MatchedCount == 1, nil
}

// AppendWatchHistory pushes videoID onto the end of the user's history.
func (s *UserStore) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	uid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return repository.ErrNotFound
	}
	vid, err := bson.ObjectIDFromHex(videoID)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: uid}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "watchHistory", Value: vid}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ClearExpiredRefreshTokens unsets refresh tokens rejected by stillValid.
func (s *UserStore) ClearExpiredRefreshTokens(ctx context.Context, stillValid func(token string) bool) (int64, error) {
	cur, err := s.users.Find(ctx,
		bson.D{{Key: "refreshToken", Value: bson.D{{Key: "$exists", Value: true}}}},
		options.Find().SetProjection(bson.D{{Key: "refreshToken", Value: 1}}),
	)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var cleared int64
	for cur.Next(ctx) {
		var doc struct {
			ID           bson.ObjectID `bson:"_id"`
			RefreshToken *string       `bson:"refreshToken"`
		}
		if err := cur.Decode(&doc); err != nil {
			return cleared, err
		}
		if doc.RefreshToken == nil || stillValid(*doc.RefreshToken) {
			continue
		}
		res, err := s.users.UpdateOne(ctx,
			bson.D{{Key: "_id", Value: doc.ID}, {Key: "refreshToken", Value: *doc.RefreshToken}},
			bson.D{{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: ""}}}},
		)
		if err != nil {
			return cleared, err
		}
		cleared += res.ModifiedCount
	}
	return cleared, cur.Err()
}

// ChannelProfile returns the channel view of username as seen by viewerID.
func (s *UserStore) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	viewer, err := bson.ObjectIDFromHex(viewerID)
	if err != nil {
		viewer = bson.NilObjectID
	}
	cur, err := s.users.Aggregate(ctx, channelProfilePipeline(domain.NormalizeUsername(username), viewer))
	if err != nil {
		return nil, err
	}
	var docs []channelDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	return docs[0].toDomain(), nil
}

// WatchHistory expands the user's watch history in watch order.
func (s *UserStore) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	uid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	cur, err := s.users.Aggregate(ctx, watchHistoryPipeline(uid))
	if err != nil {
		return nil, err
	}
	var docs []historyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	return docs[0].ordered(), nil
}

type VideoStore struct {
	videos *mongo.Collection
}

func NewVideoStore(db *mongo.Database) *VideoStore {
	return &VideoStore{videos: db.Collection(videosCollection)}
}

func (s *VideoStore) Create(ctx context.Context, v *domain.Video) error {
	owner, err := bson.ObjectIDFromHex(v.OwnerID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc := videoDoc{
		ID:          bson.NewObjectID(),
		Owner:       owner,
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.videos.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	v.ID, v.CreatedAt, v.UpdatedAt = doc.ID.Hex(), now, now
	return nil
}

type SubscriptionStore struct {
	subscriptions *mongo.Collection
}

func NewSubscriptionStore(db *mongo.Database) *SubscriptionStore {
	return &SubscriptionStore{subscriptions: db.Collection(subscriptionsCollection)}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *domain.Subscription) error {
	subscriber, err := bson.ObjectIDFromHex(sub.SubscriberID)
	if err != nil {
		return err
	}
	channel, err := bson.ObjectIDFromHex(sub.ChannelID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc := subscriptionDoc{
		ID:         bson.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.subscriptions.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	sub.ID, sub.CreatedAt = doc.ID.Hex(), now
	return nil
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(repository.ErrDuplicate, err)
	default:
		return err
	}
}
