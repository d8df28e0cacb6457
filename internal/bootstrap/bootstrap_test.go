package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/config"
	"vidtube/internal/domain"
	"vidtube/internal/media"
)

func TestOpenStores_SQL(t *testing.T) {
	ctx := context.Background()
	stores, err := OpenStores(ctx, &config.Config{StoreDriver: config.StoreSQL, DatabaseURL: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close(ctx) })

	require.NoError(t, stores.Ping(ctx))

	hash, err := bcrypt.GenerateFromPassword([]byte("p@ss"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{
		Username:     "neo",
		Email:        "neo@x.com",
		FullName:     "Neo",
		Avatar:       "https://cdn/neo.png",
		PasswordHash: string(hash),
	}
	require.NoError(t, stores.Users.Create(ctx, u))
	require.NoError(t, stores.Videos.Create(ctx, &domain.Video{OwnerID: u.ID, Title: "t", VideoFile: "v.mp4"}))
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	_, err := OpenStores(context.Background(), &config.Config{StoreDriver: "cassandra"}, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenUploader(t *testing.T) {
	up, err := OpenUploader(context.Background(), &config.Config{
		MediaDriver:   config.MediaDisk,
		UploadsDir:    t.TempDir(),
		StaticURLBase: "/static/uploads",
	})
	require.NoError(t, err)
	assert.IsType(t, &media.DiskUploader{}, up)

	_, err = OpenUploader(context.Background(), &config.Config{MediaDriver: config.MediaS3})
	assert.Error(t, err, "bucket is required")

	_, err = OpenUploader(context.Background(), &config.Config{MediaDriver: "ftp"})
	assert.Error(t, err)
}
