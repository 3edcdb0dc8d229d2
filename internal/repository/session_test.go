package repository

import (
	"context"
	"net/http"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotmap/spot-api/internal/model"
)

func TestDecodeSession(t *testing.T) {
	const id = "0123456789abcdef01234567"
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("full record", func(t *testing.T) {
		s, err := decodeSession(id, map[string]string{
			"id":         id,
			"created_at": created.Format(http.TimeFormat),
			"expires_at": "1800000000",
			"who":        `{"id":"g:42","email":"a@b.com"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, id, s.ID)
		assert.True(t, created.Equal(s.CreatedAt))
		assert.Equal(t, int64(1800000000), s.ExpiresAt.Unix())
		require.NotNil(t, s.Who)
		assert.Equal(t, "g:42", s.Who.ID)
		assert.Equal(t, "a@b.com", s.Who.Email)
	})

	t.Run("anonymous record", func(t *testing.T) {
		s, err := decodeSession(id, map[string]string{
			"id":         id,
			"created_at": created.Format(http.TimeFormat),
			"expires_at": "1800000000",
		})
		require.NoError(t, err)
		assert.Nil(t, s.Who)
	})

	t.Run("bad expiry", func(t *testing.T) {
		_, err := decodeSession(id, map[string]string{"expires_at": "soon"})
		assert.Error(t, err)
	})

	t.Run("bad who", func(t *testing.T) {
		_, err := decodeSession(id, map[string]string{"expires_at": "1800000000", "who": "{"})
		assert.Error(t, err)
	})

	t.Run("mismatched id", func(t *testing.T) {
		_, err := decodeSession(id, map[string]string{"id": "ffffffffffffffffffffffff", "expires_at": "1800000000"})
		assert.Error(t, err)
	})
}

// newTestRedis connects to a local Redis on DB 15 or skips the test.
func newTestRedis(t *testing.T) *goredis.Client {
	t.Helper()

	opts, err := goredis.ParseURL("redis://localhost:6379/15")
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("Redis not available for testing")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSessionRepository_Redis(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	prefix := "test-session:" + time.Now().Format("150405.000000") + ":"
	repo := NewSessionRepository(client, prefix)

	now := time.Now().Truncate(time.Second)
	session := model.Session{
		ID:        "0123456789abcdef01234567",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	t.Run("missing record is nil", func(t *testing.T) {
		found, err := repo.FindByID(ctx, "ffffffffffffffffffffffff")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("create then find", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, session))

		found, err := repo.FindByID(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, session.ID, found.ID)
		assert.True(t, session.CreatedAt.Equal(found.CreatedAt))
		assert.True(t, session.ExpiresAt.Equal(found.ExpiresAt))
		assert.Nil(t, found.Who)

		ttl, err := client.TTL(ctx, prefix+session.ID).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("create refuses taken id", func(t *testing.T) {
		assert.ErrorIs(t, repo.Create(ctx, session), ErrSessionExists)
	})

	t.Run("update expiry", func(t *testing.T) {
		later := now.Add(2 * time.Hour)
		require.NoError(t, repo.UpdateExpiry(ctx, session.ID, later))

		found, err := repo.FindByID(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, later.Equal(found.ExpiresAt))
	})

	t.Run("update expiry on vanished record", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateExpiry(ctx, "aaaaaaaaaaaaaaaaaaaaaaaa", now.Add(time.Hour)), ErrSessionNotFound)
	})

	t.Run("set and remove who", func(t *testing.T) {
		require.NoError(t, repo.SetWho(ctx, session.ID, model.Who{ID: "g:1", Email: "a@b.com"}))

		found, err := repo.FindByID(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, found.Who)
		assert.Equal(t, "g:1", found.Who.ID)

		require.NoError(t, repo.RemoveWho(ctx, session.ID))
		require.NoError(t, repo.RemoveWho(ctx, session.ID))

		found, err = repo.FindByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Nil(t, found.Who)
	})

	t.Run("set who on vanished record", func(t *testing.T) {
		err := repo.SetWho(ctx, "aaaaaaaaaaaaaaaaaaaaaaaa", model.Who{ID: "g:1"})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	client.Del(ctx, prefix+session.ID)
}
