package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vkn-server/internal/model"
)

func TestRefreshTokenRepository_Key(t *testing.T) {
	r := NewRefreshTokenRepository(nil, "vkn:refresh:")

	k := r.key("token")
	assert.Equal(t, k, r.key("token"))
	assert.NotEqual(t, k, r.key("other"))
	assert.True(t, len(k) == len("vkn:refresh:")+64)
	assert.NotContains(t, k, "token")
}

func TestRefreshTokenRepository_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRefreshTokenRepository(nil, "")
	r.now = func() time.Time { return now }

	assert.Equal(t, time.Hour+expiryGrace, r.ttl(now.Add(time.Hour)))
	assert.Equal(t, time.Second, r.ttl(now.Add(-2*expiryGrace)))
}

func TestRefreshTokenRepository_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRefreshTokenRepository(client, "test:")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := r.GetByValue(ctx, "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)

	err = r.Create(ctx, model.RefreshToken{Value: "token", ExpiresAt: time.Now().Add(time.Hour)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrTxConflict)
}
