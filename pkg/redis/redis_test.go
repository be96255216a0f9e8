package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qmomentum/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := New(ctx, &config.Config{
		Redis: config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"},
	})
	assert.Error(t, err)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var result map[string]int
	found, err := cache.Get(ctx, "k", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, result)

	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestKeys(t *testing.T) {
	cache := NewCache(disabledClient(t), "qmomentum")
	assert.Equal(t, "qmomentum:cache:screening:latest", cache.key(LatestScreeningKey))
	assert.Equal(t, "screening:2024-03-28", ScreeningKey(time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)))
}
