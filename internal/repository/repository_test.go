package repository

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/models"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisRepository) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisRepository(client, 5*time.Minute)
}

func TestRedisAllow(t *testing.T) {
	mr, repo := setupRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := repo.Allow(ctx, "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := repo.Allow(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "fourth request in the window is rejected")

	// Другой ключ не задет
	ok, err = repo.Allow(ctx, "user:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Окно истекло, счетчик сброшен
	mr.FastForward(2 * time.Minute)
	ok, err = repo.Allow(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisItemView(t *testing.T) {
	mr, repo := setupRedis(t)
	ctx := context.Background()

	missing, err := repo.GetItemView(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	item := &models.Item{ID: 7, Name: "Дрель", Available: true}
	require.NoError(t, repo.SetItemView(ctx, item))

	got, err := repo.GetItemView(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Дрель", got.Name)

	require.NoError(t, repo.InvalidateItem(ctx, 7))
	gone, err := repo.GetItemView(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// TTL истекает
	require.NoError(t, repo.SetItemView(ctx, item))
	mr.FastForward(10 * time.Minute)
	expired, err := repo.GetItemView(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(50 * time.Millisecond)

	t.Run("RateLimit", func(t *testing.T) {
		ok, err := repo.Allow(ctx, "u1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, _ = repo.Allow(ctx, "u1", 2, time.Minute)
		assert.True(t, ok)
		ok, _ = repo.Allow(ctx, "u1", 2, time.Minute)
		assert.False(t, ok)
	})

	t.Run("ConcurrentRateLimit", func(t *testing.T) {
		const (
			workers = 8
			calls   = 50
			limit   = 100
		)

		var allowed int64
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < calls; j++ {
					ok, err := repo.Allow(ctx, "concurrent", limit, time.Hour)
					assert.NoError(t, err)
					if ok {
						atomic.AddInt64(&allowed, 1)
					}
				}
			}()
		}
		wg.Wait()

		// Ровно limit запросов проходят, остальные отклонены
		assert.Equal(t, int64(limit), allowed)
	})

	t.Run("ViewTTL", func(t *testing.T) {
		require.NoError(t, repo.SetItemView(ctx, &models.Item{ID: 1, Name: "x"}))
		got, err := repo.GetItemView(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)

		time.Sleep(60 * time.Millisecond)
		expired, err := repo.GetItemView(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, expired)
	})
}

// failingRepo always errors, to drive the failover.
type failingRepo struct{}

func (failingRepo) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingRepo) GetItemView(context.Context, int64) (*models.Item, error) {
	return nil, errors.New("connection refused")
}
func (failingRepo) SetItemView(context.Context, *models.Item) error {
	return errors.New("connection refused")
}
func (failingRepo) InvalidateItem(context.Context, int64) error {
	return errors.New("connection refused")
}

func TestFailoverFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	fallback := NewMemoryRepository(time.Minute)
	repo := NewFailoverRepository(failingRepo{}, fallback, &logger)

	ok, err := repo.Allow(ctx, "u1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "served by fallback")

	ok, err = repo.Allow(ctx, "u1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "fallback keeps counting")

	require.NoError(t, repo.SetItemView(ctx, &models.Item{ID: 3, Name: "x"}))
	got, err := repo.GetItemView(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestFailoverRecovers(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	_, primary := setupRedis(t)
	fallback := NewMemoryRepository(time.Minute)
	repo := NewFailoverRepository(primary, fallback, &logger)

	// Здоровый primary обслуживает запросы
	require.NoError(t, repo.SetItemView(ctx, &models.Item{ID: 5, Name: "primary"}))
	got, err := primary.GetItemView(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
}
