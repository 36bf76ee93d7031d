package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// CacheRepository combines the rate limiter and the item-view cache.
type CacheRepository interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	GetItemView(ctx context.Context, itemID int64) (*models.Item, error)
	SetItemView(ctx context.Context, item *models.Item) error
	InvalidateItem(ctx context.Context, itemID int64) error
}

// FailoverRepository serves from the primary until it errors, then falls back
// to the in-memory store and probes the primary again after a minute.
type FailoverRepository struct {
	primary   CacheRepository
	fallback  CacheRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverRepository(primary, fallback CacheRepository, logger *zerolog.Logger) *FailoverRepository {
	return &FailoverRepository{primary: primary, fallback: fallback, logger: logger}
}

func (r *FailoverRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.tryPrimary() {
		ok, err := r.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return ok, nil
		}
		r.markDown(err)
	}
	return r.fallback.Allow(ctx, key, limit, window)
}

func (r *FailoverRepository) GetItemView(ctx context.Context, itemID int64) (*models.Item, error) {
	if r.tryPrimary() {
		item, err := r.primary.GetItemView(ctx, itemID)
		if err == nil {
			return item, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetItemView(ctx, itemID)
}

func (r *FailoverRepository) SetItemView(ctx context.Context, item *models.Item) error {
	if r.tryPrimary() {
		err := r.primary.SetItemView(ctx, item)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetItemView(ctx, item)
}

func (r *FailoverRepository) InvalidateItem(ctx context.Context, itemID int64) error {
	// Both stores are invalidated so a stale fallback entry cannot resurface
	// after recovery.
	var primaryErr error
	if r.tryPrimary() {
		if primaryErr = r.primary.InvalidateItem(ctx, itemID); primaryErr != nil {
			r.markDown(primaryErr)
		}
	}
	if err := r.fallback.InvalidateItem(ctx, itemID); err != nil {
		return err
	}
	return primaryErr
}

// tryPrimary reports whether the primary should be attempted, allowing a
// probe once per minute while it is marked down.
func (r *FailoverRepository) tryPrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	if time.Since(last) > time.Minute {
		r.lastCheck.Store(time.Now().UnixNano())
		r.isDown.Store(false)
		return true
	}
	return false
}

func (r *FailoverRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary cache repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}
