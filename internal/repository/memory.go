package repository

import (
	"context"
	"sync"
	"time"

	"shareit/internal/models"
)

// MemoryRepository is the in-process fallback for the redis repository.
// Entries expire lazily on read.
type MemoryRepository struct {
	views      sync.Map
	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
	ttl        time.Duration
}

func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
	}
}

type viewEntry struct {
	item      *models.Item
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	} else {
		entry.count++
	}
	return entry.count <= limit, nil
}

func (r *MemoryRepository) GetItemView(ctx context.Context, itemID int64) (*models.Item, error) {
	val, ok := r.views.Load(itemID)
	if !ok {
		return nil, nil
	}
	entry := val.(*viewEntry)
	if time.Now().After(entry.expiresAt) {
		r.views.Delete(itemID)
		return nil, nil
	}
	return entry.item, nil
}

func (r *MemoryRepository) SetItemView(ctx context.Context, item *models.Item) error {
	r.views.Store(item.ID, &viewEntry{item: item, expiresAt: time.Now().Add(r.ttl)})
	return nil
}

func (r *MemoryRepository) InvalidateItem(ctx context.Context, itemID int64) error {
	r.views.Delete(itemID)
	return nil
}
