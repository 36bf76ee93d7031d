package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

// UserDirectory is the user-existence and lookup collaborator.
type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// UserStore extends the directory with the user write paths.
type UserStore interface {
	UserDirectory
	CreateUser(ctx context.Context, user *models.User) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	EmailTakenByOther(ctx context.Context, email string, excludeID int64) (bool, error)
}

// ItemDirectory resolves items and probes ownership.
type ItemDirectory interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	FirstItemByOwner(ctx context.Context, ownerID int64) (*models.Item, error)
}

// BookingStore is the persistence abstraction behind the booking lifecycle
// engine. The fixed query shapes mirror the listing state filters; every
// listing is ordered by start descending.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error

	BookingsByBooker(ctx context.Context, bookerID int64, limit, offset int) ([]*models.Booking, error)
	BookingsByBookerCurrent(ctx context.Context, bookerID int64, now time.Time, limit, offset int) ([]*models.Booking, error)
	BookingsByBookerPast(ctx context.Context, bookerID int64, now time.Time, limit, offset int) ([]*models.Booking, error)
	BookingsByBookerFuture(ctx context.Context, bookerID int64, now time.Time, limit, offset int) ([]*models.Booking, error)
	BookingsByBookerStatus(ctx context.Context, bookerID int64, status string, limit, offset int) ([]*models.Booking, error)

	BookingsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Booking, error)
	BookingsByOwnerCurrent(ctx context.Context, ownerID int64, now time.Time, limit, offset int) ([]*models.Booking, error)
	BookingsByOwnerPast(ctx context.Context, ownerID int64, now time.Time, limit, offset int) ([]*models.Booking, error)
	BookingsByOwnerFuture(ctx context.Context, ownerID int64, now time.Time, limit, offset int) ([]*models.Booking, error)
	BookingsByOwnerStatus(ctx context.Context, ownerID int64, status string, limit, offset int) ([]*models.Booking, error)
}

// ItemStore extends the directory with the item write and listing paths.
type ItemStore interface {
	ItemDirectory
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	ItemsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, limit, offset int) ([]*models.Item, error)
	ItemsByRequest(ctx context.Context, requestID int64) ([]*models.Item, error)
}

type RequestStore interface {
	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	RequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	RequestsFromOthers(ctx context.Context, excludeUserID int64, limit, offset int) ([]*models.ItemRequest, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	CommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error)
	LatestFinishedBooking(ctx context.Context, itemID, bookerID int64, status string, before time.Time) (*models.Booking, error)
	ApprovedBookingsByItem(ctx context.Context, itemID int64) ([]*models.Booking, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts fire-and-forget spreadsheet synchronization tasks.
type SyncWorker interface {
	EnqueueBookingUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueStatusUpdate(ctx context.Context, bookingID int64, status string) error
}

// RateLimiter is a shared counter with a sliding window, keyed by caller.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ItemViewCache holds rendered non-owner item views.
type ItemViewCache interface {
	GetItemView(ctx context.Context, itemID int64) (*models.Item, error)
	SetItemView(ctx context.Context, item *models.Item) error
	InvalidateItem(ctx context.Context, itemID int64) error
}
