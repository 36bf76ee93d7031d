package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/models"
)

func createTestBooking(t *testing.T, db *DB, itemID, bookerID int64, start, end time.Time, status string) *models.Booking {
	b := &models.Booking{ItemID: itemID, BookerID: bookerID, Start: start, End: end, Status: status}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func TestBookingCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Владелец", "owner@mail.ru")
	booker := createTestUser(t, db, "Арендатор", "booker@mail.ru")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	start := time.Now().Add(24 * time.Hour)
	end := start.Add(48 * time.Hour)
	booking := createTestBooking(t, db, item.ID, booker.ID, start, end, models.StatusWaiting)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, got.Status)
	assert.True(t, got.Start.Equal(start), "start survives the round trip")
	assert.True(t, got.End.Equal(end))

	// Представление включает данные арендатора и вещи
	require.NotNil(t, got.Booker)
	require.NotNil(t, got.Item)
	assert.Equal(t, "Арендатор", got.Booker.Name)
	assert.Equal(t, "Дрель", got.Item.Name)
	assert.Equal(t, owner.ID, got.Item.OwnerID)

	_, err = db.GetBooking(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Владелец", "owner@mail.ru")
	booker := createTestUser(t, db, "Арендатор", "booker@mail.ru")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	start := time.Now().Add(time.Hour)
	booking := createTestBooking(t, db, item.ID, booker.ID, start, start.Add(time.Hour), models.StatusWaiting)

	require.NoError(t, db.UpdateBookingStatus(ctx, booking.ID, models.StatusApproved))

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	err = db.UpdateBookingStatus(ctx, 999, models.StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)

	// Подтвержденное бронирование финально, поздний писатель проигрывает
	err = db.UpdateBookingStatus(ctx, booking.ID, models.StatusRejected)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestBookingListingShapes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	owner := createTestUser(t, db, "Владелец", "owner@mail.ru")
	booker := createTestUser(t, db, "Арендатор", "booker@mail.ru")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	past := createTestBooking(t, db, item.ID, booker.ID,
		now.Add(-72*time.Hour), now.Add(-48*time.Hour), models.StatusApproved)
	current := createTestBooking(t, db, item.ID, booker.ID,
		now.Add(-time.Hour), now.Add(time.Hour), models.StatusApproved)
	future := createTestBooking(t, db, item.ID, booker.ID,
		now.Add(24*time.Hour), now.Add(48*time.Hour), models.StatusWaiting)
	rejected := createTestBooking(t, db, item.ID, booker.ID,
		now.Add(72*time.Hour), now.Add(96*time.Hour), models.StatusRejected)

	t.Run("AllOrderedByStartDesc", func(t *testing.T) {
		all, err := db.BookingsByBooker(ctx, booker.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, rejected.ID, all[0].ID)
		assert.Equal(t, past.ID, all[3].ID)
	})

	t.Run("Current", func(t *testing.T) {
		got, err := db.BookingsByBookerCurrent(ctx, booker.ID, now, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, current.ID, got[0].ID)
	})

	t.Run("Past", func(t *testing.T) {
		got, err := db.BookingsByBookerPast(ctx, booker.ID, now, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, past.ID, got[0].ID)
	})

	t.Run("Future", func(t *testing.T) {
		got, err := db.BookingsByBookerFuture(ctx, booker.ID, now, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, rejected.ID, got[0].ID)
		assert.Equal(t, future.ID, got[1].ID)
	})

	t.Run("ByStatus", func(t *testing.T) {
		got, err := db.BookingsByBookerStatus(ctx, booker.ID, models.StatusWaiting, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, future.ID, got[0].ID)
	})

	t.Run("OwnerSide", func(t *testing.T) {
		got, err := db.BookingsByOwner(ctx, owner.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, got, 4)

		none, err := db.BookingsByOwner(ctx, booker.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("OwnerCurrent", func(t *testing.T) {
		got, err := db.BookingsByOwnerCurrent(ctx, owner.ID, now, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, current.ID, got[0].ID)
	})

	t.Run("Paging", func(t *testing.T) {
		got, err := db.BookingsByBooker(ctx, booker.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, current.ID, got[0].ID)
	})
}

func TestLatestFinishedBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	owner := createTestUser(t, db, "Владелец", "owner@mail.ru")
	booker := createTestUser(t, db, "Арендатор", "booker@mail.ru")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	createTestBooking(t, db, item.ID, booker.ID,
		now.Add(-96*time.Hour), now.Add(-72*time.Hour), models.StatusApproved)
	recent := createTestBooking(t, db, item.ID, booker.ID,
		now.Add(-48*time.Hour), now.Add(-24*time.Hour), models.StatusApproved)
	// Ещё не завершено
	createTestBooking(t, db, item.ID, booker.ID,
		now.Add(-time.Hour), now.Add(time.Hour), models.StatusApproved)

	got, err := db.LatestFinishedBooking(ctx, item.ID, booker.ID, models.StatusApproved, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, recent.ID, got.ID)

	none, err := db.LatestFinishedBooking(ctx, item.ID, owner.ID, models.StatusApproved, now)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestApprovedBookingsByItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	owner := createTestUser(t, db, "Владелец", "owner@mail.ru")
	booker := createTestUser(t, db, "Арендатор", "booker@mail.ru")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	createTestBooking(t, db, item.ID, booker.ID,
		now.Add(-48*time.Hour), now.Add(-24*time.Hour), models.StatusApproved)
	createTestBooking(t, db, item.ID, booker.ID,
		now.Add(24*time.Hour), now.Add(48*time.Hour), models.StatusWaiting)

	got, err := db.ApprovedBookingsByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAllBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	owner := createTestUser(t, db, "Владелец", "owner@mail.ru")
	booker := createTestUser(t, db, "Арендатор", "booker@mail.ru")
	item := createTestItem(t, db, owner.ID, "Дрель", true)

	second := createTestBooking(t, db, item.ID, booker.ID,
		now.Add(48*time.Hour), now.Add(72*time.Hour), models.StatusWaiting)
	first := createTestBooking(t, db, item.ID, booker.ID,
		now.Add(24*time.Hour), now.Add(36*time.Hour), models.StatusWaiting)

	all, err := db.AllBookings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "export order is start ascending")
	assert.Equal(t, second.ID, all[1].ID)
}
