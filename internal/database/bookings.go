package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

const bookingColumns = `b.id, b.item_id, b.booker_id, b.start_time, b.end_time, b.status,
	       b.created_at, b.updated_at, u.name, i.name, i.available, i.owner_id`

const bookingFrom = ` FROM bookings b
	       JOIN users u ON u.id = b.booker_id
	       JOIN items i ON i.id = b.item_id`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (item_id, booker_id, start_time, end_time, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.ItemID,
		booking.BookerID,
		booking.Start.UTC().Format(timeLayout),
		booking.End.UTC().Format(timeLayout),
		booking.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.id = ?`
	booking, err := db.scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// UpdateBookingStatus is guarded against racing resolutions: an APPROVED
// booking is final and a late writer loses with ErrConcurrentModification.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status != ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, models.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var current string
		err := db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("booking %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check booking status: %w", err)
		}
		return fmt.Errorf("booking %d already %s: %w", id, current, ErrConcurrentModification)
	}
	return nil
}

// Booker-side query shapes. All are ordered by start descending.

func (db *DB) BookingsByBooker(ctx context.Context, bookerID int64, limit, offset int) ([]*models.Booking, error) {
	return db.listBookings(ctx, `b.booker_id = ?`, []any{bookerID}, limit, offset)
}

func (db *DB) BookingsByBookerCurrent(ctx context.Context, bookerID int64, now time.Time, limit, offset int) ([]*models.Booking, error) {
	ts := now.UTC().Format(timeLayout)
	return db.listBookings(ctx, `b.booker_id = ? AND b.start_time <= ? AND b.end_time > ?`,
		[]any{bookerID, ts, ts}, limit, offset)
}

func (db *DB) BookingsByBookerPast(ctx context.Context, bookerID int64, now time.Time, limit, offset int) ([]*models.Booking, error) {
	return db.listBookings(ctx, `b.booker_id = ? AND b.end_time < ?`,
		[]any{bookerID, now.UTC().Format(timeLayout)}, limit, offset)
}

func (db *DB) BookingsByBookerFuture(ctx context.Context, bookerID int64, now time.Time, limit, offset int) ([]*models.Booking, error) {
	return db.listBookings(ctx, `b.booker_id = ? AND b.start_time > ?`,
		[]any{bookerID, now.UTC().Format(timeLayout)}, limit, offset)
}

func (db *DB) BookingsByBookerStatus(ctx context.Context, bookerID int64, status string, limit, offset int) ([]*models.Booking, error) {
	return db.listBookings(ctx, `b.booker_id = ? AND b.status = ?`, []any{bookerID, status}, limit, offset)
}

// Owner-side query shapes, keyed by the booked item's owner.

func (db *DB) BookingsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Booking, error) {
	return db.listBookings(ctx, `i.owner_id = ?`, []any{ownerID}, limit, offset)
}

func (db *DB) BookingsByOwnerCurrent(ctx context.Context, ownerID int64, now time.Time, limit, offset int) ([]*models.Booking, error) {
	ts := now.UTC().Format(timeLayout)
	return db.listBookings(ctx, `i.owner_id = ? AND b.start_time <= ? AND b.end_time > ?`,
		[]any{ownerID, ts, ts}, limit, offset)
}

func (db *DB) BookingsByOwnerPast(ctx context.Context, ownerID int64, now time.Time, limit, offset int) ([]*models.Booking, error) {
	return db.listBookings(ctx, `i.owner_id = ? AND b.end_time < ?`,
		[]any{ownerID, now.UTC().Format(timeLayout)}, limit, offset)
}

func (db *DB) BookingsByOwnerFuture(ctx context.Context, ownerID int64, now time.Time, limit, offset int) ([]*models.Booking, error) {
	return db.listBookings(ctx, `i.owner_id = ? AND b.start_time > ?`,
		[]any{ownerID, now.UTC().Format(timeLayout)}, limit, offset)
}

func (db *DB) BookingsByOwnerStatus(ctx context.Context, ownerID int64, status string, limit, offset int) ([]*models.Booking, error) {
	return db.listBookings(ctx, `i.owner_id = ? AND b.status = ?`, []any{ownerID, status}, limit, offset)
}

// ApprovedBookingsByItem feeds the last/next booking views on item reads.
func (db *DB) ApprovedBookingsByItem(ctx context.Context, itemID int64) ([]*models.Booking, error) {
	return db.listBookings(ctx, `b.item_id = ? AND b.status = ?`, []any{itemID, models.StatusApproved}, -1, 0)
}

// LatestFinishedBooking finds the most recent booking of the item by the user
// with the given status that ended before the cutoff. Used to gate comments.
// Returns nil without error when there is none.
func (db *DB) LatestFinishedBooking(ctx context.Context, itemID, bookerID int64, status string, before time.Time) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + `
              WHERE b.item_id = ? AND b.booker_id = ? AND b.status = ? AND b.end_time < ?
              ORDER BY b.end_time DESC LIMIT 1`
	booking, err := db.scanBooking(db.QueryRowContext(ctx, query,
		itemID, bookerID, status, before.UTC().Format(timeLayout)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest finished booking: %w", err)
	}
	return booking, nil
}

// AllBookings returns every booking ordered by start ascending, for exports.
func (db *DB) AllBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` ORDER BY b.start_time ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()
	return db.collectBookings(rows)
}

func (db *DB) listBookings(ctx context.Context, where string, args []any, limit, offset int) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE ` + where +
		` ORDER BY b.start_time DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()
	return db.collectBookings(rows)
}

func (db *DB) collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		booking, err := db.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		booking    models.Booking
		start, end string
		booker     models.User
		item       models.Item
	)
	err := row.Scan(
		&booking.ID, &booking.ItemID, &booking.BookerID, &start, &end, &booking.Status,
		&booking.CreatedAt, &booking.UpdatedAt, &booker.Name, &item.Name, &item.Available, &item.OwnerID,
	)
	if err != nil {
		return nil, err
	}

	if booking.Start, err = time.Parse(timeLayout, start); err != nil {
		return nil, fmt.Errorf("failed to parse booking start %s: %w", start, err)
	}
	if booking.End, err = time.Parse(timeLayout, end); err != nil {
		return nil, fmt.Errorf("failed to parse booking end %s: %w", end, err)
	}

	booker.ID = booking.BookerID
	item.ID = booking.ItemID
	booking.Booker = &booker
	booking.Item = &item
	return &booking, nil
}
