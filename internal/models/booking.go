package models

import "time"

type Booking struct {
	ID        int64     `json:"id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
	ItemID    int64     `json:"-"`
	BookerID  int64     `json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Resolved sub-views, populated by the store on read paths.
	Booker *User `json:"booker,omitempty"`
	Item   *Item `json:"item,omitempty"`
}

// BookingRef is the short booking view embedded in item responses.
type BookingRef struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Ref returns the short view of the booking.
func (b *Booking) Ref() *BookingRef {
	if b == nil {
		return nil
	}
	return &BookingRef{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}
