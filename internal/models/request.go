package models

import "time"

// ItemRequest is a wish for an item that does not exist yet. Other users
// answer it by creating items that reference the request.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequestorID int64     `json:"-"`
	Created     time.Time `json:"created"`

	// Items created in answer to this request, populated on read paths.
	Items []*Item `json:"items"`
}
