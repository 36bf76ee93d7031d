package models

// BookingState is the state filter for booking listings. The set is closed;
// anything else fails with UnsupportedStateError at parse time.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

type UnsupportedStateError struct {
	State string
}

func (e *UnsupportedStateError) Error() string {
	return "Unknown state: " + e.State
}

// ParseBookingState maps a raw filter token to a BookingState. Tokens are
// case-sensitive and uppercase.
func ParseBookingState(raw string) (BookingState, error) {
	switch BookingState(raw) {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return BookingState(raw), nil
	default:
		return "", &UnsupportedStateError{State: raw}
	}
}
