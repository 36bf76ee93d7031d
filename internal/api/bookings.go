package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"shareit/internal/models"
	"shareit/internal/validation"
)

type createBookingRequest struct {
	ItemID int64     `json:"itemId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listBookingsByBooker(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Частоту создания бронирований ограничиваем на пользователя
	if s.limiter != nil {
		limit := s.cfg.RateLimit.BookingsPerWindow
		if limit <= 0 {
			limit = models.CreateBookingRateLimit
		}
		window := time.Duration(s.cfg.RateLimit.WindowSeconds) * time.Second
		if window <= 0 {
			window = models.CreateBookingRateWindow * time.Second
		}

		key := "create_booking:" + strconv.FormatInt(uid, 10)
		allowed, limErr := s.limiter.Allow(r.Context(), key, limit, window)
		if limErr != nil {
			s.log.Warn().Err(limErr).Int64("user_id", uid).Msg("booking rate limit check failed")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "too many bookings, try again later")
			return
		}
	}

	var body createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking := &models.Booking{
		ItemID: body.ItemID,
		Start:  body.Start,
		End:    body.End,
	}

	created, err := s.bookings.Create(r.Context(), uid, booking)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listBookingsByBooker(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	from, size, err := paging(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		state = string(models.StateAll)
	}

	bookings, err := s.bookings.ListByBooker(r.Context(), uid, state, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) handleBookingsOwner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	from, size, err := paging(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		state = string(models.StateAll)
	}

	bookings, err := s.bookings.ListByOwner(r.Context(), uid, state, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	bookingID, tail, err := pathID(r.URL.Path, "/bookings/")
	if err != nil || tail != "" {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		booking, err := s.bookings.Get(r.Context(), uid, bookingID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case http.MethodPatch:
		raw := r.URL.Query().Get("approved")
		approve, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			writeServiceError(w, &validation.IncorrectParameterError{Param: "approved"})
			return
		}

		booking, err := s.bookings.Approve(r.Context(), uid, bookingID, approve)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
