package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/service"
	"shareit/internal/validation"
)

const sharerHeader = "X-Sharer-User-Id"

const (
	defaultFrom = models.DefaultPageFrom
	defaultSize = models.DefaultPageSize
)

// Server exposes the sharing service over HTTP.
type Server struct {
	cfg      config.Config
	bookings *service.BookingService
	items    *service.ItemService
	users    *service.UserService
	requests *service.RequestService
	limiter  domain.RateLimiter
	server   *http.Server
	log      zerolog.Logger
}

func NewServer(
	cfg config.Config,
	bookings *service.BookingService,
	items *service.ItemService,
	users *service.UserService,
	requests *service.RequestService,
	limiter domain.RateLimiter,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		bookings: bookings,
		items:    items,
		users:    users,
		requests: requests,
		limiter:  limiter,
		log:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/bookings", s.handleBookings)
	mux.HandleFunc("/bookings/owner", s.handleBookingsOwner)
	mux.HandleFunc("/bookings/", s.handleBookingByID)
	mux.HandleFunc("/users", s.handleUsers)
	mux.HandleFunc("/users/", s.handleUserByID)
	mux.HandleFunc("/items", s.handleItems)
	mux.HandleFunc("/items/search", s.handleItemSearch)
	mux.HandleFunc("/items/", s.handleItemByID)
	mux.HandleFunc("/requests", s.handleRequests)
	mux.HandleFunc("/requests/all", s.handleRequestsAll)
	mux.HandleFunc("/requests/", s.handleRequestByID)
	mux.HandleFunc("/healthz", s.handleHealth)

	handler := loggingMiddleware(logger, newClientLimiter(cfg.RateLimit).Wrap(mux))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return s
}

// Handler returns the root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userID reads and validates the sharer header.
func userID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(sharerHeader))
	if raw == "" {
		return 0, &validation.IncorrectParameterError{Param: sharerHeader}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &validation.IncorrectParameterError{Param: sharerHeader}
	}
	return id, nil
}

// paging reads from/size query parameters with the service defaults.
func paging(r *http.Request) (int, int, error) {
	from := defaultFrom
	size := defaultSize

	if raw := r.URL.Query().Get("from"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, &validation.IncorrectParameterError{Param: "from"}
		}
		from = v
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, &validation.IncorrectParameterError{Param: "size"}
		}
		size = v
	}
	return from, size, nil
}

// pathID extracts the numeric id segment after prefix, e.g. /bookings/42.
func pathID(path, prefix string) (int64, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")

	segment := rest
	var tail string
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		segment = rest[:idx]
		tail = rest[idx+1:]
	}

	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, "", &validation.IncorrectParameterError{Param: "id"}
	}
	return id, tail, nil
}
