package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"shareit/internal/config"
	"shareit/internal/export"
	"shareit/internal/models"
)

// BookingLister feeds the periodic export.
type BookingLister interface {
	AllBookings(ctx context.Context) ([]*models.Booking, error)
}

// ExportWorker periodically writes the bookings report to disk.
type ExportWorker struct {
	bookings BookingLister
	cfg      config.ExportConfig
	log      zerolog.Logger
}

func NewExportWorker(bookings BookingLister, cfg config.ExportConfig, logger zerolog.Logger) *ExportWorker {
	return &ExportWorker{bookings: bookings, cfg: cfg, log: logger}
}

// Start runs one export immediately, then on every interval tick until ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	interval := time.Duration(w.cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	w.log.Info().Dur("interval", interval).Msg("export worker started")
	defer w.log.Info().Msg("export worker stopped")

	w.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// reportWindow bounds the report to bookings around the current date.
const reportWindow = 30 * 24 * time.Hour

func (w *ExportWorker) runOnce(ctx context.Context) {
	bookings, err := w.bookings.AllBookings(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("failed to list bookings for export")
		}
		return
	}

	now := time.Now()
	var recent []*models.Booking
	for _, b := range bookings {
		if b.End.After(now.Add(-reportWindow)) && b.Start.Before(now.Add(reportWindow)) {
			recent = append(recent, b)
		}
	}

	path, err := export.WriteBookingsReport(w.cfg.Path, recent, now)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to write bookings report")
		return
	}
	w.log.Info().Str("file_path", path).Int("bookings", len(recent)).Msg("bookings report written")
}
