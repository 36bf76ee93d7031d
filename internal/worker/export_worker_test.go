package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shareit/internal/config"
	"shareit/internal/models"
)

type fakeLister struct {
	bookings []*models.Booking
	err      error
}

func (l *fakeLister) AllBookings(context.Context) ([]*models.Booking, error) {
	return l.bookings, l.err
}

func TestExportWorkerRunOnce(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	lister := &fakeLister{bookings: []*models.Booking{
		{ID: 1, Start: now, End: now.Add(time.Hour), Status: models.StatusWaiting},
		// Далеко в прошлом, в отчет не попадает
		{ID: 2, Start: now.Add(-90 * 24 * time.Hour), End: now.Add(-89 * 24 * time.Hour), Status: models.StatusApproved},
	}}
	w := NewExportWorker(lister, config.ExportConfig{Path: dir}, zerolog.Nop())

	w.runOnce(context.Background())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".xlsx", filepath.Ext(entries[0].Name()))

	f, err := excelize.OpenFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the one booking inside the report window")
	assert.Equal(t, "1", rows[1][0])
}

func TestExportWorkerListError(t *testing.T) {
	dir := t.TempDir()
	lister := &fakeLister{err: errors.New("db down")}
	w := NewExportWorker(lister, config.ExportConfig{Path: dir}, zerolog.Nop())

	w.runOnce(context.Background())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
