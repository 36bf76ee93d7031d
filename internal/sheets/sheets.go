package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"shareit/internal/config"
	"shareit/internal/models"
)

// ErrRowNotFound is returned when a booking has no row in the sheet yet.
var ErrRowNotFound = errors.New("booking row not found")

const rowTimeLayout = "2006-01-02 15:04:05"

// Service mirrors bookings into a single Google spreadsheet.
type Service struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetName     string

	// rowCache maps booking id to its 1-based row number.
	rowCache map[int64]int
	cacheMu  sync.RWMutex
}

func NewService(ctx context.Context, cfg config.GoogleConfig) (*Service, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheetsapi.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	s := &Service{
		service:       srv,
		spreadsheetID: cfg.BookingSpreadsheetID,
		sheetName:     cfg.SheetName,
		rowCache:      make(map[int64]int),
	}

	// Прогреваем кэш строк в фоне
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		// warm-up failure is not fatal, rows are re-resolved on demand
		_ = s.WarmUpCache(warmCtx)
	}()

	return s, nil
}

// TestConnection проверяет доступ к таблице
func (s *Service) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *Service) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var id int64
		switch v := row[0].(type) {
		case float64:
			id = int64(v)
		case string:
			id, _ = strconv.ParseInt(v, 10, 64)
		}
		if id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

func (s *Service) findBookingRow(ctx context.Context, bookingID int64) (int, error) {
	s.cacheMu.RLock()
	row, ok := s.rowCache[bookingID]
	s.cacheMu.RUnlock()
	if ok {
		return row, nil
	}

	if err := s.WarmUpCache(ctx); err != nil {
		return 0, err
	}

	s.cacheMu.RLock()
	row, ok = s.rowCache[bookingID]
	s.cacheMu.RUnlock()
	if !ok {
		return 0, ErrRowNotFound
	}
	return row, nil
}

func bookingRowValues(b *models.Booking) []interface{} {
	var bookerName, itemName string
	if b.Booker != nil {
		bookerName = b.Booker.Name
	}
	if b.Item != nil {
		itemName = b.Item.Name
	}
	return []interface{}{
		b.ID,
		b.BookerID,
		bookerName,
		b.ItemID,
		itemName,
		b.Start.Format(rowTimeLayout),
		b.End.Format(rowTimeLayout),
		b.Status,
		time.Now().Format(rowTimeLayout),
	}
}

// UpsertBooking updates an existing booking row or appends a new one.
func (s *Service) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return errors.New("booking is nil")
	}

	rowIdx, err := s.findBookingRow(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return s.appendBooking(ctx, booking)
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:I%d", s.sheetName, rowIdx, rowIdx)
	valueRange := &sheetsapi.ValueRange{Values: [][]interface{}{bookingRowValues(booking)}}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *Service) appendBooking(ctx context.Context, booking *models.Booking) error {
	rangeData := s.sheetName + "!A:A"
	valueRange := &sheetsapi.ValueRange{Values: [][]interface{}{bookingRowValues(booking)}}

	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		// диапазон вида "Bookings!A42:I42", номер строки идет после буквы
		var row int
		if _, scanErr := fmt.Sscanf(afterColumn(resp.Updates.UpdatedRange), "%d", &row); scanErr == nil && row > 0 {
			s.cacheMu.Lock()
			s.rowCache[booking.ID] = row
			s.cacheMu.Unlock()
		}
	}
	return nil
}

// UpdateBookingStatus rewrites the status and updated-at cells for a booking.
func (s *Service) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error {
	rowIdx, err := s.findBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}

	rangeData := fmt.Sprintf("%s!H%d:I%d", s.sheetName, rowIdx, rowIdx)
	valueRange := &sheetsapi.ValueRange{
		Values: [][]interface{}{{status, time.Now().Format(rowTimeLayout)}},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// afterColumn returns the substring of a range like "Bookings!A42:I42"
// starting at the first digit after the sheet separator.
func afterColumn(r string) string {
	for i := 0; i < len(r); i++ {
		if r[i] >= '0' && r[i] <= '9' && i > 0 && r[i-1] >= 'A' && r[i-1] <= 'Z' {
			return r[i:]
		}
	}
	return r
}
