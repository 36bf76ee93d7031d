package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"shareit/internal/models"
)

const (
	TaskUpsert       = "upsert"
	TaskUpdateStatus = "update_status"
)

// syncTaskPayload is persisted in SyncTask.Payload as JSON.
type syncTaskPayload struct {
	BookingID int64           `json:"booking_id"`
	Booking   *models.Booking `json:"booking,omitempty"`
	Status    string          `json:"status,omitempty"`
}

// SheetsClient applies booking changes to the spreadsheet.
type SheetsClient interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

// SyncQueue is the durable task store behind the worker.
type SyncQueue interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	MarkSyncTaskDone(ctx context.Context, id int64) error
	MarkSyncTaskRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error
	MarkSyncTaskDead(ctx context.Context, id int64, lastError string) error
}

// SheetsSyncWorker drains the sync_queue table into Google Sheets.
// Tasks survive restarts; the in-memory wake channel only shortens latency.
type SheetsSyncWorker struct {
	queue        SyncQueue
	sheets       SheetsClient
	retryPolicy  RetryPolicy
	wake         chan struct{}
	pollInterval time.Duration
	batchSize    int
	log          zerolog.Logger
}

func NewSheetsSyncWorker(queue SyncQueue, sheets SheetsClient, retry RetryPolicy, logger zerolog.Logger) *SheetsSyncWorker {
	if retry.MaxRetries == 0 {
		retry = DefaultRetryPolicy()
	}
	return &SheetsSyncWorker{
		queue:        queue,
		sheets:       sheets,
		retryPolicy:  retry,
		wake:         make(chan struct{}, 1),
		pollInterval: 2 * time.Second,
		batchSize:    20,
		log:          logger,
	}
}

// EnqueueBookingUpsert persists an upsert task for the booking.
func (w *SheetsSyncWorker) EnqueueBookingUpsert(ctx context.Context, booking *models.Booking) error {
	if booking == nil || booking.ID == 0 {
		return errors.New("booking id is required")
	}
	return w.enqueue(ctx, TaskUpsert, syncTaskPayload{BookingID: booking.ID, Booking: booking})
}

// EnqueueStatusUpdate persists a status-update task for the booking.
func (w *SheetsSyncWorker) EnqueueStatusUpdate(ctx context.Context, bookingID int64, status string) error {
	if bookingID == 0 || status == "" {
		return errors.New("booking id and status are required")
	}
	return w.enqueue(ctx, TaskUpdateStatus, syncTaskPayload{BookingID: bookingID, Status: status})
}

func (w *SheetsSyncWorker) enqueue(ctx context.Context, taskType string, payload syncTaskPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.SyncTask{
		TaskType:  taskType,
		BookingID: payload.BookingID,
		Payload:   string(payloadBytes),
		Status:    models.SyncTaskPending,
	}
	if err := w.queue.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Start launches the main loop; it stops when ctx is done.
func (w *SheetsSyncWorker) Start(ctx context.Context) {
	w.log.Info().Msg("sheets sync worker started")
	defer w.log.Info().Msg("sheets sync worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.drainPending(ctx)

		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		case <-ticker.C:
		}
	}
}

func (w *SheetsSyncWorker) drainPending(ctx context.Context) {
	tasks, err := w.queue.GetPendingSyncTasks(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("failed to fetch pending sync tasks")
		}
		return
	}

	for i := range tasks {
		if ctx.Err() != nil {
			return
		}
		w.processTask(ctx, &tasks[i])
	}
}

func (w *SheetsSyncWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload syncTaskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.applyTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.queue.MarkSyncTaskDone(ctx, task.ID); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark sync task done")
	}
}

func (w *SheetsSyncWorker) applyTask(ctx context.Context, taskType string, payload syncTaskPayload) error {
	switch taskType {
	case TaskUpsert:
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, payload.Booking)
	case TaskUpdateStatus:
		if payload.BookingID == 0 || payload.Status == "" {
			return errors.New("booking id or status missing")
		}
		return w.sheets.UpdateBookingStatus(ctx, payload.BookingID, payload.Status)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *SheetsSyncWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task, cause)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.queue.MarkSyncTaskRetry(ctx, task.ID, attempt, cause.Error(), nextTime); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark sync task for retry")
		return
	}
	w.log.Warn().
		Err(cause).
		Int64("task_id", task.ID).
		Int("attempt", attempt).
		Time("next_retry_at", nextTime).
		Msg("sync task failed, scheduled for retry")
}

func (w *SheetsSyncWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.queue.MarkSyncTaskDead(ctx, task.ID, cause.Error()); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark sync task dead")
		return
	}
	w.log.Error().
		Err(cause).
		Int64("task_id", task.ID).
		Str("task_type", task.TaskType).
		Int64("booking_id", task.BookingID).
		Msg("sync task moved to dead letter")
}
