package worker

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stayhub/internal/database"
	"stayhub/internal/models"
	"stayhub/internal/service"

	"github.com/rs/zerolog"
)

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheet := &fakeSheet{}
	worker := newTestWorker(t, db, sheet, RetryPolicy{})

	ctx := context.Background()
	if err := worker.EnqueueOccupancySync(ctx); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != models.SyncStatusCompleted {
		t.Fatalf("expected status=completed, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if sheet.writeCalls != 1 {
		t.Fatalf("expected 1 write call, got %d", sheet.writeCalls)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheet := &fakeSheet{err: errors.New("boom")}
	worker := newTestWorker(t, db, sheet, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second})

	ctx := context.Background()
	if err := worker.EnqueueOccupancySync(ctx); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != models.SyncStatusRetry {
		t.Fatalf("expected status=retry, got %s", status)
	}
	if retryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retryCount)
	}
	if !nextRetry.Valid || nextRetry.Time.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in future, got %v", nextRetry)
	}
}

func TestProcessTaskFail(t *testing.T) {
	db := newTestDB(t)
	sheet := &fakeSheet{err: errors.New("fatal")}
	worker := newTestWorker(t, db, sheet, RetryPolicy{MaxRetries: 1})

	ctx := context.Background()
	worker.EnqueueOccupancySync(ctx)
	task, _ := worker.tryLocalQueue()
	worker.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != models.SyncStatusFailed {
		t.Fatalf("expected status=failed, got %s", status)
	}
}

func TestProcessTaskNoSheetConfigured(t *testing.T) {
	db := newTestDB(t)
	worker := newTestWorker(t, db, nil, RetryPolicy{})

	ctx := context.Background()
	worker.EnqueueOccupancySync(ctx)
	task, _ := worker.tryLocalQueue()
	worker.processTask(ctx, &task)

	// Без настроенной таблицы задача закрывается сразу, очередь не растет.
	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != models.SyncStatusCompleted {
		t.Fatalf("expected status=completed, got %s", status)
	}
}

func TestEnqueueSurvivesFullLocalQueue(t *testing.T) {
	db := newTestDB(t)
	worker := newTestWorker(t, db, &fakeSheet{}, RetryPolicy{})

	ctx := context.Background()
	total := cap(worker.queue) + 5
	for i := 0; i < total; i++ {
		if err := worker.EnqueueOccupancySync(ctx); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	// Every task is persisted even when the channel overflows; the polling
	// loop picks the overflow up from the DB.
	var count int
	row := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue WHERE status = 'pending'`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan count: %v", err)
	}
	if count != total {
		t.Fatalf("expected %d persisted tasks, got %d", total, count)
	}
}

// Helpers

type fakeSheet struct {
	err        error
	writeCalls int
	lastReport *service.OccupancyReport
}

func (f *fakeSheet) WriteOccupancy(ctx context.Context, report *service.OccupancyReport) error {
	f.writeCalls++
	f.lastReport = report
	return f.err
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "worker.db"), &logger)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestWorker(t *testing.T, db *database.DB, sheet OccupancySheet, retry RetryPolicy) *SheetsWorker {
	t.Helper()
	logger := zerolog.Nop()
	availability := service.NewAvailabilityService(db, nil, &logger)
	reports := service.NewReportService(db, availability, 7, &logger)
	return NewSheetsWorker(db, reports, sheet, nil, retry, &logger)
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (status string, retryCount int, nextRetry sql.NullTime) {
	t.Helper()
	row := db.QueryRowContext(context.Background(), `SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id)
	if err := row.Scan(&status, &retryCount, &nextRetry); err != nil {
		t.Fatalf("scan task: %v", err)
	}
	return status, retryCount, nextRetry
}
