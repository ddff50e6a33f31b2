package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"stayhub/internal/database"
	"stayhub/internal/models"
	"stayhub/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// OccupancySheet receives the assembled occupancy schedule.
type OccupancySheet interface {
	WriteOccupancy(ctx context.Context, report *service.OccupancyReport) error
}

// SheetsWorker drains the sync_queue and pushes the occupancy schedule to
// Google Sheets. The queue is coalescing: many mutations may enqueue tasks,
// each processed task exports the current full schedule, so tasks that were
// already covered by a later export complete trivially.
type SheetsWorker struct {
	db            *database.DB
	reports       *service.ReportService
	sheet         OccupancySheet
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewSheetsWorker builds a worker with sane defaults.
func NewSheetsWorker(db *database.DB, reports *service.ReportService, sheet OccupancySheet, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SheetsWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &SheetsWorker{
		db:            db,
		reports:       reports,
		sheet:         sheet,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, 128),
		redisQueueKey: "occupancy:queue",
		pollInterval:  2 * time.Second,
		batchSize:     models.WorkerQueueBatchSize,
		logger:        logger,
	}
}

// EnqueueOccupancySync persists a sync task and schedules it via redis or the
// in-memory queue. The DB row is the source of truth; the queues only shorten
// the pickup latency.
func (w *SheetsWorker) EnqueueOccupancySync(ctx context.Context) error {
	task := models.SyncTask{
		TaskType: models.SyncTaskOccupancy,
		Status:   models.SyncStatusPending,
	}
	if err := w.db.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("failed to persist sync task: %w", err)
	}

	if w.redis != nil {
		if err := w.redis.LPush(ctx, w.redisQueueKey, strconv.FormatInt(task.ID, 10)).Err(); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		// Queue full; the polling loop will pick the row up from the DB.
	}
	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sheets worker started")
	defer w.logger.Info().Msg("sheets worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}
		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("failed to fetch pending sync tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}
		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SheetsWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			w.logger.Warn().Err(err).Msg("redis pop failed")
		}
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}

	id, err := strconv.ParseInt(res[1], 10, 64)
	if err != nil {
		w.logger.Warn().Str("value", res[1]).Msg("dropping malformed queue entry")
		return models.SyncTask{}, false
	}
	return models.SyncTask{ID: id, TaskType: models.SyncTaskOccupancy}, true
}

func (w *SheetsWorker) processTask(ctx context.Context, task *models.SyncTask) {
	if w.sheet == nil {
		// Sheets not configured; complete the task so the queue drains.
		w.finishTask(ctx, task.ID, models.SyncStatusCompleted, "")
		return
	}

	report, err := w.reports.BuildOccupancy(ctx)
	if err == nil {
		err = w.sheet.WriteOccupancy(ctx, report)
	}
	if err == nil {
		w.finishTask(ctx, task.ID, models.SyncStatusCompleted, "")
		return
	}

	w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("occupancy sync failed")

	if task.RetryCount+1 >= w.retryPolicy.MaxRetries {
		w.finishTask(ctx, task.ID, models.SyncStatusFailed, err.Error())
		return
	}
	next := time.Now().Add(w.retryPolicy.NextDelay(task.RetryCount + 1))
	if updErr := w.db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, err.Error(), &next); updErr != nil {
		w.logger.Error().Err(updErr).Int64("task_id", task.ID).Msg("failed to schedule retry")
	}
}

func (w *SheetsWorker) finishTask(ctx context.Context, id int64, status, errMsg string) {
	if err := w.db.UpdateSyncTaskStatus(ctx, id, status, errMsg, nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", id).Msg("failed to update sync task status")
	}
}

func (w *SheetsWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}
