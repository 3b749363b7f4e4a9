// Package worker implements the asynq task handlers and the enqueuer for
// immediate rate updates.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/service"
)

// HistoryPruner deletes history entries older than a retention window.
type HistoryPruner interface {
	PruneHistory(ctx context.Context, retention time.Duration) (int64, error)
}

// NewRatesUpdateHandler returns a function to handle rate update tasks.
// Failures are not retried; the next scheduled run is the retry.
func NewRatesUpdateHandler(updater service.RateUpdater, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		payload := service.UpdateRatesPayload{Trigger: service.TriggerSchedule}
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
				return nil
			}
		}

		report, err := updater.UpdateRates(ctx)
		if err != nil {
			logger.Errorw("Rate update failed", "trigger", payload.Trigger, "error", err)
			return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
		}

		logger.Infow("Rate update completed", "trigger", payload.Trigger, "base", report.Base, "count", len(report.Rates))
		return nil
	}
}

// NewPruneHistoryHandler returns a function to handle history retention tasks.
func NewPruneHistoryHandler(pruner HistoryPruner, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload service.PruneHistoryPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return nil
		}
		if payload.RetentionDays <= 0 {
			return nil
		}

		retention := time.Duration(payload.RetentionDays) * 24 * time.Hour
		n, err := pruner.PruneHistory(ctx, retention)
		if err != nil {
			logger.Errorw("History prune failed", "retention_days", payload.RetentionDays, "error", err)
			return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
		}

		logger.Infow("History pruned", "retention_days", payload.RetentionDays, "deleted", n)
		return nil
	}
}

// AsynqEnqueuer enqueues one-off rate update tasks. Tasks are never retried
// and a second enqueue within uniqueTTL is dropped.
type AsynqEnqueuer struct {
	client    *asynq.Client
	timeout   time.Duration
	uniqueTTL time.Duration
	logger    *zap.SugaredLogger
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, task timeout and uniqueness window.
func NewAsynqEnqueuer(client *asynq.Client, timeout, uniqueTTL time.Duration, logger *zap.SugaredLogger) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:    client,
		timeout:   timeout,
		uniqueTTL: uniqueTTL,
		logger:    logger,
	}
}

// EnqueueUpdateTask enqueues an immediate rate update. A duplicate of a task
// that is still pending is not an error.
func (e *AsynqEnqueuer) EnqueueUpdateTask(ctx context.Context, payload service.UpdateRatesPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(service.TaskTypeUpdateRates, data,
		asynq.MaxRetry(0),
		asynq.Timeout(e.timeout),
		asynq.Unique(e.uniqueTTL),
	)

	info, err := e.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		e.logger.Infow("Rate update already pending", "trigger", payload.Trigger)
		return nil
	}
	if err != nil {
		return err
	}

	e.logger.Infow("Rate update enqueued", "trigger", payload.Trigger, "task_id", info.ID)
	return nil
}
