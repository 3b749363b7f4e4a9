// Package scheduler keeps exactly one recurring rate update registered on
// the asynq scheduler and triggers immediate runs when settings change.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

// Registrar is the part of *asynq.Scheduler used here.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
	Unregister(entryID string) error
}

// UpdateEnqueuer enqueues an immediate rate update.
type UpdateEnqueuer interface {
	EnqueueUpdateTask(ctx context.Context, payload service.UpdateRatesPayload) error
}

// Cronspec returns the asynq cronspec for freq.
func Cronspec(freq settings.Frequency) string {
	return "@every " + freq.Interval().String()
}

// Scheduler manages the recurring update entry and the optional history
// retention entry.
type Scheduler struct {
	reg         Registrar
	enq         UpdateEnqueuer
	taskTimeout time.Duration
	logger      *zap.SugaredLogger

	mu      sync.Mutex
	entryID string
	freq    settings.Frequency
	pruneID string
}

// New creates a Scheduler. taskTimeout bounds each scheduled run.
func New(reg Registrar, enq UpdateEnqueuer, taskTimeout time.Duration, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		reg:         reg,
		enq:         enq,
		taskTimeout: taskTimeout,
		logger:      logger,
	}
}

// Ensure registers the recurring update at freq unless one is already
// registered. It reports whether a new entry was created.
func (s *Scheduler) Ensure(freq settings.Frequency) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != "" {
		return false, nil
	}
	if err := s.register(freq); err != nil {
		return false, err
	}
	return true, nil
}

// Reschedule replaces the recurring entry with one at freq. At most one
// entry exists afterwards.
func (s *Scheduler) Reschedule(freq settings.Frequency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.unregister(); err != nil {
		return err
	}
	return s.register(freq)
}

// RunNow enqueues one immediate update outside the recurring schedule.
func (s *Scheduler) RunNow(ctx context.Context, trigger string) error {
	if err := s.enq.EnqueueUpdateTask(ctx, service.UpdateRatesPayload{Trigger: trigger}); err != nil {
		return fmt.Errorf("enqueue immediate update: %w", err)
	}
	return nil
}

// Cancel removes the recurring update entry. Removing nothing is not an error.
func (s *Scheduler) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unregister()
}

// Current returns the registered frequency and whether an entry exists.
func (s *Scheduler) Current() (settings.Frequency, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freq, s.entryID != ""
}

// EnsurePrune registers the daily history retention task. A non-positive
// retentionDays disables it.
func (s *Scheduler) EnsurePrune(retentionDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if retentionDays <= 0 || s.pruneID != "" {
		return nil
	}
	data, err := json.Marshal(service.PruneHistoryPayload{RetentionDays: retentionDays})
	if err != nil {
		return err
	}
	task := asynq.NewTask(service.TaskTypePruneHistory, data, asynq.MaxRetry(0), asynq.Timeout(s.taskTimeout))
	id, err := s.reg.Register(Cronspec(settings.Daily), task)
	if err != nil {
		return fmt.Errorf("register history prune: %w", err)
	}
	s.pruneID = id
	s.logger.Infow("History retention scheduled", "retention_days", retentionDays, "entry_id", id)
	return nil
}

func (s *Scheduler) register(freq settings.Frequency) error {
	if !freq.Valid() {
		freq = settings.Hourly
	}
	data, err := json.Marshal(service.UpdateRatesPayload{Trigger: service.TriggerSchedule})
	if err != nil {
		return err
	}
	// No Unique lock: a failed run is archived with its lock still held,
	// which would swallow the next tick. The acquirer mutex serializes runs.
	task := asynq.NewTask(service.TaskTypeUpdateRates, data,
		asynq.MaxRetry(0),
		asynq.Timeout(s.taskTimeout),
	)
	id, err := s.reg.Register(Cronspec(freq), task)
	if err != nil {
		return fmt.Errorf("register rate update: %w", err)
	}
	s.entryID = id
	s.freq = freq
	s.logger.Infow("Rate update scheduled", "frequency", freq, "entry_id", id)
	return nil
}

func (s *Scheduler) unregister() error {
	if s.entryID == "" {
		return nil
	}
	if err := s.reg.Unregister(s.entryID); err != nil {
		return fmt.Errorf("unregister rate update: %w", err)
	}
	s.logger.Infow("Rate update unscheduled", "frequency", s.freq, "entry_id", s.entryID)
	s.entryID = ""
	s.freq = ""
	return nil
}
