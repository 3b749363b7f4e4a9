// Package lifecycle runs the start-up and shutdown steps of the service.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

// SettingsStore is the part of settings.Store used on activation.
type SettingsStore interface {
	EnsureDefaults(ctx context.Context) error
	Load(ctx context.Context) (settings.Settings, error)
	MarkActivated(ctx context.Context, at time.Time) error
}

// Scheduler is the part of scheduler.Scheduler used here.
type Scheduler interface {
	Ensure(freq settings.Frequency) (bool, error)
	EnsurePrune(retentionDays int) error
	Cancel() error
}

// Lifecycle activates and deactivates the service.
type Lifecycle struct {
	store         SettingsStore
	sched         Scheduler
	updater       service.RateUpdater
	retentionDays int
	logger        *zap.SugaredLogger
	now           func() time.Time
}

// New creates a Lifecycle. retentionDays == 0 leaves history pruning off.
func New(store SettingsStore, sched Scheduler, updater service.RateUpdater, retentionDays int, logger *zap.SugaredLogger) *Lifecycle {
	return &Lifecycle{
		store:         store,
		sched:         sched,
		updater:       updater,
		retentionDays: retentionDays,
		logger:        logger,
		now:           time.Now,
	}
}

// Activate seeds default settings, registers the recurring update and runs
// the pipeline once. A failed first run is logged and does not fail
// activation.
func (l *Lifecycle) Activate(ctx context.Context) error {
	if err := l.store.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("store default settings: %w", err)
	}

	cfg, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if _, err := l.sched.Ensure(cfg.UpdateFrequency); err != nil {
		return fmt.Errorf("schedule rate updates: %w", err)
	}
	if err := l.sched.EnsurePrune(l.retentionDays); err != nil {
		return fmt.Errorf("schedule history retention: %w", err)
	}

	if _, err := l.updater.UpdateRates(ctx); err != nil {
		l.logger.Warnw("Initial rate update failed", "error", err)
	}

	if err := l.store.MarkActivated(ctx, l.now()); err != nil {
		l.logger.Warnw("Failed to record activation time", "error", err)
	}

	l.logger.Infow("Activated", "base", cfg.BaseCurrency, "frequency", cfg.UpdateFrequency)
	return nil
}

// Deactivate removes the recurring update. Stored rates and settings are kept.
func (l *Lifecycle) Deactivate() error {
	if err := l.sched.Cancel(); err != nil {
		return fmt.Errorf("cancel rate updates: %w", err)
	}
	l.logger.Infow("Deactivated")
	return nil
}
