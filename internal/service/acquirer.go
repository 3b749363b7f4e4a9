package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/provider"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

// SettingsStore is the part of settings.Store the pipeline needs.
type SettingsStore interface {
	Load(ctx context.Context) (settings.Settings, error)
	MarkUpdated(ctx context.Context, at time.Time) error
}

// RateUpdater runs the acquisition pipeline once.
type RateUpdater interface {
	UpdateRates(ctx context.Context) (*UpdateReport, error)
}

// UpdateReport describes one pipeline run.
type UpdateReport struct {
	Base          string             `json:"base"`
	Symbols       []string           `json:"symbols"`
	Rates         map[string]float64 `json:"rates,omitempty"`
	Fetched       bool               `json:"fetched"`
	HistorySaved  bool               `json:"history_saved"`
	SnapshotSaved bool               `json:"snapshot_saved"`
	UpdatedAt     *time.Time         `json:"updated_at,omitempty"`
}

// Saved reports whether both writes succeeded.
func (r *UpdateReport) Saved() bool {
	return r != nil && r.HistorySaved && r.SnapshotSaved
}

var _ RateUpdater = (*Acquirer)(nil)

// Acquirer fetches rates for the configured base currency and persists them.
// Runs within one process are serialized.
type Acquirer struct {
	settings SettingsStore
	provider provider.RatesProvider
	store    *RateStore
	log      *zap.SugaredLogger
	now      func() time.Time

	mu sync.Mutex
}

// NewAcquirer creates an Acquirer. prov is expected to record its own
// failures (see provider.RecordingProvider).
func NewAcquirer(st SettingsStore, prov provider.RatesProvider, store *RateStore, logger *zap.SugaredLogger) *Acquirer {
	return &Acquirer{
		settings: st,
		provider: prov,
		store:    store,
		log:      logger,
		now:      time.Now,
	}
}

// UpdateRates fetches and stores rates. A fetch failure leaves stored data
// untouched. History and snapshot are both written after a successful
// fetch; a failure of either is not rolled back and is reported as
// ErrStorageWrite together with the partial report.
func (a *Acquirer) UpdateRates(ctx context.Context) (*UpdateReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg, err := a.settings.Load(ctx)
	if err != nil {
		a.log.Errorw("Failed to load settings", "error", err)
		return nil, fmt.Errorf("load settings: %w", err)
	}

	report := &UpdateReport{Base: cfg.BaseCurrency, Symbols: cfg.EnabledCurrencies}

	rates, err := a.provider.FetchRates(ctx, cfg.BaseCurrency, cfg.EnabledCurrencies)
	if err != nil {
		return report, fmt.Errorf("fetch rates: %w", err)
	}
	report.Fetched = true
	report.Rates = rates

	histErr := a.store.SaveHistory(ctx, cfg.BaseCurrency, rates)
	snapErr := a.store.SaveLatest(ctx, cfg.BaseCurrency, rates)
	report.HistorySaved = histErr == nil
	report.SnapshotSaved = snapErr == nil
	if err := errors.Join(histErr, snapErr); err != nil {
		a.log.Errorw("Rates fetched but not fully stored",
			"base", cfg.BaseCurrency, "history_saved", report.HistorySaved, "snapshot_saved", report.SnapshotSaved)
		return report, err
	}

	at := a.now().UTC()
	if err := a.settings.MarkUpdated(ctx, at); err != nil {
		a.log.Warnw("Failed to record last successful update", "error", err)
	}
	report.UpdatedAt = &at

	a.log.Infow("Rates updated", "base", cfg.BaseCurrency, "count", len(rates))
	return report, nil
}
