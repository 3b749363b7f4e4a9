package service

import (
	"context"
	"time"

	"github.com/alekspanteli/exchange-rate-hub/internal/repository"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

type mockRateRepo struct {
	upsertLatestFunc  func(ctx context.Context, base string, rates map[string]float64, at time.Time) error
	insertHistoryFunc func(ctx context.Context, base string, rates map[string]float64, at time.Time) error
	getLatestFunc     func(ctx context.Context, base string) (*repository.RateSnapshot, error)
	distinctBasesFunc func(ctx context.Context) ([]string, error)
	listHistoryFunc   func(ctx context.Context, base string, limit int) ([]repository.RateHistoryEntry, error)
	countHistoryFunc  func(ctx context.Context, base string) (int64, error)
	pruneHistoryFunc  func(ctx context.Context, before time.Time) (int64, error)
}

func (m *mockRateRepo) UpsertLatest(ctx context.Context, base string, rates map[string]float64, at time.Time) error {
	return m.upsertLatestFunc(ctx, base, rates, at)
}

func (m *mockRateRepo) InsertHistory(ctx context.Context, base string, rates map[string]float64, at time.Time) error {
	return m.insertHistoryFunc(ctx, base, rates, at)
}

func (m *mockRateRepo) GetLatest(ctx context.Context, base string) (*repository.RateSnapshot, error) {
	return m.getLatestFunc(ctx, base)
}

func (m *mockRateRepo) DistinctBases(ctx context.Context) ([]string, error) {
	return m.distinctBasesFunc(ctx)
}

func (m *mockRateRepo) ListHistory(ctx context.Context, base string, limit int) ([]repository.RateHistoryEntry, error) {
	return m.listHistoryFunc(ctx, base, limit)
}

func (m *mockRateRepo) CountHistory(ctx context.Context, base string) (int64, error) {
	return m.countHistoryFunc(ctx, base)
}

func (m *mockRateRepo) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	return m.pruneHistoryFunc(ctx, before)
}

// memRateRepo keeps snapshots and history in memory and counts reads.
type memRateRepo struct {
	snapshots map[string]repository.RateSnapshot
	history   []repository.RateHistoryEntry
	reads     int
	failSnap  error
	failHist  error
}

func newMemRateRepo() *memRateRepo {
	return &memRateRepo{snapshots: map[string]repository.RateSnapshot{}}
}

func (m *memRateRepo) asMock() *mockRateRepo {
	return &mockRateRepo{
		upsertLatestFunc: func(_ context.Context, base string, rates map[string]float64, at time.Time) error {
			if m.failSnap != nil {
				return m.failSnap
			}
			m.snapshots[base] = repository.RateSnapshot{ID: 1, BaseCurrency: base, Rates: rates, LastUpdated: at}
			return nil
		},
		insertHistoryFunc: func(_ context.Context, base string, rates map[string]float64, at time.Time) error {
			if m.failHist != nil {
				return m.failHist
			}
			m.history = append(m.history, repository.RateHistoryEntry{
				ID: int64(len(m.history) + 1), BaseCurrency: base, Rates: rates, FetchedAt: at,
			})
			return nil
		},
		getLatestFunc: func(_ context.Context, base string) (*repository.RateSnapshot, error) {
			m.reads++
			s, ok := m.snapshots[base]
			if !ok {
				return nil, nil
			}
			return &s, nil
		},
		distinctBasesFunc: func(_ context.Context) ([]string, error) {
			var bases []string
			for b := range m.snapshots {
				bases = append(bases, b)
			}
			return bases, nil
		},
		countHistoryFunc: func(_ context.Context, base string) (int64, error) {
			var n int64
			for _, e := range m.history {
				if e.BaseCurrency == base {
					n++
				}
			}
			return n, nil
		},
	}
}

type mockSettingsStore struct {
	loadFunc        func(ctx context.Context) (settings.Settings, error)
	markUpdatedFunc func(ctx context.Context, at time.Time) error
}

func (m *mockSettingsStore) Load(ctx context.Context) (settings.Settings, error) {
	return m.loadFunc(ctx)
}

func (m *mockSettingsStore) MarkUpdated(ctx context.Context, at time.Time) error {
	return m.markUpdatedFunc(ctx, at)
}

type mockRatesProvider struct {
	fetchFunc func(ctx context.Context, base string, symbols []string) (map[string]float64, error)
}

func (m *mockRatesProvider) FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	return m.fetchFunc(ctx, base, symbols)
}
