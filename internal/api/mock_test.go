package api

import (
	"context"

	"github.com/alekspanteli/exchange-rate-hub/internal/repository"
	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

type mockRates struct {
	getFormattedFunc func(ctx context.Context, base string) (*service.FormattedRates, error)
	historyFunc      func(ctx context.Context, base string, limit int) ([]repository.RateHistoryEntry, error)
	clearFunc        func(ctx context.Context) (int, error)
}

func (m *mockRates) GetFormatted(ctx context.Context, base string) (*service.FormattedRates, error) {
	return m.getFormattedFunc(ctx, base)
}

func (m *mockRates) History(ctx context.Context, base string, limit int) ([]repository.RateHistoryEntry, error) {
	return m.historyFunc(ctx, base, limit)
}

func (m *mockRates) ClearAllCaches(ctx context.Context) (int, error) {
	return m.clearFunc(ctx)
}

type mockSettings struct {
	loadFunc      func(ctx context.Context) (settings.Settings, error)
	saveFunc      func(ctx context.Context, cfg settings.Settings) error
	statusFunc    func(ctx context.Context) (settings.Status, error)
	lastErrorFunc func(ctx context.Context) (*settings.ErrorRecord, error)
}

func (m *mockSettings) Load(ctx context.Context) (settings.Settings, error) {
	return m.loadFunc(ctx)
}

func (m *mockSettings) Save(ctx context.Context, cfg settings.Settings) error {
	return m.saveFunc(ctx, cfg)
}

func (m *mockSettings) Status(ctx context.Context) (settings.Status, error) {
	if m.statusFunc == nil {
		return settings.Status{}, nil
	}
	return m.statusFunc(ctx)
}

func (m *mockSettings) LastError(ctx context.Context) (*settings.ErrorRecord, error) {
	return m.lastErrorFunc(ctx)
}

type mockUpdater struct {
	updateFunc func(ctx context.Context) (*service.UpdateReport, error)
	calls      int
}

func (m *mockUpdater) UpdateRates(ctx context.Context) (*service.UpdateReport, error) {
	m.calls++
	return m.updateFunc(ctx)
}

type mockScheduler struct {
	rescheduled []settings.Frequency
	runs        []string
	runErr      error
	current     settings.Frequency
}

func (m *mockScheduler) Reschedule(freq settings.Frequency) error {
	m.rescheduled = append(m.rescheduled, freq)
	m.current = freq
	return nil
}

func (m *mockScheduler) RunNow(_ context.Context, trigger string) error {
	m.runs = append(m.runs, trigger)
	return m.runErr
}

func (m *mockScheduler) Current() (settings.Frequency, bool) {
	return m.current, m.current != ""
}

type mockNotices struct {
	success, failure string
}

func (m *mockNotices) SetSuccess(_ context.Context, msg string) error {
	m.success = msg
	return nil
}

func (m *mockNotices) Pop(context.Context) (string, string) {
	s, f := m.success, m.failure
	m.success, m.failure = "", ""
	return s, f
}

func usdSettings() *mockSettings {
	return &mockSettings{
		loadFunc: func(context.Context) (settings.Settings, error) {
			return settings.Settings{
				BaseCurrency:      "USD",
				EnabledCurrencies: []string{"EUR", "GBP", "JPY"},
				UpdateFrequency:   settings.Hourly,
				APIKey:            "secret-key",
			}, nil
		},
	}
}
