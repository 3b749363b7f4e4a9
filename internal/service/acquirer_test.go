package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/provider"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

type fakeSettings struct {
	mu      sync.Mutex
	cfg     settings.Settings
	updated []time.Time
}

func (f *fakeSettings) asMock() *mockSettingsStore {
	return &mockSettingsStore{
		loadFunc: func(context.Context) (settings.Settings, error) { return f.cfg, nil },
		markUpdatedFunc: func(_ context.Context, at time.Time) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.updated = append(f.updated, at)
			return nil
		},
	}
}

func usdSettings() *fakeSettings {
	return &fakeSettings{cfg: settings.Settings{
		BaseCurrency:      "USD",
		EnabledCurrencies: []string{"EUR", "GBP", "JPY"},
		UpdateFrequency:   settings.Hourly,
	}}
}

func TestAcquirer_Success(t *testing.T) {
	st := usdSettings()
	mem := newMemRateRepo()
	store := NewRateStore(mem.asMock(), nil, zap.NewNop().Sugar())
	var gotBase string
	var gotSymbols []string
	prov := &mockRatesProvider{fetchFunc: func(_ context.Context, base string, symbols []string) (map[string]float64, error) {
		gotBase, gotSymbols = base, symbols
		return map[string]float64{"EUR": 0.92, "GBP": 0.79, "JPY": 149.5}, nil
	}}
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	acq := NewAcquirer(st.asMock(), prov, store, zap.NewNop().Sugar())
	acq.now = func() time.Time { return now }

	report, err := acq.UpdateRates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "USD", gotBase)
	assert.Equal(t, []string{"EUR", "GBP", "JPY"}, gotSymbols)
	assert.True(t, report.Fetched)
	assert.True(t, report.Saved())
	require.NotNil(t, report.UpdatedAt)
	assert.Equal(t, now, *report.UpdatedAt)
	assert.Equal(t, []time.Time{now}, st.updated)

	assert.Len(t, mem.history, 1)
	assert.Equal(t, 149.5, mem.snapshots["USD"].Rates["JPY"])
}

func TestAcquirer_FetchFailureLeavesSnapshot(t *testing.T) {
	st := usdSettings()
	mem := newMemRateRepo()
	store := NewRateStore(mem.asMock(), nil, zap.NewNop().Sugar())
	require.NoError(t, store.SaveLatest(context.Background(), "USD", map[string]float64{"EUR": 0.9}))

	fetchErr := errors.New("boom")
	prov := &mockRatesProvider{fetchFunc: func(context.Context, string, []string) (map[string]float64, error) {
		return nil, fetchErr
	}}
	acq := NewAcquirer(st.asMock(), prov, store, zap.NewNop().Sugar())

	report, err := acq.UpdateRates(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
	assert.False(t, report.Fetched)
	assert.False(t, report.Saved())
	assert.Nil(t, report.UpdatedAt)

	assert.Empty(t, mem.history)
	assert.Equal(t, 0.9, mem.snapshots["USD"].Rates["EUR"])
	assert.Empty(t, st.updated)
}

func TestAcquirer_PartialStorageFailure(t *testing.T) {
	tests := []struct {
		name         string
		failHist     bool
		failSnap     bool
		wantHistory  bool
		wantSnapshot bool
	}{
		{name: "history write fails", failHist: true, wantSnapshot: true},
		{name: "snapshot write fails", failSnap: true, wantHistory: true},
		{name: "both fail", failHist: true, failSnap: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := usdSettings()
			mem := newMemRateRepo()
			if tc.failHist {
				mem.failHist = errors.New("disk full")
			}
			if tc.failSnap {
				mem.failSnap = errors.New("disk full")
			}
			store := NewRateStore(mem.asMock(), nil, zap.NewNop().Sugar())
			prov := &mockRatesProvider{fetchFunc: func(context.Context, string, []string) (map[string]float64, error) {
				return map[string]float64{"EUR": 0.92}, nil
			}}
			acq := NewAcquirer(st.asMock(), prov, store, zap.NewNop().Sugar())

			report, err := acq.UpdateRates(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStorageWrite)
			assert.True(t, report.Fetched)
			assert.Equal(t, tc.wantHistory, report.HistorySaved)
			assert.Equal(t, tc.wantSnapshot, report.SnapshotSaved)
			assert.Nil(t, report.UpdatedAt)
			assert.Empty(t, st.updated, "last successful update must not advance")

			_, hasSnap := mem.snapshots["USD"]
			assert.Equal(t, tc.wantSnapshot, hasSnap)
			assert.Equal(t, tc.wantHistory, len(mem.history) == 1)
		})
	}
}

func TestAcquirer_DropsInvalidEntriesFromProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"base":"USD","rates":{"EUR":0.92,"GBP":"bad","JPY":149.5}}`))
	}))
	t.Cleanup(srv.Close)

	st := usdSettings()
	mem := newMemRateRepo()
	store := NewRateStore(mem.asMock(), nil, zap.NewNop().Sugar())
	prov := provider.NewFxRatesAPIProvider(srv.URL, 5, zap.NewNop().Sugar())
	acq := NewAcquirer(st.asMock(), prov, store, zap.NewNop().Sugar())

	report, err := acq.UpdateRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"EUR": 0.92, "JPY": 149.5}, report.Rates)
	assert.Equal(t, map[string]float64{"EUR": 0.92, "JPY": 149.5}, mem.snapshots["USD"].Rates)
}

func TestAcquirer_SerializesRuns(t *testing.T) {
	st := usdSettings()
	mem := newMemRateRepo()
	store := NewRateStore(mem.asMock(), nil, zap.NewNop().Sugar())

	var mu sync.Mutex
	active, maxActive := 0, 0
	prov := &mockRatesProvider{fetchFunc: func(context.Context, string, []string) (map[string]float64, error) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return map[string]float64{"EUR": 0.92}, nil
	}}
	acq := NewAcquirer(st.asMock(), prov, store, zap.NewNop().Sugar())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = acq.UpdateRates(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	assert.Len(t, mem.history, 4)
}

func TestAcquirer_SettingsLoadFailure(t *testing.T) {
	st := &mockSettingsStore{loadFunc: func(context.Context) (settings.Settings, error) {
		return settings.Settings{}, errors.New("db down")
	}}
	prov := &mockRatesProvider{fetchFunc: func(context.Context, string, []string) (map[string]float64, error) {
		t.Fatal("provider must not be called")
		return nil, nil
	}}
	acq := NewAcquirer(st, prov, NewRateStore(newMemRateRepo().asMock(), nil, zap.NewNop().Sugar()), zap.NewNop().Sugar())

	report, err := acq.UpdateRates(context.Background())
	assert.Error(t, err)
	assert.Nil(t, report)
}
