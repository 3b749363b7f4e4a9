package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekspanteli/exchange-rate-hub/internal/repository"
	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
	"github.com/alekspanteli/exchange-rate-hub/internal/view"
)

var lastUpdated = time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

func storedRates(bases ...string) *mockRates {
	return &mockRates{
		getFormattedFunc: func(_ context.Context, base string) (*service.FormattedRates, error) {
			for _, b := range bases {
				if b == base {
					return &service.FormattedRates{
						Base:        base,
						Rates:       map[string]float64{"EUR": 0.92, "GBP": 0.79, "JPY": 149.5},
						LastUpdated: lastUpdated,
						Timestamp:   lastUpdated.Unix(),
					}, nil
				}
			}
			return nil, service.ErrNotFound
		},
	}
}

func newRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	r, err := view.NewRenderer(time.UTC, "January 2, 2006 3:04 pm")
	require.NoError(t, err)
	return r
}

func TestHandleGetRates(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		rates    *mockRates
		wantCode int
		wantBase string
	}{
		{name: "configured base", query: "", rates: storedRates("USD"), wantCode: http.StatusOK, wantBase: "USD"},
		{name: "explicit base is normalized", query: "?base=eur", rates: storedRates("EUR"), wantCode: http.StatusOK, wantBase: "EUR"},
		{name: "unknown base", query: "?base=XYZ", rates: storedRates("USD"), wantCode: http.StatusNotFound},
		{name: "invalid base", query: "?base=dollars", rates: storedRates("USD"), wantCode: http.StatusBadRequest},
		{name: "storage failure", query: "", rates: &mockRates{getFormattedFunc: func(context.Context, string) (*service.FormattedRates, error) {
			return nil, service.ErrInternal
		}}, wantCode: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/rates"+tc.query, nil)
			w := httptest.NewRecorder()

			HandleGetRates(tc.rates, usdSettings()).ServeHTTP(w, req)

			require.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode != http.StatusOK {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.NotEmpty(t, resp.Error)
				return
			}
			var resp RatesResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tc.wantBase, resp.Base)
			assert.Equal(t, 149.5, resp.Rates["JPY"])
			assert.Equal(t, "2026-03-04T15:30:00Z", resp.LastUpdated)
			assert.Equal(t, lastUpdated.Unix(), resp.Timestamp)
		})
	}
}

func TestHandleGetHistory(t *testing.T) {
	var gotBase string
	var gotLimit int
	rates := &mockRates{historyFunc: func(_ context.Context, base string, limit int) ([]repository.RateHistoryEntry, error) {
		gotBase, gotLimit = base, limit
		return []repository.RateHistoryEntry{
			{ID: 2, BaseCurrency: base, Rates: map[string]float64{"EUR": 0.93}, FetchedAt: lastUpdated},
			{ID: 1, BaseCurrency: base, Rates: map[string]float64{"EUR": 0.92}, FetchedAt: lastUpdated.Add(-time.Hour)},
		}, nil
	}}

	t.Run("defaults", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleGetHistory(rates, usdSettings()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rates/history", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "USD", gotBase)
		assert.Equal(t, DefaultHistoryLimit, gotLimit)

		var resp HistoryResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, int64(2), resp.Entries[0].ID)
	})

	t.Run("explicit limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleGetHistory(rates, usdSettings()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rates/history?base=GBP&limit=5", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "GBP", gotBase)
		assert.Equal(t, 5, gotLimit)
	})

	for _, q := range []string{"?limit=0", "?limit=501", "?limit=abc", "?base=12"} {
		t.Run("rejects "+q, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleGetHistory(rates, usdSettings()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rates/history"+q, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleShortcode(t *testing.T) {
	r := newRenderer(t)

	t.Run("columns clamped and base from query", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleShortcode(storedRates("EUR"), usdSettings(), r).ServeHTTP(w,
			httptest.NewRequest(http.MethodGet, "/rates/shortcode?base=eur&columns=7", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "erh-cols-4")
		assert.Contains(t, w.Body.String(), "Exchange Rates (1 EUR =)")
	})

	t.Run("defaults", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleShortcode(storedRates("USD"), usdSettings(), r).ServeHTTP(w,
			httptest.NewRequest(http.MethodGet, "/rates/shortcode", nil))

		assert.Contains(t, w.Body.String(), "erh-cols-2")
		assert.Contains(t, w.Body.String(), "Exchange Rates (1 USD =)")
	})

	t.Run("show_base false hides title", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleShortcode(storedRates("USD"), usdSettings(), r).ServeHTTP(w,
			httptest.NewRequest(http.MethodGet, "/rates/shortcode?show_base=false", nil))

		assert.NotContains(t, w.Body.String(), "Exchange Rates (1 USD =)")
	})

	t.Run("no snapshot renders unavailable", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleShortcode(storedRates("USD"), usdSettings(), r).ServeHTTP(w,
			httptest.NewRequest(http.MethodGet, "/rates/shortcode?base=XYZ", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), view.MsgUnavailable)
	})
}

func TestHandleTable(t *testing.T) {
	r := newRenderer(t)

	w := httptest.NewRecorder()
	HandleTable(storedRates("USD"), usdSettings(), r).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rates/table", nil))
	assert.Contains(t, w.Body.String(), "149.5000")

	w = httptest.NewRecorder()
	HandleTable(storedRates("USD"), usdSettings(), r).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rates/table?base=bad!", nil))
	assert.Contains(t, w.Body.String(), view.MsgNoRatesTable)
}

func TestHandlePage(t *testing.T) {
	r := newRenderer(t)
	page := PageConfig{Title: "Exchange Rates", Content: `<p>Intro</p>[exchange_rates base="EUR" columns="3" show_base="no"]`}

	w := httptest.NewRecorder()
	HandlePage(storedRates("USD", "EUR"), usdSettings(), r, page).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rates", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<p>Intro</p>")
	assert.Contains(t, body, `data-base="EUR"`)
	assert.Contains(t, body, "erh-cols-3")
	assert.Contains(t, body, "Current Exchange Rates (1 USD =)")
	assert.NotContains(t, body, "[exchange_rates")
}

func TestHandlePage_SettingsFailureFallsBackToDefaults(t *testing.T) {
	r := newRenderer(t)
	st := &mockSettings{loadFunc: func(context.Context) (settings.Settings, error) {
		return settings.Settings{}, errors.New("db down")
	}}

	w := httptest.NewRecorder()
	HandlePage(storedRates(), st, r, PageConfig{Title: "Rates"}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rates", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), view.MsgUnavailable)
}
