package view

import (
	"bytes"
	"errors"
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

var updated = time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(time.UTC, "January 2, 2006 3:04 pm")
	require.NoError(t, err)
	return r
}

func usdRates() *service.FormattedRates {
	return &service.FormattedRates{
		Base:        "USD",
		Rates:       map[string]float64{"JPY": 149.5, "EUR": 0.92, "GBP": 0.79},
		LastUpdated: updated,
		Timestamp:   updated.Unix(),
	}
}

func TestShortcode(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Shortcode(&buf, ShortcodeAttrs{Base: "USD", ShowBase: true, Columns: 3}, usdRates()))
	out := buf.String()

	assert.Contains(t, out, "Exchange Rates (1 USD =)")
	assert.Contains(t, out, "erh-cols-3")
	assert.Contains(t, out, "149.5000")
	assert.Contains(t, out, "Last updated: March 4, 2026 3:30 pm")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("EUR")), bytes.Index(buf.Bytes(), []byte("JPY")))
}

func TestShortcode_HiddenTitle(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Shortcode(&buf, ShortcodeAttrs{Base: "USD", ShowBase: false, Columns: 2}, usdRates()))
	assert.NotContains(t, buf.String(), "Exchange Rates (1 USD =)")
}

func TestShortcode_Unavailable(t *testing.T) {
	r := newTestRenderer(t)

	for _, rates := range []*service.FormattedRates{nil, {Base: "XYZ", Rates: map[string]float64{}}} {
		var buf bytes.Buffer
		require.NoError(t, r.Shortcode(&buf, ShortcodeAttrs{Base: "XYZ", ShowBase: true, Columns: 2}, rates))
		assert.Contains(t, buf.String(), MsgUnavailable)
		assert.NotContains(t, buf.String(), "erh-rates-grid")
	}
}

func TestShortcode_EscapesBase(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.ShortcodeHTML(ShortcodeAttrs{Base: `<B>"`, ShowBase: true, Columns: 2}, usdRates())
	require.NoError(t, err)
	assert.NotContains(t, out, `<B>"`)
}

func TestTable(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Table(&buf, usdRates()))
	assert.Contains(t, buf.String(), "<th>Currency</th><th>Rate</th>")
	assert.Contains(t, buf.String(), "0.7900")

	buf.Reset()
	require.NoError(t, r.Table(&buf, nil))
	assert.Contains(t, buf.String(), MsgNoRatesTable)
}

func TestPage(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageData{
		Title:   "Exchange Rates",
		Content: template.HTML("<p>Today's rates</p>"),
		Base:    "USD",
		Rates:   usdRates(),
	}))
	out := buf.String()
	assert.Contains(t, out, "<h1 class=\"entry-title\">Exchange Rates</h1>")
	assert.Contains(t, out, "<p>Today's rates</p>")
	assert.Contains(t, out, "Current Exchange Rates (1 USD =)")
	assert.Contains(t, out, "Last updated: March 4, 2026 3:30 pm")

	buf.Reset()
	require.NoError(t, r.Page(&buf, PageData{Title: "Exchange Rates", Base: "USD"}))
	assert.Contains(t, buf.String(), MsgUnavailable)
}

func TestAdmin(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Admin(&buf, AdminData{
		Success: MsgSettingsSaved,
		Error:   "API error: HTTP 500",
		Settings: settings.Settings{
			BaseCurrency:      "USD",
			EnabledCurrencies: []string{"EUR", "GBP"},
			UpdateFrequency:   settings.Daily,
			APIKey:            "k",
		},
		Nonce: "nonce-value",
		Rates: usdRates(),
	}))
	out := buf.String()

	assert.Contains(t, out, MsgSettingsSaved)
	assert.Contains(t, out, "API error: HTTP 500")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("notice-success")), bytes.Index(buf.Bytes(), []byte("notice-error")))
	assert.Contains(t, out, `value="EUR, GBP"`)
	assert.Contains(t, out, `<option value="daily" selected>Daily</option>`)
	assert.Contains(t, out, `<option value="hourly">Hourly</option>`)
	assert.Contains(t, out, `value="nonce-value"`)
	assert.Contains(t, out, "Rate (1 USD =)")
	assert.Contains(t, out, "Last Updated:")
	assert.Contains(t, out, "Optional: API key for premium providers")
}

func TestAdmin_NoRates(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Admin(&buf, AdminData{Settings: settings.Defaults()}))
	assert.Contains(t, buf.String(), MsgNoRatesAdmin)
	assert.NotContains(t, buf.String(), "notice-success")
}

func TestFetchReport(t *testing.T) {
	r := newTestRenderer(t)
	at := updated

	tests := []struct {
		name     string
		data     FetchReportData
		contains []string
		absent   []string
	}{
		{
			name: "fetched and saved",
			data: FetchReportData{Base: "USD", Symbols: []string{"EUR", "GBP"}, Report: &service.UpdateReport{
				Fetched: true, HistorySaved: true, SnapshotSaved: true, UpdatedAt: &at,
				Rates: map[string]float64{"EUR": 0.92, "GBP": 0.79},
			}},
			contains: []string{"Target Currencies: EUR, GBP", "✓ Successfully fetched 2 rates!", "EUR => 0.92", "✓ Rates saved to database!"},
			absent:   []string{"✗"},
		},
		{
			name: "fetched but not saved",
			data: FetchReportData{Base: "USD", Symbols: []string{"EUR"}, Report: &service.UpdateReport{
				Fetched: true, HistorySaved: true, Rates: map[string]float64{"EUR": 0.92},
			}},
			contains: []string{"✓ Successfully fetched 1 rates!", "✗ Failed to save rates to database"},
		},
		{
			name: "fetch failed",
			data: FetchReportData{
				Base: "USD", Symbols: []string{"EUR"}, Report: &service.UpdateReport{Base: "USD"},
				LastError: &settings.ErrorRecord{Message: "API returned non-200 status code: 500", Timestamp: updated},
			},
			contains: []string{"✗ Failed to fetch rates from API", "API returned non-200 status code: 500", "March 4, 2026 3:30 pm"},
			absent:   []string{"Successfully"},
		},
		{
			name:     "no report",
			data:     FetchReportData{Base: "USD"},
			contains: []string{"✗ Failed to fetch rates from API"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.FetchReport(&buf, tc.data))
			for _, s := range tc.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tc.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRender_WriteError(t *testing.T) {
	r := newTestRenderer(t)
	assert.Error(t, r.Table(failingWriter{}, usdRates()))
}
