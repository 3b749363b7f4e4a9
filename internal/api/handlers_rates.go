package api

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/alekspanteli/exchange-rate-hub/internal/repository"
	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
	"github.com/alekspanteli/exchange-rate-hub/internal/view"
)

// History page size limits.
const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 500
)

// RatesReader serves display projections of stored snapshots.
type RatesReader interface {
	GetFormatted(ctx context.Context, base string) (*service.FormattedRates, error)
}

// HistoryReader lists history entries.
type HistoryReader interface {
	History(ctx context.Context, base string, limit int) ([]repository.RateHistoryEntry, error)
}

// SettingsLoader loads the operator settings.
type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// PageConfig is the operator-provided content of the rates page.
type PageConfig struct {
	Title   string
	Content string
}

// RatesResponse represents the latest rates for one base currency
type RatesResponse struct {
	Base        string             `json:"base" example:"USD"`
	Rates       map[string]float64 `json:"rates"`
	LastUpdated string             `json:"last_updated" example:"2026-03-04T15:30:00Z"`
	Timestamp   int64              `json:"timestamp" example:"1772638200"`
}

// HistoryEntryResponse represents one recorded acquisition
type HistoryEntryResponse struct {
	ID        int64              `json:"id" example:"42"`
	Base      string             `json:"base" example:"USD"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt string             `json:"fetched_at" example:"2026-03-04T15:30:00Z"`
}

// HistoryResponse represents a page of history entries, newest first
type HistoryResponse struct {
	Base    string                 `json:"base" example:"USD"`
	Entries []HistoryEntryResponse `json:"entries"`
}

// baseParam returns the base query parameter, or the configured base when
// it is absent. ok is false when the given value is not a currency code.
func baseParam(r *http.Request, st SettingsLoader) (base string, ok bool, err error) {
	if raw := r.URL.Query().Get("base"); raw != "" {
		base, ok = settings.NormalizeCurrencyCode(raw)
		return base, ok, nil
	}
	cfg, err := st.Load(r.Context())
	if err != nil {
		return "", false, err
	}
	return cfg.BaseCurrency, true, nil
}

// formattedOrNil hides lookup failures from display surfaces.
func formattedOrNil(ctx context.Context, rates RatesReader, base string) *service.FormattedRates {
	f, err := rates.GetFormatted(ctx, base)
	if err != nil {
		return nil
	}
	return f
}

// HandleGetRates godoc
// @Summary Get latest rates
// @Description Returns the latest stored rates for a base currency, served from cache when possible. Defaults to the configured base currency.
// @Tags rates
// @Produce json
// @Param base query string false "Base currency code" example(USD)
// @Success 200 {object} RatesResponse "Latest rates"
// @Failure 400 {object} ErrorResponse "Invalid currency code"
// @Failure 404 {object} ErrorResponse "No rates stored for base"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/v1/rates [get]
func HandleGetRates(rates RatesReader, st SettingsLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, ok, err := baseParam(r, st)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid currency code"})
			return
		}

		f, err := rates.GetFormatted(r.Context(), base)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no rates available for " + base})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			}
			return
		}

		writeJSON(w, http.StatusOK, RatesResponse{
			Base:        f.Base,
			Rates:       f.Rates,
			LastUpdated: f.LastUpdated.UTC().Format(timeLayoutJSON),
			Timestamp:   f.Timestamp,
		})
	}
}

// HandleGetHistory godoc
// @Summary Get rate history
// @Description Returns recorded acquisitions for a base currency, newest first.
// @Tags rates
// @Produce json
// @Param base query string false "Base currency code" example(USD)
// @Param limit query int false "Maximum entries (1-500, default 30)"
// @Success 200 {object} HistoryResponse "History entries"
// @Failure 400 {object} ErrorResponse "Invalid parameter"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/v1/rates/history [get]
func HandleGetHistory(history HistoryReader, st SettingsLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, ok, err := baseParam(r, st)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid currency code"})
			return
		}

		limit := DefaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > MaxHistoryLimit {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 500"})
				return
			}
			limit = n
		}

		entries, err := history.History(r.Context(), base, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}

		resp := HistoryResponse{Base: base, Entries: make([]HistoryEntryResponse, 0, len(entries))}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, HistoryEntryResponse{
				ID:        e.ID,
				Base:      e.BaseCurrency,
				Rates:     e.Rates,
				FetchedAt: e.FetchedAt.UTC().Format(timeLayoutJSON),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleShortcode renders the rate grid fragment. Query parameters carry the
// shortcode attributes: base, show_base and columns.
func HandleShortcode(rates RatesReader, st SettingsLoader, renderer *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := st.Load(r.Context())
		if err != nil {
			cfg = settings.Defaults()
		}

		raw := map[string]string{}
		q := r.URL.Query()
		for _, name := range []string{"base", "show_base", "columns"} {
			if q.Has(name) {
				raw[name] = q.Get(name)
			}
		}
		attrs := view.ResolveShortcodeAttrs(raw, cfg.BaseCurrency)

		f := formattedOrNil(r.Context(), rates, attrs.Base)
		writeHTML(w, http.StatusOK, func(out io.Writer) error {
			return renderer.Shortcode(out, attrs, f)
		})
	}
}

// HandleTable renders the two-column table layout.
func HandleTable(rates RatesReader, st SettingsLoader, renderer *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, ok, err := baseParam(r, st)
		var f *service.FormattedRates
		if err == nil && ok {
			f = formattedOrNil(r.Context(), rates, base)
		}
		writeHTML(w, http.StatusOK, func(out io.Writer) error {
			return renderer.Table(out, f)
		})
	}
}

// HandlePage renders the full rates page for the configured base currency.
// Shortcodes in the page content are expanded.
func HandlePage(rates RatesReader, st SettingsLoader, renderer *view.Renderer, page PageConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cfg, err := st.Load(ctx)
		if err != nil {
			cfg = settings.Defaults()
		}

		content := view.ExpandShortcodes(page.Content, func(raw map[string]string) string {
			attrs := view.ResolveShortcodeAttrs(raw, cfg.BaseCurrency)
			html, err := renderer.ShortcodeHTML(attrs, formattedOrNil(ctx, rates, attrs.Base))
			if err != nil {
				return ""
			}
			return html
		})

		data := view.PageData{
			Title:   page.Title,
			Content: template.HTML(content),
			Base:    cfg.BaseCurrency,
			Rates:   formattedOrNil(ctx, rates, cfg.BaseCurrency),
		}
		writeHTML(w, http.StatusOK, func(out io.Writer) error {
			return renderer.Page(out, data)
		})
	}
}
