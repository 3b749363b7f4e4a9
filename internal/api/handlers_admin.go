package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/api/middleware"
	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
	"github.com/alekspanteli/exchange-rate-hub/internal/view"
)

// ActionSaveSettings binds form nonces to the settings form.
const ActionSaveSettings = "save_settings"

// MsgNonceExpired is shown when the settings form nonce does not verify.
const MsgNonceExpired = "The link you followed has expired."

// SettingsManager reads and writes operator settings and status slots.
type SettingsManager interface {
	SettingsLoader
	Save(ctx context.Context, cfg settings.Settings) error
	Status(ctx context.Context) (settings.Status, error)
	LastError(ctx context.Context) (*settings.ErrorRecord, error)
}

// Scheduler controls the recurring update.
type Scheduler interface {
	Reschedule(freq settings.Frequency) error
	RunNow(ctx context.Context, trigger string) error
	Current() (settings.Frequency, bool)
}

// NoticeBoard holds the one-shot admin notices.
type NoticeBoard interface {
	SetSuccess(ctx context.Context, msg string) error
	Pop(ctx context.Context) (success, failure string)
}

// NonceManager issues and verifies form nonces.
type NonceManager interface {
	IssueNonce(subject, action string) (string, error)
	VerifyNonce(nonce, subject, action string) error
}

// CacheClearer evicts cached rates.
type CacheClearer interface {
	ClearAllCaches(ctx context.Context) (int, error)
}

// AdminDeps groups the collaborators of the admin handlers.
type AdminDeps struct {
	Settings  SettingsManager
	Rates     RatesReader
	Updater   service.RateUpdater
	Scheduler Scheduler
	Notices   NoticeBoard
	Nonces    NonceManager
	Renderer  *view.Renderer
	Logger    *zap.SugaredLogger
}

func subjectOf(r *http.Request) string {
	if c := middleware.ClaimsFromContext(r.Context()); c != nil {
		return c.Subject
	}
	return ""
}

// HandleAdminPage renders the settings form, pending notices and the
// current rates.
func HandleAdminPage(d AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cfg, err := d.Settings.Load(ctx)
		if err != nil {
			d.Logger.Errorw("Failed to load settings", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		nonce, err := d.Nonces.IssueNonce(subjectOf(r), ActionSaveSettings)
		if err != nil {
			d.Logger.Errorw("Failed to issue form nonce", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		status, err := d.Settings.Status(ctx)
		if err != nil {
			d.Logger.Warnw("Failed to load status", "error", err)
		}

		success, failure := d.Notices.Pop(ctx)
		data := view.AdminData{
			Success:  success,
			Error:    failure,
			Settings: cfg,
			Nonce:    nonce,
			Rates:    formattedOrNil(ctx, d.Rates, cfg.BaseCurrency),
			Status:   status,
		}
		writeHTML(w, http.StatusOK, func(out io.Writer) error {
			return d.Renderer.Admin(out, data)
		})
	}
}

// HandleAdminSave validates the settings form, persists it, replaces the
// recurring update, runs one update synchronously and redirects back to the
// admin page.
func HandleAdminSave(d AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		if err := d.Nonces.VerifyNonce(r.PostForm.Get("_nonce"), subjectOf(r), ActionSaveSettings); err != nil {
			d.Logger.Warnw("Settings form nonce rejected", "subject", subjectOf(r), "error", err)
			http.Error(w, MsgNonceExpired, http.StatusForbidden)
			return
		}

		cfg := settingsFromForm(r)
		if err := d.Settings.Save(ctx, cfg); err != nil {
			d.Logger.Errorw("Failed to save settings", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := d.Scheduler.Reschedule(cfg.UpdateFrequency); err != nil {
			d.Logger.Errorw("Failed to reschedule rate updates", "frequency", cfg.UpdateFrequency, "error", err)
		}

		if _, err := d.Updater.UpdateRates(ctx); err != nil {
			d.Logger.Warnw("Rate update after settings change failed", "trigger", service.TriggerSettingsChange, "error", err)
		}

		if err := d.Notices.SetSuccess(context.WithoutCancel(ctx), view.MsgSettingsSaved); err != nil {
			d.Logger.Warnw("Failed to store success notice", "error", err)
		}

		d.Logger.Infow("Settings saved", "subject", subjectOf(r), "base", cfg.BaseCurrency,
			"currencies", cfg.EnabledCurrencies, "frequency", cfg.UpdateFrequency)
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

func settingsFromForm(r *http.Request) settings.Settings {
	form := r.PostForm

	cfg := settings.Settings{
		BaseCurrency:      settings.DefaultBaseCurrency,
		EnabledCurrencies: settings.FallbackCurrencies(),
		UpdateFrequency:   settings.Hourly,
	}
	if form.Has("base_currency") {
		cfg.BaseCurrency = settings.SanitizeCurrencyCode(form.Get("base_currency"))
	}
	if form.Has("enabled_currencies") {
		cfg.EnabledCurrencies = settings.SanitizeCurrencies(form.Get("enabled_currencies"))
	}
	if form.Has("update_frequency") {
		cfg.UpdateFrequency = settings.SanitizeFrequency(form.Get("update_frequency"))
	}
	cfg.APIKey = settings.SanitizeText(form.Get("api_key"))
	return cfg
}

// HandleAdminFetch runs the pipeline once and renders a report of the fetch
// and the writes.
func HandleAdminFetch(d AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cfg, err := d.Settings.Load(ctx)
		if err != nil {
			d.Logger.Errorw("Failed to load settings", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		report, err := d.Updater.UpdateRates(ctx)
		data := view.FetchReportData{Base: cfg.BaseCurrency, Symbols: cfg.EnabledCurrencies, Report: report}
		if report != nil {
			data.Base, data.Symbols = report.Base, report.Symbols
		}
		if err != nil && (report == nil || !report.Fetched) {
			if data.LastError, err = d.Settings.LastError(ctx); err != nil {
				d.Logger.Warnw("Failed to load last error", "error", err)
			}
		}

		writeHTML(w, http.StatusOK, func(out io.Writer) error {
			return d.Renderer.FetchReport(out, data)
		})
	}
}

// HandleAdminLogin verifies the token form field and stores it in the admin
// session cookie. Query parameters are ignored so the token stays out of
// access logs.
func HandleAdminLogin(parser middleware.TokenParser, secure bool, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.PostFormValue("token")
		claims, err := parser.ParseToken(token)
		if err != nil {
			logger.Warnw("Admin login rejected", "error", err)
			http.Error(w, view.MsgPermissionDenied, http.StatusForbidden)
			return
		}

		cookie := &http.Cookie{
			Name:     middleware.AdminCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
		}
		if claims.ExpiresAt != nil {
			cookie.Expires = claims.ExpiresAt.Time
		}
		http.SetCookie(w, cookie)
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

// ClearCacheResponse reports how many base currencies were evicted
type ClearCacheResponse struct {
	Cleared int `json:"cleared" example:"2"`
}

// HandleClearCache godoc
// @Summary Clear rate caches
// @Description Evicts the cached snapshot and display entries of every stored base currency.
// @Tags admin
// @Produce json
// @Security AdminToken
// @Success 200 {object} ClearCacheResponse "Caches cleared"
// @Failure 403 {string} string "Permission denied"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/v1/admin/cache/clear [post]
func HandleClearCache(cache CacheClearer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := cache.ClearAllCaches(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, ClearCacheResponse{Cleared: n})
	}
}

// RefreshResponse represents an accepted refresh request
type RefreshResponse struct {
	Status string `json:"status" example:"queued"`
}

// HandleRefresh godoc
// @Summary Refresh rates asynchronously
// @Description Enqueues one rate update. Returns immediately; a refresh that is already pending is not queued twice.
// @Tags admin
// @Produce json
// @Security AdminToken
// @Success 202 {object} RefreshResponse "Refresh queued"
// @Failure 403 {string} string "Permission denied"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/v1/admin/rates/refresh [post]
func HandleRefresh(sched Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sched.RunNow(r.Context(), service.TriggerManual); err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}
		writeJSON(w, http.StatusAccepted, RefreshResponse{Status: "queued"})
	}
}

// StatusResponse represents the operator settings and status slots
type StatusResponse struct {
	Settings             settings.Settings     `json:"settings"`
	Scheduled            bool                  `json:"scheduled" example:"true"`
	ScheduledFrequency   settings.Frequency    `json:"scheduled_frequency,omitempty" example:"hourly"`
	LastSuccessfulUpdate *time.Time            `json:"last_successful_update,omitempty"`
	LastError            *settings.ErrorRecord `json:"last_error,omitempty"`
	ActivatedAt          *time.Time            `json:"activated_at,omitempty"`
}

// HandleStatus godoc
// @Summary Service status
// @Description Returns the stored settings, the recurring schedule and the last success and error records.
// @Tags admin
// @Produce json
// @Security AdminToken
// @Success 200 {object} StatusResponse "Status"
// @Failure 403 {string} string "Permission denied"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/v1/admin/status [get]
func HandleStatus(st SettingsManager, sched Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := st.Load(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}
		status, err := st.Status(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}

		freq, scheduled := sched.Current()
		cfg.APIKey = maskSecret(cfg.APIKey)
		writeJSON(w, http.StatusOK, StatusResponse{
			Settings:             cfg,
			Scheduled:            scheduled,
			ScheduledFrequency:   freq,
			LastSuccessfulUpdate: status.LastSuccessfulUpdate,
			LastError:            status.LastError,
			ActivatedAt:          status.ActivatedAt,
		})
	}
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
