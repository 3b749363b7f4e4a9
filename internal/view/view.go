// Package view renders the admin pages and the public rate displays with
// html/template. Renderers only read and format; absent rates produce a
// static message.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/alekspanteli/exchange-rate-hub/internal/service"
	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Fixed user-facing messages.
const (
	MsgUnavailable      = "Exchange rates are currently unavailable. Please check back later."
	MsgNoRatesAdmin     = "No rates available yet. Save settings to fetch initial rates."
	MsgNoRatesTable     = "No exchange rates available."
	MsgPermissionDenied = "You do not have permission to access this page."
	MsgSettingsSaved    = "Settings saved and rates updated successfully!"
)

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
	time TimeFormatter
}

// NewRenderer parses the embedded templates. Timestamps are shown in loc
// using layout.
func NewRenderer(loc *time.Location, layout string) (*Renderer, error) {
	r := &Renderer{time: TimeFormatter{Location: loc, Layout: layout}}
	funcs := template.FuncMap{
		"formatTime": r.time.Format,
		"join":       strings.Join,
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// ratesBlock is the shared projection of a FormattedRates for templates.
type ratesBlock struct {
	Base        string
	Items       []RateItem
	LastUpdated time.Time
}

func newRatesBlock(rates *service.FormattedRates) *ratesBlock {
	if rates == nil || len(rates.Rates) == 0 {
		return nil
	}
	return &ratesBlock{Base: rates.Base, Items: Items(rates.Rates), LastUpdated: rates.LastUpdated}
}

type shortcodeData struct {
	ShortcodeAttrs
	Rates *ratesBlock
}

// Shortcode renders the rate grid for attrs. rates may be nil.
func (r *Renderer) Shortcode(w io.Writer, attrs ShortcodeAttrs, rates *service.FormattedRates) error {
	return r.execute(w, "shortcode.html", shortcodeData{ShortcodeAttrs: attrs, Rates: newRatesBlock(rates)})
}

// Table renders the two-column table layout. rates may be nil.
func (r *Renderer) Table(w io.Writer, rates *service.FormattedRates) error {
	return r.execute(w, "table.html", newRatesBlock(rates))
}

// PageData is the input of the full rates page.
type PageData struct {
	Title   string
	Content template.HTML // trusted operator content, shortcodes already expanded
	Base    string
	Rates   *service.FormattedRates
}

// Page renders the full rates page.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.execute(w, "page.html", struct {
		Title   string
		Content template.HTML
		Base    string
		Rates   *ratesBlock
	}{data.Title, data.Content, data.Base, newRatesBlock(data.Rates)})
}

// AdminData is the input of the admin settings page.
type AdminData struct {
	Success  string
	Error    string
	Settings settings.Settings
	Nonce    string
	Rates    *service.FormattedRates
	Status   settings.Status
}

// Admin renders the admin settings page.
func (r *Renderer) Admin(w io.Writer, data AdminData) error {
	return r.execute(w, "admin.html", struct {
		Success     string
		Error       string
		Settings    settings.Settings
		Frequencies []frequencyOption
		Nonce       string
		Rates       *ratesBlock
		Status      settings.Status
	}{
		Success:     data.Success,
		Error:       data.Error,
		Settings:    data.Settings,
		Frequencies: frequencyOptions(data.Settings.UpdateFrequency),
		Nonce:       data.Nonce,
		Rates:       newRatesBlock(data.Rates),
		Status:      data.Status,
	})
}

type frequencyOption struct {
	Value    settings.Frequency
	Label    string
	Selected bool
}

var frequencyLabels = map[settings.Frequency]string{
	settings.Hourly:     "Hourly",
	settings.TwiceDaily: "Twice Daily",
	settings.Daily:      "Daily",
}

func frequencyOptions(current settings.Frequency) []frequencyOption {
	opts := make([]frequencyOption, 0, len(settings.Frequencies))
	for _, f := range settings.Frequencies {
		opts = append(opts, frequencyOption{Value: f, Label: frequencyLabels[f], Selected: f == current})
	}
	return opts
}

// FetchReportData is the input of the manual fetch report.
type FetchReportData struct {
	Base      string
	Symbols   []string
	Report    *service.UpdateReport
	LastError *settings.ErrorRecord
}

// FetchReport renders the result of a manual pipeline run.
func (r *Renderer) FetchReport(w io.Writer, data FetchReportData) error {
	var fetched []RateItem
	if data.Report != nil && data.Report.Fetched {
		fetched = Items(data.Report.Rates)
	}
	return r.execute(w, "fetch.html", struct {
		FetchReportData
		Fetched bool
		Saved   bool
		Items   []RateItem
	}{
		FetchReportData: data,
		Fetched:         data.Report != nil && data.Report.Fetched,
		Saved:           data.Report.Saved(),
		Items:           fetched,
	})
}

// ShortcodeHTML renders one shortcode to a string for in-content expansion.
func (r *Renderer) ShortcodeHTML(attrs ShortcodeAttrs, rates *service.FormattedRates) (string, error) {
	var buf bytes.Buffer
	if err := r.Shortcode(&buf, attrs, rates); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
