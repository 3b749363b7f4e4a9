// Package settings holds the operator configuration persisted in the
// options table and the single-slot status records next to it.
package settings

import (
	"slices"
	"time"
)

// Frequency is the recurring update interval.
type Frequency string

// Supported update frequencies.
const (
	Hourly     Frequency = "hourly"
	TwiceDaily Frequency = "twicedaily"
	Daily      Frequency = "daily"
)

// Frequencies lists the supported values in display order.
var Frequencies = []Frequency{Hourly, TwiceDaily, Daily}

// Interval returns the time between two scheduled runs.
func (f Frequency) Interval() time.Duration {
	switch f {
	case TwiceDaily:
		return 12 * time.Hour
	case Daily:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	return slices.Contains(Frequencies, f)
}

// DefaultBaseCurrency is used whenever no valid base currency is stored or submitted.
const DefaultBaseCurrency = "USD"

// The two default currency sets differ: activation seeds five codes while the
// loader and the admin sanitizer fall back to three. Both are kept as-is.
var (
	activationCurrencies = []string{"EUR", "GBP", "JPY", "CAD", "AUD"}
	fallbackCurrencies   = []string{"EUR", "GBP", "JPY"}
)

// ActivationCurrencies returns the enabled set stored on first activation.
func ActivationCurrencies() []string { return slices.Clone(activationCurrencies) }

// FallbackCurrencies returns the enabled set used when none is stored or
// a submitted list has no valid code.
func FallbackCurrencies() []string { return slices.Clone(fallbackCurrencies) }

// Settings is the operator configuration. It is loaded once per pipeline
// run and passed explicitly.
type Settings struct {
	BaseCurrency      string    `json:"base_currency"`
	EnabledCurrencies []string  `json:"enabled_currencies"`
	UpdateFrequency   Frequency `json:"update_frequency"`
	// APIKey is stored for premium providers; no current provider reads it.
	APIKey string `json:"api_key"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{
		BaseCurrency:      DefaultBaseCurrency,
		EnabledCurrencies: FallbackCurrencies(),
		UpdateFrequency:   Hourly,
	}
}

// ErrorRecord is the most recent fetch failure.
type ErrorRecord struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Status groups the single-slot status entries.
type Status struct {
	LastSuccessfulUpdate *time.Time   `json:"last_successful_update,omitempty"`
	LastError            *ErrorRecord `json:"last_error,omitempty"`
	ActivatedAt          *time.Time   `json:"activated_at,omitempty"`
}
