package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alekspanteli/exchange-rate-hub/internal/repository"
)

// Option names.
const (
	OptBaseCurrency         = "base_currency"
	OptEnabledCurrencies    = "enabled_currencies"
	OptUpdateFrequency      = "update_frequency"
	OptAPIKey               = "api_key"
	OptLastSuccessfulUpdate = "last_successful_update"
	OptLastError            = "last_error"
	OptActivatedAt          = "activated_at"
)

// Store reads and writes settings through an OptionRepository.
type Store struct {
	repo repository.OptionRepository
}

// NewStore creates a Store.
func NewStore(repo repository.OptionRepository) *Store {
	return &Store{repo: repo}
}

// Load returns the stored settings. Missing or invalid values fall back to
// Defaults.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	cfg := Defaults()

	var base string
	found, err := s.repo.GetOption(ctx, OptBaseCurrency, &base)
	if err != nil {
		return cfg, fmt.Errorf("load %s: %w", OptBaseCurrency, err)
	}
	if found {
		cfg.BaseCurrency = SanitizeCurrencyCode(base)
	}

	var enabled []string
	found, err = s.repo.GetOption(ctx, OptEnabledCurrencies, &enabled)
	if err != nil {
		return cfg, fmt.Errorf("load %s: %w", OptEnabledCurrencies, err)
	}
	if found {
		cfg.EnabledCurrencies = SanitizeCurrencyList(enabled)
	}

	var freq string
	found, err = s.repo.GetOption(ctx, OptUpdateFrequency, &freq)
	if err != nil {
		return cfg, fmt.Errorf("load %s: %w", OptUpdateFrequency, err)
	}
	if found {
		cfg.UpdateFrequency = SanitizeFrequency(freq)
	}

	if _, err := s.repo.GetOption(ctx, OptAPIKey, &cfg.APIKey); err != nil {
		return cfg, fmt.Errorf("load %s: %w", OptAPIKey, err)
	}

	return cfg, nil
}

// Save persists every settings field.
func (s *Store) Save(ctx context.Context, cfg Settings) error {
	return errors.Join(
		s.repo.SetOption(ctx, OptBaseCurrency, cfg.BaseCurrency),
		s.repo.SetOption(ctx, OptEnabledCurrencies, cfg.EnabledCurrencies),
		s.repo.SetOption(ctx, OptUpdateFrequency, cfg.UpdateFrequency),
		s.repo.SetOption(ctx, OptAPIKey, cfg.APIKey),
	)
}

// EnsureDefaults stores the activation defaults for options that do not exist
// yet. Existing values are left alone.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	defaults := []struct {
		name  string
		value any
	}{
		{OptBaseCurrency, DefaultBaseCurrency},
		{OptEnabledCurrencies, ActivationCurrencies()},
		{OptUpdateFrequency, Hourly},
		{OptAPIKey, ""},
	}
	var errs []error
	for _, d := range defaults {
		if _, err := s.repo.AddOption(ctx, d.name, d.value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MarkUpdated records the time of the last fully successful run.
func (s *Store) MarkUpdated(ctx context.Context, at time.Time) error {
	return s.repo.SetOption(ctx, OptLastSuccessfulUpdate, at.UTC())
}

// RecordError overwrites the last-error slot.
func (s *Store) RecordError(ctx context.Context, msg string, at time.Time) error {
	return s.repo.SetOption(ctx, OptLastError, ErrorRecord{Message: msg, Timestamp: at.UTC()})
}

// LastError returns the last recorded fetch failure, or nil.
func (s *Store) LastError(ctx context.Context) (*ErrorRecord, error) {
	var rec ErrorRecord
	found, err := s.repo.GetOption(ctx, OptLastError, &rec)
	if err != nil || !found {
		return nil, err
	}
	return &rec, nil
}

// MarkActivated records the activation time.
func (s *Store) MarkActivated(ctx context.Context, at time.Time) error {
	return s.repo.SetOption(ctx, OptActivatedAt, at.UTC())
}

// Status returns all status slots.
func (s *Store) Status(ctx context.Context) (Status, error) {
	var st Status

	lastErr, err := s.LastError(ctx)
	if err != nil {
		return st, err
	}
	st.LastError = lastErr

	if st.LastSuccessfulUpdate, err = s.getTime(ctx, OptLastSuccessfulUpdate); err != nil {
		return st, err
	}
	if st.ActivatedAt, err = s.getTime(ctx, OptActivatedAt); err != nil {
		return st, err
	}
	return st, nil
}

func (s *Store) getTime(ctx context.Context, name string) (*time.Time, error) {
	var t time.Time
	found, err := s.repo.GetOption(ctx, name, &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}
