// Package service implements rate storage with a read-through cache and the
// acquisition pipeline that feeds it.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/ratecache"
	"github.com/alekspanteli/exchange-rate-hub/internal/repository"
)

// FormattedRates is the display projection of a snapshot.
type FormattedRates struct {
	Base        string             `json:"base"`
	Rates       map[string]float64 `json:"rates"`
	LastUpdated time.Time          `json:"last_updated"`
	Timestamp   int64              `json:"timestamp"`
}

// RateStore persists snapshots and history and serves reads through the cache.
type RateStore struct {
	repo  repository.RateRepository
	cache *ratecache.Cache
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewRateStore creates a RateStore. cache may be nil.
func NewRateStore(repo repository.RateRepository, cache *ratecache.Cache, logger *zap.SugaredLogger) *RateStore {
	return &RateStore{
		repo:  repo,
		cache: cache,
		log:   logger,
		now:   time.Now,
	}
}

// SaveLatest upserts the snapshot for base and evicts both of its cache entries.
func (s *RateStore) SaveLatest(ctx context.Context, base string, rates map[string]float64) error {
	if err := s.repo.UpsertLatest(ctx, base, rates, s.now().UTC()); err != nil {
		s.log.Errorw("Snapshot write failed", "base", base, "error", err)
		return fmt.Errorf("%w: snapshot %s", ErrStorageWrite, base)
	}
	if err := s.cache.Invalidate(ctx, base); err != nil {
		s.log.Warnw("Snapshot saved but cache not evicted, stale rates served until expiry",
			"base", base, "error", err)
	}
	return nil
}

// SaveHistory appends a history entry for base.
func (s *RateStore) SaveHistory(ctx context.Context, base string, rates map[string]float64) error {
	if err := s.repo.InsertHistory(ctx, base, rates, s.now().UTC()); err != nil {
		s.log.Errorw("History write failed", "base", base, "error", err)
		return fmt.Errorf("%w: history %s", ErrStorageWrite, base)
	}
	return nil
}

// GetLatest returns the snapshot for base, reading through the cache.
func (s *RateStore) GetLatest(ctx context.Context, base string) (*repository.RateSnapshot, error) {
	var cached repository.RateSnapshot
	if s.cache.Get(ctx, ratecache.RatesKey(base), &cached) {
		return &cached, nil
	}

	gen := s.cache.Generation(ctx, base)
	snap, err := s.repo.GetLatest(ctx, base)
	if err != nil {
		s.log.Errorw("DB error fetching snapshot", "base", base, "error", err)
		return nil, ErrInternal
	}
	if snap == nil {
		return nil, ErrNotFound
	}

	_ = s.cache.SetIfGeneration(ctx, base, gen, ratecache.RatesKey(base), snap)
	return snap, nil
}

// GetFormatted returns the display projection for base. It is cached under
// its own key.
func (s *RateStore) GetFormatted(ctx context.Context, base string) (*FormattedRates, error) {
	var cached FormattedRates
	if s.cache.Get(ctx, ratecache.FormattedKey(base), &cached) {
		return &cached, nil
	}

	gen := s.cache.Generation(ctx, base)
	snap, err := s.GetLatest(ctx, base)
	if err != nil {
		return nil, err
	}
	if len(snap.Rates) == 0 {
		return nil, ErrNotFound
	}

	formatted := &FormattedRates{
		Base:        base,
		Rates:       snap.Rates,
		LastUpdated: snap.LastUpdated.UTC(),
		Timestamp:   snap.LastUpdated.Unix(),
	}
	_ = s.cache.SetIfGeneration(ctx, base, gen, ratecache.FormattedKey(base), formatted)
	return formatted, nil
}

// ClearAllCaches evicts the cache entries of every stored base currency and
// returns how many bases were cleared.
func (s *RateStore) ClearAllCaches(ctx context.Context) (int, error) {
	bases, err := s.repo.DistinctBases(ctx)
	if err != nil {
		s.log.Errorw("DB error listing base currencies", "error", err)
		return 0, ErrInternal
	}

	var errs []error
	for _, base := range bases {
		if err := s.cache.Invalidate(ctx, base); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return len(bases) - len(errs), fmt.Errorf("clear caches: %w", err)
	}
	s.log.Infow("Rate caches cleared", "bases", bases)
	return len(bases), nil
}

// History returns up to limit history entries for base, newest first.
func (s *RateStore) History(ctx context.Context, base string, limit int) ([]repository.RateHistoryEntry, error) {
	entries, err := s.repo.ListHistory(ctx, base, limit)
	if err != nil {
		s.log.Errorw("DB error listing history", "base", base, "error", err)
		return nil, ErrInternal
	}
	return entries, nil
}

// PruneHistory deletes history entries older than retention.
func (s *RateStore) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	n, err := s.repo.PruneHistory(ctx, cutoff)
	if err != nil {
		s.log.Errorw("History prune failed", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return n, nil
}
