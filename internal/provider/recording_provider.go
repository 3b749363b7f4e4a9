package provider

import (
	"context"

	"go.uber.org/zap"
)

// ErrorRecorder stores the most recent fetch failure where operators can see it.
type ErrorRecorder interface {
	RecordFetchError(ctx context.Context, err error)
}

var _ RatesProvider = (*RecordingProvider)(nil)

// RecordingProvider wraps a RatesProvider and reports every failure to an
// ErrorRecorder. It never retries.
type RecordingProvider struct {
	provider RatesProvider
	recorder ErrorRecorder
	log      *zap.SugaredLogger
}

// NewRecordingProvider creates a new RecordingProvider.
func NewRecordingProvider(provider RatesProvider, recorder ErrorRecorder, logger *zap.SugaredLogger) *RecordingProvider {
	return &RecordingProvider{
		provider: provider,
		recorder: recorder,
		log:      logger,
	}
}

// FetchRates delegates to the wrapped provider.
func (p *RecordingProvider) FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	rates, err := p.provider.FetchRates(ctx, base, symbols)
	if err != nil {
		p.log.Errorw("Rate fetch failed", "base", base, "symbols", symbols, "error", err)
		if p.recorder != nil {
			p.recorder.RecordFetchError(ctx, err)
		}
		return nil, err
	}
	return rates, nil
}
