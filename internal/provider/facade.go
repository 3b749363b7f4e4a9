package provider

import (
	"context"
	"errors"
	"fmt"
)

var _ RatesProvider = (*ExchangeProviderFacade)(nil)

// ExchangeProviderFacade is an abstraction that calls providers sequentially.
type ExchangeProviderFacade struct {
	providers []RatesProvider
}

// NewExchangeProviderFacade creates a new ExchangeProviderFacade with the given list of providers.
func NewExchangeProviderFacade(providers ...RatesProvider) *ExchangeProviderFacade {
	return &ExchangeProviderFacade{
		providers: providers,
	}
}

// FetchRates calls providers in order until one succeeds.
func (p *ExchangeProviderFacade) FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	var errs []error
	for _, prov := range p.providers {
		rates, err := prov.FetchRates(ctx, base, symbols)
		if err == nil {
			return rates, nil
		}
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}
