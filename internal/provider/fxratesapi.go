package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var _ RatesProvider = (*FxRatesAPIProvider)(nil)

// FxRatesAPIProvider fetches rates from the fxratesapi.com API.
type FxRatesAPIProvider struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

// NewFxRatesAPIProvider creates a new FxRatesAPIProvider.
func NewFxRatesAPIProvider(baseURL string, timeoutSec int, logger *zap.SugaredLogger) *FxRatesAPIProvider {
	if baseURL == "" {
		baseURL = "https://api.fxratesapi.com"
	}
	return &FxRatesAPIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		log:     logger,
	}
}

func (p *FxRatesAPIProvider) latestURL(base string, symbols []string) string {
	q := url.Values{}
	q.Set("base", base)
	if len(symbols) > 0 {
		q.Set("currencies", strings.Join(symbols, ","))
	}
	return p.baseURL + "/latest?" + q.Encode()
}

// FetchRates fetches the latest rates for base.
func (p *FxRatesAPIProvider) FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	return getRates(ctx, p.client, p.latestURL(base, symbols), p.log)
}
