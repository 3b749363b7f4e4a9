package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var _ RatesProvider = (*FrankfurterProvider)(nil)

// FrankfurterProvider fetches rates from the Frankfurter API.
type FrankfurterProvider struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

// NewFrankfurterProvider creates a new FrankfurterProvider.
func NewFrankfurterProvider(baseURL string, timeoutSec int, logger *zap.SugaredLogger) *FrankfurterProvider {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.dev/v1"
	}
	return &FrankfurterProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		log:     logger,
	}
}

// FetchRates fetches the latest rates for base. Frankfurter names the target
// list "symbols" and omits the base currency from the result.
func (p *FrankfurterProvider) FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	q := url.Values{}
	q.Set("base", base)
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}
	return getRates(ctx, p.client, p.baseURL+"/latest?"+q.Encode(), p.log)
}
