// Package provider implements external rate providers for fetching currency exchange rates.
package provider

import (
	"context"
)

// RatesProvider fetches the latest rates for base, restricted to symbols when
// symbols is non-empty. A successful result is never empty.
type RatesProvider interface {
	FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error)
}
