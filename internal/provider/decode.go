package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const userAgent = "Exchange Rate Hub/1.0"

const (
	msgNoRates      = "No rates found in API response"
	msgNoValidRates = "No valid rates after validation"
)

// getRates performs the GET request and decodes a {"rates": {...}} body.
func getRates(ctx context.Context, client *http.Client, reqURL string, log *zap.SugaredLogger) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, statusError(resp.StatusCode)
	}

	return decodeRates(resp.Body, log)
}

// decodeRates extracts the rates object. Entries that are not positive
// numbers (JSON numbers or numeric strings) are dropped.
func decodeRates(body io.Reader, log *zap.SugaredLogger) (map[string]float64, error) {
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, parseError(err)
	}

	raw, ok := payload["rates"]
	if !ok {
		return nil, schemaError(msgNoRates)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return nil, schemaError(msgNoRates)
	}

	rates := make(map[string]float64, len(entries))
	for code, v := range entries {
		rate, ok := parseRate(v)
		if !ok {
			log.Warnw("Invalid rate value dropped", "currency", code, "value", string(v))
			continue
		}
		rates[code] = rate
	}

	if len(rates) == 0 {
		return nil, schemaError(msgNoValidRates)
	}
	return rates, nil
}

func parseRate(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
	}

	d, err := decimal.NewFromString(text)
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || f == 0 {
		return 0, false
	}
	return f, true
}
