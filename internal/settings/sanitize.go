package settings

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate   = validator.New()
	tagPattern = regexp.MustCompile(`<[^>]*>`)
	wsPattern  = regexp.MustCompile(`\s+`)
)

// IsCurrencyCode reports whether code is exactly three ASCII uppercase letters.
func IsCurrencyCode(code string) bool {
	return code == strings.ToUpper(code) && validate.Var(code, "required,len=3,alpha") == nil
}

// SanitizeText strips markup, collapses whitespace and trims.
func SanitizeText(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = wsPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeCurrencyCode uppercases a cleaned code. It reports false when the
// result is not a currency code.
func NormalizeCurrencyCode(s string) (string, bool) {
	code := strings.ToUpper(SanitizeText(s))
	return code, IsCurrencyCode(code)
}

// SanitizeCurrencyCode returns the normalized code, or DefaultBaseCurrency
// when the input is not three letters.
func SanitizeCurrencyCode(s string) string {
	if code, ok := NormalizeCurrencyCode(s); ok {
		return code
	}
	return DefaultBaseCurrency
}

// SanitizeCurrencies parses a comma-separated list. Invalid entries are
// dropped and duplicates removed; an empty result yields FallbackCurrencies.
func SanitizeCurrencies(s string) []string {
	return SanitizeCurrencyList(strings.Split(s, ","))
}

// SanitizeCurrencyList is SanitizeCurrencies for an already split list.
func SanitizeCurrencyList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		code, ok := NormalizeCurrencyCode(item)
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	if len(out) == 0 {
		return FallbackCurrencies()
	}
	return out
}

// SanitizeFrequency maps unknown values to Hourly.
func SanitizeFrequency(s string) Frequency {
	f := Frequency(strings.ToLower(SanitizeText(s)))
	if f.Valid() {
		return f
	}
	return Hourly
}
