package view

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RateDecimals is the number of decimals shown for every rate.
const RateDecimals = 4

// FormatRate renders v with four decimals and comma thousands separators,
// rounding half away from zero.
func FormatRate(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(RateDecimals)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	return sign + groupThousands(intPart) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// RateItem is one currency line of a rendered rate list.
type RateItem struct {
	Currency string
	Rate     string // formatted for display
	Raw      string // shortest exact representation
}

// Items returns rates as display items in alphabetical currency order.
func Items(rates map[string]float64) []RateItem {
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	items := make([]RateItem, 0, len(codes))
	for _, code := range codes {
		items = append(items, RateItem{
			Currency: code,
			Rate:     FormatRate(rates[code]),
			Raw:      strconv.FormatFloat(rates[code], 'f', -1, 64),
		})
	}
	return items
}

// TimeFormatter renders timestamps in the configured zone and layout.
type TimeFormatter struct {
	Location *time.Location
	Layout   string
}

// Format renders t. The zero time renders as an empty string.
func (f TimeFormatter) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(f.Layout)
}
