package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.92, "0.9200"},
		{149.5, "149.5000"},
		{1234.56789, "1,234.5679"},
		{1234567.1, "1,234,567.1000"},
		{0.00005, "0.0001"},
		{0.00004, "0.0000"},
		{100, "100.0000"},
		{-1234.5, "-1,234.5000"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatRate(tc.in), "FormatRate(%v)", tc.in)
	}
}

func TestItems_SortedAlphabetically(t *testing.T) {
	items := Items(map[string]float64{"JPY": 149.5, "EUR": 0.92, "GBP": 0.79})

	var codes []string
	for _, it := range items {
		codes = append(codes, it.Currency)
	}
	assert.Equal(t, []string{"EUR", "GBP", "JPY"}, codes)
	assert.Equal(t, "0.9200", items[0].Rate)
	assert.Equal(t, "0.92", items[0].Raw)
}

func TestTimeFormatter(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	f := TimeFormatter{Location: loc, Layout: "January 2, 2006 3:04 pm"}

	ts := time.Date(2026, 3, 4, 13, 5, 0, 0, time.UTC)
	assert.Equal(t, "March 4, 2026 3:05 pm", f.Format(ts))
	assert.Empty(t, f.Format(time.Time{}))
	assert.Equal(t, "March 4, 2026 1:05 pm", TimeFormatter{Layout: f.Layout}.Format(ts))
}
