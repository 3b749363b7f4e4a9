package view

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alekspanteli/exchange-rate-hub/internal/settings"
)

// ShortcodeTag is the token expanded in page content.
const ShortcodeTag = "exchange_rates"

// Shortcode attribute defaults.
const (
	DefaultColumns = 2
	MinColumns     = 1
	MaxColumns     = 4
)

var (
	shortcodePattern = regexp.MustCompile(`\[` + ShortcodeTag + `(\s[^\]]*)?\]`)
	attrPattern      = regexp.MustCompile(`([\w-]+)\s*=\s*"([^"]*)"|([\w-]+)\s*=\s*'([^']*)'|([\w-]+)\s*=\s*([^\s'"]+)`)
	intPrefix        = regexp.MustCompile(`^\s*[+-]?\d+`)
)

// ShortcodeAttrs are the resolved attributes of one shortcode.
type ShortcodeAttrs struct {
	Base     string
	ShowBase bool
	Columns  int
}

// ResolveShortcodeAttrs applies defaults and normalization to raw
// attributes. defaultBase is used when base is not given. A base that is
// not a currency code is kept uppercased and finds no rates.
func ResolveShortcodeAttrs(raw map[string]string, defaultBase string) ShortcodeAttrs {
	attrs := ShortcodeAttrs{Base: defaultBase, ShowBase: true, Columns: DefaultColumns}

	if v, ok := raw["base"]; ok {
		attrs.Base, _ = settings.NormalizeCurrencyCode(v)
	}
	if v, ok := raw["show_base"]; ok {
		attrs.ShowBase = ParseBool(v)
	}
	if v, ok := raw["columns"]; ok {
		attrs.Columns = ClampColumns(v)
	}
	return attrs
}

// ParseBool accepts "1", "true", "on" and "yes" (any case) as true and
// everything else as false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// ClampColumns reads the leading integer of s, takes its absolute value and
// clamps it to MinColumns..MaxColumns. Input without a leading integer
// reads as 0.
func ClampColumns(s string) int {
	n := 0
	if m := intPrefix.FindString(s); m != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(m)); err == nil {
			n = v
		} else {
			n = MaxColumns
		}
	}
	if n < 0 {
		n = -n
	}
	return max(MinColumns, min(MaxColumns, n))
}

// ParseShortcodeAttrs parses name=value pairs. Names are lowercased; values
// may be double-quoted, single-quoted or bare.
func ParseShortcodeAttrs(s string) map[string]string {
	attrs := map[string]string{}
	for _, m := range attrPattern.FindAllStringSubmatch(s, -1) {
		switch {
		case m[1] != "":
			attrs[strings.ToLower(m[1])] = m[2]
		case m[3] != "":
			attrs[strings.ToLower(m[3])] = m[4]
		case m[5] != "":
			attrs[strings.ToLower(m[5])] = m[6]
		}
	}
	return attrs
}

// ExpandShortcodes replaces every shortcode token in content with the
// output of render.
func ExpandShortcodes(content string, render func(attrs map[string]string) string) string {
	return shortcodePattern.ReplaceAllStringFunc(content, func(tok string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(tok, "["+ShortcodeTag), "]")
		return render(ParseShortcodeAttrs(inner))
	})
}
