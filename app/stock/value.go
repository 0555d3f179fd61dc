package stock

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MissingPlaceholder is rendered for values that did not parse.
const MissingPlaceholder = "—"

// NotANumber returns the sentinel for absent or unparseable values.
func NotANumber() float64 {
	return math.NaN()
}

// IsMissing reports whether v is the not-a-number/not-a-date sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

var magnitudes = map[string]float64{
	"K": 1e3,
	"M": 1e6,
	"B": 1e9,
	"T": 1e12,
}

var scaledNumberRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*([KkMmBbTt])?`)

// ParseScaledNumber parses text like "$1,234.5M", "2.3B" or "500" into a
// number. Currency symbols and thousands separators are stripped, a leading
// comparison operator is consumed as syntax noise, and a trailing K/M/B/T
// suffix scales by the matching power of ten. Returns the NaN sentinel when
// no numeric token is found.
func ParseScaledNumber(text string) float64 {
	s := strings.TrimSpace(text)
	for _, op := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(s, op) {
			s = strings.TrimSpace(strings.TrimPrefix(s, op))
			break
		}
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")

	m := scaledNumberRe.FindStringSubmatch(s)
	if m == nil {
		return NotANumber()
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return NotANumber()
	}

	if m[2] != "" {
		n *= magnitudes[strings.ToUpper(m[2])]
	}

	return n
}

// FormatScaledNumber renders a number with the largest fitting K/M/B/T unit,
// two decimals with trailing zeros stripped. Values below 1000 render plain.
// Display-only; not required to round-trip with ParseScaledNumber.
func FormatScaledNumber(v float64) string {
	if IsMissing(v) {
		return ""
	}

	abs := math.Abs(v)
	for _, unit := range []struct {
		suffix string
		div    float64
	}{
		{"T", 1e12},
		{"B", 1e9},
		{"M", 1e6},
		{"K", 1e3},
	} {
		if abs >= unit.div {
			s := strconv.FormatFloat(v/unit.div, 'f', 2, 64)
			s = strings.TrimRight(s, "0")
			s = strings.TrimRight(s, ".")
			return s + unit.suffix
		}
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseDate parses a calendar date into epoch milliseconds, returning the NaN
// sentinel for empty or unparseable text.
func ParseDate(text string) float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return NotANumber()
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return NotANumber()
	}

	return float64(t.UnixMilli())
}

// FormatDate renders epoch milliseconds as YYYY-MM-DD; the NaN sentinel
// renders as the missing-value placeholder.
func FormatDate(v float64) string {
	if IsMissing(v) {
		return MissingPlaceholder
	}

	return time.UnixMilli(int64(v)).UTC().Format("2006-01-02")
}
