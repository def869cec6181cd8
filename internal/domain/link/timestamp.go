package link

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxOffsetSeconds bounds media offsets; larger values are treated as garbage.
const MaxOffsetSeconds = 7 * 24 * 3600

// ParseTimestamp converts a media offset to seconds. Numbers pass through unchanged;
// strings may be plain seconds, "MM:SS" or "HH:MM:SS". Negative, non-finite and
// out-of-range values are rejected, as are minutes or seconds of 60 or more after the
// leading component.
func ParseTimestamp(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, validOffset(t)
	case int:
		return float64(t), validOffset(float64(t))
	case int64:
		return float64(t), validOffset(float64(t))
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && validOffset(f)
	case string:
		return parseClock(strings.TrimSpace(t))
	default:
		return 0, false
	}
}

func validOffset(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0 && f <= MaxOffsetSeconds
}

func parseClock(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, validOffset(f)
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var total float64
	for i, p := range parts {
		var (
			n   float64
			err error
		)
		if i == len(parts)-1 {
			n, err = strconv.ParseFloat(p, 64)
		} else {
			var whole int
			whole, err = strconv.Atoi(p)
			n = float64(whole)
		}
		if err != nil || n < 0 || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		if i > 0 && n >= 60 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, validOffset(total)
}

// FormatDuration renders seconds as "M:SS", or "H:MM:SS" from one hour up.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
