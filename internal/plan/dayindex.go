package plan

import (
	"math"
	"strings"

	"supplement-coach/internal/aiparse"
)

// Field spellings the models actually emit, checked in order.
var (
	dayNumberKeys   = []string{"day", "day_number", "dayNumber", "day_index"}
	weekdayNumKeys  = []string{"day_of_week", "dayOfWeek", "weekday"}
	weekdayNameKeys = []string{"day", "day_name", "dayName", "weekday", "name"}
)

// ResolveDayIndex maps an arbitrary day record onto a 1-7 ordinal.
//
// Resolution order matters: a single response can mix explicit day numbers,
// day-of-week numbers, and weekday names across records, so explicit fields
// win over names and names win over the record's position in the source
// sequence (the fallback, which is the least reliable signal).
func ResolveDayIndex(rec map[string]any, fallback int) int {
	for _, key := range dayNumberKeys {
		if ord, ok := ordinalNumber(rec[key]); ok {
			return ord
		}
	}
	for _, key := range weekdayNumKeys {
		if ord, ok := ordinalNumber(rec[key]); ok {
			return ord
		}
	}
	for _, key := range weekdayNameKeys {
		if ord := weekdayOrdinal(aiparse.String(rec[key])); ord != 0 {
			return ord
		}
	}
	if fallback < 1 {
		return 1
	}
	if fallback > 7 {
		return 7
	}
	return fallback
}

func ordinalNumber(v any) (int, bool) {
	n, ok := aiparse.Float(v)
	if !ok || n != math.Trunc(n) || n < 1 || n > 7 {
		return 0, false
	}
	return int(n), true
}

// weekdayOrdinal matches a weekday name case-insensitively, accepting
// 3-letter prefixes ("Mon", "tues") and trailing qualifiers
// ("Monday morning"). Returns 0 when nothing matches.
func weekdayOrdinal(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0
	}
	for i, name := range weekdayNames {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, s) || strings.HasPrefix(s, lower[:3]) {
			return i + 1
		}
	}
	return 0
}
