package plan

import "testing"

func TestResolveDayIndex(t *testing.T) {
	cases := []struct {
		name     string
		rec      map[string]any
		fallback int
		want     int
	}{
		{"explicit day number", map[string]any{"day": float64(5)}, 1, 5},
		{"day number as int", map[string]any{"day": 3}, 1, 3},
		{"day_number variant", map[string]any{"day_number": float64(2)}, 1, 2},
		{"day of week field", map[string]any{"day_of_week": float64(6)}, 1, 6},
		{"weekday name", map[string]any{"day": "Wednesday"}, 1, 3},
		{"weekday name lowercase", map[string]any{"day_name": "sunday"}, 1, 7},
		{"three letter prefix", map[string]any{"day": "Tue"}, 1, 2},
		{"name with qualifier", map[string]any{"day": "Friday evening"}, 1, 5},
		{"number beats name", map[string]any{"day_of_week": float64(4), "day_name": "Monday"}, 1, 4},
		{"out of range number falls through", map[string]any{"day": float64(9), "day_name": "Saturday"}, 1, 6},
		{"fractional number falls through", map[string]any{"day": 2.5}, 3, 3},
		{"position fallback", map[string]any{"note": "whatever"}, 4, 4},
		{"fallback clamps high", map[string]any{}, 12, 7},
		{"fallback clamps low", map[string]any{}, 0, 1},
		{"nil record uses fallback", nil, 2, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveDayIndex(tc.rec, tc.fallback); got != tc.want {
				t.Errorf("ResolveDayIndex(%v, %d) = %d, want %d", tc.rec, tc.fallback, got, tc.want)
			}
		})
	}
}

func TestWeekdayName(t *testing.T) {
	if WeekdayName(1) != "Monday" || WeekdayName(7) != "Sunday" {
		t.Errorf("Unexpected canonical week: %q..%q", WeekdayName(1), WeekdayName(7))
	}
	if WeekdayName(0) != "" || WeekdayName(8) != "" {
		t.Error("Out-of-range ordinals should map to empty names")
	}
}
