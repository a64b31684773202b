package plan

import (
	"encoding/json"
	"reflect"
	"testing"
)

func assertWeekShape(t *testing.T, wp *WeeklyPlan) {
	t.Helper()
	if len(wp.Days) != 7 {
		t.Fatalf("Expected exactly 7 days, got %d", len(wp.Days))
	}
	for i, d := range wp.Days {
		if d.Day != i+1 {
			t.Errorf("Days[%d].Day = %d, want %d", i, d.Day, i+1)
		}
		if d.DayName != WeekdayName(i+1) {
			t.Errorf("Days[%d].DayName = %q, want %q", i, d.DayName, WeekdayName(i+1))
		}
	}
}

func TestNormalizeAlwaysSevenDays(t *testing.T) {
	cases := []struct {
		name string
		days []any
	}{
		{"empty input", nil},
		{"single day", []any{map[string]any{"day": float64(3)}}},
		{"more than seven", func() []any {
			var days []any
			for i := 0; i < 10; i++ {
				days = append(days, map[string]any{"note": "extra"})
			}
			return days
		}()},
		{"duplicates", []any{
			map[string]any{"day": float64(2)},
			map[string]any{"day": float64(2)},
			map[string]any{"day": float64(2)},
		}},
		{"garbage entries", []any{"not a day", float64(12), nil}},
	}

	for _, kind := range []Kind{KindNutrition, KindWorkout, KindLifestyle} {
		for _, tc := range cases {
			t.Run(string(kind)+"/"+tc.name, func(t *testing.T) {
				assertWeekShape(t, Normalize(tc.days, kind))
			})
		}
	}
}

func TestNormalizeFirstWriterWins(t *testing.T) {
	days := []any{
		map[string]any{"day": float64(3), "meals": []any{map[string]any{"name": "First"}}},
		map[string]any{"day": float64(3), "meals": []any{map[string]any{"name": "Second"}}},
	}
	wp := Normalize(days, KindNutrition)
	if got := wp.Days[2].Meals[0].Name; got != "First" {
		t.Errorf("Slot 3 should keep the first record, got meal %q", got)
	}
}

func TestNormalizeSingleExplicitDay(t *testing.T) {
	days := []any{map[string]any{
		"day": float64(5),
		"meals": []any{
			map[string]any{"name": "Salmon bowl", "description": "With greens"},
		},
	}}
	wp := Normalize(days, KindNutrition)
	assertWeekShape(t, wp)

	if wp.Days[4].Meals[0].Name != "Salmon bowl" {
		t.Errorf("Day 5 should carry the supplied meal, got %+v", wp.Days[4].Meals)
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6} {
		meals := wp.Days[i].Meals
		if len(meals) != 3 {
			t.Fatalf("Day %d should have 3 placeholder meals, got %d", i+1, len(meals))
		}
		for _, m := range meals {
			if m.Description != PlaceholderMealDescription {
				t.Errorf("Day %d meal %q lacks the placeholder text", i+1, m.Name)
			}
		}
	}
	if wp.AutoHeal.MissingDays != 6 {
		t.Errorf("Expected 6 synthesized days, got %d", wp.AutoHeal.MissingDays)
	}
}

func TestNormalizeMixedNumberingConventions(t *testing.T) {
	days := []any{
		map[string]any{"day": "Sunday"},
		map[string]any{"day_of_week": float64(2)},
		map[string]any{"note": "unlabeled"}, // position 3
	}
	wp := Normalize(days, KindLifestyle)
	assertWeekShape(t, wp)
	if wp.AutoHeal.MissingDays != 4 {
		t.Errorf("Expected 4 synthesized days, got %d", wp.AutoHeal.MissingDays)
	}
}

func TestNormalizeWorkoutDayPayload(t *testing.T) {
	days := []any{map[string]any{
		"day": float64(1),
		"workout": map[string]any{
			"focus": "Upper body",
			"exercises": []any{
				map[string]any{"name": "Push-up", "sets": float64(3), "reps": "12"},
				"Plank",
			},
		},
	}}
	wp := Normalize(days, KindWorkout)
	w := wp.Days[0].Workout
	if w == nil || w.Focus != "Upper body" {
		t.Fatalf("Expected supplied workout focus, got %+v", w)
	}
	if len(w.Exercises) != 2 || w.Exercises[0].Sets != "3" || w.Exercises[1].Name != "Plank" {
		t.Errorf("Unexpected exercises: %+v", w.Exercises)
	}
	if wp.Days[1].Workout.Focus != PlaceholderWorkoutFocus {
		t.Errorf("Missing days should carry the workout placeholder, got %q", wp.Days[1].Workout.Focus)
	}
	if wp.ProgramOverview != DefaultProgramOverview {
		t.Errorf("Expected default program overview, got %q", wp.ProgramOverview)
	}
}

func TestNormalizeLifestyleDefaults(t *testing.T) {
	wp := Normalize(nil, KindLifestyle)
	r := wp.Days[3].Routine
	if r == nil || r.Morning != PlaceholderRoutineText || r.Habit != PlaceholderRoutineText {
		t.Errorf("Expected routine placeholders, got %+v", r)
	}
	if wp.SleepProtocol != DefaultSleepProtocol || wp.StressProtocol != DefaultStressProtocol {
		t.Errorf("Expected default protocols, got %q / %q", wp.SleepProtocol, wp.StressProtocol)
	}
}

func TestNormalizeDocumentEnvelope(t *testing.T) {
	doc := map[string]any{
		"plan": []any{map[string]any{"day": float64(1)}},
		"macros": map[string]any{
			"calories": float64(1800),
			"protein":  float64(140),
		},
	}
	wp := NormalizeDocument(doc, KindNutrition)
	assertWeekShape(t, wp)
	if wp.Macros.Calories != 1800 || wp.Macros.ProteinGrams != 140 {
		t.Errorf("Supplied macros should survive, got %+v", wp.Macros)
	}
	if wp.Macros.CarbsGrams != DefaultMacroTargets().CarbsGrams {
		t.Errorf("Missing macro fields should default, got %+v", wp.Macros)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, kind := range []Kind{KindNutrition, KindWorkout, KindLifestyle} {
		t.Run(string(kind), func(t *testing.T) {
			first := Normalize([]any{
				map[string]any{"day": float64(2), "meals": []any{map[string]any{"name": "Eggs"}}},
			}, kind)

			data, err := json.Marshal(first)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			var roundTrip any
			if err := json.Unmarshal(data, &roundTrip); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}

			second := NormalizeDocument(roundTrip, kind)

			// The heal counter reflects each call's own input, so it is
			// excluded from the fixed-point comparison.
			first.AutoHeal = AutoHealMeta{}
			second.AutoHeal = AutoHealMeta{}
			if !reflect.DeepEqual(first, second) {
				t.Errorf("Normalization is not a fixed point.\nfirst:  %+v\nsecond: %+v", first, second)
			}
		})
	}
}
