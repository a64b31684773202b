package plan

import (
	"strconv"
	"strings"

	"supplement-coach/internal/aiparse"
)

// Placeholder content substituted for anything the model failed to produce.
// Placeholders are explicit and stable: renormalizing an already-normalized
// plan yields the identical document.
const (
	PlaceholderMealDescription = "Not provided by the generated plan. Regenerate this day to fill it in."
	PlaceholderExerciseName    = "Unspecified exercise"
	PlaceholderWorkoutFocus    = "Rest day (no workout provided)"
	PlaceholderRoutineText     = "No protocol provided for this day."

	DefaultProgramOverview = "General weekly training program."
	DefaultSleepProtocol   = "Aim for 7-9 hours of sleep on a consistent schedule."
	DefaultStressProtocol  = "Take 10 minutes of deliberate downtime each day."
)

// DefaultMacroTargets is the fallback macro envelope for nutrition plans
// whose metadata the model dropped.
func DefaultMacroTargets() *MacroTargets {
	return &MacroTargets{Calories: 2000, ProteinGrams: 120, CarbsGrams: 220, FatGrams: 70}
}

// dayNormalizer turns one raw day record (nil when the model skipped the
// day entirely) into a complete DayRecord for the given ordinal.
type dayNormalizer func(raw map[string]any, ordinal int) DayRecord

// NormalizeDocument normalizes a whole parsed model response: it locates
// the day list inside the envelope (or treats the value itself as the
// list), then delegates to Normalize semantics including kind metadata
// pulled from the envelope.
func NormalizeDocument(v any, kind Kind) *WeeklyPlan {
	doc := aiparse.Object(v)
	days := aiparse.Array(v)
	if doc != nil {
		for _, key := range []string{"days", "plan", "week", "schedule"} {
			if arr := aiparse.Array(doc[key]); arr != nil {
				days = arr
				break
			}
		}
	}
	return normalize(days, kind, doc)
}

// Normalize consumes raw day records and produces a schema-complete weekly
// plan: exactly seven days, ordinals 1-7 in order, every missing field
// defaulted. It never fails; the worst possible input yields a week of
// placeholders.
func Normalize(days []any, kind Kind) *WeeklyPlan {
	return normalize(days, kind, nil)
}

func normalize(days []any, kind Kind, meta map[string]any) *WeeklyPlan {
	records, missing := buildWeek(days, dayNormalizerFor(kind))

	wp := &WeeklyPlan{
		Kind:     kind,
		Days:     records,
		AutoHeal: AutoHealMeta{MissingDays: missing},
	}

	switch kind {
	case KindNutrition:
		wp.Macros = normalizeMacros(meta)
	case KindWorkout:
		wp.ProgramOverview = stringOr(metaLookup(meta, "program_overview", "overview", "program"), DefaultProgramOverview)
	case KindLifestyle:
		wp.SleepProtocol = stringOr(metaLookup(meta, "sleep_protocol", "sleep"), DefaultSleepProtocol)
		wp.StressProtocol = stringOr(metaLookup(meta, "stress_protocol", "stress"), DefaultStressProtocol)
	}
	return wp
}

// buildWeek claims a 7-slot bucket. First writer for an ordinal wins; later
// duplicates are dropped silently. Unclaimed slots come back as synthesized
// placeholder days and are counted for AutoHealMeta.
func buildWeek(days []any, norm dayNormalizer) ([]DayRecord, int) {
	var slots [7]map[string]any
	for pos, raw := range days {
		rec := aiparse.Object(raw)
		if rec == nil {
			continue
		}
		idx := ResolveDayIndex(rec, pos+1)
		if slots[idx-1] == nil {
			slots[idx-1] = rec
		}
	}

	out := make([]DayRecord, 7)
	missing := 0
	for i := range out {
		if slots[i] == nil {
			missing++
		}
		out[i] = norm(slots[i], i+1)
	}
	return out, missing
}

func dayNormalizerFor(kind Kind) dayNormalizer {
	switch kind {
	case KindWorkout:
		return normalizeWorkoutDay
	case KindLifestyle:
		return normalizeLifestyleDay
	default:
		return normalizeNutritionDay
	}
}

func normalizeNutritionDay(raw map[string]any, ordinal int) DayRecord {
	day := DayRecord{Day: ordinal, DayName: WeekdayName(ordinal)}

	var meals []Meal
	for _, item := range aiparse.Array(raw["meals"]) {
		switch m := item.(type) {
		case string:
			if name := strings.TrimSpace(m); name != "" {
				meals = append(meals, Meal{Name: name})
			}
		case map[string]any:
			meal := Meal{
				Name:        strings.TrimSpace(aiparse.String(m["name"])),
				Description: aiparse.String(m["description"]),
			}
			if meal.Name == "" {
				meal.Name = strings.TrimSpace(aiparse.String(m["meal"]))
			}
			if meal.Name == "" && meal.Description == "" {
				continue
			}
			if meal.Name == "" {
				meal.Name = "Meal"
			}
			meals = append(meals, meal)
		}
	}
	if len(meals) == 0 {
		meals = []Meal{
			{Name: "Breakfast", Description: PlaceholderMealDescription},
			{Name: "Lunch", Description: PlaceholderMealDescription},
			{Name: "Dinner", Description: PlaceholderMealDescription},
		}
	}
	day.Meals = meals
	return day
}

func normalizeWorkoutDay(raw map[string]any, ordinal int) DayRecord {
	day := DayRecord{Day: ordinal, DayName: WeekdayName(ordinal)}

	src := aiparse.Object(raw["workout"])
	if src == nil {
		src = raw
	}

	w := &Workout{
		Focus:     stringOr(src["focus"], PlaceholderWorkoutFocus),
		Exercises: []Exercise{},
	}
	for _, item := range aiparse.Array(src["exercises"]) {
		switch e := item.(type) {
		case string:
			if name := strings.TrimSpace(e); name != "" {
				w.Exercises = append(w.Exercises, Exercise{Name: name})
			}
		case map[string]any:
			w.Exercises = append(w.Exercises, Exercise{
				Name: stringOr(e["name"], PlaceholderExerciseName),
				Sets: flexibleString(e["sets"]),
				Reps: flexibleString(e["reps"]),
			})
		}
	}
	day.Workout = w
	return day
}

func normalizeLifestyleDay(raw map[string]any, ordinal int) DayRecord {
	day := DayRecord{Day: ordinal, DayName: WeekdayName(ordinal)}

	src := aiparse.Object(raw["routine"])
	if src == nil {
		src = aiparse.Object(raw["protocol"])
	}
	if src == nil {
		src = raw
	}

	day.Routine = &Routine{
		Morning: stringOr(src["morning"], PlaceholderRoutineText),
		Evening: stringOr(src["evening"], PlaceholderRoutineText),
		Habit:   stringOr(src["habit"], PlaceholderRoutineText),
	}
	return day
}

func normalizeMacros(meta map[string]any) *MacroTargets {
	src := aiparse.Object(meta["macros"])
	if src == nil {
		src = aiparse.Object(meta["macro_targets"])
	}
	targets := DefaultMacroTargets()
	if src == nil {
		return targets
	}
	if n, ok := aiparse.Float(metaLookup(src, "calories", "kcal")); ok {
		targets.Calories = n
	}
	if n, ok := aiparse.Float(metaLookup(src, "protein_grams", "protein")); ok {
		targets.ProteinGrams = n
	}
	if n, ok := aiparse.Float(metaLookup(src, "carbs_grams", "carbs")); ok {
		targets.CarbsGrams = n
	}
	if n, ok := aiparse.Float(metaLookup(src, "fat_grams", "fat")); ok {
		targets.FatGrams = n
	}
	return targets
}

func metaLookup(meta map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := meta[key]; ok {
			return v
		}
	}
	return nil
}

func stringOr(v any, fallback string) string {
	if s := strings.TrimSpace(aiparse.String(v)); s != "" {
		return s
	}
	return fallback
}

// flexibleString keeps "3" and 3 equivalent: models flip-flop between
// numeric and string reps for sets and reps.
func flexibleString(v any) string {
	if s := strings.TrimSpace(aiparse.String(v)); s != "" {
		return s
	}
	if n, ok := aiparse.Float(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}
