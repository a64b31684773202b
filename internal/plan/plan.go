package plan

import "time"

// Kind selects which weekly plan family a document belongs to.
type Kind string

const (
	KindNutrition Kind = "nutrition"
	KindWorkout   Kind = "workout"
	KindLifestyle Kind = "lifestyle"
)

// weekdayNames is the canonical Monday-first week used for day ordinals.
var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// WeekdayName returns the canonical name for a 1-7 day ordinal.
func WeekdayName(ordinal int) string {
	if ordinal < 1 || ordinal > 7 {
		return ""
	}
	return weekdayNames[ordinal-1]
}

// Meal is a single meal within a nutrition day.
type Meal struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Exercise is a single movement within a workout day.
type Exercise struct {
	Name string `json:"name"`
	Sets string `json:"sets"`
	Reps string `json:"reps"`
}

// Workout is the training payload of a workout day.
type Workout struct {
	Focus     string     `json:"focus"`
	Exercises []Exercise `json:"exercises"`
}

// Routine is the payload of a lifestyle day.
type Routine struct {
	Morning string `json:"morning"`
	Evening string `json:"evening"`
	Habit   string `json:"habit"`
}

// DayRecord is one day of a weekly plan. Day is always 1-7 and DayName is
// always the canonical weekday for that ordinal, whatever the source text
// claimed. Exactly one of the payload sections is populated, matching the
// plan kind.
type DayRecord struct {
	Day     int      `json:"day"`
	DayName string   `json:"day_name"`
	Meals   []Meal   `json:"meals,omitempty"`
	Workout *Workout `json:"workout,omitempty"`
	Routine *Routine `json:"routine,omitempty"`
}

// MacroTargets is the nutrition plan's weekly macro envelope.
type MacroTargets struct {
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	CarbsGrams   float64 `json:"carbs_grams"`
	FatGrams     float64 `json:"fat_grams"`
}

// AutoHealMeta records how much structure had to be synthesized, so a
// degrading model shows up in logs and metrics without failing requests.
type AutoHealMeta struct {
	MissingDays int `json:"missing_days"`
}

// WeeklyPlan is the persisted unit: exactly seven ordered day records plus
// kind-specific metadata. Days[i].Day == i+1 always holds after Normalize.
type WeeklyPlan struct {
	Kind            Kind          `json:"kind"`
	WeekStart       time.Time     `json:"week_start,omitempty"`
	Days            []DayRecord   `json:"days"`
	Macros          *MacroTargets `json:"macros,omitempty"`
	ProgramOverview string        `json:"program_overview,omitempty"`
	SleepProtocol   string        `json:"sleep_protocol,omitempty"`
	StressProtocol  string        `json:"stress_protocol,omitempty"`
	AutoHeal        AutoHealMeta  `json:"auto_heal"`
}

// GetNextMonday returns the Monday strictly after t, at midnight UTC.
func GetNextMonday(t time.Time) time.Time {
	t = t.UTC()
	daysAhead := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	next := t.AddDate(0, 0, daysAhead)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
}
