package formula

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"supplement-coach/internal/aiparse"
)

// Formula is one immutable version of a supplement formula. Edits never
// mutate an existing version; they append a new one to the chain keyed by
// the shared ID.
type Formula struct {
	ID             string          `json:"id"`
	VersionID      string          `json:"version_id"`
	Version        int             `json:"version"`
	UserID         string          `json:"user_id,omitempty"`
	Base           []Ingredient    `json:"base"`
	Additions      []Ingredient    `json:"additions"`
	TotalDoseGrams float64         `json:"total_dose_grams"`
	Customizations *Customizations `json:"customizations,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Customizations are user edits layered on top of the generated formula.
type Customizations struct {
	Added   []Ingredient `json:"added"`
	Removed []Ingredient `json:"removed"`
}

// FromDocument builds version 1 of a formula from a parsed model response.
// Total function: whatever shape the response has, the result is a complete,
// canonical document.
func FromDocument(v any, userID string) *Formula {
	doc := aiparse.Object(v)

	f := &Formula{
		ID:        uuid.NewString(),
		VersionID: uuid.NewString(),
		Version:   1,
		UserID:    userID,
		Base:      []Ingredient{},
		Additions: []Ingredient{},
		CreatedAt: time.Now().UTC(),
	}
	if doc == nil {
		return f
	}

	for _, key := range []string{"base", "base_ingredients", "ingredients"} {
		if arr := aiparse.Array(doc[key]); arr != nil {
			f.Base = NormalizeIngredients(arr)
			break
		}
	}
	for _, key := range []string{"additions", "add_ons", "boosters"} {
		if arr := aiparse.Array(doc[key]); arr != nil {
			f.Additions = NormalizeIngredients(arr)
			break
		}
	}

	for _, key := range []string{"total_dose_grams", "total_dose"} {
		if n, ok := aiparse.Float(doc[key]); ok && n > 0 {
			f.TotalDoseGrams = n
			break
		}
	}
	if f.TotalDoseGrams == 0 {
		f.TotalDoseGrams = f.computeTotalDoseGrams()
	}
	return f
}

// NextVersion appends a new version to the chain: same formula ID, fresh
// version ID, bumped version number, customizations merged with the new
// user edits. The receiver is never modified.
func (f *Formula) NextVersion(added, removed []Ingredient) *Formula {
	next := &Formula{
		ID:             f.ID,
		VersionID:      uuid.NewString(),
		Version:        f.Version + 1,
		UserID:         f.UserID,
		Base:           append([]Ingredient(nil), f.Base...),
		Additions:      append([]Ingredient(nil), f.Additions...),
		TotalDoseGrams: f.TotalDoseGrams,
		CreatedAt:      time.Now().UTC(),
	}

	custom := &Customizations{Added: []Ingredient{}, Removed: []Ingredient{}}
	if f.Customizations != nil {
		custom.Added = append(custom.Added, f.Customizations.Added...)
		custom.Removed = append(custom.Removed, f.Customizations.Removed...)
	}
	custom.Added = append(custom.Added, added...)
	custom.Removed = append(custom.Removed, removed...)
	next.Customizations = custom
	next.TotalDoseGrams = next.computeTotalDoseGrams()
	return next
}

// Ingredients returns the effective ingredient list for this version: base
// plus additions plus customized additions, minus customized removals
// (matched case-insensitively by name).
func (f *Formula) Ingredients() []Ingredient {
	var all []Ingredient
	all = append(all, f.Base...)
	all = append(all, f.Additions...)

	removed := map[string]struct{}{}
	if f.Customizations != nil {
		all = append(all, f.Customizations.Added...)
		for _, r := range f.Customizations.Removed {
			removed[strings.ToLower(r.Name)] = struct{}{}
		}
	}
	if len(removed) == 0 {
		return all
	}

	kept := all[:0]
	for _, ing := range all {
		if _, gone := removed[strings.ToLower(ing.Name)]; !gone {
			kept = append(kept, ing)
		}
	}
	return kept
}

// computeTotalDoseGrams sums the effective ingredient amounts in grams.
// Unknown units contribute nothing rather than guessing a conversion.
func (f *Formula) computeTotalDoseGrams() float64 {
	var grams float64
	for _, ing := range f.Ingredients() {
		switch strings.ToLower(ing.Unit) {
		case "g", "gram", "grams":
			grams += ing.Amount
		case "mg":
			grams += ing.Amount / 1000
		case "mcg", "ug", "µg":
			grams += ing.Amount / 1_000_000
		}
	}
	return grams
}
