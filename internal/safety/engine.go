package safety

import (
	"sort"
	"strings"

	"supplement-coach/internal/formula"
)

// Rule tables are maps for readability, but evaluation order must be
// stable, so keyword lists are sorted once at init and iterated instead of
// ranging over the maps.
var (
	highRiskKeys    []string
	interactionKeys []string
	medicationKeys  map[string][]string
)

func init() {
	highRiskKeys = sortedKeys(highRiskIngredients)
	medicationKeys = make(map[string][]string, len(medicationInteractions))
	for kw, rules := range medicationInteractions {
		interactionKeys = append(interactionKeys, kw)
		medicationKeys[kw] = sortedKeys(rules)
	}
	sort.Strings(interactionKeys)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Evaluate checks a canonical ingredient list and the user's medication
// list against the static rule tables. Pure function: no I/O, no failure
// mode, safe for any number of concurrent callers.
//
// The result is deduplicated preserving first-seen order; when non-empty it
// always ends with Disclaimer, exactly once.
func Evaluate(ingredients []formula.Ingredient, medications []string) []string {
	var warnings []string

	// Unconditional high-risk ingredients fire regardless of medications.
	for _, ing := range ingredients {
		name := strings.ToLower(ing.Name)
		for _, kw := range highRiskKeys {
			if strings.Contains(name, kw) {
				warnings = append(warnings, highRiskIngredients[kw])
			}
		}
	}

	// Ingredient x medication interactions. Matching is bidirectional on
	// the medication side: the keyword may sit inside the supplied string
	// ("warfarin 5mg") or the supplied string inside the keyword.
	for _, ing := range ingredients {
		name := strings.ToLower(ing.Name)
		for _, ingKw := range interactionKeys {
			if !strings.Contains(name, ingKw) {
				continue
			}
			rules := medicationInteractions[ingKw]
			for _, med := range medications {
				medLower := strings.ToLower(strings.TrimSpace(med))
				if medLower == "" {
					continue
				}
				for _, medKw := range medicationKeys[ingKw] {
					if strings.Contains(medLower, medKw) || strings.Contains(medKw, medLower) {
						warnings = append(warnings, "INTERACTION: "+rules[medKw])
					}
				}
			}
		}
	}

	// Co-occurring ingredient conflicts fire when two or more members of a
	// documented conflict set are present at once.
	for _, pc := range pairConflicts {
		present := 0
		for _, kw := range pc.keywords {
			for _, ing := range ingredients {
				if strings.Contains(strings.ToLower(ing.Name), kw) {
					present++
					break
				}
			}
		}
		if present >= 2 {
			warnings = append(warnings, pc.warning)
		}
	}

	deduped := dedupe(warnings)
	if len(deduped) > 0 {
		deduped = append(deduped, Disclaimer)
	}
	return deduped
}

// EvaluateNames is a convenience wrapper for callers that only hold raw
// ingredient names (user-typed lists, bot input).
func EvaluateNames(ingredientNames, medications []string) []string {
	ings := make([]formula.Ingredient, 0, len(ingredientNames))
	for _, name := range ingredientNames {
		ings = append(ings, formula.NormalizeIngredient(name))
	}
	return Evaluate(ings, medications)
}

func dedupe(warnings []string) []string {
	seen := make(map[string]struct{}, len(warnings))
	var out []string
	for _, w := range warnings {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
