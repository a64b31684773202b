package formula

import (
	"regexp"
	"strconv"
	"strings"

	"supplement-coach/internal/aiparse"
)

// Ingredient is the canonical shape every ingredient-like record is coerced
// into before anything downstream sees it.
type Ingredient struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Purpose string  `json:"purpose,omitempty"`
}

// Defaults are conservative on purpose. A "0mg unknown" row is obviously
// wrong and gets flagged by a human or the safety engine; a silently dropped
// row understates the formula's true ingredient count.
const (
	DefaultIngredientName = "unknown"
	DefaultUnit           = "mg"
)

// leading decimal number, optionally followed by a unit token ("300mg",
// "2.5 g", "1000 IU")
var amountPattern = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Zµ]+)?`)

// NormalizeIngredient coerces an arbitrary ingredient-like value into a
// canonical Ingredient. It never fails and never drops a row.
func NormalizeIngredient(raw any) Ingredient {
	ing := Ingredient{Name: DefaultIngredientName, Unit: DefaultUnit}

	obj := aiparse.Object(raw)
	if obj == nil {
		// a bare string is treated as a name-only entry
		if s := strings.TrimSpace(aiparse.String(raw)); s != "" {
			ing.Name = s
		}
		return ing
	}

	for _, key := range []string{"name", "ingredient", "supplement"} {
		if s := strings.TrimSpace(aiparse.String(obj[key])); s != "" {
			ing.Name = s
			break
		}
	}

	var amountRaw any
	for _, key := range []string{"amount", "dose", "dosage", "quantity"} {
		if v, ok := obj[key]; ok && v != nil {
			amountRaw = v
			break
		}
	}
	if n, ok := aiparse.Float(amountRaw); ok {
		ing.Amount = n
	} else if s := aiparse.String(amountRaw); s != "" {
		n, unit := parseAmountString(s)
		ing.Amount = n
		if unit != "" {
			ing.Unit = unit
		}
	}
	if ing.Amount < 0 {
		ing.Amount = 0
	}

	if s := strings.TrimSpace(aiparse.String(obj["unit"])); s != "" {
		ing.Unit = s
	}
	if s := strings.TrimSpace(aiparse.String(obj["purpose"])); s != "" {
		ing.Purpose = s
	}
	return ing
}

// NormalizeIngredients coerces a raw list entry by entry. The result always
// has exactly as many rows as the input.
func NormalizeIngredients(raw []any) []Ingredient {
	out := make([]Ingredient, 0, len(raw))
	for _, item := range raw {
		out = append(out, NormalizeIngredient(item))
	}
	return out
}

// parseAmountString extracts a best-effort leading number and unit token
// from strings like "300mg", "2.5 g" or "300mg-ish". Wholly non-numeric
// strings yield 0.
func parseAmountString(s string) (float64, string) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, ""
	}
	return n, strings.ToLower(m[2])
}
