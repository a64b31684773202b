// Package monograph maintains the ingredient knowledge base. Each monograph
// is distilled from a CMS article and feeds retrieval context to the
// formulator agent.
package monograph

import "time"

// Monograph is a structured summary of one supplement ingredient.
type Monograph struct {
	ID              string    `json:"id"`
	Ingredient      string    `json:"ingredient"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	Benefits        []string  `json:"benefits"`
	TypicalDose     string    `json:"typical_dose"`
	Cautions        []string  `json:"cautions"`
	SourceURL       string    `json:"source_url"`
	SourceUpdatedAt string    `json:"source_updated_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToEmbeddingText builds the text embedded for semantic retrieval.
func (m Monograph) ToEmbeddingText() string {
	text := "Ingredient: " + m.Ingredient + "\nSummary: " + m.Summary
	for _, b := range m.Benefits {
		text += "\nBenefit: " + b
	}
	for _, c := range m.Cautions {
		text += "\nCaution: " + c
	}
	return text
}
