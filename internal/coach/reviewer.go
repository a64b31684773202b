package coach

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"supplement-coach/internal/aiparse"
	"supplement-coach/internal/formula"
	"supplement-coach/internal/safety"
	"supplement-coach/internal/shared"
)

//go:embed reviewer_prompt.md
var reviewerPrompt string

// ReviewResult is the outcome of a formula customization review: the next
// formula version, its safety warnings, and the reviewer's notes.
type ReviewResult struct {
	Formula  *formula.Formula
	Warnings []string
	Notes    string
	Meta     shared.AgentMeta
}

type reviewerPromptData struct {
	Feedback    string
	Medications []string
	Ingredients []formula.Ingredient
}

// ReviewCustomization turns free-form user feedback on a formula into a
// concrete add/remove change set, applies it as a new immutable version, and
// re-runs the safety checks.
func (c *Coach) ReviewCustomization(
	ctx context.Context,
	current *formula.Formula,
	feedback string,
	medications []string,
) (ReviewResult, error) {
	start := time.Now()

	prompt, err := buildReviewerPrompt(reviewerPromptData{
		Feedback:    feedback,
		Medications: medications,
		Ingredients: current.Ingredients(),
	})
	if err != nil {
		return ReviewResult{}, err
	}

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("failed to review customization: %w", err)
	}

	meta := newMeta("FormulaReviewer", resp.Usage, resp.Content)

	parsed, err := aiparse.Parse(resp.Content)
	if err != nil {
		return ReviewResult{Meta: meta}, fmt.Errorf("failed to parse reviewer response: %w", err)
	}

	doc := aiparse.Object(parsed)
	added := formula.NormalizeIngredients(aiparse.Array(doc["add"]))
	removed := formula.NormalizeIngredients(aiparse.Array(doc["remove"]))
	notes := aiparse.String(doc["notes"])

	next := current.NextVersion(added, removed)
	warnings := safety.Evaluate(next.Ingredients(), medications)

	meta.Latency = time.Since(start)
	return ReviewResult{
		Formula:  next,
		Warnings: warnings,
		Notes:    notes,
		Meta:     meta,
	}, nil
}

func buildReviewerPrompt(data reviewerPromptData) (string, error) {
	tmpl, err := template.New("reviewer").Funcs(template.FuncMap{
		"json": func(v any) string {
			b, err := json.Marshal(v)
			if err != nil {
				return ""
			}
			return string(b)
		},
	}).Parse(reviewerPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
