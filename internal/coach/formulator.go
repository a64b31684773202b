package coach

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log"
	"text/template"
	"time"

	"supplement-coach/internal/aiparse"
	"supplement-coach/internal/formula"
	"supplement-coach/internal/monograph"
	"supplement-coach/internal/safety"
	"supplement-coach/internal/shared"
)

//go:embed formulator_prompt.md
var formulatorPrompt string

// FormulaRequest describes a formula design request.
type FormulaRequest struct {
	UserID      string
	Goals       string
	Medications []string
}

// FormulaResult bundles a new formula version with its safety warnings, the
// monographs used as context, and agent metadata.
type FormulaResult struct {
	Formula  *formula.Formula
	Warnings []string
	Context  []monograph.Monograph
	Meta     shared.AgentMeta
}

type formulatorPromptData struct {
	Goals       string
	Medications []string
	Monographs  []monograph.Monograph
}

// GenerateFormula designs a personalized supplement formula. Relevant
// monographs are retrieved by embedding similarity and given to the model as
// context; the result is normalized and safety-checked before it is returned.
func (c *Coach) GenerateFormula(ctx context.Context, req FormulaRequest) (FormulaResult, error) {
	start := time.Now()

	retrieved, err := c.retrieveMonographs(ctx, req.Goals)
	if err != nil {
		// Retrieval is best-effort. A missing knowledge base should not
		// block formula generation.
		log.Printf("Warning: monograph retrieval failed: %v", err)
	}

	prompt, err := buildFormulatorPrompt(formulatorPromptData{
		Goals:       req.Goals,
		Medications: req.Medications,
		Monographs:  retrieved,
	})
	if err != nil {
		return FormulaResult{}, err
	}

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return FormulaResult{}, fmt.Errorf("failed to generate formula: %w", err)
	}

	meta := newMeta("Formulator", resp.Usage, resp.Content)

	parsed, err := aiparse.Parse(resp.Content)
	if err != nil {
		return FormulaResult{Meta: meta}, fmt.Errorf("failed to parse formula response: %w", err)
	}

	f := formula.FromDocument(parsed, req.UserID)
	warnings := safety.Evaluate(f.Ingredients(), req.Medications)

	meta.Latency = time.Since(start)
	return FormulaResult{
		Formula:  f,
		Warnings: warnings,
		Context:  retrieved,
		Meta:     meta,
	}, nil
}

func (c *Coach) retrieveMonographs(ctx context.Context, goals string) ([]monograph.Monograph, error) {
	if c.embedGen == nil || c.vectors == nil || c.monographs == nil {
		return nil, nil
	}

	queryEmbedding, err := c.embedGen.GenerateEmbedding(ctx, goals)
	if err != nil {
		return nil, fmt.Errorf("failed to embed goals: %w", err)
	}

	ids, err := c.vectors.FindSimilar(ctx, queryEmbedding, retrievalLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search monographs: %w", err)
	}

	return c.monographs.GetMany(ctx, ids)
}

func buildFormulatorPrompt(data formulatorPromptData) (string, error) {
	tmpl, err := template.New("formulator").Parse(formulatorPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
