package monograph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"supplement-coach/internal/aiparse"
	"supplement-coach/internal/cms"
	"supplement-coach/internal/llm"
	"supplement-coach/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

// ExtractorResult bundles an extracted monograph with agent metadata.
type ExtractorResult struct {
	Monograph Monograph
	Meta      shared.AgentMeta
}

// ExtractFromArticle turns an ingredient article into a structured monograph
// using the LLM, then attaches the source metadata.
func ExtractFromArticle(
	ctx context.Context,
	textGen llm.TextGenerator,
	article cms.Article,
) (ExtractorResult, error) {
	start := time.Now()

	prompt, err := buildExtractorPrompt(article)
	if err != nil {
		return ExtractorResult{}, err
	}

	resp, err := textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ExtractorResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: "MonographExtractor",
		Usage:     resp.Usage,
		Repaired:  !json.Valid([]byte(resp.Content)),
	}

	parsed, err := aiparse.Parse(resp.Content)
	if err != nil {
		return ExtractorResult{Meta: meta}, fmt.Errorf("failed to parse monograph response: %w", err)
	}

	var m Monograph
	buf, err := json.Marshal(parsed)
	if err != nil {
		return ExtractorResult{Meta: meta}, fmt.Errorf("failed to re-encode parsed monograph: %w", err)
	}
	if err := json.Unmarshal(buf, &m); err != nil {
		return ExtractorResult{Meta: meta}, fmt.Errorf("failed to decode monograph fields: %w", err)
	}

	m.ID = "mono-" + article.ID
	m.Title = article.Title
	m.SourceURL = article.URL
	m.SourceUpdatedAt = article.UpdatedAt
	if m.Ingredient == "" {
		m.Ingredient = article.Title
	}

	meta.Latency = time.Since(start)
	return ExtractorResult{Monograph: m, Meta: meta}, nil
}

func buildExtractorPrompt(article cms.Article) (string, error) {
	tmpl, err := template.New("monograph-extractor").Parse(extractorPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, article); err != nil {
		return "", err
	}

	return buf.String(), nil
}
