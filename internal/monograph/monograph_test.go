package monograph

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"supplement-coach/internal/cms"
	"supplement-coach/internal/llm"
	"supplement-coach/internal/shared"

	_ "modernc.org/sqlite"
)

const monographsSchema = `
CREATE TABLE monographs (
	id         TEXT PRIMARY KEY,
	ingredient TEXT NOT NULL,
	title      TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	document   TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

type mockTextGenerator struct {
	Response    string
	ShouldError bool
	LastPrompt  string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.LastPrompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{
		Content: m.Response,
		Usage:   shared.TokenUsage{PromptTokens: 10, CompletionTokens: 20, Model: "mock"},
	}, nil
}

func TestExtractFromArticle(t *testing.T) {
	gen := &mockTextGenerator{Response: `{
		"ingredient": "ashwagandha",
		"summary": "An adaptogenic herb studied for stress reduction.",
		"benefits": ["lower cortisol", "better sleep"],
		"typical_dose": "300-600 mg daily",
		"cautions": ["may increase thyroid hormone levels"]
	}`}

	article := cms.Article{
		ID:        "42",
		Title:     "Ashwagandha (Withania somnifera)",
		HTML:      "<p>Ashwagandha is an adaptogen...</p>",
		URL:       "https://cms.test/ashwagandha",
		UpdatedAt: "2025-11-01T09:00:00Z",
	}

	result, err := ExtractFromArticle(context.Background(), gen, article)
	if err != nil {
		t.Fatalf("ExtractFromArticle failed: %v", err)
	}

	m := result.Monograph
	if m.ID != "mono-42" {
		t.Errorf("Expected ID mono-42, got %s", m.ID)
	}
	if m.Ingredient != "ashwagandha" {
		t.Errorf("Expected ingredient ashwagandha, got %s", m.Ingredient)
	}
	if len(m.Benefits) != 2 || len(m.Cautions) != 1 {
		t.Errorf("Unexpected benefits/cautions: %+v", m)
	}
	if m.SourceURL != article.URL {
		t.Errorf("Expected source URL carried over, got %s", m.SourceURL)
	}
	if result.Meta.Repaired {
		t.Error("Valid JSON should not be flagged as repaired")
	}
	if !strings.Contains(gen.LastPrompt, article.Title) {
		t.Error("Expected the prompt to include the article title")
	}
}

func TestExtractFromArticleRepairsFencedOutput(t *testing.T) {
	gen := &mockTextGenerator{Response: "```json\n{\"ingredient\": \"kava\", \"summary\": \"A calming root.\",}\n```"}

	result, err := ExtractFromArticle(context.Background(), gen, cms.Article{ID: "7", Title: "Kava"})
	if err != nil {
		t.Fatalf("ExtractFromArticle failed on fenced output: %v", err)
	}
	if result.Monograph.Ingredient != "kava" {
		t.Errorf("Expected kava, got %s", result.Monograph.Ingredient)
	}
	if !result.Meta.Repaired {
		t.Error("Fenced output should be flagged as repaired")
	}
}

func TestExtractFromArticleFallsBackToTitle(t *testing.T) {
	gen := &mockTextGenerator{Response: `{"summary": "No name given."}`}

	result, err := ExtractFromArticle(context.Background(), gen, cms.Article{ID: "9", Title: "Valerian Root"})
	if err != nil {
		t.Fatalf("ExtractFromArticle failed: %v", err)
	}
	if result.Monograph.Ingredient != "Valerian Root" {
		t.Errorf("Expected title fallback, got %s", result.Monograph.Ingredient)
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "monographs.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(monographsSchema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	repo := NewRepository(db)

	m := Monograph{
		ID:          "mono-1",
		Ingredient:  "Magnesium Glycinate",
		Title:       "Magnesium Glycinate",
		Summary:     "A well-absorbed magnesium salt.",
		Benefits:    []string{"sleep quality"},
		TypicalDose: "200-400 mg",
	}
	if err := repo.Save(ctx, m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.GetByIngredient(ctx, "  MAGNESIUM glycinate ")
	if err != nil {
		t.Fatalf("GetByIngredient failed: %v", err)
	}
	if got == nil || got.ID != "mono-1" {
		t.Fatalf("Expected mono-1, got %+v", got)
	}

	// Saving again overwrites in place
	m.Summary = "Updated summary."
	if err := repo.Save(ctx, m); err != nil {
		t.Fatalf("Second Save failed: %v", err)
	}
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 || all[0].Summary != "Updated summary." {
		t.Errorf("Expected a single updated monograph, got %+v", all)
	}

	many, err := repo.GetMany(ctx, []string{"mono-nope", "mono-1"})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(many) != 1 || many[0].ID != "mono-1" {
		t.Errorf("Expected GetMany to skip unknown IDs, got %+v", many)
	}
}

func TestToEmbeddingText(t *testing.T) {
	m := Monograph{
		Ingredient: "ashwagandha",
		Summary:    "An adaptogen.",
		Benefits:   []string{"stress"},
		Cautions:   []string{"thyroid"},
	}
	text := m.ToEmbeddingText()
	for _, want := range []string{"ashwagandha", "An adaptogen.", "Benefit: stress", "Caution: thyroid"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected embedding text to contain %q, got %q", want, text)
		}
	}
}
