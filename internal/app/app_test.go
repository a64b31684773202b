package app

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"supplement-coach/internal/cms"
	"supplement-coach/internal/coach"
	"supplement-coach/internal/config"
	"supplement-coach/internal/database"
	"supplement-coach/internal/formula"
	"supplement-coach/internal/llm"
	"supplement-coach/internal/metrics"
	"supplement-coach/internal/monograph"
	"supplement-coach/internal/plan"
	"supplement-coach/internal/profile"
	"supplement-coach/internal/shared"
	"supplement-coach/internal/storage"

	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE plans (
	id TEXT PRIMARY KEY, user_id TEXT NOT NULL, kind TEXT NOT NULL,
	week_start TEXT NOT NULL, document TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE formula_versions (
	version_id TEXT PRIMARY KEY, formula_id TEXT NOT NULL, user_id TEXT NOT NULL,
	version INTEGER NOT NULL, document TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (formula_id, version)
);
CREATE TABLE profiles (
	user_id TEXT PRIMARY KEY, goals TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE profile_medications (
	user_id TEXT NOT NULL, medication TEXT NOT NULL,
	PRIMARY KEY (user_id, medication)
);
CREATE TABLE monographs (
	id TEXT PRIMARY KEY, ingredient TEXT NOT NULL, title TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '', document TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '', updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE monograph_embeddings (
	monograph_id TEXT PRIMARY KEY, embedding BLOB NOT NULL
);
CREATE TABLE agent_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT, agent_name TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '', prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0, total_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL DEFAULT 0, repaired INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

type mockTextGen struct {
	res   string
	calls int
}

func (m *mockTextGen) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.calls++
	return llm.ContentResponse{
		Content: m.res,
		Usage:   shared.TokenUsage{PromptTokens: 5, CompletionTokens: 5, Model: "mock"},
	}, nil
}

type mockEmbGen struct{}

func (m *mockEmbGen) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type mockCMSClient struct {
	articles  []cms.Article
	published *cms.Article
}

func (m *mockCMSClient) FetchIngredientArticles() ([]cms.Article, error) {
	return m.articles, nil
}

func (m *mockCMSClient) PublishArticle(title, html string, publish bool) (*cms.Article, error) {
	m.published = &cms.Article{ID: "pub-1", Title: title, HTML: html}
	return m.published, nil
}

func newTestApp(t *testing.T, cmsClient cms.Client, textGen llm.TextGenerator) *App {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	if _, err := sqlDB.Exec(testSchema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	embGen := &mockEmbGen{}
	vectorRepo := llm.NewVectorRepository(sqlDB)
	monographRepo := monograph.NewRepository(sqlDB)
	archive, err := storage.NewFormulaArchive(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}

	return NewApp(
		cmsClient,
		textGen,
		embGen,
		coach.New(textGen, embGen, vectorRepo, monographRepo),
		metrics.NewStore(sqlDB),
		archive,
		&config.Config{},
		&database.DB{SQL: sqlDB},
		plan.NewRepository(sqlDB),
		formula.NewRepository(sqlDB),
		profile.NewRepository(sqlDB),
		monographRepo,
		vectorRepo,
	)
}

func TestIngestMonographs(t *testing.T) {
	ctx := context.Background()

	cmsClient := &mockCMSClient{articles: []cms.Article{
		{ID: "a1", Title: "Ashwagandha", HTML: "<p>adaptogen</p>", UpdatedAt: "2025-11-01T00:00:00Z"},
	}}
	textGen := &mockTextGen{res: `{"ingredient": "ashwagandha", "summary": "An adaptogen.", "typical_dose": "300 mg"}`}

	a := newTestApp(t, cmsClient, textGen)

	if err := a.IngestMonographs(ctx); err != nil {
		t.Fatalf("IngestMonographs failed: %v", err)
	}

	stored, err := a.monographRepo.Get(ctx, "mono-a1")
	if err != nil {
		t.Fatalf("Failed to get monograph: %v", err)
	}
	if stored == nil || stored.Ingredient != "ashwagandha" {
		t.Fatalf("Expected stored monograph, got %+v", stored)
	}

	emb, err := a.vectorRepo.Get(ctx, "mono-a1")
	if err != nil {
		t.Fatalf("Failed to get embedding: %v", err)
	}
	if len(emb) != 2 {
		t.Errorf("Expected embedding of length 2, got %v", emb)
	}

	// A second run sees the same UpdatedAt and skips the model call
	callsAfterFirst := textGen.calls
	if err := a.IngestMonographs(ctx); err != nil {
		t.Fatalf("Second IngestMonographs failed: %v", err)
	}
	if textGen.calls != callsAfterFirst {
		t.Errorf("Expected unchanged article to be skipped, calls went %d -> %d", callsAfterFirst, textGen.calls)
	}
}

func TestFormulaLifecycle(t *testing.T) {
	ctx := context.Background()

	formulaJSON := `{
		"base": [
			{"name": "Vitamin K", "amount": 100, "unit": "mcg", "purpose": "bones"},
			{"name": "Magnesium Glycinate", "amount": 300, "unit": "mg", "purpose": "sleep"}
		]
	}`
	textGen := &mockTextGen{res: formulaJSON}
	cmsClient := &mockCMSClient{}
	a := newTestApp(t, cmsClient, textGen)

	if err := a.profileRepo.AddMedication(ctx, "user-1", "Warfarin"); err != nil {
		t.Fatalf("AddMedication failed: %v", err)
	}

	f, warnings, err := a.GenerateFormula(ctx, "user-1", "bone and sleep support")
	if err != nil {
		t.Fatalf("GenerateFormula failed: %v", err)
	}
	if f.Version != 1 {
		t.Errorf("Expected version 1, got %d", f.Version)
	}
	foundInteraction := false
	for _, w := range warnings {
		if strings.HasPrefix(w, "INTERACTION:") {
			foundInteraction = true
		}
	}
	if !foundInteraction {
		t.Errorf("Expected a Vitamin K x Warfarin interaction warning, got %v", warnings)
	}

	// The version is archived on disk as well as in the DB
	if !a.archive.Exists(f.ID, 1) {
		t.Error("Expected version 1 in the file archive")
	}

	// Customize: swap the reviewer response in
	textGen.res = `{"add": [{"name": "L-Theanine", "amount": 100, "unit": "mg"}], "remove": [{"name": "Vitamin K"}], "notes": "swap"}`
	f2, warnings2, err := a.CustomizeFormula(ctx, "user-1", "remove vitamin K")
	if err != nil {
		t.Fatalf("CustomizeFormula failed: %v", err)
	}
	if f2.Version != 2 {
		t.Errorf("Expected version 2, got %d", f2.Version)
	}
	for _, w := range warnings2 {
		if strings.Contains(strings.ToLower(w), "vitamin k") {
			t.Errorf("Unexpected Vitamin K warning after removal: %s", w)
		}
	}

	// Both versions live in the repository
	versions, err := a.formulaRepo.ListVersions(ctx, f.ID)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("Expected 2 versions, got %d", len(versions))
	}

	// CheckFormula works without any model call
	callsBefore := textGen.calls
	if _, err := a.CheckFormula(ctx, "user-1"); err != nil {
		t.Fatalf("CheckFormula failed: %v", err)
	}
	if textGen.calls != callsBefore {
		t.Error("CheckFormula should not call the model")
	}

	// PublishReport pushes the latest version to the CMS
	if err := a.PublishReport(ctx, "user-1"); err != nil {
		t.Fatalf("PublishReport failed: %v", err)
	}
	if cmsClient.published == nil || !strings.Contains(cmsClient.published.HTML, "L-Theanine") {
		t.Errorf("Expected published report with current ingredients, got %+v", cmsClient.published)
	}

	// Metrics were recorded for the agent runs
	usage, err := a.metricsStore.GetDailyUsage(ctx, 1)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalExecution < 2 {
		t.Errorf("Expected at least 2 recorded executions, got %+v", usage)
	}
}

func TestGeneratePlanPersists(t *testing.T) {
	ctx := context.Background()

	textGen := &mockTextGen{res: `{"days": [{"day": 3, "workout": {"focus": "Legs", "exercises": [{"name": "Squat", "sets": 5, "reps": "5"}]}}]}`}
	a := newTestApp(t, &mockCMSClient{}, textGen)

	p, err := a.GeneratePlan(ctx, "user-1", plan.KindWorkout, "get stronger")
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}
	if len(p.Days) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(p.Days))
	}
	if p.Days[2].Workout == nil || p.Days[2].Workout.Focus != "Legs" {
		t.Errorf("Wednesday should carry the generated workout, got %+v", p.Days[2])
	}

	stored, err := a.planRepo.GetLatest(ctx, "user-1", plan.KindWorkout)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if stored == nil || len(stored.Plan.Days) != 7 {
		t.Fatalf("Expected stored 7-day plan, got %+v", stored)
	}
}

func TestCustomizeFormulaWithoutExisting(t *testing.T) {
	a := newTestApp(t, &mockCMSClient{}, &mockTextGen{res: "{}"})

	if _, _, err := a.CustomizeFormula(context.Background(), "user-nope", "add zinc"); err == nil {
		t.Fatal("Expected an error when no formula exists yet")
	}
	if _, err := a.CheckFormula(context.Background(), "user-nope"); err == nil {
		t.Fatal("Expected an error when no formula exists yet")
	}
}
