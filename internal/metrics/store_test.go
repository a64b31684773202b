package metrics

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"supplement-coach/internal/shared"

	_ "modernc.org/sqlite"
)

const metricsSchema = `
CREATE TABLE agent_metrics (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_name        TEXT NOT NULL,
	model             TEXT NOT NULL DEFAULT '',
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens      INTEGER NOT NULL DEFAULT 0,
	latency_ms        INTEGER NOT NULL DEFAULT 0,
	repaired          INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(metricsSchema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return NewStore(db)
}

func TestRecordAndDailyUsage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	metric := ExecutionMetric{
		AgentName:        "formulator",
		Model:            "llama-3.3-70b-versatile",
		PromptTokens:     120,
		CompletionTokens: 80,
		LatencyMS:        950,
		Repaired:         true,
	}
	if err := store.Record(ctx, metric); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, ExecutionMetric{AgentName: "plan-agent", PromptTokens: 50, CompletionTokens: 30}); err != nil {
		t.Fatalf("Second Record failed: %v", err)
	}

	usage, err := store.GetDailyUsage(ctx, 7)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("Expected usage for 1 day, got %d", len(usage))
	}
	day := usage[0]
	if day.TotalExecution != 2 {
		t.Errorf("Expected 2 executions, got %d", day.TotalExecution)
	}
	if day.TotalPrompt != 170 {
		t.Errorf("Expected 170 prompt tokens, got %d", day.TotalPrompt)
	}
	if day.TotalCompletion != 110 {
		t.Errorf("Expected 110 completion tokens, got %d", day.TotalCompletion)
	}
	if day.TotalRepaired != 1 {
		t.Errorf("Expected 1 repaired run, got %d", day.TotalRepaired)
	}
}

func TestRecordMetaSkipsEmptyUsage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.RecordMeta(ctx, shared.AgentMeta{AgentName: "reviewer"}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}

	usage, err := store.GetDailyUsage(ctx, 1)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 0 {
		t.Errorf("Expected no rows for an empty meta, got %v", usage)
	}
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	old := ExecutionMetric{AgentName: "formulator", PromptTokens: 10, Timestamp: time.Now().AddDate(0, 0, -40).UTC()}
	fresh := ExecutionMetric{AgentName: "formulator", PromptTokens: 10}
	if err := store.Record(ctx, old); err != nil {
		t.Fatalf("Record old failed: %v", err)
	}
	if err := store.Record(ctx, fresh); err != nil {
		t.Fatalf("Record fresh failed: %v", err)
	}

	deleted, err := store.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted row, got %d", deleted)
	}
}
