package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"supplement-coach/internal/shared"
)

// ExecutionMetric records metadata for a single agent execution.
type ExecutionMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Repaired         bool
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	repaired := 0
	if m.Repaired {
		repaired = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_metrics (agent_name, model, prompt_tokens, completion_tokens, total_tokens, latency_ms, repaired, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens,
		m.PromptTokens+m.CompletionTokens, m.LatencyMS, repaired, ts)
	if err != nil {
		return fmt.Errorf("failed to insert execution metric: %w", err)
	}
	return nil
}

// RecordMeta records metrics directly from shared.AgentMeta.
func (s *Store) RecordMeta(ctx context.Context, meta shared.AgentMeta) error {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	return s.Record(ctx, MapMeta(meta))
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
	TotalRepaired   int
}

// GetDailyUsage retrieves usage for the last N days.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date(created_at) AS day,
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COUNT(*),
		       COALESCE(SUM(repaired), 0)
		FROM agent_metrics
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.TotalPrompt, &u.TotalCompletion, &u.TotalExecution, &u.TotalRepaired); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage row: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many rows were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -olderThanDays).UTC()

	res, err := s.db.ExecContext(ctx, `DELETE FROM agent_metrics WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}

// MapMeta converts shared.AgentMeta to an ExecutionMetric.
func MapMeta(meta shared.AgentMeta) ExecutionMetric {
	return ExecutionMetric{
		AgentName:        meta.AgentName,
		Model:            meta.Usage.Model,
		PromptTokens:     meta.Usage.PromptTokens,
		CompletionTokens: meta.Usage.CompletionTokens,
		LatencyMS:        meta.Latency.Milliseconds(),
		Repaired:         meta.Repaired,
		Timestamp:        time.Now().UTC(),
	}
}
