package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StoredPlan is a weekly plan row as persisted.
type StoredPlan struct {
	ID        string
	UserID    string
	Plan      WeeklyPlan
	CreatedAt time.Time
}

// Repository is a database-backed store for weekly plans.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts a normalized weekly plan and returns its ID.
func (r *Repository) Save(ctx context.Context, userID string, p WeeklyPlan) (string, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plans (id, user_id, kind, week_start, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, string(p.Kind), p.WeekStart.UTC().Format(time.RFC3339), string(doc), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert plan: %w", err)
	}
	return id, nil
}

// GetLatest returns the most recent plan of the given kind for a user, or nil
// when the user has none.
func (r *Repository) GetLatest(ctx context.Context, userID string, kind Kind) (*StoredPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, document, created_at
		FROM plans
		WHERE user_id = ? AND kind = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID, string(kind))

	stored, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest plan for user %s: %w", userID, err)
	}
	return stored, nil
}

// ListRecent retrieves the N most recent plans of any kind for a given user.
func (r *Repository) ListRecent(ctx context.Context, userID string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, document, created_at
		FROM plans
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		stored, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, *stored)
	}
	return plans, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*StoredPlan, error) {
	var stored StoredPlan
	var doc string
	if err := row.Scan(&stored.ID, &stored.UserID, &doc, &stored.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(doc), &stored.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan document: %w", err)
	}
	return &stored, nil
}
