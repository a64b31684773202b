package monograph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Repository is a database-backed store for monographs.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save upserts a monograph keyed by its ID.
func (r *Repository) Save(ctx context.Context, m Monograph) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal monograph: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO monographs (id, ingredient, title, summary, document, source_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			ingredient = excluded.ingredient,
			title      = excluded.title,
			summary    = excluded.summary,
			document   = excluded.document,
			source_url = excluded.source_url,
			updated_at = excluded.updated_at`,
		m.ID, strings.ToLower(m.Ingredient), m.Title, m.Summary, string(doc), m.SourceURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert monograph: %w", err)
	}
	return nil
}

// Get returns a monograph by ID, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Monograph, error) {
	row := r.db.QueryRowContext(ctx, `SELECT document FROM monographs WHERE id = ?`, id)
	return scanMonograph(row)
}

// GetByIngredient returns the monograph for an ingredient name, or nil.
// Lookup is case-insensitive.
func (r *Repository) GetByIngredient(ctx context.Context, ingredient string) (*Monograph, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT document FROM monographs WHERE ingredient = ?`,
		strings.ToLower(strings.TrimSpace(ingredient)))
	return scanMonograph(row)
}

// GetMany returns the monographs for the given IDs, preserving input order.
// Unknown IDs are skipped.
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]Monograph, error) {
	var out []Monograph
	for _, id := range ids {
		m, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// List returns every monograph ordered by ingredient name.
func (r *Repository) List(ctx context.Context) ([]Monograph, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT document FROM monographs ORDER BY ingredient ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list monographs: %w", err)
	}
	defer rows.Close()

	var out []Monograph
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan monograph row: %w", err)
		}
		var m Monograph
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal monograph document: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMonograph(row *sql.Row) (*Monograph, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get monograph: %w", err)
	}
	var m Monograph
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal monograph document: %w", err)
	}
	return &m, nil
}
