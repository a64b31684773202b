package formula

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository persists formula versions. Rows are append-only: customizing a
// formula inserts a new version and never touches the old ones.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// SaveVersion appends a formula version.
func (r *Repository) SaveVersion(ctx context.Context, f *Formula) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal formula: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO formula_versions (version_id, formula_id, user_id, version, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.VersionID, f.ID, f.UserID, f.Version, string(doc), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert formula version: %w", err)
	}
	return nil
}

// GetLatest returns the highest version of a formula, or nil when unknown.
func (r *Repository) GetLatest(ctx context.Context, formulaID string) (*Formula, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT document FROM formula_versions
		WHERE formula_id = ?
		ORDER BY version DESC
		LIMIT 1`, formulaID)
	return scanFormula(row)
}

// GetLatestForUser returns the user's most recently updated formula, or nil.
func (r *Repository) GetLatestForUser(ctx context.Context, userID string) (*Formula, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT document FROM formula_versions
		WHERE user_id = ?
		ORDER BY created_at DESC, version DESC
		LIMIT 1`, userID)
	return scanFormula(row)
}

// GetVersion returns one specific version of a formula, or nil when absent.
func (r *Repository) GetVersion(ctx context.Context, formulaID string, version int) (*Formula, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT document FROM formula_versions
		WHERE formula_id = ? AND version = ?`, formulaID, version)
	return scanFormula(row)
}

// ListVersions returns every version of a formula, oldest first.
func (r *Repository) ListVersions(ctx context.Context, formulaID string) ([]Formula, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT document FROM formula_versions
		WHERE formula_id = ?
		ORDER BY version ASC`, formulaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list formula versions: %w", err)
	}
	defer rows.Close()

	var versions []Formula
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan formula row: %w", err)
		}
		var f Formula
		if err := json.Unmarshal([]byte(doc), &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal formula document: %w", err)
		}
		versions = append(versions, f)
	}
	return versions, rows.Err()
}

func scanFormula(row *sql.Row) (*Formula, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get formula version: %w", err)
	}
	var f Formula
	if err := json.Unmarshal([]byte(doc), &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal formula document: %w", err)
	}
	return &f, nil
}
