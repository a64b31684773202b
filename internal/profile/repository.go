package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository is a database-backed store for user profiles.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Upsert creates the profile row if needed and updates the goals.
func (r *Repository) Upsert(ctx context.Context, userID, goals string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, goals, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET goals = excluded.goals`,
		userID, goals, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert profile for user %s: %w", userID, err)
	}
	return nil
}

// Get returns the profile with its medications, or nil when the user is unknown.
func (r *Repository) Get(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, goals, created_at FROM profiles WHERE user_id = ?`,
		userID).Scan(&p.UserID, &p.Goals, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}

	meds, err := r.GetMedications(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Medications = meds
	return &p, nil
}

// AddMedication records a medication for a user. Adding the same medication
// twice is a no-op. The profile row is created if it does not exist yet.
func (r *Repository) AddMedication(ctx context.Context, userID, medication string) error {
	medication = strings.TrimSpace(medication)
	if medication == "" {
		return fmt.Errorf("medication name is empty")
	}

	if err := r.ensureProfile(ctx, userID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile_medications (user_id, medication)
		VALUES (?, ?)
		ON CONFLICT (user_id, medication) DO NOTHING`,
		userID, medication)
	if err != nil {
		return fmt.Errorf("failed to add medication for user %s: %w", userID, err)
	}
	return nil
}

// RemoveMedication deletes a medication from a user's profile.
func (r *Repository) RemoveMedication(ctx context.Context, userID, medication string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM profile_medications WHERE user_id = ? AND medication = ?`,
		userID, strings.TrimSpace(medication))
	if err != nil {
		return fmt.Errorf("failed to remove medication for user %s: %w", userID, err)
	}
	return nil
}

// GetMedications returns a user's medications in sorted order so downstream
// safety warnings come out the same for the same profile.
func (r *Repository) GetMedications(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT medication FROM profile_medications
		WHERE user_id = ?
		ORDER BY medication ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get medications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var meds []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan medication row: %w", err)
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (r *Repository) ensureProfile(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, goals, created_at)
		VALUES (?, '', ?)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to ensure profile for user %s: %w", userID, err)
	}
	return nil
}
