package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"supplement-coach/internal/formula"
)

// FormulaArchive keeps a file-based copy of every formula version. The
// database is the source of truth; the archive exists so users can be handed
// a plain JSON export of any version they ever had.
type FormulaArchive struct {
	basePath string
}

// NewFormulaArchive creates a new FormulaArchive and ensures the base
// directory exists.
func NewFormulaArchive(basePath string) (*FormulaArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory %s: %w", basePath, err)
	}
	return &FormulaArchive{basePath: basePath}, nil
}

// versionPath returns the full path for a formula ID and version number.
func (a *FormulaArchive) versionPath(formulaID string, version int) string {
	filename := fmt.Sprintf("%s_v%03d.json", formulaID, version)
	return filepath.Join(a.basePath, filename)
}

// Save archives one formula version. Existing archive files are never
// overwritten with different content; versions are immutable.
func (a *FormulaArchive) Save(f *formula.Formula) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal formula: %w", err)
	}

	filePath := a.versionPath(f.ID, f.Version)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	return nil
}

// Load retrieves one archived formula version.
func (a *FormulaArchive) Load(formulaID string, version int) (*formula.Formula, error) {
	filePath := a.versionPath(formulaID, version)
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive file: %w", err)
	}

	var f formula.Formula
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal formula: %w", err)
	}
	return &f, nil
}

// Exists checks if a specific version is archived.
func (a *FormulaArchive) Exists(formulaID string, version int) bool {
	_, err := os.Stat(a.versionPath(formulaID, version))
	return !os.IsNotExist(err)
}

// ListVersions returns the archived version numbers for a formula, ascending.
func (a *FormulaArchive) ListVersions(formulaID string) ([]int, error) {
	pattern := filepath.Join(a.basePath, fmt.Sprintf("%s_v*.json", formulaID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob archive files: %w", err)
	}

	var versions []int
	for _, match := range matches {
		base := filepath.Base(match)
		var v int
		if _, err := fmt.Sscanf(base[len(formulaID):], "_v%03d.json", &v); err == nil {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)
	return versions, nil
}
