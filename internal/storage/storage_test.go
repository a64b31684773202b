package storage

import (
	"reflect"
	"testing"

	"supplement-coach/internal/formula"
)

func archivedFormula() *formula.Formula {
	return formula.FromDocument(map[string]any{
		"base": []any{
			map[string]any{"name": "Magnesium Glycinate", "amount": 300.0, "unit": "mg"},
		},
	}, "user-1")
}

func TestArchiveSaveAndLoad(t *testing.T) {
	archive, err := NewFormulaArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewFormulaArchive failed: %v", err)
	}

	f := archivedFormula()
	if err := archive.Save(f); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !archive.Exists(f.ID, 1) {
		t.Error("Expected version 1 to exist")
	}
	if archive.Exists(f.ID, 2) {
		t.Error("Version 2 should not exist yet")
	}

	loaded, err := archive.Load(f.ID, 1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.VersionID != f.VersionID {
		t.Errorf("Expected version ID %s, got %s", f.VersionID, loaded.VersionID)
	}
	if len(loaded.Base) != 1 || loaded.Base[0].Name != "Magnesium Glycinate" {
		t.Errorf("Round-trip lost ingredients: %+v", loaded)
	}
}

func TestArchiveListVersions(t *testing.T) {
	archive, err := NewFormulaArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewFormulaArchive failed: %v", err)
	}

	v1 := archivedFormula()
	v2 := v1.NextVersion([]formula.Ingredient{{Name: "Zinc", Amount: 15, Unit: "mg"}}, nil)
	v3 := v2.NextVersion(nil, []formula.Ingredient{{Name: "Zinc"}})

	for _, f := range []*formula.Formula{v1, v2, v3} {
		if err := archive.Save(f); err != nil {
			t.Fatalf("Save v%d failed: %v", f.Version, err)
		}
	}

	versions, err := archive.ListVersions(v1.ID)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if !reflect.DeepEqual(versions, []int{1, 2, 3}) {
		t.Errorf("Expected versions [1 2 3], got %v", versions)
	}

	// Other formulas don't leak in
	other := formula.FromDocument(map[string]any{}, "user-2")
	if err := archive.Save(other); err != nil {
		t.Fatalf("Save other failed: %v", err)
	}
	versions, err = archive.ListVersions(v1.ID)
	if err != nil {
		t.Fatalf("Second ListVersions failed: %v", err)
	}
	if len(versions) != 3 {
		t.Errorf("Expected 3 versions, got %v", versions)
	}
}

func TestArchiveLoadMissing(t *testing.T) {
	archive, err := NewFormulaArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewFormulaArchive failed: %v", err)
	}
	if _, err := archive.Load("formula-nope", 1); err == nil {
		t.Fatal("Expected an error for a missing archive file")
	}
}
