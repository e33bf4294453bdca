package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/claude/coachly/internal/models"
)

// TestEncodeDocumentStripsColumns verifies version and timestamps are not
// duplicated inside the JSONB document, so the columns stay authoritative.
func TestEncodeDocumentStripsColumns(t *testing.T) {
	p := &models.Program{
		ID:         "p1",
		Duration:   2,
		Placements: []models.RoutinePlacement{},
		Routines:   []models.Routine{},
		Version:    5,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := encodeDocument(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if raw["version"] != float64(0) {
		t.Errorf("document version = %v, want 0", raw["version"])
	}
	if p.Version != 5 {
		t.Errorf("encodeDocument changed the caller's version to %d", p.Version)
	}
}

// TestDecodeDocumentUsesColumns verifies decoded programs take version and
// timestamps from the row and never carry nil lists.
func TestDecodeDocumentUsesColumns(t *testing.T) {
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	p, err := decodeDocument([]byte(`{"id":"p1","duration":3,"version":99}`), 4, created, updated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Version != 4 {
		t.Errorf("version = %d, want 4", p.Version)
	}
	if !p.CreatedAt.Equal(created) || !p.UpdatedAt.Equal(updated) {
		t.Errorf("timestamps = %v/%v", p.CreatedAt, p.UpdatedAt)
	}
	if p.Placements == nil || p.Routines == nil {
		t.Error("nil lists after decode")
	}
}

// TestDecodeDocumentCorrupt verifies a broken document is reported.
func TestDecodeDocumentCorrupt(t *testing.T) {
	if _, err := decodeDocument([]byte(`{"id":`), 1, time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected error for corrupt document")
	}
}
