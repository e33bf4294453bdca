package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/periodize"
	"github.com/claude/coachly/internal/storage"
)

type memStore struct {
	programs map[string]*models.Program
	created  []*models.Program
	logs     []storage.ImportLog
}

func (m *memStore) GetProgram(_ context.Context, ownerID, id string) (*models.Program, error) {
	p, ok := m.programs[ownerID+"/"+id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memStore) CreateProgram(_ context.Context, p *models.Program) error {
	p.Version = 1
	m.created = append(m.created, p)
	return nil
}

func (m *memStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	m.logs = append(m.logs, l)
	return int64(len(m.logs)), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sheetText = `"Base";"2 weeks"
Week 1
"Push"
1;Bench Press;3;5;80

Week 2
"Push"
1;Bench Press;3;5;82,5
`

// TestImportDir verifies every sheet becomes a program and a log row, and
// a broken sheet is reported without stopping the run.
func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.csv":      sheetText,
		"sub/b.txt":  sheetText,
		"broken.csv": "1;Squat;3;5\n",
		"readme.md":  "skip me",
	} {
		path := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store := &memStore{}
	stats, err := New(store, periodize.New(), discardLogger(), false).ImportDir(context.Background(), dir, "coach")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesProcessed != 3 || stats.ProgramsCreated != 2 || stats.FilesErrored != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(store.created) != 2 || store.created[0].OwnerID != "coach" {
		t.Errorf("created = %d programs", len(store.created))
	}
	if len(store.logs) != 3 {
		t.Fatalf("logs = %d, want 3", len(store.logs))
	}
	var failed int
	for _, l := range store.logs {
		if l.Status == "error" {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("error logs = %d, want 1", failed)
	}
}

// TestImportDirDryRun verifies nothing is written in dry-run mode.
func TestImportDirDryRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte(sheetText), 0o644); err != nil {
		t.Fatal(err)
	}
	store := &memStore{}
	stats, err := New(store, periodize.New(), discardLogger(), true).ImportDir(context.Background(), dir, "coach")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ProgramsCreated != 1 || len(store.created) != 0 || len(store.logs) != 0 {
		t.Errorf("stats = %+v, created = %d, logs = %d", stats, len(store.created), len(store.logs))
	}
}

// TestAssign verifies each target gets an independent copy of the template.
func TestAssign(t *testing.T) {
	tpl := &models.Program{
		ID: "tpl", OwnerID: "coach", Title: "Base", Duration: 1,
		Placements: []models.RoutinePlacement{{ID: "p", RoutineID: "r", Order: 1}},
		Routines:   []models.Routine{{ID: "r", Name: "Push"}},
	}
	store := &memStore{programs: map[string]*models.Program{"coach/tpl": tpl}}

	stats, err := New(store, periodize.New(), discardLogger(), false).
		Assign(context.Background(), "coach", "tpl", []string{"ann", " ", "ben"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ProgramsCreated != 2 || len(store.created) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	a, b := store.created[0], store.created[1]
	if a.OwnerID != "ann" || b.OwnerID != "ben" || a.ID == b.ID || a.Routines[0].ID == b.Routines[0].ID {
		t.Errorf("copies not independent: %+v / %+v", a, b)
	}
	if len(store.logs) != 2 || *store.logs[0].SourceProgramID != "tpl" {
		t.Errorf("logs = %+v", store.logs)
	}
}

// TestAssignMissingTemplate verifies an unknown template fails the run.
func TestAssignMissingTemplate(t *testing.T) {
	store := &memStore{programs: map[string]*models.Program{}}
	if _, err := New(store, periodize.New(), discardLogger(), false).
		Assign(context.Background(), "coach", "nope", []string{"ann"}); err == nil {
		t.Fatal("expected error")
	}
}
