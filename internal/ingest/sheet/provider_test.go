package sheet

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/periodize"
)

type memStore struct {
	created []*models.Program
	err     error
}

func (m *memStore) CreateProgram(_ context.Context, p *models.Program) error {
	if m.err != nil {
		return m.err
	}
	p.Version = 1
	m.created = append(m.created, p)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestProviderIngest verifies a sheet is imported for the owner with fresh
// identifiers and stored once.
func TestProviderIngest(t *testing.T) {
	store := &memStore{}
	p := NewProvider(store, periodize.New(), discardLogger())

	res, err := p.Ingest(context.Background(), strings.NewReader(sampleSheet), FormatText, "coach-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("stored %d programs, want 1", len(store.created))
	}
	prog := store.created[0]
	if prog.OwnerID != "coach-1" || prog.ID == "" || res.ProgramID != prog.ID {
		t.Errorf("program owner/id = %q/%q, result id %q", prog.OwnerID, prog.ID, res.ProgramID)
	}
	for _, r := range prog.Routines {
		if r.ID == "r1" || r.ID == "r2" || r.ID == "r3" {
			t.Errorf("routine kept sheet-local id %q", r.ID)
		}
	}
	if res.RoutinesImported != 3 || res.PlacementsImported != 4 || res.Weeks != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want one about the empty week", res.Warnings)
	}
}

// TestProviderTitleOverride verifies an explicit title wins over the sheet's.
func TestProviderTitleOverride(t *testing.T) {
	store := &memStore{}
	p := NewProvider(store, periodize.New(), discardLogger())
	res, err := p.Ingest(context.Background(), strings.NewReader(sampleSheet), FormatText, "coach-1", "Spring Block")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Spring Block" || store.created[0].Title != "Spring Block" {
		t.Errorf("title = %q, want Spring Block", res.Title)
	}
}

// TestProviderStoreFailure verifies storage errors propagate.
func TestProviderStoreFailure(t *testing.T) {
	store := &memStore{err: errors.New("db down")}
	p := NewProvider(store, periodize.New(), discardLogger())
	if _, err := p.Ingest(context.Background(), strings.NewReader(sampleSheet), FormatText, "coach-1", ""); err == nil {
		t.Fatal("expected error")
	}
}

// TestProviderRejectsBadSheet verifies nothing is stored for a bad sheet.
func TestProviderRejectsBadSheet(t *testing.T) {
	store := &memStore{}
	p := NewProvider(store, periodize.New(), discardLogger())
	_, err := p.Ingest(context.Background(), strings.NewReader("1;Squat;3;5\n"), FormatText, "coach-1", "")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if len(store.created) != 0 {
		t.Error("bad sheet was stored")
	}
}

// TestDetectFormat verifies extension and content sniffing.
func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     Format
	}{
		{"xlsx extension", "plan.XLSX", []byte("anything"), FormatXLSX},
		{"csv extension", "plan.csv", []byte("PK\x03\x04"), FormatText},
		{"zip magic", "upload", []byte("PK\x03\x04rest"), FormatXLSX},
		{"plain text", "upload", []byte("Week 1\n"), FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := bufio.NewReader(bytes.NewReader(tt.content))
			if got := DetectFormat(tt.filename, br); got != tt.want {
				t.Errorf("DetectFormat = %q, want %q", got, tt.want)
			}
		})
	}
}
