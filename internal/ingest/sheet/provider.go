package sheet

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/claude/coachly/internal/ingest"
	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/periodize"
)

// Format is a sheet file format.
type Format string

const (
	FormatText Format = "csv"
	FormatXLSX Format = "xlsx"
)

// zipMagic starts every XLSX file.
var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks a format from the file name, falling back to sniffing
// the first bytes of br.
func DetectFormat(filename string, br *bufio.Reader) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatText
	}
	if head, _ := br.Peek(len(zipMagic)); bytes.Equal(head, zipMagic) {
		return FormatXLSX
	}
	return FormatText
}

// ProgramCreator stores a new program.
type ProgramCreator interface {
	CreateProgram(ctx context.Context, p *models.Program) error
}

// Provider turns uploaded sheets into stored template programs.
type Provider struct {
	store  ProgramCreator
	engine *periodize.Engine
	log    *slog.Logger
}

// NewProvider creates a new sheet ingest provider.
func NewProvider(store ProgramCreator, engine *periodize.Engine, log *slog.Logger) *Provider {
	return &Provider{store: store, engine: engine, log: log}
}

// Read parses a sheet in the given format.
func Read(r io.Reader, format Format) (*models.Program, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(r)
	case FormatText, "":
		return Parse(r)
	default:
		return nil, fmt.Errorf("unsupported sheet format %q", format)
	}
}

// Ingest parses a sheet, imports it for ownerID and stores the result.
// A non-empty title overrides the one found in the sheet.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, format Format, ownerID, title string) (*ingest.Result, error) {
	parsed, err := Read(r, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s sheet: %w", format, err)
	}
	if title != "" {
		parsed.Title = title
	}

	prog, err := p.engine.ImportProgram(parsed, ownerID)
	if err != nil {
		return nil, fmt.Errorf("importing sheet: %w", err)
	}
	if err := p.store.CreateProgram(ctx, prog); err != nil {
		return nil, fmt.Errorf("storing program: %w", err)
	}

	result := &ingest.Result{
		ProgramID:          prog.ID,
		Title:              prog.Title,
		Duration:           prog.Duration,
		IsPeriodized:       prog.IsPeriodized,
		Weeks:              len(prog.Weeks()),
		RoutinesImported:   len(prog.Routines),
		PlacementsImported: len(prog.Placements),
	}
	for _, r := range prog.Routines {
		result.ExercisesImported += len(r.Exercises)
		if len(r.Exercises) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("routine %q has no exercises", r.Name))
		}
	}
	if prog.IsPeriodized && result.Weeks < prog.Duration {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d of %d weeks have no routines", prog.Duration-result.Weeks, prog.Duration))
	}

	p.log.Info("sheet imported",
		"program_id", prog.ID,
		"owner", ownerID,
		"format", string(format),
		"routines", result.RoutinesImported,
		"placements", result.PlacementsImported,
	)
	return result, nil
}
