// Package importer loads training sheets and template assignments straight
// into the database, bypassing the HTTP server. It backs the coachly-import
// command for bulk onboarding.
package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/coachly/internal/ingest/sheet"
	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/periodize"
	"github.com/claude/coachly/internal/storage"
)

// Store is the persistence the importer needs. *storage.DB satisfies it.
type Store interface {
	GetProgram(ctx context.Context, ownerID, id string) (*models.Program, error)
	CreateProgram(ctx context.Context, p *models.Program) error
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
}

var _ Store = (*storage.DB)(nil)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	ProgramsCreated    int
	RoutinesImported   int
	PlacementsImported int

	// Failed lists the sheets or users that could not be imported.
	Failed []string
}

// Importer writes programs for one owner.
type Importer struct {
	store  Store
	engine *periodize.Engine
	sheets *sheet.Provider
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(store Store, engine *periodize.Engine, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{
		store:  store,
		engine: engine,
		sheets: sheet.NewProvider(store, engine, log),
		log:    log,
		dryRun: dryRun,
	}
}

// ImportDir imports every sheet under dir as a program owned by ownerID.
// A sheet that fails to parse is logged and skipped.
func (imp *Importer) ImportDir(ctx context.Context, dir, ownerID string) (*Stats, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv", ".txt", ".xlsx":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &imp.stats, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		imp.importFile(ctx, dir, f, ownerID)
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, dir, path, ownerID string) {
	imp.stats.FilesProcessed++
	rel, _ := filepath.Rel(dir, path)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		imp.fail(rel, err)
		return
	}
	defer f.Close()

	br := bufio.NewReader(f)
	format := sheet.DetectFormat(path, br)

	if imp.dryRun {
		p, err := sheet.Read(br, format)
		if err != nil {
			imp.fail(rel, err)
			return
		}
		imp.log.Info("dry-run: would import sheet", "file", rel, "title", p.Title, "routines", len(p.Routines))
		imp.count(p)
		return
	}

	res, err := imp.sheets.Ingest(ctx, br, format, ownerID, "")
	logEntry := storage.ImportLog{
		OwnerID:  ownerID,
		Source:   storage.ImportSourceSheet,
		Metadata: rawJSON(map[string]any{"file": rel, "format": string(format), "bulk": true}),
	}
	if res != nil {
		logEntry.ProgramID = &res.ProgramID
		logEntry.RoutinesImported = res.RoutinesImported
		logEntry.PlacementsImported = res.PlacementsImported
	}
	imp.record(ctx, logEntry, err, start)
	if err != nil {
		imp.fail(rel, err)
		return
	}

	imp.stats.ProgramsCreated++
	imp.stats.RoutinesImported += res.RoutinesImported
	imp.stats.PlacementsImported += res.PlacementsImported
}

// Assign copies the template templateID owned by ownerID to every target
// user. Each copy is independent with fresh identifiers.
func (imp *Importer) Assign(ctx context.Context, ownerID, templateID string, targets []string) (*Stats, error) {
	src, err := imp.store.GetProgram(ctx, ownerID, templateID)
	if err != nil {
		return &imp.stats, fmt.Errorf("loading template %s: %w", templateID, err)
	}

	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		start := time.Now()

		out, err := imp.engine.ImportProgram(src, target)
		if err == nil && !imp.dryRun {
			err = imp.store.CreateProgram(ctx, out)
		}
		if !imp.dryRun {
			logEntry := storage.ImportLog{
				OwnerID:         target,
				Source:          storage.ImportSourceTemplate,
				SourceProgramID: &templateID,
				Metadata:        rawJSON(map[string]any{"assigned_by": ownerID, "bulk": true}),
			}
			if err == nil {
				logEntry.ProgramID = &out.ID
				logEntry.RoutinesImported = len(out.Routines)
				logEntry.PlacementsImported = len(out.Placements)
			}
			imp.record(ctx, logEntry, err, start)
		}
		if err != nil {
			imp.fail(target, err)
			continue
		}

		imp.log.Info("template assigned", "template", templateID, "user", target, "program_id", out.ID)
		imp.count(out)
	}
	return &imp.stats, nil
}

func (imp *Importer) count(p *models.Program) {
	imp.stats.ProgramsCreated++
	imp.stats.RoutinesImported += len(p.Routines)
	imp.stats.PlacementsImported += len(p.Placements)
}

func (imp *Importer) fail(what string, err error) {
	imp.log.Warn("import failed", "item", what, "error", err)
	imp.stats.FilesErrored++
	imp.stats.Failed = append(imp.stats.Failed, fmt.Sprintf("%s: %v", what, err))
}

// record writes an import_logs row. Logging failures never fail the import.
func (imp *Importer) record(ctx context.Context, entry storage.ImportLog, importErr error, start time.Time) {
	entry.Status = "success"
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	ms := int(time.Since(start).Milliseconds())
	entry.DurationMs = &ms
	if _, err := imp.store.InsertImportLog(ctx, entry); err != nil {
		imp.log.Warn("failed to log import", "error", err)
	}
}

func rawJSON(v any) *json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	raw := json.RawMessage(b)
	return &raw
}
