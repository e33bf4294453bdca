package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/coachly/internal/ingest/sheet"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	RoutinesImported   int
	PlacementsImported int

	// Rejected lists sheets the server refused, with the reason.
	Rejected []string
}

// sheetExts are the file extensions picked up from the sheets directory.
var sheetExts = map[string]bool{".csv": true, ".txt": true, ".xlsx": true}

// Uploader walks a directory of training sheets and POSTs every new or
// changed sheet to the Coachly server.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run uploads every pending sheet under the directory. A sheet the server
// rejects is reported and skipped; a server that stays unreachable aborts
// the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := u.findSheets()
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		if err := u.processFile(ctx, f); err != nil {
			return &u.stats, err
		}
	}
	return &u.stats, nil
}

// findSheets returns the sheet files under the directory in lexical order.
// Hidden files and spreadsheet lock files are ignored.
func (u *Uploader) findSheets() ([]string, error) {
	var files []string
	err := filepath.WalkDir(u.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != u.dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			return nil
		}
		if sheetExts[strings.ToLower(filepath.Ext(name))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", u.dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	u.stats.FilesTotal++

	relPath, _ := filepath.Rel(u.dir, path)
	info, err := os.Stat(path)
	if err != nil {
		u.log.Warn("stat failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	hash, err := HashFile(path)
	if err != nil {
		u.log.Warn("hash failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
	if err != nil {
		u.log.Warn("state check failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		u.log.Warn("read failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	if u.dryRun {
		return u.checkLocally(relPath, data)
	}

	result, err := u.client.SendSheet(ctx, filepath.Base(path), data, "")
	var perm *PermanentError
	if errors.As(err, &perm) {
		u.log.Warn("sheet rejected", "file", relPath, "status", perm.Status, "error", perm.Body)
		u.stats.FilesErrored++
		u.stats.Rejected = append(u.stats.Rejected, fmt.Sprintf("%s: %s", relPath, strings.TrimSpace(perm.Body)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("uploading %s: %w", relPath, err)
	}

	if err := u.state.MarkUploaded(relPath, info.Size(), hash, result.ProgramID); err != nil {
		u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
	}
	u.stats.FilesUploaded++
	u.stats.RoutinesImported += result.RoutinesImported
	u.stats.PlacementsImported += result.PlacementsImported

	u.log.Info("uploaded sheet",
		"file", relPath,
		"program_id", result.ProgramID,
		"routines", result.RoutinesImported,
		"placements", result.PlacementsImported,
	)
	for _, w := range result.Warnings {
		u.log.Warn("sheet warning", "file", relPath, "warning", w)
	}
	return nil
}

// checkLocally parses a sheet without sending it, so a dry run reports the
// same rejections the server would.
func (u *Uploader) checkLocally(relPath string, data []byte) error {
	format := sheet.FormatText
	if strings.EqualFold(filepath.Ext(relPath), ".xlsx") {
		format = sheet.FormatXLSX
	}
	p, err := sheet.Read(bytes.NewReader(data), format)
	if err != nil {
		u.log.Warn("dry-run: sheet would be rejected", "file", relPath, "error", err)
		u.stats.FilesErrored++
		u.stats.Rejected = append(u.stats.Rejected, fmt.Sprintf("%s: %v", relPath, err))
		return nil
	}
	u.log.Info("dry-run: would upload",
		"file", relPath,
		"title", p.Title,
		"routines", len(p.Routines),
		"placements", len(p.Placements),
	)
	u.stats.FilesUploaded++
	u.stats.RoutinesImported += len(p.Routines)
	u.stats.PlacementsImported += len(p.Placements)
	return nil
}
