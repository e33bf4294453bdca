package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/storage"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetProgramStats(r.Context(), ownerID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), ownerID(r), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// importRecord is the outcome of one import, as written to import_logs.
type importRecord struct {
	owner      string
	source     string
	sourceID   string
	program    *models.Program
	programID  string
	routines   int
	placements int
	err        error
	duration   time.Duration
	metadata   map[string]any
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(rec importRecord) {
	status := "success"
	var errMsg *string
	if rec.err != nil {
		status = "error"
		msg := rec.err.Error()
		errMsg = &msg
	}
	if rec.program != nil && rec.err == nil {
		rec.programID = rec.program.ID
		rec.routines = len(rec.program.Routines)
		rec.placements = len(rec.program.Placements)
	}
	durationMs := int(rec.duration.Milliseconds())

	log := storage.ImportLog{
		OwnerID:            rec.owner,
		Source:             rec.source,
		Status:             status,
		SourceProgramID:    optional(rec.sourceID),
		ProgramID:          optional(rec.programID),
		RoutinesImported:   rec.routines,
		PlacementsImported: rec.placements,
		DurationMs:         &durationMs,
		ErrorMessage:       errMsg,
		Metadata:           metadataJSON(rec.metadata),
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.store.InsertImportLog(ctx, log); err != nil {
		s.log.Error("failed to log import", "source", rec.source, "error", err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// contextWithTimeout returns a background context with a 5-second timeout for async logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
