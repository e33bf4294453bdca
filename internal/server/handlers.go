package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/coachly/internal/classify"
	"github.com/claude/coachly/internal/ingest/sheet"
	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/periodize"
	"github.com/claude/coachly/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxDocumentBytes bounds program documents posted to the API.
const maxDocumentBytes = 8 << 20

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

func (s *Server) handleToggleDocument(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := periodize.DecodeProgram(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.engine.TogglePeriodization(p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type importDocumentRequest struct {
	Source       json.RawMessage `json:"source"`
	TargetUserID string          `json:"target_user_id"`
}

func (s *Server) handleImportDocument(w http.ResponseWriter, r *http.Request) {
	var req importDocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if len(req.Source) == 0 || string(req.Source) == "null" {
		s.writeError(w, &periodize.NotFoundError{What: "source program"})
		return
	}
	src, err := periodize.DecodeProgram(req.Source)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.engine.ImportProgram(src, req.TargetUserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type classifyRequest struct {
	Names  []string `json:"names"`
	Format string   `json:"format"`
}

// textClassifier is implemented by classifiers that can answer in free text.
type textClassifier interface {
	ClassifyText(ctx context.Context, names []string) (string, error)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if s.classifier == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "classification is not configured"})
		return
	}
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	switch strings.ToLower(req.Format) {
	case "", "json":
		labels, err := s.classifier.Classify(r.Context(), req.Names)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, labels)
	case "text":
		tc, ok := s.classifier.(textClassifier)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text format is not supported by this classifier"})
			return
		}
		text, err := tc.ClassifyText(r.Context(), req.Names)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": text})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json or text"})
	}
}

func (s *Server) handleMuscleGroups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.MuscleGroups)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.store.ListPrograms(r.Context(), ownerID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := periodize.DecodeProgram(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.OwnerID = ownerID(r)
	if err := s.store.CreateProgram(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProgram(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleReplaceProgram overwrites a stored program. The body's version must
// match the stored one.
func (s *Server) handleReplaceProgram(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := periodize.DecodeProgram(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p.ID = chi.URLParam(r, "id")
	p.OwnerID = ownerID(r)
	if err := s.store.ReplaceProgram(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProgram(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleStored converts a stored program and saves the result under
// the same ID, guarded by the version that was loaded.
func (s *Server) handleToggleStored(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	p, err := s.store.GetProgram(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.engine.TogglePeriodization(p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out.OwnerID = owner
	if err := s.store.ReplaceProgram(r.Context(), out); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("program toggled", "program_id", out.ID, "periodized", out.IsPeriodized, "placements", len(out.Placements))
	writeJSON(w, http.StatusOK, out)
}

type importStoredRequest struct {
	TargetUserID string `json:"target_user_id"`
}

// handleImportStored copies one of the caller's templates into the target
// user's programs. An empty body imports into the caller.
func (s *Server) handleImportStored(w http.ResponseWriter, r *http.Request) {
	var req importStoredRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	owner := ownerID(r)
	target := req.TargetUserID
	if target == "" {
		target = owner
	}

	start := time.Now()
	srcID := chi.URLParam(r, "id")
	src, err := s.store.GetProgram(r.Context(), owner, srcID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.engine.ImportProgram(src, target)
	if err == nil {
		err = s.store.CreateProgram(r.Context(), out)
	}
	s.logImport(importRecord{
		owner:    target,
		source:   storage.ImportSourceTemplate,
		sourceID: srcID,
		program:  out,
		err:      err,
		duration: time.Since(start),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleEnrichStored labels a stored program's exercises with muscle
// groups. A classification failure leaves the stored program untouched.
func (s *Server) handleEnrichStored(w http.ResponseWriter, r *http.Request) {
	if s.classifier == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "classification is not configured"})
		return
	}
	p, err := s.store.GetProgram(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := classify.Enrich(r.Context(), s.classifier, p)
	if err != nil {
		s.log.Warn("enrichment failed", "program_id", p.ID, "error", err)
		s.writeError(w, err)
		return
	}
	if err := s.store.ReplaceProgram(r.Context(), out); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProgram(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, p.ID))
	if err := sheet.WriteXLSX(w, p); err != nil {
		s.log.Error("xlsx export failed", "program_id", p.ID, "error", err)
	}
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var perr *sheet.ParseError
	switch {
	case errors.Is(err, periodize.ErrValidation), errors.As(err, &perr):
		status = http.StatusBadRequest
	case errors.Is(err, periodize.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, classify.ErrExternalService):
		status = http.StatusBadGateway
	case errors.Is(err, periodize.ErrInvariantViolated):
		s.log.Error("conversion produced an invalid program", "error", err)
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
