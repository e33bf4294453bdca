package server

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/coachly/internal/ingest/sheet"
	"github.com/claude/coachly/internal/storage"
)

// maxSheetBytes bounds uploaded workbooks and text sheets.
const maxSheetBytes = 32 << 20

// handleSheetImport stores an uploaded training sheet as a new program for
// the caller. The sheet comes either as the multipart "file" field or as
// the raw request body; ?filename= hints the format for raw bodies and
// ?title= overrides the sheet's title.
func (s *Server) handleSheetImport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxSheetBytes)

	var (
		body     io.Reader = r.Body
		filename           = r.URL.Query().Get("filename")
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field: " + err.Error()})
			return
		}
		defer file.Close()
		body = file
		if filename == "" {
			filename = header.Filename
		}
	}

	br := bufio.NewReader(body)
	format := sheet.DetectFormat(filename, br)
	owner := ownerID(r)

	result, err := s.sheets.Ingest(r.Context(), br, format, owner, r.URL.Query().Get("title"))

	rec := importRecord{
		owner:    owner,
		source:   storage.ImportSourceSheet,
		err:      err,
		duration: time.Since(start),
		metadata: map[string]any{"filename": filename, "format": string(format)},
	}
	if result != nil {
		rec.programID = result.ProgramID
		rec.routines = result.RoutinesImported
		rec.placements = result.PlacementsImported
		if len(result.Warnings) > 0 {
			rec.metadata["warnings"] = result.Warnings
		}
	}
	s.logImport(rec)

	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func metadataJSON(m map[string]any) *json.RawMessage {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	raw := json.RawMessage(b)
	return &raw
}
