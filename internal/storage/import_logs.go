package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Import sources recorded in import_logs.
const (
	ImportSourceTemplate = "template"
	ImportSourceSheet    = "sheet"
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID                 int64            `json:"id"`
	OwnerID            string           `json:"owner_id"`
	CreatedAt          time.Time        `json:"created_at"`
	Source             string           `json:"source"`
	Status             string           `json:"status"`
	SourceProgramID    *string          `json:"source_program_id"`
	ProgramID          *string          `json:"program_id"`
	RoutinesImported   int              `json:"routines_imported"`
	PlacementsImported int              `json:"placements_imported"`
	DurationMs         *int             `json:"duration_ms"`
	ErrorMessage       *string          `json:"error_message"`
	Metadata           *json.RawMessage `json:"metadata"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (owner_id, source, status, source_program_id, program_id,
		 routines_imported, placements_imported, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id`,
		log.OwnerID, log.Source, log.Status, log.SourceProgramID, log.ProgramID,
		log.RoutinesImported, log.PlacementsImported, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// QueryImportLogs returns the most recent import logs for an owner.
func (db *DB) QueryImportLogs(ctx context.Context, ownerID string, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, owner_id, created_at, source, status, source_program_id, program_id,
		 routines_imported, placements_imported, duration_ms, error_message, metadata
		 FROM import_logs
		 WHERE owner_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	result := []ImportLog{}
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.CreatedAt, &l.Source, &l.Status,
			&l.SourceProgramID, &l.ProgramID, &l.RoutinesImported, &l.PlacementsImported,
			&l.DurationMs, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
