package storage

import (
	"context"
	"fmt"
	"time"
)

// ProgramStats holds aggregate statistics about an owner's programs.
type ProgramStats struct {
	TotalPrograms      int64         `json:"total_programs"`
	PeriodizedPrograms int64         `json:"periodized_programs"`
	TotalImports       int64         `json:"total_imports"`
	FailedImports      int64         `json:"failed_imports"`
	LastUpdated        *time.Time    `json:"last_updated"`
	ImportsBySource    []SourceCount `json:"imports_by_source"`
}

// SourceCount is the number of imports from one source.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// GetProgramStats returns aggregate statistics for an owner's programs.
func (db *DB) GetProgramStats(ctx context.Context, ownerID string) (*ProgramStats, error) {
	stats := &ProgramStats{ImportsBySource: []SourceCount{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_periodized), MAX(updated_at)
		 FROM programs WHERE owner_id = $1`, ownerID,
	).Scan(&stats.TotalPrograms, &stats.PeriodizedPrograms, &stats.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("counting programs: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'error')
		 FROM import_logs WHERE owner_id = $1`, ownerID,
	).Scan(&stats.TotalImports, &stats.FailedImports)
	if err != nil {
		return nil, fmt.Errorf("counting imports: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT source, COUNT(*)
		 FROM import_logs
		 WHERE owner_id = $1
		 GROUP BY source
		 ORDER BY COUNT(*) DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying imports by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SourceCount
		if err := rows.Scan(&s.Source, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		stats.ImportsBySource = append(stats.ImportsBySource, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
