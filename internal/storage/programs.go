package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/coachly/internal/models"
	"github.com/jackc/pgx/v5"
)

// ProgramSummary is a listing row; it does not carry the document.
type ProgramSummary struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Duration     int       `json:"duration"`
	IsPeriodized bool      `json:"is_periodized"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// encodeDocument serializes p for the document column. Version and
// timestamps live in their own columns and are stripped from the JSON.
func encodeDocument(p *models.Program) ([]byte, error) {
	doc := *p
	doc.Version = 0
	doc.CreatedAt = time.Time{}
	doc.UpdatedAt = time.Time{}
	data, err := json.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encoding program %s: %w", p.ID, err)
	}
	return data, nil
}

func decodeDocument(data []byte, version int64, createdAt, updatedAt time.Time) (*models.Program, error) {
	var p models.Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding program document: %w", err)
	}
	if p.Placements == nil {
		p.Placements = []models.RoutinePlacement{}
	}
	if p.Routines == nil {
		p.Routines = []models.Routine{}
	}
	p.Version = version
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return &p, nil
}

// GetProgram loads a program owned by ownerID.
func (db *DB) GetProgram(ctx context.Context, ownerID, id string) (*models.Program, error) {
	var (
		data                 []byte
		version              int64
		createdAt, updatedAt time.Time
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT document, version, created_at, updated_at
		 FROM programs
		 WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&data, &version, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying program %s: %w", id, err)
	}
	return decodeDocument(data, version, createdAt, updatedAt)
}

// CreateProgram inserts p as a new document at version 1 and updates p's
// version and timestamps from the stored row.
func (db *DB) CreateProgram(ctx context.Context, p *models.Program) error {
	data, err := encodeDocument(p)
	if err != nil {
		return err
	}
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO programs (id, owner_id, title, duration, is_periodized, document, version)
		 VALUES ($1,$2,$3,$4,$5,$6,1)
		 RETURNING version, created_at, updated_at`,
		p.ID, p.OwnerID, p.Title, p.Duration, p.IsPeriodized, data,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting program %s: %w", p.ID, err)
	}
	return nil
}

// ReplaceProgram overwrites the stored document if its version still equals
// p.Version, then bumps the version. A stale version yields ErrConflict and
// a missing program ErrNotFound.
func (db *DB) ReplaceProgram(ctx context.Context, p *models.Program) error {
	data, err := encodeDocument(p)
	if err != nil {
		return err
	}

	err = db.Pool.QueryRow(ctx,
		`UPDATE programs SET
		 title = $4, duration = $5, is_periodized = $6, document = $7,
		 version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND owner_id = $2 AND version = $3
		 RETURNING version, created_at, updated_at`,
		p.ID, p.OwnerID, p.Version, p.Title, p.Duration, p.IsPeriodized, data,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("replacing program %s: %w", p.ID, err)
	}

	var current int64
	err = db.Pool.QueryRow(ctx,
		`SELECT version FROM programs WHERE id = $1 AND owner_id = $2`,
		p.ID, p.OwnerID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("program %s: %w", p.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking program %s version: %w", p.ID, err)
	}
	return fmt.Errorf("program %s at version %d, got %d: %w", p.ID, current, p.Version, ErrConflict)
}

// ListPrograms returns the owner's programs, most recently updated first.
func (db *DB) ListPrograms(ctx context.Context, ownerID string) ([]ProgramSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, owner_id, title, duration, is_periodized, version, created_at, updated_at
		 FROM programs
		 WHERE owner_id = $1
		 ORDER BY updated_at DESC, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	result := []ProgramSummary{}
	for rows.Next() {
		var s ProgramSummary
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Duration, &s.IsPeriodized,
			&s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// DeleteProgram removes a program owned by ownerID.
func (db *DB) DeleteProgram(ctx context.Context, ownerID, id string) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM programs WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting program %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	return nil
}

// SummaryOf builds the listing row for p.
func SummaryOf(p *models.Program) ProgramSummary {
	return ProgramSummary{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		Duration:     p.Duration,
		IsPeriodized: p.IsPeriodized,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
