package mcp

import (
	"context"

	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/storage"
)

// DataSource abstracts program storage for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetProgram(ctx context.Context, ownerID, id string) (*models.Program, error)
	ListPrograms(ctx context.Context, ownerID string) ([]storage.ProgramSummary, error)
	CreateProgram(ctx context.Context, p *models.Program) error
	ReplaceProgram(ctx context.Context, p *models.Program) error
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
