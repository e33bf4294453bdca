package periodize

import (
	"strings"

	"github.com/claude/coachly/internal/models"
)

// ImportProgram clones a program template into an independent copy owned by
// targetUserID.
//
// The program, every routine, every placement and every exercise get fresh
// IDs; a routine shared by several placements in src stays shared in the
// copy. Weeks, orders, names and targets are copied verbatim. CreatedAt and
// UpdatedAt are set to the import time. Importing the same template twice
// yields two unrelated programs.
func (e *Engine) ImportProgram(src *models.Program, targetUserID string) (*models.Program, error) {
	if src == nil {
		return nil, &NotFoundError{What: "source program"}
	}
	if strings.TrimSpace(targetUserID) == "" {
		return nil, invalid("owner_id", "target user is required")
	}
	if err := validateProgram(src); err != nil {
		return nil, err
	}

	out := src.Clone()
	out.ID = e.newID()
	out.OwnerID = targetUserID
	now := e.now()
	out.CreatedAt = now
	out.UpdatedAt = now
	out.Version = 0

	routineIDs := make(map[string]string, len(out.Routines))
	for i, r := range out.Routines {
		clone := e.cloneRoutine(r)
		routineIDs[r.ID] = clone.ID
		out.Routines[i] = clone
	}
	for i := range out.Placements {
		out.Placements[i].ID = e.newID()
		out.Placements[i].RoutineID = routineIDs[out.Placements[i].RoutineID]
	}

	if err := checkOutput(out); err != nil {
		return nil, err
	}
	return out, nil
}
