package periodize

import (
	"github.com/claude/coachly/internal/models"
)

// TogglePeriodization returns a copy of p converted to the other
// representation.
//
// Flat to periodized repeats the placement set once per week 1..Duration,
// each copy with fresh placement IDs and the original orders. Periodized to
// flat keeps only the lowest-numbered week (normally week 1), clears the
// kept placements' week, and drops routines that only the discarded weeks
// referenced. Placements without a week are never part of the kept set.
//
// Flat -> periodized -> flat reproduces the original routines and orders.
// Periodized -> flat -> periodized does not: every week becomes a copy of
// the kept week.
func (e *Engine) TogglePeriodization(p *models.Program) (*models.Program, error) {
	if err := validateProgram(p); err != nil {
		return nil, err
	}

	var out *models.Program
	if p.IsPeriodized {
		out = e.flatten(p)
	} else {
		out = e.periodize(p)
	}

	if err := checkOutput(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) periodize(p *models.Program) *models.Program {
	out := p.Clone()
	out.IsPeriodized = true
	out.Placements = make([]models.RoutinePlacement, 0, len(p.Placements)*p.Duration)

	for w := 1; w <= p.Duration; w++ {
		var routineIDs map[string]string
		if e.policy == CloneRoutines && w > 1 {
			routineIDs = e.cloneWeekRoutines(out, p.Placements)
		}
		for _, pl := range p.Placements {
			routineID := pl.RoutineID
			if id, ok := routineIDs[routineID]; ok {
				routineID = id
			}
			out.Placements = append(out.Placements, models.RoutinePlacement{
				ID:        e.newID(),
				RoutineID: routineID,
				Week:      models.Week(w),
				Order:     pl.Order,
			})
		}
	}
	return out
}

// cloneWeekRoutines appends a fresh copy of every routine referenced by
// placements to out.Routines and returns the old-to-new ID mapping. A routine
// placed twice in a week is cloned once, so both placements keep pointing at
// the same routine.
func (e *Engine) cloneWeekRoutines(out *models.Program, placements []models.RoutinePlacement) map[string]string {
	ids := make(map[string]string)
	for _, pl := range placements {
		if _, done := ids[pl.RoutineID]; done {
			continue
		}
		src, ok := out.RoutineByID(pl.RoutineID)
		if !ok {
			continue
		}
		clone := e.cloneRoutine(*src)
		ids[pl.RoutineID] = clone.ID
		out.Routines = append(out.Routines, clone)
	}
	return ids
}

func (e *Engine) flatten(p *models.Program) *models.Program {
	out := p.Clone()
	out.IsPeriodized = false

	kept := make([]models.RoutinePlacement, 0)
	if weeks := p.Weeks(); len(weeks) > 0 {
		canonical := weeks[0]
		for _, pl := range out.Placements {
			if w, ok := pl.WeekOf(); ok && w == canonical {
				pl.Week = nil
				kept = append(kept, pl)
			}
		}
	}

	out.Routines = pruneRoutines(out.Routines, out.Placements, kept)
	out.Placements = kept
	return out
}

// pruneRoutines removes routines that were referenced by before but are no
// longer referenced by after. Routines that nothing referenced are kept.
func pruneRoutines(routines []models.Routine, before, after []models.RoutinePlacement) []models.Routine {
	wasUsed := make(map[string]bool, len(before))
	for _, pl := range before {
		wasUsed[pl.RoutineID] = true
	}
	stillUsed := make(map[string]bool, len(after))
	for _, pl := range after {
		stillUsed[pl.RoutineID] = true
	}

	if routines == nil {
		return nil
	}
	result := make([]models.Routine, 0, len(routines))
	for _, r := range routines {
		if wasUsed[r.ID] && !stillUsed[r.ID] {
			continue
		}
		result = append(result, r)
	}
	return result
}

// cloneRoutine deep-copies r with a fresh routine ID and fresh exercise IDs.
func (e *Engine) cloneRoutine(r models.Routine) models.Routine {
	c := r.Clone()
	c.ID = e.newID()
	for i := range c.Exercises {
		c.Exercises[i].ID = e.newID()
	}
	return c
}
