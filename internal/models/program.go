package models

import (
	"sort"
	"time"
)

// Program is a coaching program document: a routine library plus the
// placements that schedule those routines into weeks.
type Program struct {
	ID           string             `json:"id"`
	OwnerID      string             `json:"owner_id"`
	Title        string             `json:"title"`
	Notes        string             `json:"notes,omitempty"`
	Duration     int                `json:"duration" validate:"min=1"`
	IsPeriodized bool               `json:"is_periodized"`
	Placements   []RoutinePlacement `json:"placements" validate:"dive"`
	Routines     []Routine          `json:"routines" validate:"dive"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`

	// Version is the store's optimistic concurrency token.
	Version int64 `json:"version"`
}

// RoutinePlacement schedules a routine at a position within a week.
// A nil Week means the placement is not assigned to any week, which is the
// normal state for every placement of a flat program. A week below 1 is
// treated the same way.
type RoutinePlacement struct {
	ID        string `json:"id"`
	RoutineID string `json:"routine_id" validate:"required"`
	Week      *int   `json:"week"`
	Order     int    `json:"order" validate:"min=1"`
}

// Routine is a named, ordered sequence of exercises.
type Routine struct {
	ID        string     `json:"id" validate:"required"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises" validate:"dive"`
}

// Exercise is a single prescribed movement with its targets.
type Exercise struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name" validate:"required"`
	Sets        int         `json:"sets" validate:"min=0"`
	Reps        string      `json:"reps"` // may be a range like "8-10"
	Weight      float64     `json:"weight" validate:"min=0"`
	RestSeconds int         `json:"rest_seconds,omitempty" validate:"min=0"`
	Notes       string      `json:"notes,omitempty"`
	IsCardio    bool        `json:"is_cardio,omitempty"`
	MuscleGroup MuscleGroup `json:"muscle_group,omitempty"`
}

// WeekOf returns the placement's week number and whether it has one.
func (p RoutinePlacement) WeekOf() (int, bool) {
	if p.Week == nil || *p.Week < 1 {
		return 0, false
	}
	return *p.Week, true
}

// Week returns a pointer to w, for building placements.
func Week(w int) *int {
	return &w
}

// RoutineByID returns the routine with the given ID.
func (p *Program) RoutineByID(id string) (*Routine, bool) {
	for i := range p.Routines {
		if p.Routines[i].ID == id {
			return &p.Routines[i], true
		}
	}
	return nil, false
}

// PlacementsForWeek returns the placements assigned to week w, in slice order.
func (p *Program) PlacementsForWeek(w int) []RoutinePlacement {
	var result []RoutinePlacement
	for _, pl := range p.Placements {
		if got, ok := pl.WeekOf(); ok && got == w {
			result = append(result, pl)
		}
	}
	return result
}

// Weeks returns the distinct assigned week numbers in ascending order.
func (p *Program) Weeks() []int {
	seen := map[int]bool{}
	var weeks []int
	for _, pl := range p.Placements {
		if w, ok := pl.WeekOf(); ok && !seen[w] {
			seen[w] = true
			weeks = append(weeks, w)
		}
	}
	sort.Ints(weeks)
	return weeks
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	if p == nil {
		return nil
	}
	c := *p
	if p.Placements != nil {
		c.Placements = make([]RoutinePlacement, len(p.Placements))
		for i, pl := range p.Placements {
			c.Placements[i] = pl.Clone()
		}
	}
	if p.Routines != nil {
		c.Routines = make([]Routine, len(p.Routines))
		for i, r := range p.Routines {
			c.Routines[i] = r.Clone()
		}
	}
	return &c
}

// Clone returns a copy of the placement that shares no memory with p.
func (p RoutinePlacement) Clone() RoutinePlacement {
	if p.Week != nil {
		p.Week = Week(*p.Week)
	}
	return p
}

// Clone returns a deep copy of the routine.
func (r Routine) Clone() Routine {
	if r.Exercises != nil {
		ex := make([]Exercise, len(r.Exercises))
		copy(ex, r.Exercises)
		r.Exercises = ex
	}
	return r
}
