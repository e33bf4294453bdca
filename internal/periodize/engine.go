// Package periodize converts coaching programs between the flat and the
// periodized (week-by-week) representation and clones program templates into
// user-owned copies.
//
// Every operation takes a fully hydrated *models.Program and returns a new
// one. Inputs are never mutated, and an Engine holds no mutable state, so one
// Engine may serve concurrent calls for different programs. Serializing
// writes to the same program is the store's job.
package periodize

import (
	"fmt"
	"time"

	"github.com/claude/coachly/internal/models"
	"github.com/google/uuid"
)

// RoutinePolicy decides how routines are shared across weeks when a flat
// program is periodized.
type RoutinePolicy int

const (
	// ShareRoutines makes every week reference the same routine IDs, so an
	// edit to a routine shows up in all weeks.
	ShareRoutines RoutinePolicy = iota

	// CloneRoutines gives weeks 2..N their own deep copies of the routines
	// (fresh routine and exercise IDs). Week 1 keeps the originals.
	CloneRoutines
)

func (p RoutinePolicy) String() string {
	switch p {
	case ShareRoutines:
		return "share"
	case CloneRoutines:
		return "clone"
	default:
		return fmt.Sprintf("RoutinePolicy(%d)", int(p))
	}
}

// ParseRoutinePolicy maps a config value to a RoutinePolicy.
// The empty string selects ShareRoutines.
func ParseRoutinePolicy(s string) (RoutinePolicy, error) {
	switch s {
	case "", "share":
		return ShareRoutines, nil
	case "clone":
		return CloneRoutines, nil
	default:
		return ShareRoutines, fmt.Errorf("unknown routine policy %q (want share or clone)", s)
	}
}

// Engine performs program conversions.
type Engine struct {
	policy RoutinePolicy
	newID  func() string
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRoutinePolicy sets the routine sharing policy used when periodizing.
func WithRoutinePolicy(p RoutinePolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithIDGenerator replaces the identifier source (uuid strings by default).
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithClock replaces the time source used for import timestamps.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy: ShareRoutines,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's routine policy.
func (e *Engine) Policy() RoutinePolicy {
	return e.policy
}

var defaultEngine = New()

// TogglePeriodization toggles p using an engine with default options.
func TogglePeriodization(p *models.Program) (*models.Program, error) {
	return defaultEngine.TogglePeriodization(p)
}

// ImportProgram clones src for targetUserID using an engine with default options.
func ImportProgram(src *models.Program, targetUserID string) (*models.Program, error) {
	return defaultEngine.ImportProgram(src, targetUserID)
}
