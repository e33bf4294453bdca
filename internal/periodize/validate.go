package periodize

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/claude/coachly/internal/models"
	"github.com/go-playground/validator/v10"
)

// MaxDuration bounds the number of weeks a program may span.
const MaxDuration = 260

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateProgram checks the shape of p and the (week, order) invariants of
// its placements. Placements of a flat program form a single bucket; in a
// periodized program each week is a bucket and unassigned placements are
// ignored.
func validateProgram(p *models.Program) error {
	if p == nil {
		return invalid("program", "is missing")
	}
	if err := validate.Struct(p); err != nil {
		return fromValidator(err)
	}
	if p.Duration > MaxDuration {
		return invalid("duration", "must be at most %d weeks", MaxDuration)
	}

	ids := make(map[string]bool, len(p.Routines))
	for i, r := range p.Routines {
		if ids[r.ID] {
			return invalid(fmt.Sprintf("routines[%d].id", i), "duplicate routine id %q", r.ID)
		}
		ids[r.ID] = true
	}
	for i, pl := range p.Placements {
		if !ids[pl.RoutineID] {
			return invalid(fmt.Sprintf("placements[%d].routine_id", i), "references unknown routine %q", pl.RoutineID)
		}
	}

	if err := checkBuckets(p); err != nil {
		return invalid("placements", "%s", err)
	}
	return nil
}

// checkBuckets verifies that orders are unique and contiguous from 1 within
// every bucket of p.
func checkBuckets(p *models.Program) error {
	buckets := map[int][]int{}
	for _, pl := range p.Placements {
		if !p.IsPeriodized {
			buckets[0] = append(buckets[0], pl.Order)
			continue
		}
		if w, ok := pl.WeekOf(); ok {
			buckets[w] = append(buckets[w], pl.Order)
		}
	}

	weeks := make([]int, 0, len(buckets))
	for w := range buckets {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	for _, w := range weeks {
		orders := buckets[w]
		sort.Ints(orders)
		for i, o := range orders {
			if o == i+1 {
				continue
			}
			label := "flat routine set"
			if p.IsPeriodized {
				label = fmt.Sprintf("week %d", w)
			}
			if i > 0 && o == orders[i-1] {
				return fmt.Errorf("%s: duplicate order %d", label, o)
			}
			return fmt.Errorf("%s: orders %v are not contiguous from 1", label, orders)
		}
	}
	return nil
}

// checkOutput re-verifies the invariants on an engine result.
func checkOutput(p *models.Program) error {
	if err := checkBuckets(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolated, err)
	}
	for _, pl := range p.Placements {
		if _, ok := p.RoutineByID(pl.RoutineID); !ok {
			return fmt.Errorf("%w: placement %s references missing routine %q", ErrInvariantViolated, pl.ID, pl.RoutineID)
		}
	}
	return nil
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("program", "%v", err)
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return invalid(field, "is required")
	case "min":
		return invalid(field, "must be at least %s", fe.Param())
	default:
		return invalid(field, "failed %q check", fe.Tag())
	}
}
