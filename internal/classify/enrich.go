package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/coachly/internal/models"
	"github.com/claude/coachly/internal/periodize"
)

// ExerciseNames returns the distinct exercise names of p in the order they
// first appear across its routines.
func ExerciseNames(p *models.Program) []string {
	if p == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, r := range p.Routines {
		for _, ex := range r.Exercises {
			n := strings.TrimSpace(ex.Name)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// Enrich returns a copy of p with every exercise's MuscleGroup set from c.
// Exercises the classifier cannot place get the empty label, overwriting
// any previous value. On failure p is returned untouched together with an
// *ExternalServiceError, so callers can carry on without the labels.
// A nil p is reported as a *periodize.NotFoundError.
func Enrich(ctx context.Context, c Classifier, p *models.Program) (*models.Program, error) {
	if p == nil {
		return nil, &periodize.NotFoundError{What: "program"}
	}
	if c == nil {
		return p, &ExternalServiceError{Op: "enrich", Err: fmt.Errorf("no classifier configured")}
	}

	names := ExerciseNames(p)
	if len(names) == 0 {
		return p.Clone(), nil
	}

	labels, err := c.Classify(ctx, names)
	if err != nil {
		return p, serviceErr("enrich", err)
	}

	byName := make(map[string]models.MuscleGroup, len(labels))
	for _, l := range labels {
		byName[l.ExerciseName] = models.ParseMuscleGroup(string(l.MuscleGroup))
	}

	out := p.Clone()
	for i := range out.Routines {
		exercises := out.Routines[i].Exercises
		for j := range exercises {
			exercises[j].MuscleGroup = byName[strings.TrimSpace(exercises[j].Name)]
		}
	}
	return out, nil
}
