package sheet

import (
	"errors"
	"strings"
	"testing"

	"github.com/claude/coachly/internal/models"
)

const sampleSheet = `
"Hypertrophy Block";"3 weeks"
Week 1
"Push"
#;EXERCISE;SETS;REPS;KG;REST;NOTES
1;Bench Press;3;8-10;82,5;120;pause on chest
2;Lateral Raise;3;15;10

"Pull"
#;EXERCISE;SETS;REPS;KG;REST;NOTES
1;Pull-up;4;6
2;Rowing Machine;1;20 min

Week 2
"Push"
1;Bench Press;3;8-10;82,5;120;pause on chest
2;Lateral Raise;3;15;10

"Legs"
1;Squat;5;5;120;180
`

// TestParseWeeks verifies a multi-week sheet becomes a periodized program
// with per-week placement orders.
func TestParseWeeks(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if p.Title != "Hypertrophy Block" || p.Duration != 3 || !p.IsPeriodized {
		t.Errorf("program = %q/%d/%v, want Hypertrophy Block/3/true", p.Title, p.Duration, p.IsPeriodized)
	}
	if len(p.Placements) != 4 {
		t.Fatalf("placements = %d, want 4", len(p.Placements))
	}

	want := []struct {
		week, order int
		routine     string
	}{
		{1, 1, "Push"}, {1, 2, "Pull"}, {2, 1, "Push"}, {2, 2, "Legs"},
	}
	for i, w := range want {
		pl := p.Placements[i]
		week, _ := pl.WeekOf()
		r, ok := p.RoutineByID(pl.RoutineID)
		if !ok {
			t.Fatalf("placement %d references unknown routine %q", i, pl.RoutineID)
		}
		if week != w.week || pl.Order != w.order || r.Name != w.routine {
			t.Errorf("placement %d = week %d order %d %q, want week %d order %d %q",
				i, week, pl.Order, r.Name, w.week, w.order, w.routine)
		}
	}
}

// TestParseSharesRepeatedRoutines verifies an identical routine repeated in
// another week is stored once.
func TestParseSharesRepeatedRoutines(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(p.Routines) != 3 {
		t.Errorf("routines = %d, want 3 (Push shared)", len(p.Routines))
	}
	if p.Placements[0].RoutineID != p.Placements[2].RoutineID {
		t.Error("week 1 and week 2 Push placements should share a routine")
	}
}

// TestParseExerciseFields verifies optional columns, European decimals and
// cardio detection.
func TestParseExerciseFields(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	push := p.Routines[0].Exercises
	if push[0].Weight != 82.5 || push[0].RestSeconds != 120 || push[0].Notes != "pause on chest" {
		t.Errorf("bench = %+v", push[0])
	}
	if push[1].Weight != 10 || push[1].RestSeconds != 0 {
		t.Errorf("lateral raise = %+v", push[1])
	}
	pull := p.Routines[1].Exercises
	if pull[0].IsCardio || !pull[1].IsCardio {
		t.Errorf("cardio flags = %v/%v, want false/true", pull[0].IsCardio, pull[1].IsCardio)
	}
}

// TestParseSingleWeekHeader verifies one week header is enough to make the
// sheet periodized, with the declared duration kept.
func TestParseSingleWeekHeader(t *testing.T) {
	input := `
"Deload";"2 weeks"
Week 1
"Full Body"
1;Squat;2;5;80
`
	p, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !p.IsPeriodized || p.Duration != 2 {
		t.Errorf("program = periodized %v duration %d, want periodized/2", p.IsPeriodized, p.Duration)
	}
	if len(p.Placements) != 1 {
		t.Fatalf("placements = %d, want 1", len(p.Placements))
	}
	if w, ok := p.Placements[0].WeekOf(); !ok || w != 1 {
		t.Errorf("placement week = %v, want 1", p.Placements[0].Week)
	}
}

// TestParseFlat verifies a sheet without week headers is a flat program
// with one order sequence.
func TestParseFlat(t *testing.T) {
	input := `
"Full Body A"
1;Squat;3;5;100

"Full Body B"
1;Deadlift;1;5;140
`
	p, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if p.IsPeriodized || p.Duration != 1 {
		t.Errorf("program = periodized %v duration %d, want flat/1", p.IsPeriodized, p.Duration)
	}
	for i, pl := range p.Placements {
		if pl.Week != nil {
			t.Errorf("placement %d has week %d", i, *pl.Week)
		}
		if pl.Order != i+1 {
			t.Errorf("placement %d order = %d, want %d", i, pl.Order, i+1)
		}
	}
}

// TestParseErrors verifies malformed sheets are rejected with a ParseError.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "\n\n"},
		{"exercise outside routine", "1;Squat;3;5\n"},
		{"routine before week", "\"A\"\n1;Squat;3;5\n\nWeek 1\n\"B\"\n1;Row;3;8\n"},
		{"repeated week", "Week 1\n\"A\"\n1;Squat;3;5\nWeek 1\n\"B\"\n1;Row;3;8\n"},
		{"week zero", "Week 0\n\"A\"\n1;Squat;3;5\n"},
		{"duration below weeks", "\"T\";\"1 week\"\nWeek 2\n\"A\"\n1;Squat;3;5\n"},
		{"late title", "\"A\"\n1;Squat;3;5\n\"T\";\"2 weeks\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
		})
	}
}

// TestIsCardioTarget covers the reps cell shapes seen in coach sheets.
func TestIsCardioTarget(t *testing.T) {
	tests := []struct {
		reps string
		want bool
	}{
		{"20 min", true},
		{"45s", true},
		{"2,5 km", true},
		{"400m", true},
		{"8-10", false},
		{"12", false},
		{"AMRAP", false},
	}
	for _, tt := range tests {
		if got := isCardioTarget(tt.reps); got != tt.want {
			t.Errorf("isCardioTarget(%q) = %v, want %v", tt.reps, got, tt.want)
		}
	}
}

// TestParseMuscleGroupsUnset verifies the text layout leaves muscle groups
// for enrichment.
func TestParseMuscleGroupsUnset(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	for _, r := range p.Routines {
		for _, ex := range r.Exercises {
			if ex.MuscleGroup != models.MuscleGroupUnknown {
				t.Errorf("%s muscle group = %q, want unset", ex.Name, ex.MuscleGroup)
			}
		}
	}
}
