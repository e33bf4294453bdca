package periodize_test

import (
	"errors"
	"testing"

	"github.com/claude/coachly/internal/periodize"
)

// TestDecodeProgramValid verifies a well-formed document decodes, including
// an explicit null week.
func TestDecodeProgramValid(t *testing.T) {
	doc := `{
		"id": "p1",
		"title": "Base",
		"duration": 3,
		"is_periodized": false,
		"placements": [{"id": "pl1", "routine_id": "r1", "week": null, "order": 1}],
		"routines": [{"id": "r1", "name": "Full Body", "exercises": [{"name": "Deadlift", "sets": 3, "reps": "5", "weight": 140}]}]
	}`
	p, err := periodize.DecodeProgram([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Duration != 3 || p.IsPeriodized {
		t.Errorf("program = %+v", p)
	}
	if len(p.Placements) != 1 || p.Placements[0].Week != nil {
		t.Errorf("placements = %+v, want one unassigned placement", p.Placements)
	}
	if p.Routines[0].Exercises[0].Weight != 140 {
		t.Errorf("weight = %v, want 140", p.Routines[0].Exercises[0].Weight)
	}
}

// TestDecodeProgramUnusableWeek verifies week 0 and negative weeks decode
// as unassigned placements and are left out when the program is flattened.
func TestDecodeProgramUnusableWeek(t *testing.T) {
	for _, week := range []string{"0", "-1"} {
		t.Run("week "+week, func(t *testing.T) {
			doc := `{"duration": 2, "is_periodized": true, "placements": [` +
				`{"id": "a", "routine_id": "r1", "week": 1, "order": 1},` +
				`{"id": "b", "routine_id": "r1", "week": ` + week + `, "order": 1}],` +
				`"routines": [{"id": "r1"}]}`
			p, err := periodize.DecodeProgram([]byte(doc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := p.Placements[1].WeekOf(); ok {
				t.Errorf("placement b has a usable week %d", *p.Placements[1].Week)
			}

			got, err := periodize.TogglePeriodization(p)
			if err != nil {
				t.Fatalf("toggle error: %v", err)
			}
			if got.IsPeriodized || len(got.Placements) != 1 || got.Placements[0].ID != "a" {
				t.Errorf("placements = %+v, want only a", got.Placements)
			}
		})
	}
}

// TestDecodeProgramMissingRoutines verifies an omitted routine list decodes as
// empty, which is valid for a program with no placements.
func TestDecodeProgramMissingRoutines(t *testing.T) {
	p, err := periodize.DecodeProgram([]byte(`{"duration": 1, "is_periodized": true, "placements": []}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Routines == nil {
		t.Error("routines = nil, want empty slice")
	}
}

// TestDecodeProgramErrors verifies malformed documents fail with a
// ValidationError naming the offending field.
func TestDecodeProgramErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"not json", `{"duration":`, "document"},
		{"array document", `[]`, "document"},
		{"missing duration", `{"is_periodized": false, "placements": []}`, "duration"},
		{"null duration", `{"duration": null, "is_periodized": false, "placements": []}`, "duration"},
		{"string duration", `{"duration": "3", "is_periodized": false, "placements": []}`, "duration"},
		{"zero duration", `{"duration": 0, "is_periodized": false, "placements": []}`, "duration"},
		{"missing flag", `{"duration": 2, "placements": []}`, "is_periodized"},
		{"string flag", `{"duration": 2, "is_periodized": "no", "placements": []}`, "is_periodized"},
		{"missing placements", `{"duration": 2, "is_periodized": false}`, "placements"},
		{"object placements", `{"duration": 2, "is_periodized": false, "placements": {"a": 1}}`, "placements"},
		{"string routines", `{"duration": 2, "is_periodized": false, "placements": [], "routines": "r1"}`, "routines"},
		{"string week", `{"duration": 2, "is_periodized": true, "placements": [{"routine_id": "r1", "week": "1", "order": 1}], "routines": [{"id": "r1"}]}`, "document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := periodize.DecodeProgram([]byte(tt.doc))
			if err == nil {
				t.Fatalf("expected error, got %+v", p)
			}
			if p != nil {
				t.Errorf("got partial program %+v", p)
			}
			var verr *periodize.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %T (%v) is not *ValidationError", err, err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q (%v)", verr.Field, tt.field, err)
			}
		})
	}
}
