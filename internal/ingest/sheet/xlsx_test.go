package sheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/claude/coachly/internal/models"
	"github.com/xuri/excelize/v2"
)

func periodizedProgram() *models.Program {
	return &models.Program{
		Title:        "Strength Base",
		Duration:     3,
		IsPeriodized: true,
		Placements: []models.RoutinePlacement{
			{ID: "a", RoutineID: "upper", Week: models.Week(1), Order: 2},
			{ID: "b", RoutineID: "lower", Week: models.Week(1), Order: 1},
			{ID: "c", RoutineID: "upper", Week: models.Week(2), Order: 1},
		},
		Routines: []models.Routine{
			{ID: "upper", Name: "Upper", Exercises: []models.Exercise{
				{Name: "Bench Press", Sets: 5, Reps: "5", Weight: 92.5, RestSeconds: 180, MuscleGroup: models.MuscleGroupChest},
				{Name: "Row", Sets: 4, Reps: "8-10", Notes: "strict"},
			}},
			{ID: "lower", Name: "Lower", Exercises: []models.Exercise{
				{Name: "Squat", Sets: 5, Reps: "5", Weight: 120, MuscleGroup: models.MuscleGroupQuadriceps},
				{Name: "Bike", Sets: 1, Reps: "15 min", IsCardio: true},
			}},
		},
	}
}

// TestXLSXRoundTrip verifies a written workbook reads back into the same
// schedule and exercise content.
func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, periodizedProgram()); err != nil {
		t.Fatalf("write error: %v", err)
	}

	got, err := ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if got.Title != "Strength Base" || got.Duration != 3 || !got.IsPeriodized {
		t.Errorf("program = %q/%d/%v", got.Title, got.Duration, got.IsPeriodized)
	}
	if len(got.Routines) != 2 {
		t.Errorf("routines = %d, want 2 (Upper shared across weeks)", len(got.Routines))
	}

	want := []struct {
		week, order int
		routine     string
	}{
		{1, 1, "Lower"}, {1, 2, "Upper"}, {2, 1, "Upper"},
	}
	if len(got.Placements) != len(want) {
		t.Fatalf("placements = %d, want %d", len(got.Placements), len(want))
	}
	for i, w := range want {
		pl := got.Placements[i]
		week, _ := pl.WeekOf()
		r, _ := got.RoutineByID(pl.RoutineID)
		if week != w.week || pl.Order != w.order || r == nil || r.Name != w.routine {
			t.Errorf("placement %d = week %d order %d routine %v, want %+v", i, week, pl.Order, r, w)
		}
	}

	upper, _ := got.RoutineByID(got.Placements[1].RoutineID)
	bench := upper.Exercises[0]
	if bench.Weight != 92.5 || bench.RestSeconds != 180 || bench.MuscleGroup != models.MuscleGroupChest {
		t.Errorf("bench = %+v", bench)
	}
	if upper.Exercises[1].Notes != "strict" {
		t.Errorf("row notes = %q", upper.Exercises[1].Notes)
	}
	lower, _ := got.RoutineByID(got.Placements[0].RoutineID)
	if !lower.Exercises[1].IsCardio {
		t.Error("bike should be cardio")
	}
}

// TestXLSXFlatRoundTrip verifies a flat program uses a single routines
// sheet and reads back flat.
func TestXLSXFlatRoundTrip(t *testing.T) {
	p := &models.Program{
		Title:    "Minimal",
		Duration: 4,
		Placements: []models.RoutinePlacement{
			{ID: "1", RoutineID: "fb", Order: 1},
			{ID: "2", RoutineID: "fb", Order: 2},
		},
		Routines: []models.Routine{
			{ID: "fb", Name: "Full Body", Exercises: []models.Exercise{{Name: "Deadlift", Sets: 3, Reps: "5"}}},
		},
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, p); err != nil {
		t.Fatalf("write error: %v", err)
	}
	got, err := ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if got.IsPeriodized || got.Duration != 4 {
		t.Errorf("program = periodized %v duration %d, want flat/4", got.IsPeriodized, got.Duration)
	}
	if len(got.Placements) != 2 || len(got.Routines) != 1 {
		t.Errorf("placements/routines = %d/%d, want 2/1", len(got.Placements), len(got.Routines))
	}
}

// TestReadXLSXHandBuilt verifies a workbook without a program sheet, with
// week sheets out of order, is accepted.
func TestReadXLSXHandBuilt(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetSheetName("Sheet1", "Week 2")
	_ = f.SetSheetRow("Week 2", "A1", &[]any{"Routine", "Exercise", "Sets", "Reps"})
	_ = f.SetSheetRow("Week 2", "A2", &[]any{"Legs", "Squat", 5, "5"})
	_, _ = f.NewSheet("Week 1")
	_ = f.SetSheetRow("Week 1", "A1", &[]any{"Routine", "Exercise", "Sets", "Reps"})
	_ = f.SetSheetRow("Week 1", "A2", &[]any{"Push", "Dip", 3, "10"})
	_ = f.SetSheetRow("Week 1", "A3", &[]any{"", "Push-up", 3, "20"})
	_ = f.SetSheetRow("Week 1", "A4", &[]any{"Pull", "Chin-up", 3, "8"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write error: %v", err)
	}

	got, err := ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if got.Duration != 2 || len(got.Placements) != 3 {
		t.Fatalf("duration/placements = %d/%d, want 2/3", got.Duration, len(got.Placements))
	}
	first, _ := got.RoutineByID(got.Placements[0].RoutineID)
	if w, _ := got.Placements[0].WeekOf(); w != 1 || first.Name != "Push" || len(first.Exercises) != 2 {
		t.Errorf("first placement = week %d routine %+v", w, first)
	}
}

// TestReadXLSXNotAWorkbook verifies garbage input fails cleanly.
func TestReadXLSXNotAWorkbook(t *testing.T) {
	if _, err := ReadXLSX(bytes.NewReader([]byte("not a zip"))); err == nil {
		t.Fatal("expected error")
	}
}

// TestReadXLSXEmptyWeeks verifies a workbook with only empty week sheets is
// rejected as having no routines.
func TestReadXLSXEmptyWeeks(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetSheetName("Sheet1", "Week 1")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write error: %v", err)
	}
	_, err := ReadXLSX(&buf)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}
