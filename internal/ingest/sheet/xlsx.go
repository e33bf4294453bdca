package sheet

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/claude/coachly/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	sheetProgram  = "Program"
	sheetRoutines = "Routines"
)

var (
	weekSheetRe = regexp.MustCompile(`^(?i)week\s+(\d+)$`)

	columns = []string{"Routine", "Exercise", "Sets", "Reps", "Weight", "Rest", "Notes", "Muscle group"}
)

// Column indexes within a routine sheet.
const (
	colRoutine = iota
	colExercise
	colSets
	colReps
	colWeight
	colRest
	colNotes
	colMuscleGroup
)

// ReadXLSX reads a workbook with one "Week N" sheet per week, or a single
// routines sheet for a flat program, and returns a template program.
func ReadXLSX(r io.Reader) (*models.Program, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	b := newBuilder()
	if err := readMeta(f, b); err != nil {
		return nil, err
	}

	type weekSheet struct {
		name string
		week int
	}
	var weeks []weekSheet
	var flat string
	for _, name := range f.GetSheetList() {
		if m := weekSheetRe.FindStringSubmatch(strings.TrimSpace(name)); m != nil {
			w, _ := strconv.Atoi(m[1])
			weeks = append(weeks, weekSheet{name: name, week: w})
			continue
		}
		if name != sheetProgram && (flat == "" || name == sheetRoutines) {
			flat = name
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].week < weeks[j].week })

	if len(weeks) == 0 {
		if flat == "" {
			return nil, &ParseError{Msg: "workbook has no routine sheet"}
		}
		if err := readRoutineSheet(f, flat, b); err != nil {
			return nil, err
		}
		return b.build()
	}

	for _, ws := range weeks {
		if err := b.startWeek(ws.week); err != nil {
			return nil, &ParseError{Msg: fmt.Sprintf("sheet %q: %v", ws.name, err)}
		}
		if err := readRoutineSheet(f, ws.name, b); err != nil {
			return nil, err
		}
	}
	return b.build()
}

// readMeta picks up the title and declared duration from the program sheet,
// if the workbook has one.
func readMeta(f *excelize.File, b *builder) error {
	if idx, _ := f.GetSheetIndex(sheetProgram); idx < 0 {
		return nil
	}
	rows, err := f.GetRows(sheetProgram)
	if err != nil {
		return fmt.Errorf("reading sheet %q: %w", sheetProgram, err)
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(row[0])) {
		case "title":
			b.title = strings.TrimSpace(row[1])
		case "duration", "duration (weeks)":
			n, err := strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil || n < 1 {
				return &ParseError{Msg: fmt.Sprintf("sheet %q: invalid duration %q", sheetProgram, row[1])}
			}
			b.declaredWeeks = n
		}
	}
	return nil
}

func readRoutineSheet(f *excelize.File, sheet string, b *builder) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	current := ""
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), columns[colRoutine]) {
			continue // header
		}
		routine := cell(row, colRoutine)
		name := cell(row, colExercise)

		// Blank row = routine boundary
		if routine == "" && name == "" {
			b.endRoutine()
			current = ""
			continue
		}
		if routine != "" && routine != current {
			if err := b.startRoutine(routine); err != nil {
				return &ParseError{Line: i + 1, Msg: fmt.Sprintf("sheet %q: %v", sheet, err)}
			}
			current = routine
		}
		if name == "" {
			continue
		}

		sets, _ := strconv.Atoi(cell(row, colSets))
		rest, _ := strconv.Atoi(strings.TrimSuffix(cell(row, colRest), "s"))
		ex := models.Exercise{
			Name:        name,
			Sets:        sets,
			Reps:        cell(row, colReps),
			Weight:      parseEuropeanFloat(cell(row, colWeight)),
			RestSeconds: rest,
			Notes:       cell(row, colNotes),
			MuscleGroup: models.ParseMuscleGroup(cell(row, colMuscleGroup)),
		}
		ex.IsCardio = isCardioTarget(ex.Reps)
		if err := b.addExercise(ex); err != nil {
			return &ParseError{Line: i + 1, Msg: fmt.Sprintf("sheet %q: %v", sheet, err)}
		}
	}
	b.endRoutine()
	return nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// WriteXLSX writes p as a workbook readable by ReadXLSX: a program sheet,
// then one sheet per week for a periodized program or a single routines
// sheet for a flat one.
func WriteXLSX(w io.Writer, p *models.Program) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetProgram); err != nil {
		return fmt.Errorf("naming program sheet: %w", err)
	}
	_ = f.SetCellValue(sheetProgram, "A1", "Title")
	_ = f.SetCellValue(sheetProgram, "B1", p.Title)
	_ = f.SetCellValue(sheetProgram, "A2", "Duration (weeks)")
	_ = f.SetCellValue(sheetProgram, "B2", p.Duration)
	_ = f.SetCellValue(sheetProgram, "A3", "Periodized")
	_ = f.SetCellValue(sheetProgram, "B3", p.IsPeriodized)
	_ = f.SetColWidth(sheetProgram, "A", "A", 18)
	_ = f.SetColWidth(sheetProgram, "B", "B", 30)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if !p.IsPeriodized {
		if err := writeRoutineSheet(f, sheetRoutines, p, p.Placements, headerStyle); err != nil {
			return err
		}
	} else {
		for week := 1; week <= p.Duration; week++ {
			name := fmt.Sprintf("Week %d", week)
			if err := writeRoutineSheet(f, name, p, p.PlacementsForWeek(week), headerStyle); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRoutineSheet(f *excelize.File, sheet string, p *models.Program, placements []models.RoutinePlacement, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %q: %w", sheet, err)
	}
	for i, h := range columns {
		c, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, c, h)
	}
	_ = f.SetCellStyle(sheet, "A1", "H1", headerStyle)

	sorted := make([]models.RoutinePlacement, len(placements))
	copy(sorted, placements)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	row := 2
	for _, pl := range sorted {
		r, ok := p.RoutineByID(pl.RoutineID)
		if !ok {
			return fmt.Errorf("placement %s references unknown routine %s", pl.ID, pl.RoutineID)
		}
		if len(r.Exercises) == 0 {
			_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Name)
			row++
		}
		for _, ex := range r.Exercises {
			_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Name)
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), ex.Name)
			_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), ex.Sets)
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), ex.Reps)
			if ex.Weight > 0 {
				_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), ex.Weight)
			}
			if ex.RestSeconds > 0 {
				_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), ex.RestSeconds)
			}
			_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), ex.Notes)
			_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), string(ex.MuscleGroup))
			row++
		}
		row++ // blank row between routines
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "F", 10)
	_ = f.SetColWidth(sheet, "G", "G", 30)
	_ = f.SetColWidth(sheet, "H", "H", 14)
	return nil
}
