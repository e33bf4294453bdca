package sheet

import (
	"fmt"
	"sort"

	"github.com/claude/coachly/internal/models"
)

type block struct {
	week    int // 0 when the sheet has no week headers
	routine models.Routine
}

// builder collects routine blocks in reading order and assembles them into
// a program. Both the text and the XLSX readers feed it.
type builder struct {
	title         string
	declaredWeeks int

	sawWeek   bool
	week      int
	seenWeeks map[int]bool
	current   *models.Routine
	blocks    []block
}

func newBuilder() *builder {
	return &builder{seenWeeks: make(map[int]bool)}
}

func (b *builder) started() bool {
	return b.sawWeek || b.current != nil || len(b.blocks) > 0
}

func (b *builder) startWeek(week int) error {
	b.endRoutine()
	if week < 1 {
		return fmt.Errorf("week %d: weeks start at 1", week)
	}
	if b.seenWeeks[week] {
		return fmt.Errorf("week %d appears twice", week)
	}
	if !b.sawWeek && len(b.blocks) > 0 {
		return fmt.Errorf("week %d: routines found before the first week header", week)
	}
	b.sawWeek = true
	b.week = week
	b.seenWeeks[week] = true
	return nil
}

func (b *builder) startRoutine(name string) error {
	b.endRoutine()
	if name == "" {
		return fmt.Errorf("routine without a name")
	}
	b.current = &models.Routine{Name: name, Exercises: []models.Exercise{}}
	return nil
}

func (b *builder) addExercise(ex models.Exercise) error {
	if b.current == nil {
		return fmt.Errorf("exercise %q outside a routine", ex.Name)
	}
	if ex.Name == "" {
		return fmt.Errorf("exercise without a name")
	}
	b.current.Exercises = append(b.current.Exercises, ex)
	return nil
}

func (b *builder) endRoutine() {
	if b.current == nil {
		return
	}
	b.blocks = append(b.blocks, block{week: b.week, routine: *b.current})
	b.current = nil
}

// build assembles the program. Any week header makes it periodized. Blocks
// with identical names and exercises share one routine, so a routine
// repeated across weeks stays a single library entry.
func (b *builder) build() (*models.Program, error) {
	b.endRoutine()
	if len(b.blocks) == 0 {
		return nil, &ParseError{Msg: "no routines found"}
	}

	p := &models.Program{
		Title:        b.title,
		IsPeriodized: b.sawWeek,
		Placements:   []models.RoutinePlacement{},
		Routines:     []models.Routine{},
	}

	maxWeek := 0
	for w := range b.seenWeeks {
		if w > maxWeek {
			maxWeek = w
		}
	}
	switch {
	case b.declaredWeeks > 0 && b.declaredWeeks < maxWeek:
		return nil, &ParseError{Msg: fmt.Sprintf("title declares %d weeks but week %d is present", b.declaredWeeks, maxWeek)}
	case b.declaredWeeks > 0:
		p.Duration = b.declaredWeeks
	case maxWeek > 0:
		p.Duration = maxWeek
	default:
		p.Duration = 1
	}

	routineByKey := make(map[string]string)
	order := make(map[int]int)
	for _, bl := range b.blocks {
		key := fmt.Sprintf("%q%v", bl.routine.Name, bl.routine.Exercises)
		id, ok := routineByKey[key]
		if !ok {
			id = fmt.Sprintf("r%d", len(p.Routines)+1)
			r := bl.routine
			r.ID = id
			p.Routines = append(p.Routines, r)
			routineByKey[key] = id
		}

		order[bl.week]++
		pl := models.RoutinePlacement{
			ID:        fmt.Sprintf("pl%d", len(p.Placements)+1),
			RoutineID: id,
			Order:     order[bl.week],
		}
		if b.sawWeek {
			pl.Week = models.Week(bl.week)
		}
		p.Placements = append(p.Placements, pl)
	}

	// Placements follow week order even when week sheets were read out of order.
	sort.SliceStable(p.Placements, func(i, j int) bool {
		wi, _ := p.Placements[i].WeekOf()
		wj, _ := p.Placements[j].WeekOf()
		return wi < wj
	})
	return p, nil
}
