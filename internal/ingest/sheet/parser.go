// Package sheet reads coaching programs laid out as spreadsheets, either as
// a semicolon separated text export or as an XLSX workbook.
//
// The text layout is line oriented:
//
//	"Hypertrophy Block";"4 weeks"
//	Week 1
//	"Push"
//	#;EXERCISE;SETS;REPS;KG;REST;NOTES
//	1;Bench Press;3;8-10;82,5;120
//	2;Lateral Raise;3;15;10
//
//	"Pull"
//	1;Pull-up;4;6
//
// The title line and week headers are optional. A file without week
// headers is a flat program. Blank lines end a routine.
package sheet

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/coachly/internal/models"
)

var (
	// titleRe matches: "Hypertrophy Block";"4 weeks"
	titleRe = regexp.MustCompile(`^"(.+)";"(\d+)\s+weeks?"$`)

	// weekRe matches: Week 3
	weekRe = regexp.MustCompile(`^(?i)week\s+(\d+)$`)

	// routineRe matches: "Push Day"
	routineRe = regexp.MustCompile(`^"([^"]+)"$`)

	// exerciseRe matches: 1;Bench Press;3;8-10[;82,5[;120[;notes]]]
	exerciseRe = regexp.MustCompile(`^(\d+);([^;]+);(\d+);([^;]*)(?:;([^;]*))?(?:;([^;]*))?(?:;(.*))?$`)

	// columnHeaderRe matches: #;EXERCISE;SETS;REPS;KG;REST;NOTES
	columnHeaderRe = regexp.MustCompile(`^(?i)#;EXERCISE;SETS;REPS(;.*)?$`)

	// cardioTargetRe matches time or distance targets: 20 min, 45s, 2,5 km
	cardioTargetRe = regexp.MustCompile(`^\d+([.,]\d+)?\s*(min|sec|s|km|m)$`)
)

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Parse reads the text layout and returns a template program. Routine and
// placement identifiers are local to the result; callers import it through
// the periodization engine to get owned, globally unique identifiers.
func Parse(r io.Reader) (*models.Program, error) {
	scanner := bufio.NewScanner(r)
	b := newBuilder()
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Blank line = routine boundary
		if line == "" {
			b.endRoutine()
			continue
		}

		if columnHeaderRe.MatchString(line) {
			continue
		}

		if m := titleRe.FindStringSubmatch(line); m != nil {
			if b.started() {
				return nil, &ParseError{Line: lineNo, Msg: "title must come first"}
			}
			b.title = m[1]
			b.declaredWeeks, _ = strconv.Atoi(m[2])
			continue
		}

		if m := weekRe.FindStringSubmatch(line); m != nil {
			week, _ := strconv.Atoi(m[1])
			if err := b.startWeek(week); err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			continue
		}

		if m := routineRe.FindStringSubmatch(line); m != nil {
			if err := b.startRoutine(m[1]); err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			continue
		}

		if m := exerciseRe.FindStringSubmatch(line); m != nil {
			sets, _ := strconv.Atoi(m[3])
			ex := models.Exercise{
				Name:  strings.TrimSpace(m[2]),
				Sets:  sets,
				Reps:  strings.TrimSpace(m[4]),
				Notes: strings.TrimSpace(m[7]),
			}
			ex.Weight = parseEuropeanFloat(m[5])
			ex.RestSeconds, _ = strconv.Atoi(strings.TrimSpace(m[6]))
			ex.IsCardio = isCardioTarget(ex.Reps)
			if err := b.addExercise(ex); err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			continue
		}

		// Unknown line, likely a comment or spreadsheet footer
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	return b.build()
}

// parseEuropeanFloat converts a decimal that may use a comma separator.
// "82,5" -> 82.5, "" -> 0
func parseEuropeanFloat(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// isCardioTarget reports whether a reps cell holds a time or distance
// target ("20 min", "5 km") instead of a repetition count.
func isCardioTarget(reps string) bool {
	return cardioTargetRe.MatchString(strings.ToLower(reps))
}
