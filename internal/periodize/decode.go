package periodize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/claude/coachly/internal/models"
)

// DecodeProgram parses a program document coming from outside the engine
// (HTTP bodies, MCP arguments, stored JSON) and validates it.
//
// Unlike json.Unmarshal it distinguishes absent fields from zero values:
// duration, is_periodized and placements must all be present, and
// placements must be a JSON array (possibly empty).
func DecodeProgram(data []byte) (*models.Program, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalid("document", "not a JSON object: %v", err)
	}

	if err := requireKind(raw, "duration", '0'); err != nil {
		return nil, err
	}
	if err := requireKind(raw, "is_periodized", 't'); err != nil {
		return nil, err
	}
	if err := requireKind(raw, "placements", '['); err != nil {
		return nil, err
	}
	if _, ok := raw["routines"]; ok {
		if err := requireKind(raw, "routines", '['); err != nil {
			return nil, err
		}
	}

	var p models.Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, invalid("document", "%v", err)
	}
	if p.Routines == nil {
		p.Routines = []models.Routine{}
	}
	if err := validateProgram(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// requireKind checks that raw[field] exists and holds a JSON value of the
// given kind: '0' for a number, 't' for a boolean, '[' for an array.
func requireKind(raw map[string]json.RawMessage, field string, kind byte) error {
	v, ok := raw[field]
	v = bytes.TrimSpace(v)
	if !ok || len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return invalid(field, "is required")
	}

	var match bool
	var want string
	switch kind {
	case '0':
		match = v[0] == '-' || (v[0] >= '0' && v[0] <= '9')
		want = "a number"
	case 't':
		match = bytes.Equal(v, []byte("true")) || bytes.Equal(v, []byte("false"))
		want = "a boolean"
	case '[':
		match = v[0] == '['
		want = "an array"
	default:
		panic(fmt.Sprintf("requireKind: unknown kind %q", kind))
	}
	if !match {
		return invalid(field, "must be %s", want)
	}
	return nil
}
