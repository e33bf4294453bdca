package models

import "strings"

// MuscleGroup is the primary muscle group an exercise trains.
// The zero value means the group is unknown.
type MuscleGroup string

const (
	MuscleGroupUnknown    MuscleGroup = ""
	MuscleGroupChest      MuscleGroup = "chest"
	MuscleGroupBack       MuscleGroup = "back"
	MuscleGroupShoulders  MuscleGroup = "shoulders"
	MuscleGroupBiceps     MuscleGroup = "biceps"
	MuscleGroupTriceps    MuscleGroup = "triceps"
	MuscleGroupForearms   MuscleGroup = "forearms"
	MuscleGroupQuadriceps MuscleGroup = "quadriceps"
	MuscleGroupHamstrings MuscleGroup = "hamstrings"
	MuscleGroupGlutes     MuscleGroup = "glutes"
	MuscleGroupCalves     MuscleGroup = "calves"
	MuscleGroupCore       MuscleGroup = "core"
	MuscleGroupFullBody   MuscleGroup = "full_body"
	MuscleGroupCardio     MuscleGroup = "cardio"
)

// MuscleGroups lists every known label, in display order.
var MuscleGroups = []MuscleGroup{
	MuscleGroupChest,
	MuscleGroupBack,
	MuscleGroupShoulders,
	MuscleGroupBiceps,
	MuscleGroupTriceps,
	MuscleGroupForearms,
	MuscleGroupQuadriceps,
	MuscleGroupHamstrings,
	MuscleGroupGlutes,
	MuscleGroupCalves,
	MuscleGroupCore,
	MuscleGroupFullBody,
	MuscleGroupCardio,
}

// ParseMuscleGroup normalizes a free-form label ("Full Body", " CHEST ")
// to a known MuscleGroup. Anything outside the enumeration is unknown.
func ParseMuscleGroup(s string) MuscleGroup {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, g := range MuscleGroups {
		if string(g) == s {
			return g
		}
	}
	return MuscleGroupUnknown
}
