package ingest

// Result holds the outcome of a sheet ingest.
type Result struct {
	ProgramID          string   `json:"program_id"`
	Title              string   `json:"title"`
	Duration           int      `json:"duration"`
	IsPeriodized       bool     `json:"is_periodized"`
	Weeks              int      `json:"weeks"`
	RoutinesImported   int      `json:"routines_imported"`
	PlacementsImported int      `json:"placements_imported"`
	ExercisesImported  int      `json:"exercises_imported"`
	Warnings           []string `json:"warnings,omitempty"`

	Message string `json:"message,omitempty"`
}
