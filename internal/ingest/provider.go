// Package ingest holds what the importers share.
package ingest

// Result holds the outcome of an import.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	WorkoutsSaved    int `json:"workouts_saved"`
	WorkoutsReplaced int `json:"workouts_replaced"`
	ExercisesCreated int `json:"exercises_created"`

	SetsReceived   int `json:"sets_received"`
	SetsImported   int `json:"sets_imported"`
	WarmupsSkipped int `json:"warmups_skipped"`

	Message string `json:"message,omitempty"`
}
