package models

import "time"

// WorkoutSet is a single logged set.
type WorkoutSet struct {
	Weight float64 `json:"weight"`
	Reps   float64 `json:"reps"`
}

// ExerciseLog is one exercise performed within a workout. Name and
// Bodyweight are snapshots taken when the log was created, so later edits
// to the library entry do not rewrite history.
type ExerciseLog struct {
	ID         string       `json:"id"`
	ExerciseID string       `json:"exerciseId"`
	Name       string       `json:"name"`
	Sets       []WorkoutSet `json:"sets"`
	Notes      string       `json:"notes,omitempty"`
	Bodyweight bool         `json:"bodyweight,omitempty"`
}

// NewExerciseLog starts an empty log for ex.
func NewExerciseLog(ex Exercise) ExerciseLog {
	return ExerciseLog{
		ID:         NewID(),
		ExerciseID: ex.ID,
		Name:       ex.Name,
		Sets:       []WorkoutSet{},
		Bodyweight: ex.Bodyweight,
	}
}

// Workout is either the in-progress session draft or a persisted record.
// DurationMs is zero until the session is finished.
type Workout struct {
	ID         string        `json:"id"`
	Date       time.Time     `json:"date"`
	Exercises  []ExerciseLog `json:"exercises"`
	DurationMs int64         `json:"durationMs,omitempty"`
}

// Clone returns a deep copy so callers can hand out snapshots of a draft.
func (w Workout) Clone() Workout {
	out := w
	out.Exercises = make([]ExerciseLog, len(w.Exercises))
	for i, ex := range w.Exercises {
		ex.Sets = append([]WorkoutSet{}, ex.Sets...)
		out.Exercises[i] = ex
	}
	return out
}

// SetCount returns the total number of sets across all exercises.
func (w Workout) SetCount() int {
	n := 0
	for _, ex := range w.Exercises {
		n += len(ex.Sets)
	}
	return n
}
