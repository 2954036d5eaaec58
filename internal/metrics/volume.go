// Package metrics derives the training numbers shown to the user: set,
// exercise and workout volume, weekly and monthly aggregates, and
// duration formatting.
package metrics

import "github.com/claude/repbuddy/internal/models"

// SetVolume is weight × reps for one set.
func SetVolume(weight, reps float64) float64 {
	return weight * reps
}

// ExerciseVolume sums set volume for a log. ok is false for bodyweight
// exercises, where weight is not meaningful.
func ExerciseVolume(log models.ExerciseLog) (volume float64, ok bool) {
	if log.Bodyweight {
		return 0, false
	}
	for _, s := range log.Sets {
		volume += SetVolume(s.Weight, s.Reps)
	}
	return volume, true
}

// WorkoutVolume sums the volume of every non-bodyweight exercise.
func WorkoutVolume(w models.Workout) float64 {
	var total float64
	for _, log := range w.Exercises {
		if v, ok := ExerciseVolume(log); ok {
			total += v
		}
	}
	return total
}

// TotalVolume sums WorkoutVolume across workouts.
func TotalVolume(ws []models.Workout) float64 {
	var total float64
	for _, w := range ws {
		total += WorkoutVolume(w)
	}
	return total
}
