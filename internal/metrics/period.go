package metrics

import (
	"time"

	"github.com/claude/repbuddy/internal/models"
)

// weeklyTarget is the number of workouts that fills the weekly progress bar.
const weeklyTarget = 5

// WeekStart returns the most recent Sunday at local midnight, in now's
// location.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(now.Weekday()))
}

// ThisWeek returns the workouts dated on or after WeekStart(now).
func ThisWeek(ws []models.Workout, now time.Time) []models.Workout {
	start := WeekStart(now)
	var out []models.Workout
	for _, w := range ws {
		if !w.Date.Before(start) {
			out = append(out, w)
		}
	}
	return out
}

// WeeklyVolume is the total volume of this week's workouts.
func WeeklyVolume(ws []models.Workout, now time.Time) float64 {
	return TotalVolume(ThisWeek(ws, now))
}

// MonthlyCount counts workouts in now's calendar month and year, compared
// in now's location.
func MonthlyCount(ws []models.Workout, now time.Time) int {
	n := 0
	for _, w := range ws {
		d := w.Date.In(now.Location())
		if d.Month() == now.Month() && d.Year() == now.Year() {
			n++
		}
	}
	return n
}

// Summary bundles the numbers shown on the home and history screens.
type Summary struct {
	WeeklyWorkouts int     `json:"weeklyWorkouts"`
	WeeklyVolume   float64 `json:"weeklyVolume"`
	WeeklyProgress int     `json:"weeklyProgress"`
	MonthlyCount   int     `json:"monthlyCount"`
	TotalWorkouts  int     `json:"totalWorkouts"`
	TotalVolume    float64 `json:"totalVolume"`
}

// Summarize computes a Summary for now.
func Summarize(ws []models.Workout, now time.Time) Summary {
	week := ThisWeek(ws, now)
	progress := len(week) * (100 / weeklyTarget)
	if progress > 100 {
		progress = 100
	}
	return Summary{
		WeeklyWorkouts: len(week),
		WeeklyVolume:   TotalVolume(week),
		WeeklyProgress: progress,
		MonthlyCount:   MonthlyCount(ws, now),
		TotalWorkouts:  len(ws),
		TotalVolume:    TotalVolume(ws),
	}
}
