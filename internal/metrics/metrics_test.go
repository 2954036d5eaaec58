package metrics

import (
	"testing"
	"time"

	"github.com/claude/repbuddy/internal/models"
)

// TestSetVolume verifies volume is the plain product, zero on either side.
func TestSetVolume(t *testing.T) {
	tests := []struct {
		w, r, want float64
	}{
		{100, 8, 800},
		{0, 12, 0},
		{60, 0, 0},
		{22.5, 10, 225},
	}
	for _, tt := range tests {
		if got := SetVolume(tt.w, tt.r); got != tt.want {
			t.Errorf("SetVolume(%v, %v) = %v, want %v", tt.w, tt.r, got, tt.want)
		}
	}
}

// TestExerciseVolumeBodyweight verifies bodyweight logs are not applicable.
func TestExerciseVolumeBodyweight(t *testing.T) {
	log := models.ExerciseLog{Sets: []models.WorkoutSet{{Weight: 100, Reps: 8}, {Weight: 100, Reps: 6}}}
	if v, ok := ExerciseVolume(log); !ok || v != 1400 {
		t.Errorf("ExerciseVolume = %v, %v; want 1400, true", v, ok)
	}
	log.Bodyweight = true
	if _, ok := ExerciseVolume(log); ok {
		t.Error("bodyweight log should not have a volume")
	}
}

// TestWorkoutVolumeSkipsBodyweight verifies workout volume excludes
// bodyweight logs.
func TestWorkoutVolumeSkipsBodyweight(t *testing.T) {
	w := models.Workout{Exercises: []models.ExerciseLog{
		{Sets: []models.WorkoutSet{{Weight: 50, Reps: 10}}},
		{Bodyweight: true, Sets: []models.WorkoutSet{{Weight: 80, Reps: 10}}},
	}}
	if got := WorkoutVolume(w); got != 500 {
		t.Errorf("WorkoutVolume = %v, want 500", got)
	}
}

// TestWeekStart verifies the week starts on the most recent Sunday at midnight.
func TestWeekStart(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"wednesday", time.Date(2024, 6, 5, 15, 30, 0, 0, loc), time.Date(2024, 6, 2, 0, 0, 0, 0, loc)},
		{"sunday itself", time.Date(2024, 6, 2, 0, 0, 1, 0, loc), time.Date(2024, 6, 2, 0, 0, 0, 0, loc)},
		{"saturday across month", time.Date(2024, 6, 1, 23, 0, 0, 0, loc), time.Date(2024, 5, 26, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.now); !got.Equal(tt.want) {
				t.Errorf("WeekStart(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

// TestSummarize verifies weekly and monthly filters and the progress cap.
func TestSummarize(t *testing.T) {
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) // Wednesday
	set := []models.WorkoutSet{{Weight: 10, Reps: 10}}
	mk := func(d time.Time) models.Workout {
		return models.Workout{Date: d, Exercises: []models.ExerciseLog{{Sets: set}}}
	}
	ws := []models.Workout{
		mk(time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)),  // this week, this month
		mk(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),  // last week, this month
		mk(time.Date(2024, 5, 31, 8, 0, 0, 0, time.UTC)), // last week, last month
		mk(time.Date(2023, 6, 3, 8, 0, 0, 0, time.UTC)),  // same month last year
	}
	s := Summarize(ws, now)
	if s.WeeklyWorkouts != 1 || s.WeeklyVolume != 100 {
		t.Errorf("weekly = %d / %v, want 1 / 100", s.WeeklyWorkouts, s.WeeklyVolume)
	}
	if s.MonthlyCount != 2 {
		t.Errorf("monthly = %d, want 2", s.MonthlyCount)
	}
	if s.TotalVolume != 400 || s.TotalWorkouts != 4 {
		t.Errorf("totals = %d / %v", s.TotalWorkouts, s.TotalVolume)
	}
	if s.WeeklyProgress != 20 {
		t.Errorf("progress = %d, want 20", s.WeeklyProgress)
	}

	var many []models.Workout
	for i := 0; i < 7; i++ {
		many = append(many, mk(now))
	}
	if p := Summarize(many, now).WeeklyProgress; p != 100 {
		t.Errorf("progress = %d, want capped 100", p)
	}
}

// TestFormatDuration verifies minute rounding and the hour split.
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, ""},
		{29_000, "0m"},
		{31_000, "1m"},
		{45 * 60_000, "45m"},
		{59*60_000 + 40_000, "1h 0m"},
		{95 * 60_000, "1h 35m"},
		{125*60_000 + 20_000, "2h 5m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

// TestFormatElapsed verifies the m:ss clock.
func TestFormatElapsed(t *testing.T) {
	if got := FormatElapsed(65); got != "1:05" {
		t.Errorf("got %q", got)
	}
	if got := FormatElapsed(3600); got != "60:00" {
		t.Errorf("got %q", got)
	}
}
