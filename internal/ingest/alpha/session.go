package alpha

import "time"

// Session is one workout from an Alpha Progression export.
type Session struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []Exercise
}

// Exercise is one numbered exercise block within a session.
type Exercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []Set
}

// Set is a working or warm-up set. Bodyweight marks the "+N kg" notation,
// where WeightKg is load added to bodyweight.
type Set struct {
	Number     int
	WeightKg   float64
	Bodyweight bool
	Reps       int
	RIR        float64
	Warmup     bool
}
