// Package export renders workout history as Markdown and XLSX reports.
package export

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/claude/repbuddy/internal/metrics"
	"github.com/claude/repbuddy/internal/models"
)

// NoWorkoutsMarkdown is returned for an empty history.
const NoWorkoutsMarkdown = "# RepBuddy Workout Export\n\nNo workouts logged yet.\n"

const dateLayout = "Jan 2, 2006"

// Markdown renders workouts newest first. Workouts with equal dates keep
// their input order. profile may be nil.
func Markdown(workouts []models.Workout, profile *models.UserProfile, exportedAt time.Time) string {
	if len(workouts) == 0 {
		return NoWorkoutsMarkdown
	}

	sorted := slices.Clone(workouts)
	slices.SortStableFunc(sorted, func(a, b models.Workout) int {
		return b.Date.Compare(a.Date)
	})

	var b strings.Builder
	b.WriteString("# RepBuddy Workout Export\n\n")
	fmt.Fprintf(&b, "Exported on %s\n", exportedAt.Format(dateLayout+" 15:04"))
	fmt.Fprintf(&b, "Workouts: %d\n", len(sorted))

	if profile != nil && !profile.IsEmpty() {
		b.WriteString("\n## Profile\n\n")
		writeProfile(&b, *profile)
	}

	for _, w := range sorted {
		b.WriteString("\n## ")
		b.WriteString(w.Date.Format(dateLayout))
		if d := metrics.FormatDuration(w.DurationMs); d != "" {
			b.WriteString(" · ")
			b.WriteString(d)
		}
		b.WriteString("\n")

		for _, ex := range w.Exercises {
			writeExercise(&b, ex)
		}
	}
	return b.String()
}

func writeProfile(b *strings.Builder, p models.UserProfile) {
	if p.Age != nil {
		fmt.Fprintf(b, "- Age: %s\n", formatNumber(*p.Age))
	}
	if p.Weight != nil {
		fmt.Fprintf(b, "- Weight: %s kg\n", formatNumber(*p.Weight))
	}
	if p.HeightFt != nil || p.HeightIn != nil {
		var ft, in float64
		if p.HeightFt != nil {
			ft = *p.HeightFt
		}
		if p.HeightIn != nil {
			in = *p.HeightIn
		}
		fmt.Fprintf(b, "- Height: %s ft %s in\n", formatNumber(ft), formatNumber(in))
	}
}

func writeExercise(b *strings.Builder, ex models.ExerciseLog) {
	fmt.Fprintf(b, "\n### %s\n\n", ex.Name)
	if len(ex.Sets) == 0 {
		b.WriteString("No sets logged.\n")
	}
	for i, set := range ex.Sets {
		if ex.Bodyweight {
			fmt.Fprintf(b, "- Set %d: %s reps\n", i+1, formatNumber(set.Reps))
			continue
		}
		fmt.Fprintf(b, "- Set %d: %s kg × %s reps\n", i+1, formatNumber(set.Weight), formatNumber(set.Reps))
	}
	if vol, ok := metrics.ExerciseVolume(ex); ok {
		fmt.Fprintf(b, "\nVolume: %s kg\n", humanize.Commaf(vol))
	}
	if notes := strings.TrimSpace(ex.Notes); notes != "" {
		fmt.Fprintf(b, "\nNotes: %s\n", notes)
	}
}

// formatNumber prints integers without a decimal point and other values at
// their shortest exact form.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
