package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/repbuddy/internal/models"
)

// Scope selects which workouts an export covers.
type Scope string

const (
	ScopeLastMonth Scope = "last-month"
	ScopeAllTime   Scope = "all-time"
)

const lastMonthWindow = 30 * 24 * time.Hour

// ParseScope validates a scope name. Empty means all-time.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeAllTime:
		return ScopeAllTime, nil
	case ScopeLastMonth:
		return ScopeLastMonth, nil
	default:
		return "", &models.ValidationError{Field: "scope", Message: fmt.Sprintf("unknown export scope %q", s)}
	}
}

// Filter returns the workouts covered by scope. last-month keeps workouts
// dated within the 30 days before now.
func Filter(ws []models.Workout, scope Scope, now time.Time) []models.Workout {
	if scope != ScopeLastMonth {
		return ws
	}
	cutoff := now.Add(-lastMonthWindow)
	var out []models.Workout
	for _, w := range ws {
		if !w.Date.Before(cutoff) {
			out = append(out, w)
		}
	}
	return out
}

// Filename returns the Markdown export name for scope on the date of now.
func Filename(scope Scope, now time.Time) string {
	return fmt.Sprintf("repbuddy-workouts-%s-%s.md", scope, now.Format(time.DateOnly))
}

// XLSXFilename is Filename with the spreadsheet extension.
func XLSXFilename(scope Scope, now time.Time) string {
	return fmt.Sprintf("repbuddy-workouts-%s-%s.xlsx", scope, now.Format(time.DateOnly))
}

// WriteFile writes data to dir/name, creating dir if needed, and returns
// the full path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
