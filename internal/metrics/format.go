package metrics

import (
	"fmt"
	"math"
)

// FormatDuration renders a duration in milliseconds as "Xm" or "Yh Zm".
// Total minutes are rounded before splitting. Zero yields "".
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return ""
	}
	mins := int64(math.Round(float64(ms) / 60000))
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %dm", mins/60, mins%60)
}

// FormatElapsed renders whole seconds as "m:ss" for the live session clock.
func FormatElapsed(sec int64) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
