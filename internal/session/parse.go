package session

import (
	"regexp"
	"strconv"
	"strings"
)

// leadingNumberRe matches the numeric prefix of user input, e.g. "12.5" in
// "12.5kg".
var leadingNumberRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseLoose reads a number from keystroke input. It never rejects input:
// anything without a numeric prefix is 0.
func parseLoose(raw string) float64 {
	m := leadingNumberRe.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out of range, e.g. "1e999".
		return 0
	}
	return f
}
