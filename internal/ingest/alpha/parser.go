package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// sessionHeaderRe matches: "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionHeaderRe = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// exerciseHeaderRe matches: "1. Exercise Name · Equipment · 8 reps[· modifiers]"[;"warmup info"]
	exerciseHeaderRe = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// setRowRe matches: 1;115;8;1
	setRowRe = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// warmupRe matches: WU1 · 37,5 kg · 9 reps
	warmupRe = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	// durationRe matches "1:02 hr" and "45 min".
	durationRe = regexp.MustCompile(`^(?:(\d+):(\d{2})\s*hr?|(\d+)\s*min)$`)
)

const columnHeader = "#;KG;REPS;RIR"

// parser accumulates sessions line by line.
type parser struct {
	sessions []Session
	session  *Session
	exercise *Exercise
}

func (p *parser) closeExercise() {
	if p.session != nil && p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
	}
	p.exercise = nil
}

func (p *parser) closeSession() {
	p.closeExercise()
	if p.session != nil {
		p.sessions = append(p.sessions, *p.session)
	}
	p.session = nil
}

func (p *parser) line(line string) error {
	switch {
	case line == "":
		// Blank line ends a session.
		p.closeSession()
	case line == columnHeader:
	case sessionHeaderRe.MatchString(line):
		m := sessionHeaderRe.FindStringSubmatch(line)
		p.closeSession()
		date, err := parseSessionDate(m[2])
		if err != nil {
			return err
		}
		p.session = &Session{Name: m[1], Date: date, Duration: m[3]}
	case exerciseHeaderRe.MatchString(line):
		m := exerciseHeaderRe.FindStringSubmatch(line)
		if p.session == nil {
			return fmt.Errorf("exercise without session: %q", line)
		}
		p.closeExercise()
		num, _ := strconv.Atoi(m[1])
		target, _ := strconv.Atoi(m[4])
		p.exercise = &Exercise{
			Number:     num,
			Name:       strings.TrimSpace(m[2]),
			Equipment:  strings.TrimSpace(m[3]),
			TargetReps: target,
			Sets:       parseWarmups(m[6]),
		}
	case setRowRe.MatchString(line):
		m := setRowRe.FindStringSubmatch(line)
		if p.exercise == nil {
			return fmt.Errorf("set data without exercise: %q", line)
		}
		num, _ := strconv.Atoi(m[1])
		weight, bw := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		p.exercise.Sets = append(p.exercise.Sets, Set{
			Number:     num,
			WeightKg:   weight,
			Bodyweight: bw,
			Reps:       reps,
			RIR:        parseDecimal(m[4]),
		})
	}
	// Anything else is app metadata.
	return nil
}

// Parse reads an Alpha Progression CSV export.
func Parse(r io.Reader) ([]Session, error) {
	scanner := bufio.NewScanner(r)
	p := &parser{}
	for scanner.Scan() {
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

// parseSessionDate parses "2026-02-19 4:54" or "2026-02-19 16:54".
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing session date %q", s)
}

// parseDuration converts "1:02 hr" or "45 min" to milliseconds. Unknown
// formats give 0.
func parseDuration(s string) int64 {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	var minutes int
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	} else {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		minutes = h*60 + mm
	}
	return int64(minutes) * int64(time.Minute/time.Millisecond)
}

// parseWarmups reads "WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps".
func parseWarmups(s string) []Set {
	if s == "" {
		return nil
	}
	var sets []Set
	for _, part := range strings.Split(s, "<br>") {
		m := warmupRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		weight, bw := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{Number: num, WeightKg: weight, Bodyweight: bw, Reps: reps, Warmup: true})
	}
	return sets
}

// parseWeight reads "102,5" as 102.5 kg and "+35" as bodyweight plus 35 kg.
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseDecimal(rest), true
	}
	return parseDecimal(s), false
}

// parseDecimal accepts comma decimal separators.
func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}
