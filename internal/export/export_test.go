package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/repbuddy/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

var exportedAt = time.Date(2024, 6, 10, 18, 30, 0, 0, time.UTC)

// TestMarkdownEmpty verifies an empty history renders the placeholder.
func TestMarkdownEmpty(t *testing.T) {
	got := Markdown(nil, nil, exportedAt)
	if got != NoWorkoutsMarkdown || got == "" {
		t.Errorf("Markdown(nil) = %q", got)
	}
}

// TestMarkdownNewestFirst verifies sections are ordered by date descending.
func TestMarkdownNewestFirst(t *testing.T) {
	ws := []models.Workout{
		{ID: "a", Date: day(2024, 1, 1)},
		{ID: "b", Date: day(2024, 6, 1)},
	}
	got := Markdown(ws, nil, exportedAt)
	jan := strings.Index(got, "## Jan 1, 2024")
	jun := strings.Index(got, "## Jun 1, 2024")
	if jan < 0 || jun < 0 {
		t.Fatalf("missing section headers:\n%s", got)
	}
	if jun > jan {
		t.Errorf("Jun 1 should come before Jan 1:\n%s", got)
	}
}

// TestMarkdownStableTies verifies equal dates keep their input order.
func TestMarkdownStableTies(t *testing.T) {
	same := day(2024, 3, 3)
	ws := []models.Workout{
		{ID: "1", Date: same, Exercises: []models.ExerciseLog{{Name: "First", Sets: []models.WorkoutSet{}}}},
		{ID: "2", Date: same, Exercises: []models.ExerciseLog{{Name: "Second", Sets: []models.WorkoutSet{}}}},
	}
	got := Markdown(ws, nil, exportedAt)
	if strings.Index(got, "### First") > strings.Index(got, "### Second") {
		t.Errorf("tie order not preserved:\n%s", got)
	}
	if again := Markdown(ws, nil, exportedAt); again != got {
		t.Error("output is not deterministic")
	}
}

// TestMarkdownExerciseBody verifies set lines, volume, bodyweight handling
// and notes.
func TestMarkdownExerciseBody(t *testing.T) {
	ws := []models.Workout{{
		ID:         "w",
		Date:       day(2024, 6, 1),
		DurationMs: 65 * 60 * 1000,
		Exercises: []models.ExerciseLog{
			{
				Name:  "Bench Press",
				Sets:  []models.WorkoutSet{{Weight: 100, Reps: 5}, {Weight: 102.5, Reps: 5}},
				Notes: "paused reps",
			},
			{
				Name:       "Pull-up",
				Bodyweight: true,
				Sets:       []models.WorkoutSet{{Weight: 0, Reps: 10}},
			},
		},
	}}
	got := Markdown(ws, nil, exportedAt)

	for _, want := range []string{
		"## Jun 1, 2024 · 1h 5m",
		"### Bench Press",
		"- Set 1: 100 kg × 5 reps",
		"- Set 2: 102.5 kg × 5 reps",
		"Volume: 1,012.5 kg",
		"Notes: paused reps",
		"### Pull-up",
		"- Set 1: 10 reps",
		"Exported on Jun 10, 2024 18:30",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	pullup := got[strings.Index(got, "### Pull-up"):]
	if strings.Contains(pullup, "Volume") {
		t.Errorf("bodyweight exercise should have no volume:\n%s", pullup)
	}
}

// TestMarkdownProfile verifies the profile section appears only when set.
func TestMarkdownProfile(t *testing.T) {
	ws := []models.Workout{{ID: "w", Date: day(2024, 6, 1)}}

	if got := Markdown(ws, &models.UserProfile{}, exportedAt); strings.Contains(got, "## Profile") {
		t.Errorf("empty profile rendered:\n%s", got)
	}
	p := &models.UserProfile{Age: ptr(31), Weight: ptr(82.5), HeightFt: ptr(5), HeightIn: ptr(11)}
	got := Markdown(ws, p, exportedAt)
	for _, want := range []string{"## Profile", "- Age: 31", "- Weight: 82.5 kg", "- Height: 5 ft 11 in"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

// TestFilterLastMonth verifies the 30-day window.
func TestFilterLastMonth(t *testing.T) {
	now := day(2024, 6, 30)
	ws := []models.Workout{
		{ID: "old", Date: day(2024, 5, 1)},
		{ID: "edge", Date: now.Add(-30 * 24 * time.Hour)},
		{ID: "recent", Date: day(2024, 6, 20)},
	}
	got := Filter(ws, ScopeLastMonth, now)
	if len(got) != 2 || got[0].ID != "edge" || got[1].ID != "recent" {
		t.Errorf("Filter = %+v", got)
	}
	if all := Filter(ws, ScopeAllTime, now); len(all) != 3 {
		t.Errorf("all-time = %d workouts, want 3", len(all))
	}
}

// TestParseScope verifies known scopes and rejection of others.
func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", ScopeAllTime, false},
		{"all-time", ScopeAllTime, false},
		{"last-month", ScopeLastMonth, false},
		{"last-year", "", true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseScope(%q) = %q, %v", tt.in, got, err)
		}
		var verr *models.ValidationError
		if tt.wantErr && !errors.As(err, &verr) {
			t.Errorf("ParseScope(%q) err type = %T, want *ValidationError", tt.in, err)
		}
	}
}

// TestFilename verifies the export naming pattern.
func TestFilename(t *testing.T) {
	now := time.Date(2024, 6, 5, 23, 0, 0, 0, time.UTC)
	if got, want := Filename(ScopeLastMonth, now), "repbuddy-workouts-last-month-2024-06-05.md"; got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
	if got, want := XLSXFilename(ScopeAllTime, now), "repbuddy-workouts-all-time-2024-06-05.xlsx"; got != want {
		t.Errorf("XLSXFilename = %q, want %q", got, want)
	}
}

// TestWriteFile verifies the export lands in a created directory.
func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	path, err := WriteFile(dir, "out.md", []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Errorf("read back %q, %v", data, err)
	}
}

// TestXLSX verifies one row per set and one row per workout.
func TestXLSX(t *testing.T) {
	ws := []models.Workout{
		{ID: "old", Date: day(2024, 1, 1), Exercises: []models.ExerciseLog{
			{Name: "Squat", Sets: []models.WorkoutSet{{Weight: 100, Reps: 5}}},
		}},
		{ID: "new", Date: day(2024, 6, 1), Exercises: []models.ExerciseLog{
			{Name: "Bench Press", Sets: []models.WorkoutSet{{Weight: 60, Reps: 8}, {Weight: 60, Reps: 8}}},
			{Name: "Dip", Bodyweight: true, Sets: []models.WorkoutSet{{Reps: 12}}},
		}},
	}
	f, err := XLSX(ws)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(setsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("sets rows = %d, want 5 (header + 4)", len(rows))
	}
	if rows[1][0] != "2024-06-01" || rows[1][2] != "Bench Press" {
		t.Errorf("first data row = %v, want newest workout first", rows[1])
	}
	if rows[1][6] != "480" {
		t.Errorf("set volume = %q, want 480", rows[1][6])
	}
	if rows[3][6] != "" {
		t.Errorf("bodyweight set volume = %q, want empty", rows[3][6])
	}

	summary, err := f.GetRows(workoutsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 3 {
		t.Errorf("workout rows = %d, want 3", len(summary))
	}

	data, err := XLSXBytes(ws)
	if err != nil || len(data) == 0 {
		t.Errorf("XLSXBytes = %d bytes, %v", len(data), err)
	}
}

// TestXLSXLayout verifies column widths, the active sheet and an empty
// workbook that still carries both headers.
func TestXLSXLayout(t *testing.T) {
	f, err := XLSX(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, cw := range colWidths {
		got, err := f.GetColWidth(cw.sheet, cw.start)
		if err != nil {
			t.Fatal(err)
		}
		if got != cw.width {
			t.Errorf("%s column %s width = %v, want %v", cw.sheet, cw.start, got, cw.width)
		}
	}
	idx, err := f.GetSheetIndex(setsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if f.GetActiveSheetIndex() != idx {
		t.Errorf("active sheet = %d, want %s (%d)", f.GetActiveSheetIndex(), setsSheet, idx)
	}
	for _, sheet := range []string{setsSheet, workoutsSheet} {
		rows, err := f.GetRows(sheet)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 {
			t.Errorf("%s rows = %d, want header only", sheet, len(rows))
		}
	}
}
