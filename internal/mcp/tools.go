package mcp

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/repbuddy/internal/export"
	"github.com/claude/repbuddy/internal/metrics"
	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/storage"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = now
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// workoutSummary is the compact form list_workouts returns.
type workoutSummary struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Duration  string    `json:"duration,omitempty"`
	Exercises []string  `json:"exercises"`
	Sets      int       `json:"sets"`
	VolumeKg  float64   `json:"volume_kg"`
}

func summarizeWorkout(w models.Workout) workoutSummary {
	names := make([]string, 0, len(w.Exercises))
	for _, ex := range w.Exercises {
		names = append(names, ex.Name)
	}
	return workoutSummary{
		ID:        w.ID,
		Date:      w.Date,
		Duration:  metrics.FormatDuration(w.DurationMs),
		Exercises: names,
		Sets:      w.SetCount(),
		VolumeKg:  metrics.WorkoutVolume(w),
	}
}

// filterWorkouts keeps workouts dated in [start, end] that include an
// exercise whose name contains exercise (case-insensitive), newest first.
func filterWorkouts(ws []models.Workout, start, end time.Time, exercise string) []models.Workout {
	exercise = strings.ToLower(strings.TrimSpace(exercise))
	out := []models.Workout{}
	for _, w := range ws {
		if w.Date.Before(start) || w.Date.After(end) {
			continue
		}
		if exercise != "" && !slices.ContainsFunc(w.Exercises, func(l models.ExerciseLog) bool {
			return strings.Contains(strings.ToLower(l.Name), exercise)
		}) {
			continue
		}
		out = append(out, w)
	}
	slices.SortStableFunc(out, func(a, b models.Workout) int { return b.Date.Compare(a.Date) })
	return out
}

// weekBucket is one week of training volume.
type weekBucket struct {
	WeekStart string  `json:"week_start"`
	Workouts  int     `json:"workouts"`
	Sets      int     `json:"sets"`
	VolumeKg  float64 `json:"volume_kg"`
}

// weeklyBuckets returns the last n weeks ending with the current one,
// oldest first. Empty weeks are included.
func weeklyBuckets(ws []models.Workout, now time.Time, n int) []weekBucket {
	current := metrics.WeekStart(now)
	buckets := make([]weekBucket, n)
	starts := make([]time.Time, n)
	for i := range n {
		starts[i] = current.AddDate(0, 0, -7*(n-1-i))
		buckets[i].WeekStart = starts[i].Format("2006-01-02")
	}
	for _, w := range ws {
		wk := metrics.WeekStart(w.Date.In(now.Location()))
		for i, st := range starts {
			if wk.Equal(st) {
				buckets[i].Workouts++
				buckets[i].Sets += w.SetCount()
				buckets[i].VolumeKg += metrics.WorkoutVolume(w)
				break
			}
		}
	}
	return buckets
}

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List logged workouts newest first with exercises, set count, duration and volume in kg."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Only workouts containing this exercise (partial match, e.g. 'bench')")),
	mcp.WithNumber("limit", mcp.Description("Maximum workouts to return. Defaults to 50.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout with every set's weight and reps, plus notes."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID from list_workouts")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly and monthly training totals: this week's workouts and volume, progress toward 5 workouts per week, this month's count, all-time totals, and per-week volume."),
	mcp.WithNumber("weeks", mcp.Description("Number of weekly buckets to include. Defaults to 8.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise library."),
	mcp.WithString("search", mcp.Description("Name filter (partial, case-insensitive)")),
	mcp.WithString("group", mcp.Description("Muscle group filter"), mcp.Enum(append([]string{"All"}, models.MuscleGroups...)...)),
)

var toolListRoutines = mcp.NewTool("list_routines",
	mcp.WithDescription("List saved routines with their exercises in order."),
)

var toolExportMarkdown = mcp.NewTool("export_markdown",
	mcp.WithDescription("Render workout history as a Markdown report, the same one the app exports."),
	mcp.WithString("scope", mcp.Description("Which workouts to include. Defaults to all-time."), mcp.Enum(string(export.ScopeLastMonth), string(export.ScopeAllTime))),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), h.now())
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	workouts, err := h.ds.GetWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	filtered := filterWorkouts(workouts, start, end, req.GetString("exercise", ""))
	if limit := req.GetInt("limit", 50); limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	out := make([]workoutSummary, 0, len(filtered))
	for _, w := range filtered {
		out = append(out, summarizeWorkout(w))
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	w, err := h.ds.GetWorkout(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("workout not found: " + id), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(w)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weeks := req.GetInt("weeks", 8)
	if weeks < 1 || weeks > 104 {
		return mcp.NewToolResultError("weeks must be between 1 and 104"), nil
	}

	workouts, err := h.ds.GetWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	now := h.now()
	result, err := mcp.NewToolResultJSON(map[string]any{
		"summary": metrics.Summarize(workouts, now),
		"weekly":  weeklyBuckets(workouts, now, weeks),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.GetExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	filtered := models.FilterExercises(exercises, req.GetString("search", ""), req.GetString("group", ""))
	result, err := mcp.NewToolResultJSON(filtered)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listRoutines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	routines, err := h.ds.GetRoutines(ctx)
	if err != nil {
		h.log.Error("mcp list_routines", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	catalog, err := h.ds.GetExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_routines", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	type routine struct {
		ID        string   `json:"id"`
		Name      string   `json:"name"`
		Exercises []string `json:"exercises"`
	}
	out := make([]routine, 0, len(routines))
	for _, r := range routines {
		out = append(out, routine{ID: r.ID, Name: r.Name, Exercises: r.ExerciseNames(catalog)})
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) exportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope, err := export.ParseScope(req.GetString("scope", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	workouts, err := h.ds.GetWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp export_markdown", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	profile, err := h.ds.GetProfile(ctx)
	if err != nil {
		h.log.Warn("mcp export_markdown: profile unavailable", "error", err)
	}

	now := h.now()
	return mcp.NewToolResultText(export.Markdown(export.Filter(workouts, scope, now), &profile, now)), nil
}
