package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/claude/repbuddy/internal/ingest/alpha"
	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/session"
	"github.com/claude/repbuddy/internal/storage"
)

func newTestServer(t *testing.T, apiKey string) (*Server, *storage.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server_test.db")
	if err := storage.RunMigrations(storage.DriverSQLite, path); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	kv, err := storage.Open(context.Background(), storage.DriverSQLite, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store := storage.NewStore(kv)
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.NewManager(store, session.WithLogger(log), session.WithTickInterval(10*time.Millisecond))
	t.Cleanup(mgr.Close)

	s := New(store, mgr, alpha.NewProvider(store, log, false), apiKey, log)
	s.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return s, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// TestExerciseCRUD verifies create, list and the delete confirmation gate.
func TestExerciseCRUD(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := do(t, s, http.MethodPost, "/api/v1/exercises", map[string]any{"name": "  Bench Press ", "muscleGroup": "Chest"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	ex := decode[models.Exercise](t, rec)
	if ex.ID == "" || ex.Name != "Bench Press" {
		t.Errorf("created = %+v", ex)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/exercises", map[string]any{"name": "   "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank name status = %d, want 422", rec.Code)
	}
	verr := decode[map[string]string](t, rec)
	if verr["error"] != "Name is required" || verr["field"] != "name" {
		t.Errorf("validation body = %v", verr)
	}

	list := decode[[]models.Exercise](t, do(t, s, http.MethodGet, "/api/v1/exercises?group=Chest", nil))
	if len(list) != 1 {
		t.Errorf("list = %d, want 1", len(list))
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/exercises/"+ex.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unconfirmed delete status = %d, want 409", rec.Code)
	}
	if body := decode[map[string]any](t, rec); body["confirm"] != true {
		t.Errorf("confirm body = %v", body)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/exercises/"+ex.ID+"?confirm=true", nil); rec.Code != http.StatusNoContent {
		t.Errorf("confirmed delete status = %d", rec.Code)
	}
	if list := decode[[]models.Exercise](t, do(t, s, http.MethodGet, "/api/v1/exercises", nil)); len(list) != 0 {
		t.Errorf("list after delete = %d, want 0", len(list))
	}
}

// TestRoutineValidationAndNames verifies routine validation and name
// resolution for missing exercises.
func TestRoutineValidationAndNames(t *testing.T) {
	s, store := newTestServer(t, "")
	ctx := context.Background()
	if err := store.SaveExercise(ctx, models.Exercise{ID: "sq", Name: "Squat"}); err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, http.MethodPost, "/api/v1/routines", map[string]any{"name": "Legs"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("no exercises status = %d, want 422", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/routines", map[string]any{"name": "Legs", "exerciseIds": []string{"sq", "gone"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	rt := decode[models.Routine](t, rec)

	view := decode[routineView](t, do(t, s, http.MethodGet, "/api/v1/routines/"+rt.ID, nil))
	if len(view.ExerciseNames) != 2 || view.ExerciseNames[0] != "Squat" || view.ExerciseNames[1] != "Unknown" {
		t.Errorf("names = %v", view.ExerciseNames)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/routines/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing routine status = %d, want 404", rec.Code)
	}
}

// TestSessionFlow drives a workout from a routine through the confirmation
// gate to a saved record.
func TestSessionFlow(t *testing.T) {
	s, store := newTestServer(t, "")
	ctx := context.Background()
	store.SaveExercise(ctx, models.Exercise{ID: "bp", Name: "Bench Press"})
	store.SaveExercise(ctx, models.Exercise{ID: "pu", Name: "Pull-up", Bodyweight: true})
	store.SaveRoutine(ctx, models.Routine{ID: "push", Name: "Push", ExerciseIDs: []string{"bp", "deleted"}})

	if rec := do(t, s, http.MethodGet, "/api/v1/session", nil); rec.Code != http.StatusNotFound {
		t.Errorf("no session status = %d, want 404", rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/api/v1/session", map[string]string{"routineId": "push"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	view := decode[session.View](t, rec)
	if len(view.Workout.Exercises) != 1 {
		t.Fatalf("exercises = %d, want 1", len(view.Workout.Exercises))
	}

	if rec := do(t, s, http.MethodPost, "/api/v1/session", nil); rec.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", rec.Code)
	}

	do(t, s, http.MethodPost, "/api/v1/session/sets", nil)
	do(t, s, http.MethodPut, "/api/v1/session/sets/0", map[string]any{"field": "weight", "value": "100"})
	do(t, s, http.MethodPut, "/api/v1/session/sets/0", map[string]any{"field": "reps", "value": 8})
	view = decode[session.View](t, do(t, s, http.MethodPost, "/api/v1/session/sets", nil))
	sets := view.Workout.Exercises[0].Sets
	if len(sets) != 2 || sets[1] != (models.WorkoutSet{Weight: 100, Reps: 8}) {
		t.Errorf("sets = %+v", sets)
	}
	if view.ActiveVolume == nil || *view.ActiveVolume != 1600 {
		t.Errorf("active volume = %v, want 1600", view.ActiveVolume)
	}

	if rec := do(t, s, http.MethodPut, "/api/v1/session/sets/0", map[string]any{"field": "rir", "value": 1}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad field status = %d, want 422", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/session/picker", map[string]bool{"open": true})
	if resp := decode[sessionResponse](t, rec); !resp.PickerOpen || len(resp.Catalog) != 2 {
		t.Errorf("picker = open %v, catalog %d", resp.PickerOpen, len(resp.Catalog))
	}
	view = decode[session.View](t, do(t, s, http.MethodPost, "/api/v1/session/exercises", map[string]string{"exerciseId": "pu"}))
	if view.PickerOpen || view.ActiveIndex != 1 {
		t.Errorf("after add: picker %v active %d", view.PickerOpen, view.ActiveIndex)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/session/rest", map[string]int{"seconds": 45})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("non-preset rest status = %d, want 422", rec.Code)
	}
	view = decode[session.View](t, do(t, s, http.MethodPost, "/api/v1/session/rest", map[string]int{"seconds": 90}))
	if view.RestRemaining == 0 {
		t.Error("rest should be running")
	}

	rec = do(t, s, http.MethodPost, "/api/v1/session/finish", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("finish with empty exercise status = %d, want 409", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/api/v1/session/finish", map[string]bool{"confirm": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirmed finish status = %d: %s", rec.Code, rec.Body)
	}
	res := decode[session.FinishResult](t, rec)
	if res.Outcome != session.OutcomeSaved || res.Workout == nil {
		t.Fatalf("result = %+v", res)
	}

	workouts := decode[[]models.Workout](t, do(t, s, http.MethodGet, "/api/v1/workouts", nil))
	if len(workouts) != 1 || workouts[0].ID != res.Workout.ID {
		t.Errorf("workouts = %+v", workouts)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/session", nil); rec.Code != http.StatusNotFound {
		t.Errorf("session after finish status = %d, want 404", rec.Code)
	}
}

// TestFinishEmptySession verifies an empty workout is rejected with 422 and
// the session stays active.
func TestFinishEmptySession(t *testing.T) {
	s, _ := newTestServer(t, "")
	do(t, s, http.MethodPost, "/api/v1/session", nil)

	rec := do(t, s, http.MethodPost, "/api/v1/session/finish", map[string]bool{"confirm": true})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["error"] != session.MsgEmptyWorkout {
		t.Errorf("error = %q", body["error"])
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/session", nil); rec.Code != http.StatusOK {
		t.Errorf("session status = %d, want 200", rec.Code)
	}

	if rec := do(t, s, http.MethodDelete, "/api/v1/session", nil); rec.Code != http.StatusConflict {
		t.Errorf("unconfirmed discard status = %d, want 409", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/session?confirm=true", nil); rec.Code != http.StatusNoContent {
		t.Errorf("discard status = %d, want 204", rec.Code)
	}
}

// TestExportMarkdown verifies the attachment name and placeholder body.
func TestExportMarkdown(t *testing.T) {
	s, store := newTestServer(t, "")

	rec := do(t, s, http.MethodGet, "/api/v1/export?scope=last-month", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := `attachment; filename="repbuddy-workouts-last-month-2024-06-10.md"`
	if got := rec.Header().Get("Content-Disposition"); got != want {
		t.Errorf("Content-Disposition = %q, want %q", got, want)
	}
	if !strings.Contains(rec.Body.String(), "No workouts logged yet.") {
		t.Errorf("body = %q", rec.Body)
	}

	store.SaveWorkout(context.Background(), models.Workout{
		ID:   "w1",
		Date: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Exercises: []models.ExerciseLog{
			{Name: "Squat", Sets: []models.WorkoutSet{{Weight: 100, Reps: 5}}},
		},
	})
	rec = do(t, s, http.MethodGet, "/api/v1/export", nil)
	if !strings.Contains(rec.Body.String(), "## Jun 1, 2024") {
		t.Errorf("body = %q", rec.Body)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/export?format=xlsx", nil)
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Errorf("xlsx status = %d, %d bytes", rec.Code, rec.Body.Len())
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/export?scope=forever", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad scope status = %d, want 422", rec.Code)
	}
}

// TestClearDataAndStats verifies stats reflect history and clearing needs
// confirmation.
func TestClearDataAndStats(t *testing.T) {
	s, store := newTestServer(t, "")
	store.SaveWorkout(context.Background(), models.Workout{
		ID:        "w1",
		Date:      time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
		Exercises: []models.ExerciseLog{{Name: "Squat", Sets: []models.WorkoutSet{{Weight: 100, Reps: 5}}}},
	})

	stats := decode[map[string]float64](t, do(t, s, http.MethodGet, "/api/v1/stats", nil))
	if stats["totalWorkouts"] != 1 || stats["totalVolume"] != 500 {
		t.Errorf("stats = %v", stats)
	}

	if rec := do(t, s, http.MethodPost, "/api/v1/data/clear", nil); rec.Code != http.StatusConflict {
		t.Errorf("unconfirmed clear status = %d, want 409", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/data/clear?confirm=true", nil); rec.Code != http.StatusNoContent {
		t.Errorf("clear status = %d, want 204", rec.Code)
	}
	if list := decode[[]models.Workout](t, do(t, s, http.MethodGet, "/api/v1/workouts", nil)); len(list) != 0 {
		t.Errorf("workouts after clear = %d", len(list))
	}
}

// TestAPIKeyRequired verifies routes are guarded when a key is configured.
func TestAPIKeyRequired(t *testing.T) {
	s, _ := newTestServer(t, "k")
	if rec := do(t, s, http.MethodGet, "/api/v1/exercises", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises", nil)
	req.Header.Set("X-API-Key", "k")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rec.Code)
	}
}

// TestSessionWebSocket verifies the clock feed sends ticks and closes when
// the workout is discarded.
func TestSessionWebSocket(t *testing.T) {
	s, _ := newTestServer(t, "")
	srv := httptest.NewServer(s)
	defer srv.Close()

	do(t, s, http.MethodPost, "/api/v1/session", nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var tick session.Tick
	if err := conn.ReadJSON(&tick); err != nil {
		t.Fatalf("read tick: %v", err)
	}
	if tick.State != session.StateActive {
		t.Errorf("tick state = %v, want active", tick.State)
	}

	do(t, s, http.MethodDelete, "/api/v1/session?confirm=true", nil)
	for {
		if err := conn.ReadJSON(&tick); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Errorf("close err = %v, want normal closure", err)
			}
			return
		}
	}
}

const alphaCSV = `"Push · Day 1";"2024-06-08 5:04 h";"45 min"
"1. Bench Press · Barbell · 6 reps";"WU1 · 40 kg · 10 reps"
#;KG;REPS;RIR
1;80;6;1
2;80;6;0
`

// TestAlphaImportAndLogs verifies the import endpoint saves workouts and
// records both successful and failed imports in the history.
func TestAlphaImportAndLogs(t *testing.T) {
	s, store := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/alpha?warmups=true", strings.NewReader(alphaCSV))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[map[string]any](t, rec)
	if res["workouts_saved"] != float64(1) || res["sets_imported"] != float64(3) {
		t.Errorf("result = %v", res)
	}

	ws, err := store.GetWorkouts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].DurationMs != 45*60*1000 {
		t.Fatalf("workouts = %+v", ws)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/import/alpha", strings.NewReader(`"1. Bench Press · Barbell · 6 reps"`+"\n"))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad CSV status = %d, want 400", rec.Code)
	}

	if rec := do(t, s, http.MethodPost, "/api/v1/import/alpha?warmups=maybe", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad warmups status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/import/logs", nil)
	logs := decode[[]storage.ImportLog](t, rec)
	if len(logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(logs))
	}
	if logs[0].Status != "error" || logs[0].ErrorMessage == "" {
		t.Errorf("newest log = %+v, want error", logs[0])
	}
	if logs[1].Status != "success" || logs[1].WorkoutsSaved != 1 || logs[1].Source != "alpha" {
		t.Errorf("oldest log = %+v", logs[1])
	}
}
