package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/repbuddy/internal/ingest"
	"github.com/claude/repbuddy/internal/metrics"
	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/session"
	"github.com/claude/repbuddy/internal/storage"
)

// routineView is a routine with its exercise names resolved for display.
type routineView struct {
	models.Routine
	ExerciseNames []string `json:"exerciseNames"`
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.store.GetExercises(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, models.FilterExercises(exercises, q.Get("search"), q.Get("group")))
}

func (s *Server) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	var ex models.Exercise
	if !decodeBody(w, r, &ex) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		ex.ID = id
	}
	if err := ex.Normalize(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SaveExercise(r.Context(), ex); err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSON(w, status, ex)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r, "Delete this exercise?") {
		return
	}
	if err := s.store.DeleteExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := s.store.GetRoutines(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	catalog, err := s.store.GetExercises(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]routineView, 0, len(routines))
	for _, rt := range routines {
		out = append(out, routineView{Routine: rt, ExerciseNames: rt.ExerciseNames(catalog)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	rt, err := s.store.GetRoutine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	catalog, err := s.store.GetExercises(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routineView{Routine: rt, ExerciseNames: rt.ExerciseNames(catalog)})
}

func (s *Server) handleSaveRoutine(w http.ResponseWriter, r *http.Request) {
	var rt models.Routine
	if !decodeBody(w, r, &rt) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		rt.ID = id
	}
	if err := rt.Normalize(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SaveRoutine(r.Context(), rt); err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSON(w, status, rt)
}

func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r, "Delete this routine?") {
		return
	}
	if err := s.store.DeleteRoutine(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListWorkouts returns history newest first, optionally limited.
func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.store.GetWorkouts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	slices.SortStableFunc(workouts, func(a, b models.Workout) int { return b.Date.Compare(a.Date) })
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n >= 0 && n < len(workouts) {
			workouts = workouts[:n]
		}
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	wk, err := s.store.GetWorkout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wk)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r, "Delete this workout?") {
		return
	}
	if err := s.store.DeleteWorkout(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var p models.UserProfile
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.store.SaveProfile(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.store.GetWorkouts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics.Summarize(workouts, s.now()))
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r, "This will permanently delete all exercises, routines, workouts and your profile.") {
		return
	}
	if err := s.store.ClearAll(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Warn("all data cleared", "user", userInfoFromContext(r).Login)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	provider := s.alpha
	if v := r.URL.Query().Get("warmups"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "warmups must be true or false"})
			return
		}
		provider = provider.WithWarmups(include)
	}

	start := time.Now()
	result, err := provider.Ingest(r.Context(), r.Body)
	s.logImport("alpha", result, err, time.Since(start))
	if err != nil {
		s.log.Error("alpha import error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.GetImportLogs(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logImport records an import operation's result in the import history.
func (s *Server) logImport(source string, result *ingest.Result, importErr error, elapsed time.Duration) {
	// Detached from the request so a client disconnect does not drop the entry.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entry := storage.NewImportLog(source, s.now(), result, importErr, elapsed)
	if err := s.store.AppendImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, verr)
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, session.ErrNoSession):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrSessionInProgress), errors.Is(err, session.ErrNotActive):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// requireConfirm answers 409 with a confirmation prompt unless the request
// carries confirm=true.
func requireConfirm(w http.ResponseWriter, r *http.Request, message string) bool {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); ok {
		return true
	}
	writeConfirm(w, message)
	return false
}

func writeConfirm(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusConflict, map[string]any{"error": message, "confirm": true})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}
