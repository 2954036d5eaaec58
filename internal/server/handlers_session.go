package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// sessionResponse is the session view plus the picker's exercise list while
// the picker is open.
type sessionResponse struct {
	session.View
	Catalog []models.Exercise `json:"catalog,omitempty"`
}

type startSessionRequest struct {
	RoutineID string `json:"routineId"`
}

type pickerRequest struct {
	Open bool `json:"open"`
}

type addExerciseRequest struct {
	ExerciseID string `json:"exerciseId"`
}

type indexRequest struct {
	Index int `json:"index"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// updateSetRequest carries the raw keystroke value; numbers and strings are
// both accepted.
type updateSetRequest struct {
	Field session.Field   `json:"field"`
	Value json.RawMessage `json:"value"`
}

type restRequest struct {
	Seconds int `json:"seconds"`
}

type finishRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.sessions.Start(r.Context(), req.RoutineID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("workout started", "routine_id", req.RoutineID, "user", userInfoFromContext(r).Login)
	s.writeSession(w, r, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSession(w, r, http.StatusOK, sess)
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !requireConfirm(w, r, "Discard this workout? Logged sets will be lost.") {
		return
	}
	if err := sess.Discard(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePicker(w http.ResponseWriter, r *http.Request) {
	var req pickerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutateSession(w, r, func(sess *session.Session) error {
		if req.Open {
			return sess.OpenPicker()
		}
		return sess.ClosePicker()
	})
}

func (s *Server) handleSessionAddExercise(w http.ResponseWriter, r *http.Request) {
	var req addExerciseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	catalog, err := s.store.GetExercises(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	i := slices.IndexFunc(catalog, func(e models.Exercise) bool { return e.ID == req.ExerciseID })
	if i < 0 {
		s.writeError(w, &models.ValidationError{Field: "exerciseId", Message: "Exercise not found"})
		return
	}
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.AddExercise(catalog[i])
	})
}

func (s *Server) handleSessionRemoveExercise(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(w, r)
	if !ok {
		return
	}
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.RemoveExercise(idx)
	})
}

func (s *Server) handleSessionNotes(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var req notesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.SetExerciseNotes(idx, req.Notes)
	})
}

func (s *Server) handleSessionActive(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.SetActiveExercise(req.Index)
	})
}

func (s *Server) handleSessionAddSet(w http.ResponseWriter, r *http.Request) {
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.AddSet()
	})
}

func (s *Server) handleSessionUpdateSet(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var req updateSetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Field != session.FieldWeight && req.Field != session.FieldReps {
		s.writeError(w, &models.ValidationError{Field: "field", Message: "field must be weight or reps"})
		return
	}
	raw := rawValue(req.Value)
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.UpdateSet(idx, req.Field, raw)
	})
}

func (s *Server) handleSessionRemoveSet(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(w, r)
	if !ok {
		return
	}
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.RemoveSet(idx)
	})
}

func (s *Server) handleStartRest(w http.ResponseWriter, r *http.Request) {
	var req restRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.StartRest(req.Seconds)
	})
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	s.mutateSession(w, r, func(sess *session.Session) error {
		return sess.SkipRest()
	})
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.sessions.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := sess.Finish(r.Context(), req.Confirm)
	if err != nil {
		s.writeError(w, err)
		return
	}
	switch res.Outcome {
	case session.OutcomeRejected:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": res.Message})
	case session.OutcomeNeedsConfirmation:
		writeConfirm(w, res.Message)
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}

// handleSessionWS streams clock ticks until the session ends or the client
// goes away.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ticks, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// Reads only detect the peer closing.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	v := sess.View()
	first := session.Tick{State: v.State, ElapsedSeconds: v.ElapsedSeconds, Elapsed: v.Elapsed, RestRemaining: v.RestRemaining}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(first); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case tick, ok := <-ticks:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := conn.WriteJSON(tick); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) mutateSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := fn(sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSession(w, r, http.StatusOK, sess)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, status int, sess *session.Session) {
	resp := sessionResponse{View: sess.View()}
	if resp.PickerOpen {
		q := r.URL.Query()
		resp.Catalog = models.FilterExercises(sess.Catalog(), q.Get("search"), q.Get("group"))
	}
	writeJSON(w, status, resp)
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid index"})
		return 0, false
	}
	return idx, true
}

// rawValue returns a JSON string's contents or a number's literal text.
func rawValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
