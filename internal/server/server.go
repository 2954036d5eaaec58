package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/repbuddy/internal/ingest/alpha"
	"github.com/claude/repbuddy/internal/session"
	"github.com/claude/repbuddy/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *storage.Store
	sessions *session.Manager
	alpha    *alpha.Provider
	log      *slog.Logger
	apiKey   string
	whois    WhoIser
	now      func() time.Time
	router   chi.Router
}

// New creates a new Server with all routes configured. An empty apiKey
// leaves the API open, for use behind tsnet.
func New(store *storage.Store, sessions *session.Manager, alphaProvider *alpha.Provider, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:    store,
		sessions: sessions,
		alpha:    alphaProvider,
		log:      log,
		apiKey:   apiKey,
		now:      time.Now,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		r.Get("/me", s.handleMe)

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleSaveExercise)
		r.Put("/exercises/{id}", s.handleSaveExercise)
		r.Delete("/exercises/{id}", s.handleDeleteExercise)

		r.Get("/routines", s.handleListRoutines)
		r.Post("/routines", s.handleSaveRoutine)
		r.Get("/routines/{id}", s.handleGetRoutine)
		r.Put("/routines/{id}", s.handleSaveRoutine)
		r.Delete("/routines/{id}", s.handleDeleteRoutine)

		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleSaveProfile)

		r.Get("/stats", s.handleStats)
		r.Post("/data/clear", s.handleClearData)
		r.Get("/export", s.handleExport)
		r.Post("/import/alpha", s.handleAlphaImport)
		r.Get("/import/logs", s.handleImportLogs)

		r.Route("/session", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDiscardSession)
			r.Get("/ws", s.handleSessionWS)
			r.Post("/picker", s.handlePicker)
			r.Post("/exercises", s.handleSessionAddExercise)
			r.Delete("/exercises/{index}", s.handleSessionRemoveExercise)
			r.Put("/exercises/{index}/notes", s.handleSessionNotes)
			r.Put("/active", s.handleSessionActive)
			r.Post("/sets", s.handleSessionAddSet)
			r.Put("/sets/{index}", s.handleSessionUpdateSet)
			r.Delete("/sets/{index}", s.handleSessionRemoveSet)
			r.Post("/rest", s.handleStartRest)
			r.Delete("/rest", s.handleSkipRest)
			r.Post("/finish", s.handleFinishSession)
		})
	})
}

// MountMCP serves an MCP handler at /mcp behind the same API key guard.
func (s *Server) MountMCP(h http.Handler) {
	if s.apiKey != "" {
		h = APIKeyAuth(s.apiKey)(h)
	}
	s.router.Mount("/mcp", h)
}
