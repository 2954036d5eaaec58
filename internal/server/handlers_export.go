package server

import (
	"fmt"
	"net/http"

	"github.com/claude/repbuddy/internal/export"
)

// handleExport serves the workout report as an attachment. format is md
// (default) or xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := export.ParseScope(q.Get("scope"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	workouts, err := s.store.GetWorkouts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	now := s.now()
	workouts = export.Filter(workouts, scope, now)

	var (
		body        []byte
		filename    string
		contentType string
	)
	switch q.Get("format") {
	case "", "md", "markdown":
		profile, err := s.store.GetProfile(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		body = []byte(export.Markdown(workouts, &profile, now))
		filename = export.Filename(scope, now)
		contentType = "text/markdown; charset=utf-8"
	case "xlsx":
		body, err = export.XLSXBytes(workouts)
		if err != nil {
			s.writeError(w, err)
			return
		}
		filename = export.XLSXFilename(scope, now)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be md or xlsx"})
		return
	}

	s.log.Info("export", "scope", scope, "format", q.Get("format"), "workouts", len(workouts))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
