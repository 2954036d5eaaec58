package storage

import (
	"context"
	"slices"
	"time"

	"github.com/claude/repbuddy/internal/ingest"
	"github.com/claude/repbuddy/internal/models"
)

// KeyImportLogs holds the import history.
const KeyImportLogs = "repbuddy_import_logs"

// maxImportLogs caps the history; older entries are dropped on append.
const maxImportLogs = 50

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	SessionsReceived int       `json:"sessions_received"`
	WorkoutsSaved    int       `json:"workouts_saved"`
	WorkoutsReplaced int       `json:"workouts_replaced"`
	SetsImported     int       `json:"sets_imported"`
	DurationMs       int64     `json:"duration_ms"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// NewImportLog builds the log entry for one import run. result may be nil
// when the import failed before producing one.
func NewImportLog(source string, at time.Time, result *ingest.Result, importErr error, elapsed time.Duration) ImportLog {
	log := ImportLog{
		CreatedAt:  at,
		Source:     source,
		Status:     "success",
		DurationMs: elapsed.Milliseconds(),
	}
	if importErr != nil {
		log.Status = "error"
		log.ErrorMessage = importErr.Error()
	}
	if result != nil {
		log.SessionsReceived = result.SessionsReceived
		log.WorkoutsSaved = result.WorkoutsSaved
		log.WorkoutsReplaced = result.WorkoutsReplaced
		log.SetsImported = result.SetsImported
	}
	return log
}

// AppendImportLog records an import, assigning an ID when missing.
func (s *Store) AppendImportLog(ctx context.Context, log ImportLog) error {
	s.importLogsMu.Lock()
	defer s.importLogsMu.Unlock()
	list, err := getList[ImportLog](ctx, s.kv, KeyImportLogs)
	if err != nil {
		return err
	}
	if log.ID == "" {
		log.ID = models.NewID()
	}
	list = append(list, log)
	if len(list) > maxImportLogs {
		list = list[len(list)-maxImportLogs:]
	}
	return setList(ctx, s.kv, KeyImportLogs, list)
}

// GetImportLogs returns up to limit import logs, most recent first.
// A non-positive limit means 50.
func (s *Store) GetImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = maxImportLogs
	}
	s.importLogsMu.Lock()
	defer s.importLogsMu.Unlock()
	list, err := getList[ImportLog](ctx, s.kv, KeyImportLogs)
	if err != nil {
		return nil, err
	}
	slices.Reverse(list)
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
