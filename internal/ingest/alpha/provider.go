package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repbuddy/internal/ingest"
	"github.com/claude/repbuddy/internal/models"
)

// importNamespace seeds the deterministic workout IDs of imported sessions.
var importNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://repbuddy.app/import/alpha"))

// Store is the part of the entity store the importer writes to.
type Store interface {
	GetExercises(ctx context.Context) ([]models.Exercise, error)
	SaveExercise(ctx context.Context, ex models.Exercise) error
	GetWorkouts(ctx context.Context) ([]models.Workout, error)
	SaveWorkout(ctx context.Context, w models.Workout) error
	DeleteExercise(ctx context.Context, id string) error
}

// Provider imports Alpha Progression CSV exports as workouts.
type Provider struct {
	store          Store
	log            *slog.Logger
	includeWarmups bool
}

// NewProvider creates an importer. Warm-up sets are skipped unless
// includeWarmups is set.
func NewProvider(store Store, log *slog.Logger, includeWarmups bool) *Provider {
	return &Provider{store: store, log: log, includeWarmups: includeWarmups}
}

// WithWarmups returns a copy of p that imports warm-up sets as well when
// include is set.
func (p *Provider) WithWarmups(include bool) *Provider {
	cp := *p
	cp.includeWarmups = include
	return &cp
}

// WorkoutID returns the ID an imported session is stored under. It is keyed
// on the session start time and name, so re-imports replace while two
// sessions started in the same minute stay distinct.
func WorkoutID(s Session) string {
	key := s.Date.UTC().Format(time.RFC3339) + "|" + strings.ToLower(strings.TrimSpace(s.Name))
	return uuid.NewSHA1(importNamespace, []byte(key)).String()
}

// Ingest parses a CSV export and saves one workout per session, adding
// unknown exercises to the catalog. If a workout fails to save, exercises
// created by this import that no saved workout references are removed
// again. Workouts saved before the failure are kept; re-running the import
// replaces them.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	catalog, err := p.store.GetExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading exercises: %w", err)
	}
	byName := make(map[string]models.Exercise, len(catalog))
	for _, ex := range catalog {
		byName[strings.ToLower(ex.Name)] = ex
	}
	existing, err := p.store.GetWorkouts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading workouts: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, w := range existing {
		known[w.ID] = true
	}

	result := &ingest.Result{SessionsReceived: len(sessions)}
	var created []models.Exercise
	workouts := make([]models.Workout, 0, len(sessions))
	for _, s := range sessions {
		w := models.Workout{
			ID:         WorkoutID(s),
			Date:       s.Date.UTC(),
			DurationMs: parseDuration(s.Duration),
			Exercises:  []models.ExerciseLog{},
		}
		for _, aex := range s.Exercises {
			ex, ok := byName[strings.ToLower(aex.Name)]
			if !ok {
				ex = models.Exercise{
					Name:       aex.Name,
					Equipment:  aex.Equipment,
					Bodyweight: isBodyweight(aex),
				}
				if err := ex.Normalize(); err != nil {
					return nil, fmt.Errorf("exercise %q: %w", aex.Name, err)
				}
				byName[strings.ToLower(ex.Name)] = ex
				created = append(created, ex)
			}

			log := models.NewExerciseLog(ex)
			for _, set := range aex.Sets {
				result.SetsReceived++
				if set.Warmup && !p.includeWarmups {
					result.WarmupsSkipped++
					continue
				}
				log.Sets = append(log.Sets, models.WorkoutSet{Weight: set.WeightKg, Reps: float64(set.Reps)})
				result.SetsImported++
			}
			w.Exercises = append(w.Exercises, log)
		}
		workouts = append(workouts, w)
	}

	var saved []models.Exercise
	for _, ex := range created {
		if err := p.store.SaveExercise(ctx, ex); err != nil {
			p.rollback(ctx, saved, nil)
			return nil, fmt.Errorf("saving exercise %q: %w", ex.Name, err)
		}
		saved = append(saved, ex)
	}
	result.ExercisesCreated = len(saved)

	for i, w := range workouts {
		if err := p.store.SaveWorkout(ctx, w); err != nil {
			p.rollback(ctx, saved, workouts[:i])
			return nil, fmt.Errorf("saving workout %s: %w", w.Date.Format("2006-01-02"), err)
		}
		if known[w.ID] {
			result.WorkoutsReplaced++
		} else {
			result.WorkoutsSaved++
			known[w.ID] = true
		}
		p.log.Debug("imported session", "name", sessions[i].Name, "date", w.Date, "exercises", len(w.Exercises))
	}

	result.Message = fmt.Sprintf("imported %d workouts (%d replaced), %d sets", result.WorkoutsSaved+result.WorkoutsReplaced, result.WorkoutsReplaced, result.SetsImported)
	p.log.Info("alpha import complete",
		"sessions", result.SessionsReceived,
		"saved", result.WorkoutsSaved,
		"replaced", result.WorkoutsReplaced,
		"exercises_created", result.ExercisesCreated,
		"sets", result.SetsImported,
	)
	return result, nil
}

// rollback deletes exercises created by a failed import unless one of the
// already saved workouts uses them.
func (p *Provider) rollback(ctx context.Context, created []models.Exercise, kept []models.Workout) {
	used := make(map[string]bool)
	for _, w := range kept {
		for _, log := range w.Exercises {
			used[log.ExerciseID] = true
		}
	}
	for _, ex := range created {
		if used[ex.ID] {
			continue
		}
		if err := p.store.DeleteExercise(ctx, ex.ID); err != nil {
			p.log.Warn("rollback: deleting exercise", "id", ex.ID, "error", err)
		}
	}
}

// isBodyweight reports whether every working set uses "+N" notation or the
// equipment is bodyweight.
func isBodyweight(ex Exercise) bool {
	if strings.EqualFold(ex.Equipment, "Bodyweight") {
		return true
	}
	working := 0
	for _, s := range ex.Sets {
		if s.Warmup {
			continue
		}
		if !s.Bodyweight {
			return false
		}
		working++
	}
	return working > 0
}
