package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/claude/repbuddy/internal/models"
)

// Keys under which each collection is stored.
const (
	KeyExercises = "repbuddy_exercises"
	KeyRoutines  = "repbuddy_routines"
	KeyWorkouts  = "repbuddy_workouts"
	KeyProfile   = "repbuddy_profile"
)

// ErrNotFound is returned when a record with the requested ID does not exist.
var ErrNotFound = errors.New("not found")

// Store is the entity repository. Each collection is a single JSON array
// under one key; every read-modify-write of a collection holds that
// collection's lock so overlapping saves cannot clobber each other.
type Store struct {
	kv KV

	exercisesMu sync.Mutex
	routinesMu  sync.Mutex
	workoutsMu  sync.Mutex
	profileMu   sync.Mutex

	importLogsMu sync.Mutex
}

// NewStore wraps a KV backend.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

// --- Exercises ---

func (s *Store) GetExercises(ctx context.Context) ([]models.Exercise, error) {
	s.exercisesMu.Lock()
	defer s.exercisesMu.Unlock()
	return getList[models.Exercise](ctx, s.kv, KeyExercises)
}

// SaveExercise inserts or replaces by ID.
func (s *Store) SaveExercise(ctx context.Context, ex models.Exercise) error {
	s.exercisesMu.Lock()
	defer s.exercisesMu.Unlock()
	list, err := getList[models.Exercise](ctx, s.kv, KeyExercises)
	if err != nil {
		return err
	}
	list = upsert(list, ex, func(e models.Exercise) string { return e.ID })
	return setList(ctx, s.kv, KeyExercises, list)
}

func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	s.exercisesMu.Lock()
	defer s.exercisesMu.Unlock()
	list, err := getList[models.Exercise](ctx, s.kv, KeyExercises)
	if err != nil {
		return err
	}
	list = removeByID(list, id, func(e models.Exercise) string { return e.ID })
	return setList(ctx, s.kv, KeyExercises, list)
}

// --- Workouts ---

func (s *Store) GetWorkouts(ctx context.Context) ([]models.Workout, error) {
	s.workoutsMu.Lock()
	defer s.workoutsMu.Unlock()
	return getList[models.Workout](ctx, s.kv, KeyWorkouts)
}

func (s *Store) GetWorkout(ctx context.Context, id string) (models.Workout, error) {
	list, err := s.GetWorkouts(ctx)
	if err != nil {
		return models.Workout{}, err
	}
	for _, w := range list {
		if w.ID == id {
			return w, nil
		}
	}
	return models.Workout{}, fmt.Errorf("workout %s: %w", id, ErrNotFound)
}

// SaveWorkout inserts or replaces by ID.
func (s *Store) SaveWorkout(ctx context.Context, w models.Workout) error {
	s.workoutsMu.Lock()
	defer s.workoutsMu.Unlock()
	list, err := getList[models.Workout](ctx, s.kv, KeyWorkouts)
	if err != nil {
		return err
	}
	list = upsert(list, w, func(w models.Workout) string { return w.ID })
	return setList(ctx, s.kv, KeyWorkouts, list)
}

func (s *Store) DeleteWorkout(ctx context.Context, id string) error {
	s.workoutsMu.Lock()
	defer s.workoutsMu.Unlock()
	list, err := getList[models.Workout](ctx, s.kv, KeyWorkouts)
	if err != nil {
		return err
	}
	list = removeByID(list, id, func(w models.Workout) string { return w.ID })
	return setList(ctx, s.kv, KeyWorkouts, list)
}

// --- Routines ---

func (s *Store) GetRoutines(ctx context.Context) ([]models.Routine, error) {
	s.routinesMu.Lock()
	defer s.routinesMu.Unlock()
	return getList[models.Routine](ctx, s.kv, KeyRoutines)
}

func (s *Store) GetRoutine(ctx context.Context, id string) (models.Routine, error) {
	list, err := s.GetRoutines(ctx)
	if err != nil {
		return models.Routine{}, err
	}
	for _, r := range list {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Routine{}, fmt.Errorf("routine %s: %w", id, ErrNotFound)
}

// SaveRoutine inserts or replaces by ID.
func (s *Store) SaveRoutine(ctx context.Context, r models.Routine) error {
	s.routinesMu.Lock()
	defer s.routinesMu.Unlock()
	list, err := getList[models.Routine](ctx, s.kv, KeyRoutines)
	if err != nil {
		return err
	}
	list = upsert(list, r, func(r models.Routine) string { return r.ID })
	return setList(ctx, s.kv, KeyRoutines, list)
}

func (s *Store) DeleteRoutine(ctx context.Context, id string) error {
	s.routinesMu.Lock()
	defer s.routinesMu.Unlock()
	list, err := getList[models.Routine](ctx, s.kv, KeyRoutines)
	if err != nil {
		return err
	}
	list = removeByID(list, id, func(r models.Routine) string { return r.ID })
	return setList(ctx, s.kv, KeyRoutines, list)
}

// --- Profile ---

// GetProfile returns the saved profile, or an empty one if none was saved.
func (s *Store) GetProfile(ctx context.Context) (models.UserProfile, error) {
	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	var p models.UserProfile
	raw, err := s.kv.Get(ctx, KeyProfile)
	if err != nil {
		return p, fmt.Errorf("reading profile: %w", err)
	}
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decoding profile: %w", err)
	}
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p models.UserProfile) error {
	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return s.kv.Set(ctx, KeyProfile, data)
}

// ClearAll wipes every collection. Irreversible.
func (s *Store) ClearAll(ctx context.Context) error {
	// Fixed lock order.
	s.exercisesMu.Lock()
	defer s.exercisesMu.Unlock()
	s.routinesMu.Lock()
	defer s.routinesMu.Unlock()
	s.workoutsMu.Lock()
	defer s.workoutsMu.Unlock()
	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	s.importLogsMu.Lock()
	defer s.importLogsMu.Unlock()
	return s.kv.Clear(ctx)
}

func getList[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	list := []T{}
	if len(raw) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func setList[T any](ctx context.Context, kv KV, key string, list []T) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return kv.Set(ctx, key, data)
}

// upsert replaces the element with the same ID in place, or appends.
func upsert[T any](list []T, item T, idOf func(T) string) []T {
	id := idOf(item)
	for i := range list {
		if idOf(list[i]) == id {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

func removeByID[T any](list []T, id string, idOf func(T) string) []T {
	out := list[:0]
	for _, v := range list {
		if idOf(v) != id {
			out = append(out, v)
		}
	}
	return out
}
