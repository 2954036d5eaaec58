// Package session implements the in-progress workout: the draft being
// logged, the active-exercise pointer, the rest countdown, the elapsed
// clock, and the finish/discard transitions that end it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/claude/repbuddy/internal/metrics"
	"github.com/claude/repbuddy/internal/models"
)

var (
	// ErrNotActive is returned by mutations on a session that is still
	// loading or has already finished or been discarded.
	ErrNotActive = errors.New("workout is not active")
	// ErrNoSession is returned when no workout is in progress.
	ErrNoSession = errors.New("no workout in progress")
	// ErrSessionInProgress is returned when starting while another workout
	// is live.
	ErrSessionInProgress = errors.New("a workout is already in progress")
)

// Messages reported by Finish.
const (
	MsgEmptyWorkout = "Add at least one exercise with sets."
	MsgEmptySets    = "Some exercises have no sets. Save anyway?"
)

// State is the lifecycle position of a session.
type State int

const (
	StateLoading State = iota
	StateActive
	StateFinished
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	case StateDiscarded:
		return "discarded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateLoading; st <= StateDiscarded; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// Field names a WorkoutSet field editable through UpdateSet.
type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
)

// Store is the part of the entity store a session uses.
type Store interface {
	GetExercises(ctx context.Context) ([]models.Exercise, error)
	GetRoutines(ctx context.Context) ([]models.Routine, error)
	SaveWorkout(ctx context.Context, w models.Workout) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithTickInterval changes the one-second cadence of the elapsed clock and
// rest countdown.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRestPresets sets the durations StartRest accepts.
func WithRestPresets(presets []int) Option {
	return func(s *Session) {
		if len(presets) > 0 {
			s.presets = slices.Clone(presets)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// Tick is published to subscribers once per interval while the session is
// live, and once more when it ends.
type Tick struct {
	State          State  `json:"state"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
	Elapsed        string `json:"elapsed"`
	RestRemaining  int    `json:"restRemaining"`
}

// FinishOutcome says what Finish did.
type FinishOutcome string

const (
	OutcomeSaved             FinishOutcome = "saved"
	OutcomeRejected          FinishOutcome = "rejected"
	OutcomeNeedsConfirmation FinishOutcome = "needs_confirmation"
)

// FinishResult is the user-facing outcome of Finish. Validation problems are
// reported here, not as errors.
type FinishResult struct {
	Outcome FinishOutcome   `json:"outcome"`
	Message string          `json:"message,omitempty"`
	Workout *models.Workout `json:"workout,omitempty"`
}

// View is a point-in-time copy of the session for display.
type View struct {
	State          State          `json:"state"`
	Workout        models.Workout `json:"workout"`
	ActiveIndex    int            `json:"activeIndex"`
	PickerOpen     bool           `json:"pickerOpen"`
	ElapsedSeconds int64          `json:"elapsedSeconds"`
	Elapsed        string         `json:"elapsed"`
	RestRemaining  int            `json:"restRemaining"`
	RestPresets    []int          `json:"restPresets"`
	// ActiveVolume is nil when there is no active exercise or it is
	// bodyweight.
	ActiveVolume *float64 `json:"activeVolume,omitempty"`
}

// Session owns one workout draft from start until finish or discard. All
// methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	store    Store
	clock    Clock
	log      *slog.Logger
	interval time.Duration
	presets  []int

	state   State
	draft   models.Workout
	catalog []models.Exercise
	active  int
	picker  bool
	started time.Time

	rest      *RestTimer
	stopClock context.CancelFunc
	subs      map[int]chan Tick
	nextSub   int
	closed    bool
}

// New returns a session in the Loading state. Call Load to make it active.
func New(store Store, opts ...Option) *Session {
	s := &Session{
		store:    store,
		clock:    systemClock{},
		log:      slog.Default(),
		interval: time.Second,
		presets:  slices.Clone(DefaultRestPresets),
		subs:     make(map[int]chan Tick),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rest = NewRestTimer(s.interval)
	return s
}

// Start creates a session and loads it.
func Start(ctx context.Context, store Store, routineID string, opts ...Option) (*Session, error) {
	s := New(store, opts...)
	if err := s.Load(ctx, routineID); err != nil {
		return nil, err
	}
	return s, nil
}

// Load fetches the exercise catalog and, when routineID names an existing
// routine, pre-populates one empty log per routine exercise that still
// exists. Unknown routines and missing exercises are skipped silently.
func (s *Session) Load(ctx context.Context, routineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return ErrNotActive
	}

	catalog, err := s.store.GetExercises(ctx)
	if err != nil {
		return fmt.Errorf("loading exercises: %w", err)
	}
	logs := []models.ExerciseLog{}
	if routineID != "" {
		routines, err := s.store.GetRoutines(ctx)
		if err != nil {
			return fmt.Errorf("loading routines: %w", err)
		}
		if i := slices.IndexFunc(routines, func(r models.Routine) bool { return r.ID == routineID }); i >= 0 {
			for _, exID := range routines[i].ExerciseIDs {
				j := slices.IndexFunc(catalog, func(e models.Exercise) bool { return e.ID == exID })
				if j < 0 {
					continue
				}
				logs = append(logs, models.NewExerciseLog(catalog[j]))
			}
		} else {
			s.log.Info("routine not found, starting empty workout", "routine_id", routineID)
		}
	}

	s.started = s.clock.Now()
	s.catalog = catalog
	s.draft = models.Workout{
		ID:        models.NewID(),
		Date:      s.started.UTC().Truncate(time.Millisecond),
		Exercises: logs,
	}
	s.active = 0
	s.state = StateActive

	ctx, cancel := context.WithCancel(context.Background())
	s.stopClock = cancel
	go s.runClock(ctx)
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Live reports whether the session is loading or active.
func (s *Session) Live() bool {
	st := s.State()
	return st == StateLoading || st == StateActive
}

// Catalog returns the exercises available to the picker.
func (s *Session) Catalog() []models.Exercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.catalog)
}

// Elapsed returns the wall time since the session started.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Session) elapsedLocked() time.Duration {
	if s.started.IsZero() {
		return 0
	}
	return s.clock.Now().Sub(s.started)
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := int64(s.elapsedLocked() / time.Second)
	v := View{
		State:          s.state,
		Workout:        s.draft.Clone(),
		ActiveIndex:    s.active,
		PickerOpen:     s.picker,
		ElapsedSeconds: elapsed,
		Elapsed:        metrics.FormatElapsed(elapsed),
		RestRemaining:  s.rest.Remaining(),
		RestPresets:    slices.Clone(s.presets),
	}
	if s.active < len(s.draft.Exercises) {
		if vol, ok := metrics.ExerciseVolume(s.draft.Exercises[s.active]); ok {
			v.ActiveVolume = &vol
		}
	}
	return v
}

// OpenPicker enters the exercise picker sub-mode.
func (s *Session) OpenPicker() error {
	return s.mutate(func() { s.picker = true })
}

// ClosePicker leaves the picker without changing the draft.
func (s *Session) ClosePicker() error {
	return s.mutate(func() { s.picker = false })
}

// AddExercise appends an empty log for ex, makes it active and closes the
// picker.
func (s *Session) AddExercise(ex models.Exercise) error {
	return s.mutate(func() {
		s.draft.Exercises = append(s.draft.Exercises, models.NewExerciseLog(ex))
		s.active = len(s.draft.Exercises) - 1
		s.picker = false
	})
}

// AddSet appends a set to the active exercise, copying weight and reps
// from the previous set. Does nothing when there is no exercise.
func (s *Session) AddSet() error {
	return s.mutate(func() {
		log := s.activeLog()
		if log == nil {
			return
		}
		next := models.WorkoutSet{}
		if n := len(log.Sets); n > 0 {
			next = log.Sets[n-1]
		}
		log.Sets = append(log.Sets, next)
	})
}

// UpdateSet parses raw and stores it in field of the given set of the active
// exercise. Unparsable input becomes 0.
func (s *Session) UpdateSet(setIndex int, field Field, raw string) error {
	return s.mutate(func() {
		log := s.activeLog()
		if log == nil || setIndex < 0 || setIndex >= len(log.Sets) {
			return
		}
		num := parseLoose(raw)
		switch field {
		case FieldWeight:
			log.Sets[setIndex].Weight = num
		case FieldReps:
			log.Sets[setIndex].Reps = num
		}
	})
}

// RemoveSet deletes a set from the active exercise.
func (s *Session) RemoveSet(setIndex int) error {
	return s.mutate(func() {
		log := s.activeLog()
		if log == nil || setIndex < 0 || setIndex >= len(log.Sets) {
			return
		}
		log.Sets = slices.Delete(log.Sets, setIndex, setIndex+1)
	})
}

// RemoveExercise deletes the log at index and clamps the active pointer to
// the last remaining exercise.
func (s *Session) RemoveExercise(index int) error {
	return s.mutate(func() {
		if index < 0 || index >= len(s.draft.Exercises) {
			return
		}
		s.draft.Exercises = slices.Delete(s.draft.Exercises, index, index+1)
		if s.active >= len(s.draft.Exercises) {
			s.active = max(0, len(s.draft.Exercises)-1)
		}
	})
}

// SetActiveExercise switches the exercise being edited. Invalid indices are
// ignored.
func (s *Session) SetActiveExercise(index int) error {
	return s.mutate(func() {
		if index >= 0 && index < len(s.draft.Exercises) {
			s.active = index
		}
	})
}

// SetExerciseNotes replaces the notes on the log at index.
func (s *Session) SetExerciseNotes(index int, notes string) error {
	return s.mutate(func() {
		if index >= 0 && index < len(s.draft.Exercises) {
			s.draft.Exercises[index].Notes = notes
		}
	})
}

// RestPresets returns the accepted rest durations in seconds.
func (s *Session) RestPresets() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.presets)
}

// StartRest starts a rest countdown of one of the preset durations,
// replacing any countdown already running.
func (s *Session) StartRest(seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	if !slices.Contains(s.presets, seconds) {
		return &models.ValidationError{Field: "seconds", Message: fmt.Sprintf("Rest must be one of %v seconds", s.presets)}
	}
	s.rest.Start(seconds)
	return nil
}

// SkipRest zeroes the rest countdown.
func (s *Session) SkipRest() error {
	return s.mutate(func() { s.rest.Skip() })
}

// RestRemaining returns the seconds left on the rest countdown.
func (s *Session) RestRemaining() int {
	return s.rest.Remaining()
}

// Finish validates the draft and, when it passes, stamps the duration and
// saves it. confirmed acknowledges exercises without sets. On a store error
// the session stays active so the user can retry.
func (s *Session) Finish(ctx context.Context, confirmed bool) (FinishResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return FinishResult{}, ErrNotActive
	}

	if len(s.draft.Exercises) == 0 {
		return FinishResult{Outcome: OutcomeRejected, Message: MsgEmptyWorkout}, nil
	}
	hasEmpty := slices.ContainsFunc(s.draft.Exercises, func(l models.ExerciseLog) bool { return len(l.Sets) == 0 })
	if hasEmpty && !confirmed {
		return FinishResult{Outcome: OutcomeNeedsConfirmation, Message: MsgEmptySets}, nil
	}

	final := s.draft.Clone()
	final.DurationMs = s.elapsedLocked().Milliseconds()
	if err := s.store.SaveWorkout(ctx, final); err != nil {
		return FinishResult{}, fmt.Errorf("saving workout: %w", err)
	}

	s.log.Info("workout finished",
		"workout_id", final.ID,
		"exercises", len(final.Exercises),
		"sets", final.SetCount(),
		"duration_ms", final.DurationMs,
	)
	s.endLocked(StateFinished)
	return FinishResult{Outcome: OutcomeSaved, Workout: &final}, nil
}

// Discard drops the draft without saving. Confirmation is the caller's job.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive && s.state != StateLoading {
		return ErrNotActive
	}
	s.log.Info("workout discarded", "workout_id", s.draft.ID)
	s.endLocked(StateDiscarded)
	return nil
}

// Close stops the clocks and ends subscriptions without changing state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimersLocked()
	s.closeSubsLocked()
}

// Subscribe returns a channel of ticks and a func to stop receiving them.
// The channel is closed when the session ends or is closed. Slow readers
// miss ticks rather than block the clock.
func (s *Session) Subscribe() (<-chan Tick, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Tick, 1)
	if s.closed || s.state == StateFinished || s.state == StateDiscarded {
		ch <- s.tickLocked()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) mutate(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	fn()
	return nil
}

func (s *Session) activeLog() *models.ExerciseLog {
	if s.active < 0 || s.active >= len(s.draft.Exercises) {
		return nil
	}
	return &s.draft.Exercises[s.active]
}

func (s *Session) endLocked(st State) {
	s.state = st
	s.picker = false
	s.stopTimersLocked()
	final := s.tickLocked()
	for id, ch := range s.subs {
		select {
		case ch <- final:
		default:
		}
		close(ch)
		delete(s.subs, id)
	}
	s.draft = models.Workout{}
	s.active = 0
}

func (s *Session) stopTimersLocked() {
	if s.stopClock != nil {
		s.stopClock()
		s.stopClock = nil
	}
	s.rest.Skip()
}

func (s *Session) closeSubsLocked() {
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Session) tickLocked() Tick {
	elapsed := int64(s.elapsedLocked() / time.Second)
	return Tick{
		State:          s.state,
		ElapsedSeconds: elapsed,
		Elapsed:        metrics.FormatElapsed(elapsed),
		RestRemaining:  s.rest.Remaining(),
	}
}

func (s *Session) runClock(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publish()
		}
	}
}

func (s *Session) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	t := s.tickLocked()
	for _, ch := range s.subs {
		// Drop a stale tick so the reader always gets the latest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- t:
		default:
		}
	}
}
