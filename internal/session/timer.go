package session

import (
	"context"
	"sync"
	"time"
)

// DefaultRestPresets are the rest durations offered during a session, in
// seconds.
var DefaultRestPresets = []int{60, 90, 120}

// RestTimer is a whole-second countdown. At most one countdown runs at a
// time: starting a new one cancels the previous.
type RestTimer struct {
	mu        sync.Mutex
	interval  time.Duration
	remaining int
	gen       int
	cancel    context.CancelFunc
}

// NewRestTimer returns an idle timer that decrements once per interval.
func NewRestTimer(interval time.Duration) *RestTimer {
	if interval <= 0 {
		interval = time.Second
	}
	return &RestTimer{interval: interval}
}

// Start begins a countdown from seconds, replacing any running one.
func (t *RestTimer) Start(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	if seconds <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.gen++
	t.remaining = seconds
	t.cancel = cancel
	go t.run(ctx, t.gen)
}

// Skip zeroes the countdown.
func (t *RestTimer) Skip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Remaining returns the seconds left, zero when idle.
func (t *RestTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether a countdown is in progress.
func (t *RestTimer) Running() bool {
	return t.Remaining() > 0
}

func (t *RestTimer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
	t.remaining = 0
}

func (t *RestTimer) run(ctx context.Context, gen int) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.tick(gen) {
				return
			}
		}
	}
}

// tick decrements the countdown started as generation gen. It returns false
// once that countdown is over or has been replaced.
func (t *RestTimer) tick(gen int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.remaining <= 0 {
		return false
	}
	t.remaining--
	if t.remaining == 0 {
		t.stopLocked()
		return false
	}
	return true
}
