package selector

import (
	"sync"
	"time"
)

// Timer is the debounce timer consulted before presenting a new first task.
type Timer interface {
	Arm(d time.Duration)
	Cancel()
	Armed() bool
}

// WallTimer is a Timer backed by the runtime clock.
type WallTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   int
}

// NewWallTimer returns a disarmed WallTimer.
func NewWallTimer() *WallTimer {
	return &WallTimer{}
}

// Arm starts (or restarts) the timer.
func (w *WallTimer) Arm(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.timer = time.AfterFunc(d, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.gen == gen {
			w.timer = nil
		}
	})
}

// Cancel disarms the timer.
func (w *WallTimer) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
}

// Armed reports whether the timer is running.
func (w *WallTimer) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil
}
