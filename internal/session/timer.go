// Package session tracks how long a table has had an open cart.
// The elapsed time is for display only and never feeds into billing.
package session

import (
	"fmt"
	"sync"
	"time"
)

// Clock returns the current time. Tests swap it for a fixed clock.
type Clock func() time.Time

// Timer records the moment a cart went from empty to non-empty.
type Timer struct {
	mu     sync.RWMutex
	now    Clock
	origin *time.Time
}

// NewTimer creates a stopped timer. A nil clock means time.Now.
func NewTimer(now Clock) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

// Start records the current time as the origin and returns it.
// Starting a running timer resets the origin.
func (t *Timer) Start() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	origin := t.now().UTC()
	t.origin = &origin
	return origin
}

// Restore sets the origin from a persisted value.
func (t *Timer) Restore(origin time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := origin.UTC()
	t.origin = &o
}

// Stop clears the origin.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.origin = nil
}

// Origin returns the start time and whether the timer is running.
func (t *Timer) Origin() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.origin == nil {
		return time.Time{}, false
	}
	return *t.origin, true
}

// Elapsed is now - origin, or 0 when stopped. Clock skew never yields a
// negative duration.
func (t *Timer) Elapsed() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.origin == nil {
		return 0
	}
	d := t.now().Sub(*t.origin)
	if d < 0 {
		return 0
	}
	return d
}

// FormatElapsed renders a duration as HH:MM:SS, truncated to whole seconds.
func FormatElapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
