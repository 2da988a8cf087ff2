// Package common provides small helpers shared by the extraction stages.
package common

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures one stage of a run, such as a page or a whole document.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
	stopped  bool
}

// NewTimer starts an unnamed timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer starts a timer labelled with name.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop records and returns the elapsed time. Later calls return the first
// recorded value.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.duration = time.Since(t.start)
		t.stopped = true
	}
	return t.duration
}

// Elapsed returns the running time without stopping the timer.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.duration
	}
	return time.Since(t.start)
}

// Duration returns the recorded duration (zero until Stop).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name (empty string if unnamed).
func (t *Timer) Name() string {
	return t.name
}

// String formats the duration rounded to milliseconds, prefixed by the name.
func (t *Timer) String() string {
	d := t.Elapsed().Round(time.Millisecond)
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, d)
	}
	return d.String()
}

// LogValue implements slog.LogValuer.
func (t *Timer) LogValue() slog.Value {
	return slog.DurationValue(t.Elapsed())
}
