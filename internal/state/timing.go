package state

import (
	"fmt"
	"sync"
	"time"
)

type TimingEntry struct {
	Step     string    `json:"step"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end,omitempty"`
	Duration string    `json:"duration,omitempty"`
}

// Timing records how long each step invocation took. It lives only as long
// as the run.
type Timing struct {
	mu      sync.Mutex
	Entries []TimingEntry `json:"entries"`
}

// AddStart appends a new timing entry for the given step.
func (t *Timing) AddStart(step string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Entries = append(t.Entries, TimingEntry{
		Step:  step,
		Start: time.Now(),
	})
}

// AddEnd closes the most recent open entry for step and returns its duration.
func (t *Timing) AddEnd(step string) time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.Entries) - 1; i >= 0; i-- {
		if t.Entries[i].Step == step && t.Entries[i].End.IsZero() {
			t.Entries[i].End = time.Now()
			d := t.Entries[i].End.Sub(t.Entries[i].Start)
			t.Entries[i].Duration = FormatDuration(d)
			return d
		}
	}
	return 0
}

// Snapshot returns a copy of the entries.
func (t *Timing) Snapshot() []TimingEntry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TimingEntry, len(t.Entries))
	copy(out, t.Entries)
	return out
}

// FormatDuration renders d as "Xm YYs".
func FormatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}
