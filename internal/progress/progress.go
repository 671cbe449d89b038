package progress

import (
	"sync"
	"time"
)

const (
	StatusStarting   = "starting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// TotalSteps matches the UI-facing step numbering of a run.
const TotalSteps = 9

// Data is the read model exposed to pollers for one session.
type Data struct {
	SessionID   string    `json:"session_id"`
	Status      string    `json:"status"`
	CurrentStep int       `json:"current_step"`
	TotalSteps  int       `json:"total_steps"`
	StepName    string    `json:"step_name"`
	Details     string    `json:"details"`
	Error       *string   `json:"error,omitempty"`
	ReportID    *int64    `json:"report_id,omitempty"`
	Completed   bool      `json:"completed"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Percentage returns the step progress as an integer percentage.
func (d Data) Percentage() int {
	if d.Completed && d.Status == StatusCompleted {
		return 100
	}
	if d.TotalSteps == 0 {
		return 0
	}
	return d.CurrentStep * 100 / d.TotalSteps
}

func (d Data) clone() Data {
	cp := d
	if d.Error != nil {
		e := *d.Error
		cp.Error = &e
	}
	if d.ReportID != nil {
		id := *d.ReportID
		cp.ReportID = &id
	}
	return cp
}

// Registry maps session ids to progress snapshots. Every method takes the
// lock for the duration of that single operation only.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Data
	order    []string // insertion order, oldest first
	now      func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Data),
		now:      time.Now,
	}
}

// Start creates a fresh entry for id, replacing any previous one.
func (r *Registry) Start(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if _, ok := r.sessions[id]; ok {
		r.removeOrder(id)
	}
	r.sessions[id] = &Data{
		SessionID:  id,
		Status:     StatusStarting,
		TotalSteps: TotalSteps,
		StepName:   "Initializing",
		StartedAt:  now,
		UpdatedAt:  now,
	}
	r.order = append(r.order, id)
}

// Update records the current step. It never creates an entry and leaves
// completed entries untouched.
func (r *Registry) Update(id string, step int, name, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.sessions[id]
	if !ok || d.Completed {
		return
	}
	d.CurrentStep = step
	d.StepName = name
	d.Details = details
	d.Status = StatusInProgress
	d.UpdatedAt = r.now()
}

// Complete marks the session finished with the given report id.
func (r *Registry) Complete(id string, reportID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.sessions[id]
	if !ok {
		return
	}
	d.Completed = true
	d.Status = StatusCompleted
	d.CurrentStep = d.TotalSteps
	d.StepName = "Done"
	d.ReportID = &reportID
	d.Error = nil
	d.UpdatedAt = r.now()
}

// Error marks the session failed. Like Complete it is terminal; whichever
// of the two runs last wins.
func (r *Registry) Error(id, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.sessions[id]
	if !ok {
		return
	}
	d.Completed = true
	d.Status = StatusError
	d.StepName = "Failed"
	d.Error = &message
	d.ReportID = nil
	d.UpdatedAt = r.now()
}

// Get returns a copy of the session's progress.
func (r *Registry) Get(id string) (Data, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.sessions[id]
	if !ok {
		return Data{}, false
	}
	return d.clone(), true
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cleanup evicts completed sessions, oldest first, until at most maxEntries
// remain. In-progress sessions are never evicted, so the registry may stay
// above the cap.
func (r *Registry) Cleanup(maxEntries int) int {
	if maxEntries < 0 {
		maxEntries = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	excess := len(r.sessions) - maxEntries
	if excess <= 0 {
		return 0
	}
	kept := r.order[:0]
	removed := 0
	for _, id := range r.order {
		if removed < excess && r.sessions[id].Completed {
			delete(r.sessions, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return removed
}

func (r *Registry) removeOrder(id string) {
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
