package progress

import (
	"fmt"

	"github.com/jorge-barreto/reportd/internal/state"
)

// Tracker feeds a run's step events into a Registry.
type Tracker struct {
	R *Registry
}

func (t Tracker) Step(sessionID string, step int, name, details string) {
	t.R.Update(sessionID, step, name, details)
}

func (t Tracker) LoopBack(sessionID, loop string, attempt, max int) {
	d, ok := t.R.Get(sessionID)
	if !ok {
		return
	}
	t.R.Update(sessionID, d.CurrentStep, d.StepName, fmt.Sprintf("retrying %s (attempt %d/%d)", loop, attempt, max))
}

// Done records the terminal outcome of the run.
func (t Tracker) Done(st state.WorkflowState) {
	if st.Success && st.ReportID != nil {
		t.R.Complete(st.SessionID, *st.ReportID)
		return
	}
	msg := st.ErrorSummary()
	if msg == "" {
		msg = "Report generation failed"
	}
	t.R.Error(st.SessionID, msg)
}
