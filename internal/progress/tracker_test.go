package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/reportd/internal/state"
)

func TestTracker_StepAndLoopBack(t *testing.T) {
	r := NewRegistry()
	r.Start("s")
	tr := Tracker{R: r}

	tr.Step("s", 2, "Research", "attempt 1/3")
	tr.LoopBack("s", "research", 2, 3)

	d, ok := r.Get("s")
	require.True(t, ok)
	assert.Equal(t, 2, d.CurrentStep)
	assert.Equal(t, "Research", d.StepName)
	assert.Equal(t, "retrying research (attempt 2/3)", d.Details)
}

func TestTracker_DoneSuccess(t *testing.T) {
	r := NewRegistry()
	r.Start("s")
	st := state.New("s", "k", 3)
	id := int64(7)
	st.ReportID = &id
	st.Success = true

	Tracker{R: r}.Done(st)
	d, _ := r.Get("s")
	assert.Equal(t, StatusCompleted, d.Status)
	require.NotNil(t, d.ReportID)
	assert.Equal(t, int64(7), *d.ReportID)
}

func TestTracker_DoneRateLimited(t *testing.T) {
	r := NewRegistry()
	r.Start("s")
	st := state.New("s", "k", 3)
	st.MarkRateLimited("Rate limit encountered")
	st.AddError("Skipped save due to rate limit")

	Tracker{R: r}.Done(st)
	d, _ := r.Get("s")
	assert.Equal(t, StatusError, d.Status)
	require.NotNil(t, d.Error)
	assert.Contains(t, *d.Error, "Rate limit")
	assert.True(t, d.Completed)
}

func TestTracker_DoneWithoutErrors(t *testing.T) {
	r := NewRegistry()
	r.Start("s")
	Tracker{R: r}.Done(state.New("s", "k", 3))
	d, _ := r.Get("s")
	require.NotNil(t, d.Error)
	assert.Equal(t, "Report generation failed", *d.Error)
}
