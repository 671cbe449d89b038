// Package steps implements the report pipeline steps. Every step takes the
// run's state by value and returns the updated value; failures are encoded
// into the state, never returned.
package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jorge-barreto/reportd/internal/genai"
	"github.com/jorge-barreto/reportd/internal/marketdata"
	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/state"
	"github.com/jorge-barreto/reportd/internal/store"
)

// Step is one pipeline stage. Every step returns st unchanged once the run
// is rate limited. The engine already skips stages in that case, so the
// per-step guard only matters when a step is called on its own.
type Step func(ctx context.Context, st state.WorkflowState) state.WorkflowState

// Deps are the collaborators the steps call out to. Market and Store may be
// nil; Location defaults to UTC.
type Deps struct {
	Generator genai.Generator
	Prompts   prompts.Source
	Market    marketdata.Source
	Store     store.Reports
	Location  *time.Location
	Now       func() time.Time
}

// Steps binds the pipeline steps to their collaborators.
type Steps struct {
	gen    genai.Generator
	src    prompts.Source
	market marketdata.Source
	store  store.Reports
	loc    *time.Location
	now    func() time.Time
}

// New builds the step set.
func New(d Deps) *Steps {
	s := &Steps{
		gen:    d.Generator,
		src:    d.Prompts,
		market: d.Market,
		store:  d.Store,
		loc:    d.Location,
		now:    d.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.src == nil {
		s.src = prompts.MapSource{}
	}
	return s
}

func logFor(st state.WorkflowState) *zerolog.Logger {
	l := log.With().Str("session_id", st.SessionID).Logger()
	return &l
}

// callFailed records a failed generation call. Rate limits set the sticky
// status with rlMsg; anything else is appended as "<what> failed: <err>".
func callFailed(st state.WorkflowState, what string, err error, rlMsg string) state.WorkflowState {
	l := logFor(st)
	if genai.IsRateLimit(err) {
		l.Error().Err(err).Str("step", what).Msg("rate limit hit, stopping run")
		st.MarkRateLimited(rlMsg)
		return st
	}
	l.Error().Err(err).Str("step", what).Msg("generation failed")
	st.AddError(fmt.Sprintf("%s failed: %v", what, err))
	st.Success = false
	return st
}

func fail(st state.WorkflowState, msg string) state.WorkflowState {
	logFor(st).Error().Msg(msg)
	st.AddError(msg)
	st.Success = false
	return st
}
