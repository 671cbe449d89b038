package runner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jorge-barreto/reportd/internal/routing"
	"github.com/jorge-barreto/reportd/internal/state"
	"github.com/jorge-barreto/reportd/internal/steps"
)

// Stage numbers match the progress registry's step numbering.
const (
	StagePrepare = iota + 1
	StageResearch
	StageValidate
	StageGenerateContent
	StageCreateInterface
	StageExtractCode
	StageTranslate
	StagePersist
	StageDone
)

var stageNames = map[int]string{
	StagePrepare:         "Prepare data",
	StageResearch:        "Research",
	StageValidate:        "Validate research",
	StageGenerateContent: "Generate report content",
	StageCreateInterface: "Create interface",
	StageExtractCode:     "Extract code",
	StageTranslate:       "Translate",
	StagePersist:         "Save report",
	StageDone:            "Done",
}

// StageName returns the display name for a stage number.
func StageName(stage int) string {
	return stageNames[stage]
}

// Reporter receives a run's progress. Implementations must not block.
type Reporter interface {
	Step(sessionID string, stage int, name, details string)
	LoopBack(sessionID, loop string, attempt, max int)
	Done(st state.WorkflowState)
}

type multi []Reporter

// Multi fans events out to every non-nil reporter.
func Multi(rs ...Reporter) Reporter {
	var m multi
	for _, r := range rs {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multi) Step(id string, stage int, name, details string) {
	for _, r := range m {
		r.Step(id, stage, name, details)
	}
}

func (m multi) LoopBack(id, loop string, attempt, max int) {
	for _, r := range m {
		r.LoopBack(id, loop, attempt, max)
	}
}

func (m multi) Done(st state.WorkflowState) {
	for _, r := range m {
		r.Done(st)
	}
}

// Engine drives one run through the pipeline:
// prepare, the research/validate loop, content generation, the
// create-interface/extract loop, translation and persistence.
type Engine struct {
	Steps        *steps.Steps
	Reporter     Reporter
	ArtifactsDir string // optional export of the final artifacts
}

// Run executes the pipeline and returns the final state. It never panics
// on step failure; the outcome is encoded in the returned state.
func (e *Engine) Run(ctx context.Context, st state.WorkflowState) state.WorkflowState {
	if st.Timing == nil {
		st.Timing = &state.Timing{}
	}
	log.Info().Str("session_id", st.SessionID).Int("max_attempts", st.MaxAttempts).Msg("run started")

	st = e.exec(ctx, st, StagePrepare, "checking credential and loading prompts", e.Steps.Prepare)
	if !st.Success {
		return e.finish(st)
	}

	st, ok := e.researchLoop(ctx, st)
	if !ok {
		return e.finish(st)
	}

	if !st.RateLimitStop() {
		st = e.exec(ctx, st, StageGenerateContent, "", e.Steps.GenerateContent)
	}
	if !st.RateLimitStop() {
		if st, ok = e.interfaceLoop(ctx, st); !ok {
			return e.finish(st)
		}
	}
	if !st.RateLimitStop() {
		st = e.exec(ctx, st, StageTranslate, "translating HTML and JS", e.Steps.Translate)
	}

	st = e.exec(ctx, st, StagePersist, "", e.Steps.Persist)
	return e.finish(st)
}

// researchLoop runs research and validation until PASS, the attempt cap or
// a rate limit. ok is false when the run must end here.
func (e *Engine) researchLoop(ctx context.Context, st state.WorkflowState) (state.WorkflowState, bool) {
	for {
		if ctx.Err() != nil {
			return interrupted(st, ctx.Err()), false
		}
		if st.RateLimitStop() {
			return st, true
		}

		st.CurrentAttempt++
		details := fmt.Sprintf("attempt %d/%d", st.CurrentAttempt, st.MaxAttempts)
		st = e.exec(ctx, st, StageResearch, details, e.Steps.Research)
		if st.RateLimitStop() {
			return st, true
		}
		st = e.exec(ctx, st, StageValidate, details, e.Steps.Validate)

		switch d := routing.AfterValidation(st.Verdict, st.CurrentAttempt, st.MaxAttempts); d {
		case routing.Continue:
			return st, true
		case routing.End:
			st.AddError(fmt.Sprintf("Research did not pass validation after %d attempts", st.CurrentAttempt))
			log.Warn().Str("session_id", st.SessionID).Int("attempts", st.CurrentAttempt).Msg("research loop exhausted")
			return st, false
		default:
			e.loopBack(st.SessionID, "research", st.CurrentAttempt+1, st.MaxAttempts)
		}
	}
}

// interfaceLoop runs create-interface and extract-code until HTML is
// extracted, the interface cap or a rate limit.
func (e *Engine) interfaceLoop(ctx context.Context, st state.WorkflowState) (state.WorkflowState, bool) {
	for {
		if ctx.Err() != nil {
			return interrupted(st, ctx.Err()), false
		}
		if st.RateLimitStop() {
			return st, true
		}

		details := fmt.Sprintf("attempt %d/%d", st.InterfaceAttempt+1, routing.MaxInterfaceAttempts)
		st = e.exec(ctx, st, StageCreateInterface, details, e.Steps.CreateInterface)
		if st.RateLimitStop() {
			return st, true
		}
		st = e.exec(ctx, st, StageExtractCode, details, e.Steps.ExtractCode)

		switch d := routing.AfterExtraction(st.Success, st.InterfaceAttempt); d {
		case routing.Continue:
			return st, true
		case routing.End:
			st.AddError(fmt.Sprintf("Interface creation failed after %d attempts", st.InterfaceAttempt))
			log.Warn().Str("session_id", st.SessionID).Int("attempts", st.InterfaceAttempt).Msg("interface loop exhausted")
			return st, false
		default:
			e.loopBack(st.SessionID, "interface", st.InterfaceAttempt+1, routing.MaxInterfaceAttempts)
		}
	}
}

func (e *Engine) exec(ctx context.Context, st state.WorkflowState, stage int, details string, fn steps.Step) state.WorkflowState {
	name := StageName(stage)
	if e.Reporter != nil {
		e.Reporter.Step(st.SessionID, stage, name, details)
	}
	st.Timing.AddStart(name)
	st = fn(ctx, st)
	d := st.Timing.AddEnd(name)
	log.Debug().Str("session_id", st.SessionID).Str("step", name).Bool("success", st.Success).Dur("elapsed", d).Msg("step finished")
	return st
}

func (e *Engine) loopBack(sessionID, loop string, attempt, max int) {
	log.Info().Str("session_id", sessionID).Str("loop", loop).Int("attempt", attempt).Int("max", max).Msg("retrying")
	if e.Reporter != nil {
		e.Reporter.LoopBack(sessionID, loop, attempt, max)
	}
}

func interrupted(st state.WorkflowState, err error) state.WorkflowState {
	st.AddError(fmt.Sprintf("Run interrupted: %v", err))
	st.Success = false
	return st
}

func (e *Engine) finish(st state.WorkflowState) state.WorkflowState {
	st.Finish()
	if e.ArtifactsDir != "" {
		if dir, err := state.Export(e.ArtifactsDir, st); err != nil {
			log.Warn().Err(err).Str("session_id", st.SessionID).Msg("exporting artifacts")
		} else {
			log.Debug().Str("session_id", st.SessionID).Str("dir", dir).Msg("artifacts exported")
		}
	}

	ev := log.Info()
	if st.Outcome() != "succeeded" {
		ev = log.Warn().Strs("errors", st.Errors)
	}
	if st.ReportID != nil {
		ev = ev.Int64("report_id", *st.ReportID)
	}
	ev.Str("session_id", st.SessionID).Str("outcome", st.Outcome()).Msg("run finished")

	if e.Reporter != nil {
		e.Reporter.Done(st)
	}
	return st
}
