package steps

import (
	"context"
	"strings"

	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/state"
)

const (
	msgInvalidCredential = "API key is invalid or empty"
	msgNoPrimaryPrompt   = "Cannot read combined research validation prompt"
)

// Prepare checks the credential, loads the prompt templates, fills the date
// placeholders and caches the latest real-time data when available.
// A failure here is fatal to the run.
func (s *Steps) Prepare(ctx context.Context, st state.WorkflowState) state.WorkflowState {
	l := logFor(st)
	if strings.TrimSpace(st.Credential) == "" {
		return fail(st, msgInvalidCredential)
	}

	research, ok := s.src.Lookup(prompts.CombinedResearchValidation)
	if !ok {
		return fail(st, msgNoPrimaryPrompt)
	}
	today := s.now().In(s.loc)
	st.ResearchPrompt = prompts.ReplaceDates(research, today)

	optional := func(name string) string {
		v, ok := s.src.Lookup(name)
		if !ok {
			l.Warn().Str("prompt", name).Msg("optional prompt missing, using built-in default")
			return ""
		}
		return prompts.ReplaceDates(v, today)
	}
	st.ValidationPrompt = optional(prompts.DataValidation)
	st.CreateReportPrompt = optional(prompts.CreateReport)
	st.GenerateReportPrompt = optional(prompts.GenerateReport)
	st.TranslateHTMLPrompt = optional(prompts.TranslateHTML)
	st.TranslateJSPrompt = optional(prompts.TranslateJS)

	st.RealtimeData = s.fetchRealtime(ctx, st)
	st.CurrentAttempt = 0
	st.Success = true
	return st
}

func (s *Steps) fetchRealtime(ctx context.Context, st state.WorkflowState) string {
	if s.market == nil {
		return ""
	}
	l := logFor(st)
	e, err := s.market.ReadLatest(ctx)
	if err != nil {
		l.Warn().Err(err).Msg("real-time data unavailable, continuing without it")
		return ""
	}
	if e == nil {
		l.Info().Msg("no real-time data published")
		return ""
	}
	l.Info().Str("entry", e.ID).Int("fields", len(e.Fields)).Msg("cached real-time data")
	return e.JSON()
}
