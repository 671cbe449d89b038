package steps

import (
	"context"

	"github.com/jorge-barreto/reportd/internal/genai"
	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/state"
)

// Research runs the combined research prompt with search grounding.
func (s *Steps) Research(ctx context.Context, st state.WorkflowState) state.WorkflowState {
	if st.RateLimitStop() {
		return st
	}
	if st.ResearchPrompt == "" {
		return fail(st, "Research prompt is missing")
	}
	prompt := prompts.InjectRealtime(st.ResearchPrompt, st.RealtimeData)

	logFor(st).Info().Int("attempt", st.CurrentAttempt).Int("max", st.MaxAttempts).Msg("research")
	text, err := s.gen.Generate(ctx, st.Credential, prompt, genai.ResearchParams)
	if err != nil {
		return callFailed(st, "Research", err, "Rate limit encountered")
	}
	st.ResearchContent = text
	st.Success = true
	return st
}
