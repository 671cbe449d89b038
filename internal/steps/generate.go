package steps

import (
	"context"
	"strings"

	"github.com/jorge-barreto/reportd/internal/genai"
	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/state"
)

const defaultCreateReportPrompt = "Generate a professional crypto market report based on the following research:"

const defaultInterfacePrompt = `Create a complete, responsive HTML page for a crypto market report.

## Requirements:
1. Use modern CSS with dark theme
2. Include interactive elements with JavaScript
3. Make it mobile-responsive
4. Use professional design with gradients and animations

## Report Content:
{content}

## Output Format:
Return the complete code in three separate code blocks:
` + "```html\n<!-- HTML code here -->\n```\n\n```css\n/* CSS code here */\n```\n\n```javascript\n// JavaScript code here\n```"

// GenerateContent turns validated research into report text.
func (s *Steps) GenerateContent(ctx context.Context, st state.WorkflowState) state.WorkflowState {
	if st.RateLimitStop() {
		return st
	}
	if strings.TrimSpace(st.ResearchContent) == "" {
		return fail(st, "Research content is missing")
	}
	head := st.CreateReportPrompt
	if head == "" {
		head = defaultCreateReportPrompt
	}
	prompt := head + "\n\n## Research Content:\n" + st.ResearchContent

	text, err := s.gen.Generate(ctx, st.Credential, prompt, genai.ContentParams)
	if err != nil {
		return callFailed(st, "Content generation", err, "Rate limit encountered")
	}
	st.ReportContent = text
	st.Success = true
	return st
}

// CreateInterface asks for the HTML/CSS/JS rendering of the report. Each
// call counts against the interface attempt cap, failed or not.
func (s *Steps) CreateInterface(ctx context.Context, st state.WorkflowState) state.WorkflowState {
	if st.RateLimitStop() {
		return st
	}
	st.InterfaceAttempt++
	st.InterfaceContent = ""

	body := st.ReportContent
	if strings.TrimSpace(body) == "" {
		body = st.ResearchContent
	}
	if strings.TrimSpace(body) == "" {
		return fail(st, "Report content is missing")
	}
	tmpl := st.GenerateReportPrompt
	if tmpl == "" || !strings.Contains(tmpl, prompts.ContentPlaceholder) {
		if tmpl != "" {
			tmpl += "\n\n## Report Content:\n" + prompts.ContentPlaceholder
		} else {
			tmpl = defaultInterfacePrompt
		}
	}
	prompt := strings.ReplaceAll(tmpl, prompts.ContentPlaceholder, body)

	logFor(st).Info().Int("attempt", st.InterfaceAttempt).Msg("create interface")
	text, err := s.gen.Generate(ctx, st.Credential, prompt, genai.InterfaceParams)
	if err != nil {
		return callFailed(st, "Interface creation", err, "Rate limit encountered")
	}
	st.InterfaceContent = text
	st.Success = true
	return st
}
