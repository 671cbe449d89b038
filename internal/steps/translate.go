package steps

import (
	"context"
	"strings"

	"github.com/jorge-barreto/reportd/internal/codeblocks"
	"github.com/jorge-barreto/reportd/internal/genai"
	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/state"
)

const defaultTranslateHTML = "Translate the following HTML content from Vietnamese to English.\n" +
	"Keep all HTML tags intact. Only translate the text content.\n\n" +
	prompts.ContentPlaceholder + "\n\nReturn ONLY the translated HTML without explanation."

const defaultTranslateJS = "Translate the following JavaScript content from Vietnamese to English.\n" +
	"Keep all JavaScript code intact. Only translate string literals and comments.\n\n" +
	prompts.JSContentPlaceholder + "\n\nReturn ONLY the translated JavaScript without explanation."

// Translate produces English HTML and JS. CSS is never translated. A failed
// translation leaves its field empty without failing the step. A rate
// limit stops translation and sets the sticky status but leaves Success
// as the extract step set it.
func (s *Steps) Translate(ctx context.Context, st state.WorkflowState) state.WorkflowState {
	if st.RateLimitStop() {
		return st
	}
	l := logFor(st)

	jobs := []struct {
		what        string
		source      string
		tmpl        string
		fallback    string
		placeholder string
		dst         *string
	}{
		{"HTML", st.HTML, st.TranslateHTMLPrompt, defaultTranslateHTML, prompts.ContentPlaceholder, &st.HTMLEn},
		{"JS", st.JS, st.TranslateJSPrompt, defaultTranslateJS, prompts.JSContentPlaceholder, &st.JSEn},
	}
	for _, j := range jobs {
		if strings.TrimSpace(j.source) == "" {
			continue
		}
		tmpl := j.tmpl
		if tmpl == "" {
			tmpl = j.fallback
		}
		prompt := strings.ReplaceAll(tmpl, j.placeholder, j.source)

		text, err := s.gen.Generate(ctx, st.Credential, prompt, genai.TranslateParams)
		if err != nil {
			if genai.IsRateLimit(err) {
				l.Error().Err(err).Str("content", j.what).Msg("rate limit while translating")
				ok := st.Success
				st.MarkRateLimited("Rate limit error when translating " + j.what)
				st.Success = ok
				return st
			}
			l.Warn().Err(err).Str("content", j.what).Msg("translation failed, leaving English version unset")
			continue
		}
		*j.dst = codeblocks.Unwrap(text)
		l.Info().Str("content", j.what).Int("chars", len(*j.dst)).Msg("translated")
	}
	st.Success = true
	return st
}
