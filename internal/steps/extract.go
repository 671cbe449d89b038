package steps

import (
	"context"
	"strings"

	"github.com/jorge-barreto/reportd/internal/codeblocks"
	"github.com/jorge-barreto/reportd/internal/state"
)

// ExtractCode pulls the html, css and js blocks out of the interface
// response. Missing HTML fails the step; CSS and JS are optional.
func (s *Steps) ExtractCode(_ context.Context, st state.WorkflowState) state.WorkflowState {
	if st.RateLimitStop() {
		return st
	}
	if strings.TrimSpace(st.InterfaceContent) == "" {
		return fail(st, "No content to extract code from")
	}
	iface, ok := codeblocks.ExtractInterface(st.InterfaceContent)
	if !ok {
		return fail(st, "Failed to extract HTML content")
	}
	st.HTML, st.CSS, st.JS = iface.HTML, iface.CSS, iface.JS
	logFor(st).Info().
		Int("html", len(st.HTML)).
		Int("css", len(st.CSS)).
		Int("js", len(st.JS)).
		Msg("extracted interface code")
	st.Success = true
	return st
}
