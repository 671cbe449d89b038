package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/jorge-barreto/reportd/internal/state"
	"github.com/jorge-barreto/reportd/internal/store"
)

const (
	msgSkippedRateLimit = "Skipped save due to rate limit"
	msgMissingHTML      = "HTML content is missing or empty"
)

// Persist saves the finished report. It refuses to save under a rate limit
// or without HTML, and never retries a failed insert.
func (s *Steps) Persist(ctx context.Context, st state.WorkflowState) state.WorkflowState {
	if st.RateLimitStop() {
		st.AddError(msgSkippedRateLimit)
		st.Success = false
		logFor(st).Warn().Msg(msgSkippedRateLimit)
		return st
	}
	if strings.TrimSpace(st.HTML) == "" {
		return fail(st, msgMissingHTML)
	}
	if s.store == nil {
		return fail(st, "Database save error: no report store configured")
	}
	rep, err := s.store.Insert(ctx, store.NewReport{
		HTML:   st.HTML,
		CSS:    st.CSS,
		JS:     st.JS,
		HTMLEn: st.HTMLEn,
		JSEn:   st.JSEn,
	})
	if err != nil {
		return fail(st, fmt.Sprintf("Database save error: %v", err))
	}
	id := rep.ID
	st.ReportID = &id
	st.Success = true
	logFor(st).Info().Int64("report_id", id).Msg("report saved")
	return st
}
