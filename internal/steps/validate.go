package steps

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jorge-barreto/reportd/internal/routing"
	"github.com/jorge-barreto/reportd/internal/state"
)

// MinContentLength is the rune count below which unmarked research fails.
const MinContentLength = 2000

// PassScore is the number of quality signals needed to pass unmarked research.
const PassScore = 4

var (
	passMarkerRe = regexp.MustCompile(`(?i)(KẾT QUẢ KIỂM TRA|VALIDATION RESULT):\s*PASS`)
	failMarkerRe = regexp.MustCompile(`(?i)(KẾT QUẢ KIỂM TRA|VALIDATION RESULT):\s*FAIL`)
	numberRe = regexp.MustCompile(`\d+\.?\d*\s*%|\$\d+`)
)

type signal struct {
	name  string
	match func(raw, lower string) bool
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var signals = []signal{
	{"price", func(_, lower string) bool { return containsAny(lower, "bitcoin", "btc") }},
	{"analysis", func(_, lower string) bool {
		return containsAny(lower, "phân tích", "analysis", "thị trường", "market")
	}},
	{"numbers", func(raw, _ string) bool { return numberRe.MatchString(raw) }},
	{"sentiment", func(_, lower string) bool { return containsAny(lower, "fear", "greed", "sợ hãi", "tham lam") }},
	{"table", func(raw, _ string) bool {
		return containsAny(raw, "Bảng Đối chiếu", "Validation Summary", "| Dữ liệu", "| BTC Price")
	}},
}

// Verdict classifies research text as PASS or FAIL. An explicit marker
// wins, and a PASS marker anywhere beats any FAIL marker. Otherwise long
// enough content is scored on five quality signals.
func Verdict(content string) (verdict string, score int) {
	switch {
	case passMarkerRe.MatchString(content):
		return routing.VerdictPass, -1
	case failMarkerRe.MatchString(content):
		return routing.VerdictFail, -1
	}
	lower := strings.ToLower(content)
	switch {
	case containsAny(lower, "validation: pass", "validation_result: pass", "✅ pass"):
		return routing.VerdictPass, -1
	case containsAny(lower, "validation: fail", "validation_result: fail", "❌ fail"):
		return routing.VerdictFail, -1
	}

	if utf8.RuneCountInString(content) < MinContentLength {
		return routing.VerdictFail, 0
	}
	for _, sig := range signals {
		if sig.match(content, lower) {
			score++
		}
	}
	if score >= PassScore {
		return routing.VerdictPass, score
	}
	return routing.VerdictFail, score
}

// Validate sets the verdict for the current research content.
func (s *Steps) Validate(_ context.Context, st state.WorkflowState) state.WorkflowState {
	if st.RateLimitStop() {
		return st
	}
	if strings.TrimSpace(st.ResearchContent) == "" {
		st.Verdict = routing.VerdictFail
		return fail(st, "No research content available for validation")
	}
	verdict, score := Verdict(st.ResearchContent)
	logFor(st).Info().Str("verdict", verdict).Int("score", score).Int("attempt", st.CurrentAttempt).Msg("validation")
	st.Verdict = verdict
	st.Success = verdict == routing.VerdictPass
	return st
}
