package ux

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/reportd/internal/scheduler"
	"github.com/jorge-barreto/reportd/internal/state"
	"github.com/jorge-barreto/reportd/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 7, 9, 15, 0, 0, time.UTC)
}

func TestConsole_Step(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{Out: &buf, Now: fixedNow}

	c.Step("s1", 2, "Research", "attempt 1/3")

	out := buf.String()
	if !strings.Contains(out, "Step 2/9: Research (attempt 1/3)") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "[09:15:00]") {
		t.Fatalf("missing timestamp: %q", out)
	}
}

func TestConsole_LoopBack(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{Out: &buf, Now: fixedNow}

	c.LoopBack("s1", "interface", 2, 3)

	if !strings.Contains(buf.String(), "Retrying interface (attempt 2/3)") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestConsole_Done(t *testing.T) {
	id := int64(12)
	tests := []struct {
		name string
		st   state.WorkflowState
		want string
	}{
		{"success", state.WorkflowState{Success: true, ReportID: &id, Status: state.StatusDone}, "Report #12 saved"},
		{"rate limited", state.WorkflowState{Status: state.StatusRateLimited}, "rate limit"},
		{"failed", state.WorkflowState{Status: state.StatusDone}, "Run failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			(&Console{Out: &buf, Now: fixedNow}).Done(tt.st)
			if !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRenderSummary(t *testing.T) {
	st := state.New("sess", "key", 3)
	st.CurrentAttempt = 2
	st.Verdict = "PASS"
	st.AddError("Research failed: timeout")
	st.Timing.AddStart("Research")
	st.Timing.AddEnd("Research")
	st.Finish()

	var buf bytes.Buffer
	RenderSummary(&buf, st)
	out := buf.String()

	for _, want := range []string{"sess", "failed", "2/3 attempts, verdict PASS", "Research failed: timeout", "Research", "0m 00s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSchedule(t *testing.T) {
	times := []scheduler.TimeOfDay{{Hour: 7, Minute: 30}, {Hour: 19}}
	var buf bytes.Buffer

	RenderSchedule(&buf, times, time.UTC, fixedNow(), 3)

	out := buf.String()
	for _, want := range []string{"07:30,19:00", "2026-03-07 19:00 UTC", "2026-03-08 07:30 UTC", "2026-03-08 19:00 UTC", "(in 9h45m0s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("schedule missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReport(t *testing.T) {
	r := &store.Report{ID: 4, HTML: "<p>hi</p>", CreatedAt: fixedNow()}
	var buf bytes.Buffer

	RenderReport(&buf, r)

	out := buf.String()
	if !strings.Contains(out, "#4") || !strings.Contains(out, "9 bytes") || !strings.Contains(out, "(none)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
