package ux

import (
	"fmt"
	"io"
	"time"

	"github.com/jorge-barreto/reportd/internal/scheduler"
	"github.com/jorge-barreto/reportd/internal/state"
	"github.com/jorge-barreto/reportd/internal/store"
)

// RenderSummary prints the outcome, counters, errors and step timings of a
// finished run.
func RenderSummary(w io.Writer, st state.WorkflowState) {
	fmt.Fprintf(w, "%sSession:%s   %s\n", Bold, Reset, st.SessionID)
	color := Red
	switch st.Outcome() {
	case "succeeded":
		color = Green
	case string(state.StatusRateLimited):
		color = Yellow
	}
	fmt.Fprintf(w, "%sOutcome:%s   %s%s%s%s\n", Bold, Reset, color, Bold, st.Outcome(), Reset)
	if st.ReportID != nil {
		fmt.Fprintf(w, "%sReport:%s    #%d\n", Bold, Reset, *st.ReportID)
	}
	fmt.Fprintf(w, "%sResearch:%s  %d/%d attempts", Bold, Reset, st.CurrentAttempt, st.MaxAttempts)
	if st.Verdict != "" {
		fmt.Fprintf(w, ", verdict %s", st.Verdict)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sInterface:%s %d attempts\n", Bold, Reset, st.InterfaceAttempt)

	if len(st.Errors) > 0 {
		fmt.Fprintf(w, "\n%sErrors:%s\n", Bold, Reset)
		for i, e := range st.Errors {
			fmt.Fprintf(w, "  %s%d%s  %s\n", Dim, i+1, Reset, e)
		}
	}

	if entries := st.Timing.Snapshot(); len(entries) > 0 {
		fmt.Fprintf(w, "\n%sSteps:%s\n", Bold, Reset)
		for _, e := range entries {
			dur := e.Duration
			if dur == "" {
				dur = "-"
			}
			fmt.Fprintf(w, "  %-26s %s%s%s\n", e.Step, Dim, dur, Reset)
		}
	}
	fmt.Fprintln(w)
}

// RenderSchedule prints the configured times and the next n fire times
// after now.
func RenderSchedule(w io.Writer, times []scheduler.TimeOfDay, loc *time.Location, now time.Time, n int) {
	fmt.Fprintf(w, "%sTimezone:%s %s\n", Bold, Reset, loc)
	fmt.Fprintf(w, "%sTimes:%s    %s\n", Bold, Reset, scheduler.FormatTimes(times))
	if len(times) == 0 || n <= 0 {
		return
	}
	fmt.Fprintf(w, "\n%sUpcoming:%s\n", Bold, Reset)
	t := now.In(loc)
	for i := 0; i < n; i++ {
		t = scheduler.NextFireTime(t, times, loc)
		marker := "  "
		if i == 0 {
			marker = fmt.Sprintf("%s→%s ", Yellow, Reset)
		}
		fmt.Fprintf(w, "  %s%s  %s(in %s)%s\n", marker, t.Format("2006-01-02 15:04 MST"), Dim, t.Sub(now).Round(time.Minute), Reset)
	}
}

// RenderReport prints a stored report's metadata and which parts it has.
func RenderReport(w io.Writer, r *store.Report) {
	fmt.Fprintf(w, "%sReport:%s  #%d\n", Bold, Reset, r.ID)
	fmt.Fprintf(w, "%sCreated:%s %s\n", Bold, Reset, r.CreatedAt.Format(time.RFC3339))
	parts := []struct {
		name string
		size int
	}{
		{"html", len(r.HTML)},
		{"css", len(r.CSS)},
		{"js", len(r.JS)},
		{"html (en)", len(r.HTMLEn)},
		{"js (en)", len(r.JSEn)},
	}
	fmt.Fprintf(w, "\n%sParts:%s\n", Bold, Reset)
	for _, p := range parts {
		if p.size == 0 {
			fmt.Fprintf(w, "  %-10s %s(none)%s\n", p.name, Dim, Reset)
			continue
		}
		fmt.Fprintf(w, "  %-10s %d bytes\n", p.name, p.size)
	}
	fmt.Fprintln(w)
}
