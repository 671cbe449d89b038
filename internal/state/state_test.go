package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	st := New("sid", "key", 0)
	if st.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("MaxAttempts = %d, want %d", st.MaxAttempts, DefaultMaxAttempts)
	}
	if st.Status != StatusRunning {
		t.Fatalf("Status = %q", st.Status)
	}
	if st.CurrentAttempt != 0 || st.InterfaceAttempt != 0 {
		t.Fatalf("counters not zero: %d %d", st.CurrentAttempt, st.InterfaceAttempt)
	}
	if st.ReportID != nil {
		t.Fatal("ReportID should be unset")
	}
	if st.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}
}

func TestMarkRateLimited_Sticky(t *testing.T) {
	st := New("sid", "key", 3)
	st.Success = true
	st.MarkRateLimited("Rate limit encountered")
	if !st.RateLimitStop() {
		t.Fatal("expected rate limit flag")
	}
	if st.Success {
		t.Fatal("expected success=false")
	}
	st.Finish()
	if st.Status != StatusRateLimited {
		t.Fatalf("Finish must not clear rate limit, status = %q", st.Status)
	}
	if len(st.Errors) != 1 {
		t.Fatalf("errors = %v", st.Errors)
	}
}

func TestFinish_FromRunning(t *testing.T) {
	st := New("sid", "key", 3)
	st.Finish()
	if st.Status != StatusDone {
		t.Fatalf("status = %q", st.Status)
	}
}

func TestOutcome(t *testing.T) {
	id := int64(3)
	st := New("sid", "key", 3)
	if st.Outcome() != "failed" {
		t.Fatalf("got %q", st.Outcome())
	}
	st.Success = true
	st.ReportID = &id
	if st.Outcome() != "succeeded" {
		t.Fatalf("got %q", st.Outcome())
	}
	st.MarkRateLimited("")
	if st.Outcome() != "rate_limited" {
		t.Fatalf("got %q", st.Outcome())
	}
}

func TestTiming_StartEnd(t *testing.T) {
	tm := &Timing{}
	tm.AddStart("research")
	tm.AddStart("validate")
	tm.AddEnd("research")
	entries := tm.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].End.IsZero() || entries[0].Duration == "" {
		t.Fatal("research entry should be closed")
	}
	if !entries[1].End.IsZero() {
		t.Fatal("validate entry should still be open")
	}
}

func TestTiming_NilSafe(t *testing.T) {
	var tm *Timing
	tm.AddStart("x")
	if d := tm.AddEnd("x"); d != 0 {
		t.Fatalf("d = %v", d)
	}
	if tm.Snapshot() != nil {
		t.Fatal("expected nil snapshot")
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(125 * time.Second); got != "2m 05s" {
		t.Fatalf("got %q", got)
	}
}

func TestExport_WritesFilesAndSummary(t *testing.T) {
	dir := t.TempDir()
	id := int64(12)
	st := New("sess-1", "key", 3)
	st.HTML = "<div>hi</div>"
	st.CSS = "body{}"
	st.HTMLEn = "<div>hello</div>"
	st.Success = true
	st.ReportID = &id

	runDir, err := Export(dir, st)
	if err != nil {
		t.Fatal(err)
	}
	if runDir != filepath.Join(dir, "sess-1") {
		t.Fatalf("runDir = %q", runDir)
	}
	for _, name := range []string{"index.html", "styles.css", "index.en.html", "summary.json"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(runDir, "app.js")); !os.IsNotExist(err) {
		t.Fatal("empty JS should not be written")
	}

	data, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	var sum Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Outcome != "succeeded" || sum.ReportID == nil || *sum.ReportID != 12 {
		t.Fatalf("summary = %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(runDir, "index.html.tmp")); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}
