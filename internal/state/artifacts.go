package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Summary is the machine-readable record written next to exported artifacts.
type Summary struct {
	SessionID        string        `json:"session_id"`
	Outcome          string        `json:"outcome"`
	ReportID         *int64        `json:"report_id,omitempty"`
	CurrentAttempt   int           `json:"current_attempt"`
	MaxAttempts      int           `json:"max_attempts"`
	InterfaceAttempt int           `json:"interface_attempt"`
	Verdict          string        `json:"verdict,omitempty"`
	Errors           []string      `json:"errors"`
	Timing           []TimingEntry `json:"timing"`
}

// SummaryOf builds the summary for s.
func SummaryOf(s WorkflowState) Summary {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	return Summary{
		SessionID:        s.SessionID,
		Outcome:          s.Outcome(),
		ReportID:         s.ReportID,
		CurrentAttempt:   s.CurrentAttempt,
		MaxAttempts:      s.MaxAttempts,
		InterfaceAttempt: s.InterfaceAttempt,
		Verdict:          s.Verdict,
		Errors:           errs,
		Timing:           s.Timing.Snapshot(),
	}
}

// RunDir returns the per-session export directory.
func RunDir(artifactsDir, sessionID string) string {
	return filepath.Join(artifactsDir, sessionID)
}

// Export writes the generated files and a summary.json for the run into
// <artifactsDir>/<session>/. Empty payloads are skipped.
func Export(artifactsDir string, s WorkflowState) (string, error) {
	dir := RunDir(artifactsDir, s.SessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating run dir %s: %w", dir, err)
	}

	files := []struct {
		name    string
		content string
	}{
		{"research.md", s.ResearchContent},
		{"report.md", s.ReportContent},
		{"index.html", s.HTML},
		{"styles.css", s.CSS},
		{"app.js", s.JS},
		{"index.en.html", s.HTMLEn},
		{"app.en.js", s.JSEn},
	}
	for _, f := range files {
		if f.content == "" {
			continue
		}
		if err := writeFileAtomic(filepath.Join(dir, f.name), []byte(f.content), 0644); err != nil {
			return "", fmt.Errorf("writing %s: %w", f.name, err)
		}
	}

	data, err := json.MarshalIndent(SummaryOf(s), "", "  ")
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(filepath.Join(dir, "summary.json"), data, 0644); err != nil {
		return "", fmt.Errorf("writing summary.json: %w", err)
	}
	return dir, nil
}

// writeFileAtomic writes through a temp file, fsyncs, then renames so a
// reader never sees a half-written artifact.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
