// Package doctor checks that reportd's collaborators are configured and
// reachable, and explains why the last exported run failed.
package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/reportd/internal/genai"
	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/state"
	"github.com/jorge-barreto/reportd/internal/ux"
)

// CheckTimeout bounds each individual check.
const CheckTimeout = 10 * time.Second

// ErrChecksFailed is returned by Run when a required check fails.
var ErrChecksFailed = errors.New("doctor: required checks failed")

var errNotConfigured = errors.New("not configured")

// Check is one named probe. Optional checks report but never fail Run.
type Check struct {
	Name     string
	Optional bool
	Run      func(ctx context.Context) error
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Optional bool
	Err      error
}

// Credential checks that an API key is set.
func Credential(key string) Check {
	return Check{Name: "credential", Run: func(context.Context) error {
		return genai.CheckCredential(key)
	}}
}

// Prompts checks that every template resolves. Only the research template
// is required.
func Prompts(src prompts.Source) []Check {
	out := make([]Check, 0, len(prompts.Names))
	for _, name := range prompts.Names {
		out = append(out, Check{
			Name:     "prompt " + name,
			Optional: name != prompts.CombinedResearchValidation,
			Run: func(context.Context) error {
				if _, ok := src.Lookup(name); !ok {
					return errors.New("template not found in env, config or prompt files")
				}
				return nil
			},
		})
	}
	return out
}

// Ping wraps a reachability probe. A nil ping means the collaborator is
// not configured, which only fails when required is set.
func Ping(name string, required bool, ping func(ctx context.Context) error) Check {
	return Check{Name: name, Optional: !required, Run: func(ctx context.Context) error {
		if ping == nil {
			return errNotConfigured
		}
		return ping(ctx)
	}}
}

// Run executes every check in order, printing one line each.
func Run(ctx context.Context, w io.Writer, checks []Check) ([]Result, error) {
	fmt.Fprintf(w, "\n%s%s══ Doctor ══%s\n\n", ux.Bold, ux.Cyan, ux.Reset)
	var (
		results []Result
		failed  int
	)
	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, CheckTimeout)
		err := c.Run(cctx)
		cancel()
		results = append(results, Result{Name: c.Name, Optional: c.Optional, Err: err})

		switch {
		case err == nil:
			fmt.Fprintf(w, "  %s✓%s %s\n", ux.Green, ux.Reset, c.Name)
		case c.Optional:
			fmt.Fprintf(w, "  %s–%s %s %s(%v)%s\n", ux.Yellow, ux.Reset, c.Name, ux.Dim, err, ux.Reset)
		default:
			failed++
			fmt.Fprintf(w, "  %s✗%s %s: %v\n", ux.Red, ux.Reset, c.Name, err)
		}
	}
	fmt.Fprintln(w)
	if failed > 0 {
		return results, fmt.Errorf("%w (%d)", ErrChecksFailed, failed)
	}
	return results, nil
}

// LatestSummary loads the most recently written summary.json under
// artifactsDir.
func LatestSummary(artifactsDir string) (state.Summary, string, error) {
	entries, err := os.ReadDir(artifactsDir)
	if err != nil {
		return state.Summary{}, "", fmt.Errorf("reading artifacts dir: %w", err)
	}
	var (
		newest    string
		newestMod time.Time
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(artifactsDir, e.Name(), "summary.json")
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest, newestMod = p, info.ModTime()
		}
	}
	if newest == "" {
		return state.Summary{}, "", fmt.Errorf("no run summaries under %s", artifactsDir)
	}
	data, err := os.ReadFile(newest)
	if err != nil {
		return state.Summary{}, "", err
	}
	var sum state.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return state.Summary{}, "", fmt.Errorf("parsing %s: %w", newest, err)
	}
	return sum, newest, nil
}

var hints = []struct {
	match string
	hint  string
}{
	{"rate limit", "The API quota was exhausted. Wait for the quota window to reset, or lower genai.rps."},
	{"API key is invalid or empty", "Set GEMINI_API_KEY or api-key in reportd.yaml."},
	{"Cannot read combined research validation prompt", "Create prompt_envs/prompt_combined_research_validation.md or run 'reportd init'."},
	{"did not pass validation", "Research kept failing validation. Check that the research prompt asks for a 'VALIDATION RESULT: PASS|FAIL' line, or raise max-attempts."},
	{"Interface creation failed", "The model did not return an html code block. Make sure the generate_report prompt asks for fenced html, css and javascript blocks."},
	{"Database save error", "Check DATABASE_DSN and that the crypto_report table exists (auto-migrate: true creates it)."},
	{"Run interrupted", "The process was stopped mid-run. Nothing was saved."},
}

// Diagnose returns human hints for a failed run, one per distinct cause.
func Diagnose(sum state.Summary) []string {
	if sum.Outcome == "succeeded" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, e := range sum.Errors {
		for _, h := range hints {
			if strings.Contains(e, h.match) && !seen[h.hint] {
				seen[h.hint] = true
				out = append(out, h.hint)
			}
		}
	}
	if len(out) == 0 {
		out = append(out, "No known cause matched. Re-run with log-level debug for step details.")
	}
	return out
}

// RenderDiagnosis prints a summary and its hints.
func RenderDiagnosis(w io.Writer, sum state.Summary, path string) {
	fmt.Fprintf(w, "%sLast run:%s %s %s(%s)%s\n", ux.Bold, ux.Reset, sum.SessionID, ux.Dim, path, ux.Reset)
	fmt.Fprintf(w, "%sOutcome:%s  %s\n", ux.Bold, ux.Reset, sum.Outcome)
	for _, e := range sum.Errors {
		fmt.Fprintf(w, "  %s•%s %s\n", ux.Red, ux.Reset, e)
	}
	hints := Diagnose(sum)
	if len(hints) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%sSuggestions:%s\n", ux.Bold, ux.Reset)
	for _, h := range hints {
		fmt.Fprintf(w, "  %s→%s %s\n", ux.Yellow, ux.Reset, h)
	}
	fmt.Fprintln(w)
}
