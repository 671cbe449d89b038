package state

import (
	"strings"
	"time"
)

// Status tags the run. RateLimited is sticky: once entered it never
// changes for the rest of the run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusRateLimited Status = "rate_limited"
	StatusDone        Status = "done"
)

// DefaultMaxAttempts is the research-validation cap when the caller gives none.
const DefaultMaxAttempts = 3

// WorkflowState is the record threaded through every pipeline step. A run
// owns exactly one; steps take it by value and hand back the updated copy.
type WorkflowState struct {
	SessionID  string
	Credential string

	CurrentAttempt   int
	MaxAttempts      int
	InterfaceAttempt int

	Success bool
	Status  Status
	Errors  []string

	ResearchPrompt       string
	ValidationPrompt     string
	CreateReportPrompt   string
	GenerateReportPrompt string
	TranslateHTMLPrompt  string
	TranslateJSPrompt    string

	ResearchContent  string
	Verdict          string
	ReportContent    string
	InterfaceContent string

	HTML   string
	CSS    string
	JS     string
	HTMLEn string
	JSEn   string

	ReportID     *int64
	RealtimeData string
	CreatedAt    time.Time

	Timing *Timing
}

// New returns a zero-valued state with default counters.
func New(sessionID, credential string, maxAttempts int) WorkflowState {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return WorkflowState{
		SessionID:   sessionID,
		Credential:  credential,
		MaxAttempts: maxAttempts,
		Status:      StatusRunning,
		CreatedAt:   time.Now().UTC(),
		Timing:      &Timing{},
	}
}

// AddError appends a message to the accumulated error list.
func (s *WorkflowState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// RateLimitStop reports whether the sticky rate-limit flag is set.
func (s WorkflowState) RateLimitStop() bool {
	return s.Status == StatusRateLimited
}

// MarkRateLimited sets the sticky flag and fails the current step.
func (s *WorkflowState) MarkRateLimited(msg string) {
	s.Status = StatusRateLimited
	s.Success = false
	if msg != "" {
		s.AddError(msg)
	}
}

// Finish moves a running state to Done. A rate-limited state keeps its tag.
func (s *WorkflowState) Finish() {
	if s.Status == StatusRunning || s.Status == "" {
		s.Status = StatusDone
	}
}

// ErrorSummary joins the accumulated errors for display.
func (s WorkflowState) ErrorSummary() string {
	return strings.Join(s.Errors, ", ")
}

// Outcome is a one-word description of how the run ended.
func (s WorkflowState) Outcome() string {
	switch {
	case s.RateLimitStop():
		return string(StatusRateLimited)
	case s.Success && s.ReportID != nil:
		return "succeeded"
	default:
		return "failed"
	}
}
