// Package service is the surface the CLI and HTTP layers call: synchronous
// and background report runs, progress lookups and scheduler status.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jorge-barreto/reportd/internal/progress"
	"github.com/jorge-barreto/reportd/internal/runner"
	"github.com/jorge-barreto/reportd/internal/scheduler"
	"github.com/jorge-barreto/reportd/internal/state"
	"github.com/jorge-barreto/reportd/internal/steps"
	"github.com/jorge-barreto/reportd/internal/store"
)

var (
	ErrNoCredential = errors.New("GEMINI_API_KEY not configured")
	ErrRunFailed    = errors.New("report generation failed")
	ErrRateLimited  = errors.New("report generation rate limited")
	ErrNoStore      = errors.New("no report store configured")
)

// Options wires a Service. Registry and Reports may be nil.
type Options struct {
	Steps        *steps.Steps
	Registry     *progress.Registry
	Reports      store.Reports
	Credential   string
	MaxAttempts  int
	ArtifactsDir string
	// MaxProgressEntries caps the registry; completed sessions beyond it
	// are evicted whenever a new background run starts.
	MaxProgressEntries int
	// Reporter, when set, also receives every run's events.
	Reporter runner.Reporter
	NewID    func() string
}

// Service owns in-flight background runs. Every run gets its own state;
// only the progress registry is shared.
type Service struct {
	opts   Options
	sched  *scheduler.Scheduler
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a Service. Background runs are bound to an internal context
// that Shutdown cancels once the grace period has passed.
func New(opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = state.DefaultMaxAttempts
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{opts: opts, ctx: ctx, cancel: cancel}
}

// AttachScheduler records the scheduler for status reporting.
func (s *Service) AttachScheduler(sc *scheduler.Scheduler) {
	s.sched = sc
}

// Registry returns the shared progress registry, which may be nil.
func (s *Service) Registry() *progress.Registry {
	return s.opts.Registry
}

// RunWorkflow runs the pipeline once under a fresh session id and returns
// the final state.
func (s *Service) RunWorkflow(ctx context.Context, credential string, maxAttempts int) state.WorkflowState {
	return s.run(ctx, s.opts.NewID(), credential, maxAttempts, nil)
}

func (s *Service) run(ctx context.Context, sessionID, credential string, maxAttempts int, extra runner.Reporter) state.WorkflowState {
	e := &runner.Engine{
		Steps:        s.opts.Steps,
		Reporter:     runner.Multi(s.opts.Reporter, extra),
		ArtifactsDir: s.opts.ArtifactsDir,
	}
	return e.Run(ctx, state.New(sessionID, credential, maxAttempts))
}

// CreateManualReport runs synchronously with the configured credential and
// returns the saved report id.
func (s *Service) CreateManualReport(ctx context.Context) (int64, error) {
	if strings.TrimSpace(s.opts.Credential) == "" {
		return 0, ErrNoCredential
	}
	start := time.Now()
	st := s.RunWorkflow(ctx, s.opts.Credential, s.opts.MaxAttempts)
	return reportID(st, time.Since(start))
}

func reportID(st state.WorkflowState, elapsed time.Duration) (int64, error) {
	if st.ReportID != nil {
		log.Info().Str("session_id", st.SessionID).Int64("report_id", *st.ReportID).Dur("elapsed", elapsed).Msg("report created")
		return *st.ReportID, nil
	}
	log.Error().Str("session_id", st.SessionID).Dur("elapsed", elapsed).Strs("errors", st.Errors).Msg("report failed")
	sentinel := ErrRunFailed
	if st.Outcome() == "rate_limited" {
		sentinel = ErrRateLimited
	}
	if summary := st.ErrorSummary(); summary != "" {
		return 0, fmt.Errorf("%w: %s", sentinel, summary)
	}
	return 0, sentinel
}

// ScheduledRun adapts CreateManualReport to the scheduler.
func (s *Service) ScheduledRun() scheduler.RunFunc {
	return s.CreateManualReport
}

// StartAsync launches a background run with progress tracking and returns
// its session id immediately.
func (s *Service) StartAsync() (string, error) {
	if strings.TrimSpace(s.opts.Credential) == "" {
		return "", ErrNoCredential
	}
	if err := s.ctx.Err(); err != nil {
		return "", fmt.Errorf("service shutting down: %w", err)
	}
	id := s.opts.NewID()

	var tracker runner.Reporter
	if r := s.opts.Registry; r != nil {
		if s.opts.MaxProgressEntries > 0 {
			if n := r.Cleanup(s.opts.MaxProgressEntries); n > 0 {
				log.Debug().Int("evicted", n).Msg("progress registry cleaned up")
			}
		}
		r.Start(id)
		tracker = progress.Tracker{R: r}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				log.Error().Str("session_id", id).Interface("panic", p).Msg("background run panicked")
				if s.opts.Registry != nil {
					s.opts.Registry.Error(id, fmt.Sprintf("internal error: %v", p))
				}
			}
		}()
		st := s.run(s.ctx, id, s.opts.Credential, s.opts.MaxAttempts, tracker)
		log.Info().Str("session_id", id).Str("outcome", st.Outcome()).Msg("background run finished")
	}()
	return id, nil
}

// Progress returns the snapshot for a background run.
func (s *Service) Progress(sessionID string) (progress.Data, bool) {
	if s.opts.Registry == nil {
		return progress.Data{}, false
	}
	return s.opts.Registry.Get(sessionID)
}

// Shutdown waits up to grace for background runs, then cancels whatever is
// still going. Runs cancelled here do not save a report.
func (s *Service) Shutdown(grace time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-t.C:
	}
	s.cancel()
	<-done
	return fmt.Errorf("background runs still in flight after %s were cancelled", grace)
}

// SchedulerStatus combines the configured switches with the live
// scheduler state.
type SchedulerStatus struct {
	SchedulerEnabled bool `json:"scheduler_enabled"`
	APIKeyConfigured bool `json:"api_key_configured"`
	MaxAttempts      int  `json:"max_attempts"`
	scheduler.Status
}

func (s *Service) SchedulerStatus() SchedulerStatus {
	out := SchedulerStatus{
		APIKeyConfigured: strings.TrimSpace(s.opts.Credential) != "",
		MaxAttempts:      s.opts.MaxAttempts,
	}
	if s.sched != nil {
		out.Status = s.sched.Status()
		out.SchedulerEnabled = out.Status.Enabled
	}
	return out
}

// LatestReport returns the newest stored report, or store.ErrNotFound.
func (s *Service) LatestReport(ctx context.Context) (*store.Report, error) {
	if s.opts.Reports == nil {
		return nil, ErrNoStore
	}
	r, err := s.opts.Reports.FindLatest(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, store.ErrNotFound
	}
	return r, nil
}

// Report returns one stored report by id.
func (s *Service) Report(ctx context.Context, id int64) (*store.Report, error) {
	if s.opts.Reports == nil {
		return nil, ErrNoStore
	}
	return s.opts.Reports.FindByID(ctx, id)
}
