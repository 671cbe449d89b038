// Package scheduler fires report runs at fixed wall-clock times every day.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RunFunc performs one report run and returns the saved report id.
type RunFunc func(ctx context.Context) (int64, error)

// Config is fixed for the lifetime of a Scheduler.
type Config struct {
	Enabled    bool
	Credential string
	Times      []TimeOfDay
	Location   *time.Location
}

// Status is a point-in-time view of the scheduler for the API.
type Status struct {
	Enabled      bool       `json:"enabled"`
	Running      bool       `json:"running"`
	Times        []string   `json:"schedule_times"`
	Timezone     string     `json:"timezone"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastReportID *int64     `json:"last_report_id,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	Runs         int        `json:"runs"`
}

// Scheduler sleeps until the next configured time and runs one report.
type Scheduler struct {
	cfg       Config
	schedules []cronlib.Schedule
	run       RunFunc
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	running      bool
	nextRun      time.Time
	lastRun      time.Time
	lastReportID *int64
	lastErr      string
	runs         int
}

// New builds a scheduler. Times are sorted and de-duplicated; an empty list
// falls back to DefaultTimes and a nil location to UTC.
func New(cfg Config, run RunFunc) *Scheduler {
	cfg.Times = Normalize(cfg.Times)
	if len(cfg.Times) == 0 {
		cfg.Times = Normalize(DefaultTimes)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	schedules, err := Compile(cfg.Times, cfg.Location)
	if err != nil {
		// TimeOfDay values come from ParseTime, so this only fires on a
		// hand-built Config with out of range fields.
		log.Error().Err(err).Msg("invalid schedule, falling back to defaults")
		cfg.Times = Normalize(DefaultTimes)
		schedules, _ = Compile(cfg.Times, cfg.Location)
	}
	return &Scheduler{cfg: cfg, schedules: schedules, run: run, now: time.Now, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Start launches Run in a goroutine. It returns false, starting nothing,
// when scheduling is disabled or no credential is configured.
func (s *Scheduler) Start(ctx context.Context) bool {
	if !s.cfg.Enabled {
		log.Info().Msg("auto report scheduler disabled")
		return false
	}
	if strings.TrimSpace(s.cfg.Credential) == "" {
		log.Warn().Msg("auto report scheduler not started: no API key configured")
		return false
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return true
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		err := s.Run(ctx)
		log.Info().Err(err).Msg("auto report scheduler stopped")
	}()
	return true
}

// Run loops until ctx is done: sleep until the next fire time, re-check
// the tolerance window on wake, run once. A failed run never stops the
// loop. It returns ctx's error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Info().Str("times", FormatTimes(s.cfg.Times)).Str("tz", s.cfg.Location.String()).Msg("auto report scheduler started")
	for {
		now := s.now().In(s.cfg.Location)
		next := nextOf(s.schedules, now)
		wait := next.Sub(now)
		s.mu.Lock()
		s.nextRun = next
		s.mu.Unlock()
		log.Info().Time("next_run", next).Dur("in", wait).Msg("next scheduled run")

		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		woke := s.now().In(s.cfg.Location)
		if !WithinTolerance(woke, s.cfg.Times, Tolerance) {
			log.Warn().Time("woke", woke).Msg("skipping run, outside the scheduled window")
			continue
		}
		s.fire(ctx)
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	start := s.now()
	var (
		id  int64
		err error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("run panicked: %v", r)
			}
		}()
		id, err = s.run(ctx)
	}()
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	s.runs++
	s.lastRun = start
	if err != nil {
		s.lastErr = err.Error()
		s.lastReportID = nil
	} else {
		s.lastErr = ""
		s.lastReportID = &id
	}
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("scheduled report failed, will retry at next scheduled time")
		return
	}
	log.Info().Int64("report_id", id).Dur("elapsed", elapsed).Msg("scheduled report generated")
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Enabled:   s.cfg.Enabled && strings.TrimSpace(s.cfg.Credential) != "",
		Running:   s.running,
		Timezone:  s.cfg.Location.String(),
		LastError: s.lastErr,
		Runs:      s.runs,
	}
	for _, t := range s.cfg.Times {
		st.Times = append(st.Times, t.String())
	}
	if !s.nextRun.IsZero() {
		n := s.nextRun
		st.NextRun = &n
	}
	if !s.lastRun.IsZero() {
		l := s.lastRun
		st.LastRun = &l
	}
	if s.lastReportID != nil {
		id := *s.lastReportID
		st.LastReportID = &id
	}
	return st
}

// Next returns the next fire time after now without running anything.
func (s *Scheduler) Next(now time.Time) time.Time {
	return nextOf(s.schedules, now.In(s.cfg.Location))
}

// Times returns the normalized schedule.
func (s *Scheduler) Times() []TimeOfDay {
	out := make([]TimeOfDay, len(s.cfg.Times))
	copy(out, s.cfg.Times)
	return out
}

// Location returns the schedule's timezone.
func (s *Scheduler) Location() *time.Location {
	return s.cfg.Location
}
