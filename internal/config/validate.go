package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jorge-barreto/reportd/internal/genai"
	"github.com/jorge-barreto/reportd/internal/logger"
	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/scheduler"
	"github.com/jorge-barreto/reportd/internal/state"
)

// ErrNoScheduleTimes is returned when the schedule has no valid entry.
var ErrNoScheduleTimes = errors.New("config: no valid schedule times")

const (
	DefaultHTTPAddr           = ":8000"
	DefaultLogLevel           = "info"
	DefaultShutdownGrace      = 30 * time.Second
	DefaultProgressMaxEntries = 100
)

var knownPrompts = func() map[string]bool {
	m := make(map[string]bool, len(prompts.Names))
	for _, n := range prompts.Names {
		m[n] = true
	}
	return m
}()

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("config: invalid log-level %q", cfg.LogLevel)
	}

	switch {
	case cfg.MaxAttempts == 0:
		cfg.MaxAttempts = state.DefaultMaxAttempts
	case cfg.MaxAttempts < 0:
		return fmt.Errorf("config: 'max-attempts' must be positive, got %d", cfg.MaxAttempts)
	}

	if cfg.ProgressMaxEntries == 0 {
		cfg.ProgressMaxEntries = DefaultProgressMaxEntries
	} else if cfg.ProgressMaxEntries < 0 {
		return fmt.Errorf("config: 'progress-max-entries' must be positive, got %d", cfg.ProgressMaxEntries)
	}

	for name := range cfg.Prompts {
		if !knownPrompts[name] {
			return fmt.Errorf("config: prompts: unknown template %q", name)
		}
	}
	for _, d := range cfg.PromptDirs {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("config: 'prompt-dirs' entries must be non-empty")
		}
	}

	if err := validateGenAI(&cfg.GenAI); err != nil {
		return err
	}

	if cfg.Shutdown.Grace == 0 {
		cfg.Shutdown.Grace = DefaultShutdownGrace
	} else if cfg.Shutdown.Grace < 0 {
		return fmt.Errorf("config: 'shutdown.grace' must not be negative")
	}

	return validateSchedule(cfg)
}

func validateGenAI(g *GenAIConfig) error {
	if g.Model == "" {
		g.Model = genai.DefaultModel
	}
	if g.BaseURL == "" {
		g.BaseURL = genai.DefaultBaseURL
	}
	if g.Timeout == 0 {
		g.Timeout = genai.DefaultTimeout
	} else if g.Timeout < 0 {
		return fmt.Errorf("config: 'genai.timeout' must be positive")
	}
	// A negative value disables in-place retries.
	if g.MaxRetries == 0 {
		g.MaxRetries = genai.DefaultMaxRetries
	}
	if g.RPS < 0 {
		return fmt.Errorf("config: 'genai.rps' must not be negative")
	}
	if g.RPS > 0 && g.Burst <= 0 {
		g.Burst = 1
	}
	return nil
}

func validateSchedule(cfg *Config) error {
	s := &cfg.Scheduler
	if s.Timezone == "" {
		s.Timezone = scheduler.DefaultTimezone
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", s.Timezone, err)
	}
	cfg.loc = loc

	if strings.TrimSpace(s.Times) == "" {
		s.Times = scheduler.FormatTimes(scheduler.DefaultTimes)
	}
	times, invalid := scheduler.ParseTimes(s.Times)
	for _, bad := range invalid {
		log.Warn().Str("entry", bad).Msg("ignoring invalid schedule time")
	}
	if len(times) == 0 {
		return fmt.Errorf("%w in %q", ErrNoScheduleTimes, s.Times)
	}
	cfg.times = scheduler.Normalize(times)
	return nil
}
