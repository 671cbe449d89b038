// Package config builds the single configuration object for reportd from an
// optional YAML file overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/reportd/internal/scheduler"
)

// DefaultFile is read when no config path is given. It may be absent.
const DefaultFile = "reportd.yaml"

type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Times    string `yaml:"times"`
	Timezone string `yaml:"timezone"`
}

type GenAIConfig struct {
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base-url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max-retries"`
	RPS        float64       `yaml:"rps"`
	Burst      int           `yaml:"burst"`
}

type ShutdownConfig struct {
	Grace time.Duration `yaml:"grace"`
}

type Config struct {
	APIKey             string            `yaml:"api-key"`
	HTTPAddr           string            `yaml:"http-addr"`
	LogLevel           string            `yaml:"log-level"`
	MaxAttempts        int               `yaml:"max-attempts"`
	RedisURL           string            `yaml:"redis-url"`
	DatabaseDSN        string            `yaml:"database-dsn"`
	AutoMigrate        bool              `yaml:"auto-migrate"`
	ArtifactsDir       string            `yaml:"artifacts-dir"`
	PromptDirs         []string          `yaml:"prompt-dirs"`
	Prompts            map[string]string `yaml:"prompts"`
	ProgressMaxEntries int               `yaml:"progress-max-entries"`
	CORSOrigins        []string          `yaml:"cors-origins"`
	Scheduler          SchedulerConfig   `yaml:"scheduler"`
	GenAI              GenAIConfig       `yaml:"genai"`
	Shutdown           ShutdownConfig    `yaml:"shutdown"`

	v     *viper.Viper
	times []scheduler.TimeOfDay
	loc   *time.Location
}

// Load reads the YAML file at path, overlays the environment and validates
// the result. An empty path means DefaultFile, which may be missing.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	if err := applyEnv(&cfg, v); err != nil {
		return nil, err
	}
	for name, text := range cfg.Prompts {
		v.SetDefault("prompts."+name, text)
	}
	cfg.v = v

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides file values with any environment variable that is set.
func applyEnv(cfg *Config, v *viper.Viper) error {
	str := func(key string, dst *string) {
		if raw := strings.TrimSpace(v.GetString(key)); raw != "" {
			*dst = raw
		}
	}
	str("GEMINI_API_KEY", &cfg.APIKey)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("APP_LOG_LEVEL", &cfg.LogLevel)
	str("REDIS_URL", &cfg.RedisURL)
	str("DATABASE_DSN", &cfg.DatabaseDSN)
	str("ARTIFACTS_DIR", &cfg.ArtifactsDir)
	str("AUTO_REPORT_SCHEDULE_TIMES", &cfg.Scheduler.Times)
	str("REPORT_TIMEZONE", &cfg.Scheduler.Timezone)
	str("GEMINI_MODEL", &cfg.GenAI.Model)

	if raw := strings.TrimSpace(v.GetString("ENABLE_AUTO_REPORT_SCHEDULER")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid ENABLE_AUTO_REPORT_SCHEDULER: %q", raw)
		}
		cfg.Scheduler.Enabled = b
	}
	if raw := strings.TrimSpace(v.GetString("DATABASE_AUTO_MIGRATE")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_AUTO_MIGRATE: %q", raw)
		}
		cfg.AutoMigrate = b
	}
	if raw := strings.TrimSpace(v.GetString("MAX_REPORT_ATTEMPTS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_REPORT_ATTEMPTS: %q", raw)
		}
		cfg.MaxAttempts = n
	}
	if raw := strings.TrimSpace(v.GetString("GENAI_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid GENAI_TIMEOUT: %q", raw)
		}
		cfg.GenAI.Timeout = d
	}
	if raw := strings.TrimSpace(v.GetString("GENAI_RPS")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid GENAI_RPS: %q", raw)
		}
		cfg.GenAI.RPS = f
	}
	if raw := strings.TrimSpace(v.GetString("SHUTDOWN_GRACE")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid SHUTDOWN_GRACE: %q", raw)
		}
		cfg.Shutdown.Grace = d
	}
	if raw := strings.TrimSpace(v.GetString("CORS_ORIGINS")); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Viper returns the lookup used for prompt overrides. It is never nil.
func (c *Config) Viper() *viper.Viper {
	if c.v == nil {
		c.v = viper.New()
	}
	return c.v
}

// Location is the timezone reports and schedules are computed in.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Schedule returns the scheduler settings derived from this config.
func (c *Config) Schedule() scheduler.Config {
	times := make([]scheduler.TimeOfDay, len(c.times))
	copy(times, c.times)
	return scheduler.Config{
		Enabled:    c.Scheduler.Enabled,
		Credential: c.APIKey,
		Times:      times,
		Location:   c.Location(),
	}
}
