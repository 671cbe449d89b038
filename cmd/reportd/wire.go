package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/reportd/internal/config"
	"github.com/jorge-barreto/reportd/internal/genai"
	"github.com/jorge-barreto/reportd/internal/logger"
	"github.com/jorge-barreto/reportd/internal/marketdata"
	"github.com/jorge-barreto/reportd/internal/progress"
	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/runner"
	"github.com/jorge-barreto/reportd/internal/service"
	"github.com/jorge-barreto/reportd/internal/steps"
	"github.com/jorge-barreto/reportd/internal/store"
)

const connectTimeout = 10 * time.Second

// loadConfig reads the config named by --config and initialises logging.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logger.Init(logger.Options{Level: cfg.LogLevel}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the wired collaborators for one command invocation.
type app struct {
	cfg     *config.Config
	prompts *prompts.Loader
	redis   *redis.Client
	sql     *store.SQL
	reports store.Reports
	svc     *service.Service
}

type wireOptions struct {
	// inMemory keeps reports in process instead of MySQL.
	inMemory bool
	reporter runner.Reporter
}

func wire(ctx context.Context, cfg *config.Config, opts wireOptions) (*app, error) {
	a := &app{cfg: cfg, prompts: prompts.NewLoader(cfg.Viper(), cfg.PromptDirs...)}

	gen := genai.NewClient(genai.Options{
		BaseURL:    cfg.GenAI.BaseURL,
		Model:      cfg.GenAI.Model,
		Timeout:    cfg.GenAI.Timeout,
		MaxRetries: cfg.GenAI.MaxRetries,
		RPS:        cfg.GenAI.RPS,
		Burst:      cfg.GenAI.Burst,
	})

	var market marketdata.Source
	if cfg.RedisURL != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		c, err := marketdata.Connect(cctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("real-time market data disabled")
		} else {
			a.redis = c
			market = marketdata.NewRedisSource(c)
		}
	}

	switch {
	case opts.inMemory:
		a.reports = store.NewMemory()
	case cfg.DatabaseDSN == "":
		log.Warn().Msg("database-dsn not set, reports are kept in memory only")
		a.reports = store.NewMemory()
	default:
		sql, err := store.OpenMySQL(cfg.DatabaseDSN, cfg.AutoMigrate)
		if err != nil {
			a.close()
			return nil, err
		}
		a.sql = sql
		a.reports = sql
	}

	a.svc = service.New(service.Options{
		Steps: steps.New(steps.Deps{
			Generator: gen,
			Prompts:   a.prompts,
			Market:    market,
			Store:     a.reports,
			Location:  cfg.Location(),
		}),
		Registry:           progress.NewRegistry(),
		Reports:            a.reports,
		Credential:         cfg.APIKey,
		MaxAttempts:        cfg.MaxAttempts,
		ArtifactsDir:       cfg.ArtifactsDir,
		MaxProgressEntries: cfg.ProgressMaxEntries,
		Reporter:           opts.reporter,
	})
	return a, nil
}

func (a *app) close() {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.sql != nil {
		errs = append(errs, a.sql.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("closing connections")
	}
}

// openReports connects to the configured database without the rest of
// the pipeline.
func openReports(cfg *config.Config) (*store.SQL, error) {
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("database-dsn is not configured (set DATABASE_DSN)")
	}
	return store.OpenMySQL(cfg.DatabaseDSN, false)
}
