package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/reportd/internal/api"
	"github.com/jorge-barreto/reportd/internal/docs"
	"github.com/jorge-barreto/reportd/internal/doctor"
	"github.com/jorge-barreto/reportd/internal/scaffold"
	"github.com/jorge-barreto/reportd/internal/scheduler"
	"github.com/jorge-barreto/reportd/internal/ux"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API and run the daily scheduler",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(ctx)
			defer stop()

			a, err := wire(ctx, cfg, wireOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			sched := scheduler.New(cfg.Schedule(), a.svc.ScheduledRun())
			a.svc.AttachScheduler(sched)
			sched.Start(ctx)

			if !strings.EqualFold(cfg.LogLevel, "debug") {
				gin.SetMode(gin.ReleaseMode)
			}
			router := api.NewRouter(a.svc, cfg.CORSOrigins)
			serveErr := api.Serve(ctx, cfg.HTTPAddr, router, cfg.Shutdown.Grace)

			log.Info().Dur("grace", cfg.Shutdown.Grace).Msg("waiting for background runs")
			if err := a.svc.Shutdown(cfg.Shutdown.Grace); err != nil {
				log.Warn().Err(err).Msg("shutdown")
			}
			return serveErr
		},
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Generate one report in the foreground",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-attempts", Usage: "Override the research attempt cap"},
			&cli.BoolFlag{Name: "no-save", Usage: "Keep the report in memory instead of the database"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(ctx)
			defer stop()

			a, err := wire(ctx, cfg, wireOptions{
				inMemory: cmd.Bool("no-save"),
				reporter: ux.NewConsole(),
			})
			if err != nil {
				return err
			}
			defer a.close()

			attempts := cfg.MaxAttempts
			if n := int(cmd.Int("max-attempts")); n > 0 {
				attempts = n
			}
			st := a.svc.RunWorkflow(ctx, cfg.APIKey, attempts)
			ux.RenderSummary(os.Stdout, st)
			if st.Outcome() != "succeeded" {
				return fmt.Errorf("run %s: %s", st.Outcome(), st.ErrorSummary())
			}
			return nil
		},
	}
}

func nextCmd() *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "Show the upcoming scheduled fire times",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 4, Usage: "How many fire times to list"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sc := cfg.Schedule()
			if !sc.Enabled {
				fmt.Printf("%sScheduler is disabled (ENABLE_AUTO_REPORT_SCHEDULER=false)%s\n", ux.Yellow, ux.Reset)
			}
			ux.RenderSchedule(os.Stdout, sc.Times, sc.Location, time.Now(), int(cmd.Int("count")))
			return nil
		},
	}
}

func latestCmd() *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Show the newest stored report",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "html", Usage: "Print the report HTML"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sql, err := openReports(cfg)
			if err != nil {
				return err
			}
			defer sql.Close()

			r, err := sql.FindLatest(ctx)
			if err != nil {
				return err
			}
			if r == nil {
				return errors.New("no reports found")
			}
			if cmd.Bool("html") {
				fmt.Println(r.HTML)
				return nil
			}
			ux.RenderReport(os.Stdout, r)
			return nil
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Check configuration and collaborators, or explain the last run",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "last-run", Usage: "Diagnose the newest run exported to artifacts-dir"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if cmd.Bool("last-run") {
				if cfg.ArtifactsDir == "" {
					return errors.New("artifacts-dir is not configured, runs are not exported")
				}
				sum, path, err := doctor.LatestSummary(cfg.ArtifactsDir)
				if err != nil {
					return err
				}
				doctor.RenderDiagnosis(os.Stdout, sum, path)
				return nil
			}

			a, err := wire(ctx, cfg, wireOptions{inMemory: true})
			if err != nil {
				return err
			}
			defer a.close()

			checks := []doctor.Check{doctor.Credential(cfg.APIKey)}
			checks = append(checks, doctor.Prompts(a.prompts)...)

			var redisPing func(context.Context) error
			if a.redis != nil {
				redisPing = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
			} else if cfg.RedisURL != "" {
				redisPing = func(context.Context) error { return errors.New("connection failed at startup") }
			}
			checks = append(checks, doctor.Ping("redis", false, redisPing))

			var dbPing func(context.Context) error
			if cfg.DatabaseDSN != "" {
				dbPing = func(ctx context.Context) error {
					sql, err := openReports(cfg)
					if err != nil {
						return err
					}
					defer sql.Close()
					return sql.Ping(ctx)
				}
			}
			checks = append(checks, doctor.Ping("database", cfg.DatabaseDSN != "", dbPing))

			_, err = doctor.Run(ctx, os.Stdout, checks)
			return err
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write an example reportd.yaml and prompt templates",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Overwrite existing files"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(dir, os.Stdout, cmd.Bool("force"))
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'reportd docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}
