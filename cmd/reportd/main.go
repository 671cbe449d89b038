package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/reportd/internal/ux"
)

func main() {
	app := &cli.Command{
		Name:        "reportd",
		Usage:       "Scheduled crypto market report generator",
		Description: "Run 'reportd docs' for documentation on configuration, prompts, the pipeline and the API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to reportd.yaml (default: ./reportd.yaml if present)"},
		},
		Commands: []*cli.Command{
			serveCmd(),
			runCmd(),
			nextCmd(),
			latestCmd(),
			doctorCmd(),
			initCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}
