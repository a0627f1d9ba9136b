// Package main implements the entry point for the hotel operations API
// server, which turns guest service requests into staff tasks and keeps the
// two in sync.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/hotel-ops-api/internal/config"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/platform/postgres"
)

// readyTimeout bounds the database ping behind /health.
const readyTimeout = 2 * time.Second

// cliOptions are the command line switches. With none set the server runs.
type cliOptions struct {
	// migrateCmd runs a single goose command (up, down, reset, status,
	// version) and exits.
	migrateCmd string

	// issueToken prints a signed token for "role" or "role:uuid" and exits.
	issueToken string
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.migrateCmd, "migrate", "",
		"run a migration command (up|down|reset|status|version) and exit")
	fs.StringVar(&opts.issueToken, "issue-token", "",
		"print a development token for role[:uuid] and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.migrateCmd != "" && opts.issueToken != "" {
		return opts, errors.New("-migrate and -issue-token cannot be combined")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("server exited with error", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads configuration and either performs a one-shot command or serves
// until ctx is cancelled.
func run(ctx context.Context, opts cliOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"selection_strategy", cfg.Tasks.SelectionStrategy,
		"gsr_to_task_pipeline", cfg.Tasks.GSRToTaskPipeline)

	if opts.issueToken != "" {
		token, err := issueDevToken(ctx, cfg.Auth, opts.issueToken)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", "error", err)
		}
	}()

	if opts.migrateCmd != "" {
		return postgres.RunMigrations(ctx, db, opts.migrateCmd, log)
	}
	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app, err := newApplication(cfg, log, postgresDependencies(db, log), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, readyTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
