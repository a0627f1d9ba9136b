package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/hotel-ops-api/internal/api"
	"github.com/phrazzld/hotel-ops-api/internal/config"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/platform/postgres"
	"github.com/phrazzld/hotel-ops-api/internal/scheduler"
	"github.com/phrazzld/hotel-ops-api/internal/service"
	"github.com/phrazzld/hotel-ops-api/internal/service/auth"
	"golang.org/x/sync/errgroup"
)

// application holds the shared dependencies of a running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	ready  func() error

	tasks     service.TaskService
	requests  service.GuestRequestService
	tokens    auth.TokenService
	emitter   *events.InMemoryEventEmitter
	scheduler *scheduler.AutoAssignmentScheduler
}

// postgresDependencies returns the Postgres-backed stores. The remaining
// collaborators are filled in by newApplication.
func postgresDependencies(db *sql.DB, log *slog.Logger) service.Dependencies {
	return service.Dependencies{
		Tasks:    postgres.NewPostgresTaskStore(db, log),
		Requests: postgres.NewPostgresGuestRequestStore(db, log),
		Staff:    postgres.NewPostgresStaffDirectory(db, log),
		Stays:    postgres.NewPostgresStayStore(db, log),
	}
}

// newApplication wires services, the auto-assignment scheduler and the
// token verifier on top of the stores in deps. ready backs /health and may
// be nil.
func newApplication(
	cfg *config.Config,
	log *slog.Logger,
	deps service.Dependencies,
	ready func() error,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: log,
		ready:  ready,
	}

	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	deps.Clock = clk
	deps.Logger = log

	var err error
	app.tokens, err = auth.NewTokenService(cfg.Auth, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Info("token verification initialized",
		"token_lifetime", cfg.Auth.TokenLifetime.String())

	app.emitter = events.NewInMemoryEventEmitter(log)
	app.emitter.RegisterHandler(events.NewLogHandler(log.With("component", "task_events")))
	deps.Events = app.emitter

	deps.Selector, err = service.NewSelector(cfg.Tasks.SelectionStrategy, deps.Tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to create staff selector: %w", err)
	}

	opts := service.OptionsFromConfig(cfg.Tasks)

	app.tasks, err = service.NewTaskService(deps, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	app.requests, err = service.NewGuestRequestService(deps, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create guest request service: %w", err)
	}

	assigner, err := service.NewAssignmentEngine(deps, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment engine: %w", err)
	}
	app.scheduler = scheduler.New(deps.Tasks, assigner, clk, scheduler.ConfigFromTasks(cfg.Tasks), log)

	log.Info("application initialized successfully")
	return app, nil
}

// router builds the HTTP handler for the application's services.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterDeps{
		Tasks:    app.tasks,
		Requests: app.requests,
		Tokens:   app.tokens,
		Logger:   app.logger,
		Ready:    app.ready,
	})
}

// Run serves HTTP and runs the scheduler until ctx is cancelled or either
// fails, then shuts both down.
func (app *application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.scheduler.Run(gctx)
	})
	g.Go(func() error {
		return app.startHTTPServer(gctx, app.router())
	})

	err := g.Wait()
	app.logger.Info("application shutdown completed")
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
