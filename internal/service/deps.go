package service

import (
	"errors"
	"log/slog"

	"github.com/phrazzld/hotel-ops-api/internal/config"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// Dependencies are the collaborators shared by the engines.
type Dependencies struct {
	Tasks    store.TaskStore
	Requests store.GuestRequestStore
	Staff    store.StaffDirectory
	Stays    store.StayStore
	Events   events.EventEmitter

	// Selector picks among eligible staff. Defaults to uniform random.
	Selector StaffSelector

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// withDefaults fills optional collaborators and checks the required ones.
func (d Dependencies) withDefaults() (Dependencies, error) {
	if d.Tasks == nil {
		return d, errors.New("tasks store cannot be nil")
	}
	if d.Requests == nil {
		return d, errors.New("requests store cannot be nil")
	}
	if d.Staff == nil {
		return d, errors.New("staff directory cannot be nil")
	}
	if d.Events == nil {
		return d, errors.New("event emitter cannot be nil")
	}
	if d.Selector == nil {
		d.Selector = NewRandomSelector(nil)
	}
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d, nil
}

// Options are the tunable policies of the engines.
type Options struct {
	// Policy governs status transitions.
	Policy domain.TransitionPolicy

	// HistoryLimit caps the embedded history logs. Zero keeps everything.
	HistoryLimit int

	// TaskPipeline spawns a task for each new guest request.
	TaskPipeline bool

	// AllCancelledCancelsRequest lets reverse sync cancel a request whose
	// spawned tasks are all cancelled.
	AllCancelledCancelsRequest bool
}

// DefaultOptions returns the default policy with both feature flags off.
func DefaultOptions() Options {
	return Options{Policy: domain.DefaultTransitionPolicy()}
}

// OptionsFromConfig maps the tasks configuration section onto Options.
func OptionsFromConfig(cfg config.TasksConfig) Options {
	return Options{
		Policy: domain.TransitionPolicy{
			GracePeriod:       cfg.DowngradeGracePeriod,
			AllowTerminalSwap: cfg.AllowTerminalSwap,
		},
		HistoryLimit:               cfg.HistoryLimit,
		TaskPipeline:               cfg.GSRToTaskPipeline,
		AllCancelledCancelsRequest: cfg.GSRAllCancelledCancelsGSR,
	}
}
