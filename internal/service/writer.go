package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// taskWriter is the single write path for task mutations: compare-and-swap,
// then event emission, then reverse sync of the parent request.
type taskWriter struct {
	tasks        store.TaskStore
	emitter      events.EventEmitter
	syncer       *ReverseSyncEngine
	clock        clock.Clock
	historyLimit int
	logger       *slog.Logger
}

func newTaskWriter(deps Dependencies, opts Options, syncer *ReverseSyncEngine) *taskWriter {
	return &taskWriter{
		tasks:        deps.Tasks,
		emitter:      deps.Events,
		syncer:       syncer,
		clock:        deps.Clock,
		historyLimit: opts.HistoryLimit,
		logger:       deps.Logger,
	}
}

// save writes task if the stored version is still expectedVersion.
// A lost race is reported as ErrInvalidTransition.
func (w *taskWriter) save(ctx context.Context, task *domain.Task, expectedVersion int) error {
	task.TrimHistory(w.historyLimit)
	if err := w.tasks.CompareAndSwap(ctx, task, expectedVersion); err != nil {
		return rejectTransition(err)
	}
	return nil
}

// emit publishes a task event. Failures are logged only.
func (w *taskWriter) emit(ctx context.Context, eventType events.EventType, task *domain.Task) {
	log := logger.FromContextOrDefault(ctx, w.logger)

	event, err := events.NewTaskEvent(eventType, task.ID, task, w.clock.Now())
	if err != nil {
		log.Error("failed to build task event",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("event_type", string(eventType)))
		return
	}
	if err := w.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit task event",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", string(eventType)))
	}
}

// syncParent recomputes the parent request of a spawned task.
func (w *taskWriter) syncParent(ctx context.Context, task *domain.Task) {
	if requestID, ok := task.Origin.RequestID(); ok {
		w.syncer.Trigger(ctx, requestID)
	}
}
