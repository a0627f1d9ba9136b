package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// maxSyncAttempts bounds retries when the request write loses a race.
const maxSyncAttempts = 3

// SyncResult reports what a reverse sync pass saw and did.
type SyncResult struct {
	Total     int
	Completed int
	Cancelled int
	Active    int

	// Target is the derived request status, empty when the siblings are in
	// a mixed state that maps to no status.
	Target domain.RequestStatus

	// Changed reports whether the request was written.
	Changed bool
}

// ReverseSyncEngine derives a guest request's status from the aggregate
// status of every task it spawned.
type ReverseSyncEngine struct {
	tasks        store.TaskStore
	requests     store.GuestRequestStore
	clock        clock.Clock
	allCancelled bool
	logger       *slog.Logger
}

// NewReverseSyncEngine creates a ReverseSyncEngine.
func NewReverseSyncEngine(deps Dependencies, opts Options) (*ReverseSyncEngine, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, NewTaskServiceError("create_service", "invalid dependencies", err)
	}
	return &ReverseSyncEngine{
		tasks:        deps.Tasks,
		requests:     deps.Requests,
		clock:        deps.Clock,
		allCancelled: opts.AllCancelledCancelsRequest,
		logger:       deps.Logger.With("component", "reverse_sync"),
	}, nil
}

// Target computes the request status implied by sibling task statuses:
//
//  1. any assigned or in-progress task gives in_progress;
//  2. otherwise all completed gives completed;
//  3. otherwise, when enabled, all cancelled gives cancelled;
//  4. otherwise there is no target.
func (e *ReverseSyncEngine) Target(siblings []*domain.Task) SyncResult {
	res := SyncResult{Total: len(siblings)}
	for _, t := range siblings {
		switch {
		case t.Status == domain.TaskStatusCompleted:
			res.Completed++
		case t.Status == domain.TaskStatusCancelled:
			res.Cancelled++
		case t.Status.IsActive():
			res.Active++
		}
	}

	switch {
	case res.Active > 0:
		res.Target = domain.RequestStatusInProgress
	case res.Total > 0 && res.Completed == res.Total:
		res.Target = domain.RequestStatusCompleted
	case e.allCancelled && res.Total > 0 && res.Cancelled == res.Total:
		res.Target = domain.RequestStatusCancelled
	}
	return res
}

// Sync recomputes and writes the status of request requestID. Errors are
// wrapped in ErrSyncFailure.
func (e *ReverseSyncEngine) Sync(ctx context.Context, requestID uuid.UUID) (SyncResult, error) {
	log := logger.FromContextOrDefault(ctx, e.logger).
		With(slog.String("request_id", requestID.String()))

	siblings, err := e.tasks.ListByOrigin(ctx, requestID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("%w: list sibling tasks: %w", ErrSyncFailure, err)
	}

	res := e.Target(siblings)
	if res.Target == "" {
		log.Info("sibling tasks map to no request status, leaving request unchanged",
			slog.Int("total", res.Total),
			slog.Int("completed", res.Completed),
			slog.Int("cancelled", res.Cancelled),
			slog.Int("active", res.Active))
		return res, nil
	}

	for attempt := 1; attempt <= maxSyncAttempts; attempt++ {
		req, err := e.requests.GetByID(ctx, requestID)
		if err != nil {
			return res, fmt.Errorf("%w: load request: %w", ErrSyncFailure, err)
		}
		if req.Status == res.Target {
			return res, nil
		}

		expected := req.Version
		if err := req.SetStatus(res.Target, e.clock.Now()); err != nil {
			return res, fmt.Errorf("%w: %w", ErrSyncFailure, err)
		}
		err = e.requests.CompareAndSwap(ctx, req, expected)
		if err == nil {
			res.Changed = true
			log.Info("request status synced from tasks",
				slog.String("status", string(res.Target)),
				slog.Int("total", res.Total))
			return res, nil
		}
		if !store.IsConflictError(err) {
			return res, fmt.Errorf("%w: write request: %w", ErrSyncFailure, err)
		}
		log.Debug("request changed during sync, retrying", slog.Int("attempt", attempt))
	}
	return res, fmt.Errorf("%w: request kept changing after %d attempts", ErrSyncFailure, maxSyncAttempts)
}

// Trigger runs Sync and logs any failure. It never returns an error so that
// a committed task write is never reported as failed.
func (e *ReverseSyncEngine) Trigger(ctx context.Context, requestID uuid.UUID) {
	if _, err := e.Sync(ctx, requestID); err != nil {
		logger.FromContextOrDefault(ctx, e.logger).Error("reverse sync failed",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID.String()))
	}
}
