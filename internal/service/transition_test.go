package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T, f *fixture) *TransitionGuard {
	t.Helper()
	guard, err := NewTransitionGuard(f.deps(), f.opts)
	require.NoError(t, err)
	return guard
}

func TestNewTransitionGuard_RequiresStores(t *testing.T) {
	t.Parallel()

	_, err := NewTransitionGuard(Dependencies{}, DefaultOptions())
	require.Error(t, err)
	var svcErr *TaskServiceError
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "create_service", svcErr.Operation)
}

func TestTransition_AppliesAndRecords(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	guard := newGuard(t, f)
	task := f.addTask(t, domain.DepartmentHousekeeping, domain.DirectOrigin())
	actor := staffActor(uuid.New())

	f.clock.Advance(time.Minute)
	updated, err := guard.Transition(f.ctx, task.ID, domain.TaskStatusInProgress, actor)
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
	assert.Equal(t, 2, updated.Version)
	require.Len(t, updated.StatusHistory, 1)
	change := updated.StatusHistory[0]
	assert.Equal(t, domain.TaskStatusPending, change.From)
	assert.Equal(t, domain.TaskStatusInProgress, change.To)
	assert.Equal(t, actor.ID, change.ChangedBy)
	assert.Equal(t, f.clock.Now(), change.ChangedAt)
	require.NotNil(t, updated.AcceptedBy)
	assert.Equal(t, actor.ID, *updated.AcceptedBy)

	stored := f.mustTask(t, task.ID)
	assert.Equal(t, updated.Status, stored.Status)
	assert.Equal(t, []events.EventType{events.TaskUpdated}, f.events.Types())
}

func TestTransition_HistoryCountsOnlyAcceptedTransitions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	guard := newGuard(t, f)
	task := f.addTask(t, domain.DepartmentKitchen, domain.DirectOrigin())
	actor := staffActor(uuid.New())

	steps := []struct {
		to     domain.TaskStatus
		accept bool
		wait   time.Duration
	}{
		{to: domain.TaskStatusAssigned, accept: true},
		{to: domain.TaskStatusAssigned, accept: false},
		{to: domain.TaskStatusInProgress, accept: true, wait: time.Minute},
		{to: domain.TaskStatusPending, accept: true, wait: 2 * time.Minute},
		{to: domain.TaskStatusInProgress, accept: true},
		{to: domain.TaskStatusAssigned, accept: false, wait: 10 * time.Minute},
		{to: domain.TaskStatusCompleted, accept: true},
		{to: domain.TaskStatusCompleted, accept: false},
	}

	accepted := 0
	for _, step := range steps {
		f.clock.Advance(step.wait)
		_, err := guard.Transition(f.ctx, task.ID, step.to, actor)
		if step.accept {
			require.NoError(t, err, "transition to %s", step.to)
			accepted++
		} else {
			require.ErrorIs(t, err, ErrInvalidTransition, "transition to %s", step.to)
		}
		assert.Len(t, f.mustTask(t, task.ID).StatusHistory, accepted)
	}
	assert.Equal(t, domain.TaskStatusCompleted, f.mustTask(t, task.ID).Status)
}

func TestTransition_DowngradeGraceWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr bool
	}{
		{name: "within window", elapsed: 4 * time.Minute},
		{name: "at window edge", elapsed: 5 * time.Minute},
		{name: "past window", elapsed: 6 * time.Minute, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			guard := newGuard(t, f)
			task := f.addTask(t, domain.DepartmentService, domain.DirectOrigin())
			actor := staffActor(uuid.New())

			_, err := guard.Transition(f.ctx, task.ID, domain.TaskStatusInProgress, actor)
			require.NoError(t, err)
			before := f.mustTask(t, task.ID)

			f.clock.Advance(tt.elapsed)
			_, err = guard.Transition(f.ctx, task.ID, domain.TaskStatusPending, actor)

			after := f.mustTask(t, task.ID)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				assert.ErrorIs(t, err, domain.ErrTransitionRejected)
				assert.Equal(t, before, after)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.TaskStatusPending, after.Status)
			assert.Len(t, after.StatusHistory, 2)
		})
	}
}

func TestTransition_TerminalSwap(t *testing.T) {
	t.Parallel()

	for _, allow := range []bool{true, false} {
		f := newFixture(t)
		f.opts.Policy.AllowTerminalSwap = allow
		guard := newGuard(t, f)
		task := f.addTask(t, domain.DepartmentService, domain.DirectOrigin())
		f.setStatus(t, task.ID, domain.TaskStatusCompleted)

		_, err := guard.Transition(f.ctx, task.ID, domain.TaskStatusCancelled, staffActor(uuid.New()))
		if allow {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
}

func TestTransition_ConcurrentCompletesHaveOneWinner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	guard := newGuard(t, f)
	task := f.addTask(t, domain.DepartmentMaintenance, domain.DirectOrigin())
	f.setStatus(t, task.ID, domain.TaskStatusInProgress)
	historyBefore := len(f.mustTask(t, task.ID).StatusHistory)

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = guard.Transition(f.ctx, task.ID, domain.TaskStatusCompleted, staffActor(uuid.New()))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, wins)

	stored := f.mustTask(t, task.ID)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	require.Len(t, stored.StatusHistory, historyBefore+1)
	last := stored.StatusHistory[len(stored.StatusHistory)-1]
	assert.Equal(t, domain.TaskStatusInProgress, last.From)
	assert.Equal(t, domain.TaskStatusCompleted, last.To)
}

func TestTransition_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	guard := newGuard(t, f)
	task := f.addTask(t, domain.DepartmentService, domain.DirectOrigin())

	t.Run("unknown task", func(t *testing.T) {
		_, err := guard.Transition(f.ctx, uuid.New(), domain.TaskStatusAssigned, staffActor(uuid.New()))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := guard.Transition(f.ctx, task.ID, domain.TaskStatus("archived"), staffActor(uuid.New()))
		assert.ErrorIs(t, err, ErrValidation)
		assert.NotErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("guest actor", func(t *testing.T) {
		_, err := guard.Transition(f.ctx, task.ID, domain.TaskStatusAssigned, guestActor(uuid.New()))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	assert.Empty(t, f.mustTask(t, task.ID).StatusHistory)
	assert.Empty(t, f.events.Events())
}

func TestTransition_HistoryLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.opts.HistoryLimit = 2
	guard := newGuard(t, f)
	task := f.addTask(t, domain.DepartmentService, domain.DirectOrigin())
	actor := staffActor(uuid.New())

	for _, to := range []domain.TaskStatus{
		domain.TaskStatusAssigned,
		domain.TaskStatusInProgress,
		domain.TaskStatusCompleted,
	} {
		_, err := guard.Transition(f.ctx, task.ID, to, actor)
		require.NoError(t, err)
	}

	stored := f.mustTask(t, task.ID)
	require.Len(t, stored.StatusHistory, 2)
	assert.Equal(t, domain.TaskStatusAssigned, stored.StatusHistory[0].From)
	assert.Equal(t, domain.TaskStatusCompleted, stored.StatusHistory[1].To)
}

func TestTransition_EmitFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.events.Err = errors.New("bus down")
	guard := newGuard(t, f)
	task := f.addTask(t, domain.DepartmentService, domain.DirectOrigin())

	_, err := guard.Transition(f.ctx, task.ID, domain.TaskStatusAssigned, staffActor(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusAssigned, f.mustTask(t, task.ID).Status)
	assert.Contains(t, f.logs.String(), "failed to emit task event")
}
