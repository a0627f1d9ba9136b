package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/platform/memory"
	"github.com/phrazzld/hotel-ops-api/internal/service"
	"github.com/phrazzld/hotel-ops-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	ctx   context.Context
	clock *clock.FakeClock
	tasks *memory.TaskStore
	staff *memory.StaffDirectory
	deps  service.Dependencies
	logs  *logger.TestLogBuffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, buf := logger.NewTestLogger(t)
	h := &harness{
		ctx:   logger.WithLogger(context.Background(), log),
		clock: clock.Fake(epoch),
		tasks: memory.NewTaskStore(),
		staff: memory.NewStaffDirectory(),
		logs:  buf,
	}
	h.deps = service.Dependencies{
		Tasks:    h.tasks,
		Requests: memory.NewGuestRequestStore(),
		Staff:    h.staff,
		Stays:    memory.NewStayStore(),
		Events:   &events.Recorder{},
		Clock:    h.clock,
		Logger:   log,
	}
	return h
}

func (h *harness) addStaff(dept domain.Department) {
	d := dept
	h.staff.Put(&domain.Staff{
		ID:         uuid.New(),
		Role:       domain.RoleStaff,
		Department: &d,
		IsActive:   true,
		IsApproved: true,
	})
}

func (h *harness) addTasks(t *testing.T, dept domain.Department, n int) []*domain.Task {
	t.Helper()
	out := make([]*domain.Task, n)
	for i := range out {
		task, err := domain.NewTask(domain.TaskSpec{
			Title:      "Sweep me",
			Department: dept,
			Category:   "general",
			Origin:     domain.DirectOrigin(),
		}, h.clock.Now())
		require.NoError(t, err)
		require.NoError(t, h.tasks.Create(h.ctx, task))
		out[i] = task
	}
	return out
}

func (h *harness) engine(t *testing.T) *service.AssignmentEngine {
	t.Helper()
	engine, err := service.NewAssignmentEngine(h.deps, service.DefaultOptions())
	require.NoError(t, err)
	return engine
}

func (h *harness) count(t *testing.T, status domain.TaskStatus) int {
	t.Helper()
	tasks, err := h.tasks.List(h.ctx, store.TaskFilter{Status: &status})
	require.NoError(t, err)
	return len(tasks)
}

// fakeAssigner lets a test decide the outcome per task.
type fakeAssigner struct {
	mu    sync.Mutex
	calls []uuid.UUID
	fn    func(task *domain.Task) (bool, error)
}

func (a *fakeAssigner) AutoAssign(_ context.Context, task *domain.Task) (bool, error) {
	a.mu.Lock()
	a.calls = append(a.calls, task.ID)
	a.mu.Unlock()
	return a.fn(task)
}

func (a *fakeAssigner) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func TestRunOnce_AssignsOnlyWhereStaffExist(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.addStaff(domain.DepartmentMaintenance)
	h.addStaff(domain.DepartmentKitchen)
	h.addTasks(t, domain.DepartmentMaintenance, 3)
	h.addTasks(t, domain.DepartmentKitchen, 3)
	h.addTasks(t, domain.DepartmentHousekeeping, 4)

	h.clock.Advance(6 * time.Minute)
	fresh := h.addTasks(t, domain.DepartmentMaintenance, 1)[0]

	s := New(h.tasks, h.engine(t), h.clock, DefaultConfig(), nil)
	res, err := s.RunOnce(h.ctx)
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Scanned: 10, Assigned: 6, Skipped: 4}, res)
	assert.Equal(t, 6, h.count(t, domain.TaskStatusAssigned))
	assert.Equal(t, 5, h.count(t, domain.TaskStatusPending))

	stored, err := h.tasks.GetByID(h.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedTo)
}

func TestRunOnce_NothingStale(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.addTasks(t, domain.DepartmentService, 2)
	assigner := &fakeAssigner{fn: func(*domain.Task) (bool, error) { return true, nil }}

	s := New(h.tasks, assigner, h.clock, DefaultConfig(), nil)
	res, err := s.RunOnce(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
	assert.Zero(t, assigner.callCount())
}

func TestRunOnce_PartialFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tasks := h.addTasks(t, domain.DepartmentService, 6)
	h.clock.Advance(10 * time.Minute)

	failing := tasks[1].ID
	panicking := tasks[4].ID
	assigner := &fakeAssigner{fn: func(task *domain.Task) (bool, error) {
		switch task.ID {
		case failing:
			return false, errors.New("directory unavailable")
		case panicking:
			panic("nil staff profile")
		}
		return true, nil
	}}

	var (
		mu     sync.Mutex
		failed []uuid.UUID
	)
	s := New(h.tasks, assigner, h.clock, Config{WorkerCount: 3}, nil)
	s.SetErrorHandler(func(task *domain.Task, err error) {
		assert.ErrorIs(t, err, service.ErrSyncFailure)
		mu.Lock()
		failed = append(failed, task.ID)
		mu.Unlock()
	})

	res, err := s.RunOnce(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 6, Assigned: 4, Failed: 2}, res)
	assert.Equal(t, 6, assigner.callCount())
	assert.ElementsMatch(t, []uuid.UUID{failing, panicking}, failed)
}

func TestRunOnce_ListFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	source := staleSourceFunc(func(context.Context, time.Time, int) ([]*domain.Task, error) {
		return nil, errors.New("connection refused")
	})
	s := New(source, &fakeAssigner{}, h.clock, DefaultConfig(), nil)

	_, err := s.RunOnce(h.ctx)
	assert.ErrorContains(t, err, "list stale tasks")
}

type staleSourceFunc func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Task, error)

func (f staleSourceFunc) ListStaleUnassigned(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Task, error) {
	return f(ctx, cutoff, limit)
}

func TestRunOnce_HonorsThresholdAndBatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	var gotCutoff time.Time
	var gotLimit int
	source := staleSourceFunc(func(_ context.Context, cutoff time.Time, limit int) ([]*domain.Task, error) {
		gotCutoff, gotLimit = cutoff, limit
		return nil, nil
	})
	cfg := Config{StalenessThreshold: 2 * time.Minute, BatchSize: 7, WorkerCount: 1}
	s := New(source, &fakeAssigner{}, h.clock, cfg, nil)

	_, err := s.RunOnce(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(-2*time.Minute), gotCutoff)
	assert.Equal(t, 7, gotLimit)
}

func TestRunOnce_OverlappingSweepsAssignEachTaskOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.addStaff(domain.DepartmentHousekeeping)
	h.addStaff(domain.DepartmentHousekeeping)
	tasks := h.addTasks(t, domain.DepartmentHousekeeping, 20)
	h.clock.Advance(time.Hour)

	first := New(h.tasks, h.engine(t), h.clock, Config{WorkerCount: 4}, nil)
	second := New(h.tasks, h.engine(t), h.clock, Config{WorkerCount: 4}, nil)

	var wg sync.WaitGroup
	results := make([]SweepResult, 2)
	for i, s := range []*AutoAssignmentScheduler{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.RunOnce(h.ctx)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	assert.Equal(t, len(tasks), results[0].Assigned+results[1].Assigned)
	assert.Zero(t, results[0].Failed+results[1].Failed)
	for _, task := range tasks {
		stored, err := h.tasks.GetByID(h.ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusAssigned, stored.Status)
		assert.Len(t, stored.AssignmentHistory, 1)
		assert.Len(t, stored.StatusHistory, 1)
	}
}

func TestScheduler_TicksDriveSweeps(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.addTasks(t, domain.DepartmentService, 1)

	swept := make(chan uuid.UUID, 4)
	assigner := &fakeAssigner{fn: func(task *domain.Task) (bool, error) {
		swept <- task.ID
		return false, nil
	}}
	cfg := Config{Interval: time.Minute, StalenessThreshold: 5 * time.Minute, WorkerCount: 1}
	s := New(h.tasks, assigner, h.clock, cfg, nil)

	require.NoError(t, s.Start(h.ctx))
	assert.ErrorIs(t, s.Start(h.ctx), ErrAlreadyRunning)
	h.clock.WaitForTickers(1)

	// Not yet stale.
	h.clock.Advance(time.Minute)
	h.clock.Advance(3 * time.Minute)
	assert.Never(t, func() bool { return len(swept) > 0 }, 50*time.Millisecond, 10*time.Millisecond)

	h.clock.Advance(time.Minute)
	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run after the task became stale")
	}

	s.Stop()
	s.Stop()
}

func TestNew_AppliesDefaults(t *testing.T) {
	t.Parallel()

	s := New(memory.NewTaskStore(), &fakeAssigner{}, nil, Config{WorkerCount: -1}, nil)
	assert.Equal(t, DefaultConfig().Interval, s.config.Interval)
	assert.Equal(t, DefaultConfig().BatchSize, s.config.BatchSize)
	assert.Equal(t, 1, s.config.WorkerCount)
	assert.Zero(t, s.config.StalenessThreshold)
}
