package service

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/platform/memory"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// fixture wires the engines to in-memory stores and a fake clock.
type fixture struct {
	ctx      context.Context
	clock    *clock.FakeClock
	tasks    *memory.TaskStore
	requests *memory.GuestRequestStore
	staff    *memory.StaffDirectory
	stays    *memory.StayStore
	events   *events.Recorder
	logs     *logger.TestLogBuffer
	opts     Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, buf := logger.NewTestLogger(t)
	return &fixture{
		ctx:      logger.WithLogger(context.Background(), log),
		clock:    clock.Fake(epoch),
		tasks:    memory.NewTaskStore(),
		requests: memory.NewGuestRequestStore(),
		staff:    memory.NewStaffDirectory(),
		stays:    memory.NewStayStore(),
		events:   &events.Recorder{},
		logs:     buf,
		opts:     DefaultOptions(),
	}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Tasks:    f.tasks,
		Requests: f.requests,
		Staff:    f.staff,
		Stays:    f.stays,
		Events:   f.events,
		Selector: NewRandomSelector(rand.NewPCG(1, 2)),
		Clock:    f.clock,
	}
}

func (f *fixture) taskService(t *testing.T) TaskService {
	t.Helper()
	svc, err := NewTaskService(f.deps(), f.opts)
	require.NoError(t, err)
	return svc
}

func (f *fixture) requestService(t *testing.T) GuestRequestService {
	t.Helper()
	svc, err := NewGuestRequestService(f.deps(), f.opts)
	require.NoError(t, err)
	return svc
}

func (f *fixture) addStaff(dept domain.Department) *domain.Staff {
	d := dept
	member := &domain.Staff{
		ID:         uuid.New(),
		Name:       string(dept) + " staff",
		Role:       domain.RoleStaff,
		Department: &d,
		IsActive:   true,
		IsApproved: true,
	}
	f.staff.Put(member)
	return member
}

func (f *fixture) addManager() *domain.Staff {
	member := &domain.Staff{ID: uuid.New(), Name: "Manager", Role: domain.RoleManager, IsActive: true, IsApproved: true}
	f.staff.Put(member)
	return member
}

func (f *fixture) addTask(t *testing.T, dept domain.Department, origin domain.Origin) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.TaskSpec{
		Title:      "Task for " + string(dept),
		Department: dept,
		Category:   "general",
		Origin:     origin,
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.tasks.Create(f.ctx, task))
	return task
}

// setStatus forces a stored task into status without going through the guard.
func (f *fixture) setStatus(t *testing.T, taskID uuid.UUID, status domain.TaskStatus) {
	t.Helper()
	task, err := f.tasks.GetByID(f.ctx, taskID)
	require.NoError(t, err)
	expected := task.Version
	if status.IsActive() && task.AssignedTo == nil {
		task.Assign(uuid.New(), uuid.Nil, domain.AssignmentSourceUser, "", f.clock.Now())
	}
	if task.Status != status {
		task.ApplyTransition(status, uuid.Nil, f.clock.Now())
	}
	require.NoError(t, f.tasks.CompareAndSwap(f.ctx, task, expected))
}

func (f *fixture) checkIn(guestID uuid.UUID) *domain.CheckIn {
	stay := &domain.CheckIn{
		ID:          uuid.New(),
		GuestID:     guestID,
		RoomID:      uuid.New(),
		RoomNumber:  "305",
		BookingID:   uuid.New(),
		Status:      domain.CheckInStatusCheckedIn,
		CheckedInAt: f.clock.Now().Add(-24 * time.Hour),
	}
	f.stays.Put(stay)
	return stay
}

// addRequest stores a request raised by a new checked-in guest.
func (f *fixture) addRequest(t *testing.T, requestType domain.RequestType) *domain.GuestServiceRequest {
	t.Helper()
	guest := uuid.New()
	req, err := domain.NewGuestServiceRequest(guest, f.checkIn(guest), domain.GuestRequestSpec{
		RequestType: requestType,
		Title:       "Request " + string(requestType),
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.requests.Create(f.ctx, req))
	return req
}

func (f *fixture) mustTask(t *testing.T, id uuid.UUID) *domain.Task {
	t.Helper()
	task, err := f.tasks.GetByID(f.ctx, id)
	require.NoError(t, err)
	return task
}

func (f *fixture) mustRequest(t *testing.T, id uuid.UUID) *domain.GuestServiceRequest {
	t.Helper()
	req, err := f.requests.GetByID(f.ctx, id)
	require.NoError(t, err)
	return req
}

func staffActor(id uuid.UUID) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleStaff}
}

func managerActor() domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: domain.RoleManager}
}

func guestActor(id uuid.UUID) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleGuest}
}
