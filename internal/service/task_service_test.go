package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/phrazzld/hotel-ops-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskService_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tests := []struct {
		name   string
		mutate func(*Dependencies)
	}{
		{name: "nil tasks", mutate: func(d *Dependencies) { d.Tasks = nil }},
		{name: "nil requests", mutate: func(d *Dependencies) { d.Requests = nil }},
		{name: "nil staff", mutate: func(d *Dependencies) { d.Staff = nil }},
		{name: "nil events", mutate: func(d *Dependencies) { d.Events = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := f.deps()
			tt.mutate(&deps)
			svc, err := NewTaskService(deps, f.opts)
			assert.Error(t, err)
			assert.Nil(t, svc)
		})
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	actor := managerActor()

	task, err := svc.CreateTask(f.ctx, actor, CreateTaskInput{
		Title:      "Restock minibar",
		Department: domain.DepartmentService,
		Category:   "minibar",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, domain.OriginDirect, task.Origin.Kind())
	assert.Equal(t, actor.ID, task.CreatedBy)
	assert.Equal(t, 1, task.Version)
	assert.Equal(t, []events.EventType{events.TaskCreated}, f.events.Types())
}

func TestCreateTask_PreAssigned(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	member := f.addStaff(domain.DepartmentHousekeeping)

	task, err := svc.CreateTask(f.ctx, managerActor(), CreateTaskInput{
		Title:      "Turn down 412",
		Department: domain.DepartmentHousekeeping,
		AssignTo:   &member.ID,
		Notes:      "after 7pm",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusAssigned, task.Status)
	assert.True(t, task.IsAssignedTo(member.ID))
	assert.Len(t, task.StatusHistory, 1)
	assert.Equal(t, []events.EventType{events.TaskCreated, events.TaskAssigned}, f.events.Types())

	manager := f.addManager()
	_, err = svc.CreateTask(f.ctx, managerActor(), CreateTaskInput{
		Title:      "Turn down 414",
		Department: domain.DepartmentHousekeeping,
		AssignTo:   &manager.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestCreateTask_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)

	_, err := svc.CreateTask(f.ctx, managerActor(), CreateTaskInput{Department: domain.DepartmentService})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTask(f.ctx, managerActor(), CreateTaskInput{Title: "x", Department: "Spa"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTask(f.ctx, guestActor(uuid.New()), CreateTaskInput{Title: "x", Department: domain.DepartmentService})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetAndListTasks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	kitchen := f.addTask(t, domain.DepartmentKitchen, domain.DirectOrigin())
	f.addTask(t, domain.DepartmentService, domain.DirectOrigin())
	actor := staffActor(uuid.New())

	got, err := svc.GetTask(f.ctx, actor, kitchen.ID)
	require.NoError(t, err)
	assert.Equal(t, kitchen.ID, got.ID)

	_, err = svc.GetTask(f.ctx, actor, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	dept := domain.DepartmentKitchen
	list, err := svc.ListTasks(f.ctx, actor, store.TaskFilter{Department: &dept})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kitchen.ID, list[0].ID)

	bad := domain.TaskStatus("archived")
	_, err = svc.ListTasks(f.ctx, actor, store.TaskFilter{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ListTasks(f.ctx, guestActor(uuid.New()), store.TaskFilter{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateTaskDetails_LeavesAssignmentAlone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	member := f.addStaff(domain.DepartmentService)
	task := f.addTask(t, domain.DepartmentService, domain.DirectOrigin())
	_, err := svc.AssignTask(f.ctx, managerActor(), ManualAssignment{TaskID: task.ID, StaffID: member.ID})
	require.NoError(t, err)

	title := "Deliver newspapers"
	priority := domain.PriorityHigh
	updated, err := svc.UpdateTaskDetails(f.ctx, staffActor(member.ID), task.ID, domain.TaskUpdate{
		Title:    &title,
		Priority: &priority,
	})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
	assert.Equal(t, domain.TaskStatusAssigned, updated.Status)
	assert.True(t, updated.IsAssignedTo(member.ID))
	assert.Len(t, updated.StatusHistory, 1)
	assert.Len(t, updated.AssignmentHistory, 1)

	bad := domain.Priority("critical")
	_, err = svc.UpdateTaskDetails(f.ctx, staffActor(member.ID), task.ID, domain.TaskUpdate{Priority: &bad})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, domain.PriorityHigh, f.mustTask(t, task.ID).Priority)
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	req, tasks := spawnSiblings(t, f, 2)
	f.setStatus(t, tasks[0].ID, domain.TaskStatusCompleted)

	err := svc.DeleteTask(f.ctx, staffActor(uuid.New()), tasks[1].ID)
	require.ErrorIs(t, err, ErrForbidden)
	f.mustTask(t, tasks[1].ID)

	require.NoError(t, svc.DeleteTask(f.ctx, managerActor(), tasks[1].ID))
	_, err = f.tasks.GetByID(f.ctx, tasks[1].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []events.EventType{events.TaskDeleted}, f.events.Types())

	// The remaining sibling is completed, so the request follows.
	assert.Equal(t, domain.RequestStatusCompleted, f.mustRequest(t, req.ID).Status)

	err = svc.DeleteTask(f.ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_DelegatesToEngines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	first := f.addStaff(domain.DepartmentMaintenance)
	second := f.addStaff(domain.DepartmentMaintenance)
	task := f.addTask(t, domain.DepartmentMaintenance, domain.DirectOrigin())
	actor := managerActor()

	_, err := svc.AssignTask(f.ctx, actor, ManualAssignment{TaskID: task.ID, StaffID: first.ID})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(f.ctx, staffActor(first.ID), task.ID, domain.TaskStatusInProgress)
	require.NoError(t, err)

	handed, err := svc.HandoffTask(f.ctx, staffActor(first.ID), task.ID, second.ID, "needs a plumber")
	require.NoError(t, err)
	assert.True(t, handed.IsAssignedTo(second.ID))
	assert.Equal(t, domain.TaskStatusInProgress, handed.Status)

	_, err = svc.UpdateStatus(f.ctx, staffActor(second.ID), task.ID, domain.TaskStatusCompleted)
	require.NoError(t, err)

	stored := f.mustTask(t, task.ID)
	assert.Len(t, stored.StatusHistory, 3)
	assert.Len(t, stored.AssignmentHistory, 2)
	assert.Equal(t, []events.EventType{
		events.TaskAssigned,
		events.TaskUpdated,
		events.TaskAssigned,
		events.TaskUpdated,
	}, f.events.Types())
}
