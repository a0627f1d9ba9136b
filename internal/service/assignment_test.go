package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssigner(t *testing.T, f *fixture) *AssignmentEngine {
	t.Helper()
	engine, err := NewAssignmentEngine(f.deps(), f.opts)
	require.NoError(t, err)
	return engine
}

func TestAssignManually(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	engine := newAssigner(t, f)
	member := f.addStaff(domain.DepartmentKitchen)
	task := f.addTask(t, domain.DepartmentKitchen, domain.DirectOrigin())
	actor := managerActor()

	priority := domain.PriorityUrgent
	estimate := 20
	updated, err := engine.AssignManually(f.ctx, ManualAssignment{
		TaskID:           task.ID,
		StaffID:          member.ID,
		EstimatedMinutes: &estimate,
		Priority:         &priority,
		Notes:            "VIP suite",
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusAssigned, updated.Status)
	assert.True(t, updated.IsAssignedTo(member.ID))
	require.NotNil(t, updated.AssignedBy)
	assert.Equal(t, actor.ID, *updated.AssignedBy)
	assert.Equal(t, domain.AssignmentSourceUser, updated.AssignmentSource)
	assert.Equal(t, domain.PriorityUrgent, updated.Priority)
	assert.Equal(t, 20, updated.EstimatedMinutes)
	require.Len(t, updated.AssignmentHistory, 1)
	assert.Equal(t, "VIP suite", updated.AssignmentHistory[0].Notes)
	assert.Len(t, updated.StatusHistory, 1)

	assert.Equal(t, []events.EventType{events.TaskAssigned}, f.events.Types())
	assert.Equal(t, updated.Version, f.mustTask(t, task.ID).Version)
}

func TestAssignManually_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	engine := newAssigner(t, f)
	member := f.addStaff(domain.DepartmentKitchen)
	manager := f.addManager()
	task := f.addTask(t, domain.DepartmentKitchen, domain.DirectOrigin())
	negative := -5

	tests := []struct {
		name    string
		in      ManualAssignment
		actor   domain.Actor
		wantErr error
	}{
		{
			name:    "unknown task",
			in:      ManualAssignment{TaskID: uuid.New(), StaffID: member.ID},
			actor:   managerActor(),
			wantErr: ErrNotFound,
		},
		{
			name:    "unknown staff",
			in:      ManualAssignment{TaskID: task.ID, StaffID: uuid.New()},
			actor:   managerActor(),
			wantErr: ErrNotFound,
		},
		{
			name:    "target is a manager",
			in:      ManualAssignment{TaskID: task.ID, StaffID: manager.ID},
			actor:   managerActor(),
			wantErr: ErrInvalidRole,
		},
		{
			name:    "negative estimate",
			in:      ManualAssignment{TaskID: task.ID, StaffID: member.ID, EstimatedMinutes: &negative},
			actor:   managerActor(),
			wantErr: ErrValidation,
		},
		{
			name:    "guest actor",
			in:      ManualAssignment{TaskID: task.ID, StaffID: member.ID},
			actor:   guestActor(uuid.New()),
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.AssignManually(f.ctx, tt.in, tt.actor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored := f.mustTask(t, task.ID)
	assert.Equal(t, domain.TaskStatusPending, stored.Status)
	assert.Nil(t, stored.AssignedTo)
	assert.Empty(t, f.events.Events())
}

func TestAssignManually_DowngradePastGraceRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	engine := newAssigner(t, f)
	member := f.addStaff(domain.DepartmentService)
	task := f.addTask(t, domain.DepartmentService, domain.DirectOrigin())
	f.setStatus(t, task.ID, domain.TaskStatusInProgress)

	f.clock.Advance(f.opts.Policy.GracePeriod + 1)
	_, err := engine.AssignManually(f.ctx, ManualAssignment{TaskID: task.ID, StaffID: member.ID}, managerActor())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.TaskStatusInProgress, f.mustTask(t, task.ID).Status)
}

func TestAutoAssign(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	engine := newAssigner(t, f)
	member := f.addStaff(domain.DepartmentMaintenance)
	f.addStaff(domain.DepartmentKitchen)
	task := f.addTask(t, domain.DepartmentMaintenance, domain.DirectOrigin())

	assigned, err := engine.AutoAssign(f.ctx, f.mustTask(t, task.ID))
	require.NoError(t, err)
	require.True(t, assigned)

	stored := f.mustTask(t, task.ID)
	assert.Equal(t, domain.TaskStatusAssigned, stored.Status)
	assert.True(t, stored.IsAssignedTo(member.ID))
	assert.Equal(t, domain.AssignmentSourceSystem, stored.AssignmentSource)
	require.NotNil(t, stored.AssignedBy)
	assert.Equal(t, domain.SystemActor.ID, *stored.AssignedBy)
	require.Len(t, stored.StatusHistory, 1)
	assert.Equal(t, domain.SystemActor.ID, stored.StatusHistory[0].ChangedBy)
	assert.Equal(t, []events.EventType{events.TaskAssigned}, f.events.Types())
}

func TestAutoAssign_NoOp(t *testing.T) {
	t.Parallel()

	t.Run("no eligible staff", func(t *testing.T) {
		f := newFixture(t)
		engine := newAssigner(t, f)
		f.addStaff(domain.DepartmentKitchen)
		inactive := f.addStaff(domain.DepartmentMaintenance)
		inactive.IsActive = false
		f.staff.Put(inactive)
		task := f.addTask(t, domain.DepartmentMaintenance, domain.DirectOrigin())

		assigned, err := engine.AutoAssign(f.ctx, f.mustTask(t, task.ID))
		require.NoError(t, err)
		assert.False(t, assigned)
		assert.Equal(t, domain.TaskStatusPending, f.mustTask(t, task.ID).Status)
	})

	t.Run("task not pending", func(t *testing.T) {
		f := newFixture(t)
		engine := newAssigner(t, f)
		f.addStaff(domain.DepartmentMaintenance)
		task := f.addTask(t, domain.DepartmentMaintenance, domain.DirectOrigin())
		f.setStatus(t, task.ID, domain.TaskStatusCancelled)

		assigned, err := engine.AutoAssign(f.ctx, f.mustTask(t, task.ID))
		require.NoError(t, err)
		assert.False(t, assigned)
	})

	t.Run("claim lost to another writer", func(t *testing.T) {
		f := newFixture(t)
		engine := newAssigner(t, f)
		member := f.addStaff(domain.DepartmentMaintenance)
		task := f.addTask(t, domain.DepartmentMaintenance, domain.DirectOrigin())
		stale := f.mustTask(t, task.ID)

		_, err := engine.AssignManually(f.ctx, ManualAssignment{TaskID: task.ID, StaffID: member.ID}, managerActor())
		require.NoError(t, err)

		assigned, err := engine.AutoAssign(f.ctx, stale)
		require.NoError(t, err)
		assert.False(t, assigned)

		stored := f.mustTask(t, task.ID)
		assert.Equal(t, domain.AssignmentSourceUser, stored.AssignmentSource)
		assert.Len(t, stored.AssignmentHistory, 1)
	})
}

func TestAutoAssign_SyncsParentRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	engine := newAssigner(t, f)
	f.addStaff(domain.DepartmentHousekeeping)
	req, tasks := spawnSiblings(t, f, 1)

	assigned, err := engine.AutoAssign(f.ctx, f.mustTask(t, tasks[0].ID))
	require.NoError(t, err)
	require.True(t, assigned)
	assert.Equal(t, domain.RequestStatusInProgress, f.mustRequest(t, req.ID).Status)
}
