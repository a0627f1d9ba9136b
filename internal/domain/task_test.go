package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() TaskSpec {
	return TaskSpec{
		Title:      "Fix leaking tap",
		Department: DepartmentMaintenance,
		Category:   "general",
		CreatedBy:  uuid.New(),
	}
}

func TestNewTask(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		task, err := NewTask(validSpec(), now)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, PriorityMedium, task.Priority)
		assert.True(t, task.IsActive)
		assert.Equal(t, now, task.RequestedAt)
		assert.Equal(t, OriginDirect, task.Origin.Kind())
		assert.Empty(t, task.StatusHistory)
		assert.Nil(t, task.AssignedTo)
	})

	t.Run("validation", func(t *testing.T) {
		spec := validSpec()
		spec.Title = ""
		_, err := NewTask(spec, now)
		assert.ErrorIs(t, err, ErrValidation)

		spec = validSpec()
		spec.Department = "Spa"
		_, err = NewTask(spec, now)
		assert.ErrorIs(t, err, ErrInvalidDepartment)

		spec = validSpec()
		spec.Priority = "whenever"
		_, err = NewTask(spec, now)
		assert.ErrorIs(t, err, ErrInvalidPriority)
	})
}

func TestTask_ApplyTransition(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	staff := uuid.New()

	task, err := NewTask(validSpec(), now)
	require.NoError(t, err)

	task.ApplyTransition(TaskStatusInProgress, staff, now.Add(time.Minute))
	require.Len(t, task.StatusHistory, 1)
	assert.Equal(t, StatusChange{
		From:      TaskStatusPending,
		To:        TaskStatusInProgress,
		ChangedBy: staff,
		ChangedAt: now.Add(time.Minute),
	}, task.StatusHistory[0])
	require.NotNil(t, task.AcceptedBy)
	assert.Equal(t, staff, *task.AcceptedBy)
	assert.Equal(t, now.Add(time.Minute), *task.LastStatusChange)
	assert.Nil(t, task.CompletedAt)

	other := uuid.New()
	task.ApplyTransition(TaskStatusAssigned, other, now.Add(2*time.Minute))
	task.ApplyTransition(TaskStatusInProgress, other, now.Add(3*time.Minute))
	assert.Equal(t, staff, *task.AcceptedBy, "first acceptance is kept")

	task.ApplyTransition(TaskStatusCompleted, other, now.Add(4*time.Minute))
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now.Add(4*time.Minute), *task.CompletedAt)
	assert.Len(t, task.StatusHistory, 4)
}

func TestTask_ApplyTransition_LeavingCompletedClearsCompletedAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		to   TaskStatus
	}{
		{name: "back to in progress", to: TaskStatusInProgress},
		{name: "back to assigned", to: TaskStatusAssigned},
		{name: "swapped to cancelled", to: TaskStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task, err := NewTask(validSpec(), now)
			require.NoError(t, err)

			task.ApplyTransition(TaskStatusCompleted, uuid.New(), now.Add(time.Minute))
			require.NotNil(t, task.CompletedAt)

			task.ApplyTransition(tt.to, uuid.New(), now.Add(2*time.Minute))
			assert.Nil(t, task.CompletedAt)
			assert.Equal(t, tt.to, task.Status)
		})
	}
}

func TestTask_Assign(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	staff := uuid.New()

	task, err := NewTask(validSpec(), now)
	require.NoError(t, err)

	task.Assign(staff, SystemActor.ID, AssignmentSourceSystem, "", now)
	assert.Equal(t, TaskStatusAssigned, task.Status)
	assert.True(t, task.IsAssignedTo(staff))
	assert.Equal(t, AssignmentSourceSystem, task.AssignmentSource)
	require.Len(t, task.AssignmentHistory, 1)
	assert.Nil(t, task.AssignmentHistory[0].AssignedFrom)
	assert.Equal(t, AssignmentActionAssigned, task.AssignmentHistory[0].Status)
	require.Len(t, task.StatusHistory, 1)

	// Reassigning while already assigned leaves status history alone.
	manager := uuid.New()
	next := uuid.New()
	task.Assign(next, manager, AssignmentSourceUser, "shift change", now.Add(time.Minute))
	assert.Len(t, task.StatusHistory, 1)
	require.Len(t, task.AssignmentHistory, 2)
	assert.Equal(t, staff, *task.AssignmentHistory[1].AssignedFrom)
	assert.Equal(t, "shift change", task.AssignmentHistory[1].Notes)
}

func TestTask_Handoff(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	first, second, manager := uuid.New(), uuid.New(), uuid.New()

	task, err := NewTask(validSpec(), now)
	require.NoError(t, err)

	assert.ErrorIs(t, task.Handoff(second, manager, "", now), ErrTaskNotAssigned)

	task.Assign(first, manager, AssignmentSourceUser, "", now)
	task.ApplyTransition(TaskStatusInProgress, first, now)
	statusBefore := task.Status
	historyBefore := len(task.StatusHistory)

	require.NoError(t, task.Handoff(second, manager, "end of shift", now.Add(time.Hour)))
	assert.Equal(t, statusBefore, task.Status)
	assert.Len(t, task.StatusHistory, historyBefore)
	require.Len(t, task.AssignmentHistory, 2)
	last := task.AssignmentHistory[1]
	assert.Equal(t, second, last.AssignedTo)
	assert.Equal(t, first, *last.AssignedFrom)
	assert.Equal(t, AssignmentActionReassigned, last.Status)
	assert.Equal(t, AssignmentSourceUser, last.Source)
	assert.Equal(t, "end of shift", last.Notes)

	assert.ErrorIs(t, task.Handoff(second, manager, "", now), ErrSameAssignee)

	task.ApplyTransition(TaskStatusCompleted, second, now)
	assert.ErrorIs(t, task.Handoff(first, manager, "", now), ErrTaskClosed)
}

func TestTask_ApplyUpdate(t *testing.T) {
	now := time.Now()
	task, err := NewTask(validSpec(), now)
	require.NoError(t, err)

	title := "Fix leaking bathroom tap"
	urgent := PriorityUrgent
	require.NoError(t, task.ApplyUpdate(TaskUpdate{Title: &title, Priority: &urgent}, now))
	assert.Equal(t, title, task.Title)
	assert.Equal(t, PriorityUrgent, task.Priority)

	empty := ""
	err = task.ApplyUpdate(TaskUpdate{Title: &empty}, now)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, title, task.Title, "rejected update leaves the task untouched")
}

func TestTask_TrimHistory(t *testing.T) {
	now := time.Now()
	task, err := NewTask(validSpec(), now)
	require.NoError(t, err)

	statuses := []TaskStatus{TaskStatusAssigned, TaskStatusInProgress, TaskStatusAssigned, TaskStatusInProgress}
	for _, s := range statuses {
		task.ApplyTransition(s, uuid.New(), now)
	}

	task.TrimHistory(0)
	assert.Len(t, task.StatusHistory, 4)

	task.TrimHistory(2)
	require.Len(t, task.StatusHistory, 2)
	assert.Equal(t, TaskStatusAssigned, task.StatusHistory[0].To)
	assert.Equal(t, TaskStatusInProgress, task.StatusHistory[1].To)
}

func TestTask_CloneIsDeep(t *testing.T) {
	task, err := NewTask(validSpec(), time.Now())
	require.NoError(t, err)
	task.Assign(uuid.New(), uuid.New(), AssignmentSourceUser, "", time.Now())

	clone := task.Clone()
	clone.StatusHistory[0].To = TaskStatusCancelled
	*clone.AssignedTo = uuid.New()

	assert.Equal(t, TaskStatusAssigned, task.StatusHistory[0].To)
	assert.NotEqual(t, *clone.AssignedTo, *task.AssignedTo)
}

func TestOrigin(t *testing.T) {
	direct := DirectOrigin()
	_, ok := direct.RequestID()
	assert.False(t, ok)
	assert.Equal(t, "direct", direct.String())

	requestID := uuid.New()
	spawned := FromGuestRequest(requestID)
	id, ok := spawned.RequestID()
	assert.True(t, ok)
	assert.Equal(t, requestID, id)

	data, err := json.Marshal(spawned)
	require.NoError(t, err)
	var decoded Origin
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, spawned, decoded)

	err = json.Unmarshal([]byte(`{"kind":"guest_request"}`), &decoded)
	assert.ErrorIs(t, err, ErrValidation)
}
