package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskServiceError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewTaskServiceError("op", "msg", nil))

	for _, sentinel := range taxonomy {
		wrapped := fmt.Errorf("context: %w", sentinel)
		assert.Same(t, wrapped, NewTaskServiceError("op", "msg", wrapped))
	}

	assert.ErrorIs(t, NewTaskServiceError("get", "load", store.ErrTaskNotFound), ErrNotFound)

	cause := errors.New("connection refused")
	err := NewTaskServiceError("transition", "failed to save task", cause)
	var svcErr *TaskServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "transition", svcErr.Operation)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "task service transition failed: failed to save task: connection refused", err.Error())
	assert.Equal(t, "task service x failed: y", (&TaskServiceError{Operation: "x", Message: "y"}).Error())
}

func TestRejectTransition(t *testing.T) {
	t.Parallel()

	policy := &domain.TransitionError{From: domain.TaskStatusCompleted, To: domain.TaskStatusCompleted, Reason: "same"}
	lostSwap := store.NewStoreError("task", "compare_and_swap", "expected version 3", store.ErrConflict)

	tests := []struct {
		name  string
		err   error
		cause error
	}{
		{name: "policy rejection", err: policy, cause: domain.ErrTransitionRejected},
		{name: "bare conflict", err: store.ErrConflict, cause: store.ErrConflict},
		{name: "conflict wrapped by store", err: lostSwap, cause: store.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := rejectTransition(tt.err)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.ErrorIs(t, err, tt.cause)
		})
	}

	other := errors.New("boom")
	assert.Same(t, other, rejectTransition(other))
}

func TestActorGates(t *testing.T) {
	t.Parallel()

	for _, role := range []domain.Role{domain.RoleStaff, domain.RoleManager, domain.RoleAdmin, domain.RoleSystem} {
		assert.NoError(t, requireStaffActor(domain.Actor{Role: role}), role)
		assert.ErrorIs(t, requireGuestActor(domain.Actor{Role: role}), ErrForbidden, role)
	}
	assert.ErrorIs(t, requireStaffActor(domain.Actor{Role: domain.RoleGuest}), ErrForbidden)
	assert.ErrorIs(t, requireStaffActor(domain.Actor{}), ErrForbidden)
	assert.NoError(t, requireGuestActor(domain.Actor{Role: domain.RoleGuest}))
}
