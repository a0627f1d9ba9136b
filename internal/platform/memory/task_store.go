package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// TaskStore implements store.TaskStore.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task

	// BeforeSwap, when set, runs before every CompareAndSwap and may fail it.
	BeforeSwap func(task *domain.Task) error
}

// NewTaskStore returns an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.
func (s *TaskStore) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	task.Version = 1
	s.tasks[task.ID] = task.Clone()
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// List implements store.TaskStore.
func (s *TaskStore) List(_ context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	s.mu.RLock()
	var out []*domain.Task
	for _, task := range s.tasks {
		if matchesTask(task, filter) {
			out = append(out, task.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func matchesTask(task *domain.Task, f store.TaskFilter) bool {
	if f.Status != nil && task.Status != *f.Status {
		return false
	}
	if f.Department != nil && task.Department != *f.Department {
		return false
	}
	if f.AssignedTo != nil && !task.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if f.OriginRequestID != nil {
		id, ok := task.Origin.RequestID()
		if !ok || id != *f.OriginRequestID {
			return false
		}
	}
	return true
}

// ListByOrigin implements store.TaskStore.
func (s *TaskStore) ListByOrigin(ctx context.Context, requestID uuid.UUID) ([]*domain.Task, error) {
	return s.List(ctx, store.TaskFilter{OriginRequestID: &requestID})
}

// ListStaleUnassigned implements store.TaskStore.
func (s *TaskStore) ListStaleUnassigned(_ context.Context, cutoff time.Time, limit int) ([]*domain.Task, error) {
	s.mu.RLock()
	var out []*domain.Task
	for _, task := range s.tasks {
		if task.Status == domain.TaskStatusPending &&
			task.AssignedTo == nil &&
			task.IsActive &&
			!task.RequestedAt.After(cutoff) {
			out = append(out, task.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return paginate(out, limit, 0), nil
}

// CountActiveByAssignee implements store.TaskStore.
func (s *TaskStore) CountActiveByAssignee(_ context.Context, staffIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(staffIDs))
	for _, id := range staffIDs {
		counts[id] = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, task := range s.tasks {
		if task.AssignedTo == nil || !task.Status.IsActive() {
			continue
		}
		if _, wanted := counts[*task.AssignedTo]; wanted {
			counts[*task.AssignedTo]++
		}
	}
	return counts, nil
}

// CompareAndSwap implements store.TaskStore.
func (s *TaskStore) CompareAndSwap(_ context.Context, task *domain.Task, expectedVersion int) error {
	if s.BeforeSwap != nil {
		if err := s.BeforeSwap(task); err != nil {
			return err
		}
	}
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if current.Version != expectedVersion {
		return store.ErrConflict
	}
	task.Version = expectedVersion + 1
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		return []T{}
	}
	return items
}
