package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// Selection strategy names accepted by NewSelector.
const (
	StrategyRandom      = "random"
	StrategyRoundRobin  = "round_robin"
	StrategyLeastLoaded = "least_loaded"
)

// StaffSelector picks one staff member from a non-empty candidate list.
type StaffSelector interface {
	Select(ctx context.Context, task *domain.Task, candidates []*domain.Staff) (*domain.Staff, error)
}

// NewSelector returns the selector named by strategy.
func NewSelector(strategy string, tasks store.TaskStore) (StaffSelector, error) {
	switch strategy {
	case "", StrategyRandom:
		return NewRandomSelector(nil), nil
	case StrategyRoundRobin:
		return NewRoundRobinSelector(), nil
	case StrategyLeastLoaded:
		if tasks == nil {
			return nil, fmt.Errorf("%s selector requires a task store", StrategyLeastLoaded)
		}
		return NewLeastLoadedSelector(tasks), nil
	default:
		return nil, fmt.Errorf("%w: unknown selection strategy %q", ErrValidation, strategy)
	}
}

// RandomSelector picks uniformly at random, ignoring load.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector returns a RandomSelector drawing from src, or from the
// runtime's global source when src is nil.
func NewRandomSelector(src rand.Source) *RandomSelector {
	s := &RandomSelector{}
	if src != nil {
		s.rng = rand.New(src)
	}
	return s
}

// Select implements StaffSelector.
func (s *RandomSelector) Select(_ context.Context, _ *domain.Task, candidates []*domain.Staff) (*domain.Staff, error) {
	if s.rng == nil {
		return candidates[rand.IntN(len(candidates))], nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rng.IntN(len(candidates))], nil
}

// RoundRobinSelector rotates through candidates per department.
type RoundRobinSelector struct {
	mu   sync.Mutex
	next map[domain.Department]int
}

// NewRoundRobinSelector returns a RoundRobinSelector.
func NewRoundRobinSelector() *RoundRobinSelector {
	return &RoundRobinSelector{next: make(map[domain.Department]int)}
}

// Select implements StaffSelector.
func (s *RoundRobinSelector) Select(_ context.Context, task *domain.Task, candidates []*domain.Staff) (*domain.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next[task.Department] % len(candidates)
	s.next[task.Department] = i + 1
	return candidates[i], nil
}

// LeastLoadedSelector picks the candidate with the fewest assigned or
// in-progress tasks. Ties go to the lowest id.
type LeastLoadedSelector struct {
	tasks store.TaskStore
}

// NewLeastLoadedSelector returns a LeastLoadedSelector counting load in tasks.
func NewLeastLoadedSelector(tasks store.TaskStore) *LeastLoadedSelector {
	return &LeastLoadedSelector{tasks: tasks}
}

// Select implements StaffSelector.
func (s *LeastLoadedSelector) Select(ctx context.Context, _ *domain.Task, candidates []*domain.Staff) (*domain.Staff, error) {
	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	counts, err := s.tasks.CountActiveByAssignee(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count active tasks: %w", err)
	}

	sorted := append([]*domain.Staff(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		ci, cj := counts[sorted[i].ID], counts[sorted[j].ID]
		if ci != cj {
			return ci < cj
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted[0], nil
}
