package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// GuestRequestStore implements store.GuestRequestStore.
type GuestRequestStore struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*domain.GuestServiceRequest

	// BeforeSwap, when set, runs before every CompareAndSwap and may fail it.
	BeforeSwap func(req *domain.GuestServiceRequest) error
}

// NewGuestRequestStore returns an empty GuestRequestStore.
func NewGuestRequestStore() *GuestRequestStore {
	return &GuestRequestStore{requests: make(map[uuid.UUID]*domain.GuestServiceRequest)}
}

var _ store.GuestRequestStore = (*GuestRequestStore)(nil)

// Create implements store.GuestRequestStore.
func (s *GuestRequestStore) Create(_ context.Context, req *domain.GuestServiceRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return store.ErrDuplicate
	}
	req.Version = 1
	s.requests[req.ID] = req.Clone()
	return nil
}

// GetByID implements store.GuestRequestStore.
func (s *GuestRequestStore) GetByID(_ context.Context, id uuid.UUID) (*domain.GuestServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, store.ErrGuestRequestNotFound
	}
	return req.Clone(), nil
}

// List implements store.GuestRequestStore.
func (s *GuestRequestStore) List(_ context.Context, f store.RequestFilter) ([]*domain.GuestServiceRequest, error) {
	s.mu.RLock()
	var out []*domain.GuestServiceRequest
	for _, req := range s.requests {
		if f.Status != nil && req.Status != *f.Status {
			continue
		}
		if f.RoomNumber != "" && req.RoomNumber != f.RoomNumber {
			continue
		}
		if f.GuestID != nil && !req.IsRaisedBy(*f.GuestID) {
			continue
		}
		out = append(out, req.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

// CompareAndSwap implements store.GuestRequestStore.
func (s *GuestRequestStore) CompareAndSwap(
	_ context.Context,
	req *domain.GuestServiceRequest,
	expectedVersion int,
) error {
	if s.BeforeSwap != nil {
		if err := s.BeforeSwap(req); err != nil {
			return err
		}
	}
	if err := req.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[req.ID]
	if !ok {
		return store.ErrGuestRequestNotFound
	}
	if current.Version != expectedVersion {
		return store.ErrConflict
	}
	req.Version = expectedVersion + 1
	s.requests[req.ID] = req.Clone()
	return nil
}
