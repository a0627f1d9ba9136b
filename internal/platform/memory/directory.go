package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/store"
)

// StaffDirectory implements store.StaffDirectory over a fixed roster.
type StaffDirectory struct {
	mu    sync.RWMutex
	staff map[uuid.UUID]*domain.Staff
}

// NewStaffDirectory returns a directory seeded with members.
func NewStaffDirectory(members ...*domain.Staff) *StaffDirectory {
	d := &StaffDirectory{staff: make(map[uuid.UUID]*domain.Staff)}
	for _, m := range members {
		d.Put(m)
	}
	return d
}

var _ store.StaffDirectory = (*StaffDirectory)(nil)

// Put adds or replaces a directory entry.
func (d *StaffDirectory) Put(member *domain.Staff) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *member
	d.staff[member.ID] = &cp
}

// GetByID implements store.StaffDirectory.
func (d *StaffDirectory) GetByID(_ context.Context, id uuid.UUID) (*domain.Staff, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	member, ok := d.staff[id]
	if !ok {
		return nil, store.ErrStaffNotFound
	}
	cp := *member
	return &cp, nil
}

// ListEligible implements store.StaffDirectory.
func (d *StaffDirectory) ListEligible(_ context.Context, dept domain.Department) ([]*domain.Staff, error) {
	d.mu.RLock()
	out := []*domain.Staff{}
	for _, member := range d.staff {
		if member.IsEligibleFor(dept) {
			cp := *member
			out = append(out, &cp)
		}
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// StayStore implements store.StayStore.
type StayStore struct {
	mu    sync.RWMutex
	stays map[uuid.UUID]*domain.CheckIn
}

// NewStayStore returns a stay store seeded with stays.
func NewStayStore(stays ...*domain.CheckIn) *StayStore {
	s := &StayStore{stays: make(map[uuid.UUID]*domain.CheckIn)}
	for _, stay := range stays {
		s.Put(stay)
	}
	return s
}

var _ store.StayStore = (*StayStore)(nil)

// Put adds or replaces a stay record.
func (s *StayStore) Put(stay *domain.CheckIn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *stay
	s.stays[stay.ID] = &cp
}

// FindActiveCheckIn implements store.StayStore. When a guest has several
// checked-in stays, the most recent check-in wins.
func (s *StayStore) FindActiveCheckIn(_ context.Context, guestID uuid.UUID) (*domain.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.CheckIn
	for _, stay := range s.stays {
		if stay.GuestID != guestID || !stay.IsActive() {
			continue
		}
		if found == nil || stay.CheckedInAt.After(found.CheckedInAt) {
			found = stay
		}
	}
	if found == nil {
		return nil, store.ErrCheckInNotFound
	}
	cp := *found
	return &cp, nil
}
