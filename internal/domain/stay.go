package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckInStatus is the state of a stay record.
type CheckInStatus string

const (
	CheckInStatusReserved   CheckInStatus = "reserved"
	CheckInStatusCheckedIn  CheckInStatus = "checked_in"
	CheckInStatusCheckedOut CheckInStatus = "checked_out"
)

// CheckIn is the stay record a guest request is raised under.
type CheckIn struct {
	ID               uuid.UUID     `json:"id"`
	GuestID          uuid.UUID     `json:"guest_id"`
	RoomID           uuid.UUID     `json:"room_id"`
	RoomNumber       string        `json:"room_number"`
	BookingID        uuid.UUID     `json:"booking_id"`
	Status           CheckInStatus `json:"status"`
	CheckedInAt      time.Time     `json:"checked_in_at"`
	ExpectedCheckOut time.Time     `json:"expected_check_out"`
}

// IsActive reports whether the guest is currently checked in.
func (c *CheckIn) IsActive() bool {
	return c.Status == CheckInStatusCheckedIn
}
