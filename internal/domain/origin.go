package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// OriginKind discriminates how a Task came to exist.
type OriginKind string

const (
	OriginDirect       OriginKind = "direct"
	OriginGuestRequest OriginKind = "guest_request"
)

// Origin is a tagged variant: either Direct, or FromGuestRequest carrying the
// id of the request that spawned the task. The zero value is Direct.
type Origin struct {
	requestID uuid.UUID
}

// DirectOrigin returns the origin of tasks created directly by staff.
func DirectOrigin() Origin {
	return Origin{}
}

// FromGuestRequest returns the origin of a task spawned by request id.
func FromGuestRequest(id uuid.UUID) Origin {
	return Origin{requestID: id}
}

// Kind reports which variant o holds.
func (o Origin) Kind() OriginKind {
	if o.requestID == uuid.Nil {
		return OriginDirect
	}
	return OriginGuestRequest
}

// RequestID returns the parent request id for FromGuestRequest origins.
func (o Origin) RequestID() (uuid.UUID, bool) {
	return o.requestID, o.requestID != uuid.Nil
}

// String implements fmt.Stringer.
func (o Origin) String() string {
	if id, ok := o.RequestID(); ok {
		return fmt.Sprintf("%s:%s", OriginGuestRequest, id)
	}
	return string(OriginDirect)
}

type originJSON struct {
	Kind      OriginKind `json:"kind"`
	RequestID *uuid.UUID `json:"request_id,omitempty"`
}

// MarshalJSON encodes the variant as {"kind": ..., "request_id": ...}.
func (o Origin) MarshalJSON() ([]byte, error) {
	out := originJSON{Kind: o.Kind()}
	if id, ok := o.RequestID(); ok {
		out.RequestID = &id
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (o *Origin) UnmarshalJSON(data []byte) error {
	var in originJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case OriginDirect, "":
		*o = DirectOrigin()
	case OriginGuestRequest:
		if in.RequestID == nil || *in.RequestID == uuid.Nil {
			return NewValidationError("origin", "guest_request origin requires request_id", nil)
		}
		*o = FromGuestRequest(*in.RequestID)
	default:
		return NewValidationError("origin", fmt.Sprintf("unknown kind %q", in.Kind), nil)
	}
	return nil
}
