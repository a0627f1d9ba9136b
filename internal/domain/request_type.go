package domain

import "strings"

// RequestType categorizes a guest service request.
type RequestType string

const (
	RequestTypeRoomService  RequestType = "room_service"
	RequestTypeDining       RequestType = "dining"
	RequestTypeHousekeeping RequestType = "housekeeping"
	RequestTypeLaundry      RequestType = "laundry"
	RequestTypeMaintenance  RequestType = "maintenance"
	RequestTypeConcierge    RequestType = "concierge"
	RequestTypeTransport    RequestType = "transport"
	RequestTypeAmenities    RequestType = "amenities"
	RequestTypeWakeUpCall   RequestType = "wake_up_call"
	RequestTypeOther        RequestType = "other"
)

// Valid reports whether t is a request type guests may submit.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeRoomService, RequestTypeDining, RequestTypeHousekeeping,
		RequestTypeLaundry, RequestTypeMaintenance, RequestTypeConcierge,
		RequestTypeTransport, RequestTypeAmenities, RequestTypeWakeUpCall,
		RequestTypeOther:
		return true
	default:
		return false
	}
}

// DeptCategory is the routing target for a request type.
type DeptCategory struct {
	Department Department `json:"department"`
	Category   string     `json:"category"`
}

// fallbackRoute receives every request type without an explicit route.
var fallbackRoute = DeptCategory{Department: DepartmentService, Category: "guest_request"}

var requestTypeRoutes = map[RequestType]DeptCategory{
	RequestTypeRoomService:  {Department: DepartmentKitchen, Category: "room_service"},
	RequestTypeDining:       {Department: DepartmentKitchen, Category: "room_service"},
	RequestTypeHousekeeping: {Department: DepartmentHousekeeping, Category: "cleaning"},
	RequestTypeLaundry:      {Department: DepartmentHousekeeping, Category: "laundry"},
	RequestTypeMaintenance:  {Department: DepartmentMaintenance, Category: "general"},
	RequestTypeConcierge:    {Department: DepartmentService, Category: "concierge"},
	RequestTypeTransport:    {Department: DepartmentService, Category: "transportation"},
}

// MapRequestTypeToDeptCategory routes a guest request type to the department
// and category of the task it spawns. It is total: unknown or empty types go
// to Service/guest_request.
func MapRequestTypeToDeptCategory(requestType string) DeptCategory {
	key := RequestType(strings.ToLower(strings.TrimSpace(requestType)))
	if route, ok := requestTypeRoutes[key]; ok {
		return route
	}
	return fallbackRoute
}
