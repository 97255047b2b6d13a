// README: Ride aggregate, status definitions, and the lifecycle graph.
package ride

import (
	"time"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

type Status string

const (
	// StatusNone marks the origin of a creation event in the audit trail.
	StatusNone       Status = ""
	StatusPending    Status = "PENDING"
	StatusAccepted   Status = "ACCEPTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Ride is one trip record. Distance, duration, and price are supplied
// at request time and never recomputed here.
type Ride struct {
	ID           types.ID   `json:"id"`
	StudentID    types.ID   `json:"studentId"`
	DriverID     *types.ID  `json:"driverId"`
	Pickup       string     `json:"pickup"`
	Destination  string     `json:"destination"`
	DistanceKm   *float64   `json:"distanceKm,omitempty"`
	DurationMins *int       `json:"durationMins,omitempty"`
	PriceNaira   *float64   `json:"priceNaira,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Event is one audit entry for a status change.
type Event struct {
	ID        int64
	RideID    types.ID
	From      Status
	To        Status
	ActorID   types.ID
	ActorRole types.Role
	CreatedAt time.Time
}

// AllowedTransitions is the guarded lifecycle graph. PENDING→PENDING is
// the reject edge (a driver declining a ride still in the open pool).
// The Override operation deliberately bypasses this graph for its three
// target statuses; terminal states stay terminal either way.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusPending, StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusPending, StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// OverrideTargets are the only statuses the Override operation may set.
var OverrideTargets = []Status{StatusInProgress, StatusCompleted, StatusCancelled}

func IsOverrideTarget(s Status) bool {
	for _, t := range OverrideTargets {
		if s == t {
			return true
		}
	}
	return false
}
