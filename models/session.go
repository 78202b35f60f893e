package models

import "time"

type SessionStatus string

const (
	StatusIdle                SessionStatus = "idle"
	StatusAwaitingDestination SessionStatus = "awaiting_destination"
	StatusNavigating          SessionStatus = "navigating"
	StatusDeviated            SessionStatus = "deviated"
	StatusArrived             SessionStatus = "arrived"
	StatusAborted             SessionStatus = "aborted"
)

// Terminal reports whether the status ends a trip. A scan in a terminal
// status starts a brand-new trip.
func (s SessionStatus) Terminal() bool {
	return s == StatusArrived || s == StatusAborted
}

// SessionSnapshot is the read-only view of a session exposed to the
// monitoring surface. It is a value copy; holding one never observes later
// mutations.
type SessionSnapshot struct {
	TripID        string        `json:"trip_id,omitempty"`
	Device        string        `json:"device"`
	Status        SessionStatus `json:"status"`
	Current       WaypointID    `json:"current_waypoint,omitempty"`
	Destination   WaypointID    `json:"destination,omitempty"`
	Route         []WaypointID  `json:"route,omitempty"`
	NextIndex     int           `json:"next_index"`
	RouteProgress float64       `json:"route_progress"`
	Deviations    int           `json:"deviations"`
	LastPosition  *Coordinate   `json:"last_position,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
