package models

import "time"

type EventType string

const (
	EventWaypointScanned   EventType = "waypoint_scanned"
	EventDestinationChosen EventType = "destination_chosen"
	EventPositionSample    EventType = "position_sample"
	EventTimeout           EventType = "timeout"
	EventCancel            EventType = "cancel"
)

// NavigationEvent is the normalized input consumed by a navigation session,
// one at a time, in arrival order. Waypoint is set for scans and destination
// choices, Position for GPS samples.
type NavigationEvent struct {
	Type      EventType   `json:"type"`
	Waypoint  WaypointID  `json:"waypoint,omitempty"`
	Position  *Coordinate `json:"position,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
