package models

// WaypointID is the code printed on a QR marker, a series tag followed by an
// index ("A7", "B12"). Series A marks rooms and landmarks, series B marks
// intermediate corridor points.
type WaypointID string

func (id WaypointID) String() string {
	return string(id)
}

// Series returns the leading series tag of the identifier.
func (id WaypointID) Series() string {
	if len(id) == 0 {
		return ""
	}
	return string(id[0])
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Waypoint is a physical location marked by a QR code. The coordinate is
// optional; indoor markers often have no usable GPS fix.
type Waypoint struct {
	ID         WaypointID  `json:"id"`
	Label      string      `json:"label"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Edge is a directed walkable connection between two waypoints. Cost is a
// non-negative traversal estimate (steps, meters or seconds, the units only
// need to be consistent across a topology). Hint is an optional turn
// instruction spoken when guiding along this edge.
type Edge struct {
	From WaypointID `json:"from"`
	To   WaypointID `json:"to"`
	Cost float64    `json:"cost"`
	Hint string     `json:"hint,omitempty"`
}
