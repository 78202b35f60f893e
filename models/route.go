package models

// Route is an ordered path of waypoints from an origin to a destination,
// produced by the pathfinder and owned by a session for the duration of one
// trip. Edges[i] connects Waypoints[i] to Waypoints[i+1].
type Route struct {
	ID          string       `json:"id"`
	Origin      WaypointID   `json:"origin"`
	Destination WaypointID   `json:"destination"`
	Waypoints   []WaypointID `json:"waypoints"`
	Edges       []Edge       `json:"edges"`
	TotalCost   float64      `json:"total_cost"`
}

// Hops is the number of edges traversed end to end.
func (r *Route) Hops() int {
	if len(r.Waypoints) == 0 {
		return 0
	}
	return len(r.Waypoints) - 1
}
