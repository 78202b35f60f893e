package graph

import "errors"

var (
	// ErrInvalidTopology means the declarative topology is malformed
	// (duplicate waypoint, dangling edge endpoint, negative cost). It is a
	// startup failure, never a runtime condition.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrUnknownWaypoint means an identifier outside the loaded graph was
	// referenced. Callers log it and ignore the offending event.
	ErrUnknownWaypoint = errors.New("unknown waypoint")

	// ErrNoPath means the two waypoints sit in disconnected components.
	ErrNoPath = errors.New("no path exists")
)
