package graph

import (
	"fmt"

	"indoor-nav-server/models"
)

// Graph maps each waypoint to its outgoing edges. It is built once at
// startup and is read-only afterwards, so it can be shared by reference
// across every session without locking.
type Graph struct {
	waypoints map[models.WaypointID]models.Waypoint
	edges     map[models.WaypointID][]models.Edge
}

// New validates a declarative waypoint/edge list and builds the graph.
// Duplicate waypoint identifiers, edges referencing unknown endpoints and
// negative costs all fail with ErrInvalidTopology.
func New(waypoints []models.Waypoint, edges []models.Edge) (*Graph, error) {
	g := &Graph{
		waypoints: make(map[models.WaypointID]models.Waypoint, len(waypoints)),
		edges:     make(map[models.WaypointID][]models.Edge, len(waypoints)),
	}

	for _, wp := range waypoints {
		if wp.ID == "" {
			return nil, fmt.Errorf("%w: waypoint with empty identifier", ErrInvalidTopology)
		}
		if _, ok := g.waypoints[wp.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate waypoint %s", ErrInvalidTopology, wp.ID)
		}
		g.waypoints[wp.ID] = wp
	}

	for _, e := range edges {
		if _, ok := g.waypoints[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge %s-%s references unknown waypoint %s", ErrInvalidTopology, e.From, e.To, e.From)
		}
		if _, ok := g.waypoints[e.To]; !ok {
			return nil, fmt.Errorf("%w: edge %s-%s references unknown waypoint %s", ErrInvalidTopology, e.From, e.To, e.To)
		}
		if e.Cost < 0 {
			return nil, fmt.Errorf("%w: edge %s-%s has negative cost %v", ErrInvalidTopology, e.From, e.To, e.Cost)
		}
		g.edges[e.From] = append(g.edges[e.From], e)
	}

	return g, nil
}

// Waypoint resolves an identifier to its declared waypoint.
func (g *Graph) Waypoint(id models.WaypointID) (models.Waypoint, error) {
	wp, ok := g.waypoints[id]
	if !ok {
		return models.Waypoint{}, fmt.Errorf("%w: %s", ErrUnknownWaypoint, id)
	}
	return wp, nil
}

// Contains reports whether the identifier belongs to the loaded graph.
func (g *Graph) Contains(id models.WaypointID) bool {
	_, ok := g.waypoints[id]
	return ok
}

// Label returns the human-readable label for an identifier, or the raw
// identifier when unknown. Guidance phrasing never fails on a label lookup.
func (g *Graph) Label(id models.WaypointID) string {
	if wp, ok := g.waypoints[id]; ok && wp.Label != "" {
		return wp.Label
	}
	return string(id)
}

// Neighbors returns the outgoing edges of a waypoint. The returned slice is
// a copy; the graph stays immutable.
func (g *Graph) Neighbors(id models.WaypointID) ([]models.Edge, error) {
	if _, ok := g.waypoints[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWaypoint, id)
	}
	out := make([]models.Edge, len(g.edges[id]))
	copy(out, g.edges[id])
	return out, nil
}

// NumWaypoints returns the number of declared waypoints.
func (g *Graph) NumWaypoints() int {
	return len(g.waypoints)
}

// NumEdges returns the number of directed edges.
func (g *Graph) NumEdges() int {
	n := 0
	for _, es := range g.edges {
		n += len(es)
	}
	return n
}
