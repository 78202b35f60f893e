package graph

import (
	"container/heap"
	"fmt"

	"github.com/google/uuid"

	"indoor-nav-server/models"
)

// FindRoute computes the minimum-total-cost route between two waypoints with
// Dijkstra over the non-negative edge costs. Ties are broken first by hop
// count, then by the lexicographically smaller identifier sequence, so the
// result is fully deterministic for a given graph. Re-routing after a
// deviation calls this from an arbitrary waypoint, not only declared entry
// points.
func (g *Graph) FindRoute(origin, destination models.WaypointID) (*models.Route, error) {
	if _, ok := g.waypoints[origin]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWaypoint, origin)
	}
	if _, ok := g.waypoints[destination]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWaypoint, destination)
	}

	start := &routeLabel{
		node: origin,
		path: []models.WaypointID{origin},
	}

	pq := &labelQueue{start}
	heap.Init(pq)
	settled := make(map[models.WaypointID]bool)

	for pq.Len() > 0 {
		label := heap.Pop(pq).(*routeLabel)
		if settled[label.node] {
			continue
		}
		settled[label.node] = true

		if label.node == destination {
			return &models.Route{
				ID:          uuid.NewString(),
				Origin:      origin,
				Destination: destination,
				Waypoints:   label.path,
				Edges:       label.edges,
				TotalCost:   label.cost,
			}, nil
		}

		for _, e := range g.edges[label.node] {
			if settled[e.To] {
				continue
			}
			heap.Push(pq, label.extend(e))
		}
	}

	return nil, fmt.Errorf("%w: from %s to %s", ErrNoPath, origin, destination)
}

// routeLabel is a candidate path to a node. The full path is carried along so
// that equal-cost candidates can be ordered lexicographically; graphs here
// are tens of nodes, so the extra copying is irrelevant.
type routeLabel struct {
	node  models.WaypointID
	cost  float64
	path  []models.WaypointID
	edges []models.Edge
}

func (l *routeLabel) extend(e models.Edge) *routeLabel {
	path := make([]models.WaypointID, len(l.path), len(l.path)+1)
	copy(path, l.path)
	edges := make([]models.Edge, len(l.edges), len(l.edges)+1)
	copy(edges, l.edges)
	return &routeLabel{
		node:  e.To,
		cost:  l.cost + e.Cost,
		path:  append(path, e.To),
		edges: append(edges, e),
	}
}

// less orders labels by cost, then hop count, then identifier sequence.
func (l *routeLabel) less(other *routeLabel) bool {
	if l.cost != other.cost {
		return l.cost < other.cost
	}
	if len(l.path) != len(other.path) {
		return len(l.path) < len(other.path)
	}
	for i := range l.path {
		if l.path[i] != other.path[i] {
			return l.path[i] < other.path[i]
		}
	}
	return false
}

type labelQueue []*routeLabel

func (pq labelQueue) Len() int           { return len(pq) }
func (pq labelQueue) Less(i, j int) bool { return pq[i].less(pq[j]) }
func (pq labelQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *labelQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*routeLabel))
}

func (pq *labelQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}
