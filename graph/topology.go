package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"indoor-nav-server/models"
)

// Topology is the declarative YAML description a graph is built from.
// Edges declared bidirectional expand into two directed edges; the turn hint
// only applies to the declared direction.
type Topology struct {
	Waypoints []TopologyWaypoint `yaml:"waypoints"`
	Edges     []TopologyEdge     `yaml:"edges"`
}

type TopologyWaypoint struct {
	ID    string   `yaml:"id"`
	Label string   `yaml:"label"`
	Lat   *float64 `yaml:"lat,omitempty"`
	Lon   *float64 `yaml:"lon,omitempty"`
}

type TopologyEdge struct {
	From          string  `yaml:"from"`
	To            string  `yaml:"to"`
	Cost          float64 `yaml:"cost"`
	Hint          string  `yaml:"hint,omitempty"`
	Bidirectional bool    `yaml:"bidirectional,omitempty"`
}

// Build converts the declaration into an immutable graph.
func (t *Topology) Build() (*Graph, error) {
	waypoints := make([]models.Waypoint, 0, len(t.Waypoints))
	for _, w := range t.Waypoints {
		wp := models.Waypoint{ID: models.WaypointID(w.ID), Label: w.Label}
		if w.Lat != nil && w.Lon != nil {
			wp.Coordinate = &models.Coordinate{Latitude: *w.Lat, Longitude: *w.Lon}
		}
		waypoints = append(waypoints, wp)
	}

	edges := make([]models.Edge, 0, len(t.Edges)*2)
	for _, e := range t.Edges {
		edges = append(edges, models.Edge{
			From: models.WaypointID(e.From),
			To:   models.WaypointID(e.To),
			Cost: e.Cost,
			Hint: e.Hint,
		})
		if e.Bidirectional {
			edges = append(edges, models.Edge{
				From: models.WaypointID(e.To),
				To:   models.WaypointID(e.From),
				Cost: e.Cost,
			})
		}
	}

	return New(waypoints, edges)
}

// LoadTopology parses a YAML topology document and builds the graph.
func LoadTopology(data []byte) (*Graph, error) {
	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopology, err)
	}
	return topo.Build()
}

// LoadTopologyFromFile reads and builds a topology file. Any failure here is
// fatal to startup; a navigation server without a valid graph cannot run.
func LoadTopologyFromFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read topology file: %w", err)
	}
	g, err := LoadTopology(data)
	if err != nil {
		return nil, fmt.Errorf("topology file %s: %w", path, err)
	}
	return g, nil
}

// DefaultTopology reproduces the pilot deployment floor plan: fifteen A-series
// landmarks and fourteen B-series intermediate markers around a corridor loop,
// every segment walkable in both directions at unit cost.
func DefaultTopology() *Graph {
	labels := map[string]string{
		"A1": "Room 515", "A2": "MTech Lab 514", "A3": "Staff Room Door 1",
		"A4": "Staff Room Door 3", "A5": "Room 511", "A6": "Washroom",
		"A7": "Stairs", "A8": "Room 510", "A9": "Micro Lab 508",
		"A10": "Circuits Lab 506", "A11": "EC Core Staff Room", "A12": "Lift",
		"A13": "Sdpk", "A14": "Room 503", "A15": "Stairs EB",
	}

	topo := Topology{}
	for i := 1; i <= 15; i++ {
		id := fmt.Sprintf("A%d", i)
		topo.Waypoints = append(topo.Waypoints, TopologyWaypoint{ID: id, Label: labels[id]})
	}
	for i := 1; i <= 14; i++ {
		topo.Waypoints = append(topo.Waypoints, TopologyWaypoint{
			ID:    fmt.Sprintf("B%d", i),
			Label: fmt.Sprintf("Intermediate Code %d", i),
		})
	}

	segments := [][2]string{
		{"A1", "A2"}, {"A2", "B1"}, {"B1", "A3"}, {"A3", "B2"}, {"B2", "B3"},
		{"B3", "B4"}, {"B4", "B5"}, {"B5", "A4"}, {"A4", "A5"}, {"A5", "B6"},
		{"B6", "A6"}, {"A6", "A7"}, {"A7", "A8"}, {"A8", "A9"}, {"A9", "B7"},
		{"B7", "A10"}, {"A10", "B8"}, {"B8", "B9"}, {"B9", "A11"}, {"A11", "B10"},
		{"B10", "B11"}, {"B11", "B12"}, {"B12", "A13"}, {"A13", "A14"}, {"A14", "B13"},
		{"B13", "A15"}, {"A15", "B14"}, {"B14", "A1"}, {"A11", "A12"},
	}
	for _, s := range segments {
		topo.Edges = append(topo.Edges, TopologyEdge{From: s[0], To: s[1], Cost: 1, Bidirectional: true})
	}

	g, err := topo.Build()
	if err != nil {
		// The compiled-in plan is covered by tests; this cannot happen.
		panic(err)
	}
	return g
}
