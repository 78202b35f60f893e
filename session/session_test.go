package session_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indoor-nav-server/graph"
	"indoor-nav-server/models"
	"indoor-nav-server/session"
)

type recordingListener struct {
	mu          sync.Mutex
	transitions []session.Transition
}

func (l *recordingListener) OnTransition(t session.Transition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitions = append(l.transitions, t)
}

func (l *recordingListener) last(t *testing.T) session.Transition {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotEmpty(t, l.transitions)
	return l.transitions[len(l.transitions)-1]
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.transitions)
}

// corridorGraph is the three-marker graph used throughout: a cheap detour
// A1-A2-A3 (2+3) against a direct A1-A3 edge of cost 10, plus an isolated
// marker B1 for unreachable-destination cases.
func corridorGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(
		[]models.Waypoint{
			{ID: "A1", Label: "Room 515"},
			{ID: "A2", Label: "MTech Lab 514"},
			{ID: "A3", Label: "Staff Room Door 1"},
			{ID: "B1", Label: "Intermediate Code 1"},
		},
		[]models.Edge{
			{From: "A1", To: "A2", Cost: 2}, {From: "A2", To: "A1", Cost: 2},
			{From: "A2", To: "A3", Cost: 3}, {From: "A3", To: "A2", Cost: 3},
			{From: "A1", To: "A3", Cost: 10}, {From: "A3", To: "A1", Cost: 10},
		},
	)
	require.NoError(t, err)
	return g
}

func scan(id string) models.NavigationEvent {
	return models.NavigationEvent{Type: models.EventWaypointScanned, Waypoint: models.WaypointID(id)}
}

func choose(id string) models.NavigationEvent {
	return models.NavigationEvent{Type: models.EventDestinationChosen, Waypoint: models.WaypointID(id)}
}

func TestHappyPathTrip(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A1"))
	snap := s.Snapshot()
	assert.Equal(t, models.StatusAwaitingDestination, snap.Status)
	assert.Equal(t, models.WaypointID("A1"), snap.Current)
	assert.NotEmpty(t, snap.TripID)

	s.Handle(choose("A3"))
	snap = s.Snapshot()
	assert.Equal(t, models.StatusNavigating, snap.Status)
	assert.Equal(t, []models.WaypointID{"A1", "A2", "A3"}, snap.Route)

	last := listener.last(t)
	assert.Equal(t, models.StatusNavigating, last.To)
	require.NotNil(t, last.Next)
	assert.Equal(t, models.WaypointID("A2"), last.Next.ID)
	assert.Equal(t, []models.WaypointID{"A1", "A2", "A3"}, last.Route)

	s.Handle(scan("A2"))
	snap = s.Snapshot()
	assert.Equal(t, models.StatusNavigating, snap.Status)
	assert.Equal(t, models.WaypointID("A2"), snap.Current)
	last = listener.last(t)
	require.NotNil(t, last.Next)
	assert.Equal(t, models.WaypointID("A3"), last.Next.ID)

	s.Handle(scan("A3"))
	snap = s.Snapshot()
	assert.Equal(t, models.StatusArrived, snap.Status)
	assert.Equal(t, 1.0, snap.RouteProgress)
	assert.Equal(t, models.StatusArrived, listener.last(t).To)
}

func TestDeviationAndReroute(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A1"))
	s.Handle(choose("A3"))

	// Expecting A2, the user turns around and re-scans A1 instead.
	s.Handle(scan("A1"))
	snap := s.Snapshot()
	assert.Equal(t, models.StatusDeviated, snap.Status)
	assert.Equal(t, 1, snap.Deviations)

	// Rescanning any reachable marker recomputes the route from there.
	s.Handle(scan("A2"))
	snap = s.Snapshot()
	assert.Equal(t, models.StatusNavigating, snap.Status)
	assert.Equal(t, []models.WaypointID{"A2", "A3"}, snap.Route)
	assert.Equal(t, models.WaypointID("A2"), snap.Route[0])

	s.Handle(scan("A3"))
	assert.Equal(t, models.StatusArrived, s.Snapshot().Status)
}

func TestDeviationOntoDestination(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A1"))
	s.Handle(choose("A3"))

	// Scanning the destination while A2 was expected is still a deviation.
	s.Handle(scan("A3"))
	assert.Equal(t, models.StatusDeviated, s.Snapshot().Status)

	// Confirming the destination marker from Deviated completes the trip.
	s.Handle(scan("A3"))
	assert.Equal(t, models.StatusArrived, s.Snapshot().Status)
}

func TestDeviationWithNoPathAborts(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A1"))
	s.Handle(choose("A3"))

	// B1 is isolated: deviating onto it strands the user.
	s.Handle(scan("B1"))
	assert.Equal(t, models.StatusDeviated, s.Snapshot().Status)

	s.Handle(scan("B1"))
	snap := s.Snapshot()
	assert.Equal(t, models.StatusAborted, snap.Status)
	last := listener.last(t)
	assert.ErrorIs(t, last.Err, graph.ErrNoPath)
	assert.Equal(t, "no path from new position", last.Reason)
}

func TestUnreachableDestinationKeepsAwaiting(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A1"))
	s.Handle(choose("B1"))

	snap := s.Snapshot()
	assert.Equal(t, models.StatusAwaitingDestination, snap.Status)
	assert.Empty(t, snap.Route)
	last := listener.last(t)
	assert.Equal(t, models.StatusAwaitingDestination, last.To)
	assert.ErrorIs(t, last.Err, graph.ErrNoPath)
}

func TestDestinationEqualsCurrent(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A1"))
	s.Handle(choose("A1"))

	snap := s.Snapshot()
	assert.Equal(t, models.StatusAwaitingDestination, snap.Status)
	assert.Error(t, listener.last(t).Err)
}

func TestUnexpectedEventsAreIgnored(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	// Destination without a prior scan is a no-op.
	s.Handle(choose("A3"))
	assert.Equal(t, models.StatusIdle, s.Snapshot().Status)
	assert.Zero(t, listener.count())

	s.Handle(scan("A1"))
	s.Handle(choose("A3"))
	before := listener.count()

	// A second destination while navigating is ignored and logged.
	s.Handle(choose("A2"))
	assert.Equal(t, models.StatusNavigating, s.Snapshot().Status)
	assert.Equal(t, before, listener.count())
}

func TestUnknownWaypointScanIgnored(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A9"))
	assert.Equal(t, models.StatusIdle, s.Snapshot().Status)
	assert.Zero(t, listener.count())
}

func TestCancelAbortsFromAnyActiveState(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A1"))
	s.Handle(models.NavigationEvent{Type: models.EventCancel})

	snap := s.Snapshot()
	assert.Equal(t, models.StatusAborted, snap.Status)
	assert.Equal(t, "cancelled", listener.last(t).Reason)
}

func TestScanAfterTerminalStartsNewTrip(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	s.Handle(scan("A1"))
	s.Handle(choose("A3"))
	s.Handle(scan("A2"))
	s.Handle(scan("A3"))
	require.Equal(t, models.StatusArrived, s.Snapshot().Status)
	firstTrip := s.Snapshot().TripID

	s.Handle(scan("A2"))
	snap := s.Snapshot()
	assert.Equal(t, models.StatusAwaitingDestination, snap.Status)
	assert.Equal(t, models.WaypointID("A2"), snap.Current)
	assert.NotEqual(t, firstTrip, snap.TripID)
	assert.Zero(t, snap.Deviations)
	assert.Empty(t, snap.Route)
}

func TestPositionSampleNeverChangesState(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	pos := &models.Coordinate{Latitude: 12.9716, Longitude: 77.5946}
	s.Handle(models.NavigationEvent{Type: models.EventPositionSample, Position: pos})
	assert.Equal(t, models.StatusIdle, s.Snapshot().Status)

	s.Handle(scan("A1"))
	s.Handle(choose("A3"))
	before := s.Snapshot().Status

	s.Handle(models.NavigationEvent{Type: models.EventPositionSample, Position: pos})
	snap := s.Snapshot()
	assert.Equal(t, before, snap.Status)
	require.NotNil(t, snap.LastPosition)
	assert.Equal(t, pos.Latitude, snap.LastPosition.Latitude)
}

func TestApproachHintFiresOncePerLeg(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }
	topo := graph.Topology{
		Waypoints: []graph.TopologyWaypoint{
			{ID: "A1", Label: "Entrance", Lat: ptr(12.97160), Lon: ptr(77.59460)},
			{ID: "A2", Label: "Lobby", Lat: ptr(12.97170), Lon: ptr(77.59460)},
			{ID: "A3", Label: "Lift", Lat: ptr(12.97180), Lon: ptr(77.59460)},
		},
		Edges: []graph.TopologyEdge{
			{From: "A1", To: "A2", Cost: 1, Bidirectional: true},
			{From: "A2", To: "A3", Cost: 1, Bidirectional: true},
		},
	}
	g, err := topo.Build()
	require.NoError(t, err)

	listener := &recordingListener{}
	s := session.New("dev1", g, listener)
	s.Handle(scan("A1"))
	s.Handle(choose("A3"))

	// ~11 meters from A2: inside the approach radius.
	near := &models.Coordinate{Latitude: 12.97160, Longitude: 77.59460}
	nearer := &models.Coordinate{Latitude: 12.97165, Longitude: 77.59460}

	before := listener.count()
	s.Handle(models.NavigationEvent{Type: models.EventPositionSample, Position: near})
	require.Equal(t, before+1, listener.count())
	assert.True(t, listener.last(t).Approaching)

	// Second fix inside the radius stays quiet.
	s.Handle(models.NavigationEvent{Type: models.EventPositionSample, Position: nearer})
	assert.Equal(t, before+1, listener.count())
}

func TestTimeoutRepromptsWhileNavigating(t *testing.T) {
	listener := &recordingListener{}
	s := session.New("dev1", corridorGraph(t), listener)

	// Ignored before a route exists.
	s.Handle(models.NavigationEvent{Type: models.EventTimeout})
	assert.Zero(t, listener.count())

	s.Handle(scan("A1"))
	s.Handle(choose("A3"))

	s.Handle(models.NavigationEvent{Type: models.EventTimeout})
	last := listener.last(t)
	assert.True(t, last.Reprompt)
	assert.Equal(t, models.StatusNavigating, last.To)
	require.NotNil(t, last.Next)
	assert.Equal(t, models.WaypointID("A2"), last.Next.ID)
	assert.Equal(t, models.StatusNavigating, s.Snapshot().Status)
}

func TestRouteProgress(t *testing.T) {
	s := session.New("dev1", corridorGraph(t), &recordingListener{})

	s.Handle(scan("A1"))
	s.Handle(choose("A3"))
	assert.Equal(t, 0.0, s.Snapshot().RouteProgress)

	s.Handle(scan("A2"))
	assert.Equal(t, 0.5, s.Snapshot().RouteProgress)

	s.Handle(scan("A3"))
	assert.Equal(t, 1.0, s.Snapshot().RouteProgress)
}
