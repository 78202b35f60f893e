// Package session implements the per-user navigation state machine. A
// session consumes normalized navigation events one at a time, consults the
// pathfinder on destination choices and deviations, and reports every
// transition to a listener for guidance.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"indoor-nav-server/graph"
	"indoor-nav-server/metrics"
	"indoor-nav-server/models"
	"indoor-nav-server/utils"
)

// approachRadiusKm is how close a GPS fix must get to the next expected
// waypoint before the interim "getting closer" hint is spoken. Samples are
// advisory only; the hint fires at most once per route leg.
const approachRadiusKm = 0.015

// Pathfinder is the read-only graph surface a session needs. *graph.Graph
// satisfies it.
type Pathfinder interface {
	FindRoute(origin, destination models.WaypointID) (*models.Route, error)
	Waypoint(id models.WaypointID) (models.Waypoint, error)
	Contains(id models.WaypointID) bool
}

// Transition describes one state-machine step for the guidance emitter.
// From == To for advisory messages: failed destination choices, timeout
// re-prompts and approach hints.
type Transition struct {
	From models.SessionStatus
	To   models.SessionStatus

	// Current is the last confirmed waypoint, resolved with its label.
	Current models.Waypoint
	// Next is the next expected waypoint when a route is active.
	Next *models.Waypoint
	// Hint is the turn instruction of the edge leading to Next.
	Hint string
	// Route is the active waypoint sequence, set when a route was just
	// computed.
	Route []models.WaypointID

	// Err is the recoverable condition behind a failed or aborting
	// transition, graph.ErrNoPath in particular.
	Err error
	// Reason qualifies an abort ("cancelled", "no path from new position").
	Reason string

	// Reprompt marks a timeout nudge repeating the current instruction.
	Reprompt bool
	// Approaching marks the interim GPS hint for the current leg.
	Approaching bool
}

// Listener receives exactly one callback per emitted transition. Callbacks
// must not block; the guidance emitter enqueues and returns.
type Listener interface {
	OnTransition(t Transition)
}

// Session is the mutable record of one user traversal. Handle must only be
// called from a single goroutine (the event pump); Snapshot may be called
// concurrently from the monitoring surface.
type Session struct {
	mu sync.RWMutex

	device   string
	pf       Pathfinder
	listener Listener

	tripID      string
	status      models.SessionStatus
	current     models.WaypointID
	destination models.WaypointID
	route       *models.Route
	nextIndex   int
	deviations  int

	lastPosition      *models.Coordinate
	approachAnnounced bool
	updatedAt         time.Time
}

func New(device string, pf Pathfinder, listener Listener) *Session {
	return &Session{
		device:    device,
		pf:        pf,
		listener:  listener,
		status:    models.StatusIdle,
		updatedAt: time.Now(),
	}
}

// Handle consumes one navigation event. Events that make no sense in the
// current state are logged and ignored; nothing here panics or returns an
// error across the session boundary.
func (s *Session) Handle(ev models.NavigationEvent) {
	switch ev.Type {
	case models.EventWaypointScanned:
		s.handleScan(ev.Waypoint)
	case models.EventDestinationChosen:
		s.handleDestination(ev.Waypoint)
	case models.EventPositionSample:
		s.handlePosition(ev.Position)
	case models.EventTimeout:
		s.handleTimeout()
	case models.EventCancel:
		s.handleCancel()
	default:
		log.Warnf("session %s: unknown event type %q ignored", s.device, ev.Type)
	}
}

func (s *Session) handleScan(id models.WaypointID) {
	if !s.pf.Contains(id) {
		// Configuration error, not the user's fault: a marker outside the
		// loaded graph was scanned. Stay put.
		log.Warnf("session %s: scan of unknown waypoint %s ignored", s.device, id)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case models.StatusIdle:
		s.startTrip(id)

	case models.StatusArrived, models.StatusAborted:
		// A scan after a finished trip starts a brand-new one.
		s.startTrip(id)

	case models.StatusAwaitingDestination:
		// Re-anchor: the user moved before choosing a destination.
		s.current = id
		s.emit(s.transition(models.StatusAwaitingDestination, nil))

	case models.StatusNavigating:
		s.scanWhileNavigating(id)

	case models.StatusDeviated:
		s.scanWhileDeviated(id)
	}
}

// startTrip resets trip state and moves straight to AwaitingDestination, the
// implicit Idle hop folded in.
func (s *Session) startTrip(id models.WaypointID) {
	from := s.status
	s.tripID = uuid.NewString()
	s.current = id
	s.destination = ""
	s.route = nil
	s.nextIndex = 0
	s.deviations = 0
	s.approachAnnounced = false

	s.status = models.StatusAwaitingDestination
	s.updatedAt = time.Now()
	s.emit(Transition{From: from, To: s.status, Current: s.resolve(id)})
}

func (s *Session) scanWhileNavigating(id models.WaypointID) {
	expected := s.route.Waypoints[s.nextIndex]
	if id != expected {
		s.current = id
		s.deviations++
		s.emit(s.transition(models.StatusDeviated, nil))
		return
	}

	s.current = id
	s.approachAnnounced = false
	if s.nextIndex == len(s.route.Waypoints)-1 {
		s.finishTrip(models.StatusArrived, "", nil)
		return
	}
	s.nextIndex++
	s.emit(s.transition(models.StatusNavigating, nil))
}

func (s *Session) scanWhileDeviated(id models.WaypointID) {
	s.current = id
	if id == s.destination {
		// Deviated straight onto the destination marker.
		s.finishTrip(models.StatusArrived, "", nil)
		return
	}

	route, err := s.pf.FindRoute(id, s.destination)
	if err != nil {
		if errors.Is(err, graph.ErrNoPath) {
			s.finishTrip(models.StatusAborted, "no path from new position", err)
			return
		}
		log.Errorf("session %s: reroute from %s failed: %v", s.device, id, err)
		return
	}

	metrics.ReroutesTotal.Inc()
	s.route = route
	s.nextIndex = 1
	s.approachAnnounced = false
	t := s.transition(models.StatusNavigating, nil)
	t.Route = route.Waypoints
	s.emit(t)
}

func (s *Session) handleDestination(id models.WaypointID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.StatusAwaitingDestination {
		log.Warnf("session %s: destination %s ignored in state %s", s.device, id, s.status)
		return
	}
	if !s.pf.Contains(id) {
		log.Warnf("session %s: destination %s is not in the graph, ignored", s.device, id)
		return
	}
	if id == s.current {
		t := s.transition(s.status, errors.New("destination equals current location"))
		s.emit(t)
		return
	}

	route, err := s.pf.FindRoute(s.current, id)
	if err != nil {
		// Stays in AwaitingDestination; the user can pick another code.
		s.emit(s.transition(s.status, err))
		return
	}

	s.destination = id
	s.route = route
	s.nextIndex = 1
	s.approachAnnounced = false
	t := s.transition(models.StatusNavigating, nil)
	t.Route = route.Waypoints
	s.emit(t)
}

func (s *Session) handlePosition(pos *models.Coordinate) {
	if pos == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPosition = pos

	// Advisory only: never a state change. Speak an approach hint once per
	// leg when the fix comes within the approach radius of the next waypoint.
	if s.status != models.StatusNavigating || s.approachAnnounced {
		return
	}
	next, err := s.pf.Waypoint(s.route.Waypoints[s.nextIndex])
	if err != nil || next.Coordinate == nil {
		return
	}
	if utils.DistanceKm(*pos, *next.Coordinate) <= approachRadiusKm {
		s.approachAnnounced = true
		t := s.transition(s.status, nil)
		t.Approaching = true
		s.emit(t)
	}
}

func (s *Session) handleTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Soft nudge: repeat the current instruction, never fail the trip.
	if s.status != models.StatusNavigating && s.status != models.StatusDeviated {
		return
	}
	t := s.transition(s.status, nil)
	t.Reprompt = true
	s.emit(t)
}

func (s *Session) handleCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() || s.status == models.StatusIdle {
		log.Infof("session %s: cancel ignored in state %s", s.device, s.status)
		return
	}
	s.finishTrip(models.StatusAborted, "cancelled", nil)
}

// finishTrip moves to a terminal state. Callers hold the lock.
func (s *Session) finishTrip(to models.SessionStatus, reason string, err error) {
	metrics.TripsFinishedTotal.WithLabelValues(string(to)).Inc()
	t := s.transition(to, err)
	t.Reason = reason
	s.route = nil
	s.emit(t)
}

// transition updates status and assembles the listener context. Callers hold
// the lock. When to == s.status this is an advisory emission only.
func (s *Session) transition(to models.SessionStatus, err error) Transition {
	t := Transition{
		From:    s.status,
		To:      to,
		Current: s.resolve(s.current),
		Err:     err,
	}
	s.status = to
	s.updatedAt = time.Now()

	if s.route != nil && to == models.StatusNavigating && s.nextIndex < len(s.route.Waypoints) {
		next := s.resolve(s.route.Waypoints[s.nextIndex])
		t.Next = &next
		t.Hint = s.route.Edges[s.nextIndex-1].Hint
	}
	return t
}

func (s *Session) resolve(id models.WaypointID) models.Waypoint {
	if wp, err := s.pf.Waypoint(id); err == nil {
		return wp
	}
	return models.Waypoint{ID: id, Label: string(id)}
}

func (s *Session) emit(t Transition) {
	if s.listener != nil {
		s.listener.OnTransition(t)
	}
}

// Snapshot returns a consistent read-only copy for monitoring.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.SessionSnapshot{
		TripID:      s.tripID,
		Device:      s.device,
		Status:      s.status,
		Current:     s.current,
		Destination: s.destination,
		NextIndex:   s.nextIndex,
		Deviations:  s.deviations,
		UpdatedAt:   s.updatedAt,
	}
	if s.lastPosition != nil {
		pos := *s.lastPosition
		snap.LastPosition = &pos
	}
	if s.route != nil {
		snap.Route = append([]models.WaypointID(nil), s.route.Waypoints...)
		if hops := s.route.Hops(); hops > 0 {
			snap.RouteProgress = float64(s.nextIndex-1) / float64(hops)
		}
	}
	if s.status == models.StatusArrived {
		snap.RouteProgress = 1
	}
	return snap
}
