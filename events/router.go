// Package events normalizes raw sensor callbacks into the ordered stream of
// navigation events a session consumes. The router absorbs camera
// re-triggering (debounce), GPS noise (plausibility bound) and clock skew
// (monotonic timestamps) so the state machine only ever sees clean input.
package events

import (
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"indoor-nav-server/metrics"
	"indoor-nav-server/models"
	"indoor-nav-server/utils"
)

const (
	// movementEpsilonKm is the minimum displacement between accepted fixes
	// that counts as "the user is moving" for the timeout nudge.
	movementEpsilonKm = 0.002

	queueSize = 64
)

type Config struct {
	// DebounceWindow suppresses repeated scans of the same waypoint while
	// the camera still sees the code.
	DebounceWindow time.Duration
	// MaxSpeedKMH bounds plausible movement between consecutive GPS fixes;
	// faster samples are sensor noise.
	MaxSpeedKMH float64
	// ScanTimeout is how long the user may keep moving without a scan
	// before a re-prompt nudge is delivered. Zero disables the timer.
	ScanTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		DebounceWindow: 3 * time.Second,
		MaxSpeedKMH:    12,
		ScanTimeout:    45 * time.Second,
	}
}

// Router feeds one session. Report methods may be called from any goroutine;
// events come out strictly in acceptance order on a single channel.
type Router struct {
	cfg Config

	mu     sync.Mutex
	out    chan models.NavigationEvent
	closed bool

	lastScanID models.WaypointID
	lastScanAt time.Time

	lastPos   *models.Coordinate
	lastPosAt time.Time

	movedSinceScan bool
	idleTimer      *time.Timer
}

func NewRouter(cfg Config) *Router {
	return &Router{
		cfg: cfg,
		out: make(chan models.NavigationEvent, queueSize),
	}
}

// Events is the single-consumer queue the session pump drains.
func (r *Router) Events() <-chan models.NavigationEvent {
	return r.out
}

// ReportScan normalizes a QR decode into a WaypointScanned event. Returns
// false when the report was rejected, with the rejection reason.
func (r *Router) ReportScan(id models.WaypointID, ts time.Time) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, "closed"
	}
	if !r.lastScanAt.IsZero() && ts.Before(r.lastScanAt) {
		metrics.EventsDroppedTotal.WithLabelValues("out_of_order").Inc()
		return false, "out_of_order"
	}
	if id == r.lastScanID && ts.Sub(r.lastScanAt) < r.cfg.DebounceWindow {
		metrics.EventsDroppedTotal.WithLabelValues("debounce").Inc()
		return false, "debounce"
	}

	r.lastScanID = id
	r.lastScanAt = ts
	r.movedSinceScan = false
	r.resetIdleTimer()

	metrics.ScansAcceptedTotal.Inc()
	r.deliver(models.NavigationEvent{
		Type:      models.EventWaypointScanned,
		Waypoint:  id,
		Timestamp: ts,
	})
	return true, ""
}

// ReportPosition normalizes a GPS fix into a PositionSample event, dropping
// implausible jumps as noise.
func (r *Router) ReportPosition(lat, lon float64, ts time.Time) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, "closed"
	}
	pos := models.Coordinate{Latitude: lat, Longitude: lon}

	if r.lastPos != nil {
		elapsed := ts.Sub(r.lastPosAt)
		if elapsed <= 0 {
			metrics.EventsDroppedTotal.WithLabelValues("out_of_order").Inc()
			return false, "out_of_order"
		}
		distKm := utils.DistanceKm(*r.lastPos, pos)
		if speed := distKm / elapsed.Hours(); speed > r.cfg.MaxSpeedKMH {
			metrics.EventsDroppedTotal.WithLabelValues("implausible_speed").Inc()
			return false, "implausible_speed"
		}
		if distKm >= movementEpsilonKm {
			r.movedSinceScan = true
		}
	}

	r.lastPos = &pos
	r.lastPosAt = ts

	r.deliver(models.NavigationEvent{
		Type:      models.EventPositionSample,
		Position:  &pos,
		Timestamp: ts,
	})
	return true, ""
}

// ChooseDestination forwards a recognized destination code. The voice
// adapter retries unrecognized speech itself; whatever arrives here is
// already a syntactically valid waypoint identifier.
func (r *Router) ChooseDestination(id models.WaypointID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.deliver(models.NavigationEvent{
		Type:      models.EventDestinationChosen,
		Waypoint:  id,
		Timestamp: time.Now(),
	})
}

// Cancel forwards an explicit user cancellation.
func (r *Router) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.deliver(models.NavigationEvent{
		Type:      models.EventCancel,
		Timestamp: time.Now(),
	})
}

// Close stops the idle timer and closes the event channel, ending the pump.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.idleTimer != nil {
		r.idleTimer.Stop()
	}
	close(r.out)
}

// resetIdleTimer (re)arms the soft nudge. Callers hold the lock.
func (r *Router) resetIdleTimer() {
	if r.cfg.ScanTimeout <= 0 {
		return
	}
	if r.idleTimer != nil {
		r.idleTimer.Stop()
	}
	r.idleTimer = time.AfterFunc(r.cfg.ScanTimeout, r.idleTimerFired)
}

func (r *Router) idleTimerFired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	// Only nudge when the GPS shows the user kept moving without reaching
	// a marker; standing still is not an error.
	if r.movedSinceScan {
		r.movedSinceScan = false
		r.deliver(models.NavigationEvent{
			Type:      models.EventTimeout,
			Timestamp: time.Now(),
		})
	}
	r.idleTimer = time.AfterFunc(r.cfg.ScanTimeout, r.idleTimerFired)
}

// deliver pushes into the session queue preserving acceptance order. The
// queue is sized for bursts; if a consumer ever wedges, dropping is better
// than blocking a sensor callback. Callers hold the lock.
func (r *Router) deliver(ev models.NavigationEvent) {
	select {
	case r.out <- ev:
	default:
		log.Warnf("event queue full, dropping %s", ev.Type)
		metrics.EventsDroppedTotal.WithLabelValues("queue_full").Inc()
	}
}
