package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"indoor-nav-server/events"
	"indoor-nav-server/graph"
	"indoor-nav-server/logstream"
	"indoor-nav-server/metrics"
	"indoor-nav-server/models"
	"indoor-nav-server/session"
)

// NavigationService owns one session per device. Each device gets its own
// event router and a pump goroutine, so sensor adapters for different users
// never interfere, and each session sees its events strictly in order.
type NavigationService struct {
	graph      *graph.Graph
	listener   session.Listener
	routerCfg  events.Config
	transcript *logstream.Buffer

	mu      sync.RWMutex
	devices map[string]*deviceSession
}

type deviceSession struct {
	router *events.Router
	sess   *session.Session
	done   chan struct{}
}

func NewNavigationService(g *graph.Graph, listener session.Listener, cfg events.Config, transcript *logstream.Buffer) *NavigationService {
	return &NavigationService{
		graph:      g,
		listener:   listener,
		routerCfg:  cfg,
		transcript: transcript,
		devices:    make(map[string]*deviceSession),
	}
}

// sessionFor returns the runtime for a device, creating it on first contact.
func (ns *NavigationService) sessionFor(device string) *deviceSession {
	ns.mu.RLock()
	ds, ok := ns.devices[device]
	ns.mu.RUnlock()
	if ok {
		return ds
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ds, ok = ns.devices[device]; ok {
		return ds
	}

	ds = &deviceSession{
		router: events.NewRouter(ns.routerCfg),
		sess:   session.New(device, ns.graph, ns.listener),
		done:   make(chan struct{}),
	}
	ns.devices[device] = ds
	metrics.ActiveSessions.Inc()
	ns.logf("[System] Session started for device %s.", device)

	go func() {
		for ev := range ds.router.Events() {
			ds.sess.Handle(ev)
		}
		close(ds.done)
	}()

	return ds
}

// ReportScan feeds a decoded QR code into the device's router.
func (ns *NavigationService) ReportScan(device string, id models.WaypointID, ts time.Time) (bool, string) {
	return ns.sessionFor(device).router.ReportScan(id, ts)
}

// ReportPosition feeds a GPS fix into the device's router.
func (ns *NavigationService) ReportPosition(device string, lat, lon float64, ts time.Time) (bool, string) {
	return ns.sessionFor(device).router.ReportPosition(lat, lon, ts)
}

// ChooseDestination feeds a recognized destination code.
func (ns *NavigationService) ChooseDestination(device string, id models.WaypointID) {
	ns.sessionFor(device).router.ChooseDestination(id)
}

// Cancel aborts the device's current trip.
func (ns *NavigationService) Cancel(device string) {
	ns.sessionFor(device).router.Cancel()
}

// Snapshot returns the monitoring view of one device's session.
func (ns *NavigationService) Snapshot(device string) (models.SessionSnapshot, bool) {
	ns.mu.RLock()
	ds, ok := ns.devices[device]
	ns.mu.RUnlock()
	if !ok {
		return models.SessionSnapshot{}, false
	}
	return ds.sess.Snapshot(), true
}

// Snapshots returns every registered session, ordered by device for stable
// output.
func (ns *NavigationService) Snapshots() []models.SessionSnapshot {
	ns.mu.RLock()
	out := make([]models.SessionSnapshot, 0, len(ns.devices))
	for _, ds := range ns.devices {
		out = append(out, ds.sess.Snapshot())
	}
	ns.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}

// Shutdown closes every router and waits for the pumps to drain.
func (ns *NavigationService) Shutdown() {
	ns.mu.Lock()
	devices := ns.devices
	ns.devices = make(map[string]*deviceSession)
	ns.mu.Unlock()

	for device, ds := range devices {
		ds.router.Close()
		<-ds.done
		metrics.ActiveSessions.Dec()
		log.Infof("session pump for %s stopped", device)
	}
}

func (ns *NavigationService) logf(format string, args ...interface{}) {
	log.Infof(format, args...)
	if ns.transcript != nil {
		ns.transcript.Append(fmt.Sprintf(format, args...))
	}
}
