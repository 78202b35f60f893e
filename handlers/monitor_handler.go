package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"indoor-nav-server/logstream"
	"indoor-nav-server/models"
	"indoor-nav-server/services"
)

// MonitorHandler serves the read-only web monitoring surface: session
// snapshots, the latest GPS fix, the live transcript, and metrics. It never
// writes into a session.
type MonitorHandler struct {
	nav        *services.NavigationService
	transcript *logstream.Buffer
	upgrader   websocket.Upgrader
}

func NewMonitorHandler(nav *services.NavigationService, transcript *logstream.Buffer) *MonitorHandler {
	return &MonitorHandler{
		nav:        nav,
		transcript: transcript,
		upgrader: websocket.Upgrader{
			// The dashboard is served from another origin; the CORS layer
			// already allows it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *MonitorHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/gps", h.GPS)
	r.GET("/api/sessions", h.Sessions)
	r.GET("/api/sessions/:device", h.SessionByDevice)
	r.GET("/logs", h.Logs)
	r.GET("/ws", h.Live)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *MonitorHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GPS mirrors the original monitoring endpoint: the latest accepted fix for
// a device, or a waiting message before the first one.
func (h *MonitorHandler) GPS(c *gin.Context) {
	device := c.Query("device")

	var pos *models.Coordinate
	if device != "" {
		if snap, ok := h.nav.Snapshot(device); ok {
			pos = snap.LastPosition
		}
	} else if snaps := h.nav.Snapshots(); len(snaps) == 1 {
		pos = snaps[0].LastPosition
	}

	status := models.GPSStatus{Status: "Waiting for GPS fix..."}
	if pos != nil {
		status.Latitude = &pos.Latitude
		status.Longitude = &pos.Longitude
		status.Status = "GPS fix acquired"
	}
	c.JSON(http.StatusOK, status)
}

func (h *MonitorHandler) Sessions(c *gin.Context) {
	snaps := h.nav.Snapshots()
	c.JSON(http.StatusOK, gin.H{
		"sessions": snaps,
		"count":    len(snaps),
	})
}

func (h *MonitorHandler) SessionByDevice(c *gin.Context) {
	snap, ok := h.nav.Snapshot(c.Param("device"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Logs streams the transcript over Server-Sent Events: the retained history
// first, then live lines as they arrive.
func (h *MonitorHandler) Logs(c *gin.Context) {
	live, cancel := h.transcript.Subscribe()
	defer cancel()

	for _, line := range h.transcript.Lines() {
		c.SSEvent("message", line)
	}
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case line, ok := <-live:
			if !ok {
				return false
			}
			c.SSEvent("message", line)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Live pushes session snapshots over a websocket once a second until the
// client goes away.
func (h *MonitorHandler) Live(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		// Drain control frames and detect disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(h.nav.Snapshots()); err != nil {
				return
			}
		}
	}
}
