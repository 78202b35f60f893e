package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"indoor-nav-server/models"
	"indoor-nav-server/services"
	"indoor-nav-server/utils"
)

// IngestHandler is the surface the sensor adapter processes push into: the
// camera posts decoded QR codes, the GPS reader posts fixes, the voice
// adapter posts recognized destination codes and cancellations.
type IngestHandler struct {
	nav *services.NavigationService
}

func NewIngestHandler(nav *services.NavigationService) *IngestHandler {
	return &IngestHandler{nav: nav}
}

func (h *IngestHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/devices/{device}/scan", h.Scan).Methods("POST")
	router.HandleFunc("/api/devices/{device}/position", h.Position).Methods("POST")
	router.HandleFunc("/api/devices/{device}/destination", h.Destination).Methods("POST")
	router.HandleFunc("/api/devices/{device}/cancel", h.Cancel).Methods("POST")
}

func (h *IngestHandler) Scan(w http.ResponseWriter, r *http.Request) {
	device := mux.Vars(r)["device"]

	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := utils.ParseWaypointID(req.Code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	accepted, reason := h.nav.ReportScan(device, id, ts)
	writeJSON(w, models.IngestResponse{Accepted: accepted, Reason: reason})
}

func (h *IngestHandler) Position(w http.ResponseWriter, r *http.Request) {
	device := mux.Vars(r)["device"]

	var req models.PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	accepted, reason := h.nav.ReportPosition(device, req.Latitude, req.Longitude, ts)
	writeJSON(w, models.IngestResponse{Accepted: accepted, Reason: reason})
}

func (h *IngestHandler) Destination(w http.ResponseWriter, r *http.Request) {
	device := mux.Vars(r)["device"]

	var req models.DestinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// The voice adapter retries unintelligible speech on its own; a code
	// that does not even parse is its problem, not a session event.
	id, err := utils.ParseWaypointID(req.Code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.nav.ChooseDestination(device, id)
	writeJSON(w, models.IngestResponse{Accepted: true})
}

func (h *IngestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	device := mux.Vars(r)["device"]
	h.nav.Cancel(device)
	writeJSON(w, models.IngestResponse{Accepted: true})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
