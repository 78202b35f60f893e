package models

// IngestResponse acknowledges a sensor report. Accepted=false means the
// report was rejected by the event router (debounce, implausible movement,
// out-of-order timestamp) and no navigation event was produced.
type IngestResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// GPSStatus mirrors the monitoring payload of the original /gps endpoint:
// the latest accepted fix for a device, or a waiting message before the
// first one arrives.
type GPSStatus struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Status    string   `json:"status"`
}
