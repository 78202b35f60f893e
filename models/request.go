package models

import "time"

// ScanRequest is pushed by the camera adapter whenever a QR code is decoded.
// Timestamps come from the adapter's monotonic clock; the router drops
// out-of-order reports.
type ScanRequest struct {
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// PositionRequest is pushed by the GPS adapter for every parsed NMEA fix.
type PositionRequest struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// DestinationRequest is pushed by the voice-command adapter once a spoken
// destination code has been recognized. Unrecognized speech is retried by the
// adapter and never reaches the server.
type DestinationRequest struct {
	Code string `json:"code"`
}
