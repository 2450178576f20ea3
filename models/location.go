package models

import "time"

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationSample is one GPS reading for a user. Samples are retained in
// gps_logs for history; only the latest one drives geofencing.
type LocationSample struct {
	UserID    string    `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     *float64  `json:"speed,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Station struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
	Capacity int      `json:"capacity"`
	IsActive bool     `json:"is_active"`
}

// NearbyStation is a station annotated with distance from a query point.
type NearbyStation struct {
	StationID      string   `json:"station_id"`
	Name           string   `json:"name"`
	DistanceKm     float64  `json:"distance_km"`
	DistanceMeters float64  `json:"distance_meters"`
	Location       Location `json:"location"`
	Capacity       int      `json:"capacity"`
}
