package models

import "time"

// LocationPing is one raw GPS fix reported by a user. Pings are append-only.
type LocationPing struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty" db:"altitude"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// AddLocationRequest is the body of a single ping ingestion
type AddLocationRequest struct {
	UserID    int64    `json:"user_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Altitude  *float64 `json:"altitude"`
}

// BatchLocation is one entry of a batch ingestion
type BatchLocation struct {
	UserID    int64      `json:"user_id" binding:"required"`
	Latitude  *float64   `json:"latitude" binding:"required"`
	Longitude *float64   `json:"longitude" binding:"required"`
	Altitude  *float64   `json:"altitude"`
	Timestamp *time.Time `json:"timestamp"` // ingestion time when absent
}

// AddLocationsRequest is the body of a batch ingestion. Entries are applied in list order.
type AddLocationsRequest struct {
	Locations []BatchLocation `json:"locations" binding:"required,min=1,dive"`
}

// AddLocationResponse reports the stored ping and the zone it landed in
type AddLocationResponse struct {
	Message     string    `json:"message"`
	LocationID  int64     `json:"location_id"`
	Timestamp   time.Time `json:"timestamp"`
	ZoneID      int64     `json:"zone_id"`
	ZoneCreated bool      `json:"zone_created"`
	VisitCount  int       `json:"visit_count"`
}

// Coordinate is a bare latitude/longitude pair in a request body
type Coordinate struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// PointsRequest carries new points for extend and preview operations
type PointsRequest struct {
	Points []Coordinate `json:"points" binding:"required,min=1,dive"`
}
