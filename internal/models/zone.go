package models

import "time"

// DefaultZoneRadius is the match radius of a new zone in meters
const DefaultZoneRadius = 5.0

// VisitedZone is a circular region around a previously visited point.
// The radius is fixed at creation. Zones may overlap.
type VisitedZone struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	CenterLat    float64   `json:"center_lat" db:"center_lat"`
	CenterLon    float64   `json:"center_lon" db:"center_lon"`
	Radius       float64   `json:"radius" db:"radius"`
	VisitCount   int       `json:"visit_count" db:"visit_count"`
	FirstVisited time.Time `json:"first_visited" db:"first_visited"`
	LastVisited  time.Time `json:"last_visited" db:"last_visited"`
}

// ZoneResponse is the public view of a zone
type ZoneResponse struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Radius      float64   `json:"radius"`
	VisitCount  int       `json:"visit_count"`
	LastVisited time.Time `json:"last_visited"`
}

// ToResponse converts a zone to its public view
func (z VisitedZone) ToResponse() ZoneResponse {
	return ZoneResponse{
		Latitude:    z.CenterLat,
		Longitude:   z.CenterLon,
		Radius:      z.Radius,
		VisitCount:  z.VisitCount,
		LastVisited: z.LastVisited,
	}
}
