package models

import (
	"encoding/json"
	"time"
)

// VisitedPolygon is the stored visited area of a user, at most one per user.
// Geometry is a GeoJSON FeatureCollection of exterior-only polygons.
type VisitedPolygon struct {
	UserID      int64     `json:"user_id" db:"user_id"`
	Geometry    []byte    `json:"-" db:"geometry"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// VisitedAreaResponse is the public view of a visited area
type VisitedAreaResponse struct {
	UserID           int64           `json:"user_id,omitempty"`
	LastUpdated      *time.Time      `json:"last_updated,omitempty"`
	Components       int             `json:"components"`
	AreaSquareMeters float64         `json:"area_m2"`
	Centroids        []Position      `json:"centroids"`
	Geometry         json.RawMessage `json:"geometry"`
}

// Position is a latitude/longitude pair in a response body
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
