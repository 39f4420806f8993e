package repository

import (
	"context"
	"fmt"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
)

// LocationRepository handles the append-only ping log
type LocationRepository struct {
	db DBTX
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db DBTX) *LocationRepository {
	return &LocationRepository{db: db}
}

// InsertLocation appends a ping and sets its ID
func (r *LocationRepository) InsertLocation(ctx context.Context, ping *models.LocationPing) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_locations (user_id, latitude, longitude, altitude, timestamp) VALUES (?, ?, ?, ?, ?)`,
		ping.UserID, ping.Latitude, ping.Longitude, ping.Altitude, toMillis(ping.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read location id: %w", err)
	}
	ping.ID = id
	return nil
}

// ListLocations returns a user's pings in ingestion order
func (r *LocationRepository) ListLocations(ctx context.Context, userID int64) ([]models.LocationPing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, latitude, longitude, altitude, timestamp FROM user_locations WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var pings []models.LocationPing
	for rows.Next() {
		var p models.LocationPing
		var ts int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Latitude, &p.Longitude, &p.Altitude, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		p.Timestamp = fromMillis(ts)
		pings = append(pings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}

	return pings, nil
}
