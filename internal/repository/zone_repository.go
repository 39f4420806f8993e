package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
)

// ZoneRepository handles database operations for visited zones
type ZoneRepository struct {
	db DBTX
}

// NewZoneRepository creates a new zone repository
func NewZoneRepository(db DBTX) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// ListZones returns all zones of a user in creation order
func (r *ZoneRepository) ListZones(ctx context.Context, userID int64) ([]models.VisitedZone, error) {
	query := `SELECT id, user_id, center_lat, center_lon, radius, visit_count, first_visited, last_visited
		FROM visited_zones WHERE user_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	var zones []models.VisitedZone
	for rows.Next() {
		var z models.VisitedZone
		var first, last int64
		err := rows.Scan(&z.ID, &z.UserID, &z.CenterLat, &z.CenterLon, &z.Radius, &z.VisitCount, &first, &last)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		z.FirstVisited = fromMillis(first)
		z.LastVisited = fromMillis(last)
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zones: %w", err)
	}

	return zones, nil
}

// CreateZone inserts a zone and sets its ID
func (r *ZoneRepository) CreateZone(ctx context.Context, zone *models.VisitedZone) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO visited_zones (user_id, center_lat, center_lon, radius, visit_count, first_visited, last_visited)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		zone.UserID, zone.CenterLat, zone.CenterLon, zone.Radius, zone.VisitCount,
		toMillis(zone.FirstVisited), toMillis(zone.LastVisited),
	)
	if err != nil {
		return fmt.Errorf("failed to create zone: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read zone id: %w", err)
	}
	zone.ID = id
	return nil
}

// UpdateZoneVisit records a new visit. Center and radius are never changed.
func (r *ZoneRepository) UpdateZoneVisit(ctx context.Context, zoneID int64, visitCount int, lastVisited time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE visited_zones SET visit_count = ?, last_visited = ? WHERE id = ?`,
		visitCount, toMillis(lastVisited), zoneID,
	)
	if err != nil {
		return fmt.Errorf("failed to update zone %d: %w", zoneID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update zone %d: %w", zoneID, err)
	}
	if n == 0 {
		return fmt.Errorf("zone %d does not exist", zoneID)
	}
	return nil
}
