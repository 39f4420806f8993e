package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
)

// PolygonRepository handles database operations for visited polygons
type PolygonRepository struct {
	db DBTX
}

// NewPolygonRepository creates a new polygon repository
func NewPolygonRepository(db DBTX) *PolygonRepository {
	return &PolygonRepository{db: db}
}

// GetPolygon retrieves the stored polygon of a user, or nil when there is none
func (r *PolygonRepository) GetPolygon(ctx context.Context, userID int64) (*models.VisitedPolygon, error) {
	var p models.VisitedPolygon
	var geometry string
	var updated int64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, geometry, last_updated FROM visited_polygons WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &geometry, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get polygon: %w", err)
	}

	p.Geometry = []byte(geometry)
	p.LastUpdated = fromMillis(updated)
	return &p, nil
}

// CreatePolygon inserts the first polygon of a user
func (r *PolygonRepository) CreatePolygon(ctx context.Context, polygon *models.VisitedPolygon) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO visited_polygons (user_id, geometry, last_updated) VALUES (?, ?, ?)`,
		polygon.UserID, string(polygon.Geometry), toMillis(polygon.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("failed to create polygon: %w", err)
	}
	return nil
}

// ReplacePolygonGeometry overwrites the stored geometry of a user
func (r *PolygonRepository) ReplacePolygonGeometry(ctx context.Context, userID int64, geometry []byte, lastUpdated time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE visited_polygons SET geometry = ?, last_updated = ? WHERE user_id = ?`,
		string(geometry), toMillis(lastUpdated), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace polygon: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to replace polygon: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("polygon for user %d does not exist", userID)
	}
	return nil
}
