package service

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/config"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/repository"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/spatial"
)

// VisitedArea is a built or stored visited area. Polygons carry exterior rings only.
type VisitedArea struct {
	UserID      int64
	Kind        spatial.UnionKind
	Polygons    []orb.Polygon
	Geometry    []byte // GeoJSON FeatureCollection
	LastUpdated time.Time
}

// Components returns the number of disjoint polygons
func (a *VisitedArea) Components() int {
	return len(a.Polygons)
}

// AreaSquareMeters returns the approximate covered area
func (a *VisitedArea) AreaSquareMeters() float64 {
	return spatial.AreaSquareMeters(a.Polygons)
}

// Centroids returns the vertex centroid of each component's exterior ring
func (a *VisitedArea) Centroids() []spatial.Point {
	centroids := make([]spatial.Point, 0, len(a.Polygons))
	for _, poly := range a.Polygons {
		if len(poly) == 0 || len(poly[0]) < 2 {
			continue
		}
		ring := poly[0]
		vertices := make([]spatial.Point, 0, len(ring)-1)
		for _, pt := range ring[:len(ring)-1] {
			vertices = append(vertices, spatial.Point{Lat: pt[1], Lon: pt[0]})
		}
		centroids = append(centroids, spatial.Centroid(vertices))
	}
	return centroids
}

// VisitedAreaService maintains the per-user visited-area polygon
type VisitedAreaService struct {
	store   repository.Store
	locks   *UserLocks
	area    config.AreaConfig
	metrics MetricsRecorder
	logger  zerolog.Logger
	now     func() time.Time
}

// NewVisitedAreaService creates a new visited-area service
func NewVisitedAreaService(store repository.Store, locks *UserLocks, area config.AreaConfig, metrics MetricsRecorder, logger zerolog.Logger) *VisitedAreaService {
	return &VisitedAreaService{
		store:   store,
		locks:   locks,
		area:    area,
		metrics: metricsOrNoop(metrics),
		logger:  logger.With().Str("component", "visited_area").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Rebuild recomputes the visited area from all zones of the user and replaces
// the stored polygon.
func (s *VisitedAreaService) Rebuild(ctx context.Context, userID int64) (*VisitedArea, error) {
	return s.rebuild(ctx, userID, s.area.Rebuild)
}

// RebuildDetailed is Rebuild with the finer detail profile. Its output is not
// interchangeable with Rebuild's.
func (s *VisitedAreaService) RebuildDetailed(ctx context.Context, userID int64) (*VisitedArea, error) {
	return s.rebuild(ctx, userID, s.area.RebuildDetail)
}

func (s *VisitedAreaService) rebuild(ctx context.Context, userID int64, profile config.AreaProfile) (*VisitedArea, error) {
	start := time.Now()

	unlock := s.locks.Lock(userID)
	defer unlock()

	var area *VisitedArea
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		zones, err := tx.ListZones(ctx, userID)
		if err != nil {
			return err
		}
		if len(zones) == 0 {
			return fmt.Errorf("no zones for user %d: %w", userID, ErrNotFound)
		}

		centers := make([]spatial.Point, len(zones))
		for i, z := range zones {
			centers[i] = spatial.Point{Lat: z.CenterLat, Lon: z.CenterLon}
		}
		shapes, err := buildShapes(centers, profile)
		if err != nil {
			return err
		}
		merged, err := spatial.Union(shapes)
		if err != nil {
			return err
		}

		area, err = s.persist(ctx, tx, userID, merged)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.observe(profile.Name, userID, start, area)
	return area, nil
}

// Extend clusters and buffers new points as circles and unions them into the
// stored polygon, creating it when absent.
func (s *VisitedAreaService) Extend(ctx context.Context, userID int64, points []spatial.Point) (*VisitedArea, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: at least one point is required", ErrInvalidInput)
	}
	return s.extend(ctx, userID, points, s.area.Extend)
}

// ExtendRoute buffers each cluster of the ordered points as a path and unions
// the ribbons into the stored polygon. Clusters with a single point contribute nothing.
func (s *VisitedAreaService) ExtendRoute(ctx context.Context, userID int64, points []spatial.Point) (*VisitedArea, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: route needs at least 2 points, got %d", ErrInvalidInput, len(points))
	}
	return s.extend(ctx, userID, points, s.area.ExtendRoute)
}

func (s *VisitedAreaService) extend(ctx context.Context, userID int64, points []spatial.Point, profile config.AreaProfile) (*VisitedArea, error) {
	start := time.Now()

	// new geometry depends only on the request, so bad input fails before storage is touched
	fresh, err := buildShapes(points, profile)
	if err != nil {
		return nil, err
	}
	if len(fresh) == 0 {
		return nil, fmt.Errorf("%w: no cluster has enough points to buffer", ErrInvalidInput)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var area *VisitedArea
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		stored, err := tx.GetPolygon(ctx, userID)
		if err != nil {
			return err
		}

		shapes := fresh
		if stored != nil {
			existing, err := spatial.DecodeFeatureCollection(stored.Geometry)
			if err != nil {
				return fmt.Errorf("failed to decode stored polygon of user %d: %w", userID, err)
			}
			shapes = append(existing, fresh...)
		}

		merged, err := spatial.Union(shapes)
		if err != nil {
			return err
		}

		area, err = s.persist(ctx, tx, userID, merged)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.observe(profile.Name, userID, start, area)
	return area, nil
}

// Preview runs clustering, buffering and union over arbitrary points without
// touching storage.
func (s *VisitedAreaService) Preview(ctx context.Context, points []spatial.Point) (*VisitedArea, error) {
	start := time.Now()
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: at least one point is required", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shapes, err := buildShapes(points, s.area.Preview)
	if err != nil {
		return nil, err
	}
	merged, err := spatial.Union(shapes)
	if err != nil {
		return nil, err
	}
	area, err := newVisitedArea(merged)
	if err != nil {
		return nil, err
	}
	area.LastUpdated = s.now()

	s.observe(s.area.Preview.Name, 0, start, area)
	return area, nil
}

// Get returns the stored visited area of a user
func (s *VisitedAreaService) Get(ctx context.Context, userID int64) (*VisitedArea, error) {
	var stored *models.VisitedPolygon
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		stored, err = tx.GetPolygon(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("no visited area for user %d: %w", userID, ErrNotFound)
	}

	polygons, err := spatial.DecodeFeatureCollection(stored.Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored polygon of user %d: %w", userID, err)
	}
	kind := spatial.MultiplePolygons
	if len(polygons) == 1 {
		kind = spatial.SinglePolygon
	}
	return &VisitedArea{
		UserID:      userID,
		Kind:        kind,
		Polygons:    polygons,
		Geometry:    stored.Geometry,
		LastUpdated: stored.LastUpdated,
	}, nil
}

// persist writes the merged area as the user's polygon, creating or replacing it
func (s *VisitedAreaService) persist(ctx context.Context, tx repository.Tx, userID int64, merged spatial.UnionResult) (*VisitedArea, error) {
	area, err := newVisitedArea(merged)
	if err != nil {
		return nil, err
	}
	area.UserID = userID
	area.LastUpdated = s.now().Truncate(time.Millisecond)

	stored, err := tx.GetPolygon(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		err = tx.CreatePolygon(ctx, &models.VisitedPolygon{
			UserID:      userID,
			Geometry:    area.Geometry,
			LastUpdated: area.LastUpdated,
		})
	} else {
		err = tx.ReplacePolygonGeometry(ctx, userID, area.Geometry, area.LastUpdated)
	}
	if err != nil {
		return nil, err
	}
	return area, nil
}

func (s *VisitedAreaService) observe(mode string, userID int64, start time.Time, area *VisitedArea) {
	elapsed := time.Since(start)
	s.metrics.ObserveRecompute(mode, elapsed, area.Components())
	s.logger.Info().
		Str("mode", mode).
		Int64("user_id", userID).
		Int("components", area.Components()).
		Dur("elapsed", elapsed).
		Msg("visited area built")
}

func newVisitedArea(merged spatial.UnionResult) (*VisitedArea, error) {
	var polygons []orb.Polygon
	switch merged.Kind {
	case spatial.SinglePolygon:
		p, _ := merged.Single()
		polygons = []orb.Polygon{p}
	case spatial.MultiplePolygons:
		polygons, _ = merged.Multiple()
	default:
		return nil, fmt.Errorf("%w: empty union result", ErrInvalidInput)
	}

	geometry, err := spatial.EncodeFeatureCollection(polygons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode visited area: %w", err)
	}
	return &VisitedArea{Kind: merged.Kind, Polygons: polygons, Geometry: geometry}, nil
}

// buildShapes clusters points and buffers every cluster with the profile's strategy
func buildShapes(points []spatial.Point, profile config.AreaProfile) ([]orb.Polygon, error) {
	switch profile.Strategy {
	case config.StrategyRoute:
		clusters, err := spatial.ClusterRoutePoints(points, profile.ClusterDistance)
		if err != nil {
			return nil, err
		}
		var shapes []orb.Polygon
		for _, c := range clusters {
			if len(c) < 2 {
				continue
			}
			ribbon, err := spatial.RouteBuffer(c, profile.BufferRadius, profile.Resolution)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, ribbon)
		}
		return shapes, nil

	case config.StrategyCircles, "":
		clusters, err := spatial.ClusterPoints(points, profile.ClusterDistance)
		if err != nil {
			return nil, err
		}
		var shapes []orb.Polygon
		for _, c := range clusters {
			buffers, err := spatial.BufferPoints(c, profile.BufferRadius, profile.Resolution)
			if err != nil {
				return nil, err
			}
			merged, err := spatial.Union(buffers)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, merged.Components()...)
		}
		return shapes, nil

	default:
		return nil, fmt.Errorf("%w: unknown buffer strategy %q", ErrInvalidInput, profile.Strategy)
	}
}

func requireUser(ctx context.Context, tx repository.Tx, userID int64) error {
	exists, err := tx.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}
