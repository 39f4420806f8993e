package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/repository"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/spatial"
)

// PingInput is one location fix to ingest. Timestamp defaults to ingestion time.
type PingInput struct {
	UserID    int64
	Latitude  float64
	Longitude float64
	Altitude  *float64
	Timestamp *time.Time
}

func (in PingInput) point() spatial.Point {
	return spatial.Point{Lat: in.Latitude, Lon: in.Longitude}
}

func (in PingInput) validate() error {
	if err := in.point().Validate(); err != nil {
		return err
	}
	if in.Altitude != nil && (math.IsNaN(*in.Altitude) || math.IsInf(*in.Altitude, 0)) {
		return fmt.Errorf("%w: non-finite altitude", ErrInvalidInput)
	}
	return nil
}

// MatchResult reports where a ping landed
type MatchResult struct {
	Zone       models.VisitedZone
	Created    bool
	LocationID int64
	Timestamp  time.Time
}

// ZoneService matches pings against visited zones
type ZoneService struct {
	store   repository.Store
	locks   *UserLocks
	radius  float64
	metrics MetricsRecorder
	logger  zerolog.Logger
	now     func() time.Time
}

// NewZoneService creates a new zone service. radius is the match radius of new zones.
func NewZoneService(store repository.Store, locks *UserLocks, radius float64, metrics MetricsRecorder, logger zerolog.Logger) *ZoneService {
	if radius <= 0 {
		radius = models.DefaultZoneRadius
	}
	return &ZoneService{
		store:   store,
		locks:   locks,
		radius:  radius,
		metrics: metricsOrNoop(metrics),
		logger:  logger.With().Str("component", "zones").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// MatchOrCreate logs a ping and assigns it to the first zone whose center lies
// within that zone's radius, creating a new zone when none does.
func (s *ZoneService) MatchOrCreate(ctx context.Context, in PingInput) (*MatchResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.UserID)
	defer unlock()

	var result *MatchResult
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := requireUser(ctx, tx, in.UserID); err != nil {
			return err
		}

		var err error
		result, err = s.apply(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(in.UserID, result)
	return result, nil
}

// IngestBatch applies MatchOrCreate to every entry in list order inside one
// transaction. Zones created by earlier entries are visible to later ones.
// Nothing is written when any entry is invalid or names an unknown user.
func (s *ZoneService) IngestBatch(ctx context.Context, pings []PingInput) ([]MatchResult, error) {
	if len(pings) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidInput)
	}
	userIDs := make([]int64, len(pings))
	for i, in := range pings {
		if err := in.validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		userIDs[i] = in.UserID
	}

	unlock := s.locks.LockAll(userIDs)
	defer unlock()

	results := make([]MatchResult, 0, len(pings))
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		checked := make(map[int64]bool)
		for _, id := range userIDs {
			if checked[id] {
				continue
			}
			if err := requireUser(ctx, tx, id); err != nil {
				return err
			}
			checked[id] = true
		}

		for i, in := range pings {
			r, err := s.apply(ctx, tx, in)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			results = append(results, *r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range results {
		s.record(pings[i].UserID, &results[i])
	}
	return results, nil
}

// ListZones returns the zones of a user in creation order
func (s *ZoneService) ListZones(ctx context.Context, userID int64) ([]models.VisitedZone, error) {
	var zones []models.VisitedZone
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		zones, err = tx.ListZones(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if zones == nil {
		zones = []models.VisitedZone{}
	}
	return zones, nil
}

// apply runs one match decision against the zone set as it currently stands
// in tx. The caller holds the user's lock.
func (s *ZoneService) apply(ctx context.Context, tx repository.Tx, in PingInput) (*MatchResult, error) {
	ts := s.now()
	if in.Timestamp != nil {
		ts = in.Timestamp.UTC()
	}
	// storage keeps millisecond precision
	ts = ts.Truncate(time.Millisecond)

	ping := &models.LocationPing{
		UserID:    in.UserID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Altitude:  in.Altitude,
		Timestamp: ts,
	}
	if err := tx.InsertLocation(ctx, ping); err != nil {
		return nil, err
	}

	zones, err := tx.ListZones(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	for _, z := range zones {
		d := spatial.HaversineDistance(z.CenterLat, z.CenterLon, in.Latitude, in.Longitude)
		if d > z.Radius {
			continue
		}
		z.VisitCount++
		z.LastVisited = ts
		if err := tx.UpdateZoneVisit(ctx, z.ID, z.VisitCount, z.LastVisited); err != nil {
			return nil, err
		}
		return &MatchResult{Zone: z, LocationID: ping.ID, Timestamp: ts}, nil
	}

	zone := models.VisitedZone{
		UserID:       in.UserID,
		CenterLat:    in.Latitude,
		CenterLon:    in.Longitude,
		Radius:       s.radius,
		VisitCount:   1,
		FirstVisited: ts,
		LastVisited:  ts,
	}
	if err := tx.CreateZone(ctx, &zone); err != nil {
		return nil, err
	}
	return &MatchResult{Zone: zone, Created: true, LocationID: ping.ID, Timestamp: ts}, nil
}

func (s *ZoneService) record(userID int64, r *MatchResult) {
	result := "matched"
	if r.Created {
		result = "created"
	}
	s.metrics.ObserveZonePing(result)
	s.logger.Debug().
		Int64("user_id", userID).
		Int64("zone_id", r.Zone.ID).
		Int("visit_count", r.Zone.VisitCount).
		Str("result", result).
		Msg("ping assigned to zone")
}
