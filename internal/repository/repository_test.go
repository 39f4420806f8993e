package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/database"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
)

func newTestStore(t *testing.T) (*SQLStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "repo.db")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationManager(db, zerolog.Nop()).RunMigrations(context.Background()))
	return NewSQLStore(db), db
}

func createUser(t *testing.T, s *SQLStore, name string) int64 {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u.ID
}

func TestUserRepository_Exists(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := createUser(t, s, "alice")

	ok, err := s.Users().UserExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Users().UserExists(ctx, id+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestZoneRepository_CreateListUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	userID := createUser(t, s, "bob")
	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := s.WithTx(ctx, func(tx Tx) error {
		for i, lat := range []float64{52.52, 52.53} {
			z := &models.VisitedZone{
				UserID: userID, CenterLat: lat, CenterLon: 13.405, Radius: 5,
				VisitCount: 1, FirstVisited: first.Add(time.Duration(i) * time.Minute), LastVisited: first,
			}
			if err := tx.CreateZone(ctx, z); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var zones []models.VisitedZone
	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		var err error
		zones, err = tx.ListZones(ctx, userID)
		return err
	}))
	require.Len(t, zones, 2)
	assert.Equal(t, 52.52, zones[0].CenterLat)
	assert.Less(t, zones[0].ID, zones[1].ID)
	assert.Equal(t, first, zones[0].FirstVisited)

	later := first.Add(time.Hour)
	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		return tx.UpdateZoneVisit(ctx, zones[1].ID, 2, later)
	}))
	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		var err error
		zones, err = tx.ListZones(ctx, userID)
		return err
	}))
	assert.Equal(t, 2, zones[1].VisitCount)
	assert.Equal(t, later, zones[1].LastVisited)
	assert.Equal(t, 52.53, zones[1].CenterLat)

	err = s.WithTx(ctx, func(tx Tx) error { return tx.UpdateZoneVisit(ctx, 9999, 2, later) })
	assert.Error(t, err)
}

func TestPolygonRepository_CreateAndReplace(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	userID := createUser(t, s, "carol")
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		p, err := tx.GetPolygon(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, p)
		return tx.CreatePolygon(ctx, &models.VisitedPolygon{UserID: userID, Geometry: []byte(`{"a":1}`), LastUpdated: now})
	}))

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		return tx.ReplacePolygonGeometry(ctx, userID, []byte(`{"b":2}`), now.Add(time.Second))
	}))

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		p, err := tx.GetPolygon(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.JSONEq(t, `{"b":2}`, string(p.Geometry))
		assert.Equal(t, now.Add(time.Second), p.LastUpdated)
		return nil
	}))

	err := s.WithTx(ctx, func(tx Tx) error { return tx.ReplacePolygonGeometry(ctx, userID+1, []byte(`{}`), now) })
	assert.Error(t, err)
}

func TestStore_WithTxRollsBackEveryWrite(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	userID := createUser(t, s, "dave")
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx Tx) error {
		alt := 34.5
		if err := tx.InsertLocation(ctx, &models.LocationPing{UserID: userID, Latitude: 1, Longitude: 2, Altitude: &alt, Timestamp: time.Now()}); err != nil {
			return err
		}
		if err := tx.CreateZone(ctx, &models.VisitedZone{UserID: userID, CenterLat: 1, CenterLon: 2, Radius: 5, VisitCount: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM user_locations").Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM visited_zones").Scan(&n))
	assert.Zero(t, n)
}

func TestLocationRepository_KeepsOrderAndAltitude(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	userID := createUser(t, s, "erin")
	alt := 120.0
	ts := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertLocation(ctx, &models.LocationPing{UserID: userID, Latitude: 10, Longitude: 20, Altitude: &alt, Timestamp: ts}); err != nil {
			return err
		}
		return tx.InsertLocation(ctx, &models.LocationPing{UserID: userID, Latitude: 11, Longitude: 21, Timestamp: ts})
	}))

	pings, err := NewLocationRepository(db).ListLocations(ctx, userID)
	require.NoError(t, err)
	require.Len(t, pings, 2)
	require.NotNil(t, pings[0].Altitude)
	assert.Equal(t, alt, *pings[0].Altitude)
	assert.Nil(t, pings[1].Altitude)
	assert.Equal(t, ts, pings[0].Timestamp)
}

func TestSchema_DeletingUserCascades(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	userID := createUser(t, s, "frank")

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		return tx.CreateZone(ctx, &models.VisitedZone{UserID: userID, CenterLat: 1, CenterLon: 2, Radius: 5, VisitCount: 1})
	}))
	_, err := db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM visited_zones").Scan(&n))
	assert.Zero(t, n)
}
