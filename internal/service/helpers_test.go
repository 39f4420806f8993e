package service

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/config"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/database"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/repository"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/spatial"
)

type testEnv struct {
	db    *sql.DB
	store *repository.SQLStore
	locks *UserLocks
	zones *ZoneService
	areas *VisitedAreaService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "service.db")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationManager(db, zerolog.Nop()).RunMigrations(context.Background()))

	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	store := repository.NewSQLStore(db)
	locks := NewUserLocks()
	return &testEnv{
		db:    db,
		store: store,
		locks: locks,
		zones: NewZoneService(store, locks, cfg.ZoneRadius, nil, zerolog.Nop()),
		areas: NewVisitedAreaService(store, locks, cfg.Area, nil, zerolog.Nop()),
	}
}

func (e *testEnv) createUser(t *testing.T, name string) int64 {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), u))
	return u.ID
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// degreesNorth converts meters along a meridian to degrees of latitude
func degreesNorth(m float64) float64 {
	return m / (spatial.EarthRadiusMeters * math.Pi / 180)
}

func ping(userID int64, lat, lon float64) PingInput {
	return PingInput{UserID: userID, Latitude: lat, Longitude: lon}
}
