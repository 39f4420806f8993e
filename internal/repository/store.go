package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/database"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
)

// DBTX is the query surface shared by *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is the storage surface available inside one unit of work
type Tx interface {
	UserExists(ctx context.Context, userID int64) (bool, error)

	InsertLocation(ctx context.Context, ping *models.LocationPing) error

	ListZones(ctx context.Context, userID int64) ([]models.VisitedZone, error)
	CreateZone(ctx context.Context, zone *models.VisitedZone) error
	UpdateZoneVisit(ctx context.Context, zoneID int64, visitCount int, lastVisited time.Time) error

	GetPolygon(ctx context.Context, userID int64) (*models.VisitedPolygon, error)
	CreatePolygon(ctx context.Context, polygon *models.VisitedPolygon) error
	ReplacePolygonGeometry(ctx context.Context, userID int64, geometry []byte, lastUpdated time.Time) error
}

// Store hands out scoped units of work. fn runs inside one transaction that is
// committed when fn returns nil and rolled back on every other exit path.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// SQLStore implements Store on a SQL database
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQL-backed store
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// WithTx runs fn inside a database transaction
func (s *SQLStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	return database.Transaction(ctx, s.db, func(tx *sql.Tx) error {
		return fn(newSQLTx(tx))
	})
}

// Users returns a user repository outside of any transaction
func (s *SQLStore) Users() *UserRepository {
	return NewUserRepository(s.db)
}

type sqlTx struct {
	*UserRepository
	*LocationRepository
	*ZoneRepository
	*PolygonRepository
}

func newSQLTx(q DBTX) *sqlTx {
	return &sqlTx{
		UserRepository:     NewUserRepository(q),
		LocationRepository: NewLocationRepository(q),
		ZoneRepository:     NewZoneRepository(q),
		PolygonRepository:  NewPolygonRepository(q),
	}
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
