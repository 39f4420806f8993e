package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	m := NewMigrationManager(db, zerolog.Nop())

	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.RunMigrations(ctx))

	applied, err := m.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.True(t, applied[1])

	for _, table := range []string{"users", "user_locations", "visited_zones", "visited_polygons"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestOpen_EnablesForeignKeys(t *testing.T) {
	db := openTestDB(t)

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = Transaction(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 0, count)

	require.NoError(t, Transaction(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (id) VALUES (2)")
		return err
	}))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestTransaction_RollsBackOnPanic(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = Transaction(context.Background(), db, func(tx *sql.Tx) error {
			if _, err := tx.Exec("INSERT INTO items (id) VALUES (1)"); err != nil {
				return err
			}
			panic("boom")
		})
	})

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 0, count)
}
