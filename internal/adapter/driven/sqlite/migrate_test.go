package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupBareDB opens a shared in-memory database without running migrations,
// for tests that need to control the starting schema version themselves.
func setupBareDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape(t.Name()),
	)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, db.PingContext(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// migrateTo brings a bare database to an exact historical schema version.
func migrateTo(t *testing.T, db *sql.DB, version uint) {
	t.Helper()

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	require.NoError(t, err)
	require.NoError(t, m.Migrate(version))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	// setupTestDB already migrated once; a second run must be a no-op.
	require.NoError(t, RunMigrations(db.Writer))

	var version int
	err := db.Reader.QueryRowContext(context.Background(), `SELECT version FROM schema_migrations`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestRunMigrations_CreatesTables(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"accounts", "historical_snapshots", "stock_positions", "app_settings", "watchlist"} {
		var name string
		err := db.Reader.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestRunMigrations_FutureSchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Pretend a newer release migrated this database past what we know.
	_, err := db.Writer.ExecContext(ctx, `UPDATE schema_migrations SET version = ?`, SchemaVersion+1)
	require.NoError(t, err)

	err = RunMigrations(db.Writer)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFutureSchema)
}

func TestRunMigrations_DirtySchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Writer.ExecContext(ctx, `UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)

	err = RunMigrations(db.Writer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dirty")
}

func TestRunMigrations_FromVersion1PreservesRows(t *testing.T) {
	db := setupBareDB(t)
	ctx := context.Background()

	migrateTo(t, db, 1)

	// A row written by a version-1 binary must survive every later migration.
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, institution, type, encrypted_data, created_date, last_updated)
		VALUES ('acc-old', 'Emergency Fund', 'Ally Bank', 'SAVINGS', X'DEADBEEF', 1700000000, 1700000000)`)
	require.NoError(t, err)

	require.NoError(t, RunMigrations(db))

	version, dirty, err := SchemaStatus(db)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(SchemaVersion), version)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count))
	assert.Equal(t, 1, count)

	// The snapshot metadata column from migration 2 must exist on the old row's table.
	_, err = db.ExecContext(ctx, `
		INSERT INTO historical_snapshots (id, account_id, timestamp, value, change_type, encrypted_metadata)
		VALUES ('snap-1', 'acc-old', 1700000001, '1000.00', 'INITIAL_ENTRY', X'00')`)
	require.NoError(t, err)
}

func TestSchemaStatus_FreshDatabase(t *testing.T) {
	db := setupBareDB(t)

	version, dirty, err := SchemaStatus(db)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(0), version)

	require.NoError(t, RunMigrations(db))

	version, dirty, err = SchemaStatus(db)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(SchemaVersion), version)
}

func TestSchemaVersion_MatchesEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	newest := 0
	for _, entry := range entries {
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			continue
		}
		if version > newest {
			newest = version
		}
	}

	assert.Equal(t, SchemaVersion, newest, "SchemaVersion must track the newest embedded migration")
}
