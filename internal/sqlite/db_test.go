package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	// Verify all tables were created
	tables := []string{
		"projects",
		"members",
		"holders",
		"settings",
		"events",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsIdempotent verifies the schema can be applied on every start
func TestMigrationsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestProjectsTable verifies the non-negative constraints
func TestProjectsTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, deposit, total_supply, created_at) VALUES (?, ?, ?, ?)`,
		"p1", 100, 0, "2024-01-01T00:00:00Z")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, deposit, total_supply, created_at) VALUES (?, ?, ?, ?)`,
		"p2", -1, 0, "2024-01-01T00:00:00Z")
	require.Error(t, err, "negative deposit should be rejected")
}

// TestHoldersTable verifies the holder foreign key and balance check
func TestHoldersTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO holders (project_id, account, balance, seq) VALUES (?, ?, ?, ?)`,
		"missing", "0xabc", 1, 1)
	require.Error(t, err, "should fail with invalid project_id")

	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, created_at) VALUES (?, ?)`, "p1", "2024-01-01T00:00:00Z")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO holders (project_id, account, balance, seq) VALUES (?, ?, ?, ?)`,
		"p1", "0xabc", -5, 1)
	require.Error(t, err, "negative balance should be rejected")
}
