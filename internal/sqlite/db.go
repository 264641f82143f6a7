package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection. The pool is capped at one
// connection: the ledger serialises writers anyway, and an in-memory
// database only exists on the connection that created it.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if dataSourceName != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the ledger schema. Statements are idempotent so it is
// safe on every start.
func (db *DB) RunMigrations() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

const schema = `
-- Projects: credit counter, owner role and token supply
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    deposit INTEGER NOT NULL DEFAULT 0 CHECK(deposit >= 0),
    deposit_updated_at TEXT,
    owner TEXT,
    owner_updated_at TEXT,
    total_supply INTEGER NOT NULL DEFAULT 0 CHECK(total_supply >= 0),
    created_at TEXT NOT NULL
);

-- Member bindings
CREATE TABLE IF NOT EXISTS members (
    project_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    address TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (project_id, member_id),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

-- Balance sheet; append-only per project, seq is first-seen order
CREATE TABLE IF NOT EXISTS holders (
    project_id TEXT NOT NULL,
    account TEXT NOT NULL,
    balance INTEGER NOT NULL CHECK(balance >= 0),
    seq INTEGER NOT NULL,
    PRIMARY KEY (project_id, account),
    UNIQUE (project_id, seq),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_holders_rank ON holders(project_id, balance DESC, seq);

-- Process-wide settings (fee schedule, admin), JSON encoded
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- Event log
CREATE TABLE IF NOT EXISTS events (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    project_id TEXT,
    args TEXT NOT NULL,
    request_id TEXT UNIQUE,
    request_digest TEXT,
    tx_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_project ON events(project_id, seq);

-- API keys mapping bearer tokens to caller addresses
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    address TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_address_keys ON api_keys(address);
`
