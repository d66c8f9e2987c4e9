package repositories

import (
	"context"
	"database/sql"
	"errors"
	"field-route-service/internal/platform/db"
	"fmt"
)

// InitSchema creates the directory and leg cache tables when missing.
// The statements are portable between PostgreSQL and SQLite.
func InitSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createBranchesQuery := `
	CREATE TABLE IF NOT EXISTS branches (
		branch_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		zonal_head TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);
	`

	createClientsQuery := `
	CREATE TABLE IF NOT EXISTS clients (
		client_id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL REFERENCES branches(branch_id),
		name TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);
	`

	createLegCacheQuery := `
	CREATE TABLE IF NOT EXISTS leg_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters BIGINT NOT NULL,
		polyline TEXT NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`

	createClientsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_clients_branch_id
	ON clients(branch_id, client_id);
	`

	createBranchNameIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_branches_lower_name
	ON branches(lower(name));
	`

	statements := []string{
		createBranchesQuery,
		createClientsQuery,
		createLegCacheQuery,
		createClientsIndexQuery,
		createBranchNameIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema (%s): exec statement #%d: %w", dialect, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
