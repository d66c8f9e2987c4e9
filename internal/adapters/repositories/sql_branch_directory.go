package repositories

import (
	"context"
	"database/sql"
	"errors"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/db"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"fmt"
)

// SQL-backed implementation of the BranchDirectory port.
type SQLBranchDirectory struct {
	DB      *sql.DB
	Dialect db.Dialect
}

var _ ports.BranchDirectory = (*SQLBranchDirectory)(nil)

func NewSQLBranchDirectory(conn *sql.DB, dialect db.Dialect) *SQLBranchDirectory {
	return &SQLBranchDirectory{DB: conn, Dialect: dialect}
}

// LookupBranch resolves a branch by code, falling back to a case-insensitive name match.
func (s *SQLBranchDirectory) LookupBranch(ctx context.Context, id string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "directory.LookupBranch")(&err)

	if s.DB == nil {
		return domain.Location{}, errors.New("branch directory: DB is nil")
	}

	code, name, err := domain.NormalizeBranchID(id)
	if err != nil {
		return domain.Location{}, err
	}

	query := s.Dialect.Rebind(`
	SELECT
		branch_id,
		name,
		lat,
		lon
	FROM branches
	WHERE branch_id = ? OR lower(name) = lower(?)
	ORDER BY CASE WHEN branch_id = ? THEN 0 ELSE 1 END, branch_id
	LIMIT 1;
	`)

	loc := domain.Location{Kind: domain.KindBranch}
	err = s.DB.QueryRowContext(ctx, query, code, name, code).
		Scan(&loc.ID, &loc.Name, &loc.Lat, &loc.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, domain.Errorf(domain.ErrNotFound, "branch %q not found", id)
	}
	if err != nil {
		return domain.Location{}, fmt.Errorf("lookup branch: query branches table: %w", err)
	}

	return loc, nil
}

// LookupClients returns the clients registered to branchID ordered by client id.
func (s *SQLBranchDirectory) LookupClients(ctx context.Context, branchID string) (_ []domain.Location, err error) {
	defer obs.Time(ctx, "directory.LookupClients")(&err)

	if s.DB == nil {
		return nil, errors.New("branch directory: DB is nil")
	}

	query := s.Dialect.Rebind(`
	SELECT
		client_id,
		name,
		lat,
		lon
	FROM clients
	WHERE branch_id = ?
	ORDER BY client_id;
	`)
	rows, err := s.DB.QueryContext(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("lookup clients: query clients table: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Location, 0, 64)
	for rows.Next() {
		loc := domain.Location{Kind: domain.KindClient}
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Lat, &loc.Lon); err != nil {
			return nil, fmt.Errorf("lookup clients: scan row: %w", err)
		}
		clients = append(clients, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookup clients: row iteration: %w", err)
	}

	return clients, nil
}

// ListBranches returns every branch ordered by code.
func (s *SQLBranchDirectory) ListBranches(ctx context.Context) (_ []domain.Branch, err error) {
	defer obs.Time(ctx, "directory.ListBranches")(&err)

	if s.DB == nil {
		return nil, errors.New("branch directory: DB is nil")
	}

	query := `
	SELECT
		branch_id,
		name,
		zonal_head,
		lat,
		lon
	FROM branches
	ORDER BY branch_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list branches: query branches table: %w", err)
	}
	defer rows.Close()

	branches := make([]domain.Branch, 0, 16)
	for rows.Next() {
		b := domain.Branch{Location: domain.Location{Kind: domain.KindBranch}}
		if err := rows.Scan(&b.ID, &b.Name, &b.ZonalHead, &b.Lat, &b.Lon); err != nil {
			return nil, fmt.Errorf("list branches: scan row: %w", err)
		}
		branches = append(branches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list branches: row iteration: %w", err)
	}

	return branches, nil
}
