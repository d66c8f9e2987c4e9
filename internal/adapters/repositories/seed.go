package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/db"
	"fmt"
	"os"
	"strings"
)

type BranchSeed struct {
	BranchID  string   `json:"branch"`
	Name      string   `json:"name"`
	ZonalHead string   `json:"zonal_head"`
	Address   string   `json:"address,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
}

type ClientSeed struct {
	ClientID string   `json:"client_id"`
	BranchID string   `json:"branch"`
	Name     string   `json:"name"`
	Address  string   `json:"address,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}

// SeedData is the on-disk format of the branch/client seed file.
type SeedData struct {
	Branches []BranchSeed `json:"branches"`
	Clients  []ClientSeed `json:"clients"`
}

// LoadSeedFile reads and parses a seed file without validating coordinates,
// so records carrying only an address can be geocoded first.
func LoadSeedFile(path string) (*SeedData, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %q: %w", path, err)
	}

	var data SeedData
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed: parse json: %w", err)
	}

	return &data, nil
}

// MissingAddresses lists addresses of records that lack coordinates.
func (d *SeedData) MissingAddresses() []string {
	var out []string
	for _, b := range d.Branches {
		if (b.Lat == nil || b.Lon == nil) && strings.TrimSpace(b.Address) != "" {
			out = append(out, b.Address)
		}
	}
	for _, c := range d.Clients {
		if (c.Lat == nil || c.Lon == nil) && strings.TrimSpace(c.Address) != "" {
			out = append(out, c.Address)
		}
	}
	return out
}

// ApplyGeocodes fills missing coordinates from resolved, keyed by the
// whitespace-normalized address.
func (d *SeedData) ApplyGeocodes(resolved map[string]domain.Coordinates) {
	lookup := func(addr string) (domain.Coordinates, bool) {
		c, ok := resolved[strings.Join(strings.Fields(addr), " ")]
		return c, ok
	}

	for i := range d.Branches {
		b := &d.Branches[i]
		if b.Lat != nil && b.Lon != nil {
			continue
		}
		if c, ok := lookup(b.Address); ok {
			b.Lat, b.Lon = &c.Lat, &c.Lon
		}
	}
	for i := range d.Clients {
		c := &d.Clients[i]
		if c.Lat != nil && c.Lon != nil {
			continue
		}
		if p, ok := lookup(c.Address); ok {
			c.Lat, c.Lon = &p.Lat, &p.Lon
		}
	}
}

func seedCoordinates(lat, lon *float64) (domain.Coordinates, error) {
	if lat == nil || lon == nil {
		return domain.Coordinates{}, errors.New("coordinates missing")
	}
	c := domain.Coordinates{Lat: *lat, Lon: *lon}
	return c, c.Validate()
}

// Seed upserts every branch and client of data in one transaction.
func Seed(ctx context.Context, conn *sql.DB, dialect db.Dialect, data *SeedData) error {
	if conn == nil {
		return errors.New("seed: DB is nil")
	}

	known := make(map[string]struct{}, len(data.Branches))
	for i, b := range data.Branches {
		if strings.TrimSpace(b.BranchID) == "" {
			return fmt.Errorf("seed branches: branch at index %d: id cannot be empty", i+1)
		}
		if _, err := seedCoordinates(b.Lat, b.Lon); err != nil {
			return fmt.Errorf("seed branches: branch %q: %w", b.BranchID, err)
		}
		known[strings.TrimSpace(b.BranchID)] = struct{}{}
	}
	for i, c := range data.Clients {
		if strings.TrimSpace(c.ClientID) == "" {
			return fmt.Errorf("seed clients: client at index %d: id cannot be empty", i+1)
		}
		if _, ok := known[strings.TrimSpace(c.BranchID)]; !ok {
			if err := branchExists(ctx, conn, dialect, strings.TrimSpace(c.BranchID)); err != nil {
				return fmt.Errorf("seed clients: client %q: %w", c.ClientID, err)
			}
		}
		if _, err := seedCoordinates(c.Lat, c.Lon); err != nil {
			return fmt.Errorf("seed clients: client %q: %w", c.ClientID, err)
		}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	branchStmt, err := tx.PrepareContext(ctx, dialect.Rebind(`
	INSERT INTO branches (branch_id, name, zonal_head, lat, lon)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (branch_id) DO UPDATE
	SET name = EXCLUDED.name,
		zonal_head = EXCLUDED.zonal_head,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`))
	if err != nil {
		return fmt.Errorf("seed branches: prepare insert: %w", err)
	}
	defer branchStmt.Close()

	for _, b := range data.Branches {
		_, err := branchStmt.ExecContext(ctx,
			strings.TrimSpace(b.BranchID), strings.TrimSpace(b.Name), strings.TrimSpace(b.ZonalHead), *b.Lat, *b.Lon,
		)
		if err != nil {
			return fmt.Errorf("seed branches: insert branch_id=%q: %w", b.BranchID, err)
		}
	}

	clientStmt, err := tx.PrepareContext(ctx, dialect.Rebind(`
	INSERT INTO clients (client_id, branch_id, name, lat, lon)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (client_id) DO UPDATE
	SET branch_id = EXCLUDED.branch_id,
		name = EXCLUDED.name,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`))
	if err != nil {
		return fmt.Errorf("seed clients: prepare insert: %w", err)
	}
	defer clientStmt.Close()

	for _, c := range data.Clients {
		_, err := clientStmt.ExecContext(ctx,
			strings.TrimSpace(c.ClientID), strings.TrimSpace(c.BranchID), strings.TrimSpace(c.Name), *c.Lat, *c.Lon,
		)
		if err != nil {
			return fmt.Errorf("seed clients: insert client_id=%q: %w", c.ClientID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

func branchExists(ctx context.Context, conn *sql.DB, dialect db.Dialect, id string) error {
	var n int
	q := dialect.Rebind(`SELECT COUNT(*) FROM branches WHERE branch_id = ?;`)
	if err := conn.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return fmt.Errorf("check branch %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: unknown branch %q", domain.ErrNotFound, id)
	}
	return nil
}
