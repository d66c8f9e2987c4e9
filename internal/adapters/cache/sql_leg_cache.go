package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/db"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"fmt"
)

// SQLLegCache is a SQL-backed cache for origin->destination road legs.
// It serves both PostgreSQL and SQLite; queries are rebound per dialect.
type SQLLegCache struct {
	DB      *sql.DB
	Dialect db.Dialect
}

var _ ports.LegCache = (*SQLLegCache)(nil)

func NewSQLLegCache(conn *sql.DB, dialect db.Dialect) *SQLLegCache {
	return &SQLLegCache{DB: conn, Dialect: dialect}
}

// Get returns the cached leg for from->to.
func (s *SQLLegCache) Get(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ ports.RoadLeg, _ bool, err error) {
	defer obs.Time(ctx, "leg.cache.Get")(&err)

	if s.DB == nil {
		return ports.RoadLeg{}, false, errors.New("leg cache: db is nil")
	}

	origin, destination := legKey(from, to)

	q := s.Dialect.Rebind(`
	SELECT distance_meters, polyline
	FROM leg_cache
	WHERE origin = ? AND destination = ?;
	`)

	var (
		stored   storedLeg
		polyline string
	)
	err = s.DB.QueryRowContext(ctx, q, origin, destination).Scan(&stored.DistanceMeters, &polyline)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RoadLeg{}, false, nil
	}
	if err != nil {
		return ports.RoadLeg{}, false, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}

	if err := json.Unmarshal([]byte(polyline), &stored.Polyline); err != nil {
		return ports.RoadLeg{}, false, fmt.Errorf("get leg cache: decode polyline: %w", err)
	}

	return stored.decode(), true, nil
}

// Put stores or replaces the leg for from->to.
func (s *SQLLegCache) Put(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
	leg ports.RoadLeg,
) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}

	origin, destination := legKey(from, to)

	stored := encodeLeg(leg)
	polyline, err := marshalPolyline(stored)
	if err != nil {
		return fmt.Errorf("insert leg cache: %w", err)
	}

	q := s.Dialect.Rebind(`
	INSERT INTO leg_cache (origin, destination, distance_meters, polyline)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		polyline = EXCLUDED.polyline;
	`)

	if _, err := s.DB.ExecContext(ctx, q, origin, destination, stored.DistanceMeters, polyline); err != nil {
		return fmt.Errorf("insert leg cache origin=%q destination=%q: %w", origin, destination, err)
	}

	return nil
}
