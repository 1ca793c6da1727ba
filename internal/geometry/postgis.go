package geometry

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PostgisBackend runs every polygon operation as native spatial SQL. It is
// the preferred strategy when the database has PostGIS: operations are
// exact, and the containment queries can use spatial indexes.
//
// ST_Covers is used instead of ST_Contains on purpose: ST_Contains is
// edge-exclusive and the system-wide convention is that a point on the
// boundary counts as inside.
type PostgisBackend struct {
	DB *gorm.DB
}

func NewPostgisBackend(db *gorm.DB) *PostgisBackend {
	return &PostgisBackend{DB: db}
}

func (b *PostgisBackend) Name() string { return "postgis" }

func (b *PostgisBackend) SupportsUnion() bool { return true }

func (b *PostgisBackend) MakeValid(ctx context.Context, polyWKT string) (string, error) {
	var out string
	err := b.DB.WithContext(ctx).
		Raw(`SELECT ST_AsText(ST_MakeValid(ST_GeomFromText(?, 4326)))`, polyWKT).
		Scan(&out).Error
	if err != nil {
		return "", fmt.Errorf("postgis make_valid: %w", err)
	}
	if isEmptyWKT(out) {
		return EmptyPolygonWKT, ErrRepairFailed
	}
	return out, nil
}

func (b *PostgisBackend) Contains(ctx context.Context, polyWKT string, lng, lat float64) (bool, error) {
	var covered bool
	err := b.DB.WithContext(ctx).
		Raw(`SELECT ST_Covers(
			ST_MakeValid(ST_GeomFromText(?, 4326)),
			ST_SetSRID(ST_MakePoint(?, ?), 4326)
		)`, polyWKT, lng, lat).
		Scan(&covered).Error
	if err != nil {
		return false, fmt.Errorf("postgis contains: %w", err)
	}
	return covered, nil
}

func (b *PostgisBackend) Distance(ctx context.Context, aWKT, bWKT string) (float64, error) {
	var d float64
	err := b.DB.WithContext(ctx).
		Raw(`SELECT ST_Distance(ST_GeomFromText(?, 4326), ST_GeomFromText(?, 4326))`, aWKT, bWKT).
		Scan(&d).Error
	if err != nil {
		return 0, fmt.Errorf("postgis distance: %w", err)
	}
	return d, nil
}

func (b *PostgisBackend) WithinDistance(ctx context.Context, aWKT, bWKT string, tol float64) (bool, error) {
	var within bool
	err := b.DB.WithContext(ctx).
		Raw(`SELECT ST_DWithin(ST_GeomFromText(?, 4326), ST_GeomFromText(?, 4326), ?)`,
			aWKT, bWKT, tol).
		Scan(&within).Error
	if err != nil {
		return false, fmt.Errorf("postgis dwithin: %w", err)
	}
	return within, nil
}

func (b *PostgisBackend) SnapToGrid(ctx context.Context, polyWKT string, cell float64) (string, error) {
	if cell <= 0 {
		return polyWKT, nil
	}
	var out string
	err := b.DB.WithContext(ctx).
		Raw(`SELECT ST_AsText(ST_SnapToGrid(ST_GeomFromText(?, 4326), ?))`, polyWKT, cell).
		Scan(&out).Error
	if err != nil {
		return "", fmt.Errorf("postgis snap_to_grid: %w", err)
	}
	if isEmptyWKT(out) {
		return EmptyPolygonWKT, ErrRepairFailed
	}
	return out, nil
}

func (b *PostgisBackend) Buffer(ctx context.Context, polyWKT string, dist float64) (string, error) {
	if dist == 0 {
		return polyWKT, nil
	}
	var out string
	err := b.DB.WithContext(ctx).
		Raw(`SELECT ST_AsText(ST_Buffer(ST_GeomFromText(?, 4326), ?))`, polyWKT, dist).
		Scan(&out).Error
	if err != nil {
		return "", fmt.Errorf("postgis buffer: %w", err)
	}
	if isEmptyWKT(out) {
		return EmptyPolygonWKT, ErrRepairFailed
	}
	return out, nil
}

func (b *PostgisBackend) ConvexHull(ctx context.Context, polyWKTs []string) (string, error) {
	var out string
	err := b.DB.WithContext(ctx).
		Raw(`SELECT ST_AsText(ST_ConvexHull(ST_Collect(
			ST_MakeValid(ST_GeomFromText(t, 4326))
		))) FROM unnest(?::text[]) AS t`, pq.Array(polyWKTs)).
		Scan(&out).Error
	if err != nil {
		return "", fmt.Errorf("postgis convex_hull: %w", err)
	}
	if isEmptyWKT(out) {
		return EmptyPolygonWKT, ErrRepairFailed
	}
	return out, nil
}

func (b *PostgisBackend) Union(ctx context.Context, polyWKTs []string) (string, error) {
	var out string
	err := b.DB.WithContext(ctx).
		Raw(`SELECT ST_AsText(ST_Union(
			ST_MakeValid(ST_GeomFromText(t, 4326))
		)) FROM unnest(?::text[]) AS t`, pq.Array(polyWKTs)).
		Scan(&out).Error
	if err != nil {
		return "", fmt.Errorf("postgis union: %w", err)
	}
	if isEmptyWKT(out) {
		return EmptyPolygonWKT, ErrRepairFailed
	}
	return out, nil
}

func isEmptyWKT(s string) bool {
	return s == "" || strings.Contains(strings.ToUpper(s), "EMPTY")
}

var _ Backend = (*PostgisBackend)(nil)
