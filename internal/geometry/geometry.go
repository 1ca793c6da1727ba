package geometry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

var (
	// ErrBadGeometry marks WKT/GeoJSON input that cannot be parsed into a
	// polygon. Bulk callers skip the record and keep going.
	ErrBadGeometry = errors.New("unparsable geometry")

	// ErrRepairFailed means validity repair produced an empty or degenerate
	// result. The returned geometry is an empty polygon; callers must check
	// for this instead of treating the call as a success.
	ErrRepairFailed = errors.New("geometry repair produced empty result")

	// ErrUnionUnsupported is returned by backends that cannot dissolve a set
	// of polygons into one. Callers fall back to the convex hull.
	ErrUnionUnsupported = errors.New("union not supported by backend")
)

// EmptyPolygonWKT is what MakeValid hands back alongside ErrRepairFailed.
const EmptyPolygonWKT = "POLYGON EMPTY"

// Capabilities describes what the underlying store can do for us. Detected
// once at startup and passed into constructors; there is no global probe.
type Capabilities struct {
	// SpatialSQL is true when the database has PostGIS, enabling native
	// point-in-polygon queries and ST_* geometry operations.
	SpatialSQL bool
}

// Backend is one strategy for polygon operations. Two implementations exist:
// PostgisBackend (native spatial SQL, preferred when available) and
// OrbBackend (in-process, always available). All geometries cross the
// interface as WKT in geographic coordinates (lon/lat degrees, SRID 4326).
//
// Distances, grid cells and buffer widths are in degrees. At city scale a
// 0.00001 grid cell is roughly 1-2 meters and a 0.00005 buffer roughly 5-6
// meters; both are deployment-tunable, not constants of the engine.
type Backend interface {
	Name() string

	// MakeValid repairs self-intersections and ring orientation. A polygon
	// that cannot be repaired comes back as EmptyPolygonWKT with
	// ErrRepairFailed.
	MakeValid(ctx context.Context, polyWKT string) (string, error)

	// Contains is boundary-inclusive: a point exactly on the edge counts as
	// inside. Both backends are pinned to this convention.
	Contains(ctx context.Context, polyWKT string, lng, lat float64) (bool, error)

	// Distance is the minimum planar distance between two polygons, zero
	// when they touch or overlap.
	Distance(ctx context.Context, aWKT, bWKT string) (float64, error)

	WithinDistance(ctx context.Context, aWKT, bWKT string, tol float64) (bool, error)

	// SnapToGrid rounds every vertex to a multiple of cell, collapsing
	// sub-tolerance seams between independently digitized neighbors.
	SnapToGrid(ctx context.Context, polyWKT string, cell float64) (string, error)

	// Buffer grows the polygon outward by dist degrees (negative shrinks).
	Buffer(ctx context.Context, polyWKT string, dist float64) (string, error)

	ConvexHull(ctx context.Context, polyWKTs []string) (string, error)

	// Union dissolves the polygons into one geometry. Backends without
	// union support return ErrUnionUnsupported.
	Union(ctx context.Context, polyWKTs []string) (string, error)
	SupportsUnion() bool
}

// Parse decodes WKT into an orb polygon or multipolygon. Anything else
// (points, lines, collections) is rejected: sections and boundaries are
// areal by definition.
func Parse(s string) (orb.Geometry, error) {
	g, err := wkt.Unmarshal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGeometry, err)
	}
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return g, nil
	}
	return nil, fmt.Errorf("%w: unexpected type %s", ErrBadGeometry, g.GeoJSONType())
}

// MarshalWKT serializes an orb geometry back to WKT.
func MarshalWKT(g orb.Geometry) string {
	return wkt.MarshalString(g)
}
