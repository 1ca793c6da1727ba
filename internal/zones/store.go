package zones

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoBoundary distinguishes "no boundary stored, cannot validate" from
// "point is outside the boundary". Callers decide the policy for it.
var ErrNoBoundary = errors.New("city boundary not available")

// Store is the persistence contract for zone data. The gorm-backed
// Repository is the real implementation; tests substitute an in-memory one.
//
// FindSectionContaining and BoundaryCovers are the spatial-SQL fast paths;
// stores without a spatial extension return an error from them and callers
// fall back to in-process containment.
type Store interface {
	UpsertDistrict(ctx context.Context, code, name string) (*District, bool, error)
	ListDistricts(ctx context.Context) ([]District, error)
	UpsertSection(ctx context.Context, districtCode, code, name, polygonWKT string) (*Section, bool, error)
	ListSections(ctx context.Context) ([]Section, error)
	ListSectionsByDistricts(ctx context.Context, districtCodes []string) ([]Section, error)
	UpdateSectionPolygon(ctx context.Context, id uuid.UUID, polygonWKT string) error

	GetBoundary(ctx context.Context) (*CityBoundary, error)
	ReplaceBoundary(ctx context.Context, name, polygonWKT string) (*CityBoundary, error)

	FindSectionContaining(ctx context.Context, lat, lng float64) (*Section, error)
	BoundaryCovers(ctx context.Context, lat, lng float64) (bool, error)

	// Transaction runs fn against a store bound to one database
	// transaction. Each administrative batch (import run, repair run,
	// boundary recompute) commits or rolls back as a unit.
	Transaction(ctx context.Context, fn func(Store) error) error
}
