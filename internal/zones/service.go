package zones

import (
	"context"

	"gorm.io/gorm"

	"github.com/CiviMap/CM-Backend/internal/geometry"
)

// Service is the zone-resolution entry point the rest of the application
// talks to: point resolution, boundary derivation, gap repair. It owns no
// global state; the store, geometry backend and capabilities all arrive via
// the constructor.
type Service struct {
	store Store
	geo   geometry.Backend
	caps  geometry.Capabilities
	cfg   Config
}

func NewService(store Store, geo geometry.Backend, caps geometry.Capabilities, cfg Config) *Service {
	return &Service{store: store, geo: geo, caps: caps, cfg: cfg}
}

// NewServiceForDB wires a Service onto a gorm handle, probing the database
// for PostGIS and composing the backend chain accordingly. Used by the
// server setup and the admin binaries.
func NewServiceForDB(gdb *gorm.DB, hasPostGIS bool, cfg Config) *Service {
	caps := geometry.Capabilities{SpatialSQL: hasPostGIS}

	var backend geometry.Backend = geometry.NewOrbBackend()
	if caps.SpatialSQL {
		backend = geometry.NewChain(geometry.NewPostgisBackend(gdb), backend)
	}

	return NewService(NewRepository(gdb), backend, caps, cfg)
}

// Config returns the active tuning knobs (read-only copy).
func (s *Service) Config() Config { return s.cfg }

// AllSections lists every section ordered by district and code.
func (s *Service) AllSections(ctx context.Context) ([]Section, error) {
	return s.store.ListSections(ctx)
}

// AllDistricts lists every district ordered by code.
func (s *Service) AllDistricts(ctx context.Context) ([]District, error) {
	return s.store.ListDistricts(ctx)
}

// Boundary returns the stored city boundary, or nil when none exists yet.
func (s *Service) Boundary(ctx context.Context) (*CityBoundary, error) {
	return s.store.GetBoundary(ctx)
}
