package zones_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CiviMap/CM-Backend/internal/geometry"
	"github.com/CiviMap/CM-Backend/internal/zones"
)

// mockStore is an in-memory Store for service tests. The spatial-SQL fast
// paths always error, matching a database without PostGIS.
type mockStore struct {
	districts []zones.District
	sections  []zones.Section
	boundary  *zones.CityBoundary

	polygonUpdates int
	replaceCalls   int

	updateErr error
	listErr   error
}

var errNoSpatialSQL = errors.New("spatial sql unavailable")

func (m *mockStore) UpsertDistrict(ctx context.Context, code, name string) (*zones.District, bool, error) {
	for i := range m.districts {
		if m.districts[i].Code == code {
			if name != "" {
				m.districts[i].Name = name
			}
			return &m.districts[i], false, nil
		}
	}
	m.districts = append(m.districts, zones.District{ID: uuid.New(), Code: code, Name: name})
	return &m.districts[len(m.districts)-1], true, nil
}

func (m *mockStore) ListDistricts(ctx context.Context) ([]zones.District, error) {
	return append([]zones.District(nil), m.districts...), nil
}

func (m *mockStore) UpsertSection(ctx context.Context, districtCode, code, name, polygonWKT string) (*zones.Section, bool, error) {
	for i := range m.sections {
		if m.sections[i].DistrictCode == districtCode && m.sections[i].Code == code {
			m.sections[i].Polygon = polygonWKT
			if name != "" {
				m.sections[i].Name = name
			}
			return &m.sections[i], false, nil
		}
	}
	m.sections = append(m.sections, zones.Section{
		ID: uuid.New(), Code: code, DistrictCode: districtCode, Name: name, Polygon: polygonWKT,
	})
	return &m.sections[len(m.sections)-1], true, nil
}

func (m *mockStore) ListSections(ctx context.Context) ([]zones.Section, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]zones.Section(nil), m.sections...), nil
}

func (m *mockStore) ListSectionsByDistricts(ctx context.Context, districtCodes []string) ([]zones.Section, error) {
	var out []zones.Section
	for _, s := range m.sections {
		for _, code := range districtCodes {
			if s.DistrictCode == code {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *mockStore) UpdateSectionPolygon(ctx context.Context, id uuid.UUID, polygonWKT string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.sections {
		if m.sections[i].ID == id {
			m.sections[i].Polygon = polygonWKT
			m.polygonUpdates++
			return nil
		}
	}
	return fmt.Errorf("no section with id %s", id)
}

func (m *mockStore) GetBoundary(ctx context.Context) (*zones.CityBoundary, error) {
	if m.boundary == nil {
		return nil, nil
	}
	b := *m.boundary
	return &b, nil
}

func (m *mockStore) ReplaceBoundary(ctx context.Context, name, polygonWKT string) (*zones.CityBoundary, error) {
	m.replaceCalls++
	if m.boundary == nil {
		m.boundary = &zones.CityBoundary{ID: uuid.New()}
	}
	m.boundary.Name = name
	m.boundary.Polygon = polygonWKT
	m.boundary.CalculatedAt = time.Now()
	b := *m.boundary
	return &b, nil
}

func (m *mockStore) FindSectionContaining(ctx context.Context, lat, lng float64) (*zones.Section, error) {
	return nil, errNoSpatialSQL
}

func (m *mockStore) BoundaryCovers(ctx context.Context, lat, lng float64) (bool, error) {
	return false, errNoSpatialSQL
}

func (m *mockStore) Transaction(ctx context.Context, fn func(zones.Store) error) error {
	return fn(m)
}

var _ zones.Store = (*mockStore)(nil)

func (m *mockStore) addSection(districtCode, code, polygonWKT string) {
	m.sections = append(m.sections, zones.Section{
		ID: uuid.New(), Code: code, DistrictCode: districtCode, Polygon: polygonWKT,
	})
}

func (m *mockStore) sectionByCode(districtCode, code string) *zones.Section {
	for i := range m.sections {
		if m.sections[i].DistrictCode == districtCode && m.sections[i].Code == code {
			return &m.sections[i]
		}
	}
	return nil
}

// square builds the WKT of an axis-aligned square with lower-left corner
// (x, y).
func square(x, y, size float64) string {
	return fmt.Sprintf("POLYGON ((%g %g, %g %g, %g %g, %g %g, %g %g))",
		x, y, x+size, y, x+size, y+size, x, y+size, x, y)
}

func testConfig() zones.Config {
	cfg := zones.DefaultConfig()
	cfg.BoundaryName = "Testville"
	return cfg
}

// newTestService wires a service onto the mock store and the in-process
// geometry backend, the composition used when the database has no PostGIS.
func newTestService(store *mockStore, cfg zones.Config) *zones.Service {
	return zones.NewService(store, geometry.NewOrbBackend(), geometry.Capabilities{}, cfg)
}
