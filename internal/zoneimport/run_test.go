package zoneimport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/CiviMap/CM-Backend/internal/zones"
)

// importStore is an in-memory zones.Store covering what the importer
// touches. Everything else errors loudly if called.
type importStore struct {
	districts []zones.District
	sections  []zones.Section
	upsertErr error
}

func (m *importStore) UpsertDistrict(ctx context.Context, code, name string) (*zones.District, bool, error) {
	if m.upsertErr != nil {
		return nil, false, m.upsertErr
	}
	for i := range m.districts {
		if m.districts[i].Code == code {
			return &m.districts[i], false, nil
		}
	}
	m.districts = append(m.districts, zones.District{ID: uuid.New(), Code: code, Name: name})
	return &m.districts[len(m.districts)-1], true, nil
}

func (m *importStore) UpsertSection(ctx context.Context, districtCode, code, name, polygonWKT string) (*zones.Section, bool, error) {
	if m.upsertErr != nil {
		return nil, false, m.upsertErr
	}
	for i := range m.sections {
		if m.sections[i].DistrictCode == districtCode && m.sections[i].Code == code {
			m.sections[i].Polygon = polygonWKT
			return &m.sections[i], false, nil
		}
	}
	m.sections = append(m.sections, zones.Section{
		ID: uuid.New(), Code: code, DistrictCode: districtCode, Name: name, Polygon: polygonWKT,
	})
	return &m.sections[len(m.sections)-1], true, nil
}

func (m *importStore) ListDistricts(ctx context.Context) ([]zones.District, error) {
	return m.districts, nil
}

func (m *importStore) ListSections(ctx context.Context) ([]zones.Section, error) {
	return m.sections, nil
}

func (m *importStore) ListSectionsByDistricts(ctx context.Context, districtCodes []string) ([]zones.Section, error) {
	return nil, errors.New("not used by the importer")
}

func (m *importStore) UpdateSectionPolygon(ctx context.Context, id uuid.UUID, polygonWKT string) error {
	return errors.New("not used by the importer")
}

func (m *importStore) GetBoundary(ctx context.Context) (*zones.CityBoundary, error) {
	return nil, errors.New("not used by the importer")
}

func (m *importStore) ReplaceBoundary(ctx context.Context, name, polygonWKT string) (*zones.CityBoundary, error) {
	return nil, errors.New("not used by the importer")
}

func (m *importStore) FindSectionContaining(ctx context.Context, lat, lng float64) (*zones.Section, error) {
	return nil, errors.New("not used by the importer")
}

func (m *importStore) BoundaryCovers(ctx context.Context, lat, lng float64) (bool, error) {
	return false, errors.New("not used by the importer")
}

func (m *importStore) Transaction(ctx context.Context, fn func(zones.Store) error) error {
	return fn(m)
}

var _ zones.Store = (*importStore)(nil)

func (m *importStore) section(districtCode, code string) *zones.Section {
	for i := range m.sections {
		if m.sections[i].DistrictCode == districtCode && m.sections[i].Code == code {
			return &m.sections[i]
		}
	}
	return nil
}

const squareFeature = `{
	"type": "Feature",
	"properties": {%s},
	"geometry": {
		"type": "Polygon",
		"coordinates": [[[0,0],[0.001,0],[0.001,0.001],[0,0.001],[0,0]]]
	}
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func feature(props string) string {
	return strings.Replace(squareFeature, "%s", props, 1)
}

func TestRunWithStore_ImportsTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "district_04", "section_001.geojson"),
		`{"type":"FeatureCollection","features":[`+feature(`"name":"Port"`)+`]}`)
	writeFile(t, filepath.Join(dir, "district_04", "section_002.geojson"), feature(``))
	writeFile(t, filepath.Join(dir, "section_012_district_03.geojson"), feature(``))

	store := &importStore{}
	report, err := RunWithStore(context.Background(), store, dir)
	if err != nil {
		t.Fatal(err)
	}

	if report.DistrictsCreated != 2 {
		t.Errorf("districts created = %d, want 2", report.DistrictsCreated)
	}
	if report.SectionsCreated != 3 {
		t.Errorf("sections created = %d, want 3", report.SectionsCreated)
	}
	if len(report.Errors) != 0 {
		t.Errorf("unexpected errors: %v", report.Errors)
	}

	s := store.section("04", "001")
	if s == nil {
		t.Fatal("section 04-001 not imported")
	}
	if s.Name != "Port" {
		t.Errorf("section name = %q, want Port", s.Name)
	}
	if !strings.HasPrefix(s.Polygon, "POLYGON") {
		t.Errorf("stored polygon is not WKT: %q", s.Polygon)
	}
	if store.section("03", "012") == nil {
		t.Error("root-level file with embedded district not imported")
	}
}

func TestRunWithStore_DirectoryWinsOverProperties(t *testing.T) {
	dir := t.TempDir()
	// both the cdis property and a conflicting file suffix claim district 03
	writeFile(t, filepath.Join(dir, "district_04", "section_001_district_03.geojson"),
		feature(`"cdis":"03"`))

	store := &importStore{}
	report, err := RunWithStore(context.Background(), store, dir)
	if err != nil {
		t.Fatal(err)
	}

	if store.section("04", "001") == nil {
		t.Fatal("section must land in the folder's district")
	}
	if store.section("03", "001") != nil {
		t.Error("section must not land in the claimed district")
	}
	if len(report.Warnings) < 2 {
		t.Errorf("expected warnings for both district mismatches, got %v", report.Warnings)
	}
}

func TestRunWithStore_SectionCodeFromProperty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "district_04", "section_001.geojson"), feature(`"csec":7`))

	store := &importStore{}
	if _, err := RunWithStore(context.Background(), store, dir); err != nil {
		t.Fatal(err)
	}
	if store.section("04", "007") == nil {
		t.Error("csec property should override the file name's section code")
	}
}

func TestRunWithStore_ReRunUpdatesInsteadOfDuplicating(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "district_04", "section_001.geojson"), feature(``))

	store := &importStore{}
	if _, err := RunWithStore(context.Background(), store, dir); err != nil {
		t.Fatal(err)
	}
	report, err := RunWithStore(context.Background(), store, dir)
	if err != nil {
		t.Fatal(err)
	}

	if report.SectionsCreated != 0 || report.SectionsUpdated != 1 {
		t.Errorf("re-run created=%d updated=%d, want 0/1",
			report.SectionsCreated, report.SectionsUpdated)
	}
	if len(store.sections) != 1 {
		t.Errorf("section duplicated on re-run, have %d", len(store.sections))
	}
}

func TestRunWithStore_BadFilesAreReportedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "district_04", "section_001.geojson"), feature(``))
	writeFile(t, filepath.Join(dir, "district_04", "section_002.geojson"), "{ not json")
	writeFile(t, filepath.Join(dir, "district_04", "section_003.geojson"),
		`{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}`)
	writeFile(t, filepath.Join(dir, "shapefiles", "old.shp"), "binary junk")

	store := &importStore{}
	report, err := RunWithStore(context.Background(), store, dir)
	if err != nil {
		t.Fatal(err)
	}

	if report.SectionsCreated != 1 {
		t.Errorf("sections created = %d, want 1", report.SectionsCreated)
	}
	if len(report.Errors) != 3 {
		t.Errorf("expected 3 errors (bad json, point geometry, unknown dir), got %v", report.Errors)
	}
}

func TestRunWithStore_WriteFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "district_04", "section_001.geojson"), feature(``))

	store := &importStore{upsertErr: errors.New("connection lost")}
	report, err := RunWithStore(context.Background(), store, dir)
	if err == nil {
		t.Fatal("expected the store failure to surface")
	}
	if report.DistrictsCreated != 0 || report.SectionsCreated != 0 {
		t.Error("failed run must report zero writes")
	}
}
