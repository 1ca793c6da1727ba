package zones_test

import (
	"context"
	"errors"
	"testing"

	"github.com/CiviMap/CM-Backend/internal/geometry"
	"github.com/CiviMap/CM-Backend/internal/zones"
)

func resolveStore() *mockStore {
	store := &mockStore{}
	store.addSection("01", "001", square(0, 0, 0.001))
	store.addSection("01", "002", square(0.001, 0, 0.001))
	store.addSection("02", "001", square(0, 0.001, 0.001))
	return store
}

func TestFindSectionForPoint(t *testing.T) {
	svc := newTestService(resolveStore(), testConfig())
	ctx := context.Background()

	// lat is y, lng is x
	sec, err := svc.FindSectionForPoint(ctx, 0.0005, 0.0015)
	if err != nil {
		t.Fatal(err)
	}
	if sec == nil {
		t.Fatal("expected a section for an interior point")
	}
	if got := sec.FullCode(); got != "01-002" {
		t.Errorf("resolved to %s, want 01-002", got)
	}

	sec, err = svc.FindSectionForPoint(ctx, 0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if sec != nil {
		t.Errorf("expected nil for a point outside every section, got %s", sec.FullCode())
	}
}

// Sections with disjoint interiors must never both claim an interior point.
func TestFindSectionForPoint_InteriorPointsAreExclusive(t *testing.T) {
	store := resolveStore()
	svc := newTestService(store, testConfig())

	sec, err := svc.FindSectionForPoint(context.Background(), 0.0005, 0.0005)
	if err != nil {
		t.Fatal(err)
	}
	if sec == nil || sec.FullCode() != "01-001" {
		t.Fatalf("expected 01-001, got %v", sec)
	}

	other := store.sectionByCode("01", "002")
	inside, err := geometry.NewOrbBackend().Contains(context.Background(), other.Polygon, 0.0005, 0.0005)
	if err != nil {
		t.Fatal(err)
	}
	if inside {
		t.Error("point strictly inside 01-001 must not be contained by 01-002")
	}
}

func TestFindSectionForPoint_EdgePointStillResolves(t *testing.T) {
	svc := newTestService(resolveStore(), testConfig())

	// exactly on the edge shared by 01-001 and 01-002
	sec, err := svc.FindSectionForPoint(context.Background(), 0.0005, 0.001)
	if err != nil {
		t.Fatal(err)
	}
	if sec == nil {
		t.Fatal("a point on a shared edge must resolve to a section, not fall in the crack")
	}
	if code := sec.FullCode(); code != "01-001" && code != "01-002" {
		t.Errorf("resolved to %s, want one of the two adjacent sections", code)
	}
}

func TestFindSectionForPoint_SkipsBadPolygons(t *testing.T) {
	store := &mockStore{}
	store.addSection("01", "001", "garbage")
	store.addSection("01", "002", square(0, 0, 0.001))
	svc := newTestService(store, testConfig())

	sec, err := svc.FindSectionForPoint(context.Background(), 0.0005, 0.0005)
	if err != nil {
		t.Fatal(err)
	}
	if sec == nil || sec.FullCode() != "01-002" {
		t.Error("resolution should skip the unparsable polygon and keep scanning")
	}
}

func TestPointInsideCityBoundary_GetOrCreate(t *testing.T) {
	store := resolveStore()
	svc := newTestService(store, testConfig())
	ctx := context.Background()

	inside, err := svc.PointInsideCityBoundary(ctx, 0.0005, 0.0005)
	if err != nil {
		t.Fatal(err)
	}
	if !inside {
		t.Error("point inside a section must be inside the city")
	}
	if store.replaceCalls != 1 {
		t.Fatalf("expected the missing boundary to be computed once, got %d", store.replaceCalls)
	}

	// second call reuses the stored boundary
	outside, err := svc.PointInsideCityBoundary(ctx, 0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if outside {
		t.Error("far-away point must be outside the city")
	}
	if store.replaceCalls != 1 {
		t.Errorf("boundary recomputed on a later call, replace calls = %d", store.replaceCalls)
	}
}

func TestPointInsideCityBoundary_NoSectionsMeansNoBoundary(t *testing.T) {
	svc := newTestService(&mockStore{}, testConfig())

	_, err := svc.PointInsideCityBoundary(context.Background(), 0.0005, 0.0005)
	if !errors.Is(err, zones.ErrNoBoundary) {
		t.Errorf("expected ErrNoBoundary, got %v", err)
	}
}
