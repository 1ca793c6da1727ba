package zones

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/CiviMap/CM-Backend/internal/geometry"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type SectionOut struct {
	ID           uuid.UUID         `json:"id"`
	Code         string            `json:"code"`
	DistrictCode string            `json:"district_code"`
	DistrictName string            `json:"district_name"`
	Name         string            `json:"name"`
	FullCode     string            `json:"full_code"`
	Geometry     *geojson.Geometry `json:"geometry"`
}

type boundsOut struct {
	Southwest [2]float64 `json:"southwest"` // [lat, lng]
	Northeast [2]float64 `json:"northeast"`
}

type BoundaryOut struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	CalculatedAt time.Time         `json:"calculated_at"`
	Geometry     *geojson.Geometry `json:"geometry"`
	Bounds       *boundsOut        `json:"bounds"`
}

type ResolveOut struct {
	Lat        float64     `json:"lat"`
	Lng        float64     `json:"lng"`
	Section    *SectionOut `json:"section"`
	InsideCity *bool       `json:"inside_city"`
}

func sectionOut(s *Section, districtNames map[string]string) *SectionOut {
	out := &SectionOut{
		ID:           s.ID,
		Code:         s.Code,
		DistrictCode: s.DistrictCode,
		DistrictName: districtNames[s.DistrictCode],
		Name:         s.Name,
		FullCode:     s.FullCode(),
	}
	if out.Name == "" {
		out.Name = "Section " + s.Code
	}
	if s.Polygon != "" {
		g, err := geometry.Parse(s.Polygon)
		if err != nil {
			log.Printf("[zones] section %s has unparsable polygon: %v", s.FullCode(), err)
		} else {
			out.Geometry = geojson.NewGeometry(g)
		}
	}
	return out
}

func districtNameIndex(r *http.Request) map[string]string {
	names := map[string]string{}
	districts, err := Svc.AllDistricts(r.Context())
	if err != nil {
		log.Printf("[zones] district lookup failed: %v", err)
		return names
	}
	for i := range districts {
		names[districts[i].Code] = districts[i].Name
	}
	return names
}

// GetSections returns every section with its polygon as GeoJSON. Sections
// whose stored polygon cannot be parsed are skipped, not fatal.
func GetSections(w http.ResponseWriter, r *http.Request) {
	sections, err := Svc.AllSections(r.Context())
	if err != nil {
		http.Error(w, "Failed to list sections", http.StatusInternalServerError)
		return
	}
	names := districtNameIndex(r)

	out := make([]*SectionOut, 0, len(sections))
	for i := range sections {
		s := sectionOut(&sections[i], names)
		if s.Geometry == nil {
			continue
		}
		out = append(out, s)
	}
	writeJSON(w, out)
}

// GetBoundary returns the city boundary with a bounding box padded by 20%
// on each axis, which map clients use to clamp panning.
func GetBoundary(w http.ResponseWriter, r *http.Request) {
	boundary, err := Svc.Boundary(r.Context())
	if err != nil {
		http.Error(w, "Failed to load boundary", http.StatusInternalServerError)
		return
	}
	if boundary == nil || boundary.Polygon == "" {
		http.Error(w, "City boundary not found", http.StatusNotFound)
		return
	}

	g, err := geometry.Parse(boundary.Polygon)
	if err != nil {
		log.Printf("[zones] stored boundary is unparsable: %v", err)
		http.Error(w, "Failed to parse boundary geometry", http.StatusInternalServerError)
		return
	}

	bound := g.Bound()
	marginLng := (bound.Max[0] - bound.Min[0]) * 0.2
	marginLat := (bound.Max[1] - bound.Min[1]) * 0.2

	writeJSON(w, BoundaryOut{
		ID:           boundary.ID,
		Name:         boundary.Name,
		CalculatedAt: boundary.CalculatedAt,
		Geometry:     geojson.NewGeometry(g),
		Bounds: &boundsOut{
			Southwest: [2]float64{bound.Min[1] - marginLat, bound.Min[0] - marginLng},
			Northeast: [2]float64{bound.Max[1] + marginLat, bound.Max[0] + marginLng},
		},
	})
}

// ResolvePoint maps ?lat=&lng= to its containing section and city-limits
// verdict. "section": null means no section contains the point;
// "inside_city": null means no boundary exists to check against.
func ResolvePoint(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lng query params are required", http.StatusBadRequest)
		return
	}

	out := ResolveOut{Lat: lat, Lng: lng}

	section, err := Svc.FindSectionForPoint(r.Context(), lat, lng)
	if err != nil {
		http.Error(w, "Failed to resolve section", http.StatusInternalServerError)
		return
	}
	if section != nil {
		out.Section = sectionOut(section, districtNameIndex(r))
	}

	inside, err := Svc.PointInsideCityBoundary(r.Context(), lat, lng)
	switch {
	case err == nil:
		out.InsideCity = &inside
	case errors.Is(err, ErrNoBoundary):
		// leave inside_city null
	default:
		http.Error(w, "Failed to check city boundary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, out)
}

// RecalculateBoundaryHandler recomputes the city boundary from the current
// sections. Admin only.
func RecalculateBoundaryHandler(w http.ResponseWriter, r *http.Request) {
	boundary, err := Svc.RecalculateBoundary(r.Context())
	if err != nil {
		http.Error(w, "Failed to recalculate boundary", http.StatusInternalServerError)
		return
	}
	if boundary == nil {
		http.Error(w, "No valid section geometry to derive a boundary from", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"id":            boundary.ID,
		"name":          boundary.Name,
		"calculated_at": boundary.CalculatedAt,
	})
}

// RepairGapsHandler runs the gap-repair pipeline. Admin only. Strategy
// defaults to targeted; pass ?strategy=uniform for the blunt variant.
func RepairGapsHandler(w http.ResponseWriter, r *http.Request) {
	strategy := RepairTargeted
	if v := r.URL.Query().Get("strategy"); v != "" {
		strategy = RepairStrategy(v)
		if strategy != RepairTargeted && strategy != RepairUniform {
			http.Error(w, "strategy must be 'targeted' or 'uniform'", http.StatusBadRequest)
			return
		}
	}

	report, err := Svc.RepairGaps(r.Context(), strategy)
	if err != nil {
		report.LogSummary()
		http.Error(w, "Repair run failed", http.StatusInternalServerError)
		return
	}
	report.LogSummary()
	writeJSON(w, report)
}
