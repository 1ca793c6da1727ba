package zones

import (
	"context"
	"errors"
	"log"
)

// FindSectionForPoint maps reported coordinates to the section whose polygon
// contains them, or nil when no section matches.
//
// Two tiers: a spatial-SQL containment query when the database supports it,
// then an in-process scan over all sections. The scan is O(sections) per
// lookup, which holds up at city scale (tens to low hundreds of sections)
// but not if the inventory grows by orders of magnitude.
func (s *Service) FindSectionForPoint(ctx context.Context, lat, lng float64) (*Section, error) {
	if s.caps.SpatialSQL {
		sec, err := s.store.FindSectionContaining(ctx, lat, lng)
		if err == nil {
			return sec, nil
		}
		log.Printf("[zones] spatial section lookup failed, scanning in process: %v", err)
	}

	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].Polygon == "" {
			continue
		}
		inside, err := s.geo.Contains(ctx, sections[i].Polygon, lng, lat)
		if err != nil {
			log.Printf("[zones] skipping section %s with bad polygon: %v",
				sections[i].FullCode(), err)
			continue
		}
		if inside {
			return &sections[i], nil
		}
	}
	return nil, nil
}

// PointInsideCityBoundary validates coordinates against the stored city
// boundary. A missing boundary is computed once from the current sections
// (get-or-create); if it still cannot be derived, ErrNoBoundary is returned
// so callers can tell "cannot validate" apart from "outside the city".
func (s *Service) PointInsideCityBoundary(ctx context.Context, lat, lng float64) (bool, error) {
	boundary, err := s.store.GetBoundary(ctx)
	if err != nil {
		return false, err
	}
	if boundary == nil {
		boundary, err = s.RecalculateBoundary(ctx)
		if err != nil {
			return false, err
		}
		if boundary == nil {
			return false, ErrNoBoundary
		}
	}

	if s.caps.SpatialSQL {
		inside, err := s.store.BoundaryCovers(ctx, lat, lng)
		if err == nil {
			return inside, nil
		}
		if errors.Is(err, ErrNoBoundary) {
			return false, err
		}
		log.Printf("[zones] spatial boundary check failed, using in-process test: %v", err)
	}

	return s.geo.Contains(ctx, boundary.Polygon, lng, lat)
}
