package zones

import (
	"context"
	"log"
)

// CalculateBoundary derives the single enclosing polygon of all sections:
// each polygon is validity-repaired individually (unparsable ones are
// skipped, never fatal), then the set is dissolved with a union when the
// backend supports one, or enclosed in a convex hull otherwise.
//
// Returns "" when zero sections have usable geometry. That is "boundary
// unavailable", not an error: callers leave any stored boundary untouched.
func (s *Service) CalculateBoundary(ctx context.Context) (string, error) {
	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return "", err
	}

	valid := make([]string, 0, len(sections))
	for i := range sections {
		if sections[i].Polygon == "" {
			continue
		}
		repaired, err := s.geo.MakeValid(ctx, sections[i].Polygon)
		if err != nil {
			log.Printf("[zones] boundary: skipping section %s: %v",
				sections[i].FullCode(), err)
			continue
		}
		valid = append(valid, repaired)
	}
	if len(valid) == 0 {
		return "", nil
	}

	if s.geo.SupportsUnion() {
		union, err := s.geo.Union(ctx, valid)
		if err == nil {
			return union, nil
		}
		log.Printf("[zones] boundary union failed, using convex hull: %v", err)
	}
	return s.geo.ConvexHull(ctx, valid)
}

// RecalculateBoundary computes the boundary and replaces the singleton
// record transactionally. Returns (nil, nil) when no boundary could be
// derived; the stored record, if any, is left as it was.
func (s *Service) RecalculateBoundary(ctx context.Context) (*CityBoundary, error) {
	polygonWKT, err := s.CalculateBoundary(ctx)
	if err != nil {
		return nil, err
	}
	if polygonWKT == "" {
		log.Printf("[zones] no valid section geometry, boundary left unchanged")
		return nil, nil
	}

	var boundary *CityBoundary
	err = s.store.Transaction(ctx, func(tx Store) error {
		var txErr error
		boundary, txErr = tx.ReplaceBoundary(ctx, s.cfg.BoundaryName, polygonWKT)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[zones] boundary %q recalculated", boundary.Name)
	return boundary, nil
}
