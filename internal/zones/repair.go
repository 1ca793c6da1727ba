package zones

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// RepairStrategy selects how gap repair picks its targets.
type RepairStrategy string

const (
	// RepairUniform runs repair -> snap -> buffer over every section
	// unconditionally. A blunt first pass: it closes every seam but
	// inflates each polygon by one buffer width per run, which can create
	// new overlaps between neighbors that already tiled correctly.
	RepairUniform RepairStrategy = "uniform"

	// RepairTargeted buffers only sections with a detected gap to some
	// other section; everything else is left bit-for-bit identical, so a
	// second run with the same parameters is a no-op.
	RepairTargeted RepairStrategy = "targeted"
)

// RepairReport summarizes one repair run.
type RepairReport struct {
	Strategy         RepairStrategy `json:"strategy"`
	Examined         int            `json:"examined"`
	Repaired         int            `json:"repaired"`
	RepairedSections []string       `json:"repaired_sections"`
	Errors           []string       `json:"errors"`
	BoundaryUpdated  bool           `json:"boundary_updated"`
}

func (r *RepairReport) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// LogSummary prints counts and the first few error messages, summarizing
// the rest by count.
func (r *RepairReport) LogSummary() {
	log.Printf("[zones-repair] strategy=%s examined=%d repaired=%d errors=%d boundary_updated=%v",
		r.Strategy, r.Examined, r.Repaired, len(r.Errors), r.BoundaryUpdated)
	const maxShown = 10
	for i, msg := range r.Errors {
		if i == maxShown {
			log.Printf("[zones-repair] ... and %d more errors", len(r.Errors)-maxShown)
			break
		}
		log.Printf("[zones-repair] error: %s", msg)
	}
}

// RepairGaps closes small digitization gaps between adjacent section
// polygons. Geometry for every touched section is computed first; the
// database writes then happen in one transaction, so a mid-run failure
// leaves either all-prior or all-new polygons, never a mix.
func (s *Service) RepairGaps(ctx context.Context, strategy RepairStrategy) (*RepairReport, error) {
	report := &RepairReport{Strategy: strategy}

	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return report, err
	}
	report.Examined = len(sections)
	if len(sections) == 0 {
		return report, nil
	}

	// Per-record validity repair. Failures are logged and counted, never
	// fatal: one broken polygon must not abort the run.
	valid := make([]string, len(sections))
	for i := range sections {
		if sections[i].Polygon == "" {
			report.addError("section %s: empty polygon", sections[i].FullCode())
			continue
		}
		repaired, err := s.geo.MakeValid(ctx, sections[i].Polygon)
		if err != nil {
			report.addError("section %s: %v", sections[i].FullCode(), err)
			continue
		}
		valid[i] = repaired
	}

	var targets []int
	switch strategy {
	case RepairUniform:
		for i := range sections {
			if valid[i] != "" {
				targets = append(targets, i)
			}
		}
	case RepairTargeted:
		targets = s.detectGapped(ctx, sections, valid, report)
	default:
		return report, fmt.Errorf("unknown repair strategy %q", strategy)
	}

	if len(targets) == 0 {
		log.Printf("[zones-repair] no repair needed")
		return report, nil
	}

	// Compute replacement geometry up front so the transaction below only
	// writes.
	type change struct {
		idx        int
		polygonWKT string
	}
	var changes []change
	for _, i := range targets {
		snapped, err := s.geo.SnapToGrid(ctx, valid[i], s.cfg.GridCell)
		if err != nil {
			report.addError("section %s: snap failed: %v", sections[i].FullCode(), err)
			continue
		}
		buffered, err := s.geo.Buffer(ctx, snapped, s.cfg.BufferDistance)
		if err != nil {
			report.addError("section %s: buffer failed: %v", sections[i].FullCode(), err)
			continue
		}
		changes = append(changes, change{idx: i, polygonWKT: buffered})
	}
	if len(changes) == 0 {
		return report, nil
	}

	err = s.store.Transaction(ctx, func(tx Store) error {
		for _, c := range changes {
			if err := tx.UpdateSectionPolygon(ctx, sections[c.idx].ID, c.polygonWKT); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// batch-fatal: the whole run rolled back, report zero writes
		report.addError("persistence failure, run rolled back: %v", err)
		return report, err
	}

	report.Repaired = len(changes)
	for _, c := range changes {
		report.RepairedSections = append(report.RepairedSections, sections[c.idx].FullCode())
	}
	sort.Strings(report.RepairedSections)

	if s.cfg.AutoBoundary {
		if _, err := s.RecalculateBoundary(ctx); err != nil {
			report.addError("boundary recalculation failed: %v", err)
		} else {
			report.BoundaryUpdated = true
		}
	}
	return report, nil
}

// detectGapped finds sections with a genuine small gap to some other
// section: the pairwise distance is above MinGap (so the pair is not
// already touching within tolerance) but within the MaxGap search radius.
// Sections with zero gap neighbors are never touched, which keeps repeated
// targeted runs from drifting.
func (s *Service) detectGapped(ctx context.Context, sections []Section, valid []string, report *RepairReport) []int {
	minGap, maxGap := s.cfg.MinGap(), s.cfg.MaxGap

	gapped := make(map[int]bool)
	for i := 0; i < len(sections); i++ {
		if valid[i] == "" {
			continue
		}
		for j := i + 1; j < len(sections); j++ {
			if valid[j] == "" {
				continue
			}
			d, err := s.geo.Distance(ctx, valid[i], valid[j])
			if err != nil {
				report.addError("distance %s/%s: %v",
					sections[i].FullCode(), sections[j].FullCode(), err)
				continue
			}
			if d > minGap && d <= maxGap {
				gapped[i] = true
				gapped[j] = true
			}
		}
	}

	targets := make([]int, 0, len(gapped))
	for i := range gapped {
		targets = append(targets, i)
	}
	sort.Ints(targets)
	return targets
}
