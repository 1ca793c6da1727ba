package zoneimport

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/CiviMap/CM-Backend/internal/geometry"
	"github.com/CiviMap/CM-Backend/internal/zones"
)

type Config struct {
	Dir         string
	DatabaseURL string
}

// Report accumulates the outcome of one import run.
type Report struct {
	DistrictsCreated int      `json:"districts_created"`
	SectionsCreated  int      `json:"sections_created"`
	SectionsUpdated  int      `json:"sections_updated"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
}

func (r *Report) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// LogSummary prints counts, warnings and the first few errors.
func (r *Report) LogSummary() {
	log.Printf("[zones-import] districts_created=%d sections_created=%d sections_updated=%d warnings=%d errors=%d",
		r.DistrictsCreated, r.SectionsCreated, r.SectionsUpdated, len(r.Warnings), len(r.Errors))
	for _, msg := range r.Warnings {
		log.Printf("[zones-import] warning: %s", msg)
	}
	const maxShown = 10
	for i, msg := range r.Errors {
		if i == maxShown {
			log.Printf("[zones-import] ... and %d more errors", len(r.Errors)-maxShown)
			break
		}
		log.Printf("[zones-import] error: %s", msg)
	}
}

// Run connects to the database and imports the GeoJSON zone tree at
// cfg.Dir. Used by the standalone importer binary.
func Run(cfg Config) (*Report, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return RunWithStore(context.Background(), zones.NewRepository(gdb), cfg.Dir)
}

// RunWithStore imports a directory tree of district folders containing
// section GeoJSON files. Layout:
//
//	dir/
//	  district_04/
//	    section_001.geojson
//	    section_002_district_04.geojson
//	  section_012_district_03.geojson   (district taken from the file name)
//
// The district folder name is authoritative: when a file name or a feature
// property claims a different district, the folder wins and a warning is
// recorded. Files that cannot be parsed are reported and skipped; they
// never abort the run. All database writes happen in one transaction.
func RunWithStore(ctx context.Context, store zones.Store, dir string) (*Report, error) {
	report := &Report{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("read import dir: %w", err)
	}

	type sectionIn struct {
		districtCode string
		code         string
		name         string
		polygonWKT   string
	}
	var pending []sectionIn

	collect := func(path, fileName, dirDistrict string) {
		fileSection, fileDistrict, ok := parseSectionFile(fileName)
		if !ok {
			report.addWarning("%s: not a section file, skipped", path)
			return
		}

		districtCode := dirDistrict
		if districtCode == "" {
			districtCode = fileDistrict
		} else if fileDistrict != "" && fileDistrict != districtCode {
			report.addWarning("%s: file claims district %s, using folder district %s",
				path, fileDistrict, districtCode)
		}
		if districtCode == "" {
			report.addError("%s: no district in folder or file name", path)
			return
		}

		features, err := readFeatures(path)
		if err != nil {
			report.addError("%v", err)
			return
		}

		for i, f := range features {
			code := fileSection
			if csec := propCode(f, "csec"); csec != "" {
				code = pad3(csec)
			} else if len(features) > 1 {
				report.addError("%s: feature %d has no csec property", path, i)
				continue
			}

			if cdis := propCode(f, "cdis"); cdis != "" && pad2(cdis) != districtCode {
				report.addWarning("%s: feature claims district %s, using %s",
					path, pad2(cdis), districtCode)
			}

			if f.Geometry == nil {
				report.addError("%s: feature %d has no geometry", path, i)
				continue
			}
			switch f.Geometry.(type) {
			case orb.Polygon, orb.MultiPolygon:
			default:
				report.addError("%s: feature %d is a %s, expected a polygon",
					path, i, f.Geometry.GeoJSONType())
				continue
			}

			pending = append(pending, sectionIn{
				districtCode: districtCode,
				code:         code,
				name:         propString(f, "name"),
				polygonWKT:   geometry.MarshalWKT(f.Geometry),
			})
		}
	}

	for _, e := range entries {
		if e.IsDir() {
			districtCode := parseDistrictDir(e.Name())
			if districtCode == "" {
				report.addError("%s: unrecognized directory name, skipped", e.Name())
				continue
			}
			files, err := os.ReadDir(filepath.Join(dir, e.Name()))
			if err != nil {
				report.addError("read %s: %v", e.Name(), err)
				continue
			}
			for _, f := range files {
				if f.IsDir() {
					continue
				}
				collect(filepath.Join(dir, e.Name(), f.Name()), f.Name(), districtCode)
			}
			continue
		}
		collect(filepath.Join(dir, e.Name()), e.Name(), "")
	}

	if len(pending) == 0 {
		return report, nil
	}

	err = store.Transaction(ctx, func(tx zones.Store) error {
		seenDistricts := map[string]bool{}
		for _, in := range pending {
			if !seenDistricts[in.districtCode] {
				_, created, err := tx.UpsertDistrict(ctx, in.districtCode, "District "+in.districtCode)
				if err != nil {
					return err
				}
				if created {
					report.DistrictsCreated++
				}
				seenDistricts[in.districtCode] = true
			}

			_, created, err := tx.UpsertSection(ctx, in.districtCode, in.code, in.name, in.polygonWKT)
			if err != nil {
				return err
			}
			if created {
				report.SectionsCreated++
			} else {
				report.SectionsUpdated++
			}
		}
		return nil
	})
	if err != nil {
		report.DistrictsCreated = 0
		report.SectionsCreated = 0
		report.SectionsUpdated = 0
		report.addError("import rolled back: %v", err)
		return report, err
	}

	return report, nil
}
