package zones

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Repository is the gorm implementation of Store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) UpsertDistrict(ctx context.Context, code, name string) (*District, bool, error) {
	var d District
	err := r.db.WithContext(ctx).First(&d, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d = District{Code: code, Name: name}
		if err := r.db.WithContext(ctx).Create(&d).Error; err != nil {
			return nil, false, fmt.Errorf("create district %s: %w", code, err)
		}
		return &d, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup district %s: %w", code, err)
	}
	if name != "" && name != d.Name {
		d.Name = name
		if err := r.db.WithContext(ctx).Save(&d).Error; err != nil {
			return nil, false, fmt.Errorf("update district %s: %w", code, err)
		}
	}
	return &d, false, nil
}

func (r *Repository) ListDistricts(ctx context.Context) ([]District, error) {
	var districts []District
	err := r.db.WithContext(ctx).Order("code").Find(&districts).Error
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return districts, nil
}

func (r *Repository) UpsertSection(ctx context.Context, districtCode, code, name, polygonWKT string) (*Section, bool, error) {
	var s Section
	err := r.db.WithContext(ctx).
		First(&s, "district_code = ? AND code = ?", districtCode, code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = Section{Code: code, DistrictCode: districtCode, Name: name, Polygon: polygonWKT}
		if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
			return nil, false, fmt.Errorf("create section %s-%s: %w", districtCode, code, err)
		}
		return &s, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup section %s-%s: %w", districtCode, code, err)
	}
	s.Polygon = polygonWKT
	if name != "" {
		s.Name = name
	}
	if err := r.db.WithContext(ctx).Save(&s).Error; err != nil {
		return nil, false, fmt.Errorf("update section %s-%s: %w", districtCode, code, err)
	}
	return &s, false, nil
}

func (r *Repository) ListSections(ctx context.Context) ([]Section, error) {
	var sections []Section
	err := r.db.WithContext(ctx).
		Order("district_code, code").
		Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

func (r *Repository) ListSectionsByDistricts(ctx context.Context, districtCodes []string) ([]Section, error) {
	var sections []Section
	err := r.db.WithContext(ctx).
		Where("district_code = ANY(?)", pq.Array(districtCodes)).
		Order("district_code, code").
		Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("list sections by districts: %w", err)
	}
	return sections, nil
}

func (r *Repository) UpdateSectionPolygon(ctx context.Context, id uuid.UUID, polygonWKT string) error {
	err := r.db.WithContext(ctx).
		Model(&Section{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"polygon": polygonWKT, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("update section polygon %s: %w", id, err)
	}
	return nil
}

func (r *Repository) GetBoundary(ctx context.Context) (*CityBoundary, error) {
	var b CityBoundary
	err := r.db.WithContext(ctx).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get boundary: %w", err)
	}
	return &b, nil
}

func (r *Repository) ReplaceBoundary(ctx context.Context, name, polygonWKT string) (*CityBoundary, error) {
	now := time.Now()

	var b CityBoundary
	err := r.db.WithContext(ctx).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b = CityBoundary{Name: name, Polygon: polygonWKT, CalculatedAt: now}
		if err := r.db.WithContext(ctx).Create(&b).Error; err != nil {
			return nil, fmt.Errorf("create boundary: %w", err)
		}
		return &b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup boundary: %w", err)
	}

	b.Name = name
	b.Polygon = polygonWKT
	b.CalculatedAt = now
	if err := r.db.WithContext(ctx).Save(&b).Error; err != nil {
		return nil, fmt.Errorf("update boundary: %w", err)
	}
	return &b, nil
}

// FindSectionContaining is the PostGIS point-in-polygon fast path. The
// boundary-inclusive ST_Covers matches the in-process convention.
func (r *Repository) FindSectionContaining(ctx context.Context, lat, lng float64) (*Section, error) {
	query := `
		SELECT id, code, district_code, name, polygon, created_at, updated_at
		FROM zones.sections
		WHERE ST_Covers(
			ST_MakeValid(ST_GeomFromText(polygon, 4326)),
			ST_SetSRID(ST_MakePoint($1, $2), 4326)
		)
		ORDER BY district_code, code
		LIMIT 1
	`

	rows, err := r.db.WithContext(ctx).Raw(query, lng, lat).Rows()
	if err != nil {
		return nil, fmt.Errorf("section containment query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var s Section
	if err := rows.Scan(&s.ID, &s.Code, &s.DistrictCode, &s.Name, &s.Polygon,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan section: %w", err)
	}
	return &s, nil
}

// BoundaryCovers checks the stored city boundary against a point using
// spatial SQL. Returns ErrNoBoundary when no boundary row exists.
func (r *Repository) BoundaryCovers(ctx context.Context, lat, lng float64) (bool, error) {
	query := `
		SELECT ST_Covers(
			ST_MakeValid(ST_GeomFromText(polygon, 4326)),
			ST_SetSRID(ST_MakePoint($1, $2), 4326)
		)
		FROM zones.city_boundary
		LIMIT 1
	`

	rows, err := r.db.WithContext(ctx).Raw(query, lng, lat).Rows()
	if err != nil {
		return false, fmt.Errorf("boundary containment query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, err
		}
		return false, ErrNoBoundary
	}

	var covered bool
	if err := rows.Scan(&covered); err != nil {
		return false, fmt.Errorf("scan boundary coverage: %w", err)
	}
	return covered, nil
}

func (r *Repository) Transaction(ctx context.Context, fn func(Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

var _ Store = (*Repository)(nil)
