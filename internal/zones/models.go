package zones

import (
	"time"

	"github.com/google/uuid"
)

// District is one of the city's administrative districts. Codes are
// zero-padded two-digit strings ("01", "02", ...) and stable once imported.
type District struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code      string    `gorm:"size:10;not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sections []Section `gorm:"foreignKey:DistrictCode;references:Code;constraint:OnDelete:CASCADE" json:"-"`
}

func (District) TableName() string { return "zones.districts" }

// Section is an administrative section inside a district, identified by the
// (district_code, code) pair with the section code zero-padded to 3 digits.
type Section struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code         string    `gorm:"size:10;not null;uniqueIndex:idx_zones_district_section" json:"code"`
	DistrictCode string    `gorm:"size:10;not null;uniqueIndex:idx_zones_district_section" json:"district_code"`
	Name         string    `gorm:"size:100" json:"name"`

	// Polygon is WKT text in WGS84 (lon/lat degrees, SRID 4326): a single
	// exterior ring for this domain. Spatial SQL casts it on the fly with
	// ST_GeomFromText; the in-process backend parses it with orb.
	Polygon string `gorm:"type:text;not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Section) TableName() string { return "zones.sections" }

// FullCode is the combined identifier shown to users, e.g. "04-001".
func (s *Section) FullCode() string {
	return s.DistrictCode + "-" + s.Code
}

// CityBoundary is the single enclosing polygon of all sections, used for
// city-limits validation of reported coordinates. Effectively a singleton
// row, replaced transactionally on recomputation.
type CityBoundary struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Polygon      string    `gorm:"type:text;not null" json:"-"`
	CalculatedAt time.Time `json:"calculated_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (CityBoundary) TableName() string { return "zones.city_boundary" }
