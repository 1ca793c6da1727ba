package db

import (
	"log"

	"gorm.io/gorm"
)

func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}

// HasPostGIS reports whether the connected database exposes the PostGIS
// extension. Checked once at startup; callers use the answer to decide
// between native spatial SQL and the in-process geometry fallback.
func HasPostGIS(d *gorm.DB) bool {
	var version string
	if err := d.Raw(`SELECT PostGIS_Version()`).Scan(&version).Error; err != nil {
		log.Printf("[db] PostGIS not available, spatial SQL disabled: %v", err)
		return false
	}
	log.Printf("[db] PostGIS %s detected", version)
	return true
}
