package zones

import (
	"log"

	"github.com/CiviMap/CM-Backend/internal/db"
)

// Svc is the process-wide zone service, initialized in Init() after the
// database connection is up.
var Svc *Service

func Init() {
	if err := db.EnsureSchema(db.DB, "zones"); err != nil {
		log.Fatal("Failed to ensure schema zones: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension:", err)
	}

	if err := db.DB.AutoMigrate(
		&District{},
		&Section{},
		&CityBoundary{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load zones config: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid zones config: ", err)
	}

	Svc = NewServiceForDB(db.DB, db.HasPostGIS(db.DB), cfg)
}
