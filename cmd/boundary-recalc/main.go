package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/CiviMap/CM-Backend/internal/db"
	"github.com/CiviMap/CM-Backend/internal/zones"
)

func main() {
	name := flag.String("name", "", "override boundary display name")
	flag.Parse()

	_ = godotenv.Load(".env.local")
	db.Connect()

	cfg, err := zones.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load zones config: ", err)
	}
	if *name != "" {
		cfg.BoundaryName = *name
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid zones config: ", err)
	}

	svc := zones.NewServiceForDB(db.DB, db.HasPostGIS(db.DB), cfg)

	boundary, err := svc.RecalculateBoundary(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	if boundary == nil {
		log.Fatal("no valid section geometry, nothing recalculated")
	}
	log.Printf("boundary %q recalculated at %s", boundary.Name, boundary.CalculatedAt)
}
