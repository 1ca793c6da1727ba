package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/CiviMap/CM-Backend/internal/db"
	"github.com/CiviMap/CM-Backend/internal/zones"
)

func main() {
	var (
		strategy = flag.String("strategy", "targeted", "repair strategy: targeted or uniform")
		gridCell = flag.Float64("grid-cell", 0, "override snap grid cell size in degrees")
		buffer   = flag.Float64("buffer", 0, "override buffer distance in degrees")
		maxGap   = flag.Float64("max-gap", 0, "override gap search radius in degrees")
	)
	flag.Parse()

	s := zones.RepairStrategy(*strategy)
	if s != zones.RepairTargeted && s != zones.RepairUniform {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load(".env.local")
	db.Connect()

	cfg, err := zones.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load zones config: ", err)
	}
	if *gridCell > 0 {
		cfg.GridCell = *gridCell
	}
	if *buffer > 0 {
		cfg.BufferDistance = *buffer
	}
	if *maxGap > 0 {
		cfg.MaxGap = *maxGap
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid zones config: ", err)
	}

	svc := zones.NewServiceForDB(db.DB, db.HasPostGIS(db.DB), cfg)

	report, err := svc.RepairGaps(context.Background(), s)
	report.LogSummary()
	if err != nil {
		log.Fatal(err)
	}
}
