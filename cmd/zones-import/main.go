package main

import (
	"flag"
	"log"
	"os"

	"github.com/CiviMap/CM-Backend/internal/zoneimport"
)

func main() {
	var (
		dir   = flag.String("dir", "", "directory with district folders of section GeoJSON files")
		dbURL = flag.String("db", os.Getenv("DATABASE_URL"), "DATABASE_URL")
	)
	flag.Parse()

	if *dir == "" || *dbURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	report, err := zoneimport.Run(zoneimport.Config{Dir: *dir, DatabaseURL: *dbURL})
	if report != nil {
		report.LogSummary()
	}
	if err != nil {
		log.Fatal(err)
	}
}
