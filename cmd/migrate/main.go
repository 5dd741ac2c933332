package main

import (
	"context"
	"log"
	"os"

	"hsedash/adapters/excel"
	"hsedash/adapters/postgres"
	"hsedash/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [findings_file] [locations_file]")
	}

	databaseURL := os.Args[1]
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Schema version %s applied", runner.Version())

	repo := postgres.NewFindingRepository(db)

	if len(os.Args) > 2 {
		raw, err := excel.NewDataReader(os.Args[2]).ReadData(ctx)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", os.Args[2], err)
		}
		n, err := repo.ReplaceFindings(ctx, raw)
		if err != nil {
			log.Fatalf("Failed to import findings: %v", err)
		}
		log.Printf("Imported %d findings from %s", n, os.Args[2])
	}

	if len(os.Args) > 3 {
		reader := excel.NewDataReader("")
		locations, err := reader.ReadLocations(ctx, os.Args[3])
		if err != nil {
			log.Fatalf("Failed to read %s: %v", os.Args[3], err)
		}
		if err := repo.UpsertLocations(ctx, locations); err != nil {
			log.Fatalf("Failed to import locations: %v", err)
		}
		log.Printf("Imported %d locations from %s", len(locations), os.Args[3])
	}

	log.Println("Migration completed")
}
