package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"decisionsim/adapters/sqlstore"
	"decisionsim/internal/migration"
)

func main() {
	_ = godotenv.Load()

	driver := flag.String("driver", envOr("STORAGE_DRIVER", "postgres"), "database driver: postgres or sqlite")
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "database URL or sqlite file path")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("Usage: migrate -driver <postgres|sqlite> -dsn <database_url>")
	}

	log.Printf("Running schema %s on %s", migration.NewRunner().Version(), *driver)

	// Open runs the migration runner before returning
	db, err := sqlstore.Open(context.Background(), *driver, *dsn)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	log.Println("Migration complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
