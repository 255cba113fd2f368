// migrate-to-postgres copies stored quests from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/questgen.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user questgen \
//	    -pg-password questgen \
//	    -pg-database questgen
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/paniker63/the-tale/internal/database"
)

func main() {
	// Parse command-line flags
	sqlitePath := flag.String("sqlite", "data/questgen.db", "Path to SQLite database")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "questgen", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "questgen", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "questgen", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Quest Migration")
	log.Println("====================================")

	if _, err := os.Stat(*sqlitePath); err != nil {
		log.Fatalf("SQLite database not found: %v", err)
	}
	log.Printf("Opening SQLite database: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer src.Close()

	pg := database.DefaultPostgresConfig()
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	// Opening runs the schema migrations
	log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	dst, err := database.OpenWithConfig(database.Config{Driver: "postgres", Postgres: pg})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer dst.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	count, err := database.CopyQuests(context.Background(), src, dst, *dryRun)
	if err != nil {
		log.Fatalf("Failed to migrate quests: %v", err)
	}

	log.Println("====================================")
	log.Printf("Migration complete! Quests migrated: %d", count)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}
