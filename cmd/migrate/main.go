package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/samirrijal/trailpace/internal/adapters/sqlite"
	"github.com/samirrijal/trailpace/internal/pkg/config"
)

var postgresMigrations = []string{
	"migrations/001_predictions.sql",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg, err := config.Load("trailpace-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "up":
		switch cfg.Storage.Driver {
		case config.StoragePostgres:
			migratePostgres(ctx, cfg.Database.DSN())
		case config.StorageSQLite:
			migrateSQLite(ctx, cfg.Storage.SQLitePath)
		default:
			log.Fatalf("storage.driver is %q, nothing to migrate", cfg.Storage.Driver)
		}
	case "down":
		log.Println("down migration not supported; drop the predictions table by hand")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func migratePostgres(ctx context.Context, dsn string) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	for _, f := range postgresMigrations {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

func migrateSQLite(ctx context.Context, path string) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		log.Fatalf("sqlite: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate %s: %v", path, err)
	}
	fmt.Printf("OK  %s\n", path)
}
