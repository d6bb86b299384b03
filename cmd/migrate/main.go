// Package main applies the embedded schema to the Supabase Postgres database
// named by DATABASE_URL.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/watxaut/FontsReviewerApp/internal/config"
	"github.com/watxaut/FontsReviewerApp/internal/platform/migrations"
)

func main() {
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	list := flag.Bool("list", false, "Print the migrations in apply order and exit")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	if *list {
		all, err := migrations.List()
		if err != nil {
			log.Fatalf("list migrations: %v", err)
		}
		for _, m := range all {
			fmt.Println(m.Name)
		}
		return
	}

	// A missing file is fine; the environment may already be populated.
	_ = godotenv.Load(*envFile)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !cfg.HasDatabase() {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}
	if err := migrations.Apply(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("migrations applied")
}
