package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"fleetcare/pkg/config"
	"fleetcare/seeders"
)

func main() {
	cfg := config.New()

	db, err := pgxpool.New(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("не удалось подключиться к базе: %v", err)
	}
	defer db.Close()

	seeders.SeedAll(db)
}
