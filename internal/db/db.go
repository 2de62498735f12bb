package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"portaria-backend/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the PostgreSQL pool and verifies it with a ping. The server
// cannot do anything useful without its ledger, so failure is fatal.
func Connect(cfg *config.Config) *pgxpool.Pool {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password,
		cfg.Database.Name, cfg.Database.SSLMode, cfg.Database.MaxConns)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatalf("db: parse config: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("db: ping %s:%d/%s: %v", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name, err)
	}

	log.Printf("db: connected to %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	return pool
}
