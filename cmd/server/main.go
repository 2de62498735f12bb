package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"portaria-backend/internal/auth"
	"portaria-backend/internal/config"
	"portaria-backend/internal/database"
	"portaria-backend/internal/db"
	"portaria-backend/internal/handlers"
	"portaria-backend/internal/health"
	"portaria-backend/internal/middleware"
	"portaria-backend/internal/realtime"
	"portaria-backend/internal/repositories"
	"portaria-backend/internal/router"
	"portaria-backend/internal/services"
	"portaria-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	skipMigrations := flag.Bool("skip-migrations", false, "Do not run schema migrations on startup")
	migrationsDir := flag.String("migrations-dir", "", "Run migrations from this directory instead of the embedded copies")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	if !*skipMigrations {
		migrator := database.NewMigratorWithFS(pool, migrations.FS, "migrations")
		if *migrationsDir != "" {
			migrator = database.NewMigrator(pool, *migrationsDir)
		}
		if err := migrator.Run(context.Background()); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	jwtManager := auth.NewJWTManager(cfg)

	accessRepo := repositories.NewAccessRequestRepository(pool)
	stationRepo := repositories.NewGateStationRepository(pool)
	professionalRepo := repositories.NewProfessionalRepository(pool)
	userRepo := repositories.NewUserRepository(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	directory := services.NewGateDirectory(stationRepo)
	accessService := services.NewAccessService(accessRepo, professionalRepo, directory, hub)

	sweeper := services.NewSweeper(accessRepo,
		time.Duration(cfg.Sweeper.TTLHours)*time.Hour,
		time.Duration(cfg.Sweeper.IntervalMinutes)*time.Minute)
	go sweeper.Run(ctx)

	accessHandler := handlers.NewAccessHandler(accessService)
	stationHandler := handlers.NewGateStationHandler(directory)
	authHandler := handlers.NewAuthHandler(userRepo, jwtManager)
	wsHandler := handlers.NewWSHandler(hub, directory)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool))

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)
	corsMiddleware := middleware.NewCORS(cfg)

	r := router.New(accessHandler, stationHandler, authHandler, wsHandler, healthHandler, authMiddleware)
	handler := corsMiddleware(r)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
