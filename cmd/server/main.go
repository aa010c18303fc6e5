package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/storage/redis/v3"
	"github.com/joho/godotenv"

	"opsbot/internal/config"
	"opsbot/internal/db"
	"opsbot/internal/handlers/api"
	"opsbot/internal/idempotency"
	"opsbot/internal/jobs"
	"opsbot/internal/metrics"
	"opsbot/internal/resolve"
	"opsbot/internal/server"
	"opsbot/internal/tools"

	fuzzyclient "opsbot/internal/fuzzy"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}
	cfg := config.Load()

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	if cfg.IsDev() {
		if err := database.SeedDevEntities(ctx); err != nil {
			log.Printf("Warning: failed to seed dev entities: %v", err)
		}
	}

	metrics.Init()

	// Optional redis cache for fuzzy search responses
	var searchCache fiber.Storage
	if cfg.RedisURL != "" {
		searchCache = redis.New(redis.Config{URL: cfg.RedisURL})
		log.Println("Fuzzy search response cache enabled")
	}

	// Fuzzy search collaborator: remote service when configured, otherwise
	// the built-in matcher over the local database.
	var searcher resolve.Searcher
	if cfg.FuzzySearchURL != "" {
		searcher = fuzzyclient.NewClient(cfg.FuzzySearchURL)
		log.Printf("Using remote fuzzy search at %s", cfg.FuzzySearchURL)
	} else {
		searcher = fuzzyclient.NewMatcher(database)
	}

	resolver := resolve.New(cfg.Fuzzy, searcher, database)
	coordinator := idempotency.New(database, time.Duration(cfg.IdempotencyWaitMs)*time.Millisecond)
	registry := tools.NewRegistry(&tools.Deps{
		DB:          database,
		Coordinator: coordinator,
		Resolver:    resolver,
	})

	srv := server.New(cfg)
	srv.RegisterRoutes(&server.Handlers{
		Tools:  api.NewToolsHandler(registry),
		Search: api.NewSearchHandler(fuzzyclient.NewMatcher(database), searchCache),
		Health: api.NewHealthHandler(database),
	})

	// Background monitor for idempotency records stuck in progress
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	monitor := jobs.NewLedgerMonitor(database, 5*time.Minute, 30*time.Minute)
	go monitor.Start(jobCtx)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		cancelJobs()
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on %s", cfg.ServerAddr)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
