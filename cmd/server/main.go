package main

import (
	"context"
	"database/sql"
	"errors"
	"field-route-service/internal/adapters/cache"
	"field-route-service/internal/adapters/distance"
	"field-route-service/internal/adapters/repositories"
	"field-route-service/internal/api"
	"field-route-service/internal/api/handlers"
	"field-route-service/internal/config"
	"field-route-service/internal/platform/db"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"field-route-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// main is the application composition root.
// It wires concrete adapters (SQL directory, leg cache, ORS) behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	obs.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if envErr != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, dialect, err := db.OpenFromEnv(cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ctx, conn, dialect, cfg); err != nil {
		log.Fatal().Err(err).Msg("init database")
	}

	checks := map[string]handlers.HealthCheck{"database": conn.PingContext}

	var legCache ports.LegCache = cache.NewSQLLegCache(conn, dialect)
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisLegCacheFromURL(ctx, cfg.RedisURL, cfg.LegCacheTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis leg cache")
		}
		defer rc.Close()
		legCache = rc
		checks["redis"] = rc.Ping
	}

	// Without an ORS key every plan uses great-circle distances.
	var router ports.RoadRouter
	if cfg.RoadRoutingEnabled() {
		ors, err := distance.NewORSClient(cfg.ORSAPIKey, distance.ORSOptions{
			BaseURL:           cfg.ORSBaseURL,
			Profile:           cfg.ORSProfile,
			RequestsPerSecond: cfg.ORSRateLimit,
			Burst:             cfg.ORSBurst,
			Timeout:           cfg.RoadTimeout,
			LegCache:          legCache,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("create ORS client")
		}
		router = ors
	} else {
		log.Warn().Msg("ORS_API_KEY not set, road routing disabled")
	}

	directory := repositories.NewSQLBranchDirectory(conn, dialect)
	planner := services.NewPlanningService(
		directory,
		router,
		services.NewRouteOptimizer(cfg.OptimizerMaxPasses),
		services.PlanningOptions{
			MaxClients:     cfg.MaxClients,
			DefaultClients: cfg.DefaultClients,
			PlanTimeout:    cfg.PlanTimeout,
			RoadTimeout:    cfg.RoadTimeout,
			LegConcurrency: cfg.RoadLegConcurrency,
			FallbackFactor: cfg.RoadFallbackFactor,
			FuelCostPerKm:  cfg.FuelCostPerKm,
		},
	)

	handler := api.NewRouter(api.RouterDeps{
		Planner:        planner,
		Directory:      directory,
		AllowedOrigins: cfg.AllowedOrigins(),
		HealthChecks:   checks,
	})

	// Write timeout leaves room for PLAN_TIMEOUT plus serialization.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.PlanTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().
		Str("addr", srv.Addr).
		Str("db", string(dialect)).
		Bool("road_routing", router != nil).
		Msg("Server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, cfg config.Config) error {
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return err
	}

	if !cfg.SeedOnStart {
		return nil
	}

	data, err := repositories.LoadSeedFile(cfg.SeedPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", cfg.SeedPath).Msg("seed file not found, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	if err := repositories.Seed(ctx, conn, dialect, data); err != nil {
		return err
	}

	log.Info().
		Int("branches", len(data.Branches)).
		Int("clients", len(data.Clients)).
		Msg("seed data loaded")
	return nil
}
