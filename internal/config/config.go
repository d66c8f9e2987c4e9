// Package config binds environment variables (optionally loaded from .env)
// into the typed settings shared by the server and the database tool.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"port"`
	DatabaseURL        string        `mapstructure:"database_url"`
	DBPath             string        `mapstructure:"db_path"`
	SeedPath           string        `mapstructure:"seed_path"`
	SeedOnStart        bool          `mapstructure:"seed_on_start"`
	RedisURL           string        `mapstructure:"redis_url"`
	LegCacheTTL        time.Duration `mapstructure:"leg_cache_ttl"`
	ORSAPIKey          string        `mapstructure:"ors_api_key"`
	ORSBaseURL         string        `mapstructure:"ors_base_url"`
	ORSProfile         string        `mapstructure:"ors_profile"`
	ORSRateLimit       float64       `mapstructure:"ors_rate_limit"`
	ORSBurst           int           `mapstructure:"ors_burst"`
	RoadTimeout        time.Duration `mapstructure:"road_timeout"`
	RoadLegConcurrency int           `mapstructure:"road_leg_concurrency"`
	RoadFallbackFactor float64       `mapstructure:"road_fallback_tortuosity"`
	MaxClients         int           `mapstructure:"planning_max_clients"`
	DefaultClients     int           `mapstructure:"planning_default_clients"`
	PlanTimeout        time.Duration `mapstructure:"plan_timeout"`
	OptimizerMaxPasses int           `mapstructure:"optimizer_max_passes"`
	FuelCostPerKm      float64       `mapstructure:"fuel_cost_per_km"`
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"port":                     "8080",
	"database_url":             "",
	"db_path":                  "data/app.db",
	"seed_path":                "data/seeds/branches.json",
	"seed_on_start":            true,
	"redis_url":                "",
	"leg_cache_ttl":            "168h",
	"ors_api_key":              "",
	"ors_base_url":             "https://api.openrouteservice.org",
	"ors_profile":              "driving-car",
	"ors_rate_limit":           2.0,
	"ors_burst":                4,
	"road_timeout":             "4s",
	"road_leg_concurrency":     4,
	"road_fallback_tortuosity": 1.0,
	"planning_max_clients":     200,
	"planning_default_clients": 4,
	"plan_timeout":             "30s",
	"optimizer_max_passes":     50,
	"fuel_cost_per_km":         5.5,
	"cors_allowed_origins":     "*",
	"log_level":                "info",
	"log_format":               "json",
}

// Load reads settings from the process environment.
// Call godotenv.Load beforehand to pick up a local .env file.
func Load() (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must be non-empty")
	}
	if c.MaxClients < 1 {
		return fmt.Errorf("PLANNING_MAX_CLIENTS must be >= 1, got %d", c.MaxClients)
	}
	if c.DefaultClients < 0 || c.DefaultClients > c.MaxClients {
		return fmt.Errorf("PLANNING_DEFAULT_CLIENTS must be in [0, %d], got %d", c.MaxClients, c.DefaultClients)
	}
	if c.OptimizerMaxPasses < 1 {
		return fmt.Errorf("OPTIMIZER_MAX_PASSES must be >= 1, got %d", c.OptimizerMaxPasses)
	}
	if c.RoadTimeout <= 0 {
		return fmt.Errorf("ROAD_TIMEOUT must be positive, got %s", c.RoadTimeout)
	}
	if c.RoadLegConcurrency < 1 {
		return fmt.Errorf("ROAD_LEG_CONCURRENCY must be >= 1, got %d", c.RoadLegConcurrency)
	}
	if c.RoadFallbackFactor < 1 {
		return fmt.Errorf("ROAD_FALLBACK_TORTUOSITY must be >= 1, got %g", c.RoadFallbackFactor)
	}
	return nil
}

// RoadRoutingEnabled reports whether an OpenRouteService key is configured.
func (c Config) RoadRoutingEnabled() bool {
	return strings.TrimSpace(c.ORSAPIKey) != ""
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
