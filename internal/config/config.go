// Package config loads application configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/blogia/internal/supabase"
)

// Config is everything the binaries need from the environment.
type Config struct {
	Port      int
	Supabase  supabase.Config
	JWTSecret string
	DBPath    string
}

// Load reads configuration. A .env file in the working directory is applied
// first when present; real environment variables win over it.
func Load() (Config, error) {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := Config{
		Port:   8080,
		DBPath: "data/blogia.db",
		Supabase: supabase.Config{
			URL:        os.Getenv("SUPABASE_URL"),
			AnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
			Timeout:    supabase.DefaultTimeout,
		},
		JWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("BLOGIA_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SUPABASE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid SUPABASE_TIMEOUT %q: %w", v, err)
		}
		cfg.Supabase.Timeout = d
	}

	return cfg, nil
}
