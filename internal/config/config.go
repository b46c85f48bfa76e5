package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment (and a
// .env file in development).
type Config struct {
	Port           string        `env:"PORT"            envDefault:"5175"`
	LogLevel       string        `env:"LOG_LEVEL"       envDefault:"info"`
	LogPretty      bool          `env:"LOG_PRETTY"      envDefault:"false"`
	StoreDriver    string        `env:"STORE_DRIVER"    envDefault:"sqlite"`
	SQLitePath     string        `env:"SQLITE_PATH"     envDefault:"./data/arbiter.db"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	JWTSecret      string        `env:"JWT_SECRET"      envDefault:"dev_secret_change_me"`
	TokenTTL       time.Duration `env:"TOKEN_TTL"       envDefault:"24h"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN"   envDefault:"http://localhost:5173"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	Production     bool          `env:"PRODUCTION"      envDefault:"false"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads Config from the current environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
