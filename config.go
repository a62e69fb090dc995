package userbase

import (
	"os"
	"strconv"

	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// DefaultSigningKey is only acceptable for local development. Deployments set
// USERBASE_SIGNING_KEY or the signing_key config field.
const DefaultSigningKey = "dev-secret-change-me"

// BootstrapAdmin describes the admin account seeded into an empty store so the
// administrator-gated endpoints are reachable on first boot.
type BootstrapAdmin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Config holds the service configuration. Values come from an optional YAML
// file with environment variables taking precedence.
type Config struct {
	HTTPAddr        string         `yaml:"http_addr"`
	DatabaseDSN     string         `yaml:"database_dsn"`
	SigningKey      string         `yaml:"signing_key"`
	TokenExpiration int            `yaml:"token_expiration_hours"`
	Issuer          string         `yaml:"issuer"`
	Bootstrap       BootstrapAdmin `yaml:"bootstrap_admin"`
}

// LoadConfig reads the YAML file at path (when non-empty) and applies env
// overrides on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		HTTPAddr:        ":8080",
		DatabaseDSN:     "file:userbase.db?cache=shared",
		SigningKey:      DefaultSigningKey,
		TokenExpiration: 24,
		Issuer:          "userbase",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read config file")
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to parse config file")
		}
	}

	applyEnv(cfg)

	if cfg.TokenExpiration <= 0 {
		cfg.TokenExpiration = 24
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenv("USERBASE_HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseDSN = getenv("USERBASE_DB_DSN", cfg.DatabaseDSN)
	cfg.SigningKey = getenv("USERBASE_SIGNING_KEY", cfg.SigningKey)
	cfg.Issuer = getenv("USERBASE_ISSUER", cfg.Issuer)

	if v := os.Getenv("USERBASE_TOKEN_TTL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			cfg.TokenExpiration = hours
		}
	}

	cfg.Bootstrap.Username = getenv("USERBASE_ADMIN_USERNAME", cfg.Bootstrap.Username)
	cfg.Bootstrap.Email = getenv("USERBASE_ADMIN_EMAIL", cfg.Bootstrap.Email)
	cfg.Bootstrap.Password = getenv("USERBASE_ADMIN_PASSWORD", cfg.Bootstrap.Password)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
