package credentials

import (
	"os"
	"strconv"

	"github.com/rebelice/lazyview/internal/models"
)

// ApplyEnvironment fills empty connection settings from the libpq
// environment variables (PGHOST, PGPORT, PGDATABASE, PGUSER, PGSSLMODE),
// then from the libpq defaults. Explicit settings win over the environment.
func ApplyEnvironment(cfg models.ConnectionConfig) models.ConnectionConfig {
	return ApplyDefaults(FromEnvironment(cfg))
}

// FromEnvironment fills empty connection settings from the libpq
// environment variables only
func FromEnvironment(cfg models.ConnectionConfig) models.ConnectionConfig {
	if cfg.Host == "" {
		cfg.Host = os.Getenv("PGHOST")
	}
	if cfg.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PGPORT")); err == nil && p > 0 && p <= 65535 {
			cfg.Port = p
		}
	}
	if cfg.User == "" {
		cfg.User = os.Getenv("PGUSER")
	}
	if cfg.Database == "" {
		cfg.Database = os.Getenv("PGDATABASE")
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = os.Getenv("PGSSLMODE")
	}
	return cfg
}

// ApplyDefaults fills what is still empty the way libpq does: local host,
// port 5432, the OS user and a database named after the user
func ApplyDefaults(cfg models.ConnectionConfig) models.ConnectionConfig {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.User == "" {
		cfg.User = os.Getenv("USER")
	}
	if cfg.Database == "" {
		cfg.Database = cfg.User
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}
	return cfg
}
