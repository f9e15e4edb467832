// Package credentials resolves connection settings and passwords from the
// places libpq users expect them.
package credentials

import (
	"errors"
	"os"

	"github.com/rs/zerolog"

	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/models"
)

// Resolver looks a password up in order: explicit, PGPASSWORD, keyring, .pgpass
type Resolver struct {
	store      *PasswordStore
	pgpassPath string
	log        zerolog.Logger
}

// NewResolver creates a resolver. store may be nil to skip the keyring and
// an empty pgpassPath uses PgPassPath.
func NewResolver(store *PasswordStore, pgpassPath string) *Resolver {
	if pgpassPath == "" {
		pgpassPath, _ = PgPassPath()
	}
	return &Resolver{
		store:      store,
		pgpassPath: pgpassPath,
		log:        logging.Component("credentials"),
	}
}

// Resolve fills cfg.Password and reports where it came from. Failing
// lookups are logged and skipped; a connection without password is valid.
func (r *Resolver) Resolve(cfg models.ConnectionConfig) (models.ConnectionConfig, models.PasswordSource) {
	if cfg.Password != "" {
		return cfg, models.PasswordExplicit
	}

	if p := os.Getenv("PGPASSWORD"); p != "" {
		cfg.Password = p
		return cfg, models.PasswordEnvironment
	}

	if r.store != nil {
		p, err := r.store.Get(cfg.Host, cfg.Port, cfg.Database, cfg.User)
		switch {
		case err == nil:
			cfg.Password = p
			return cfg, models.PasswordKeyring
		case !errors.Is(err, ErrPasswordNotFound):
			r.log.Warn().Err(err).Str("connection", cfg.String()).Msg("keyring lookup failed")
		}
	}

	if r.pgpassPath != "" {
		entries, err := ParsePgPass(r.pgpassPath)
		if err != nil {
			r.log.Warn().Err(err).Str("path", r.pgpassPath).Msg("failed to read .pgpass")
		} else if p, ok := FindPgPassPassword(entries, cfg.Host, cfg.Port, cfg.Database, cfg.User); ok {
			cfg.Password = p
			return cfg, models.PasswordPgPass
		}
	}

	return cfg, models.PasswordNone
}
