package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rebelice/lazyview/internal/db/connection"
	"github.com/rebelice/lazyview/internal/db/credentials"
	"github.com/rebelice/lazyview/internal/db/postgres"
	"github.com/rebelice/lazyview/internal/db/sqlite"
	"github.com/rebelice/lazyview/internal/db/table"
	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/models"
	"github.com/rebelice/lazyview/internal/view"
)

// connFlags override the connection section of the config
type connFlags struct {
	host     string
	port     int
	database string
	user     string
	sslmode  string
}

func (f *connFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.host, "host", "", "database host")
	fs.IntVar(&f.port, "port", 0, "database port")
	fs.StringVarP(&f.database, "database", "d", "", "database name")
	fs.StringVarP(&f.user, "user", "U", "", "database user")
	fs.StringVar(&f.sslmode, "sslmode", "", "ssl mode")
}

// connectionConfig layers flags over PG* environment variables over the
// config file
func (f *connFlags) connectionConfig(cmd *cobra.Command, a *app) models.ConnectionConfig {
	var cfg models.ConnectionConfig
	changed := cmd.Flags().Changed
	if changed("host") {
		cfg.Host = f.host
	}
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("database") {
		cfg.Database = f.database
	}
	if changed("user") {
		cfg.User = f.user
	}
	if changed("sslmode") {
		cfg.SSLMode = f.sslmode
	}
	cfg = credentials.FromEnvironment(cfg)

	c := a.cfg.Connection
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&cfg.Host, c.Host)
	fill(&cfg.Database, c.Database)
	fill(&cfg.User, c.User)
	fill(&cfg.SSLMode, c.SSLMode)
	if cfg.Port == 0 {
		cfg.Port = c.Port
	}
	return credentials.ApplyDefaults(cfg)
}

// sourceFlags select the table rows are served from
type sourceFlags struct {
	driver   string
	path     string
	schema   string
	table    string
	idColumn string
	specPath string
	saved    string
	conn     connFlags
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "driver", "postgres", "database driver: postgres or sqlite")
	cmd.Flags().StringVar(&f.path, "path", "", "SQLite database file")
	cmd.Flags().StringVar(&f.schema, "schema", "public", "PostgreSQL schema")
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "table name")
	cmd.Flags().StringVar(&f.idColumn, "id-column", "id", "integer column identifying rows")
	cmd.Flags().StringVar(&f.specPath, "view", "", "view spec YAML file; field ids follow the column order starting at 1")
	cmd.Flags().StringVar(&f.saved, "saved", "", "name or id of a saved view")
	_ = cmd.MarkFlagRequired("table")
	f.conn.register(cmd.Flags())
}

// spec loads the view spec named by the flags. The saved view, if any,
// has its usage recorded.
func (f *sourceFlags) spec(a *app) (*view.Spec, error) {
	switch {
	case f.specPath != "" && f.saved != "":
		return nil, fmt.Errorf("--view and --saved are mutually exclusive")
	case f.specPath != "":
		return view.LoadSpec(f.specPath)
	case f.saved != "":
		store, err := view.NewStore(a.configDir)
		if err != nil {
			return nil, err
		}
		sv, err := store.Get(f.saved)
		if err != nil {
			return nil, err
		}
		if err := store.RecordUsage(sv.ID); err != nil {
			log := logging.Component("views")
			log.Warn().Err(err).Str("view", sv.Name).Msg("failed to record usage")
		}
		spec := sv.Spec
		return &spec, nil
	default:
		return &view.Spec{}, nil
	}
}

// open connects to the database and discovers the table. The returned
// close function releases the connection.
func (f *sourceFlags) open(ctx context.Context, cmd *cobra.Command, a *app, v models.View) (*table.Source, func(), error) {
	log := logging.Component("source")

	switch f.driver {
	case "sqlite":
		if f.path == "" {
			return nil, nil, fmt.Errorf("--path is required for the sqlite driver")
		}
		db, err := sqlite.Open(f.path)
		if err != nil {
			return nil, nil, err
		}
		src, err := db.OpenTable(ctx, a.reg, f.table, f.idColumn, v)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return src, func() { _ = db.Close() }, nil

	case "postgres":
		cfg := f.conn.connectionConfig(cmd, a)

		store, err := credentials.NewPasswordStore(a.configDir)
		if err != nil {
			log.Warn().Err(err).Msg("keyring unavailable, skipping stored passwords")
			store = nil
		}
		cfg, source := credentials.NewResolver(store, "").Resolve(cfg)
		log.Debug().Str("connection", cfg.String()).Stringer("password", source).Msg("resolved connection")

		pool, err := connection.NewPool(ctx, cfg, connection.PoolOptions{
			MaxConns:     int32(a.cfg.Connection.PoolSize),
			QueryTimeout: time.Duration(a.cfg.Connection.QueryTimeout) * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		src, err := postgres.Open(ctx, pool, a.reg, f.schema, f.table, f.idColumn, v)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return src, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown driver %q", f.driver)
	}
}
