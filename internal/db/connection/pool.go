package connection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/models"
)

// PoolOptions tunes the pool and its queries
type PoolOptions struct {
	MaxConns     int32
	QueryTimeout time.Duration
}

// Pool wraps pgxpool with our configuration
type Pool struct {
	pool    *pgxpool.Pool
	config  models.ConnectionConfig
	timeout time.Duration
	log     zerolog.Logger
}

// NewPool creates a new connection pool and pings the server
func NewPool(ctx context.Context, config models.ConnectionConfig, opts PoolOptions) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	poolConfig.MaxConns = 5
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log := logging.Component("pool").With().Str("connection", config.String()).Logger()
	log.Debug().Int32("max_conns", poolConfig.MaxConns).Msg("connected")

	return &Pool{
		pool:    pool,
		config:  config,
		timeout: opts.QueryTimeout,
		log:     log,
	}, nil
}

// Close closes the connection pool
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Ping tests the connection
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Config returns the connection settings without the password
func (p *Pool) Config() models.ConnectionConfig {
	cfg := p.config
	cfg.Password = ""
	return cfg
}

// Query executes a query and returns each row keyed by column name. Values
// are returned as decoded by pgx.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []map[string]any
	fieldDescriptions := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]any, len(values))
		for i, fd := range fieldDescriptions {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.log.Debug().Dur("took", time.Since(start)).Int("rows", len(results)).Msg("query")
	return results, nil
}

// buildConnectionString creates a PostgreSQL keyword/value connection string
func buildConnectionString(config models.ConnectionConfig) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	parts := []string{
		"host=" + quoteValue(config.Host),
		fmt.Sprintf("port=%d", config.Port),
		"user=" + quoteValue(config.User),
		"dbname=" + quoteValue(config.Database),
		"sslmode=" + quoteValue(sslMode),
	}
	if config.Password != "" {
		parts = append(parts, "password="+quoteValue(config.Password))
	}
	return strings.Join(parts, " ")
}

// quoteValue quotes a keyword/value connection string value when needed
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}
