// Package postgres stores published artifacts and queued training jobs in
// PostgreSQL. Artifacts are insert-only; jobs are inserted through River so a
// training run can be queued in the same transaction as the rows it reads.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const dialect = "postgres"

// Options configures the connection to the artifact database.
type Options struct {
	Username string
	Password string
	Host     string
	Port     int
	Database string
	// SslMode is passed through as the sslmode parameter, empty leaves the
	// driver default.
	SslMode string
	// ApplicationName shows up in pg_stat_activity.
	ApplicationName string

	// ConnectTimeout bounds dialing and the startup ping, 0 waits for ctx only.
	ConnectTimeout     time.Duration
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	MaxOpenConnections int
	MaxIdleConnections int
}

// DSN returns the connection URL described by o. Credentials are escaped, so
// passwords may contain any character.
func (o Options) DSN() string {
	query := url.Values{}
	if o.SslMode != "" {
		query.Set("sslmode", o.SslMode)
	}
	if o.ApplicationName != "" {
		query.Set("application_name", o.ApplicationName)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.Username, o.Password),
		Host:     net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:     "/" + o.Database,
		RawQuery: query.Encode(),
	}

	return u.String()
}

// poolConfig turns o into a pgxpool configuration. Zero limits keep the
// pgxpool defaults.
func (o Options) poolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(o.DSN())
	if err != nil {
		return nil, fmt.Errorf("could not parse postgres dsn: %w", err)
	}

	if o.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = o.ConnectTimeout
	}
	if o.MaxOpenConnections > 0 {
		cfg.MaxConns = int32(o.MaxOpenConnections) //nolint: gosec
	}
	if o.MaxIdleConnections > 0 {
		cfg.MinConns = int32(min(o.MaxIdleConnections, int(cfg.MaxConns))) //nolint: gosec
	}
	if o.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = o.ConnMaxLifetime
	}
	if o.ConnMaxIdleTime > 0 {
		cfg.MaxConnIdleTime = o.ConnMaxIdleTime
	}

	return cfg, nil
}

// DB is the part of database/sql both *sql.DB and *sql.Tx provide, so artifact
// and job queries run the same way inside and outside a transaction.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Builder builds the artifact queries. goqu database and transaction handles
// both satisfy it. There is no Update: artifacts are never modified.
type Builder interface {
	From(table ...any) *goqu.SelectDataset
	Insert(table any) *goqu.InsertDataset
}

// PgSQL implements storage.AllStorage on PostgreSQL.
type PgSQL struct {
	// DB is a *sql.DB, or a *sql.Tx for handles returned by Begin.
	DB DB
	// Builder is bound to DB.
	Builder Builder
	// Pool is nil for transactional handles.
	Pool *pgxpool.Pool
}

// New connects to the database described by options and pings it, so a wrong
// address or credentials fail here rather than on the first publish.
func New(ctx context.Context, options Options) (*PgSQL, error) {
	cfg, err := options.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create pgx pool: %w", err)
	}

	pingCtx := ctx
	if options.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, options.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("could not reach postgres at %s: %w", net.JoinHostPort(options.Host, strconv.Itoa(options.Port)), err)
	}

	// goqu, goose and river's database/sql driver all work on *sql.DB
	sqlDB := stdlib.OpenDBFromPool(pool)

	return &PgSQL{
		DB:      sqlDB,
		Builder: goqu.Dialect(dialect).DB(sqlDB),
		Pool:    pool,
	}, nil
}

// Close releases the connection pool. Transactional handles own no
// connections and closing them is a no-op.
func (p *PgSQL) Close() error {
	if db, ok := p.DB.(*sql.DB); ok {
		if err := db.Close(); err != nil {
			return fmt.Errorf("could not close postgres connection: %w", err)
		}
	}
	if p.Pool != nil {
		p.Pool.Close()
	}

	return nil
}
