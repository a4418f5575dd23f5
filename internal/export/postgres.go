package export

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

const insertSampleQuery = `
	INSERT INTO request_samples (id, recorded_at, endpoint, method, status, latency_ms, error)
	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	ON CONFLICT (id) DO NOTHING
`

// ErrSchemaMissing is returned when the request_samples table does not exist.
var ErrSchemaMissing = errors.New("request_samples table is missing")

// PostgresObserver archives exported samples in the request_samples table.
// The archive is write-only: the in-memory window is never restored from it.
type PostgresObserver struct {
	pool *pgxpool.Pool
}

// NewPostgresObserver connects to dsn and applies the embedded migrations.
func NewPostgresObserver(ctx context.Context, dsn string) (*PostgresObserver, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(dsn); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresObserver{pool: pool}, nil
}

func runMigrations(dsn string) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Msg("database is up to date")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		log.Info().Msg("database migrations completed")
	}
	return nil
}

func (o *PostgresObserver) Name() string { return "postgres" }

func (o *PostgresObserver) Notify(ctx context.Context, e Envelope) error {
	_, err := o.pool.Exec(ctx, insertSampleQuery,
		e.ID,
		time.UnixMilli(e.TimestampMs).UTC(),
		e.Endpoint,
		e.Method,
		e.StatusCode,
		e.LatencyMs,
		e.Error,
	)
	return classifyPgError(err)
}

// Ping checks the database connection.
func (o *PostgresObserver) Ping(ctx context.Context) error {
	return o.pool.Ping(ctx)
}

func (o *PostgresObserver) Close() error {
	o.pool.Close()
	return nil
}

// classifyPgError drops duplicate inserts and names the common failure classes.
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("failed to insert sample: %w", err)
	}

	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		return nil
	case pgErr.Code == pgerrcode.UndefinedTable:
		return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
	case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
		return fmt.Errorf("sample rejected by constraint %s: %w", pgErr.ConstraintName, err)
	case pgerrcode.IsConnectionException(pgErr.Code):
		return fmt.Errorf("database connection lost: %w", err)
	default:
		return fmt.Errorf("failed to insert sample: %w", err)
	}
}
