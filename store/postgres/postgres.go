/*
Package postgres is a Postgres implementation of gateway.ConfigurationStore.

PURPOSE:
  Saved configurations and the modification log can live in a shared
  Postgres database while scenarios, KPIs and cost data stay in SQLite.
  Selected by database.configurations_backend = "postgres".

QUERIES:
  Statements are built with squirrel using $n placeholders (queries.go)
  and run on a pgxpool.Pool. The upsert is one
  INSERT ... ON CONFLICT (org_key, name) DO UPDATE ... RETURNING.

SEE ALSO:
  - store/sqlite:       Primary store, same contract
  - gateway/gateway.go: ConfigurationStore contract
*/
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/plan"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store implements gateway.ConfigurationStore on Postgres.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	// Now stamps created_at / updated_at.
	Now func() time.Time
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, logger: logger.Named("postgres"), Now: time.Now}
}

// Connect opens a pool for url, pings it and applies migrations.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := NewStore(pool, logger)
	if err := s.Migrate(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded migrations. Like the SQLite store it never
// closes the migrate instance, whose driver owns the database handle.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := migratepgx.WithInstance(stdlib.OpenDBFromPool(s.pool), &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		s.logger.Debug("No migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	s.logger.Info("Applied migrations successfully")
	return nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// LatestConfiguration returns the configuration stored under (orgKey, name),
// or nil when there is none.
func (s *Store) LatestConfiguration(ctx context.Context, orgKey, name string) (*plan.Configuration, error) {
	sql, args, err := latestConfigurationQuery(orgKey, name).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	cfg, err := scanConfiguration(s.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get configuration %s/%s: %w", orgKey, name, err)
	}
	return cfg, nil
}

// LatestAnyConfiguration returns the most recently updated configuration
// of the organization, or nil.
func (s *Store) LatestAnyConfiguration(ctx context.Context, orgKey string) (*plan.Configuration, error) {
	sql, args, err := latestAnyConfigurationQuery(orgKey).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	cfg, err := scanConfiguration(s.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest configuration %s: %w", orgKey, err)
	}
	return cfg, nil
}

// UpsertConfiguration saves cfg keyed by (OrgKey, Name).
func (s *Store) UpsertConfiguration(ctx context.Context, cfg plan.Configuration) (*plan.Configuration, error) {
	sql, args, err := upsertConfigurationQuery(uuid.NewString(), cfg, s.Now().UTC()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	saved, err := scanConfiguration(s.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert configuration %s/%s: %w", cfg.OrgKey, cfg.Name, err)
	}
	return saved, nil
}

// AppendModifications writes all entries in one INSERT.
func (s *Store) AppendModifications(ctx context.Context, entries []plan.ModificationLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	sql, args, err := insertModificationsQuery(entries, s.Now().UTC()).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append modifications: %w", err)
	}
	return nil
}

func scanConfiguration(row pgx.Row) (*plan.Configuration, error) {
	var cfg plan.Configuration
	var description, scenarioKey, variantName, modifiedBy *string
	var payload string

	err := row.Scan(
		&cfg.ID, &cfg.OrgKey, &cfg.Name, &description, &payload,
		&scenarioKey, &variantName, &modifiedBy, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.Description = deref(description)
	cfg.Payload = []byte(payload)
	cfg.ScenarioKey = plan.ScenarioKey(deref(scenarioKey))
	cfg.VariantName = deref(variantName)
	cfg.LastModifiedBy = deref(modifiedBy)
	return &cfg, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
