/*
Package sqlite provides the SQLite-backed store for scenarios, KPIs, cost
data, saved configurations and the modification log.

PURPOSE:
  Implements gateway.ConfigurationStore plus the CRUD surfaces the HTTP
  layer exposes for scenarios, KPIs and cost data. A Postgres
  implementation of the configurations half lives in store/postgres.

KEY TABLES:
  scenarios:        Named production scenarios with a unit target
  kpis:             Target/current pairs per scenario
  cost_data:        Capex/opex snapshots per scenario (newest wins)
  configurations:   Whole-plan JSON payloads, UNIQUE(org_key, name)
  modification_log: Append-only audit trail of field changes

UPSERT SEMANTICS:
  Configurations are upserted by (org_key, name) with
  ON CONFLICT DO UPDATE: the first save creates the row, later saves
  overwrite payload and metadata but keep id and created_at. No history
  is kept beyond the modification log.

NOT FOUND:
  Get* and Latest* return (nil, nil) when nothing matches. Callers translate
  that to plan.ErrNotFound where they need an error.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.
  ":memory:" databases are limited to one connection, since every new
  connection would otherwise open a fresh empty database.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/planner.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  gw := gateway.New(store, logger)

MIGRATION:
  Schema is migrated on Open() with golang-migrate from the embedded
  migrations/ directory. See migrate.go.

SEE ALSO:
  - gateway/gateway.go:  ConfigurationStore contract
  - gateway/memory.go:   In-memory implementation for tests
  - store/postgres:      Postgres configurations store
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/plan"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements the persistence surfaces using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *zap.Logger

	// Now stamps created_at / updated_at. Tests replace it.
	Now func() time.Time
}

// New creates a new SQLite store and migrates the schema.
func New(dbPath string) (*Store, error) {
	return Open(dbPath, nil)
}

// Open is New with a logger for migration and query diagnostics.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(db, logger.Named("migrate")); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.Named("sqlite"),
		Now:    time.Now,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) now() time.Time {
	return s.Now().UTC()
}

// =============================================================================
// SCENARIO STORE
// =============================================================================

// SaveScenario inserts or updates a scenario. An empty ID is assigned.
func (s *Store) SaveScenario(ctx context.Context, sc plan.Scenario) (*plan.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = now
	}
	sc.UpdatedAt = now

	query := `
		INSERT INTO scenarios (id, name, description, target_units, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			target_units = excluded.target_units,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		sc.ID, sc.Name, nullString(sc.Description), sc.TargetUnits,
		formatTime(sc.CreatedAt), formatTime(sc.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// GetScenario retrieves a scenario by ID.
func (s *Store) GetScenario(ctx context.Context, id string) (*plan.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sc plan.Scenario
	var description sql.NullString
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, target_units, created_at, updated_at FROM scenarios WHERE id = ?",
		id,
	).Scan(&sc.ID, &sc.Name, &description, &sc.TargetUnits, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sc.Description = description.String
	sc.CreatedAt = parseTime(createdAt)
	sc.UpdatedAt = parseTime(updatedAt)
	return &sc, nil
}

// ListScenarios returns all scenarios ordered by name.
func (s *Store) ListScenarios(ctx context.Context) ([]plan.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, target_units, created_at, updated_at FROM scenarios ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []plan.Scenario
	for rows.Next() {
		var sc plan.Scenario
		var description sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&sc.ID, &sc.Name, &description, &sc.TargetUnits, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		sc.Description = description.String
		sc.CreatedAt = parseTime(createdAt)
		sc.UpdatedAt = parseTime(updatedAt)
		scenarios = append(scenarios, sc)
	}
	return scenarios, rows.Err()
}

// DeleteScenario removes a scenario with its KPIs and cost data.
func (s *Store) DeleteScenario(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteByID(ctx, s.db, "scenarios", id)
}

// =============================================================================
// KPI STORE
// =============================================================================

// SaveKPI inserts or updates a KPI. The scenario must exist.
func (s *Store) SaveKPI(ctx context.Context, k plan.KPI) (*plan.KPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = now
	}
	k.UpdatedAt = now

	query := `
		INSERT INTO kpis (id, scenario_id, name, target_value, current_value, unit, owner, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scenario_id = excluded.scenario_id,
			name = excluded.name,
			target_value = excluded.target_value,
			current_value = excluded.current_value,
			unit = excluded.unit,
			owner = excluded.owner,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		k.ID, k.ScenarioID, k.Name, k.TargetValue, k.CurrentValue,
		nullString(k.Unit), nullString(k.Owner),
		formatTime(k.CreatedAt), formatTime(k.UpdatedAt),
	)
	if isForeignKeyError(err) {
		return nil, fmt.Errorf("scenario %s: %w", k.ScenarioID, plan.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// GetKPI retrieves a KPI by ID.
func (s *Store) GetKPI(ctx context.Context, id string) (*plan.KPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kpis, err := s.queryKPIs(ctx,
		"SELECT id, scenario_id, name, target_value, current_value, unit, owner, created_at, updated_at FROM kpis WHERE id = ?",
		id,
	)
	if err != nil || len(kpis) == 0 {
		return nil, err
	}
	return &kpis[0], nil
}

// ListKPIs returns the KPIs of one scenario ordered by name.
func (s *Store) ListKPIs(ctx context.Context, scenarioID string) ([]plan.KPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryKPIs(ctx,
		"SELECT id, scenario_id, name, target_value, current_value, unit, owner, created_at, updated_at FROM kpis WHERE scenario_id = ? ORDER BY name, id",
		scenarioID,
	)
}

func (s *Store) queryKPIs(ctx context.Context, query string, args ...any) ([]plan.KPI, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kpis []plan.KPI
	for rows.Next() {
		var k plan.KPI
		var unit, owner sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&k.ID, &k.ScenarioID, &k.Name, &k.TargetValue, &k.CurrentValue,
			&unit, &owner, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		k.Unit = unit.String
		k.Owner = owner.String
		k.CreatedAt = parseTime(createdAt)
		k.UpdatedAt = parseTime(updatedAt)
		kpis = append(kpis, k)
	}
	return kpis, rows.Err()
}

// DeleteKPI removes a KPI.
func (s *Store) DeleteKPI(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteByID(ctx, s.db, "kpis", id)
}

// =============================================================================
// COST DATA STORE
// =============================================================================

// SaveCostData inserts or updates a cost-data row. The scenario must exist.
func (s *Store) SaveCostData(ctx context.Context, c plan.CostData) (*plan.CostData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query := `
		INSERT INTO cost_data (id, scenario_id, capex, opex, cost_per_unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scenario_id = excluded.scenario_id,
			capex = excluded.capex,
			opex = excluded.opex,
			cost_per_unit = excluded.cost_per_unit,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.ScenarioID, c.Capex, c.Opex, c.CostPerUnit,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if isForeignKeyError(err) {
		return nil, fmt.Errorf("scenario %s: %w", c.ScenarioID, plan.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCostData retrieves a cost-data row by ID.
func (s *Store) GetCostData(ctx context.Context, id string) (*plan.CostData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryCostData(ctx,
		"SELECT id, scenario_id, capex, opex, cost_per_unit, created_at, updated_at FROM cost_data WHERE id = ?",
		id,
	)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// ListCostData returns the cost rows of one scenario, newest first.
func (s *Store) ListCostData(ctx context.Context, scenarioID string) ([]plan.CostData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCostData(ctx,
		"SELECT id, scenario_id, capex, opex, cost_per_unit, created_at, updated_at FROM cost_data WHERE scenario_id = ? ORDER BY created_at DESC, id",
		scenarioID,
	)
}

func (s *Store) queryCostData(ctx context.Context, query string, args ...any) ([]plan.CostData, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.CostData
	for rows.Next() {
		var c plan.CostData
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.ScenarioID, &c.Capex, &c.Opex, &c.CostPerUnit, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCostData removes a cost-data row.
func (s *Store) DeleteCostData(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteByID(ctx, s.db, "cost_data", id)
}

// =============================================================================
// CONFIGURATION STORE (gateway.ConfigurationStore interface)
// =============================================================================

const configurationColumns = "id, org_key, name, description, payload, scenario_key, variant_name, last_modified_by, created_at, updated_at"

// LatestConfiguration returns the configuration stored under (orgKey, name).
func (s *Store) LatestConfiguration(ctx context.Context, orgKey, name string) (*plan.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryConfiguration(ctx,
		"SELECT "+configurationColumns+" FROM configurations WHERE org_key = ? AND name = ?",
		orgKey, name,
	)
}

// LatestAnyConfiguration returns the most recently updated configuration
// of the organization, whatever its name.
func (s *Store) LatestAnyConfiguration(ctx context.Context, orgKey string) (*plan.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryConfiguration(ctx,
		"SELECT "+configurationColumns+" FROM configurations WHERE org_key = ? ORDER BY updated_at DESC, name LIMIT 1",
		orgKey,
	)
}

// UpsertConfiguration saves cfg keyed by (OrgKey, Name) and returns the
// stored row.
func (s *Store) UpsertConfiguration(ctx context.Context, cfg plan.Configuration) (*plan.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := formatTime(s.now())
	payload := string(cfg.Payload)
	if payload == "" {
		payload = "{}"
	}

	query := `
		INSERT INTO configurations (` + configurationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_key, name) DO UPDATE SET
			description = excluded.description,
			payload = excluded.payload,
			scenario_key = excluded.scenario_key,
			variant_name = excluded.variant_name,
			last_modified_by = excluded.last_modified_by,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), cfg.OrgKey, cfg.Name, nullString(cfg.Description), payload,
		nullString(string(cfg.ScenarioKey)), nullString(cfg.VariantName), nullString(cfg.LastModifiedBy),
		now, now,
	)
	if err != nil {
		return nil, err
	}

	return s.queryConfiguration(ctx,
		"SELECT "+configurationColumns+" FROM configurations WHERE org_key = ? AND name = ?",
		cfg.OrgKey, cfg.Name,
	)
}

func (s *Store) queryConfiguration(ctx context.Context, query string, args ...any) (*plan.Configuration, error) {
	var cfg plan.Configuration
	var description, scenarioKey, variantName, modifiedBy sql.NullString
	var payload, createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&cfg.ID, &cfg.OrgKey, &cfg.Name, &description, &payload,
		&scenarioKey, &variantName, &modifiedBy, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cfg.Description = description.String
	cfg.Payload = []byte(payload)
	cfg.ScenarioKey = plan.ScenarioKey(scenarioKey.String)
	cfg.VariantName = variantName.String
	cfg.LastModifiedBy = modifiedBy.String
	cfg.CreatedAt = parseTime(createdAt)
	cfg.UpdatedAt = parseTime(updatedAt)
	return &cfg, nil
}

// =============================================================================
// MODIFICATION LOG
// =============================================================================

// AppendModifications writes audit entries in one transaction. Entries
// without a timestamp are stamped now.
func (s *Store) AppendModifications(ctx context.Context, entries []plan.ModificationLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := s.now()
	for _, e := range entries {
		at := e.ModifiedAt
		if at.IsZero() {
			at = now
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO modification_log (table_name, record_id, field_name, old_value, new_value, modified_by, modified_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, e.TableName, e.RecordID, e.FieldName, e.OldValue, e.NewValue, nullString(e.ModifiedBy), formatTime(at))
		if err != nil {
			return fmt.Errorf("append %s.%s: %w", e.TableName, e.FieldName, err)
		}
	}
	return tx.Commit()
}

// Modifications returns the audit entries for one record, oldest first.
// The application never reads the log; this exists for admin views and
// tests.
func (s *Store) Modifications(ctx context.Context, tableName, recordID string) ([]plan.ModificationLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, record_id, field_name, old_value, new_value, modified_by, modified_at
		FROM modification_log
		WHERE table_name = ? AND record_id = ?
		ORDER BY id
	`, tableName, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.ModificationLogEntry
	for rows.Next() {
		var e plan.ModificationLogEntry
		var oldValue, newValue, modifiedBy sql.NullString
		var modifiedAt string
		if err := rows.Scan(&e.TableName, &e.RecordID, &e.FieldName, &oldValue, &newValue, &modifiedBy, &modifiedAt); err != nil {
			return nil, err
		}
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		e.ModifiedBy = modifiedBy.String
		e.ModifiedAt = parseTime(modifiedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"modification_log", "configurations", "cost_data", "kpis", "scenarios"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	s.logger.Info("Store reset")
	return nil
}

// Helper functions

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func deleteByID(ctx context.Context, db execer, table, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, plan.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
