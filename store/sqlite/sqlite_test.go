package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/store/sqlite"
)

var _ gateway.ConfigurationStore = (*sqlite.Store)(nil)

type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &tickingClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store.Now = clock.Now
	return store
}

// =============================================================================
// MIGRATIONS
// =============================================================================

func TestOpen_MigratesFileDatabaseIdempotently(t *testing.T) {
	path := t.TempDir() + "/planner.db"

	first, err := sqlite.New(path)
	require.NoError(t, err)
	_, err = first.SaveScenario(context.Background(), plan.Scenario{Name: "Pilot"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Reopening runs migrations again with nothing to apply.
	second, err := sqlite.New(path)
	require.NoError(t, err)
	defer second.Close()

	scenarios, err := second.ListScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "Pilot", scenarios[0].Name)
}

// =============================================================================
// SCENARIOS / KPIS / COST DATA
// =============================================================================

func TestScenarioCRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// GIVEN: A new scenario
	saved, err := store.SaveScenario(ctx, plan.Scenario{Name: "50k ramp", Description: "Year one", TargetUnits: 50_000})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	// WHEN: Updating it
	saved.TargetUnits = 60_000
	updated, err := store.SaveScenario(ctx, *saved)
	require.NoError(t, err)

	// THEN: The row is overwritten and created_at kept
	got, err := store.GetScenario(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 60_000, got.TargetUnits)
	assert.Equal(t, "Year one", got.Description)
	assert.Equal(t, saved.CreatedAt, got.CreatedAt)
	assert.Equal(t, updated.UpdatedAt, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	require.NoError(t, store.DeleteScenario(ctx, saved.ID))
	got, err = store.GetScenario(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, store.DeleteScenario(ctx, saved.ID), plan.ErrNotFound)
}

func TestKPIs_ScopedToScenarioAndCascade(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	a, err := store.SaveScenario(ctx, plan.Scenario{Name: "A"})
	require.NoError(t, err)
	b, err := store.SaveScenario(ctx, plan.Scenario{Name: "B"})
	require.NoError(t, err)

	_, err = store.SaveKPI(ctx, plan.KPI{ScenarioID: a.ID, Name: "Yield", TargetValue: 98, CurrentValue: 95, Unit: "%"})
	require.NoError(t, err)
	_, err = store.SaveKPI(ctx, plan.KPI{ScenarioID: a.ID, Name: "OEE", TargetValue: 85, CurrentValue: 70})
	require.NoError(t, err)
	_, err = store.SaveKPI(ctx, plan.KPI{ScenarioID: b.ID, Name: "Scrap"})
	require.NoError(t, err)

	kpis, err := store.ListKPIs(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, kpis, 2)
	assert.Equal(t, "OEE", kpis[0].Name)
	assert.Equal(t, "%", kpis[1].Unit)

	// Deleting the scenario removes its KPIs.
	require.NoError(t, store.DeleteScenario(ctx, a.ID))
	kpis, err = store.ListKPIs(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, kpis)
}

func TestKPI_UnknownScenarioIsNotFound(t *testing.T) {
	_, err := newStore(t).SaveKPI(context.Background(), plan.KPI{ScenarioID: "missing", Name: "Yield"})

	assert.ErrorIs(t, err, plan.ErrNotFound)
}

func TestCostData_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	sc, err := store.SaveScenario(ctx, plan.Scenario{Name: "A"})
	require.NoError(t, err)

	_, err = store.SaveCostData(ctx, plan.CostData{ScenarioID: sc.ID, Capex: 100, Opex: 10})
	require.NoError(t, err)
	newest, err := store.SaveCostData(ctx, plan.CostData{ScenarioID: sc.ID, Capex: 200, Opex: 20, CostPerUnit: 3.5})
	require.NoError(t, err)

	rows, err := store.ListCostData(ctx, sc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, newest.ID, plan.FindCostData(rows, sc.ID).ID)

	got, err := store.GetCostData(ctx, newest.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.CostPerUnit)

	require.NoError(t, store.DeleteCostData(ctx, newest.ID))
	assert.ErrorIs(t, store.DeleteCostData(ctx, newest.ID), plan.ErrNotFound)
}

// =============================================================================
// CONFIGURATIONS
// =============================================================================

func TestUpsertConfiguration_KeyedByOrgAndName(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first, err := store.UpsertConfiguration(ctx, plan.Configuration{
		OrgKey: "acme", Name: "Plan", Payload: []byte(`{"v":1}`), ScenarioKey: plan.Scenario50k, VariantName: "CNC", LastModifiedBy: "ana",
	})
	require.NoError(t, err)
	second, err := store.UpsertConfiguration(ctx, plan.Configuration{
		OrgKey: "acme", Name: "Plan", Payload: []byte(`{"v":2}`), ScenarioKey: plan.Scenario200k, LastModifiedBy: "ben",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, `{"v":2}`, string(second.Payload))
	assert.Equal(t, plan.Scenario200k, second.ScenarioKey)
	assert.Empty(t, second.VariantName)
	assert.Equal(t, "ben", second.LastModifiedBy)

	// Same name in another org is a separate row.
	other, err := store.UpsertConfiguration(ctx, plan.Configuration{OrgKey: "other", Name: "Plan"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, "{}", string(other.Payload))
}

func TestLatestAnyConfiguration_MostRecentlyUpdated(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, name := range []string{"A", "B", "C"} {
		_, err := store.UpsertConfiguration(ctx, plan.Configuration{OrgKey: "acme", Name: name})
		require.NoError(t, err)
	}
	// Touch A again so it is newest.
	_, err := store.UpsertConfiguration(ctx, plan.Configuration{OrgKey: "acme", Name: "A", Payload: []byte(`{}`)})
	require.NoError(t, err)

	latest, err := store.LatestAnyConfiguration(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "A", latest.Name)

	none, err := store.LatestAnyConfiguration(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGateway_OverSQLite(t *testing.T) {
	ctx := context.Background()
	gw := gateway.New(newStore(t), nil)

	_, err := gw.SaveConfiguration(ctx, "acme", gateway.SaveRequest{Name: "Plan", Payload: []byte(`{"scenarioKey":"200k"}`)})
	require.NoError(t, err)

	loaded, err := gw.LoadConfiguration(ctx, "acme", "Other")
	require.NoError(t, err)
	assert.True(t, loaded.Fallback)
	assert.Equal(t, "Plan", loaded.Configuration.Name)

	_, err = gw.LoadConfiguration(ctx, "nobody", "Plan")
	assert.ErrorIs(t, err, plan.ErrNotFound)
}

// =============================================================================
// MODIFICATION LOG / RESET
// =============================================================================

func TestAppendModifications(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.AppendModifications(ctx, nil))
	require.NoError(t, store.AppendModifications(ctx, []plan.ModificationLogEntry{
		{TableName: "kpis", RecordID: "k1", FieldName: "current_value", OldValue: "70", NewValue: "75", ModifiedBy: "ana"},
		{TableName: "kpis", RecordID: "k1", FieldName: "owner", OldValue: "", NewValue: "Quality"},
		{TableName: "kpis", RecordID: "k2", FieldName: "name", NewValue: "Scrap"},
	}))

	log, err := store.Modifications(ctx, "kpis", "k1")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "current_value", log[0].FieldName)
	assert.Equal(t, "75", log[0].NewValue)
	assert.Equal(t, "ana", log[0].ModifiedBy)
	assert.False(t, log[0].ModifiedAt.IsZero())
	assert.Equal(t, "owner", log[1].FieldName)
}

func TestReset_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	sc, err := store.SaveScenario(ctx, plan.Scenario{Name: "A"})
	require.NoError(t, err)
	_, err = store.SaveKPI(ctx, plan.KPI{ScenarioID: sc.ID, Name: "Yield"})
	require.NoError(t, err)
	_, err = store.UpsertConfiguration(ctx, plan.Configuration{OrgKey: "acme", Name: "Plan"})
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	scenarios, err := store.ListScenarios(ctx)
	require.NoError(t, err)
	assert.Empty(t, scenarios)
	cfg, err := store.LatestConfiguration(ctx, "acme", "Plan")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}
