package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/plan"
)

var _ gateway.ConfigurationStore = (*Store)(nil)

func TestLatestConfigurationQuery(t *testing.T) {
	sql, args, err := latestConfigurationQuery("acme", "Plan").ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT id, org_key, name, description, payload"))
	assert.Contains(t, sql, "FROM configurations WHERE name = $1 AND org_key = $2")
	assert.Contains(t, sql, "LIMIT 1")
	assert.Equal(t, []any{"Plan", "acme"}, args)
}

func TestLatestAnyConfigurationQuery(t *testing.T) {
	sql, args, err := latestAnyConfigurationQuery("acme").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE org_key = $1 ORDER BY updated_at DESC, name LIMIT 1")
	assert.Equal(t, []any{"acme"}, args)
}

func TestUpsertConfigurationQuery(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sql, args, err := upsertConfigurationQuery("id-1", plan.Configuration{
		OrgKey: "acme", Name: "Plan", ScenarioKey: plan.Scenario50k,
	}, now).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO configurations (id,org_key,name,description,payload,scenario_key,variant_name,last_modified_by,created_at,updated_at)")
	assert.Contains(t, sql, "VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)")
	assert.Contains(t, sql, "ON CONFLICT (org_key, name) DO UPDATE SET")
	assert.NotContains(t, sql, "created_at = EXCLUDED.created_at")
	assert.Contains(t, sql, "RETURNING id, org_key, name")

	require.Len(t, args, 10)
	assert.Equal(t, "id-1", args[0])
	assert.Equal(t, "{}", args[4], "empty payload is stored as an empty object")
	assert.Nil(t, args[3])
	assert.Equal(t, "50k", *args[5].(*string))
	assert.Equal(t, now, args[8])
}

func TestInsertModificationsQuery(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stamped := now.Add(-time.Hour)
	sql, args, err := insertModificationsQuery([]plan.ModificationLogEntry{
		{TableName: "kpis", RecordID: "k1", FieldName: "name", OldValue: "a", NewValue: "b", ModifiedBy: "ana"},
		{TableName: "kpis", RecordID: "k1", FieldName: "unit", ModifiedAt: stamped},
	}, now).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "VALUES ($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14)")
	require.Len(t, args, 14)
	assert.Equal(t, now, args[6])
	assert.Nil(t, args[12])
	assert.Equal(t, stamped, args[13])
}

// TestStore_Integration runs against a real database when
// PLANNER_TEST_POSTGRES_URL is set.
func TestStore_Integration(t *testing.T) {
	url := os.Getenv("PLANNER_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("PLANNER_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	store, err := Connect(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	org := "it-" + time.Now().Format("150405.000000")
	first, err := store.UpsertConfiguration(ctx, plan.Configuration{OrgKey: org, Name: "Plan", Payload: []byte(`{"v":1}`)})
	require.NoError(t, err)
	second, err := store.UpsertConfiguration(ctx, plan.Configuration{OrgKey: org, Name: "Plan", Payload: []byte(`{"v":2}`), LastModifiedBy: "ana"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ana", second.LastModifiedBy)

	latest, err := store.LatestAnyConfiguration(ctx, org)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.JSONEq(t, `{"v":2}`, string(latest.Payload))

	missing, err := store.LatestConfiguration(ctx, org, "Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.AppendModifications(ctx, []plan.ModificationLogEntry{{TableName: "configurations", RecordID: first.ID, FieldName: "payload"}}))
}
