package postgres

import (
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/warp/scaleup-planner/plan"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var configurationColumns = []string{
	"id", "org_key", "name", "description", "payload",
	"scenario_key", "variant_name", "last_modified_by", "created_at", "updated_at",
}

func selectConfigurations() sq.SelectBuilder {
	return psql.Select(configurationColumns...).From("configurations")
}

func latestConfigurationQuery(orgKey, name string) sq.SelectBuilder {
	return selectConfigurations().
		Where(sq.Eq{"org_key": orgKey, "name": name}).
		Limit(1)
}

func latestAnyConfigurationQuery(orgKey string) sq.SelectBuilder {
	return selectConfigurations().
		Where(sq.Eq{"org_key": orgKey}).
		OrderBy("updated_at DESC", "name").
		Limit(1)
}

// upsertConfigurationQuery keeps id and created_at of an existing row.
func upsertConfigurationQuery(id string, cfg plan.Configuration, now time.Time) sq.InsertBuilder {
	payload := string(cfg.Payload)
	if payload == "" {
		payload = "{}"
	}
	return psql.Insert("configurations").
		Columns(configurationColumns...).
		Values(
			id, cfg.OrgKey, cfg.Name, nullable(cfg.Description), payload,
			nullable(string(cfg.ScenarioKey)), nullable(cfg.VariantName), nullable(cfg.LastModifiedBy),
			now, now,
		).
		Suffix(`ON CONFLICT (org_key, name) DO UPDATE SET
			description = EXCLUDED.description,
			payload = EXCLUDED.payload,
			scenario_key = EXCLUDED.scenario_key,
			variant_name = EXCLUDED.variant_name,
			last_modified_by = EXCLUDED.last_modified_by,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + strings.Join(configurationColumns, ", "))
}

func insertModificationsQuery(entries []plan.ModificationLogEntry, now time.Time) sq.InsertBuilder {
	q := psql.Insert("modification_log").
		Columns("table_name", "record_id", "field_name", "old_value", "new_value", "modified_by", "modified_at")
	for _, e := range entries {
		at := e.ModifiedAt
		if at.IsZero() {
			at = now
		}
		q = q.Values(e.TableName, e.RecordID, e.FieldName, e.OldValue, e.NewValue, nullable(e.ModifiedBy), at)
	}
	return q
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
