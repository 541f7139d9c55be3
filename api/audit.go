package api

import (
	"net/http"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/plan"
)

// fieldChanges returns one log entry per field whose value differs
// between before and after, in field-name order.
func fieldChanges(table, recordID, by string, before, after map[string]string) []plan.ModificationLogEntry {
	fields := make([]string, 0, len(after))
	for f := range after {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var entries []plan.ModificationLogEntry
	for _, f := range fields {
		if before[f] == after[f] {
			continue
		}
		entries = append(entries, plan.ModificationLogEntry{
			TableName:  table,
			RecordID:   recordID,
			FieldName:  f,
			OldValue:   before[f],
			NewValue:   after[f],
			ModifiedBy: by,
		})
	}
	return entries
}

// logChanges writes entries through the gateway. A failed write is logged
// and does not fail the request; the record itself is already saved.
func (h *Handler) logChanges(r *http.Request, entries []plan.ModificationLogEntry) {
	if len(entries) == 0 {
		return
	}
	if err := h.Gateway.LogModifications(r.Context(), entries); err != nil {
		h.logger.Warn("modification log write failed",
			zap.String("table", entries[0].TableName),
			zap.String("record_id", entries[0].RecordID),
			zap.Int("entries", len(entries)),
			zap.Error(err))
	}
}

func scenarioFields(sc plan.Scenario) map[string]string {
	return map[string]string{
		"name":         sc.Name,
		"description":  sc.Description,
		"target_units": strconv.Itoa(sc.TargetUnits),
	}
}

func kpiFields(k plan.KPI) map[string]string {
	return map[string]string{
		"scenario_id":   k.ScenarioID,
		"name":          k.Name,
		"target_value":  formatFloat(k.TargetValue),
		"current_value": formatFloat(k.CurrentValue),
		"unit":          k.Unit,
		"owner":         k.Owner,
	}
}

func costFields(c plan.CostData) map[string]string {
	return map[string]string{
		"scenario_id":   c.ScenarioID,
		"capex":         formatFloat(c.Capex),
		"opex":          formatFloat(c.Opex),
		"cost_per_unit": formatFloat(c.CostPerUnit),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
