/*
payload.go - JSON payload <-> Plan conversion

PURPOSE:
  The configuration blob stored by the persistence gateway is the whole
  in-memory plan. Tables inside it use the positional legacy layout so that
  blobs written by older dashboards stay readable.

JSON SHAPE:
  {
    "scenarioKey": "50k",
    "variant": "Injection Molding",
    "scenarios": {
      "50k":  {"units_per_year": 50000,  "hours_per_day": 16, "shifts": 2},
      "200k": {"units_per_year": 200000, "hours_per_day": 24, "shifts": 3}
    },
    "variants": {
      "Injection Molding": {
        "50k": {"projects": [[...24 cells...]], "risks": [[...]], ...}
      }
    }
  }

DECODING:
  Every table passes through the table.Normalizer, so malformed tables
  decode to empty or placeholder rows instead of failing. Only invalid JSON
  is an error.
*/
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/warp/scaleup-planner/table"
)

type payloadJSON struct {
	ScenarioKey ScenarioKey                                       `json:"scenarioKey"`
	Variant     string                                            `json:"variant"`
	Scenarios   map[ScenarioKey]ScenarioParameters                `json:"scenarios"`
	Variants    map[string]map[ScenarioKey]map[string]table.Table `json:"variants"`
}

// Encode renders the plan as a payload blob.
func Encode(p *Plan) ([]byte, error) {
	out := payloadJSON{
		ScenarioKey: p.ScenarioKey,
		Variant:     p.Variant,
		Scenarios:   p.Parameters,
		Variants:    make(map[string]map[ScenarioKey]map[string]table.Table, len(p.Variants)),
	}
	for name, byKey := range p.Variants {
		encoded := make(map[ScenarioKey]map[string]table.Table, len(byKey))
		for key, t := range byKey {
			tables := make(map[string]table.Table, len(TableKinds))
			for _, k := range TableKinds {
				tables[string(k)] = t.Rows(k)
			}
			encoded[key] = tables
		}
		out.Variants[name] = encoded
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode plan payload: %w", err)
	}
	return b, nil
}

// Decode reads a payload blob. An empty blob yields an empty plan on the
// first scenario key.
func Decode(raw []byte, n *table.Normalizer) (*Plan, error) {
	if n == nil {
		n = table.NewNormalizer(nil)
	}

	p := New(Scenario50k, "")
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode plan payload: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return p, nil
	}

	if key := ScenarioKey(table.ToString(obj["scenarioKey"])); key.Valid() {
		p.ScenarioKey = key
	}
	p.Variant = table.ToString(obj["variant"])

	if scenarios, ok := obj["scenarios"].(map[string]any); ok {
		for key, raw := range scenarios {
			p.Parameters[ScenarioKey(key)] = decodeParameters(raw)
		}
	}

	if variants, ok := obj["variants"].(map[string]any); ok {
		for name, raw := range variants {
			byKey, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			for key, rawTables := range byKey {
				tables, _ := rawTables.(map[string]any)
				*p.TablesFor(name, ScenarioKey(key)) = decodeTables(n, name+"/"+key, tables)
			}
		}
	}

	if p.Variant == "" || p.Variants[p.Variant] == nil {
		if names := p.VariantNames(); len(names) == 1 {
			p.Variant = names[0]
		}
	}
	return p, nil
}

func decodeParameters(raw any) ScenarioParameters {
	m, _ := raw.(map[string]any)
	pick := func(keys ...string) float64 {
		for _, k := range keys {
			if v, ok := m[k]; ok {
				return table.ToNum(v, 0)
			}
		}
		return 0
	}
	return ScenarioParameters{
		UnitsPerYear: pick("units_per_year", "unitsPerYear", "units"),
		HoursPerDay:  pick("hours_per_day", "hoursPerDay", "hours"),
		Shifts:       pick("shifts", "shiftCount", "shift_count"),
	}
}

func decodeTables(n *table.Normalizer, scope string, raw map[string]any) Tables {
	norm := func(k TableKind) table.Table {
		return n.Normalize(scope+"/"+string(k), raw[string(k)], Columns(k))
	}

	var t Tables
	for _, r := range norm(TableProjects) {
		t.Projects = append(t.Projects, ProjectFromRow(r))
	}
	for _, r := range norm(TableRisks) {
		t.Risks = append(t.Risks, RiskFromRow(r))
	}
	for _, r := range norm(TableResources) {
		t.Resources = append(t.Resources, ResourceFromRow(r))
	}
	for _, r := range norm(TableProcesses) {
		t.Processes = append(t.Processes, ProcessFromRow(r))
	}
	for _, r := range norm(TableCapex) {
		t.Capex = append(t.Capex, CapexFromRow(r))
	}
	for _, r := range norm(TableOpex) {
		t.Opex = append(t.Opex, OpexFromRow(r))
	}
	return t
}
