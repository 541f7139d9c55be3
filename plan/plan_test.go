package plan_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/table"
)

func projectRow() table.Row {
	row := make(table.Row, 24)
	for i := range row {
		row[i] = ""
	}
	row[plan.ColProjectID] = "P-1"
	row[plan.ColProjectName] = "Line 2 commissioning"
	row[plan.ColProjectPriority] = "must"
	row[plan.ColProjectBudgetCapex] = "125000"
	row[plan.ColProjectBudgetOpex] = 8000.0
	row[plan.ColProjectPercentComplete] = 150.0
	row[plan.ColProjectCritical] = "Yes"
	row[plan.ColProjectStatus] = "green"
	return row
}

// =============================================================================
// LEGACY LAYOUT
// =============================================================================

func TestProjectLayout_BudgetsAtPositions17And18(t *testing.T) {
	cols := plan.Columns(plan.TableProjects)
	require.Len(t, cols, 24)
	assert.Equal(t, "Budget CapEx", cols[17])
	assert.Equal(t, "Budget OpEx", cols[18])
	assert.Equal(t, 17, plan.ColProjectBudgetCapex)
	assert.Equal(t, 18, plan.ColProjectBudgetOpex)
}

func TestProjectFromRow_CoercesCells(t *testing.T) {
	p := plan.ProjectFromRow(projectRow())

	assert.Equal(t, "P-1", p.ID)
	assert.Equal(t, plan.PriorityMust, p.Priority)
	assert.Equal(t, 125000.0, p.BudgetCapex)
	assert.Equal(t, 8000.0, p.BudgetOpex)
	// Percent complete is stored unclamped; roll-ups clamp it.
	assert.Equal(t, 150.0, p.PercentComplete)
	assert.True(t, p.Critical)
	assert.Equal(t, "green", p.Status)
}

func TestProjectFromRow_NegativeOrGarbageBudgetsBecomeZero(t *testing.T) {
	row := projectRow()
	row[plan.ColProjectBudgetCapex] = -50.0
	row[plan.ColProjectBudgetOpex] = "n/a"

	p := plan.ProjectFromRow(row)

	assert.Equal(t, 0.0, p.BudgetCapex)
	assert.Equal(t, 0.0, p.BudgetOpex)
}

func TestProjectFromRow_ShortRow(t *testing.T) {
	p := plan.ProjectFromRow(table.Row{"P-9", "Short"})

	assert.Equal(t, "Short", p.Name)
	assert.Equal(t, 0.0, p.BudgetCapex)
	assert.Len(t, p.Row(), 24)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, plan.LevelHigh, plan.ParseLevel("high"))
	assert.Equal(t, plan.LevelMedium, plan.ParseLevel(" M "))
	assert.Equal(t, plan.LevelLow, plan.ParseLevel("L"))
	assert.Equal(t, plan.Level(""), plan.ParseLevel("?"))
}

// =============================================================================
// EDITING
// =============================================================================

func TestTables_SetCell_RereadsRecord(t *testing.T) {
	tables := &plan.Tables{Capex: []plan.CapexLine{{Item: "Press"}}}

	require.NoError(t, tables.SetCell(plan.TableCapex, 0, 1, "3"))
	require.NoError(t, tables.SetCell(plan.TableCapex, 0, 2, 1000.0))

	assert.Equal(t, 3.0, tables.Capex[0].Quantity)
	assert.Equal(t, 1000.0, tables.Capex[0].UnitCost)
}

func TestTables_SetCell_OutOfRange(t *testing.T) {
	tables := &plan.Tables{Risks: []plan.Risk{{ID: "R1"}}}

	err := tables.SetCell(plan.TableRisks, 3, 0, "x")
	assert.True(t, errors.Is(err, plan.ErrRowOutOfRange))

	var idxErr *plan.IndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, 3, idxErr.Index)
	assert.Equal(t, 1, idxErr.Len)

	err = tables.SetCell(plan.TableRisks, 0, 8, "x")
	assert.True(t, errors.Is(err, plan.ErrColumnOutOfRange))

	err = tables.SetCell(plan.TableKind("bogus"), 0, 0, "x")
	assert.True(t, errors.Is(err, plan.ErrUnknownTable))
}

func TestTables_AddAndDeleteRows(t *testing.T) {
	tables := &plan.Tables{}

	idx, err := tables.AddRow(plan.TableRisks)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, plan.RiskOpen, tables.Risks[0].Status)

	_, err = tables.AddRow(plan.TableRisks)
	require.NoError(t, err)
	require.NoError(t, tables.SetCell(plan.TableRisks, 1, 0, "R2"))

	require.NoError(t, tables.DeleteRow(plan.TableRisks, 0))
	require.Len(t, tables.Risks, 1)
	assert.Equal(t, "R2", tables.Risks[0].ID)

	assert.ErrorIs(t, tables.DeleteRow(plan.TableRisks, 5), plan.ErrRowOutOfRange)
}

func TestPlan_Select(t *testing.T) {
	p := plan.New(plan.Scenario50k, "Injection Molding")
	p.Active()

	require.NoError(t, p.Select(plan.Scenario200k, ""))
	assert.Equal(t, plan.Scenario200k, p.ScenarioKey)
	assert.Equal(t, "Injection Molding", p.Variant)

	assert.ErrorIs(t, p.Select("1m", ""), plan.ErrUnknownScenario)
	assert.ErrorIs(t, p.Select(plan.Scenario50k, "CNC"), plan.ErrUnknownVariant)
}

// =============================================================================
// PAYLOAD
// =============================================================================

func TestDecode_LegacyPayload(t *testing.T) {
	// GIVEN: A payload mixing row shapes, written by an older dashboard
	raw := []byte(`{
		"scenarioKey": "200k",
		"variant": "Injection Molding",
		"scenarios": {"200k": {"unitsPerYear": 200000, "hoursPerDay": 24, "shifts": 3}},
		"variants": {"Injection Molding": {"200k": {
			"projects": [["P-1","Tooling","Capex","Must","Ana","","","","","","","","","","","","",50000,2500,40,"","","GREEN",3]],
			"risks": {"id":"R1","description":"Resin supply","impact":"H","probability":"M","status":"Open"},
			"capex": [{"item":"Press","quantity":2,"unitcost":100,"installcost":10}],
			"opex": null,
			"resources": "garbage"
		}}}
	}`)

	// WHEN: Decoding
	p, err := plan.Decode(raw, nil)

	// THEN: Every table is usable
	require.NoError(t, err)
	assert.Equal(t, plan.Scenario200k, p.ScenarioKey)
	assert.Equal(t, 200000.0, p.ActiveParameters().UnitsPerYear)

	active := p.Active()
	require.Len(t, active.Projects, 1)
	assert.Equal(t, 50000.0, active.Projects[0].BudgetCapex)
	assert.Equal(t, 2500.0, active.Projects[0].BudgetOpex)
	require.Len(t, active.Risks, 1)
	assert.Equal(t, plan.LevelHigh, active.Risks[0].Impact)
	require.Len(t, active.Capex, 1)
	assert.Equal(t, 2.0, active.Capex[0].Quantity)
	assert.Equal(t, 10.0, active.Capex[0].InstallCost)
	assert.Empty(t, active.Opex)
	assert.Empty(t, active.Resources)
}

func TestDecode_LoneProjectRecord_KeepsBudget(t *testing.T) {
	// GIVEN: A project table persisted as one keyed record
	raw := []byte(`{"variants": {"Injection Molding": {"50k": {
		"projects": {"ID":"P1","Name":"Tooling","Budget CapEx":5000}
	}}}}`)

	// WHEN: Decoding
	p, err := plan.Decode(raw, nil)

	// THEN: One project carrying its budget
	require.NoError(t, err)
	projects := p.Active().Projects
	require.Len(t, projects, 1)
	assert.Equal(t, "P1", projects[0].ID)
	assert.Equal(t, "Tooling", projects[0].Name)
	assert.Equal(t, 5000.0, projects[0].BudgetCapex)
}

func TestDecode_EmptyAndNonObject(t *testing.T) {
	p, err := plan.Decode(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.Scenario50k, p.ScenarioKey)

	p, err = plan.Decode([]byte(`[1,2,3]`), nil)
	require.NoError(t, err)
	assert.Empty(t, p.Variants)

	_, err = plan.Decode([]byte(`{not json`), nil)
	assert.Error(t, err)
}

func TestEncode_DecodesBackToSamePlan(t *testing.T) {
	p := plan.New(plan.Scenario50k, "CNC")
	p.Parameters[plan.Scenario50k] = plan.ScenarioParameters{UnitsPerYear: 50000, HoursPerDay: 16, Shifts: 2}
	active := p.Active()
	active.Projects = []plan.Project{{ID: "P-1", Name: "Cell layout", BudgetCapex: 1200, Status: "RED", Critical: true}}
	active.Opex = []plan.OpexLine{{Item: "Labor", Cadence: "per_year", Quantity: 25, UnitCost: 12}}

	raw, err := plan.Encode(p)
	require.NoError(t, err)

	back, err := plan.Decode(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, p.ScenarioKey, back.ScenarioKey)
	assert.Equal(t, p.Variant, back.Variant)
	assert.Equal(t, p.Parameters, back.Parameters)
	assert.Equal(t, active.Projects, back.Active().Projects)
	assert.Equal(t, active.Opex, back.Active().Opex)
}
