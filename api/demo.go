/*
demo.go - Demo dataset loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that populate the database and the live
	plan with realistic data for demos. Each dataset creates stored
	scenarios with KPIs and cost data, and installs a matching plan.

AVAILABLE DATASETS:

	injection-molding:  Seed plan, 50k and 200k scenarios with KPIs and costs
	cnc-machining:      Second variant with a machining-cell plan
	baseline-only:      Seed plan with no stored KPIs or cost data

HOW DATASETS WORK:
 1. Reset database (clear all data)
 2. Create stored scenarios
 3. Add KPIs and cost data per scenario
 4. Replace the live plan of the current session

USAGE VIA API:

	POST /api/demo/load
	{"dataset_id": "injection-molding"}

ADDING NEW DATASETS:
 1. Add to 'datasets' slice with ID, name, description
 2. Create loader function: loadXxxDataset(ctx)
 3. Add case to LoadDataset handler

NOTE:

	Datasets reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler context
  - plan/seed.go: Default plan
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/scaleup-planner/plan"
)

// =============================================================================
// DATASET DEFINITIONS
// =============================================================================

var datasets = []DatasetDTO{
	{
		ID:          "injection-molding",
		Name:        "Injection Molding Ramp",
		Description: "Seed plan with 50k and 200k scenarios, KPIs and cost roll-ups",
		Category:    "molding",
	},
	{
		ID:          "cnc-machining",
		Name:        "CNC Machining Cell",
		Description: "Adds a machining variant next to the molding plan",
		Category:    "machining",
	},
	{
		ID:          "baseline-only",
		Name:        "Baseline Only",
		Description: "Seed plan without stored KPIs or cost data",
		Category:    "baseline",
	},
}

// ListDatasets returns available demo datasets.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, datasets)
}

// GetCurrentDataset returns the currently loaded dataset, if any.
func (h *Handler) GetCurrentDataset(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentDataset
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, d := range datasets {
		if d.ID == current {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeJSON(w, http.StatusOK, DatasetDTO{ID: current, Name: current})
}

// LoadDataset resets the store and loads a predefined dataset.
func (h *Handler) LoadDataset(w http.ResponseWriter, r *http.Request) {
	var req LoadDatasetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var load func(ctx context.Context) (*plan.Plan, error)
	switch req.DatasetID {
	case "injection-molding":
		load = h.loadInjectionMoldingDataset
	case "cnc-machining":
		load = h.loadCNCMachiningDataset
	case "baseline-only":
		load = h.loadBaselineDataset
	default:
		writeError(w, http.StatusBadRequest, "Unknown dataset", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentDataset = ""

	p, err := load(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load dataset: %v", err), err)
		return
	}
	h.session(r).Replace(p, false)
	h.currentDataset = req.DatasetID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "dataset": req.DatasetID})
}

// Reset clears the store and puts the current session back on seed data.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentDataset = ""
	h.Sessions.Reset(ctx, h.orgKey(r), r.URL.Query().Get("config"))

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// DATASET LOADERS
// =============================================================================

type demoScenario struct {
	scenario plan.Scenario
	kpis     []plan.KPI
	cost     *plan.CostData
}

func (h *Handler) createScenarios(ctx context.Context, items []demoScenario) error {
	for _, item := range items {
		sc, err := h.Store.SaveScenario(ctx, item.scenario)
		if err != nil {
			return fmt.Errorf("failed to create scenario %s: %w", item.scenario.Name, err)
		}
		for _, k := range item.kpis {
			k.ScenarioID = sc.ID
			if _, err := h.Store.SaveKPI(ctx, k); err != nil {
				return fmt.Errorf("failed to create KPI %s: %w", k.Name, err)
			}
		}
		if item.cost != nil {
			c := *item.cost
			c.ScenarioID = sc.ID
			if _, err := h.Store.SaveCostData(ctx, c); err != nil {
				return fmt.Errorf("failed to create cost data for %s: %w", sc.Name, err)
			}
		}
	}
	return nil
}

func (h *Handler) loadInjectionMoldingDataset(ctx context.Context) (*plan.Plan, error) {
	err := h.createScenarios(ctx, []demoScenario{
		{
			scenario: plan.Scenario{Name: "50k Ramp", Description: "First molding cell at two shifts", TargetUnits: 50_000},
			kpis: []plan.KPI{
				{Name: "First pass yield", TargetValue: 98, CurrentValue: 95.5, Unit: "%", Owner: "Quality"},
				{Name: "OEE", TargetValue: 85, CurrentValue: 71, Unit: "%", Owner: "Operations"},
				{Name: "Units per week", TargetValue: 1_000, CurrentValue: 1_040, Unit: "units", Owner: "Plant manager"},
			},
			cost: &plan.CostData{Capex: 730_000, Opex: 640_000, CostPerUnit: 14.2},
		},
		{
			scenario: plan.Scenario{Name: "200k Expansion", Description: "Three cells, automated packaging", TargetUnits: 200_000},
			kpis: []plan.KPI{
				{Name: "First pass yield", TargetValue: 98.5, CurrentValue: 93, Unit: "%", Owner: "Quality"},
				{Name: "OEE", TargetValue: 88, CurrentValue: 60, Unit: "%", Owner: "Operations"},
			},
			cost: &plan.CostData{Capex: 2_100_000, Opex: 1_850_000, CostPerUnit: 10.8},
		},
	})
	if err != nil {
		return nil, err
	}
	return plan.Seed(), nil
}

// CNCVariant is the variant added by the cnc-machining dataset.
const CNCVariant = "CNC Machining"

func (h *Handler) loadCNCMachiningDataset(ctx context.Context) (*plan.Plan, error) {
	err := h.createScenarios(ctx, []demoScenario{
		{
			scenario: plan.Scenario{Name: "CNC Pilot", Description: "Five-axis cell for housings", TargetUnits: 50_000},
			kpis: []plan.KPI{
				{Name: "Spindle utilization", TargetValue: 75, CurrentValue: 62, Unit: "%", Owner: "Machining"},
				{Name: "Scrap rate inverse", TargetValue: 99, CurrentValue: 97.8, Unit: "%", Owner: "Quality"},
			},
			cost: &plan.CostData{Capex: 1_150_000, Opex: 520_000, CostPerUnit: 22.5},
		},
	})
	if err != nil {
		return nil, err
	}

	p := plan.Seed()
	*p.TablesFor(CNCVariant, plan.Scenario50k) = plan.Tables{
		Projects: []plan.Project{
			{
				ID: "C-001", Name: "Five-axis cell install", Type: "Equipment", Priority: plan.PriorityMust,
				Owner: "Manufacturing Eng", Start: "2026-02-02", Finish: "2026-05-29",
				BudgetCapex: 900_000, BudgetOpex: 30_000, PercentComplete: 40,
				ProcessLink: "Milling", Critical: true, Status: plan.StatusGreen,
			},
			{
				ID: "C-002", Name: "CAM post-processor validation", Type: "Software", Priority: plan.PriorityShould,
				Owner: "Programming", Start: "2026-03-02", Finish: "2026-04-24", Dependencies: "C-001",
				BudgetOpex: 25_000, PercentComplete: 20, Status: plan.StatusRed,
			},
		},
		Risks: []plan.Risk{
			{ID: "CR-01", Description: "Spindle lead time", Impact: plan.LevelHigh, Probability: plan.LevelHigh,
				Mitigation: "Reserve refurbished spare", Owner: "Procurement", Status: plan.RiskOpen},
			{ID: "CR-02", Description: "Programmer availability", Impact: plan.LevelMedium, Probability: plan.LevelLow,
				Mitigation: "Contract programmer", Owner: "Engineering", Status: plan.RiskMonitoring},
		},
		Resources: []plan.Resource{
			{Name: "Machinist", Type: plan.ResourcePersonnel, Quantity: 6, UnitCost: 64_000, Department: "Operations"},
			{Name: "CAM seats", Type: plan.ResourceSoftware, Quantity: 3, UnitCost: 8_500, Department: "Engineering"},
		},
		Processes: []plan.Process{
			{Name: "Milling", CycleTimeMinutes: 6, BatchSize: 4, YieldPercent: 98, TaktTargetSecs: 90, Equipment: "5-axis VMC"},
			{Name: "Deburr", CycleTimeMinutes: 1.2, BatchSize: 1, YieldPercent: 99.5, TaktTargetSecs: 90},
			{Name: "CMM inspection", CycleTimeMinutes: 2, BatchSize: 1, YieldPercent: 100, TaktTargetSecs: 90, Equipment: "CMM"},
		},
		Capex: []plan.CapexLine{
			{Item: "5-axis VMC", Quantity: 2, UnitCost: 420_000, InstallCost: 30_000},
			{Item: "Pallet system", Quantity: 1, UnitCost: 95_000, InstallCost: 10_000},
		},
		Opex: []plan.OpexLine{
			{Item: "Machinist labor", Cadence: "per_year", Quantity: 6, UnitCost: 64_000},
			{Item: "Tooling consumables", Cadence: "per_year", Quantity: 12, UnitCost: 6_500},
		},
	}
	if err := p.Select(plan.Scenario50k, CNCVariant); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handler) loadBaselineDataset(ctx context.Context) (*plan.Plan, error) {
	err := h.createScenarios(ctx, []demoScenario{
		{scenario: plan.Scenario{Name: "Baseline", Description: "No KPI or cost tracking yet", TargetUnits: 50_000}},
	})
	if err != nil {
		return nil, err
	}
	return plan.Seed(), nil
}
