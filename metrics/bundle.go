package metrics

import (
	"github.com/warp/scaleup-planner/plan"
)

// Input is everything Compute needs for one scenario/variant selection.
type Input struct {
	ScenarioKey plan.ScenarioKey
	Variant     string
	Parameters  plan.ScenarioParameters
	Tables      *plan.Tables
	KPIs        []plan.KPI
	Cost        *plan.CostData
}

// InputFromPlan builds an Input for the plan's active selection.
func InputFromPlan(p *plan.Plan, kpis []plan.KPI, cost *plan.CostData) Input {
	return Input{
		ScenarioKey: p.ScenarioKey,
		Variant:     p.Variant,
		Parameters:  p.ActiveParameters(),
		Tables:      p.Active(),
		KPIs:        kpis,
		Cost:        cost,
	}
}

// Bundle is the full derived metric set for one selection.
type Bundle struct {
	ScenarioKey         plan.ScenarioKey        `json:"scenario_key"`
	Variant             string                  `json:"variant"`
	Parameters          plan.ScenarioParameters `json:"parameters"`
	Budget              Budget                  `json:"budget"`
	Portfolio           Portfolio               `json:"portfolio"`
	KPIs                []KPIResult             `json:"kpis"`
	HasKPIData          bool                    `json:"has_kpi_data"`
	AverageKPI          float64                 `json:"average_kpi_performance"`
	Bottlenecks         []Bottleneck            `json:"bottlenecks"`
	Financials          Financials              `json:"financials"`
	MarketSizeBillions  float64                 `json:"market_size_billions"`
	MarketShare         float64                 `json:"market_share"`
	CapacityUtilization float64                 `json:"capacity_utilization"`
	Risk                RiskProfile             `json:"risk"`
	Resources           int                     `json:"resource_count"`
	Processes           int                     `json:"process_count"`
}

// Compute derives every metric for in. A nil Tables is treated as empty.
func Compute(in Input) Bundle {
	t := in.Tables
	if t == nil {
		t = &plan.Tables{}
	}

	fin := ComputeFinancials(in.Parameters, in.Cost)

	return Bundle{
		ScenarioKey:         in.ScenarioKey,
		Variant:             in.Variant,
		Parameters:          in.Parameters,
		Budget:              ComputeBudget(t),
		Portfolio:           ComputePortfolio(t.Projects),
		KPIs:                EvaluateKPIs(in.KPIs),
		HasKPIData:          len(in.KPIs) > 0,
		AverageKPI:          AveragePerformance(in.KPIs),
		Bottlenecks:         Bottlenecks(t.Processes),
		Financials:          fin,
		MarketSizeBillions:  MarketSizeBillions(in.ScenarioKey),
		MarketShare:         MarketShare(fin.Revenue, in.ScenarioKey),
		CapacityUtilization: CapacityUtilization(in.Parameters.UnitsPerYear, in.ScenarioKey),
		Risk:                ComputeRiskProfile(t.Risks),
		Resources:           len(t.Resources),
		Processes:           len(t.Processes),
	}
}
