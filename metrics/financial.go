package metrics

import (
	"math"

	"github.com/warp/scaleup-planner/plan"
)

// Revenue model constants. The fallbacks apply when the active scenario
// has no cost data.
const (
	UnitPrice             = 45.0
	FallbackRevenue       = 2_250_000.0
	FallbackTotalCost     = 1_708_250.0
	FallbackROI           = 131.7
	FallbackBreakEven     = 8
	CashFlowPositiveLabel = "Yes"
	CashFlowDelayedLabel  = "Delayed"
)

// Per-scenario fixed lookups. Unknown keys use the 50k values.
var (
	marketSizeBillions = map[plan.ScenarioKey]float64{
		plan.Scenario50k:  2.5,
		plan.Scenario200k: 10.0,
	}
	nominalCapacity = map[plan.ScenarioKey]float64{
		plan.Scenario50k:  60_000,
		plan.Scenario200k: 250_000,
	}
)

// Financials is the revenue / ROI block.
type Financials struct {
	FromCostData     bool    `json:"from_cost_data"`
	Revenue          float64 `json:"revenue"`
	Capex            float64 `json:"capex"`
	Opex             float64 `json:"opex"`
	TotalCost        float64 `json:"total_cost"`
	GrossProfit      float64 `json:"gross_profit"`
	ProfitMargin     float64 `json:"profit_margin"`
	ROI              float64 `json:"roi"`
	BreakEvenMonths  int     `json:"break_even_months"`
	CashFlowPositive string  `json:"cash_flow_positive"`
}

// ComputeFinancials derives revenue, cost, margin, ROI and break-even.
func ComputeFinancials(params plan.ScenarioParameters, cost *plan.CostData) Financials {
	f := Financials{
		Revenue:         FallbackRevenue,
		TotalCost:       FallbackTotalCost,
		ROI:             FallbackROI,
		BreakEvenMonths: FallbackBreakEven,
	}

	if cost != nil {
		f.FromCostData = true
		f.Revenue = params.UnitsPerYear * UnitPrice
		f.Capex = cost.Capex
		f.Opex = cost.Opex
		f.TotalCost = cost.Capex + cost.Opex
	}

	f.GrossProfit = f.Revenue - f.TotalCost
	f.ProfitMargin = math.Max(f.GrossProfit/math.Max(f.Revenue, 1)*100, 0)

	if cost != nil {
		f.ROI = math.Max((f.Revenue-f.Opex)/math.Max(f.Capex, 1)*100, 0)
		months := math.Ceil(f.Capex / math.Max(f.GrossProfit/12, 1))
		f.BreakEvenMonths = int(math.Max(months, 1))
	}

	f.CashFlowPositive = CashFlowDelayedLabel
	if f.BreakEvenMonths <= 12 {
		f.CashFlowPositive = CashFlowPositiveLabel
	}
	return f
}

// MarketSizeBillions returns the fixed addressable market for a key.
func MarketSizeBillions(key plan.ScenarioKey) float64 {
	if v, ok := marketSizeBillions[key]; ok {
		return v
	}
	return marketSizeBillions[plan.Scenario50k]
}

// MarketShare is revenue in millions over the market size in millions,
// as a percentage.
func MarketShare(revenue float64, key plan.ScenarioKey) float64 {
	return (revenue / 1_000_000) / (MarketSizeBillions(key) * 1000) * 100
}

// NominalCapacity returns the fixed units/year capacity for a key.
func NominalCapacity(key plan.ScenarioKey) float64 {
	if v, ok := nominalCapacity[key]; ok {
		return v
	}
	return nominalCapacity[plan.Scenario50k]
}

// CapacityUtilization is units/year over nominal capacity x 100, rounded.
func CapacityUtilization(unitsPerYear float64, key plan.ScenarioKey) float64 {
	return math.Round(unitsPerYear / NominalCapacity(key) * 100)
}
