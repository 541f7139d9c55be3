/*
Package metrics derives every number shown on the overview, financial and
analysis views.

PURPOSE:
  Pure functions of the normalized plan tables, the active scenario
  parameters, KPIs and cost data, plus a handful of fixed constants.
  Nothing here performs I/O, returns an error, or panics.

DEGENERATE INPUTS:
  Every division floors its denominator (epsilon for KPI targets, 1 for
  everything else). Empty inputs produce zeros or the documented fallback
  constants, never NaN or Inf.

PRECISION:
  Budget roll-ups sum with decimal.Decimal and convert once at the end, so
  long line-item lists add up the same way a spreadsheet would.

SEE ALSO:
  - bundle.go:    Compute assembles everything for one selection
  - report/:      Renders a Bundle into text
*/
package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/table"
)

// ToNum parses v to a number, returning def when it is missing or not
// finite. Every raw cell goes through it before arithmetic.
func ToNum(v any, def float64) float64 {
	return table.ToNum(v, def)
}

// Budget is the planned-spend roll-up.
type Budget struct {
	PlannedCapex  float64 `json:"planned_capex"`
	PlannedOpex   float64 `json:"planned_opex"`
	PlannedTotal  float64 `json:"planned_total"`
	ProjectCapex  float64 `json:"project_capex"`
	ProjectOpex   float64 `json:"project_opex"`
	ResourceTotal float64 `json:"resource_total"`
}

// CapexLineTotal is quantity x unit cost + install cost.
func CapexLineTotal(l plan.CapexLine) float64 {
	return capexLine(l).InexactFloat64()
}

// OpexLineTotal is quantity x unit cost.
func OpexLineTotal(l plan.OpexLine) float64 {
	return product(l.Quantity, l.UnitCost).InexactFloat64()
}

// CapexTotal sums every capex line.
func CapexTotal(lines []plan.CapexLine) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(capexLine(l))
	}
	return sum.InexactFloat64()
}

// OpexTotal sums every opex line.
func OpexTotal(lines []plan.OpexLine) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(product(l.Quantity, l.UnitCost))
	}
	return sum.InexactFloat64()
}

// ProjectCapex sums the capex budget column across projects.
func ProjectCapex(projects []plan.Project) float64 {
	sum := decimal.Zero
	for _, p := range projects {
		sum = sum.Add(decimal.NewFromFloat(p.BudgetCapex))
	}
	return sum.InexactFloat64()
}

// ProjectOpex sums the opex budget column across projects.
func ProjectOpex(projects []plan.Project) float64 {
	sum := decimal.Zero
	for _, p := range projects {
		sum = sum.Add(decimal.NewFromFloat(p.BudgetOpex))
	}
	return sum.InexactFloat64()
}

// ResourceTotal sums quantity x unit cost over the resource plan.
func ResourceTotal(resources []plan.Resource) float64 {
	sum := decimal.Zero
	for _, r := range resources {
		sum = sum.Add(product(r.Quantity, r.UnitCost))
	}
	return sum.InexactFloat64()
}

// ComputeBudget rolls up the planned and project-derived spend.
func ComputeBudget(t *plan.Tables) Budget {
	if t == nil {
		return Budget{}
	}
	return Budget{
		PlannedCapex:  CapexTotal(t.Capex),
		PlannedOpex:   OpexTotal(t.Opex),
		PlannedTotal:  PlannedTotal(t.Capex, t.Opex),
		ProjectCapex:  ProjectCapex(t.Projects),
		ProjectOpex:   ProjectOpex(t.Projects),
		ResourceTotal: ResourceTotal(t.Resources),
	}
}

func capexLine(l plan.CapexLine) decimal.Decimal {
	return product(l.Quantity, l.UnitCost).Add(decimal.NewFromFloat(l.InstallCost))
}

func product(a, b float64) decimal.Decimal {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b))
}

// PlannedTotal is planned capex + planned opex.
func PlannedTotal(capex []plan.CapexLine, opex []plan.OpexLine) float64 {
	return decimal.NewFromFloat(CapexTotal(capex)).
		Add(decimal.NewFromFloat(OpexTotal(opex))).
		InexactFloat64()
}
