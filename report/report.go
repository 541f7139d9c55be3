/*
Package report turns a metrics bundle into the board narrative and the
one-line digest.

PURPOSE:
  The narrative has a fixed section order so exports and diffs stay
  stable:

    1. Executive Summary
    2. Financial Performance
    3. Market Position
    4. Operational Excellence
    5. Risk Assessment
    6. KPI Dashboard
    7. Strategic Recommendations
    8. Board Agenda
    9. Conclusion

  Currency headline stats go through FormatCurrency, percentages through
  FormatPercent. Synthesis never fails; missing metrics arrive as the
  neutral defaults metrics.Compute already fills in.

SEE ALSO:
  - paginate.go:  Word-wrapped pages for printable output
  - render.go:    PNG rendering of a page
  - metrics/:     Produces the Bundle consumed here
*/
package report

import (
	"fmt"
	"strings"

	"github.com/warp/scaleup-planner/metrics"
	"github.com/warp/scaleup-planner/plan"
)

// Section titles, in narrative order.
const (
	SectionExecutiveSummary = "Executive Summary"
	SectionFinancial        = "Financial Performance"
	SectionMarket           = "Market Position"
	SectionOperations       = "Operational Excellence"
	SectionRisk             = "Risk Assessment"
	SectionKPI              = "KPI Dashboard"
	SectionRecommendations  = "Strategic Recommendations"
	SectionBoardAgenda      = "Board Agenda"
	SectionConclusion       = "Conclusion"
)

// SectionOrder lists every section title in the order they are emitted.
var SectionOrder = []string{
	SectionExecutiveSummary,
	SectionFinancial,
	SectionMarket,
	SectionOperations,
	SectionRisk,
	SectionKPI,
	SectionRecommendations,
	SectionBoardAgenda,
	SectionConclusion,
}

// Section is one titled block of the narrative.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Report is the synthesized output.
type Report struct {
	Title     string    `json:"title"`
	Sections  []Section `json:"sections"`
	Narrative string    `json:"narrative"`
	Digest    string    `json:"digest"`
}

// Synthesize builds the narrative and digest for b. Empty variant or key
// labels fall back to the ones recorded in the bundle.
func Synthesize(b metrics.Bundle, variant string, key plan.ScenarioKey) Report {
	if variant == "" {
		variant = b.Variant
	}
	if variant == "" {
		variant = "Default"
	}
	if key == "" {
		key = b.ScenarioKey
	}

	w := writer{b: b, variant: variant, key: key}
	sections := []Section{
		{SectionExecutiveSummary, w.executiveSummary()},
		{SectionFinancial, w.financial()},
		{SectionMarket, w.market()},
		{SectionOperations, w.operations()},
		{SectionRisk, w.risk()},
		{SectionKPI, w.kpis()},
		{SectionRecommendations, w.recommendations()},
		{SectionBoardAgenda, w.agenda()},
		{SectionConclusion, w.conclusion()},
	}

	r := Report{
		Title:    fmt.Sprintf("Scale-Up Board Report: %s (%s units/year)", variant, key),
		Sections: sections,
		Digest:   Digest(b, variant, key),
	}

	var sb strings.Builder
	sb.WriteString(r.Title)
	sb.WriteString("\n\n")
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.ToUpper(s.Title))
		sb.WriteString("\n")
		sb.WriteString(s.Body)
	}
	r.Narrative = sb.String()
	return r
}

// Digest is the one-sentence summary: project count, completion, revenue,
// ROI, break-even and risk level.
func Digest(b metrics.Bundle, variant string, key plan.ScenarioKey) string {
	return fmt.Sprintf(
		"%s at %s: %d projects (%s complete), revenue %s, ROI %s, break-even in %d months, %s risk.",
		variant, key,
		b.Portfolio.TotalProjects,
		FormatPercent(b.Portfolio.CompletionPercent),
		FormatCurrency(b.Financials.Revenue),
		FormatPercent(b.Financials.ROI),
		b.Financials.BreakEvenMonths,
		strings.ToLower(b.Risk.Level),
	)
}

// Markdown renders r as a downloadable markdown document.
func Markdown(r Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	fmt.Fprintf(&sb, "> %s\n", r.Digest)
	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "\n## %s\n\n%s\n", s.Title, s.Body)
	}
	return sb.String()
}

// ===== SECTION WRITERS =====

type writer struct {
	b       metrics.Bundle
	variant string
	key     plan.ScenarioKey
}

func (w writer) executiveSummary() string {
	p := w.b.Portfolio
	f := w.b.Financials
	return fmt.Sprintf(
		"The %s program targets %s units per year and tracks %d projects at %s average completion. "+
			"%d projects are on track and %d are at risk. "+
			"Projected annual revenue is %s against a total cost of %s, for an ROI of %s.",
		w.variant, formatUnits(w.b.Parameters.UnitsPerYear), p.TotalProjects,
		FormatPercent(p.CompletionPercent), p.OnTrack, p.AtRisk,
		FormatCurrency(f.Revenue), FormatCurrency(f.TotalCost), FormatPercent(f.ROI),
	)
}

func (w writer) financial() string {
	f := w.b.Financials
	bud := w.b.Budget
	lines := []string{
		"Revenue: " + FormatCurrency(f.Revenue),
		"Total cost: " + FormatCurrency(f.TotalCost),
		"Gross profit: " + FormatCurrency(f.GrossProfit),
		"Profit margin: " + FormatPercent(f.ProfitMargin),
		"ROI: " + FormatPercent(f.ROI),
		fmt.Sprintf("Break-even: %d months (cash flow positive in year one: %s)", f.BreakEvenMonths, f.CashFlowPositive),
		fmt.Sprintf("Planned spend: %s capex, %s opex, %s total",
			FormatCurrency(bud.PlannedCapex), FormatCurrency(bud.PlannedOpex), FormatCurrency(bud.PlannedTotal)),
		fmt.Sprintf("Project budgets: %s capex, %s opex",
			FormatCurrency(bud.ProjectCapex), FormatCurrency(bud.ProjectOpex)),
	}
	if !f.FromCostData {
		lines = append(lines, "No cost data is recorded for this scenario; figures use baseline assumptions.")
	}
	return bullets(lines)
}

func (w writer) market() string {
	return fmt.Sprintf(
		"The addressable market is estimated at $%.1fB. At projected revenue the program captures %.2f%% of it. "+
			"Planned volume uses %s of nominal line capacity (%s units/year).",
		w.b.MarketSizeBillions, w.b.MarketShare,
		FormatPercent(w.b.CapacityUtilization), formatUnits(metrics.NominalCapacity(w.key)),
	)
}

func (w writer) operations() string {
	params := w.b.Parameters
	head := fmt.Sprintf("Operating plan: %s units/year on %g shifts of %g hours per day, across %d processes and %d planned resources.",
		formatUnits(params.UnitsPerYear), params.Shifts, params.HoursPerDay, w.b.Processes, w.b.Resources)
	if len(w.b.Bottlenecks) == 0 {
		return head + "\nNo manufacturing processes are recorded yet."
	}

	lines := make([]string, 0, len(w.b.Bottlenecks))
	for _, bn := range w.b.Bottlenecks {
		lines = append(lines, fmt.Sprintf("%s: cycle %.0fs vs takt %.0fs (ratio %.2f)",
			bn.Name, bn.CycleTimeSeconds, bn.TaktSeconds, bn.Ratio))
	}
	return head + "\nTop bottlenecks by cycle/takt ratio:\n" + bullets(lines)
}

func (w writer) risk() string {
	r := w.b.Risk
	if r.Total == 0 {
		return "The risk register is empty."
	}
	return fmt.Sprintf(
		"%d risks are registered (%d high, %d medium, %d low), %d still open. "+
			"The weighted risk score is %.1f, a %s risk profile.",
		r.Total, r.High, r.Medium, r.Low, r.Open, r.Score, strings.ToLower(r.Level),
	)
}

func (w writer) kpis() string {
	if !w.b.HasKPIData {
		return "No KPI data is recorded for this scenario."
	}
	lines := make([]string, 0, len(w.b.KPIs))
	for _, k := range w.b.KPIs {
		lines = append(lines, fmt.Sprintf("%s: %g / %g %s (variance %+.1f%%, %s, %s)",
			k.Name, k.Current, k.Target, k.Unit, k.Variance, k.Trend, k.Status))
	}
	return fmt.Sprintf("Average KPI performance is %s of target.\n", FormatPercent(w.b.AverageKPI)) + bullets(lines)
}

func (w writer) recommendations() string {
	var recs []string
	if n := w.b.Portfolio.AtRisk; n > 0 {
		recs = append(recs, fmt.Sprintf("Recover the %d at-risk projects before committing further spend.", n))
	}
	if len(w.b.Bottlenecks) > 0 && w.b.Bottlenecks[0].Ratio > 1 {
		recs = append(recs, fmt.Sprintf("Relieve the %s bottleneck; its cycle time is %.1fx takt.",
			w.b.Bottlenecks[0].Name, w.b.Bottlenecks[0].Ratio))
	}
	if w.b.Risk.Level == metrics.RiskLevelHigh {
		recs = append(recs, "Fund mitigation for the high-severity risks on the register.")
	}
	if w.b.Financials.BreakEvenMonths > 12 {
		recs = append(recs, "Revisit capex phasing to bring break-even inside twelve months.")
	}
	switch u := w.b.CapacityUtilization; {
	case u > 90:
		recs = append(recs, "Plan additional capacity; utilization is above 90%.")
	case u > 0 && u < 50:
		recs = append(recs, "Utilization is below 50%; consider consolidating lines.")
	}
	if w.b.HasKPIData && w.b.AverageKPI < 70 {
		recs = append(recs, "Escalate KPIs tracking below 70% of target.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Maintain the current execution cadence.")
	}
	return bullets(recs)
}

func (w writer) agenda() string {
	total := w.b.Budget.PlannedTotal
	if total == 0 {
		total = w.b.Financials.TotalCost
	}
	items := []string{
		fmt.Sprintf("Approve the %s budget of %s.", w.variant, FormatCurrency(total)),
		fmt.Sprintf("Confirm the production ramp to %s units per year.", formatUnits(w.b.Parameters.UnitsPerYear)),
		fmt.Sprintf("Review the risk register (%s profile).", strings.ToLower(w.b.Risk.Level)),
		"Review KPI performance and owners.",
		"Agree next review date.",
	}
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, it)
	}
	return sb.String()
}

func (w writer) conclusion() string {
	f := w.b.Financials
	outlook := "requires corrective action"
	if f.CashFlowPositive == metrics.CashFlowPositiveLabel && w.b.Risk.Level != metrics.RiskLevelHigh {
		outlook = "is positioned to deliver"
	}
	return fmt.Sprintf("With an ROI of %s and break-even in %d months, the %s plan at %s units/year %s.",
		FormatPercent(f.ROI), f.BreakEvenMonths, w.variant, w.key, outlook)
}

func bullets(lines []string) string {
	return "- " + strings.Join(lines, "\n- ")
}

func formatUnits(v float64) string {
	n := int64(v + 0.5)
	if v < 0 {
		n = int64(v - 0.5)
	}
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + group(s[1:])
	}
	return group(s)
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	var sb strings.Builder
	sb.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		sb.WriteString(",")
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
