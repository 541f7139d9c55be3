package report_test

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/scaleup-planner/metrics"
	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/report"
)

// =============================================================================
// FORMATTING
// =============================================================================

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2_250_000, "$2.3M"},
		{1_000_000, "$1.0M"},
		{1_708_250, "$1.7M"},
		{999_950, "$1.0M"},
		{999_499, "$999k"},
		{950_000, "$950k"},
		{541_750, "$542k"},
		{1_000, "$1k"},
		{999.995, "$1k"},
		{999, "$999"},
		{12.5, "$12.5"},
		{0, "$0"},
		{-1_500_000, "-$1.5M"},
		{-2_500, "-$3k"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, report.FormatCurrency(tt.in), "in %v", tt.in)
	}
}

func TestFormatPercent_IntegerRounded(t *testing.T) {
	assert.Equal(t, "132%", report.FormatPercent(131.7))
	assert.Equal(t, "3%", report.FormatPercent(2.5))
	assert.Equal(t, "0%", report.FormatPercent(0))
}

// =============================================================================
// SYNTHESIS
// =============================================================================

func sampleBundle() metrics.Bundle {
	p := plan.New(plan.Scenario50k, "Injection Molding")
	p.Parameters[plan.Scenario50k] = plan.ScenarioParameters{UnitsPerYear: 50_000, HoursPerDay: 16, Shifts: 2}
	t := p.Active()
	t.Projects = []plan.Project{
		{ID: "P1", Status: "GREEN", PercentComplete: 60},
		{ID: "P2", Status: "RED", PercentComplete: 20},
		{ID: "P3", Status: "AMBER", PercentComplete: 40},
	}
	t.Processes = []plan.Process{{Name: "Molding", CycleTimeMinutes: 2, TaktTargetSecs: 90}}
	t.Risks = []plan.Risk{{ID: "R1", Impact: plan.LevelHigh}}
	kpis := []plan.KPI{{Name: "Yield", TargetValue: 98, CurrentValue: 95, Unit: "%"}}
	return metrics.Compute(metrics.InputFromPlan(p, kpis, nil))
}

func TestSynthesize_SectionsInFixedOrder(t *testing.T) {
	r := report.Synthesize(sampleBundle(), "", "")

	require.Len(t, r.Sections, len(report.SectionOrder))
	last := -1
	for i, s := range r.Sections {
		assert.Equal(t, report.SectionOrder[i], s.Title)
		assert.NotEmpty(t, s.Body, s.Title)

		at := strings.Index(r.Narrative, strings.ToUpper(s.Title))
		require.GreaterOrEqual(t, at, 0, s.Title)
		assert.Greater(t, at, last, s.Title)
		last = at
	}
}

func TestSynthesize_LabelsFallBackToBundle(t *testing.T) {
	r := report.Synthesize(sampleBundle(), "", "")
	assert.Contains(t, r.Title, "Injection Molding")
	assert.Contains(t, r.Title, "50k")

	r = report.Synthesize(sampleBundle(), "CNC", plan.Scenario200k)
	assert.Contains(t, r.Title, "CNC")
	assert.Contains(t, r.Digest, "CNC at 200k")
}

func TestSynthesize_UsesAbbreviatedCurrency(t *testing.T) {
	r := report.Synthesize(sampleBundle(), "", "")

	// Fallback revenue without cost data.
	assert.Contains(t, r.Narrative, "$2.3M")
	assert.Contains(t, r.Narrative, "baseline assumptions")
	assert.Contains(t, r.Narrative, "Molding")
	assert.Contains(t, r.Digest, "3 projects")
}

func TestSynthesize_EmptyBundleNeverFails(t *testing.T) {
	r := report.Synthesize(metrics.Compute(metrics.Input{}), "", "")

	assert.NotEmpty(t, r.Narrative)
	assert.Contains(t, r.Narrative, "No KPI data")
	assert.Contains(t, r.Narrative, "risk register is empty")
	assert.Contains(t, r.Digest, "0 projects")
}

func TestMarkdown_HasHeadingsAndDigest(t *testing.T) {
	r := report.Synthesize(sampleBundle(), "", "")
	md := report.Markdown(r)

	assert.True(t, strings.HasPrefix(md, "# "+r.Title))
	assert.Contains(t, md, "> "+r.Digest)
	for _, title := range report.SectionOrder {
		assert.Contains(t, md, "\n## "+title+"\n")
	}
}

// End to end: payload -> plan -> metrics -> digest.
func TestDigest_FromLoadedPayload(t *testing.T) {
	raw := []byte(`{
		"scenarioKey": "50k",
		"variant": "CNC",
		"scenarios": {"50k": {"units_per_year": 40000, "hours_per_day": 16, "shifts": 2}},
		"variants": {"CNC": {"50k": {
			"projects": [
				["P-1","Tooling","Capex","Must","Ana","","","","","","","","","","","","",50000,2500,40,"","","GREEN",3],
				["P-2","Training","Opex","Should","Ben","","","","","","","","","","","","",0,1200,10,"","","RED",0]
			],
			"risks": [["R1","Resin supply","H","M","","","","Open"]],
			"resources": [["Operator","Personnel",4,52000,"Ops",""]]
		}}}
	}`)
	p, err := plan.Decode(raw, nil)
	require.NoError(t, err)

	cost := &plan.CostData{Capex: 900_000, Opex: 400_000}
	b := metrics.Compute(metrics.InputFromPlan(p, nil, cost))
	r := report.Synthesize(b, p.Variant, p.ScenarioKey)

	// 40,000 x 45
	require.Equal(t, 1_800_000.0, b.Financials.Revenue)
	assert.Contains(t, r.Digest, "2 projects")
	assert.Contains(t, r.Digest, "revenue "+report.FormatCurrency(1_800_000))
	assert.Contains(t, r.Digest, "$1.8M")
	assert.NotContains(t, r.Digest, "\n")
	assert.True(t, strings.HasSuffix(r.Digest, "."))
}

// =============================================================================
// PAGINATION
// =============================================================================

func smallLayout() report.Layout {
	// basicfont 7x13: 25 glyphs per line, 6 lines per page.
	return report.Layout{Width: 200, Height: 100, Margin: 10, LineSpacing: 1}
}

func TestPaginate_NewPageWhenCursorPassesHeight(t *testing.T) {
	var paras []string
	for i := 1; i <= 20; i++ {
		paras = append(paras, fmt.Sprintf("line %d", i))
	}

	pages := report.Paginate(strings.Join(paras, "\n"), smallLayout())

	require.Len(t, pages, 4)
	assert.Len(t, pages[0].Lines, 6)
	assert.Len(t, pages[3].Lines, 2)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, 4, p.Total)
	}
	assert.Equal(t, "line 7", pages[1].Lines[0])
}

func TestPaginate_WrapsToContentWidth(t *testing.T) {
	l := smallLayout()
	para := strings.TrimSpace(strings.Repeat("abcd ", 10))

	pages := report.Paginate(para, l)

	require.Len(t, pages, 1)
	lines := pages[0].Lines
	assert.Greater(t, len(lines), 1)
	words := 0
	for _, line := range lines {
		assert.LessOrEqual(t, float64(len(line)*7), l.ContentWidth(), line)
		words += len(strings.Fields(line))
	}
	assert.Equal(t, 10, words)
}

func TestPaginate_EmptyTextIsOnePage(t *testing.T) {
	pages := report.Paginate("", report.DefaultLayout())
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Total)
}

func TestRenderPage_EncodesPNG(t *testing.T) {
	l := smallLayout()
	pages := report.Paginate("Board report\n\nRevenue $2.3M", l)

	raw, err := report.RenderPage(pages[0], l)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestRenderPage_InvalidSize(t *testing.T) {
	_, err := report.RenderPage(report.Page{}, report.Layout{})
	assert.Error(t, err)
}

func TestLoadFontFace_MissingFile(t *testing.T) {
	_, err := report.LoadFontFace("/nonexistent/font.ttf", 12)
	assert.Error(t, err)
}
