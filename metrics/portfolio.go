package metrics

import (
	"strings"

	"github.com/warp/scaleup-planner/plan"
)

// Portfolio summarizes project progress.
type Portfolio struct {
	TotalProjects     int     `json:"total_projects"`
	CompletionPercent float64 `json:"completion_percent"`
	OnTrack           int     `json:"on_track"`
	AtRisk            int     `json:"at_risk"`
	Critical          int     `json:"critical"`
}

// ClampPercent limits a percent-complete value to [0, 100].
func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// CompletionPercent is the mean clamped percent complete, or 0 for an
// empty portfolio.
func CompletionPercent(projects []plan.Project) float64 {
	if len(projects) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range projects {
		sum += ClampPercent(p.PercentComplete)
	}
	return sum / (float64(len(projects)) * 100) * 100
}

// StatusCounts counts GREEN (on track) and RED (at risk) projects. The
// match is exact but case-insensitive; any other status counts as neither.
func StatusCounts(projects []plan.Project) (onTrack, atRisk int) {
	for _, p := range projects {
		s := strings.TrimSpace(p.Status)
		switch {
		case strings.EqualFold(s, plan.StatusGreen):
			onTrack++
		case strings.EqualFold(s, plan.StatusRed):
			atRisk++
		}
	}
	return onTrack, atRisk
}

// ComputePortfolio fills a Portfolio from the project table.
func ComputePortfolio(projects []plan.Project) Portfolio {
	onTrack, atRisk := StatusCounts(projects)
	critical := 0
	for _, p := range projects {
		if p.Critical {
			critical++
		}
	}
	return Portfolio{
		TotalProjects:     len(projects),
		CompletionPercent: CompletionPercent(projects),
		OnTrack:           onTrack,
		AtRisk:            atRisk,
		Critical:          critical,
	}
}
