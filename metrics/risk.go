package metrics

import (
	"math"
	"strings"

	"github.com/warp/scaleup-planner/plan"
)

// Risk profile levels.
const (
	RiskLevelHigh     = "High"
	RiskLevelModerate = "Moderate"
	RiskLevelLow      = "Low"
)

// RiskProfile is the risk roll-up for the register.
type RiskProfile struct {
	Total  int     `json:"total"`
	High   int     `json:"high"`
	Medium int     `json:"medium"`
	Low    int     `json:"low"`
	Open   int     `json:"open"`
	Score  float64 `json:"score"`
	Level  string  `json:"level"`
}

// Severity is the level a risk contributes to the profile: the higher of
// its impact and probability ratings, Medium when neither is rated.
func Severity(r plan.Risk) plan.Level {
	if r.Impact == "" && r.Probability == "" {
		return plan.LevelMedium
	}
	if levelRank(r.Probability) > levelRank(r.Impact) {
		return r.Probability
	}
	return r.Impact
}

func levelRank(l plan.Level) int {
	switch l {
	case plan.LevelHigh:
		return 3
	case plan.LevelMedium:
		return 2
	case plan.LevelLow:
		return 1
	}
	return 0
}

// RiskScore is (high x 3 + medium x 2 + low) / max(total, 1).
func RiskScore(high, medium, low int) float64 {
	total := high + medium + low
	return float64(high*3+medium*2+low) / math.Max(float64(total), 1)
}

// RiskLevel classifies a score.
func RiskLevel(score float64) string {
	switch {
	case score >= 2.5:
		return RiskLevelHigh
	case score >= 1.5:
		return RiskLevelModerate
	}
	return RiskLevelLow
}

// ComputeRiskProfile counts the register by severity. Rows with neither
// an ID nor a description are placeholders and are skipped.
func ComputeRiskProfile(risks []plan.Risk) RiskProfile {
	var rp RiskProfile
	for _, r := range risks {
		if strings.TrimSpace(r.ID) == "" && strings.TrimSpace(r.Description) == "" {
			continue
		}
		rp.Total++
		switch Severity(r) {
		case plan.LevelHigh:
			rp.High++
		case plan.LevelLow:
			rp.Low++
		default:
			rp.Medium++
		}
		if r.Status != plan.RiskClosed && r.Status != plan.RiskMitigated {
			rp.Open++
		}
	}
	rp.Score = RiskScore(rp.High, rp.Medium, rp.Low)
	rp.Level = RiskLevel(rp.Score)
	return rp
}
