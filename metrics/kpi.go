package metrics

import (
	"math"

	"github.com/warp/scaleup-planner/plan"
)

// Epsilon floors KPI targets used as denominators.
const Epsilon = 1e-6

// KPI trend labels.
const (
	TrendExceeding = "Exceeding"
	TrendOnTrack   = "On Track"
	TrendBelow     = "Below Target"
)

// KPI status labels.
const (
	StatusOnTrack  = "On Track"
	StatusAtRisk   = "At Risk"
	StatusCritical = "Critical"
)

// KPIResult is one KPI with its derived presentation values.
type KPIResult struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Target   float64 `json:"target"`
	Current  float64 `json:"current"`
	Unit     string  `json:"unit"`
	Owner    string  `json:"owner"`
	Ratio    float64 `json:"ratio"`
	Clamped  float64 `json:"ratio_clamped"`
	Variance float64 `json:"variance"`
	Trend    string  `json:"trend"`
	Status   string  `json:"status"`
}

// PerformanceRatio is current / max(target, Epsilon), unclamped. Used for
// variance and percentage reporting.
func PerformanceRatio(k plan.KPI) float64 {
	return k.CurrentValue / math.Max(k.TargetValue, Epsilon)
}

// ClampedRatio is PerformanceRatio limited to [0, 1], for sparklines.
func ClampedRatio(k plan.KPI) float64 {
	return math.Min(1, math.Max(0, PerformanceRatio(k)))
}

// AveragePerformance is the mean unclamped ratio x 100, or 0 without KPIs.
func AveragePerformance(kpis []plan.KPI) float64 {
	if len(kpis) == 0 {
		return 0
	}
	sum := 0.0
	for _, k := range kpis {
		sum += PerformanceRatio(k)
	}
	return sum / float64(len(kpis)) * 100
}

// Variance is (current - target) / max(target, Epsilon) x 100, rounded to
// one decimal.
func Variance(k plan.KPI) float64 {
	v := (k.CurrentValue - k.TargetValue) / math.Max(k.TargetValue, Epsilon) * 100
	return math.Round(v*10) / 10
}

// Trend classifies a variance.
func Trend(variance float64) string {
	switch {
	case variance > 5:
		return TrendExceeding
	case variance > -10:
		return TrendOnTrack
	}
	return TrendBelow
}

// Status classifies current against target.
func Status(k plan.KPI) string {
	switch {
	case k.CurrentValue >= k.TargetValue*0.9:
		return StatusOnTrack
	case k.CurrentValue >= k.TargetValue*0.7:
		return StatusAtRisk
	}
	return StatusCritical
}

// EvaluateKPIs derives the presentation values for every KPI.
func EvaluateKPIs(kpis []plan.KPI) []KPIResult {
	out := make([]KPIResult, len(kpis))
	for i, k := range kpis {
		variance := Variance(k)
		out[i] = KPIResult{
			ID:       k.ID,
			Name:     k.Name,
			Target:   k.TargetValue,
			Current:  k.CurrentValue,
			Unit:     k.Unit,
			Owner:    k.Owner,
			Ratio:    PerformanceRatio(k),
			Clamped:  ClampedRatio(k),
			Variance: variance,
			Trend:    Trend(variance),
			Status:   Status(k),
		}
	}
	return out
}
