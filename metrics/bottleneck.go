package metrics

import (
	"math"
	"sort"
	"strings"

	"github.com/warp/scaleup-planner/plan"
)

// MaxBottlenecks is how many processes the ranking keeps.
const MaxBottlenecks = 6

// Bottleneck is a process ranked by how far its cycle time exceeds takt.
type Bottleneck struct {
	Name             string  `json:"name"`
	CycleTimeSeconds float64 `json:"cycle_time_seconds"`
	TaktSeconds      float64 `json:"takt_seconds"`
	Ratio            float64 `json:"ratio"`
}

// Bottlenecks ranks named processes by cycle time (minutes x 60) over
// max(1, takt target), highest first, keeping the top MaxBottlenecks.
// Ties keep table order.
func Bottlenecks(processes []plan.Process) []Bottleneck {
	ranked := make([]Bottleneck, 0, len(processes))
	for _, p := range processes {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		cycle := p.CycleTimeMinutes * 60
		takt := math.Max(1, p.TaktTargetSecs)
		ranked = append(ranked, Bottleneck{
			Name:             p.Name,
			CycleTimeSeconds: cycle,
			TaktSeconds:      takt,
			Ratio:            cycle / takt,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Ratio > ranked[j].Ratio
	})

	if len(ranked) > MaxBottlenecks {
		ranked = ranked[:MaxBottlenecks]
	}
	return ranked
}
