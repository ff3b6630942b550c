// Package pricing derives price, completeness and scores from a selection
// map. Every function here is stateless; callers may pass any snapshot.
package pricing

import (
	"github.com/shopspring/decimal"

	"pcbuild/core/types"
)

// issuePenalty is subtracted from the compatibility score per issue
const issuePenalty = 25

// performanceCategories contribute to the performance score
var performanceCategories = []types.Category{
	types.CategoryCPU,
	types.CategoryGPU,
	types.CategoryRAM,
	types.CategoryStorage,
}

// TotalPrice sums the prices of all non-empty selections
func TotalPrice(sel types.Selections) decimal.Decimal {
	total := decimal.Zero
	for _, c := range types.Categories() {
		if comp := sel[c]; comp != nil {
			total = total.Add(comp.Price)
		}
	}
	return total
}

// IsComplete reports whether every build category has a selection
func IsComplete(sel types.Selections) bool {
	for _, c := range types.Categories() {
		if sel[c] == nil {
			return false
		}
	}
	return true
}

// EstimatedPower returns CPU TDP + GPU TDP + headroom for whichever of the
// two are selected
func EstimatedPower(sel types.Selections, headroomWatts int) int {
	watts := headroomWatts
	if cpu := sel[types.CategoryCPU]; cpu != nil {
		watts += cpu.Specs.TDP
	}
	if gpu := sel[types.CategoryGPU]; gpu != nil {
		watts += gpu.Specs.TDP
	}
	return watts
}

// Summary is the aggregate view of a build
type Summary struct {
	TotalPrice decimal.Decimal `json:"total_price"`
	IsComplete bool            `json:"is_complete"`

	// Filled and Total count categories
	Filled int `json:"filled"`
	Total  int `json:"total"`

	// Completion is Filled/Total as a percentage
	Completion int `json:"completion"`

	// Performance averages the benchmark scores of scored components (0-100)
	Performance int `json:"performance"`

	// Compatibility starts at 100 and loses 25 per issue, floor 0
	Compatibility int `json:"compatibility"`
}

// Summarize aggregates a build and the issues already computed for it
func Summarize(sel types.Selections, issues []string) Summary {
	total := types.CategoryCount()
	filled := len(sel.Filled())

	return Summary{
		TotalPrice:    TotalPrice(sel),
		IsComplete:    filled == total,
		Filled:        filled,
		Total:         total,
		Completion:    filled * 100 / total,
		Performance:   performanceScore(sel),
		Compatibility: compatibilityScore(len(issues)),
	}
}

func performanceScore(sel types.Selections) int {
	sum, n := 0, 0
	for _, c := range performanceCategories {
		if comp := sel[c]; comp != nil && comp.Specs.PerformanceScore > 0 {
			sum += comp.Specs.PerformanceScore
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func compatibilityScore(issues int) int {
	score := 100 - issuePenalty*issues
	if score < 0 {
		return 0
	}
	return score
}
