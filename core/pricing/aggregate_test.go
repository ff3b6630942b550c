package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"pcbuild/core/types"
)

func part(cat types.Category, price string, score int) *types.Component {
	return &types.Component{
		ID:       string(cat),
		Category: cat,
		Price:    decimal.RequireFromString(price),
		Specs:    types.Specs{PerformanceScore: score, TDP: 100},
	}
}

func fullBuild() types.Selections {
	sel := types.NewSelections()
	sel[types.CategoryCPU] = part(types.CategoryCPU, "409.99", 90)
	sel[types.CategoryMotherboard] = part(types.CategoryMotherboard, "289.50", 0)
	sel[types.CategoryRAM] = part(types.CategoryRAM, "119.99", 70)
	sel[types.CategoryStorage] = part(types.CategoryStorage, "149.00", 80)
	sel[types.CategoryGPU] = part(types.CategoryGPU, "1199.99", 100)
	sel[types.CategoryPSU] = part(types.CategoryPSU, "139.99", 0)
	sel[types.CategoryCase] = part(types.CategoryCase, "99.99", 0)
	return sel
}

func TestTotalPrice(t *testing.T) {
	if !TotalPrice(nil).IsZero() {
		t.Error("nil selections should total 0")
	}
	if !TotalPrice(types.NewSelections()).IsZero() {
		t.Error("empty build should total 0")
	}

	expected := decimal.RequireFromString("2408.45")
	if got := TotalPrice(fullBuild()); !got.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestTotalPriceIgnoresNonBuildCategories(t *testing.T) {
	sel := types.NewSelections()
	sel[types.CategoryCooling] = part(types.CategoryCooling, "89.00", 0)
	if !TotalPrice(sel).IsZero() {
		t.Error("cooling is not part of the build sequence")
	}
}

func TestIsCompleteFlipsOnAnyRemoval(t *testing.T) {
	if !IsComplete(fullBuild()) {
		t.Fatal("full build should be complete")
	}
	for _, c := range types.Categories() {
		t.Run(c.String(), func(t *testing.T) {
			sel := fullBuild()
			removed := sel[c].Price
			before := TotalPrice(sel)
			sel[c] = nil
			if IsComplete(sel) {
				t.Errorf("removing %s should make the build incomplete", c)
			}
			if !before.Sub(TotalPrice(sel)).Equal(removed) {
				t.Errorf("total should drop by exactly %s", removed)
			}
		})
	}
}

func TestEstimatedPower(t *testing.T) {
	sel := types.NewSelections()
	if got := EstimatedPower(sel, 150); got != 150 {
		t.Errorf("empty build: expected 150, got %d", got)
	}
	sel[types.CategoryCPU] = part(types.CategoryCPU, "1", 0)
	sel[types.CategoryGPU] = part(types.CategoryGPU, "1", 0)
	if got := EstimatedPower(sel, 150); got != 350 {
		t.Errorf("expected 350, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	sel := fullBuild()
	s := Summarize(sel, []string{"one issue"})

	if !s.IsComplete || s.Filled != 7 || s.Total != 7 || s.Completion != 100 {
		t.Errorf("unexpected completeness: %+v", s)
	}
	if s.Performance != 85 {
		t.Errorf("expected performance 85, got %d", s.Performance)
	}
	if s.Compatibility != 75 {
		t.Errorf("expected compatibility 75, got %d", s.Compatibility)
	}

	sel[types.CategoryCase] = nil
	s = Summarize(sel, []string{"a", "b", "c", "d", "e"})
	if s.IsComplete || s.Completion != 85 {
		t.Errorf("unexpected completeness after removal: %+v", s)
	}
	if s.Compatibility != 0 {
		t.Errorf("compatibility should floor at 0, got %d", s.Compatibility)
	}

	empty := Summarize(types.NewSelections(), nil)
	if empty.Performance != 0 || empty.Compatibility != 100 || empty.Filled != 0 {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}
