package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in    string
		want  Category
		ok    bool
		valid bool
	}{
		{"cpu", CategoryCPU, true, true},
		{" GPU ", CategoryGPU, true, true},
		{"Case", CategoryCase, true, true},
		{"cooling", CategoryCooling, true, false},
		{"monitor", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("ParseCategory(%q) = %q, %v", tt.in, got, ok)
			}
			if got.IsValid() != tt.valid {
				t.Errorf("IsValid(%q) = %v", got, got.IsValid())
			}
		})
	}
}

func TestCategoryOrder(t *testing.T) {
	cats := Categories()
	if len(cats) != 7 || CategoryCount() != 7 {
		t.Fatalf("expected 7 steps, got %d", len(cats))
	}
	for i, c := range cats {
		if StepOf(c) != i {
			t.Errorf("StepOf(%s) = %d, want %d", c, StepOf(c), i)
		}
		if got, _ := CategoryAt(i); got != c {
			t.Errorf("CategoryAt(%d) = %s", i, got)
		}
	}
	if _, ok := CategoryAt(7); ok {
		t.Error("CategoryAt past the end should fail")
	}

	cats[0] = CategoryCase
	if Categories()[0] != CategoryCPU {
		t.Error("Categories returned shared slice")
	}
}

func TestSelectionsCloneIsIndependent(t *testing.T) {
	sel := NewSelections()
	cpu := &Component{ID: "cpu-1", Category: CategoryCPU, Price: decimal.NewFromInt(100)}
	sel[CategoryCPU] = cpu

	clone := sel.Clone()
	clone[CategoryCPU] = nil
	clone[CategoryGPU] = &Component{ID: "gpu-1", Category: CategoryGPU}

	if sel[CategoryCPU] != cpu || sel[CategoryGPU] != nil {
		t.Error("mutating the clone changed the original")
	}
	if filled := sel.Filled(); len(filled) != 1 || filled[0] != CategoryCPU {
		t.Errorf("Filled() = %v", filled)
	}
}

func TestNewSavedConfigurationSkipsEmpty(t *testing.T) {
	sel := NewSelections()
	sel[CategoryRAM] = &Component{ID: "ram-1", Category: CategoryRAM}

	cfg := NewSavedConfiguration("x", sel, decimal.NewFromInt(50))
	if len(cfg.Components) != 1 || cfg.Components[CategoryRAM] != "ram-1" {
		t.Errorf("Components = %v", cfg.Components)
	}
}
