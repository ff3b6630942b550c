package types

import (
	"github.com/shopspring/decimal"
)

// Component is one purchasable part. Components are owned by the catalog
// and never mutated once handed to the configurator.
type Component struct {
	ID       string          `json:"id"`
	Category Category        `json:"category"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Specs    Specs           `json:"specs"`
}

// Specs holds the attributes compatibility rules read. Zero values mean
// "not specified".
type Specs struct {
	// Socket applies to CPU and motherboard
	Socket string `json:"socket,omitempty"`

	// MemoryType applies to RAM and motherboard
	MemoryType string `json:"memoryType,omitempty"`

	// TDP in watts, CPU and GPU
	TDP int `json:"tdp,omitempty"`

	// Wattage in watts, PSU
	Wattage int `json:"wattage,omitempty"`

	// FormFactor of a motherboard, or the comma-separated list a case supports
	FormFactor string `json:"formFactor,omitempty"`

	Brand string `json:"brand,omitempty"`

	// PerformanceScore is a 0-100 benchmark figure
	PerformanceScore int `json:"performanceScore,omitempty"`
}
