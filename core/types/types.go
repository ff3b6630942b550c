// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package types

import "strings"

// Category is a component slot a build must fill
type Category string

const (
	CategoryCPU         Category = "cpu"
	CategoryMotherboard Category = "motherboard"
	CategoryRAM         Category = "ram"
	CategoryStorage     Category = "storage"
	CategoryGPU         Category = "gpu"
	CategoryPSU         Category = "psu"
	CategoryCase        Category = "case"

	// CategoryCooling is recognised by the catalog but is not part of the
	// required build sequence.
	CategoryCooling Category = "cooling"
)

// categoryOrder is the fixed step order of the configurator
var categoryOrder = []Category{
	CategoryCPU,
	CategoryMotherboard,
	CategoryRAM,
	CategoryStorage,
	CategoryGPU,
	CategoryPSU,
	CategoryCase,
}

var categoryLabels = map[Category]string{
	CategoryCPU:         "CPU",
	CategoryMotherboard: "Motherboard",
	CategoryRAM:         "RAM",
	CategoryStorage:     "Storage",
	CategoryGPU:         "GPU",
	CategoryPSU:         "PSU",
	CategoryCase:        "Case",
	CategoryCooling:     "Cooling",
}

// Categories returns the ordered build sequence. The slice is a copy.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// CategoryCount is the number of steps in a build
func CategoryCount() int {
	return len(categoryOrder)
}

// CategoryAt returns the category for a step index
func CategoryAt(step int) (Category, bool) {
	if step < 0 || step >= len(categoryOrder) {
		return "", false
	}
	return categoryOrder[step], true
}

// StepOf returns the step index of a build category, or -1
func StepOf(c Category) int {
	for i, cat := range categoryOrder {
		if cat == c {
			return i
		}
	}
	return -1
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// Label returns the display name
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// IsValid checks if the category is part of the build sequence
func (c Category) IsValid() bool {
	return StepOf(c) >= 0
}

// IsKnown checks if the catalog recognises the category
func (c Category) IsKnown() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory resolves a category name case-insensitively
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsKnown() {
		return "", false
	}
	return c, true
}
