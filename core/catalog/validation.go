package catalog

import (
	"fmt"
	"sort"
	"strings"

	"pcbuild/core/types"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(*types.Component) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateCategory,
		validatePrice,
		validateRequiredSpecs,
	}
}

// Validate checks every component against the rules, in ID order
func (c *Catalog) Validate(rules []ValidationRule) []error {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		for _, rule := range rules {
			if err := rule(c.entries[id]); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
			}
		}
	}
	return errs
}

func validateCategory(comp *types.Component) error {
	if !comp.Category.IsKnown() {
		return fmt.Errorf("unknown category %q", comp.Category)
	}
	return nil
}

func validatePrice(comp *types.Component) error {
	if comp.Price.IsNegative() {
		return fmt.Errorf("price must be non-negative, got %s", comp.Price)
	}
	return nil
}

// validateRequiredSpecs ensures each category carries the attributes the
// compatibility rules read
func validateRequiredSpecs(comp *types.Component) error {
	s := comp.Specs
	var missing []string
	switch comp.Category {
	case types.CategoryCPU:
		missing = appendIfEmpty(missing, "socket", s.Socket)
		missing = appendIfZero(missing, "tdp", s.TDP)
	case types.CategoryMotherboard:
		missing = appendIfEmpty(missing, "socket", s.Socket)
		missing = appendIfEmpty(missing, "memoryType", s.MemoryType)
		missing = appendIfEmpty(missing, "formFactor", s.FormFactor)
	case types.CategoryRAM:
		missing = appendIfEmpty(missing, "memoryType", s.MemoryType)
	case types.CategoryGPU:
		missing = appendIfZero(missing, "tdp", s.TDP)
	case types.CategoryPSU:
		missing = appendIfZero(missing, "wattage", s.Wattage)
	case types.CategoryCase:
		missing = appendIfEmpty(missing, "formFactor", s.FormFactor)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is missing specs: %s", comp.Category, strings.Join(missing, ", "))
	}
	return nil
}

func appendIfEmpty(missing []string, name, value string) []string {
	if strings.TrimSpace(value) == "" {
		return append(missing, name)
	}
	return missing
}

func appendIfZero(missing []string, name string, value int) []string {
	if value <= 0 {
		return append(missing, name)
	}
	return missing
}
