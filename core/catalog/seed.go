package catalog

import (
	_ "embed"
	"fmt"
)

//go:embed seed.hcl
var seedHCL []byte

// Seed returns the built-in demo catalog
func Seed() *Catalog {
	c, err := Parse(seedHCL, "seed.hcl")
	if err != nil {
		panic(fmt.Sprintf("CATALOG SEED INVALID: %v", err))
	}
	return c
}

// MustValidate panics if validation fails
func (c *Catalog) MustValidate() {
	errs := c.Validate(DefaultValidationRules())
	if len(errs) > 0 {
		panic(fmt.Sprintf("catalog has %d validation errors: %v", len(errs), errs[0]))
	}
}
